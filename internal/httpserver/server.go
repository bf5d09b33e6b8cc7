package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"dirserve/internal/archive"
	"dirserve/internal/config"
	"dirserve/internal/static"
)

const thumbPrefix = "/thumb"

type Options struct {
	Config config.Config
	// Logger receives request and error logs. Nil means slog.Default().
	Logger *slog.Logger
}

type Server struct {
	cfg      config.Config
	log      *slog.Logger
	resolver *static.Resolver
	archiver *archive.Builder
	pages    *template.Template
}

func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "/archive"
	}

	tp := ""
	if cfg.Thumbnails {
		tp = thumbPrefix
	}
	res, err := static.New(static.Options{Root: cfg.Root, ThumbPrefix: tp})
	if err != nil {
		return nil, err
	}
	arc, err := archive.New(archive.Options{Root: cfg.Root, MaxDepth: cfg.ArchiveMaxDepth})
	if err != nil {
		return nil, err
	}
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		cfg:      cfg,
		log:      logger,
		resolver: res,
		archiver: arc,
		pages:    pages,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	// zip downloads
	mux.HandleFunc(s.cfg.ArchivePrefix, s.handleArchive)
	mux.HandleFunc(s.cfg.ArchivePrefix+"/", s.handleArchive)

	if s.cfg.Thumbnails {
		mux.HandleFunc(thumbPrefix+"/", s.handleThumb)
	}
	if s.cfg.DAV {
		mux.Handle(davPrefix+"/", s.davHandler())
	}

	// everything else resolves against the serve root
	mux.HandleFunc("/", s.handleStatic)

	return withHeaders(s.logRequests(mux))
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// archives are built in memory before the first byte is written
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !readMethod(w, r) {
		return
	}
	res, err := s.resolver.Resolve(r.URL.EscapedPath())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	switch res := res.(type) {
	case *static.FileResult:
		w.Header().Set("Content-Type", res.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Bytes)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(res.Bytes)
		}
	case *static.DirectoryResult:
		if r.URL.Query().Get("format") == "json" {
			writeJSON(w, res)
			return
		}
		s.renderListing(w, r, res)
	}
}

// renderError writes a generic page for err. The server keeps serving
// whatever went wrong with a single request.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	kind := static.KindOf(err)
	switch kind {
	case static.KindDecode:
		s.log.Warn("bad request path", "path", r.URL.EscapedPath(), "err", err)
		http.Error(w, "bad request path", http.StatusBadRequest)
	case static.KindNotFound:
		if r.URL.Path != "/favicon.ico" {
			s.log.Warn("not found", "path", r.URL.Path, "err", err)
		}
		s.renderNotFound(w, r)
	default:
		s.log.Error("request failed", "path", r.URL.Path, "kind", kind.String(), "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// --- middleware ---

func withHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Basic hardening.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// logRequests logs one line per request with the final status code.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"ua", r.UserAgent(),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// --- helpers ---

func readMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
