package httpserver

import (
	"net/http"
	"path"
	"strings"

	"golang.org/x/net/webdav"

	"dirserve/internal/fsutil"
)

const davPrefix = "/dav"

// davHandler exposes the serve root over WebDAV for clients that mount it
// as a drive. Only read methods are let through.
func (s *Server) davHandler() http.Handler {
	dav := &webdav.Handler{
		Prefix:     davPrefix,
		FileSystem: webdav.Dir(s.resolver.Root()),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				s.log.Warn("webdav", "method", r.Method, "path", r.URL.Path, "err", err)
			}
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, "PROPFIND":
		default:
			w.Header().Set("Allow", "GET, HEAD, OPTIONS, PROPFIND")
			http.Error(w, "read-only", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := davPathToClean(r.URL.Path); !ok {
			http.NotFound(w, r)
			return
		}
		dav.ServeHTTP(w, r)
	})
}

// davPathToClean maps /dav/a/b to the served relative path a/b. ok is false
// when webdav.Dir would open a name the listing never shows, such as one
// holding a backslash or a drive marker.
func davPathToClean(urlPath string) (rel string, ok bool) {
	p := strings.TrimPrefix(urlPath, davPrefix)
	rel = fsutil.CleanRelPath(p)
	return rel, rel == strings.TrimPrefix(path.Clean("/"+p), "/")
}
