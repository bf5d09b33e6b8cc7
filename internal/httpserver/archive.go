package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"dirserve/internal/fsutil"
	"dirserve/internal/static"
)

// handleArchive serves <prefix>/<dir> as a zip of dir. The prefix is cut
// from the escaped path so encoded separators survive until sanitizing.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if !readMethod(w, r) {
		return
	}
	raw, ok := cutEscapedPrefix(r.URL.EscapedPath(), s.cfg.ArchivePrefix)
	if !ok {
		s.renderNotFound(w, r)
		return
	}
	dir, err := fsutil.Sanitize(raw)
	if err != nil {
		s.renderError(w, r, &static.Error{Kind: static.KindDecode, Path: raw, Err: err})
		return
	}

	data, err := s.archiver.Build(r.Context(), dir)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.archiver.Name(dir)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// cutEscapedPrefix removes the leading segments of escaped that decode to
// prefix and returns the still escaped rest. ok is false when no segment
// boundary decodes to prefix, e.g. when an encoded slash spans it.
func cutEscapedPrefix(escaped, prefix string) (rest string, ok bool) {
	for i := 1; i <= len(escaped); i++ {
		if i < len(escaped) && escaped[i] != '/' {
			continue
		}
		head, err := url.PathUnescape(escaped[:i])
		if err != nil {
			return "", false
		}
		if head == prefix {
			return escaped[i:], true
		}
		if len(head) >= len(prefix) {
			return "", false
		}
	}
	return "", false
}
