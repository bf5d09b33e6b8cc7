package fsutil

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrDecode is returned by Sanitize when the request path is not valid
	// percent-encoded UTF-8.
	ErrDecode = errors.New("malformed request path")

	// ErrPathEscape is returned by Join when the joined path would leave the root.
	ErrPathEscape = errors.New("path escape")
)

// Path is a request path reduced to traversal-safe segments. The zero value
// is the root. A Path is never modified after it is built.
type Path struct {
	segs []string
}

// Sanitize percent-decodes a raw request path and keeps only its normal
// segments. Parent references, current-dir markers, empty segments and drive
// markers are dropped, never traversed.
func Sanitize(raw string) (Path, error) {
	dec, err := url.PathUnescape(raw)
	if err != nil {
		return Path{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !utf8.ValidString(dec) {
		return Path{}, fmt.Errorf("%w: invalid utf-8", ErrDecode)
	}
	return Clean(dec), nil
}

// Clean is Sanitize without the percent-decoding step.
func Clean(p string) Path {
	p = strings.ReplaceAll(p, "\\", "/")
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if normalSegment(s) {
			segs = append(segs, s)
		}
	}
	return Path{segs: segs}
}

func normalSegment(s string) bool {
	switch {
	case s == "", s == ".", s == "..":
		return false
	case strings.ContainsRune(s, 0):
		return false
	case isDriveMarker(s):
		return false
	}
	return true
}

// isDriveMarker reports whether s looks like "C:".
func isDriveMarker(s string) bool {
	if len(s) != 2 || s[1] != ':' {
		return false
	}
	c := s[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func (p Path) Segments() []string {
	out := make([]string, len(p.segs))
	copy(out, p.segs)
	return out
}

func (p Path) Len() int     { return len(p.segs) }
func (p Path) IsRoot() bool { return len(p.segs) == 0 }

// Base returns the last segment, or "" for the root.
func (p Path) Base() string {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[len(p.segs)-1]
}

// Child returns p extended by the sanitized components of name.
func (p Path) Child(name string) Path {
	extra := Clean(name).segs
	segs := make([]string, 0, len(p.segs)+len(extra))
	segs = append(segs, p.segs...)
	segs = append(segs, extra...)
	return Path{segs: segs}
}

// Prefix returns the path made of the first n segments.
func (p Path) Prefix(n int) Path {
	if n <= 0 {
		return Path{}
	}
	if n > len(p.segs) {
		n = len(p.segs)
	}
	return Path{segs: p.segs[:n:n]}
}

// String returns the URL form of p: a leading slash followed by the
// percent-escaped segments. Sanitize(p.String()) yields p again.
func (p Path) String() string {
	if len(p.segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// Display returns the unescaped slash form of p, e.g. "/a b/c".
func (p Path) Display() string {
	return "/" + strings.Join(p.segs, "/")
}

// Rel returns the slash-separated relative form ("" for the root).
func (p Path) Rel() string {
	return strings.Join(p.segs, "/")
}

// Join returns the filesystem path of p under rootAbs.
func (p Path) Join(rootAbs string) (string, error) {
	root := filepath.Clean(rootAbs)
	if len(p.segs) == 0 {
		return root, nil
	}
	abs := filepath.Join(root, filepath.FromSlash(p.Rel()))
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return abs, nil
}

// CleanRelPath takes a user path like "", ".", "/a/b", "a//b", and returns a
// safe, slash-based, no-leading-slash relative path ("" means root).
func CleanRelPath(p string) string {
	return Clean(p).Rel()
}
