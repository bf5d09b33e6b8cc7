// Package static resolves request paths against a served directory tree.
//
// A Resolver turns a raw, percent-encoded request path into either the bytes
// of a file or the listing data of a directory. It holds no mutable state and
// may be shared by concurrent requests.
package static

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dirserve/internal/fsutil"
)

type Options struct {
	// Root is the directory being served. It is made absolute by New.
	Root string
	// ThumbPrefix enables Entry.Thumb links when non-empty, e.g. "/thumb".
	ThumbPrefix string
}

type Resolver struct {
	root   string
	lister *Lister
}

func New(opts Options) (*Resolver, error) {
	if opts.Root == "" {
		return nil, errors.New("static: root is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("static: abs root: %w", err)
	}
	return &Resolver{
		root:   root,
		lister: NewLister(root, opts.ThumbPrefix),
	}, nil
}

// Root returns the absolute serve root.
func (r *Resolver) Root() string { return r.root }

// Lister returns the directory lister bound to the serve root.
func (r *Resolver) Lister() *Lister { return r.lister }

// Resolve sanitizes raw and resolves it. Errors are always *Error.
func (r *Resolver) Resolve(raw string) (Result, error) {
	p, err := fsutil.Sanitize(raw)
	if err != nil {
		return nil, newError(KindDecode, raw, err)
	}
	return r.ResolvePath(p)
}

// ResolvePath resolves an already sanitized path.
func (r *Resolver) ResolvePath(p fsutil.Path) (Result, error) {
	abs, err := p.Join(r.root)
	if err != nil {
		return nil, newError(KindNotFound, p.Display(), err)
	}
	md, err := Classify(abs)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = p.Display()
		}
		return nil, err
	}

	switch md.Kind {
	case NodeFile:
		b, err := os.ReadFile(abs)
		if err != nil {
			return nil, newError(KindIO, p.Display(), err)
		}
		return &FileResult{
			MimeType: ContentType(md.Name),
			Bytes:    b,
			Name:     md.Name,
			ModTime:  md.ModTime,
		}, nil
	default:
		entries, err := r.lister.List(p)
		if err != nil {
			return nil, err
		}
		return &DirectoryResult{
			CurrentPath: p.Display(),
			Path:        p,
			Breadcrumbs: Breadcrumbs(p),
			Entries:     entries,
		}, nil
	}
}
