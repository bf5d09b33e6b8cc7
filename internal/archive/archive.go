// Package archive packs a served directory subtree into a zip file.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"dirserve/internal/fsutil"
	"dirserve/internal/static"
)

// DefaultMaxDepth bounds how many directory levels below the walk root
// are archived.
const DefaultMaxDepth = 64

var (
	ErrNotDirectory  = errors.New("not a directory")
	ErrDepthExceeded = errors.New("directory tree too deep")
)

type Options struct {
	Root     string
	MaxDepth int
}

// Builder archives directories under a fixed root. It is safe for
// concurrent use.
type Builder struct {
	root     string
	maxDepth int
}

func New(opts Options) (*Builder, error) {
	if opts.Root == "" {
		return nil, errors.New("archive: root is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("archive: abs root: %w", err)
	}
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &Builder{root: root, maxDepth: depth}, nil
}

// Name returns the download file name for an archive of dir.
func (b *Builder) Name(dir fsutil.Path) string {
	if dir.IsRoot() {
		return "root.zip"
	}
	return sanitizeZipBaseName(dir.Base()) + ".zip"
}

// node is one directory still to be written.
type node struct {
	abs   string
	rel   string // slash-separated, "" for the walk root
	depth int
	// ancestors holds the directories on the path from the walk root,
	// used to detect symlink cycles.
	ancestors []os.FileInfo
}

// Build walks dir and returns the complete zip archive. Any failure aborts
// the whole archive; errors are *static.Error.
func (b *Builder) Build(ctx context.Context, dir fsutil.Path) ([]byte, error) {
	abs, err := dir.Join(b.root)
	if err != nil {
		return nil, static.NewError(static.KindNotFound, dir.Display(), err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, static.NewError(static.KindNotFound, dir.Display(), err)
		}
		return nil, static.NewError(static.KindIO, dir.Display(), err)
	}
	if !st.IsDir() {
		return nil, static.NewError(static.KindIO, dir.Display(), ErrNotDirectory)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := b.walk(ctx, zw, node{abs: abs, ancestors: []os.FileInfo{st}}); err != nil {
		_ = zw.Close()
		return nil, static.NewError(static.KindIO, dir.Display(), err)
	}
	if err := zw.Close(); err != nil {
		return nil, static.NewError(static.KindIO, dir.Display(), err)
	}
	return buf.Bytes(), nil
}

// walk writes the subtree depth-first with an explicit stack. Children are
// visited in os.ReadDir order (sorted by name), so output is reproducible.
func (b *Builder) walk(ctx context.Context, zw *zip.Writer, start node) error {
	stack := []node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return err
		}
		if n.rel != "" {
			if err := writeDir(zw, n); err != nil {
				return err
			}
		}

		ents, err := os.ReadDir(n.abs)
		if err != nil {
			return relError("read dir", n.rel, err)
		}

		var subdirs []node
		for _, e := range ents {
			childAbs := filepath.Join(n.abs, e.Name())
			childRel := joinRel(n.rel, e.Name())

			info, err := os.Stat(childAbs)
			if err != nil {
				return relError("stat", childRel, err)
			}
			switch {
			case info.IsDir():
				if onChain(info, n.ancestors) {
					continue
				}
				if n.depth+1 > b.maxDepth {
					return fmt.Errorf("%w: %q", ErrDepthExceeded, childRel)
				}
				anc := make([]os.FileInfo, len(n.ancestors), len(n.ancestors)+1)
				copy(anc, n.ancestors)
				subdirs = append(subdirs, node{
					abs:       childAbs,
					rel:       childRel,
					depth:     n.depth + 1,
					ancestors: append(anc, info),
				})
			case info.Mode().IsRegular():
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := writeFile(zw, childAbs, childRel, info); err != nil {
					return err
				}
			}
		}
		// push in reverse so the first subdirectory is popped first
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
	return nil
}

func onChain(info os.FileInfo, ancestors []os.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(info, a) {
			return true
		}
	}
	return false
}

func writeDir(zw *zip.Writer, n node) error {
	st := n.ancestors[len(n.ancestors)-1]
	h := &zip.FileHeader{
		Name:     n.rel + "/",
		Method:   zip.Store,
		Modified: st.ModTime(),
	}
	h.SetMode(st.Mode())
	if _, err := zw.CreateHeader(h); err != nil {
		return fmt.Errorf("zip dir %q: %w", n.rel, err)
	}
	return nil
}

func writeFile(zw *zip.Writer, abs, rel string, info os.FileInfo) error {
	f, err := os.Open(abs)
	if err != nil {
		return relError("open", rel, err)
	}
	defer f.Close()

	h, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header %q: %w", rel, err)
	}
	h.Name = rel
	h.Method = zip.Deflate
	wr, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("zip create %q: %w", rel, err)
	}
	if _, err := io.Copy(wr, f); err != nil {
		return relError("read", rel, err)
	}
	return nil
}

// relError names the failing entry by its archive path. The absolute path
// carried by a *fs.PathError is dropped.
func relError(op, rel string, err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return fmt.Errorf("%s %q: %w", op, rel, err)
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

const maxZipBaseName = 120

func sanitizeZipBaseName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".zip")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, "\"", "")
	s = strings.Trim(s, ". ")
	if s == "" {
		return "download"
	}
	if len(s) > maxZipBaseName {
		// cut on a rune boundary
		n := maxZipBaseName
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return s
}
