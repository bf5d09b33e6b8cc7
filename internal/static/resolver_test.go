package static

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"dirserve/internal/fsutil"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "hello.txt", "hello")
	writeFile(t, root, "data.bin", "\x00\x01\x02")
	writeFile(t, root, "noext", "raw")
	writeFile(t, root, "docs/Readme.md", "# docs")
	writeFile(t, root, "docs/sub dir/nested.txt", "nested")
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r, err := New(Options{Root: root})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, root
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() with empty root should fail")
	}
}

func TestResolveFile(t *testing.T) {
	r, root := newTestResolver(t)

	tests := []struct {
		name     string
		raw      string
		wantMime string
		wantFile string
	}{
		{name: "text", raw: "/hello.txt", wantMime: "text/plain; charset=utf-8", wantFile: "hello.txt"},
		{name: "binary", raw: "/data.bin", wantMime: DefaultContentType, wantFile: "data.bin"},
		{name: "no extension", raw: "/noext", wantMime: DefaultContentType, wantFile: "noext"},
		{name: "encoded space", raw: "/docs/sub%20dir/nested.txt", wantMime: "text/plain; charset=utf-8", wantFile: "docs/sub dir/nested.txt"},
		{name: "traversal collapses", raw: "/../../hello.txt", wantMime: "text/plain; charset=utf-8", wantFile: "hello.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.raw)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.raw, err)
			}
			fr, ok := res.(*FileResult)
			if !ok {
				t.Fatalf("Resolve(%q) = %T, want *FileResult", tt.raw, res)
			}
			if fr.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", fr.MimeType, tt.wantMime)
			}
			want, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(tt.wantFile)))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.Equal(fr.Bytes, want) {
				t.Errorf("Bytes = %q, want %q", fr.Bytes, want)
			}
		})
	}
}

func TestResolveRoot(t *testing.T) {
	r, _ := newTestResolver(t)

	for _, raw := range []string{"/", "", "/..", "/./"} {
		res, err := r.Resolve(raw)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", raw, err)
		}
		dr, ok := res.(*DirectoryResult)
		if !ok {
			t.Fatalf("Resolve(%q) = %T, want *DirectoryResult", raw, res)
		}
		if dr.CurrentPath != "/" {
			t.Errorf("CurrentPath = %q, want /", dr.CurrentPath)
		}
		if len(dr.Breadcrumbs) != 1 || dr.Breadcrumbs[0] != (Breadcrumb{Href: "/", Label: "root"}) {
			t.Errorf("Breadcrumbs = %v, want only root", dr.Breadcrumbs)
		}

		direct, err := r.Lister().List(fsutil.Path{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if !reflect.DeepEqual(dr.Entries, direct) {
			t.Errorf("Entries = %v, want %v", dr.Entries, direct)
		}
	}
}

func TestResolveDirectory(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.Resolve("/docs/sub%20dir/")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	dr, ok := res.(*DirectoryResult)
	if !ok {
		t.Fatalf("Resolve = %T, want *DirectoryResult", res)
	}
	if dr.CurrentPath != "/docs/sub dir" {
		t.Errorf("CurrentPath = %q, want %q", dr.CurrentPath, "/docs/sub dir")
	}
	wantCrumbs := []Breadcrumb{
		{Href: "/", Label: "root"},
		{Href: "/docs", Label: "docs"},
		{Href: "/docs/sub%20dir", Label: "sub dir"},
	}
	if !reflect.DeepEqual(dr.Breadcrumbs, wantCrumbs) {
		t.Errorf("Breadcrumbs = %v, want %v", dr.Breadcrumbs, wantCrumbs)
	}
	if len(dr.Entries) != 1 || dr.Entries[0].Href != "/docs/sub%20dir/nested.txt" {
		t.Errorf("Entries = %v, want nested.txt", dr.Entries)
	}
}

func TestResolveEmptyDirectory(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.Resolve("/empty")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	dr := res.(*DirectoryResult)
	if len(dr.Entries) != 0 {
		t.Errorf("Entries = %v, want none", dr.Entries)
	}
}

func TestResolveNotFound(t *testing.T) {
	r, _ := newTestResolver(t)

	for _, raw := range []string{"/no/such/file", "/hello.txt/child", "/missing.txt"} {
		_, err := r.Resolve(raw)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q) error = %v, want ErrNotFound", raw, err)
		}
		if errors.Is(err, ErrIO) {
			t.Errorf("Resolve(%q) must not be ErrIO", raw)
		}
		if KindOf(err) != KindNotFound {
			t.Errorf("KindOf = %v, want %v", KindOf(err), KindNotFound)
		}
	}
}

func TestResolveDecodeError(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.Resolve("/bad%zzpath")
	if KindOf(err) != KindDecode {
		t.Fatalf("KindOf(%v) = %v, want %v", err, KindOf(err), KindDecode)
	}
	if !errors.Is(err, fsutil.ErrDecode) {
		t.Errorf("error should wrap fsutil.ErrDecode: %v", err)
	}
}

func TestResolveDoesNotLeakRoot(t *testing.T) {
	r, root := newTestResolver(t)

	_, err := r.Resolve("/no/such/file")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), root) {
		t.Errorf("error %q exposes the serve root", err.Error())
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	e := newError(KindIO, "/x", cause)
	if !errors.Is(e, ErrIO) || errors.Is(e, ErrNotFound) {
		t.Errorf("errors.Is mismatch for %v", e)
	}
	if !errors.Is(e, cause) {
		t.Errorf("Unwrap should expose cause")
	}
	if got, want := e.Error(), "/x: io: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if KindOf(cause) != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want unknown", KindOf(cause))
	}
}
