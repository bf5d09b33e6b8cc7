package static

import (
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"dirserve/internal/fsutil"
)

// TimeFormat renders Entry.MTime.
const TimeFormat = "2006-01-02 15:04:05 UTC"

// Entry is one child of a listed directory.
type Entry struct {
	Href    string    `json:"href"`
	Name    string    `json:"name"`
	MTime   string    `json:"mtime"`
	Size    int64     `json:"size"`
	IsDir   bool      `json:"isDir"`
	ModTime time.Time `json:"-"`
	// Thumb is the thumbnail URL for image files when thumbnails are on.
	Thumb string `json:"thumb,omitempty"`
}

// Lister enumerates directories under a fixed root.
type Lister struct {
	root string
	// prepended to the href of image entries to fill Entry.Thumb; "" disables
	thumbPrefix string
}

func NewLister(rootAbs, thumbPrefix string) *Lister {
	return &Lister{root: filepath.Clean(rootAbs), thumbPrefix: thumbPrefix}
}

// List returns the immediate children of dir sorted by case-insensitive
// name. Children whose metadata cannot be read, or whose names are not
// valid UTF-8 or not a single path segment, are left out. Only failing to read dir itself is an error.
func (l *Lister) List(dir fsutil.Path) ([]Entry, error) {
	abs, err := dir.Join(l.root)
	if err != nil {
		return nil, newError(KindIO, dir.Display(), err)
	}
	ents, err := os.ReadDir(abs)
	if err != nil {
		return nil, newError(KindIO, dir.Display(), err)
	}

	entries := make([]Entry, 0, len(ents))
	for _, e := range ents {
		name := e.Name()
		if !utf8.ValidString(name) {
			continue
		}
		// names that are not a single clean segment, like `a\b` or "C:",
		// would get an href that points somewhere else
		if c := fsutil.Clean(name); c.Len() != 1 || c.Base() != name {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// follow the link like a plain stat would
			info, err = os.Stat(filepath.Join(abs, name))
			if err != nil {
				continue
			}
		}
		mtime := info.ModTime()
		ent := Entry{
			Href:    dir.Child(name).String(),
			Name:    name,
			MTime:   mtime.UTC().Format(TimeFormat),
			Size:    info.Size(),
			IsDir:   info.IsDir(),
			ModTime: mtime,
		}
		if l.thumbPrefix != "" && !ent.IsDir && IsImage(name) {
			ent.Thumb = l.thumbPrefix + ent.Href
		}
		entries = append(entries, ent)
	}

	SortEntries(entries)
	return entries, nil
}

// SortEntries orders entries by case-folded name. Equal keys keep their
// relative order.
func SortEntries(entries []Entry) {
	fold := cases.Fold()
	keys := make([]string, len(entries))
	for i := range entries {
		keys[i] = fold.String(entries[i].Name)
	}
	sort.Stable(byKey{entries: entries, keys: keys})
}

type byKey struct {
	entries []Entry
	keys    []string
}

func (b byKey) Len() int           { return len(b.entries) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.entries[i], b.entries[j] = b.entries[j], b.entries[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
