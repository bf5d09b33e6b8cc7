package static

import (
	"time"

	"dirserve/internal/fsutil"
)

// Result is either a *FileResult or a *DirectoryResult.
type Result interface {
	isResult()
}

// FileResult holds the complete contents of a resolved file.
type FileResult struct {
	MimeType string
	Bytes    []byte
	Name     string
	ModTime  time.Time
}

// DirectoryResult is the data behind a directory listing page.
type DirectoryResult struct {
	CurrentPath string       `json:"currentPath"`
	Path        fsutil.Path  `json:"-"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	Entries     []Entry      `json:"entries"`
}

func (*FileResult) isResult()      {}
func (*DirectoryResult) isResult() {}
