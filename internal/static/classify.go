package static

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// NodeKind is what a path denotes on disk.
type NodeKind int

const (
	NodeFile NodeKind = iota + 1
	NodeDirectory
)

// Metadata is the result of classifying a path.
type Metadata struct {
	Kind    NodeKind
	Name    string
	Size    int64
	ModTime time.Time
}

// Classify stats abs and reports whether it is a regular file or a
// directory. A missing path, or anything that is neither, is KindNotFound.
// Permission failures are KindMetadata.
func Classify(abs string) (Metadata, error) {
	st, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Metadata{}, newError(KindMetadata, abs, err)
		}
		return Metadata{}, newError(KindNotFound, abs, err)
	}
	md := Metadata{
		Name:    st.Name(),
		Size:    st.Size(),
		ModTime: st.ModTime(),
	}
	switch {
	case st.IsDir():
		md.Kind = NodeDirectory
	case st.Mode().IsRegular():
		md.Kind = NodeFile
	default:
		return Metadata{}, newError(KindNotFound, abs, errors.New("not a regular file or directory"))
	}
	return md, nil
}
