package static

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultContentType is used for files whose extension is unknown.
const DefaultContentType = "application/octet-stream"

// ContentType guesses the MIME type of a file from its name alone.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return DefaultContentType
	}
	// Text types are pinned so the result does not depend on the host's
	// mime tables.
	if ct, ok := textTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if ct, ok := fallbackTypes[ext]; ok {
		return ct
	}
	return DefaultContentType
}

// IsImage reports whether name has an extension the thumbnailer can decode.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

var textTypes = map[string]string{
	".txt":  "text/plain; charset=utf-8",
	".log":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".json": "application/json",
	".xml":  "text/xml; charset=utf-8",
	".bin":  DefaultContentType,
}

// Fallbacks for systems with sparse mime tables.
var fallbackTypes = map[string]string{
	// images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	// video
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	// audio
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	// docs/source
	".pdf":  "application/pdf",
	".yaml": "text/plain; charset=utf-8",
	".yml":  "text/plain; charset=utf-8",
	".toml": "text/plain; charset=utf-8",
	".ini":  "text/plain; charset=utf-8",
	".conf": "text/plain; charset=utf-8",
	".go":   "text/plain; charset=utf-8",
	".rs":   "text/plain; charset=utf-8",
	".py":   "text/plain; charset=utf-8",
	".sh":   "text/plain; charset=utf-8",
	".c":    "text/plain; charset=utf-8",
	".h":    "text/plain; charset=utf-8",
	// archives
	".zip": "application/zip",
	".tar": "application/x-tar",
	".gz":  "application/gzip",
}
