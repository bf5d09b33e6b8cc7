package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is intentionally small. It can come from a JSON, TOML or YAML file,
// environment variables and flags, in increasing order of precedence.
type Config struct {
	// Addr is the listen address.
	Addr string `json:"addr" toml:"addr" yaml:"addr"`

	// Root is the directory served read-only.
	Root string `json:"root" toml:"root" yaml:"root"`

	// ArchivePrefix is the URL prefix under which directories are offered
	// as zip downloads, e.g. /archive/photos.
	ArchivePrefix string `json:"archivePrefix" toml:"archive_prefix" yaml:"archivePrefix"`

	// ArchiveMaxDepth bounds the directory depth walked for one archive.
	ArchiveMaxDepth int `json:"archiveMaxDepth" toml:"archive_max_depth" yaml:"archiveMaxDepth"`

	// DAV mounts a read-only WebDAV view of Root at /dav/.
	DAV bool `json:"dav,omitempty" toml:"dav" yaml:"dav,omitempty"`

	// Thumbnails enables /thumb/ previews for images in listings.
	Thumbnails bool `json:"thumbnails,omitempty" toml:"thumbnails" yaml:"thumbnails,omitempty"`
	ThumbSize  int  `json:"thumbSize,omitempty" toml:"thumb_size" yaml:"thumbSize,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" toml:"log_level" yaml:"logLevel,omitempty"`
}

func Default() Config {
	return Config{
		Addr:            "0.0.0.0:8080",
		Root:            ".",
		ArchivePrefix:   "/archive",
		ArchiveMaxDepth: 64,
		ThumbSize:       256,
		LogLevel:        "info",
	}
}

// LoadFile decodes path over c. The format follows the file extension.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, c)
	case ".toml":
		err = toml.Unmarshal(b, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		return fmt.Errorf("config %s: unsupported format (want .json, .toml, .yaml)", path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with DIRSERVE_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("DIRSERVE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("DIRSERVE_ROOT"); v != "" {
		c.Root = v
	}
	if v := getenv("DIRSERVE_ARCHIVE_PREFIX"); v != "" {
		c.ArchivePrefix = v
	}
	if v := getenv("DIRSERVE_DAV"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DAV = b
		}
	}
	if v := getenv("DIRSERVE_THUMBS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Thumbnails = b
		}
	}
	if v := getenv("DIRSERVE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Flags registers one flag per field on fs, bound to a scratch copy.
// Call the returned function after fs.Parse to copy only the flags that
// were set on the command line into c.
func (c *Config) Flags(fs *flag.FlagSet) (apply func()) {
	tmp := *c
	fs.StringVar(&tmp.Addr, "addr", tmp.Addr, "listen address")
	fs.StringVar(&tmp.Root, "root", tmp.Root, "directory to serve")
	fs.StringVar(&tmp.ArchivePrefix, "archive-prefix", tmp.ArchivePrefix, "URL prefix for zip downloads")
	fs.IntVar(&tmp.ArchiveMaxDepth, "archive-depth", tmp.ArchiveMaxDepth, "max directory depth per archive")
	fs.BoolVar(&tmp.DAV, "dav", tmp.DAV, "serve a read-only WebDAV view at /dav/")
	fs.BoolVar(&tmp.Thumbnails, "thumbs", tmp.Thumbnails, "serve image thumbnails at /thumb/")
	fs.IntVar(&tmp.ThumbSize, "thumb-size", tmp.ThumbSize, "thumbnail bounding box in pixels")
	fs.StringVar(&tmp.LogLevel, "log-level", tmp.LogLevel, "log level (debug, info, warn, error)")

	return func() {
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "addr":
				c.Addr = tmp.Addr
			case "root":
				c.Root = tmp.Root
			case "archive-prefix":
				c.ArchivePrefix = tmp.ArchivePrefix
			case "archive-depth":
				c.ArchiveMaxDepth = tmp.ArchiveMaxDepth
			case "dav":
				c.DAV = tmp.DAV
			case "thumbs":
				c.Thumbnails = tmp.Thumbnails
			case "thumb-size":
				c.ThumbSize = tmp.ThumbSize
			case "log-level":
				c.LogLevel = tmp.LogLevel
			}
		})
	}
}

// Normalize makes Root absolute and trims a trailing slash from
// ArchivePrefix.
func (c *Config) Normalize() error {
	if c.Root != "" {
		abs, err := filepath.Abs(c.Root)
		if err != nil {
			return fmt.Errorf("abs root: %w", err)
		}
		c.Root = abs
	}
	if len(c.ArchivePrefix) > 1 {
		c.ArchivePrefix = strings.TrimRight(c.ArchivePrefix, "/")
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("root is required")
	}
	st, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("root %s is not a directory", c.Root)
	}
	if !strings.HasPrefix(c.ArchivePrefix, "/") || strings.Trim(c.ArchivePrefix, "/") == "" {
		return fmt.Errorf("archive prefix must start with / and name a path segment, got %q", c.ArchivePrefix)
	}
	// ServeMux patterns split on spaces and treat braces as wildcards
	if strings.ContainsAny(c.ArchivePrefix, " \t{}%") || path.Clean(c.ArchivePrefix) != c.ArchivePrefix {
		return fmt.Errorf("archive prefix %q must be a clean path without spaces, braces or escapes", c.ArchivePrefix)
	}
	switch {
	case c.ArchivePrefix == "/dav" || strings.HasPrefix(c.ArchivePrefix, "/dav/"),
		c.ArchivePrefix == "/thumb" || strings.HasPrefix(c.ArchivePrefix, "/thumb/"),
		c.ArchivePrefix == "/healthz":
		return fmt.Errorf("archive prefix %q collides with a reserved route", c.ArchivePrefix)
	}
	if c.ArchiveMaxDepth < 1 || c.ArchiveMaxDepth > 4096 {
		return fmt.Errorf("archive depth must be between 1 and 4096")
	}
	if c.Thumbnails && (c.ThumbSize < 16 || c.ThumbSize > 2048) {
		return fmt.Errorf("thumbnail size must be between 16 and 2048")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
