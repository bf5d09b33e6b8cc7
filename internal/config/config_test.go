package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigValidation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	valid := func(mut func(*Config)) Config {
		c := Default()
		c.Root = dir
		if mut != nil {
			mut(&c)
		}
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: valid(nil), wantErr: false},
		{name: "empty addr", config: valid(func(c *Config) { c.Addr = "" }), wantErr: true},
		{name: "empty root", config: valid(func(c *Config) { c.Root = "" }), wantErr: true},
		{name: "missing root", config: valid(func(c *Config) { c.Root = filepath.Join(dir, "nope") }), wantErr: true},
		{name: "root is a file", config: valid(func(c *Config) { c.Root = file }), wantErr: true},
		{name: "prefix without slash", config: valid(func(c *Config) { c.ArchivePrefix = "archive" }), wantErr: true},
		{name: "prefix is root", config: valid(func(c *Config) { c.ArchivePrefix = "/" }), wantErr: true},
		{name: "prefix collides with dav", config: valid(func(c *Config) { c.ArchivePrefix = "/dav" }), wantErr: true},
		{name: "prefix with space", config: valid(func(c *Config) { c.ArchivePrefix = "/my zips" }), wantErr: true},
		{name: "prefix with wildcard", config: valid(func(c *Config) { c.ArchivePrefix = "/{dir}" }), wantErr: true},
		{name: "prefix with escape", config: valid(func(c *Config) { c.ArchivePrefix = "/%61rchive" }), wantErr: true},
		{name: "prefix not clean", config: valid(func(c *Config) { c.ArchivePrefix = "/a/../zip" }), wantErr: true},
		{name: "nested prefix", config: valid(func(c *Config) { c.ArchivePrefix = "/dl/zip" }), wantErr: false},
		{name: "custom prefix", config: valid(func(c *Config) { c.ArchivePrefix = "/zip" }), wantErr: false},
		{name: "depth too low", config: valid(func(c *Config) { c.ArchiveMaxDepth = 0 }), wantErr: true},
		{name: "depth too high", config: valid(func(c *Config) { c.ArchiveMaxDepth = 5000 }), wantErr: true},
		{name: "thumb size ignored when disabled", config: valid(func(c *Config) { c.ThumbSize = 1 }), wantErr: false},
		{name: "thumb size too small", config: valid(func(c *Config) { c.Thumbnails = true; c.ThumbSize = 1 }), wantErr: true},
		{name: "unknown log level", config: valid(func(c *Config) { c.LogLevel = "loud" }), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"c.json": `{"addr":"127.0.0.1:9000","root":"/srv","archivePrefix":"/zip","dav":true}`,
		"c.toml": "addr = \"127.0.0.1:9000\"\nroot = \"/srv\"\narchive_prefix = \"/zip\"\ndav = true\n",
		"c.yaml": "addr: \"127.0.0.1:9000\"\nroot: /srv\narchivePrefix: /zip\ndav: true\n",
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			c := Default()
			if err := c.LoadFile(p); err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if c.Addr != "127.0.0.1:9000" || c.Root != "/srv" || c.ArchivePrefix != "/zip" || !c.DAV {
				t.Errorf("LoadFile() = %+v", c)
			}
			// untouched fields keep their defaults
			if c.ArchiveMaxDepth != 64 || c.LogLevel != "info" {
				t.Errorf("defaults lost: %+v", c)
			}
		})
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.ini")
	if err := os.WriteFile(p, []byte("x=1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := Default()
	if err := c.LoadFile(p); err == nil {
		t.Error("LoadFile(.ini) should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DIRSERVE_ADDR":      ":1234",
		"DIRSERVE_ROOT":      "/data",
		"DIRSERVE_THUMBS":    "true",
		"DIRSERVE_DAV":       "not-a-bool",
		"DIRSERVE_LOG_LEVEL": "debug",
	}
	c := Default()
	c.ApplyEnv(func(k string) string { return env[k] })

	if c.Addr != ":1234" || c.Root != "/data" || !c.Thumbnails || c.LogLevel != "debug" {
		t.Errorf("ApplyEnv() = %+v", c)
	}
	if c.DAV {
		t.Error("invalid bool should be ignored")
	}
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	c := Default()
	c.Root = "/from-file"
	c.Addr = "file:1"

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	apply := c.Flags(fs)
	if err := fs.Parse([]string{"-addr", ":7000", "-thumbs"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	apply()

	if c.Addr != ":7000" {
		t.Errorf("Addr = %q, want :7000", c.Addr)
	}
	if !c.Thumbnails {
		t.Error("Thumbnails should be set by flag")
	}
	if c.Root != "/from-file" {
		t.Errorf("Root = %q, unset flag must not override", c.Root)
	}
}

func TestNormalize(t *testing.T) {
	c := Default()
	c.Root = "."
	c.ArchivePrefix = "/archive/"
	c.LogLevel = " WARN "
	if err := c.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !filepath.IsAbs(c.Root) {
		t.Errorf("Root = %q, want absolute", c.Root)
	}
	if c.ArchivePrefix != "/archive" {
		t.Errorf("ArchivePrefix = %q, want /archive", c.ArchivePrefix)
	}
	if c.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", c.LogLevel)
	}
}
