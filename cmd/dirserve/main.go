package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"dirserve/internal/config"
	"dirserve/internal/httpserver"
)

// Build information (set by linker flags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.Default()
	fs := flag.NewFlagSet("dirserve", flag.ExitOnError)
	var (
		cfgPath     = fs.String("config", "", "path to a .json, .toml or .yaml config file (optional)")
		showVersion = fs.Bool("version", false, "print version information and exit")
	)
	applyFlags := cfg.Flags(fs)
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		printVersion()
		return
	}

	if *cfgPath != "" {
		if err := cfg.LoadFile(*cfgPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	applyFlags()

	if err := cfg.Normalize(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	srv, err := httpserver.New(httpserver.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("server init: %v", err)
	}

	banner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func banner(cfg config.Config) {
	bold := color.New(color.Bold)
	url := color.New(color.FgCyan)

	fmt.Println()
	bold.Printf("dirserve %s\n", version)
	fmt.Printf("  serving   %s\n", cfg.Root)
	fmt.Printf("  listening %s\n", url.Sprintf("http://%s/", cfg.Addr))
	fmt.Printf("  archives  %s\n", url.Sprintf("http://%s%s/<dir>", cfg.Addr, cfg.ArchivePrefix))
	if cfg.DAV {
		fmt.Printf("  webdav    %s (read-only)\n", url.Sprintf("http://%s/dav/", cfg.Addr))
	}
	if cfg.Thumbnails {
		fmt.Printf("  thumbs    %dpx\n", cfg.ThumbSize)
	}
	fmt.Println()
}

func printVersion() {
	fmt.Printf("dirserve %s\n", version)
	if commit != "unknown" {
		fmt.Printf("commit: %s\n", commit)
	}
	if date != "unknown" {
		fmt.Printf("built:  %s\n", date)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
