package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

// cliConfig holds user-supplied flag values, validated before use.
type cliConfig struct {
	path        string
	logLevel    string
	startVolume int
	width       int
	height      int
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("vireo-player", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.IntVar(&cfg.startVolume, "volume", 100, "Initial volume percent (0-100)")
	fs.IntVar(&cfg.width, "width", 1280, "Window width")
	fs.IntVar(&cfg.height, "height", 720, "Window height")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.showVersion {
		return cfg, nil
	}

	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q", cfg.logLevel)
	}

	if cfg.startVolume < 0 || cfg.startVolume > 100 {
		return nil, errors.New("volume must be between 0 and 100")
	}
	if cfg.width <= 0 || cfg.height <= 0 {
		return nil, errors.New("width and height must be positive")
	}

	if fs.NArg() != 1 {
		return nil, errors.New("usage: vireo-player [flags] path/to/media")
	}
	cfg.path = fs.Arg(0)

	return cfg, nil
}
