// Command tileglow runs the beat-reactive panel daemon: it reads the TOML
// configuration, builds the animation pipeline and drives the configured
// sinks until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"libdb.so/tileglow"
)

func main() {
	configPath := pflag.StringP("config", "c", "tileglow.toml", "path to the configuration file")
	verbose := pflag.BoolP("verbose", "v", false, "log debug records instead of warnings only")
	pflag.Parse()

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := run(*configPath, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}

	d, err := tileglow.NewDaemon(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon failed: %w", err)
	}
	return nil
}

func readConfig(path string) (*tileglow.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return tileglow.ParseConfig(f)
}
