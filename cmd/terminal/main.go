package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Alexander-D-Karpov/ampwave/internal/cli"
	"github.com/Alexander-D-Karpov/ampwave/internal/logging"
	"github.com/Alexander-D-Karpov/ampwave/internal/platform"
	"github.com/Alexander-D-Karpov/ampwave/internal/session"
	"github.com/Alexander-D-Karpov/ampwave/internal/term"
)

var Version = "dev"

var CLI struct {
	cli.Flags `embed:""`

	Spectrum bool   `help:"Show the frequency spectrum under the waveform."`
	Track    string `arg:"" optional:"" help:"URL, file path or library query of the track to play."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("ampwave-term"),
		kong.Description("Play a track in the terminal with a braille waveform and a preview of the whole file."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		cli.PrintVersion(os.Stdout, "ampwave-term", Version)
		return
	}

	if err := run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := CLI.LoadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	cacheDir, err := platform.GetCacheDir()
	if err != nil {
		return fmt.Errorf("locate cache dir: %w", err)
	}
	base, closer, err := logging.NewFile(cacheDir, "ampwave-term.log", cfg.Debug)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()
	logger := logging.Component(base, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.Open(ctx, cfg, CLI.Track, base)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn().Err(err).Msg("close session")
		}
	}()

	return term.Run(ctx, sess, CLI.Spectrum, logging.Component(base, "term"))
}
