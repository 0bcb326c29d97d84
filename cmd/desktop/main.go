package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/cli"
	"github.com/Alexander-D-Karpov/ampwave/internal/logging"
	"github.com/Alexander-D-Karpov/ampwave/internal/ui"
)

var Version = "dev"

var CLI struct {
	cli.Flags `embed:""`

	Track string `arg:"" optional:"" help:"URL, file path or library query of the track to play."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("ampwave"),
		kong.Description("Play a track with a live waveform and a preview of the whole file."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		cli.PrintVersion(os.Stdout, "ampwave", Version)
		return
	}

	cfg, err := CLI.LoadConfig()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	base := logging.New(os.Stderr, cfg.Debug)
	logger := logging.Component(base, "main")
	logger.Debug().
		Str("output", cfg.Audio.Output).
		Int("sample_rate", cfg.Audio.SampleRate).
		Int("fps", cfg.Render.FPS).
		Str("theme", cfg.UI.Theme).
		Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ampApp, err := ui.NewApp(ctx, app.New(), cfg, CLI.Track, base)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create app")
	}

	setupGracefulShutdown(cancel, ampApp, logger)
	ampApp.ShowAndRun()
}

func setupGracefulShutdown(cancel context.CancelFunc, ampApp *ui.App, logger zerolog.Logger) {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		sig := <-c
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		cancel()
		if err := ampApp.Close(); err != nil {
			logger.Warn().Err(err).Msg("shutdown")
		}
		os.Exit(0)
	}()
}
