package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"math"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/cli"
	"github.com/Alexander-D-Karpov/ampwave/internal/logging"
	"github.com/Alexander-D-Karpov/ampwave/internal/render"
	"github.com/Alexander-D-Karpov/ampwave/internal/session"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

var CLI struct {
	cli.Flags `embed:""`

	Snapshot string `help:"Write the last live waveform frame to this PNG file." type:"path"`
	Track    string `arg:"" help:"URL, file path or library query of the track to play."`
}

// audio plays a track without a window: the live loop runs on a ticker and
// progress goes to the log. Useful to check an output backend.
func main() {
	kong.Parse(&CLI,
		kong.Name("ampwave-audio"),
		kong.Description("Play a track headless and log the live level."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		cli.PrintVersion(os.Stdout, "ampwave-audio", "dev")
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
	base := logging.New(os.Stderr, cfg.Debug)
	logger := logging.Component(base, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.Open(ctx, cfg, CLI.Track, base)
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.Element == nil {
		return errors.New("no track given")
	}
	if err := sess.Element.Load(ctx); err != nil {
		return err
	}

	canvas := render.NewCanvas(cfg.Render.Width, cfg.Render.Height)
	scheduler := render.NewTickerScheduler(cfg.Render.FPS)
	p, err := sess.NewPlayer(canvas, scheduler)
	if err != nil {
		return err
	}
	if err := p.Attach(ctx, sess.Slot); err != nil {
		return err
	}

	finished := make(chan struct{}, 1)
	sess.Bus.OnPlayChanged(func(ev types.PlayChanged) {
		if ev.Paused {
			select {
			case finished <- struct{}{}:
			default:
			}
		}
	})

	// The hook runs on the scheduler's goroutine; report reads from main.
	var peak atomic.Uint64
	p.OnFrameDrawn(func(level float64) {
		peak.Store(math.Float64bits(level))
	})

	p.Start()
	scheduler.Start()
	if err := p.TogglePlayPause(ctx); err != nil {
		return err
	}

	level := func() float64 { return math.Float64frombits(peak.Load()) }
	report(ctx, level, sess.Element.CurrentTime, finished, logger)

	scheduler.Stop()
	if err := p.Detach(); err != nil {
		logger.Warn().Err(err).Msg("detach player")
	}

	if CLI.Snapshot != "" {
		if err := writeSnapshot(CLI.Snapshot, canvas); err != nil {
			return err
		}
		logger.Info().Str("path", CLI.Snapshot).Msg("snapshot written")
	}
	return nil
}

// report logs the playback position and peak level once a second until the
// track ends or ctx is cancelled.
func report(ctx context.Context, level, position func() float64, finished <-chan struct{}, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("interrupted")
			return
		case <-finished:
			logger.Info().Float64("position", position()).Msg("track finished")
			return
		case <-ticker.C:
			logger.Info().
				Str("position", fmt.Sprintf("%.1fs", position())).
				Float64("peak", level()).
				Msg("playing")
		}
	}
}

func writeSnapshot(path string, canvas *render.Canvas) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, canvas.Image()); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
