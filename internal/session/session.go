// Package session wires the audio output, fetcher, decoders and media element
// a front-end needs to host one player.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/audio"
	"github.com/Alexander-D-Karpov/ampwave/internal/config"
	"github.com/Alexander-D-Karpov/ampwave/internal/fetch"
	"github.com/Alexander-D-Karpov/ampwave/internal/handlers"
	"github.com/Alexander-D-Karpov/ampwave/internal/logging"
	"github.com/Alexander-D-Karpov/ampwave/internal/player"
	"github.com/Alexander-D-Karpov/ampwave/internal/render"
	"github.com/Alexander-D-Karpov/ampwave/internal/search"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

type Session struct {
	Config   *config.Config
	Output   audio.Output
	Registry *audio.Registry
	Fetcher  *fetch.Client
	Bus      *handlers.EventBus
	Slot     *player.Slot

	// Element is nil when no track was given.
	Element *audio.Element

	log zerolog.Logger
}

// Open builds a session for track, which may be a URL, a file path or, with
// library.dir configured, a loose query resolved against the library.
func Open(ctx context.Context, cfg *config.Config, track string, logger zerolog.Logger) (*Session, error) {
	out, err := audio.NewOutput(cfg, logging.Component(logger, "audio"))
	if err != nil {
		return nil, fmt.Errorf("open audio output: %w", err)
	}

	s := &Session{
		Config:   cfg,
		Output:   out,
		Registry: audio.DefaultRegistry(),
		Fetcher:  fetch.NewClient(cfg, logging.Component(logger, "fetch")),
		Bus:      handlers.NewEventBus(),
		Slot:     player.NewSlot(nil),
		log:      logger,
	}

	locator, err := ResolveTrack(ctx, cfg, track)
	if err != nil {
		_ = out.Close()
		return nil, err
	}

	if locator != "" {
		s.Element = audio.NewElement(locator, s.Fetcher, s.Registry, out, logging.Component(logger, "media"))
		s.Slot.Project(s.Element)
	}

	logger.Info().Str("track", locator).Str("output", cfg.Audio.Output).Msg("session opened")
	return s, nil
}

// LoadMedia loads the media element in the background. Failures are logged;
// the preview reports its own.
func (s *Session) LoadMedia(ctx context.Context) {
	if s.Element == nil {
		return
	}
	go func() {
		if err := s.Element.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("media element failed to load")
		}
	}()
}

// NewContext is a player.ContextFactory bound to the session's output.
func (s *Session) NewContext() (types.AudioContext, error) {
	return audio.NewContext(s.Output, s.Registry, logging.Component(s.log, "graph")), nil
}

// NewPlayer creates a player drawing onto surface on scheduler's frames.
func (s *Session) NewPlayer(surface types.Surface2D, scheduler types.FrameScheduler) (*player.AudioPlayer, error) {
	style, err := StyleFromConfig(s.Config)
	if err != nil {
		return nil, err
	}
	return player.New(player.Deps{
		NewContext: s.NewContext,
		Fetcher:    s.Fetcher,
		Scheduler:  scheduler,
		Surface:    surface,
		Bus:        s.Bus,
	}, player.Options{
		NumBars: s.Config.Preview.NumBars,
		Volume:  s.Config.Audio.DefaultVolume,
		Style:   style,
	}, logging.Component(s.log, "player")), nil
}

func (s *Session) Close() error {
	var errs []error
	if s.Element != nil {
		errs = append(errs, s.Element.Close())
	}
	errs = append(errs, s.Output.Close())

	requests, failures := s.Fetcher.Stats()
	s.log.Debug().Int64("requests", requests).Int64("failures", failures).Msg("session closed")
	return errors.Join(errs...)
}

// ResolveTrack turns track into a locator the fetcher understands. URLs and
// existing files are used as given; anything else is looked up in the library
// when one is configured.
func ResolveTrack(ctx context.Context, cfg *config.Config, track string) (string, error) {
	if track == "" {
		return "", nil
	}
	if u, err := url.Parse(track); err == nil && (u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "file") {
		return track, nil
	}
	if _, err := os.Stat(track); err == nil {
		return track, nil
	}
	if cfg.Library.Dir == "" {
		return track, nil
	}

	lib, err := search.Scan(ctx, cfg.Library.Dir)
	if err != nil {
		return "", err
	}
	return lib.Resolve(track)
}

func StyleFromConfig(cfg *config.Config) (render.Style, error) {
	stroke, err := config.ParseColor(cfg.Render.StrokeColor)
	if err != nil {
		return render.Style{}, fmt.Errorf("render.stroke_color: %w", err)
	}
	background, err := config.ParseColor(cfg.Render.BackgroundColor)
	if err != nil {
		return render.Style{}, fmt.Errorf("render.background_color: %w", err)
	}
	return render.Style{
		Stroke:     stroke,
		Background: background,
		LineWidth:  cfg.Render.LineWidth,
	}, nil
}
