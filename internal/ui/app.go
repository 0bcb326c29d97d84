// Package ui hosts the player in a fyne window.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/audio"
	"github.com/Alexander-D-Karpov/ampwave/internal/config"
	"github.com/Alexander-D-Karpov/ampwave/internal/logging"
	"github.com/Alexander-D-Karpov/ampwave/internal/player"
	"github.com/Alexander-D-Karpov/ampwave/internal/session"
	"github.com/Alexander-D-Karpov/ampwave/internal/ui/components"
	"github.com/Alexander-D-Karpov/ampwave/internal/ui/themes"
)

const (
	seekStep   = 10.0
	volumeStep = 0.05
)

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	ctx     context.Context
	cfg     *config.Config
	log     zerolog.Logger

	session   *session.Session
	player    *player.AudioPlayer
	scheduler *AnimationScheduler
	panel     *components.PlayerPanel
	unsub     func()

	closeOnce sync.Once
}

func NewApp(ctx context.Context, fyneApp fyne.App, cfg *config.Config, track string, logger zerolog.Logger) (*App, error) {
	style, err := session.StyleFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	fyneApp.Settings().SetTheme(themes.NewTheme(cfg.UI.Theme, style.Stroke, style.Background))

	sess, err := session.Open(ctx, cfg, track, logger)
	if err != nil {
		return nil, err
	}
	logger = logging.Component(logger, "ui")

	scope := components.NewOscilloscope(cfg.Render.Width, cfg.Render.Height)
	scheduler := NewAnimationScheduler()

	p, err := sess.NewPlayer(scope.Surface(), scheduler)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}

	window := fyneApp.NewWindow("ampwave")
	window.Resize(fyne.NewSize(float32(cfg.UI.WindowWidth), float32(cfg.UI.WindowHeight)))
	window.CenterOnScreen()

	a := &App{
		fyneApp:   fyneApp,
		window:    window,
		ctx:       ctx,
		cfg:       cfg,
		log:       logger,
		session:   sess,
		player:    p,
		scheduler: scheduler,
		panel:     components.NewPlayerPanel(p, scope, logger),
	}

	if err := a.setupUI(); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("setup UI: %w", err)
	}
	a.setupKeyboardShortcuts()

	logger.Debug().Msg("application initialized")
	return a, nil
}

func (a *App) setupUI() error {
	a.window.SetContent(a.panel.Container())
	a.window.SetOnClosed(func() {
		if err := a.Close(); err != nil {
			a.log.Error().Err(err).Msg("shutdown")
		}
	})

	a.unsub = a.panel.Subscribe(a.session.Bus)
	a.player.OnChange(func() { fyne.Do(a.panel.Refresh) })

	a.session.LoadMedia(a.ctx)
	if err := a.player.Attach(a.ctx, a.session.Slot); err != nil && !errors.Is(err, audio.ErrMissingMedia) {
		return err
	}
	a.panel.Refresh()
	return nil
}

func (a *App) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		v := a.player.View()
		if v.Fallback != "" {
			return
		}

		switch key.Name {
		case fyne.KeySpace:
			if err := a.player.TogglePlayPause(a.ctx); err != nil {
				a.log.Warn().Err(err).Msg("toggle playback")
			}
		case fyne.KeyRight:
			a.seek(min(v.Position+seekStep, v.Duration))
		case fyne.KeyLeft:
			a.seek(max(v.Position-seekStep, 0))
		case fyne.KeyUp:
			a.player.SetVolume(min(v.Volume+volumeStep, components.VolumeMax))
		case fyne.KeyDown:
			a.player.SetVolume(max(v.Volume-volumeStep, components.VolumeMin))
		case fyne.KeyF:
			a.window.SetFullScreen(!a.window.FullScreen())
		case fyne.KeyEscape:
			if a.window.FullScreen() {
				a.window.SetFullScreen(false)
			}
		}
		a.panel.Refresh()
	})
}

func (a *App) seek(seconds float64) {
	if err := a.player.Seek(seconds); err != nil {
		a.log.Warn().Err(err).Float64("position", seconds).Msg("seek")
	}
}

// ShowAndRun shows the window and starts the live waveform once the app is
// running, after the first paint.
func (a *App) ShowAndRun() {
	a.fyneApp.Lifecycle().SetOnStarted(func() {
		a.player.OnFrameDrawn(a.panel.OnFrame)
		if a.player.Start() {
			a.scheduler.Start()
		}
	})
	a.window.ShowAndRun()
}

func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.log.Debug().Msg("shutting down")
		a.scheduler.Stop()
		if a.unsub != nil {
			a.unsub()
		}
		err = errors.Join(a.player.Detach(), a.session.Close())
	})
	return err
}
