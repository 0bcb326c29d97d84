package term

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/audio"
	"github.com/Alexander-D-Karpov/ampwave/internal/handlers"
	"github.com/Alexander-D-Karpov/ampwave/internal/player"
	"github.com/Alexander-D-Karpov/ampwave/internal/render"
	"github.com/Alexander-D-Karpov/ampwave/internal/session"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Run plays the session's track in the terminal until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, sess *session.Session, spectrum bool, logger zerolog.Logger) error {
	queue := render.NewFrameQueue()
	surface := NewBraille(defaultWidth-boxChrome, defaultScopeRows)

	p, err := sess.NewPlayer(surface, queue)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Detach(); err != nil {
			logger.Warn().Err(err).Msg("detach player")
		}
	}()

	sess.LoadMedia(ctx)
	if err := p.Attach(ctx, sess.Slot); err != nil && !errors.Is(err, audio.ErrMissingMedia) {
		return fmt.Errorf("attach player: %w", err)
	}

	title := ""
	if sess.Element != nil {
		title = filepath.Base(sess.Element.Src())
	}
	model := NewModel(p, queue, surface, Options{
		FPS:      sess.Config.Render.FPS,
		Title:    title,
		Spectrum: spectrum,
	}, logger)

	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	Bridge(prog, p, sess.Bus)

	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}

// Sender is the part of tea.Program the bridge needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards player changes and play-changed events into the program.
// Send blocks until the event loop reads the message, and the notifications
// can come from inside Update or under the audio lock, so each one is
// delivered from its own goroutine.
func Bridge(s Sender, p *player.AudioPlayer, bus *handlers.EventBus) {
	p.OnChange(func() {
		go s.Send(changedMsg{})
	})
	bus.OnPlayChanged(func(ev types.PlayChanged) {
		go s.Send(playChangedMsg(ev))
	})
}
