// Package term hosts the player in a terminal with bubbletea. The live
// waveform is drawn in braille, the preview as block characters.
package term

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/player"
	"github.com/Alexander-D-Karpov/ampwave/internal/preview"
	"github.com/Alexander-D-Karpov/ampwave/internal/render"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

const (
	seekStep   = 10.0
	volumeStep = 0.05

	defaultScopeRows = 6
	defaultWidth     = 80
)

type (
	// frameMsg drives the frame queue, once per display frame.
	frameMsg time.Time
	// changedMsg reports a preview or end-of-track change from another goroutine.
	changedMsg struct{}
	// playChangedMsg carries a play-changed event.
	playChangedMsg types.PlayChanged
)

type Options struct {
	FPS       int
	Title     string
	ScopeRows int
	Spectrum  bool
}

// Model is the bubbletea model. The frame queue is only flushed from Update,
// so the live renderer and View never run concurrently.
type Model struct {
	player  *player.AudioPlayer
	queue   *render.FrameQueue
	surface *Braille
	log     zerolog.Logger

	title     string
	interval  time.Duration
	scopeRows int

	width    int
	started  bool
	spectrum bool
	bins     []byte
	level    float64
	lastErr  string
	quitting bool

	keys     keyMap
	help     help.Model
	progress progress.Model
	spinner  spinner.Model
}

func NewModel(p *player.AudioPlayer, queue *render.FrameQueue, surface *Braille, opts Options, logger zerolog.Logger) *Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.ScopeRows <= 0 {
		opts.ScopeRows = defaultScopeRows
	}

	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(dim)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(dim)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(dim)

	m := &Model{
		player:    p,
		queue:     queue,
		surface:   surface,
		log:       logger,
		title:     opts.Title,
		interval:  time.Second / time.Duration(opts.FPS),
		scopeRows: opts.ScopeRows,
		spectrum:  opts.Spectrum,
		keys:      newKeyMap(),
		help:      h,
		progress: progress.New(
			progress.WithGradient("#3C5A9A", "#78A0FF"),
			progress.WithoutPercentage(),
		),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(scopeStyle)),
	}
	m.resize(defaultWidth)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.spinner.Tick)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil

	case frameMsg:
		m.frame(time.Time(msg))
		return m, m.tick()

	case changedMsg, playChangedMsg:
		// View reads the player directly; these only force a repaint.
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// frame runs one display frame. The first one starts the live loop, so the
// renderer never draws before the first paint.
func (m *Model) frame(now time.Time) {
	if !m.started {
		m.started = true
		if !m.player.Start() {
			m.log.Debug().Msg("live waveform not started")
		}
	}
	m.queue.Flush(now)

	m.level = m.player.Level()
	g := m.player.Graph()
	if g == nil {
		return
	}
	if m.spectrum {
		m.bins = append(m.bins[:0], g.SampleSpectrum()...)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	v := m.player.View()
	if v.Fallback != "" {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.report(m.player.TogglePlayPause(context.Background()))
	case key.Matches(msg, m.keys.Back):
		m.report(m.player.Seek(max(v.Position-seekStep, 0)))
	case key.Matches(msg, m.keys.Forward):
		target := v.Position + seekStep
		if v.Duration > 0 {
			target = min(target, v.Duration)
		}
		m.report(m.player.Seek(target))
	case key.Matches(msg, m.keys.Louder):
		m.player.SetVolume(v.Volume + volumeStep)
	case key.Matches(msg, m.keys.Quieter):
		m.player.SetVolume(v.Volume - volumeStep)
	case key.Matches(msg, m.keys.Spectrum):
		m.spectrum = !m.spectrum
		m.bins = m.bins[:0]
	}
	return m, nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.log.Warn().Err(err).Msg("playback control failed")
		m.lastErr = err.Error()
		return
	}
	m.lastErr = ""
}

func (m *Model) resize(width int) {
	m.width = max(width, 20)
	inner := m.width - boxChrome
	m.surface.Resize(inner, m.scopeRows)
	m.progress.Width = max(inner-14, 10)
	m.help.Width = inner
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	v := m.player.View()
	if v.Fallback != "" {
		return boxStyle.Render(errorStyle.Render(v.Fallback)) + "\n"
	}

	inner := m.width - boxChrome
	var sb strings.Builder
	sb.Grow(1024)

	if m.title != "" {
		sb.WriteString(titleStyle.Render(m.title))
		sb.WriteByte('\n')
	}

	sb.WriteString(scopeStyle.Render(m.surface.String()))
	sb.WriteByte('\n')

	if m.spectrum && len(m.bins) > 0 {
		sb.WriteString(renderSpectrum(m.bins, inner))
		sb.WriteByte('\n')
	}

	sb.WriteString(m.previewLine(v, inner))
	sb.WriteByte('\n')

	fraction := 0.0
	if v.Duration > 0 {
		fraction = min(v.Position/v.Duration, 1)
	}
	sb.WriteString(fmt.Sprintf("%s %s %s",
		timeStyle.Render(formatSeconds(v.Position)),
		m.progress.ViewAs(fraction),
		timeStyle.Render(formatSeconds(v.Duration))))
	sb.WriteByte('\n')

	sb.WriteString(m.statusLine(v, inner))
	sb.WriteByte('\n')

	if m.lastErr != "" {
		sb.WriteString(errorStyle.Render(m.lastErr))
		sb.WriteByte('\n')
	}

	sb.WriteString(m.help.View(m.keys))

	return boxStyle.Width(m.width-2).Render(sb.String()) + "\n"
}

func (m *Model) previewLine(v player.View, width int) string {
	switch v.Preview {
	case preview.KindLoading:
		return m.spinner.View() + statusStyle.Render(" loading preview")
	case preview.KindFailed:
		return errorStyle.Render("preview unavailable: " + v.Failure)
	case preview.KindReady:
		played := 0.0
		if v.Duration > 0 {
			played = v.Position / v.Duration
		}
		return renderTrackBars(v.Bars, width, played)
	}
	return ""
}

func (m *Model) statusLine(v player.View, width int) string {
	icon, text := "▶", "playing"
	if v.Paused {
		icon, text = "❚❚", "paused"
	}
	left := fmt.Sprintf("%s  %s", icon, text)
	right := fmt.Sprintf("level %3.0f%%  vol %+.2f", m.level*100, v.Volume)
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 2)
	return statusStyle.Render(left) + spaces(gap) + statusStyle.Render(right)
}
