package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/handlers"
	"github.com/Alexander-D-Karpov/ampwave/internal/player"
	"github.com/Alexander-D-Karpov/ampwave/internal/preview"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// PlayerPanel is the whole player widget: live waveform, track preview and
// controls, or the fallback message when there is no media.
type PlayerPanel struct {
	player *player.AudioPlayer

	container *fyne.Container
	fallback  *widget.Label
	scope     *Oscilloscope
	bars      *TrackBars
	loading   *widget.ProgressBarInfinite
	failure   *widget.Label
	bar       *PlayerBar
	body      *fyne.Container
}

func NewPlayerPanel(p *player.AudioPlayer, scope *Oscilloscope, logger zerolog.Logger) *PlayerPanel {
	pp := &PlayerPanel{
		player:   p,
		fallback: widget.NewLabel(player.FallbackMessage),
		scope:    scope,
		bars:     NewTrackBars(),
		loading:  widget.NewProgressBarInfinite(),
		failure:  widget.NewLabel(""),
		bar:      NewPlayerBar(p, logger),
	}
	pp.fallback.Alignment = fyne.TextAlignCenter
	pp.failure.Importance = widget.DangerImportance
	pp.failure.Wrapping = fyne.TextWrapWord
	pp.loading.Stop()

	previewArea := container.NewStack(pp.bars, container.NewVBox(pp.loading, pp.failure))
	pp.body = container.NewBorder(nil, container.NewVBox(previewArea, pp.bar.Container()), nil, nil, pp.scope)
	pp.container = container.NewStack(pp.fallback, pp.body)
	return pp
}

// Subscribe updates the play button on every play-changed event. Events can
// arrive from any goroutine; fyne.Do moves them onto the UI thread.
func (pp *PlayerPanel) Subscribe(bus *handlers.EventBus) (unsubscribe func()) {
	return bus.OnPlayChanged(func(ev types.PlayChanged) {
		fyne.Do(func() { pp.bar.SetPaused(ev.Paused) })
	})
}

// Refresh repaints everything from the player's view. Call it on the UI thread.
func (pp *PlayerPanel) Refresh() {
	v := pp.player.View()
	if v.Fallback != "" {
		pp.fallback.SetText(v.Fallback)
		pp.fallback.Show()
		pp.body.Hide()
		return
	}
	pp.fallback.Hide()
	pp.body.Show()

	pp.bar.Update(v)
	pp.updatePreview(v)
	if v.Duration > 0 {
		pp.bars.SetProgress(v.Position / v.Duration)
	}
}

// OnFrame runs after each live frame is drawn, with that frame's peak.
func (pp *PlayerPanel) OnFrame(peak float64) {
	pp.scope.Redraw()
	pp.bar.SetLevel(peak)
	pp.Refresh()
}

func (pp *PlayerPanel) updatePreview(v player.View) {
	switch v.Preview {
	case preview.KindIdle:
		pp.loading.Stop()
		pp.loading.Hide()
		pp.failure.Hide()
	case preview.KindLoading:
		pp.loading.Show()
		pp.loading.Start()
		pp.failure.Hide()
	case preview.KindReady:
		pp.loading.Stop()
		pp.loading.Hide()
		pp.failure.Hide()
		if pp.bars.Len() != len(v.Bars) {
			pp.bars.SetHeights(v.Bars)
		}
	case preview.KindFailed:
		pp.loading.Stop()
		pp.loading.Hide()
		pp.failure.SetText("Preview unavailable: " + v.Failure)
		pp.failure.Show()
	}
}

func (pp *PlayerPanel) Bar() *PlayerBar             { return pp.bar }
func (pp *PlayerPanel) Bars() *TrackBars            { return pp.bars }
func (pp *PlayerPanel) Container() *fyne.Container { return pp.container }
