package term

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/ampwave/internal/audio"
	"github.com/Alexander-D-Karpov/ampwave/internal/audiotest"
	"github.com/Alexander-D-Karpov/ampwave/internal/handlers"
	"github.com/Alexander-D-Karpov/ampwave/internal/player"
	"github.com/Alexander-D-Karpov/ampwave/internal/render"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

type harness struct {
	actx    *audiotest.Context
	fetcher *audiotest.Fetcher
	queue   *render.FrameQueue
	surface *Braille
	bus     *handlers.EventBus
	player  *player.AudioPlayer
	model   *Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		actx:    audiotest.NewContext(),
		fetcher: audiotest.NewFetcher(),
		queue:   render.NewFrameQueue(),
		surface: NewBraille(10, 2),
		bus:     handlers.NewEventBus(),
	}
	h.player = player.New(player.Deps{
		NewContext: func() (types.AudioContext, error) { return h.actx, nil },
		Fetcher:    h.fetcher,
		Scheduler:  h.queue,
		Surface:    h.surface,
		Bus:        h.bus,
	}, player.DefaultOptions(), zerolog.Nop())
	t.Cleanup(func() { _ = h.player.Detach() })

	h.model = NewModel(h.player, h.queue, h.surface, Options{FPS: 60, Title: "track.mp3"}, zerolog.Nop())
	return h
}

func (h *harness) attach(t *testing.T, media *audiotest.Media) {
	t.Helper()
	require.NoError(t, h.player.Attach(context.Background(), audiotest.Host{Media: media}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.player.Loader().Wait(ctx))
}

func (h *harness) view() string {
	return ansi.Strip(h.model.View())
}

func runes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModelShowsFallbackWithoutMedia(t *testing.T) {
	h := newHarness(t)
	err := h.player.Attach(context.Background(), audiotest.Host{})
	require.ErrorIs(t, err, audio.ErrMissingMedia)

	h.model.Update(frameMsg(time.Now()))
	h.model.Update(runes('p'))

	assert.Contains(t, h.view(), player.FallbackMessage)
	assert.Zero(t, h.queue.Len(), "no live loop without media")
}

func TestFirstFrameStartsLiveLoop(t *testing.T) {
	h := newHarness(t)
	h.attach(t, audiotest.NewMedia("track.mp3", 60))
	require.Zero(t, h.queue.Len(), "nothing is drawn before the first paint")

	_, cmd := h.model.Update(frameMsg(time.Now()))
	require.NotNil(t, cmd, "every frame schedules the next tick")
	assert.Equal(t, 1, h.queue.Len(), "the renderer re-requested its frame")

	// Silence draws a flat line through the middle of the surface. The
	// default width resizes the grid to 76x6 cells, so the line sits at
	// dot row 12, the top of cell row 3.
	lines := strings.Split(h.surface.String(), "\n")
	require.Len(t, lines, defaultScopeRows)
	assert.Equal(t, strings.Repeat(cell(0x09), defaultWidth-boxChrome), lines[3])

	h.model.Update(frameMsg(time.Now()))
	assert.Equal(t, 1, h.queue.Len())
}

func TestWindowResizeResizesSurface(t *testing.T) {
	h := newHarness(t)
	h.model.Update(tea.WindowSizeMsg{Width: 44, Height: 20})

	cols, rows := h.surface.Cells()
	assert.Equal(t, 40, cols)
	assert.Equal(t, defaultScopeRows, rows)
}

func TestKeysDriveThePlayer(t *testing.T) {
	h := newHarness(t)
	media := audiotest.NewMedia("track.mp3", 60)
	h.attach(t, media)

	h.model.Update(runes('p'))
	assert.False(t, media.Paused())
	assert.Equal(t, 1, h.actx.Resumes(), "first play resumes the context")

	h.model.Update(tea.KeyMsg{Type: tea.KeyRight})
	h.model.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, []float64{10, 0}, media.Seeks)

	h.model.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.InDelta(t, 1.05, h.actx.GainNode.Gain(), 1e-9)
	h.model.Update(tea.KeyMsg{Type: tea.KeyDown})
	h.model.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.InDelta(t, 0.95, h.actx.GainNode.Gain(), 1e-9)

	h.model.Update(runes('p'))
	assert.True(t, media.Paused())
	assert.Contains(t, h.view(), "paused")
}

func TestControlErrorIsShown(t *testing.T) {
	h := newHarness(t)
	media := audiotest.NewMedia("track.mp3", 60)
	media.PlayErr = assert.AnError
	h.attach(t, media)

	h.model.Update(runes('p'))
	assert.Contains(t, h.view(), assert.AnError.Error())
}

func TestPreviewStates(t *testing.T) {
	t.Run("failed", func(t *testing.T) {
		h := newHarness(t)
		h.attach(t, audiotest.NewMedia("missing.mp3", 60))
		assert.Contains(t, h.view(), "preview unavailable")
		assert.Contains(t, h.view(), "404")
	})

	t.Run("loading", func(t *testing.T) {
		h := newHarness(t)
		h.fetcher.Gate = make(chan struct{})
		defer close(h.fetcher.Gate)
		require.NoError(t, h.player.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("track.mp3", 60)}))
		assert.Contains(t, h.view(), "loading preview")
	})

	t.Run("ready", func(t *testing.T) {
		h := newHarness(t)
		h.fetcher.Bodies["track.mp3"] = []byte("RIFF")
		samples := make([]float32, 4000)
		for i := range samples {
			samples[i] = 0.5
		}
		h.actx.DecodeFunc = func([]byte) (*types.AudioBuffer, error) {
			return &types.AudioBuffer{SampleRate: 8000, Channels: [][]float32{samples}}, nil
		}
		h.attach(t, audiotest.NewMedia("track.mp3", 60))

		// A flat track rescales to 50 everywhere.
		assert.Contains(t, h.view(), strings.Repeat("▄", 10))
		assert.Contains(t, h.view(), "track.mp3")
	})
}

func TestSpectrumToggle(t *testing.T) {
	h := newHarness(t)
	h.attach(t, audiotest.NewMedia("track.mp3", 60))

	h.model.Update(frameMsg(time.Now()))
	assert.Empty(t, h.model.bins)

	h.model.Update(runes('s'))
	h.model.Update(frameMsg(time.Now()))
	assert.Len(t, h.model.bins, h.actx.Analyser.FrequencyBinCount())

	h.model.Update(runes('s'))
	assert.Empty(t, h.model.bins)
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.model.Update(runes('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.model.View())
}

type recordingSender struct {
	msgs chan tea.Msg
}

func (r recordingSender) Send(msg tea.Msg) { r.msgs <- msg }

func TestBridgeForwardsChanges(t *testing.T) {
	h := newHarness(t)
	s := recordingSender{msgs: make(chan tea.Msg, 8)}
	Bridge(s, h.player, h.bus)

	h.bus.Publish(handlers.EventPlayChanged, types.PlayChanged{Paused: false})
	select {
	case msg := <-s.msgs:
		assert.Equal(t, playChangedMsg{Paused: false}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("play-changed was not forwarded")
	}

	require.NoError(t, h.player.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("missing.mp3", 60)}))
	select {
	case msg := <-s.msgs:
		assert.Equal(t, changedMsg{}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("preview change was not forwarded")
	}
}
