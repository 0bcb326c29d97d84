package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/ampwave/internal/audio"
	"github.com/Alexander-D-Karpov/ampwave/internal/audiotest"
	"github.com/Alexander-D-Karpov/ampwave/internal/handlers"
	"github.com/Alexander-D-Karpov/ampwave/internal/preview"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

type fixture struct {
	actx      *audiotest.Context
	contexts  int
	fetcher   *audiotest.Fetcher
	scheduler *audiotest.Scheduler
	surface   *audiotest.Surface
	bus       *handlers.EventBus

	mu     sync.Mutex
	events []types.PlayChanged
}

func newFixture() *fixture {
	f := &fixture{
		actx:      audiotest.NewContext(),
		fetcher:   audiotest.NewFetcher(),
		scheduler: audiotest.NewScheduler(),
		surface:   audiotest.NewSurface(256, 64),
		bus:       handlers.NewEventBus(),
	}
	f.bus.Subscribe(handlers.EventPlayChanged, func(data interface{}) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, data.(types.PlayChanged))
	})
	return f
}

func (f *fixture) player(opts Options) *AudioPlayer {
	return New(Deps{
		NewContext: func() (types.AudioContext, error) {
			f.contexts++
			return f.actx, nil
		},
		Fetcher:   f.fetcher,
		Scheduler: f.scheduler,
		Surface:   f.surface,
		Bus:       f.bus,
	}, opts, zerolog.Nop())
}

func (f *fixture) playEvents() []types.PlayChanged {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.PlayChanged(nil), f.events...)
}

func waitPreview(t *testing.T, p *AudioPlayer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Loader().Wait(ctx))
}

func TestWithoutMediaShowsFallback(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())

	err := p.Attach(context.Background(), audiotest.Host{})
	require.ErrorIs(t, err, audio.ErrMissingMedia)

	assert.Equal(t, View{Fallback: "Track not found"}, p.View())
	assert.Zero(t, f.contexts, "no audio context is created")
	assert.Nil(t, p.Graph())
	assert.Nil(t, p.Loader())
	assert.Nil(t, p.Controls())
	assert.Empty(t, f.fetcher.Calls())

	assert.ErrorIs(t, p.TogglePlayPause(context.Background()), ErrNotAttached)
	assert.ErrorIs(t, p.Seek(3), ErrNotAttached)
	p.SetVolume(0.5)
	assert.False(t, p.Start())
	assert.Empty(t, f.playEvents(), "play-changed is never dispatched")
	assert.NoError(t, p.Detach())
}

func TestMediaWithoutSourceStaysIdle(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())

	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("", 30)}))
	waitPreview(t, p)

	v := p.View()
	assert.Empty(t, v.Fallback)
	assert.Equal(t, preview.KindIdle, v.Preview)
	assert.Nil(t, v.Bars)
	assert.Empty(t, f.fetcher.Calls())
	assert.NotNil(t, p.Graph())
}

func TestPreviewLoadsAfterAttach(t *testing.T) {
	f := newFixture()
	f.fetcher.Bodies["track.mp3"] = []byte("ID3")
	f.fetcher.Gate = make(chan struct{})
	samples := make([]float32, 44100)
	for i := range samples {
		samples[i] = float32(i%100) / 100
	}
	f.actx.DecodeFunc = func([]byte) (*types.AudioBuffer, error) {
		return &types.AudioBuffer{SampleRate: 44100, Channels: [][]float32{samples}}, nil
	}

	p := f.player(DefaultOptions())
	var changes sync.WaitGroup
	changes.Add(2)
	p.OnChange(changes.Done)

	media := audiotest.NewMedia("track.mp3", 120)
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: media}))

	v := p.View()
	assert.Equal(t, preview.KindLoading, v.Preview, "loading starts before Attach returns")
	assert.Equal(t, 120.0, v.Duration)
	assert.True(t, v.Paused)

	close(f.fetcher.Gate)
	waitPreview(t, p)
	changes.Wait()

	v = p.View()
	require.Equal(t, preview.KindReady, v.Preview)
	assert.Len(t, v.Bars, 200)
	assert.Equal(t, []string{"track.mp3"}, f.fetcher.Calls())

	for i := 0; i < 5; i++ {
		p.View()
	}
	assert.Equal(t, 1, p.BarComputations(), "bars are computed once per state")
}

func TestPreviewFailureIsShown(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())

	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("gone.mp3", 10)}))
	waitPreview(t, p)

	v := p.View()
	assert.Equal(t, preview.KindFailed, v.Preview)
	assert.Contains(t, v.Failure, "404")
	assert.Nil(t, v.Bars)
}

func TestGraphIsWiredToMedia(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("", 1)}))

	require.NotNil(t, f.actx.Source)
	assert.Equal(t, []types.AudioNode{f.actx.Analyser, f.actx.Dest}, f.actx.Source.Connections)
	assert.Equal(t, 256, f.actx.Analyser.Size)
	assert.Equal(t, 128, p.Graph().FrameLength())
	for i := 0; i < 3; i++ {
		assert.Len(t, p.Graph().SampleFrame(), 128)
	}
}

func TestTogglePairRestoresState(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())
	media := audiotest.NewMedia("", 60)
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: media}))

	require.NoError(t, p.TogglePlayPause(context.Background()))
	assert.False(t, media.Paused())
	assert.False(t, p.View().Paused)

	require.NoError(t, p.TogglePlayPause(context.Background()))
	assert.True(t, media.Paused())
	assert.True(t, p.View().Paused)

	events := f.playEvents()
	require.Len(t, events, 2)
	assert.False(t, events[0].Paused)
	assert.True(t, events[1].Paused)
}

func TestResumeOnlyOnFirstPlayFromStart(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())
	media := audiotest.NewMedia("", 60)
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: media}))

	require.NoError(t, p.TogglePlayPause(context.Background()))
	assert.Equal(t, 1, f.actx.Resumes())

	media.Advance(2.5)
	require.NoError(t, p.TogglePlayPause(context.Background()))
	require.NoError(t, p.TogglePlayPause(context.Background()))
	assert.Equal(t, 1, f.actx.Resumes())
}

func TestVolumeIsNotClamped(t *testing.T) {
	f := newFixture()
	p := f.player(Options{Volume: 0.7})
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("", 60)}))
	require.Equal(t, []float64{0.7}, f.actx.GainNode.Sets)

	p.SetVolume(-1)

	assert.Equal(t, []float64{0.7, -1}, f.actx.GainNode.Sets)
	assert.Equal(t, -1.0, p.View().Volume)
}

func TestSeek(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())
	media := audiotest.NewMedia("", 60)
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: media}))

	require.NoError(t, p.Seek(42.5))
	assert.Equal(t, []float64{42.5}, media.Seeks)
}

func TestLiveLoopReflectsPosition(t *testing.T) {
	f := newFixture()
	f.actx.Analyser.Level = 192
	p := f.player(DefaultOptions())
	media := audiotest.NewMedia("", 60)
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: media}))

	require.True(t, p.Start())
	assert.False(t, p.Start())

	media.Advance(1.25)
	require.Equal(t, 1, f.scheduler.Step(time.Now()))

	assert.Equal(t, 1.25, p.View().Position)
	require.Len(t, f.surface.Path, 129)
	assert.Equal(t, 192.0/128*32, f.surface.Path[0].Y)
	assert.Equal(t, 1, f.scheduler.Pending())
}

func TestDetachReleasesEverything(t *testing.T) {
	f := newFixture()
	f.fetcher.Bodies["track.mp3"] = []byte("ID3")
	f.fetcher.Gate = make(chan struct{})
	p := f.player(DefaultOptions())
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("track.mp3", 60)}))
	p.Start()
	f.scheduler.Step(time.Now())

	require.NoError(t, p.Detach())
	require.NoError(t, p.Detach())

	assert.Zero(t, f.scheduler.Pending(), "draw loop cancelled")
	assert.Len(t, f.scheduler.Cancels, 1)
	assert.Equal(t, 1, f.actx.Closes())
	assert.Equal(t, 1, f.actx.Source.Disconnects)
	assert.Equal(t, 1, f.actx.Analyser.Disconnects)
	assert.Equal(t, 1, f.actx.GainNode.Disconnects)

	waitPreview(t, p)
	assert.Equal(t, preview.KindLoading, p.View().Preview, "in-flight result is discarded")
}

func TestAttachOnlyOnce(t *testing.T) {
	f := newFixture()
	p := f.player(DefaultOptions())
	host := audiotest.Host{Media: audiotest.NewMedia("", 1)}

	require.NoError(t, p.Attach(context.Background(), host))
	assert.ErrorIs(t, p.Attach(context.Background(), host), ErrAlreadyAttached)
	assert.Equal(t, 1, f.contexts)

	empty := f.player(DefaultOptions())
	require.Error(t, empty.Attach(context.Background(), audiotest.Host{}))
	assert.ErrorIs(t, empty.Attach(context.Background(), host), ErrAlreadyAttached, "no re-scan after a miss")
}

func TestSlotProjection(t *testing.T) {
	s := NewSlot(nil)
	_, ok := s.QueryMedia()
	assert.False(t, ok)

	media := audiotest.NewMedia("a.ogg", 1)
	s.Project(media)
	got, ok := s.QueryMedia()
	require.True(t, ok)
	assert.Same(t, media, got)
}

func TestAttachAfterDetach(t *testing.T) {
	f := newFixture()
	f.fetcher.Bodies["track.mp3"] = []byte("ID3")
	p := f.player(DefaultOptions())

	require.NoError(t, p.Detach())
	err := p.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("track.mp3", 10)})

	assert.ErrorIs(t, err, ErrDetached)
	assert.Zero(t, f.contexts, "no graph is built")
	assert.Empty(t, f.fetcher.Calls(), "no preview is loaded")
	assert.Nil(t, p.Loader())
	assert.False(t, p.Start())
}

// detachingMedia tears the player down while Attach is wiring it up, after
// the graph exists but before the preview load starts.
type detachingMedia struct {
	*audiotest.Media
	p *AudioPlayer
}

func (m detachingMedia) OnFinished(func()) {
	_ = m.p.Detach()
}

func TestDetachDuringAttachReleasesEverything(t *testing.T) {
	f := newFixture()
	f.fetcher.Bodies["track.mp3"] = []byte("ID3")
	f.fetcher.Gate = make(chan struct{})
	p := f.player(DefaultOptions())

	media := detachingMedia{Media: audiotest.NewMedia("track.mp3", 10), p: p}
	err := p.Attach(context.Background(), audiotest.Host{Media: media})
	assert.ErrorIs(t, err, ErrDetached)

	assert.Equal(t, 1, f.actx.Closes(), "graph released once")
	assert.False(t, p.Start(), "draw loop never starts")

	close(f.fetcher.Gate)
	waitPreview(t, p)
	assert.Equal(t, preview.KindLoading, p.View().Preview, "late result is discarded")
}

func TestFrameHookGetsPeakOfDrawnFrame(t *testing.T) {
	f := newFixture()
	f.actx.Analyser.Level = 192
	p := f.player(DefaultOptions())
	require.NoError(t, p.Attach(context.Background(), audiotest.Host{Media: audiotest.NewMedia("", 60)}))

	var peaks []float64
	p.OnFrameDrawn(func(peak float64) { peaks = append(peaks, peak) })
	assert.Zero(t, p.Level())

	require.True(t, p.Start())
	f.scheduler.Step(time.Now())
	f.scheduler.Step(time.Now())

	assert.Equal(t, []float64{0.5, 0.5}, peaks)
	assert.Equal(t, 0.5, p.Level())
	assert.Equal(t, 2, f.actx.Analyser.Pulls, "one analyser pull per frame")
}
