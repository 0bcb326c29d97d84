package audio

import (
	"context"
	"testing"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/ampwave/internal/audiotest"
)

func newTestGraph(t *testing.T, level float64) (*Graph, *Context, *Element, *HeadlessOutput) {
	t.Helper()

	el, out := loadedElement(t, level, testRate)
	actx := NewContext(out, DefaultRegistry(), zerolog.Nop())
	g, err := NewGraph(actx, el, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g, actx, el, out
}

func TestGraphIsSilentUntilResumed(t *testing.T) {
	g, actx, el, out := newTestGraph(t, 0.5)
	assert.Equal(t, StateSuspended, actx.State())

	require.NoError(t, el.Play())
	mix := out.Drain(256)
	assert.Equal(t, 0.0, mix[0][0])
	assert.Zero(t, el.CurrentTime())

	require.NoError(t, g.Resume(context.Background()))
	require.NoError(t, g.Resume(context.Background()))
	assert.Equal(t, StateRunning, actx.State())

	mix = out.Drain(256)
	assert.NotZero(t, mix[0][0])
}

func TestGraphMixesBypassAndGainPath(t *testing.T) {
	g, _, el, out := newTestGraph(t, 0.5)
	require.NoError(t, g.Resume(context.Background()))
	require.NoError(t, el.Play())

	// direct path plus analyser path at unity gain
	mix := out.Drain(256)
	assert.InDelta(t, 1.0, mix[10][0], 1e-3)
	assert.InDelta(t, 256.0/testRate, el.CurrentTime(), 1e-6, "fanout must pull the source once per sample")

	g.SetGain(0)
	assert.Equal(t, 0.0, g.Gain())
	mix = out.Drain(256)
	assert.InDelta(t, 0.5, mix[10][0], 1e-3)

	g.SetGain(-1)
	mix = out.Drain(256)
	assert.InDelta(t, 0.0, mix[10][1], 1e-3)
}

func TestGraphSampleFrame(t *testing.T) {
	g, _, el, out := newTestGraph(t, 0.5)
	assert.Equal(t, FFTSize/2, g.FrameLength())

	frame := g.SampleFrame()
	require.Len(t, frame, 128)
	for _, b := range frame {
		assert.Equal(t, byte(128), b, "silence before anything played")
	}

	require.NoError(t, g.Resume(context.Background()))
	require.NoError(t, el.Play())
	out.Drain(1024)

	again := g.SampleFrame()
	require.Len(t, again, 128)
	assert.Same(t, &frame[0], &again[0], "frame buffer is reused")
	for _, b := range again {
		assert.Equal(t, byte(192), b)
	}
}

func TestGraphSampleSpectrum(t *testing.T) {
	fetcher := audiotest.NewFetcher()
	// 1 kHz at 8 kHz lands exactly on bin 32 of a 256 point transform
	fetcher.Bodies["sine.wav"] = audiotest.WAV(t, testRate, 1, audiotest.Sine(testRate, testRate, 1000, 0.8))

	out := NewHeadlessOutput(beep.SampleRate(testRate))
	el := NewElement("sine.wav", fetcher, DefaultRegistry(), out, zerolog.Nop())
	require.NoError(t, el.Load(context.Background()))

	g, err := NewGraph(NewContext(out, DefaultRegistry(), zerolog.Nop()), el, zerolog.Nop())
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Resume(context.Background()))
	require.NoError(t, el.Play())
	out.Drain(2048)

	var spectrum []byte
	for i := 0; i < 20; i++ {
		spectrum = g.SampleSpectrum()
	}
	require.Len(t, spectrum, 128)

	peak := 0
	for k, v := range spectrum {
		if v > spectrum[peak] {
			peak = k
		}
	}
	assert.Equal(t, 32, peak)
	assert.Greater(t, spectrum[32], spectrum[100])
}

func TestGraphClose(t *testing.T) {
	g, actx, el, out := newTestGraph(t, 0.5)
	require.NoError(t, g.Resume(context.Background()))
	require.NoError(t, el.Play())

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.Equal(t, StateClosed, actx.State())

	mix := out.Drain(256)
	assert.Equal(t, 0.0, mix[0][0])
	assert.ErrorIs(t, actx.Resume(context.Background()), ErrContextClosed)
}

func TestNewGraphWithoutMedia(t *testing.T) {
	fake := audiotest.NewContext()

	g, err := NewGraph(fake, nil, zerolog.Nop())
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrMissingMedia)

	var el *Element
	g, err = NewGraph(fake, el, zerolog.Nop())
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrMissingMedia)

	assert.Nil(t, fake.Source, "nothing is created without media")
	assert.Zero(t, fake.Closes())
}

func TestNewGraphWiring(t *testing.T) {
	fake := audiotest.NewContext()
	media := audiotest.NewMedia("track.mp3", 120)

	g, err := NewGraph(fake, media, zerolog.Nop())
	require.NoError(t, err)

	a := fake.Analyser
	assert.Equal(t, 256, a.Size)
	assert.Equal(t, -90.0, a.MinDB)
	assert.Equal(t, -10.0, a.MaxDB)
	assert.Equal(t, 0.85, a.Smoothing)

	require.NotNil(t, fake.Source)
	assert.Len(t, fake.Source.Connections, 2)
	assert.Same(t, a, fake.Source.Connections[0])
	assert.Same(t, fake.Dest, fake.Source.Connections[1])
	assert.Same(t, fake.GainNode, a.Connections[0])
	assert.Same(t, fake.Dest, fake.GainNode.Connections[0])

	assert.Len(t, g.SampleFrame(), 128)

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.Equal(t, 1, fake.Closes())
	assert.Equal(t, 1, fake.Source.Disconnects)
}

func TestNewGraphReleasesOnFailure(t *testing.T) {
	fake := audiotest.NewContext()
	fake.GainNode.ConnectErr = assert.AnError

	g, err := NewGraph(fake, audiotest.NewMedia("track.mp3", 1), zerolog.Nop())
	assert.Nil(t, g)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, fake.Closes())
}

func TestContextRejectsBadConnections(t *testing.T) {
	out := NewHeadlessOutput(beep.SampleRate(testRate))
	actx := NewContext(out, DefaultRegistry(), zerolog.Nop())
	other := NewContext(out, DefaultRegistry(), zerolog.Nop())

	a := actx.CreateAnalyser()
	gain := actx.CreateGain()

	assert.ErrorIs(t, a.Connect(other.Destination()), ErrForeignNode)
	assert.ErrorIs(t, a.Connect(&audiotest.Node{}), ErrForeignNode)

	require.NoError(t, a.Connect(gain))
	require.NoError(t, a.Connect(gain), "duplicate connections are ignored")
	assert.ErrorIs(t, gain.Connect(a), ErrCycle)
	assert.ErrorIs(t, gain.Connect(gain), ErrCycle)
	assert.Error(t, actx.Destination().Connect(a))

	_, err := actx.CreateMediaElementSource(audiotest.NewMedia("x.mp3", 1))
	assert.ErrorIs(t, err, ErrNotCapturable)

	require.NoError(t, actx.Close())
	assert.ErrorIs(t, gain.Connect(actx.Destination()), ErrContextClosed)
}

func TestAnalyserSettings(t *testing.T) {
	actx := NewContext(NewHeadlessOutput(beep.SampleRate(testRate)), DefaultRegistry(), zerolog.Nop())
	a := actx.CreateAnalyser()

	assert.Equal(t, 2048, a.FFTSize())
	assert.Equal(t, 1024, a.FrequencyBinCount())

	assert.ErrorIs(t, a.SetFFTSize(100), ErrInvalidFFTSize)
	assert.ErrorIs(t, a.SetFFTSize(16), ErrInvalidFFTSize)
	assert.ErrorIs(t, a.SetFFTSize(65536), ErrInvalidFFTSize)
	require.NoError(t, a.SetFFTSize(256))
	assert.Equal(t, 128, a.FrequencyBinCount())

	// nothing recorded yet: a silent frame, and no energy in the spectrum
	frame := make([]byte, 300)
	a.GetByteTimeDomainData(frame)
	assert.Equal(t, byte(128), frame[0])
	assert.Equal(t, byte(128), frame[255])
	assert.Equal(t, byte(0), frame[256], "only fftSize samples are written")

	spectrum := make([]byte, 128)
	a.GetByteFrequencyData(spectrum)
	assert.Equal(t, make([]byte, 128), spectrum)
}

func TestClampByte(t *testing.T) {
	assert.Equal(t, byte(0), clampByte(-4))
	assert.Equal(t, byte(255), clampByte(300))
	assert.Equal(t, byte(127), clampByte(127.9))
	assert.Equal(t, byte(0), clampByte(0/zero()))
}

func zero() float64 { return 0 }
