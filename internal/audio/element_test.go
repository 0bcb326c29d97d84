package audio

import (
	"context"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/ampwave/internal/audiotest"
)

const testRate = 8000

// loadedElement returns an element playing constant level for frames samples,
// loaded into a headless output running at testRate.
func loadedElement(t *testing.T, level float64, frames int) (*Element, *HeadlessOutput) {
	t.Helper()

	fetcher := audiotest.NewFetcher()
	fetcher.Bodies["track.wav"] = audiotest.WAV(t, testRate, 1, audiotest.Constant(frames, level))

	out := NewHeadlessOutput(beep.SampleRate(testRate))
	t.Cleanup(func() { _ = out.Close() })

	el := NewElement("track.wav", fetcher, DefaultRegistry(), out, zerolog.Nop())
	require.NoError(t, el.Load(context.Background()))
	return el, out
}

func TestElementBeforeLoad(t *testing.T) {
	out := NewHeadlessOutput(beep.SampleRate(testRate))
	el := NewElement("track.wav", audiotest.NewFetcher(), DefaultRegistry(), out, zerolog.Nop())

	assert.True(t, el.Paused())
	assert.False(t, el.Loaded())
	assert.Zero(t, el.Duration())
	assert.Zero(t, el.CurrentTime())
	assert.ErrorIs(t, el.SetCurrentTime(1), ErrNotLoaded)
	assert.Equal(t, "track.wav", el.Src())
}

func TestElementLoadFailure(t *testing.T) {
	out := NewHeadlessOutput(beep.SampleRate(testRate))
	el := NewElement("missing.mp3", audiotest.NewFetcher(), DefaultRegistry(), out, zerolog.Nop())

	err := el.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestElementWithoutSourceSkipsLoad(t *testing.T) {
	fetcher := audiotest.NewFetcher()
	out := NewHeadlessOutput(beep.SampleRate(testRate))
	el := NewElement("", fetcher, DefaultRegistry(), out, zerolog.Nop())

	require.NoError(t, el.Load(context.Background()))
	assert.Empty(t, fetcher.Calls())
}

func TestElementPlaysDirectlyUntilCaptured(t *testing.T) {
	el, out := loadedElement(t, 0.5, testRate)
	assert.InDelta(t, 1.0, el.Duration(), 1e-9)

	silent := out.Drain(100)
	assert.Equal(t, 0.0, silent[0][0])

	require.NoError(t, el.Play())
	assert.False(t, el.Paused())

	mix := out.Drain(400)
	assert.InDelta(t, 0.5, mix[0][0], 1e-3)
	assert.InDelta(t, 0.5, mix[399][1], 1e-3)
	assert.InDelta(t, 0.05, el.CurrentTime(), 1e-6)

	require.NoError(t, el.Pause())
	mix = out.Drain(400)
	assert.Equal(t, 0.0, mix[0][0])
	assert.InDelta(t, 0.05, el.CurrentTime(), 1e-6)

	_, err := el.Capture()
	require.NoError(t, err)
	_, err = el.Capture()
	assert.ErrorIs(t, err, ErrAlreadyCaptured)

	require.NoError(t, el.Play())
	mix = out.Drain(400)
	assert.Equal(t, 0.0, mix[0][0], "captured element must not reach the output on its own")
}

func TestElementSeekClamps(t *testing.T) {
	el, _ := loadedElement(t, 0.1, testRate*2)

	require.NoError(t, el.SetCurrentTime(1.5))
	assert.InDelta(t, 1.5, el.CurrentTime(), 1e-6)

	require.NoError(t, el.SetCurrentTime(-3))
	assert.Zero(t, el.CurrentTime())

	require.NoError(t, el.SetCurrentTime(99))
	assert.InDelta(t, 2.0, el.CurrentTime(), 1e-6)
}

func TestElementPausesAtEnd(t *testing.T) {
	el, out := loadedElement(t, 0.2, 100)

	finished := make(chan struct{})
	el.OnFinished(func() { close(finished) })

	require.NoError(t, el.Play())
	out.Drain(512)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("finished callback not called")
	}
	assert.True(t, el.Paused())

	// playing again after the end restarts from the top
	require.NoError(t, el.Play())
	mix := out.Drain(10)
	assert.InDelta(t, 0.2, mix[0][0], 1e-3)
}

func TestElementClose(t *testing.T) {
	el, out := loadedElement(t, 0.5, testRate)
	require.NoError(t, el.Play())
	require.NoError(t, el.Close())

	mix := out.Drain(100)
	assert.Equal(t, 0.0, mix[0][0])
	assert.True(t, el.Paused())
	assert.Error(t, el.Play())
}
