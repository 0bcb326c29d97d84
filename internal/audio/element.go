package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Element is a media element backed by beep. The track is fetched and decoded
// whole by Load; until then it reports zero duration and plays silence.
//
// Playback state is shared with the output goroutine and is only touched with
// the output lock held.
type Element struct {
	mu sync.Mutex

	src      string
	fetcher  types.Fetcher
	registry *Registry
	out      Output
	log      zerolog.Logger

	pcm      *pcmStreamer
	ctrl     *beep.Ctrl
	rate     beep.SampleRate
	duration time.Duration
	loaded   bool

	paused   bool
	ended    bool
	captured bool
	playing  bool
	closed   bool

	finishedCallback func()
}

func NewElement(src string, fetcher types.Fetcher, registry *Registry, out Output, logger zerolog.Logger) *Element {
	return &Element{
		src:      src,
		fetcher:  fetcher,
		registry: registry,
		out:      out,
		log:      logger,
		paused:   true,
	}
}

// Load fetches and decodes the source. It is a no-op for an element without a source.
func (e *Element) Load(ctx context.Context) error {
	if e.src == "" {
		return nil
	}

	start := time.Now()
	data, err := e.fetcher.Fetch(ctx, e.src)
	if err != nil {
		return fmt.Errorf("load %s: %w", e.src, err)
	}
	buf, err := e.registry.Decode(ctx, data)
	if err != nil {
		return fmt.Errorf("load %s: %w", e.src, err)
	}

	pcm := newPCMStreamer(buf)
	rate := beep.SampleRate(buf.SampleRate)
	var s beep.Streamer = pcm
	if target := e.out.SampleRate(); target != rate {
		s = beep.Resample(4, rate, target, pcm)
	}

	e.out.Lock()
	e.pcm = pcm
	e.rate = rate
	e.duration = rate.D(pcm.Len())
	e.ctrl = &beep.Ctrl{Streamer: s, Paused: e.paused}
	e.loaded = true
	e.out.Unlock()

	e.log.Debug().
		Str("src", e.src).
		Int("sample_rate", buf.SampleRate).
		Int("channels", buf.NumberOfChannels()).
		Dur("duration", e.duration).
		Dur("took", time.Since(start)).
		Msg("media element loaded")
	return nil
}

// Capture hands the element's output to an audio graph.
func (e *Element) Capture() (beep.Streamer, error) {
	e.out.Lock()
	defer e.out.Unlock()

	if e.captured {
		return nil, ErrAlreadyCaptured
	}
	e.captured = true
	return elementStream{e: e}, nil
}

func (e *Element) Src() string { return e.src }

func (e *Element) Paused() bool {
	e.out.Lock()
	defer e.out.Unlock()
	return e.paused
}

func (e *Element) Play() error {
	e.out.Lock()
	if e.closed {
		e.out.Unlock()
		return fmt.Errorf("play %s: element closed", e.src)
	}
	if e.ended && e.pcm != nil {
		if err := e.pcm.Seek(0); err != nil {
			e.out.Unlock()
			return err
		}
		e.ended = false
	}
	e.paused = false
	if e.ctrl != nil {
		e.ctrl.Paused = false
	}
	direct := !e.captured && !e.playing
	e.playing = true
	e.out.Unlock()

	// an uncaptured element plays on its own; speaker.Play takes the lock itself
	if direct {
		e.out.Play(directStream{e: e})
	}

	e.log.Debug().Str("src", e.src).Msg("play")
	return nil
}

func (e *Element) Pause() error {
	e.out.Lock()
	e.paused = true
	if e.ctrl != nil {
		e.ctrl.Paused = true
	}
	e.out.Unlock()

	e.log.Debug().Str("src", e.src).Msg("pause")
	return nil
}

func (e *Element) CurrentTime() float64 {
	e.out.Lock()
	defer e.out.Unlock()

	if e.pcm == nil {
		return 0
	}
	return e.rate.D(e.pcm.Position()).Seconds()
}

// SetCurrentTime seeks, clamping to [0, Duration].
func (e *Element) SetCurrentTime(seconds float64) error {
	if math.IsNaN(seconds) {
		return fmt.Errorf("seek %s: position is NaN", e.src)
	}

	e.out.Lock()
	defer e.out.Unlock()

	if e.pcm == nil {
		return ErrNotLoaded
	}

	pos := e.rate.N(time.Duration(seconds * float64(time.Second)))
	pos = max(0, min(pos, e.pcm.Len()))
	if err := e.pcm.Seek(pos); err != nil {
		return fmt.Errorf("seek %s: %w", e.src, err)
	}
	e.ended = pos >= e.pcm.Len()
	return nil
}

func (e *Element) Duration() float64 {
	e.out.Lock()
	defer e.out.Unlock()
	return e.duration.Seconds()
}

func (e *Element) Loaded() bool {
	e.out.Lock()
	defer e.out.Unlock()
	return e.loaded
}

// OnFinished registers a callback run on the output goroutine when the track ends.
func (e *Element) OnFinished(callback func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishedCallback = callback
}

// Close silences the element for good.
func (e *Element) Close() error {
	e.out.Lock()
	e.closed = true
	e.paused = true
	if e.ctrl != nil {
		e.ctrl.Paused = true
	}
	e.out.Unlock()
	return nil
}

// stream fills samples with the element's output, silence while paused or
// before the track is loaded. It never drains, so graphs stay connected
// across the end of the track. Caller holds the output lock.
func (e *Element) stream(samples [][2]float64) {
	if e.ctrl == nil || e.closed {
		clear(samples)
		return
	}

	n, ok := e.ctrl.Stream(samples)
	if n < len(samples) {
		clear(samples[n:])
	}
	if (!ok || n < len(samples)) && !e.ended && !e.paused {
		e.ended = true
		e.paused = true
		e.ctrl.Paused = true

		e.mu.Lock()
		callback := e.finishedCallback
		e.mu.Unlock()
		if callback != nil {
			go callback()
		}
	}
}

type elementStream struct{ e *Element }

func (s elementStream) Stream(samples [][2]float64) (int, bool) {
	s.e.stream(samples)
	return len(samples), true
}

func (s elementStream) Err() error { return nil }

// directStream is the element's own path to the output. It drops out of the
// output's mixer once the element is captured by a graph or closed.
type directStream struct{ e *Element }

func (s directStream) Stream(samples [][2]float64) (int, bool) {
	if s.e.captured || s.e.closed {
		s.e.playing = false
		return 0, false
	}
	s.e.stream(samples)
	return len(samples), true
}

func (s directStream) Err() error { return nil }

// pcmStreamer plays the first two channels of a decoded buffer.
type pcmStreamer struct {
	left, right []float32
	pos         int
}

func newPCMStreamer(buf *types.AudioBuffer) *pcmStreamer {
	left := buf.ChannelData(0)
	right := buf.ChannelData(1)
	if right == nil {
		right = left
	}
	return &pcmStreamer{left: left, right: right}
}

func (p *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	if p.pos >= len(p.left) {
		return 0, false
	}
	n := min(len(samples), len(p.left)-p.pos)
	for i := 0; i < n; i++ {
		samples[i][0] = float64(p.left[p.pos+i])
		samples[i][1] = float64(p.right[p.pos+i])
	}
	p.pos += n
	return n, true
}

func (p *pcmStreamer) Err() error    { return nil }
func (p *pcmStreamer) Len() int      { return len(p.left) }
func (p *pcmStreamer) Position() int { return p.pos }

func (p *pcmStreamer) Seek(pos int) error {
	if pos < 0 || pos > len(p.left) {
		return fmt.Errorf("seek position %d out of range [0, %d]", pos, len(p.left))
	}
	p.pos = pos
	return nil
}
