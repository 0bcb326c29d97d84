package preview

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// AudioDecoder turns an encoded track into PCM.
type AudioDecoder interface {
	DecodeAudioData(ctx context.Context, data []byte) (*types.AudioBuffer, error)
}

// Loader runs the one-shot fetch and decode of a track. Its state moves
// Idle -> Loading -> Ready | Failed exactly once; every change bumps a
// version that renderers use to decide whether to recompute.
type Loader struct {
	mu       sync.Mutex
	state    LoadState
	version  uint64
	cancel   context.CancelFunc
	done     chan struct{}
	onChange func(LoadState, uint64)

	fetcher types.Fetcher
	decoder AudioDecoder
	numBars int
	log     zerolog.Logger
}

// NewLoader returns an idle loader that summarises tracks as numBars bars,
// DefaultNumBars when numBars is not positive.
func NewLoader(fetcher types.Fetcher, decoder AudioDecoder, numBars int, logger zerolog.Logger) *Loader {
	if numBars <= 0 {
		numBars = DefaultNumBars
	}
	return &Loader{
		state:   Idle{},
		fetcher: fetcher,
		decoder: decoder,
		numBars: numBars,
		log:     logger,
	}
}

// OnChange registers fn to be called after every transition, from the
// goroutine that made it. Hosts marshal it onto their own thread.
func (l *Loader) OnChange(fn func(state LoadState, version uint64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// State returns the current state and its version.
func (l *Loader) State() (LoadState, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.version
}

// Start moves Idle to Loading before returning and fetches src in the
// background. It does nothing, and returns false, when src is empty or a load
// has already been started.
func (l *Loader) Start(ctx context.Context, src string) bool {
	l.mu.Lock()
	if _, idle := l.state.(Idle); !idle || src == "" {
		l.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	l.state = Loading{}
	l.version++
	l.cancel = cancel
	l.done = make(chan struct{})
	version, notify := l.version, l.onChange
	l.mu.Unlock()

	if notify != nil {
		notify(Loading{}, version)
	}

	go l.run(ctx, src)
	return true
}

func (l *Loader) run(ctx context.Context, src string) {
	defer close(l.done)
	start := time.Now()

	data, err := l.fetcher.Fetch(ctx, src)
	if err != nil {
		l.finish(ctx, Failed{Message: err.Error()})
		return
	}

	buf, err := l.decoder.DecodeAudioData(ctx, data)
	if err != nil {
		l.finish(ctx, Failed{Message: err.Error()})
		return
	}

	l.log.Debug().
		Str("src", src).
		Int("bytes", len(data)).
		Int("samples", buf.Length()).
		Dur("took", time.Since(start)).
		Msg("track decoded")

	samples := buf.ChannelData(0)
	l.finish(ctx, Ready{
		Bars:       ComputeTrackBars(samples, l.numBars),
		Samples:    len(samples),
		SampleRate: buf.SampleRate,
	})
}

func (l *Loader) finish(ctx context.Context, next LoadState) {
	l.mu.Lock()
	if ctx.Err() != nil {
		l.mu.Unlock()
		l.log.Debug().Msg("load cancelled, result discarded")
		return
	}
	if _, loading := l.state.(Loading); !loading {
		l.mu.Unlock()
		return
	}
	l.state = next
	l.version++
	version, notify := l.version, l.onChange
	l.mu.Unlock()

	switch s := next.(type) {
	case Failed:
		l.log.Warn().Str("reason", s.Message).Msg("track preview failed")
	case Ready:
		l.log.Debug().Int("samples", s.Samples).Int("bars", len(s.Bars)).Msg("track preview ready")
	}

	if notify != nil {
		notify(next, version)
	}
}

// Wait blocks until a started load has finished or ctx ends. It returns
// immediately when no load was started.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close abandons an in-flight load. Its result, if any, is discarded and the
// state stays where it is.
func (l *Loader) Close() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
