package audio

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Fixed analysis parameters.
const (
	FFTSize               = 256
	MinDecibels           = -90
	MaxDecibels           = -10
	SmoothingTimeConstant = 0.85
)

// Graph routes a media element through an analyser and a gain node:
//
//	source -> analyser -> gain -> destination
//	source -------------------- -> destination
//
// It owns the audio context and releases it on Close.
type Graph struct {
	actx     types.AudioContext
	source   types.AudioNode
	analyser types.Analyser
	gain     types.GainNode

	frame    types.AmplitudeFrame
	spectrum []byte

	closeOnce sync.Once
	closeErr  error
	log       zerolog.Logger
}

// NewGraph builds the analysis graph for media. Without media there is no
// graph and the error is ErrMissingMedia. On any other failure the partially
// built graph is released, context included.
func NewGraph(actx types.AudioContext, media types.MediaElement, logger zerolog.Logger) (*Graph, error) {
	if isNil(media) {
		return nil, ErrMissingMedia
	}

	g := &Graph{actx: actx, log: logger}
	if err := g.build(media); err != nil {
		if closeErr := g.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	g.frame = make(types.AmplitudeFrame, g.analyser.FrequencyBinCount())
	g.spectrum = make([]byte, g.analyser.FrequencyBinCount())

	logger.Debug().
		Str("src", media.Src()).
		Int("fft_size", FFTSize).
		Int("frame_len", len(g.frame)).
		Msg("analysis graph initialized")
	return g, nil
}

func (g *Graph) build(media types.MediaElement) error {
	source, err := g.actx.CreateMediaElementSource(media)
	if err != nil {
		return fmt.Errorf("create media source: %w", err)
	}
	g.source = source

	g.analyser = g.actx.CreateAnalyser()
	if err := g.analyser.SetFFTSize(FFTSize); err != nil {
		return fmt.Errorf("configure analyser: %w", err)
	}
	g.analyser.SetMinDecibels(MinDecibels)
	g.analyser.SetMaxDecibels(MaxDecibels)
	g.analyser.SetSmoothingTimeConstant(SmoothingTimeConstant)

	g.gain = g.actx.CreateGain()

	dest := g.actx.Destination()
	links := []struct {
		from, to types.AudioNode
		name     string
	}{
		{source, g.analyser, "source -> analyser"},
		{g.analyser, g.gain, "analyser -> gain"},
		{g.gain, dest, "gain -> destination"},
		{source, dest, "source -> destination"},
	}
	for _, l := range links {
		if err := l.from.Connect(l.to); err != nil {
			return fmt.Errorf("connect %s: %w", l.name, err)
		}
	}
	return nil
}

// SampleFrame overwrites the graph's frame with the current waveform and returns it.
func (g *Graph) SampleFrame() types.AmplitudeFrame {
	g.analyser.GetByteTimeDomainData(g.frame)
	return g.frame
}

// SampleSpectrum overwrites the graph's spectrum buffer with the current
// frequency magnitudes and returns it.
func (g *Graph) SampleSpectrum() []byte {
	g.analyser.GetByteFrequencyData(g.spectrum)
	return g.spectrum
}

func (g *Graph) FrameLength() int { return len(g.frame) }

func (g *Graph) SetGain(v float64) { g.gain.SetGain(v) }

func (g *Graph) Gain() float64 { return g.gain.Gain() }

func (g *Graph) Resume(ctx context.Context) error {
	return g.actx.Resume(ctx)
}

// Close disconnects every node and closes the audio context. Only the first
// call does anything.
func (g *Graph) Close() error {
	g.closeOnce.Do(func() {
		for _, n := range []types.AudioNode{g.source, g.analyser, g.gain} {
			if !isNil(n) {
				n.Disconnect()
			}
		}
		if err := g.actx.Close(); err != nil {
			g.closeErr = fmt.Errorf("close audio context: %w", err)
		}
		g.log.Debug().Msg("analysis graph released")
	})
	return g.closeErr
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
