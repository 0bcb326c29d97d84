package audio

import (
	"math"
	"sync"

	"github.com/argusdusty/gofft"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

const (
	minFFTSize = 32
	maxFFTSize = 32768

	defaultFFTSize     = 2048
	defaultMinDecibels = -100
	defaultMaxDecibels = -30
	defaultSmoothing   = 0.8
)

// graphNode is implemented by every node a Context hands out.
type graphNode interface {
	types.AudioNode
	base() *nodeBase
	// process wraps the node's mixed input. in is nil when nothing upstream
	// is live, and a nil result means the node contributes nothing.
	process(in beep.Streamer) beep.Streamer
}

type nodeBase struct {
	ctx     *Context
	self    graphNode
	outputs []graphNode
}

func (n *nodeBase) base() *nodeBase { return n }

func (n *nodeBase) Connect(dst types.AudioNode) error {
	return n.ctx.connect(n.self, dst)
}

func (n *nodeBase) Disconnect() {
	n.ctx.disconnect(n.self)
}

type sourceNode struct {
	nodeBase
	media  types.MediaElement
	stream beep.Streamer
}

func (s *sourceNode) process(beep.Streamer) beep.Streamer { return s.stream }

type destinationNode struct {
	nodeBase
}

func (d *destinationNode) process(in beep.Streamer) beep.Streamer { return in }

type gainNode struct {
	nodeBase
	value float64
	live  *effects.Gain
}

// effects.Gain scales by 1+Gain, so the linear factor is shifted by one.
func (g *gainNode) process(in beep.Streamer) beep.Streamer {
	if in == nil {
		g.live = nil
		return nil
	}
	g.live = &effects.Gain{Streamer: in, Gain: g.value - 1}
	return g.live
}

func (g *gainNode) SetGain(v float64) {
	out := g.ctx.out
	out.Lock()
	g.value = v
	if g.live != nil {
		g.live.Gain = v - 1
	}
	out.Unlock()
}

func (g *gainNode) Gain() float64 {
	out := g.ctx.out
	out.Lock()
	defer out.Unlock()
	return g.value
}

// analyserNode passes audio through unchanged while keeping the most recent
// maxFFTSize mono samples in a ring.
type analyserNode struct {
	nodeBase

	mu        sync.Mutex
	fftSize   int
	minDB     float64
	maxDB     float64
	smoothing float64

	ring []float64
	pos  int

	window   []float64
	spectrum []complex128
	smoothed []float64
}

func newAnalyserNode() *analyserNode {
	a := &analyserNode{
		fftSize:   defaultFFTSize,
		minDB:     defaultMinDecibels,
		maxDB:     defaultMaxDecibels,
		smoothing: defaultSmoothing,
		ring:      make([]float64, maxFFTSize),
	}
	a.resize()
	return a
}

func (a *analyserNode) process(in beep.Streamer) beep.Streamer {
	if in == nil {
		return nil
	}
	return &analyserTap{a: a, s: in}
}

func (a *analyserNode) resize() {
	a.window = blackman(a.fftSize)
	a.spectrum = make([]complex128, a.fftSize)
	a.smoothed = make([]float64, a.fftSize/2)
}

func (a *analyserNode) SetFFTSize(size int) error {
	if size < minFFTSize || size > maxFFTSize || size&(size-1) != 0 {
		return ErrInvalidFFTSize
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fftSize = size
	a.resize()
	return nil
}

func (a *analyserNode) FFTSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fftSize
}

func (a *analyserNode) FrequencyBinCount() int {
	return a.FFTSize() / 2
}

func (a *analyserNode) SetMinDecibels(db float64) {
	a.mu.Lock()
	a.minDB = db
	a.mu.Unlock()
}

func (a *analyserNode) SetMaxDecibels(db float64) {
	a.mu.Lock()
	a.maxDB = db
	a.mu.Unlock()
}

func (a *analyserNode) SetSmoothingTimeConstant(v float64) {
	a.mu.Lock()
	a.smoothing = math.Max(0, math.Min(1, v))
	a.mu.Unlock()
}

func (a *analyserNode) write(samples [][2]float64) {
	a.mu.Lock()
	for i := range samples {
		a.ring[a.pos] = (samples[i][0] + samples[i][1]) / 2
		a.pos = (a.pos + 1) % len(a.ring)
	}
	a.mu.Unlock()
}

// latest copies the last len(dst) samples in chronological order. Caller holds mu.
func (a *analyserNode) latest(dst []float64) {
	n := len(dst)
	start := (a.pos - n + len(a.ring)) % len(a.ring)
	for i := range dst {
		dst[i] = a.ring[(start+i)%len(a.ring)]
	}
}

// GetByteTimeDomainData writes the current waveform, 128 being silence and
// full scale mapping to 0 and 255.
func (a *analyserNode) GetByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	window := make([]float64, a.fftSize)
	a.latest(window)

	n := min(len(dst), a.fftSize)
	for i := 0; i < n; i++ {
		dst[i] = clampByte(128 * (1 + window[i]))
	}
}

// GetByteFrequencyData writes smoothed magnitudes of the Blackman-windowed
// spectrum, scaled from [minDecibels, maxDecibels] onto [0, 255].
func (a *analyserNode) GetByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := a.fftSize
	samples := make([]float64, size)
	a.latest(samples)
	for i := range samples {
		samples[i] *= a.window[i]
	}

	copy(a.spectrum, gofft.Float64ToComplex128Array(samples))
	if err := gofft.FFT(a.spectrum); err != nil {
		return
	}

	rangeDB := a.maxDB - a.minDB
	n := min(len(dst), len(a.smoothed))
	for k := range a.smoothed {
		mag := cmplxAbs(a.spectrum[k]) / float64(size)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= n {
			continue
		}
		if rangeDB <= 0 || a.smoothed[k] == 0 {
			dst[k] = 0
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		dst[k] = clampByte(255 / rangeDB * (db - a.minDB))
	}
}

type analyserTap struct {
	a *analyserNode
	s beep.Streamer
}

func (t *analyserTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.a.write(samples[:n])
	return n, ok
}

func (t *analyserTap) Err() error {
	return t.s.Err()
}

func blackman(n int) []float64 {
	const alpha = 0.16
	a0, a1, a2 := (1-alpha)/2, 0.5, alpha/2
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func clampByte(v float64) byte {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}
