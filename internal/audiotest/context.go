package audiotest

import (
	"context"
	"errors"
	"sync"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Node records the connections made from it.
type Node struct {
	Name        string
	Connections []types.AudioNode
	Disconnects int
	ConnectErr  error
}

func (n *Node) Connect(dst types.AudioNode) error {
	if n.ConnectErr != nil {
		return n.ConnectErr
	}
	n.Connections = append(n.Connections, dst)
	return nil
}

func (n *Node) Disconnect() {
	n.Disconnects++
	n.Connections = nil
}

// Analyser returns a constant waveform and spectrum.
type Analyser struct {
	Node
	Size      int
	MinDB     float64
	MaxDB     float64
	Smoothing float64

	// Level is written to every time-domain sample; 128 is silence.
	Level    byte
	Spectrum byte
	Pulls    int
}

func (a *Analyser) SetFFTSize(size int) error {
	if size < 32 || size&(size-1) != 0 {
		return errors.New("invalid fft size")
	}
	a.Size = size
	return nil
}

func (a *Analyser) FFTSize() int                       { return a.Size }
func (a *Analyser) FrequencyBinCount() int             { return a.Size / 2 }
func (a *Analyser) SetMinDecibels(db float64)          { a.MinDB = db }
func (a *Analyser) SetMaxDecibels(db float64)          { a.MaxDB = db }
func (a *Analyser) SetSmoothingTimeConstant(v float64) { a.Smoothing = v }

func (a *Analyser) GetByteTimeDomainData(dst []byte) {
	a.Pulls++
	for i := range dst {
		dst[i] = a.Level
	}
}

func (a *Analyser) GetByteFrequencyData(dst []byte) {
	for i := range dst {
		dst[i] = a.Spectrum
	}
}

// Gain records every value it is set to.
type Gain struct {
	Node
	Value float64
	Sets  []float64
}

func (g *Gain) SetGain(v float64) {
	g.Value = v
	g.Sets = append(g.Sets, v)
}

func (g *Gain) Gain() float64 { return g.Value }

// Context is an audio context that builds recording nodes.
type Context struct {
	mu sync.Mutex

	Source      *Node
	Analyser    *Analyser
	GainNode    *Gain
	Dest        *Node
	SourceErr   error
	ResumeCalls int
	CloseCalls  int

	// DecodeFunc backs DecodeAudioData; nil decodes to an empty buffer.
	DecodeFunc func(data []byte) (*types.AudioBuffer, error)
}

func NewContext() *Context {
	return &Context{
		Dest:     &Node{Name: "destination"},
		Analyser: &Analyser{Node: Node{Name: "analyser"}, Size: 2048, Level: 128},
		GainNode: &Gain{Node: Node{Name: "gain"}, Value: 1},
	}
}

func (c *Context) CreateMediaElementSource(media types.MediaElement) (types.AudioNode, error) {
	if c.SourceErr != nil {
		return nil, c.SourceErr
	}
	c.Source = &Node{Name: "source:" + media.Src()}
	return c.Source, nil
}

func (c *Context) CreateAnalyser() types.Analyser { return c.Analyser }
func (c *Context) CreateGain() types.GainNode     { return c.GainNode }
func (c *Context) Destination() types.AudioNode   { return c.Dest }

func (c *Context) DecodeAudioData(ctx context.Context, data []byte) (*types.AudioBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.DecodeFunc == nil {
		return &types.AudioBuffer{}, nil
	}
	return c.DecodeFunc(data)
}

func (c *Context) Resume(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResumeCalls++
	return nil
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CloseCalls++
	return nil
}

func (c *Context) Resumes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ResumeCalls
}

func (c *Context) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CloseCalls
}
