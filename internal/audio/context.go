package audio

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

type ContextState string

const (
	StateSuspended ContextState = "suspended"
	StateRunning   ContextState = "running"
	StateClosed    ContextState = "closed"
)

// Capturable is a media element whose output can be rerouted through a graph.
// Once captured the element no longer plays straight into its output.
type Capturable interface {
	Capture() (beep.Streamer, error)
}

// Context is an audio processing graph rendered into an Output. It starts
// suspended and produces silence until Resume.
type Context struct {
	mu       sync.Mutex
	out      Output
	registry *Registry
	log      zerolog.Logger

	master *beep.Ctrl
	mixer  *beep.Mixer
	dest   *destinationNode
	nodes  []graphNode
	state  ContextState
}

func NewContext(out Output, registry *Registry, logger zerolog.Logger) *Context {
	c := &Context{
		out:      out,
		registry: registry,
		log:      logger,
		mixer:    &beep.Mixer{},
		state:    StateSuspended,
	}
	c.master = &beep.Ctrl{Streamer: c.mixer, Paused: true}
	c.dest = &destinationNode{}
	c.register(c.dest)

	out.Play(c.master)
	return c
}

func (c *Context) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) SampleRate() beep.SampleRate {
	return c.out.SampleRate()
}

func (c *Context) CreateMediaElementSource(media types.MediaElement) (types.AudioNode, error) {
	capturable, ok := media.(Capturable)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotCapturable, media)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil, ErrContextClosed
	}

	stream, err := capturable.Capture()
	if err != nil {
		return nil, err
	}

	s := &sourceNode{media: media, stream: stream}
	c.register(s)
	c.log.Debug().Str("src", media.Src()).Msg("media element routed into graph")
	return s, nil
}

func (c *Context) CreateAnalyser() types.Analyser {
	a := newAnalyserNode()
	c.mu.Lock()
	c.register(a)
	c.mu.Unlock()
	return a
}

func (c *Context) CreateGain() types.GainNode {
	g := &gainNode{value: 1}
	c.mu.Lock()
	c.register(g)
	c.mu.Unlock()
	return g
}

func (c *Context) register(n graphNode) {
	b := n.base()
	b.ctx = c
	b.self = n
	c.nodes = append(c.nodes, n)
}

func (c *Context) Destination() types.AudioNode {
	return c.dest
}

func (c *Context) DecodeAudioData(ctx context.Context, data []byte) (*types.AudioBuffer, error) {
	return c.registry.Decode(ctx, data)
}

func (c *Context) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrContextClosed
	case StateRunning:
		return nil
	}

	c.out.Lock()
	c.master.Paused = false
	c.out.Unlock()
	c.state = StateRunning

	c.log.Debug().Msg("audio context resumed")
	return nil
}

// Close disconnects every node and detaches the context from its output.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed

	c.out.Lock()
	for _, n := range c.nodes {
		n.base().outputs = nil
	}
	c.mixer.Clear()
	c.master.Streamer = nil
	c.out.Unlock()

	c.log.Debug().Int("nodes", len(c.nodes)).Msg("audio context closed")
	return nil
}

func (c *Context) connect(src graphNode, dst types.AudioNode) error {
	to, ok := dst.(graphNode)
	if !ok || to.base().ctx != c {
		return ErrForeignNode
	}
	if src == graphNode(c.dest) {
		return fmt.Errorf("destination has no outputs")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return ErrContextClosed
	}

	from := src.base()
	if slices.Contains(from.outputs, to) {
		return nil
	}
	if to == src || c.reaches(to, src) {
		return ErrCycle
	}

	c.out.Lock()
	from.outputs = append(from.outputs, to)
	c.rebuild()
	c.out.Unlock()
	return nil
}

func (c *Context) disconnect(n graphNode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}

	c.out.Lock()
	n.base().outputs = nil
	c.rebuild()
	c.out.Unlock()
}

func (c *Context) reaches(from, to graphNode) bool {
	seen := map[graphNode]bool{}
	stack := []graphNode{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, n.base().outputs...)
	}
	return false
}

// rebuild recomputes the streamer tree feeding the destination. Only nodes
// with a path to the destination take part, so every fanout branch is pulled.
// Caller holds both c.mu and the output lock.
func (c *Context) rebuild() {
	live := map[graphNode]bool{}
	for _, n := range c.nodes {
		if c.reaches(n, c.dest) {
			live[n] = true
		}
	}

	outputs := func(n graphNode) []graphNode {
		var out []graphNode
		for _, o := range n.base().outputs {
			if live[o] {
				out = append(out, o)
			}
		}
		return out
	}

	inputs := map[graphNode][]graphNode{}
	for _, n := range c.nodes {
		if !live[n] {
			continue
		}
		for _, o := range outputs(n) {
			inputs[o] = append(inputs[o], n)
		}
	}

	built := map[graphNode]beep.Streamer{}
	fans := map[graphNode]*fanout{}

	var build func(n graphNode) beep.Streamer
	branch := func(from, to graphNode) beep.Streamer {
		s := build(from)
		if s == nil {
			return nil
		}
		outs := outputs(from)
		if len(outs) == 1 {
			return s
		}
		f, ok := fans[from]
		if !ok {
			f = newFanout(s, len(outs))
			fans[from] = f
		}
		return f.branch(slices.Index(outs, to))
	}
	mix := func(n graphNode) beep.Streamer {
		var ins []beep.Streamer
		for _, u := range inputs[n] {
			if s := branch(u, n); s != nil {
				ins = append(ins, s)
			}
		}
		switch len(ins) {
		case 0:
			return nil
		case 1:
			return ins[0]
		default:
			m := &beep.Mixer{}
			m.Add(ins...)
			return m
		}
	}
	build = func(n graphNode) beep.Streamer {
		if s, ok := built[n]; ok {
			return s
		}
		s := n.process(mix(n))
		built[n] = s
		return s
	}

	c.mixer.Clear()
	if s := build(c.dest); s != nil {
		c.mixer.Add(s)
	}
}
