// Package player binds playback control, audio analysis, the live waveform
// and the track preview into one attachable component.
package player

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/audio"
	"github.com/Alexander-D-Karpov/ampwave/internal/handlers"
	"github.com/Alexander-D-Karpov/ampwave/internal/preview"
	"github.com/Alexander-D-Karpov/ampwave/internal/render"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// FallbackMessage is what the player shows when no media element was projected.
const FallbackMessage = "Track not found"

var (
	ErrAlreadyAttached = errors.New("player already attached")
	ErrNotAttached     = errors.New("player not attached")
	ErrDetached        = errors.New("player detached")
)

// ContextFactory creates the audio context a player's graph will own.
type ContextFactory func() (types.AudioContext, error)

// Deps are the capabilities a player is built from.
type Deps struct {
	NewContext ContextFactory
	Fetcher    types.Fetcher
	Scheduler  types.FrameScheduler
	Surface    types.Surface2D
	Bus        *handlers.EventBus
}

type Options struct {
	NumBars int
	Volume  float64
	Style   render.Style
}

func DefaultOptions() Options {
	return Options{NumBars: preview.DefaultNumBars, Volume: 1}
}

// View is everything a host needs to paint the player.
type View struct {
	// Fallback is set, and everything else zero, when there is no media.
	Fallback string

	Paused   bool
	Position float64
	Duration float64
	Volume   float64

	Preview preview.Kind
	Failure string
	Bars    []float64
}

// AudioPlayer is the widget core. Attach it once to a host, call Start after
// the host's first paint and Detach on teardown.
type AudioPlayer struct {
	mu       sync.Mutex
	deps     Deps
	opts     Options
	log      zerolog.Logger
	attached bool
	detached bool

	media      types.MediaElement
	controller *Controller
	graph      *audio.Graph
	loader     *preview.Loader
	renderer   *render.LiveRenderer

	position  float64
	bars      preview.Memo[[]float64]
	onChange  func()
	frameHook func(peak float64)
}

func New(deps Deps, opts Options, logger zerolog.Logger) *AudioPlayer {
	if opts.NumBars <= 0 {
		opts.NumBars = preview.DefaultNumBars
	}
	return &AudioPlayer{deps: deps, opts: opts, log: logger}
}

// OnChange registers fn to be called when something the view shows changed
// outside of a direct call: the preview state and the paused state after the
// track ends. It may be called from any goroutine.
func (p *AudioPlayer) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// OnFrameDrawn registers fn to run after every live frame, on the
// scheduler's thread, with the peak of the frame just drawn.
func (p *AudioPlayer) OnFrameDrawn(fn func(peak float64)) {
	p.mu.Lock()
	p.frameHook = fn
	renderer := p.renderer
	p.mu.Unlock()

	if renderer != nil {
		renderer.OnFrame(fn)
	}
}

// Attach looks up the media element in host. Without one the player shows the
// fallback and never builds a graph or loads a preview; the error is then
// audio.ErrMissingMedia. A player is attached at most once, and never after
// Detach.
func (p *AudioPlayer) Attach(ctx context.Context, host types.Host) error {
	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		return ErrDetached
	}
	if p.attached {
		p.mu.Unlock()
		return ErrAlreadyAttached
	}
	p.attached = true

	media, ok := host.QueryMedia()
	if !ok {
		p.mu.Unlock()
		p.log.Warn().Msg("no media element projected")
		return audio.ErrMissingMedia
	}

	if err := p.build(media); err != nil {
		p.mu.Unlock()
		return err
	}
	loader, graph := p.loader, p.graph
	p.mu.Unlock()

	if f, ok := media.(interface{ OnFinished(func()) }); ok {
		f.OnFinished(p.mediaFinished)
	}

	if !loader.Start(ctx, media.Src()) {
		p.log.Debug().Msg("media has no source, preview stays idle")
	}

	// Detach may have run since the unlock; it could not cancel a load that
	// had not started yet.
	p.mu.Lock()
	detached := p.detached
	p.mu.Unlock()
	if detached {
		loader.Close()
		if err := graph.Close(); err != nil {
			return errors.Join(ErrDetached, fmt.Errorf("release audio graph: %w", err))
		}
		return ErrDetached
	}
	return nil
}

func (p *AudioPlayer) build(media types.MediaElement) error {
	actx, err := p.deps.NewContext()
	if err != nil {
		return fmt.Errorf("create audio context: %w", err)
	}

	graph, err := audio.NewGraph(actx, media, p.log.With().Str("component", "graph").Logger())
	if err != nil {
		return fmt.Errorf("build analysis graph: %w", err)
	}

	controller := NewController(media, graph, p.deps.Bus, p.log)
	controller.SetVolume(p.opts.Volume)

	loader := preview.NewLoader(p.deps.Fetcher, actx, p.opts.NumBars, p.log.With().Str("component", "preview").Logger())
	loader.OnChange(func(preview.LoadState, uint64) { p.changed() })

	renderer := render.NewLiveRenderer(graph, media, p.deps.Surface, p.deps.Scheduler, p.opts.Style,
		p.log.With().Str("component", "render").Logger())
	renderer.SetPositionSink(p)
	if p.frameHook != nil {
		renderer.OnFrame(p.frameHook)
	}

	p.media = media
	p.graph = graph
	p.controller = controller
	p.loader = loader
	p.renderer = renderer
	return nil
}

// Start begins the per-frame waveform loop. It reports whether it started.
func (p *AudioPlayer) Start() bool {
	p.mu.Lock()
	renderer := p.renderer
	p.mu.Unlock()

	if renderer == nil {
		return false
	}
	return renderer.Start()
}

// Detach stops the draw loop, abandons an in-flight preview load and releases
// the audio graph. It is safe to call more than once and without Attach.
func (p *AudioPlayer) Detach() error {
	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		return nil
	}
	p.detached = true
	renderer, loader, graph := p.renderer, p.loader, p.graph
	p.mu.Unlock()

	if renderer != nil {
		renderer.Stop()
	}
	if loader != nil {
		loader.Close()
	}
	if graph != nil {
		if err := graph.Close(); err != nil {
			return fmt.Errorf("release audio graph: %w", err)
		}
	}
	p.log.Debug().Msg("player detached")
	return nil
}

// Controls returns the playback controller, or nil without media.
func (p *AudioPlayer) Controls() types.PlayerControl {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return nil
	}
	return p.controller
}

func (p *AudioPlayer) TogglePlayPause(ctx context.Context) error {
	c := p.controllerOrNil()
	if c == nil {
		return ErrNotAttached
	}
	return c.TogglePlayPause(ctx)
}

func (p *AudioPlayer) SetVolume(gain float64) {
	if c := p.controllerOrNil(); c != nil {
		c.SetVolume(gain)
	}
}

func (p *AudioPlayer) Seek(seconds float64) error {
	c := p.controllerOrNil()
	if c == nil {
		return ErrNotAttached
	}
	return c.Seek(seconds)
}

// Level is the peak of the last live frame, 0 before the first one.
func (p *AudioPlayer) Level() float64 {
	p.mu.Lock()
	renderer := p.renderer
	p.mu.Unlock()

	if renderer == nil {
		return 0
	}
	return renderer.Level()
}

// Graph returns the analysis graph, or nil without media.
func (p *AudioPlayer) Graph() *audio.Graph {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.graph
}

// Loader returns the preview loader, or nil without media.
func (p *AudioPlayer) Loader() *preview.Loader {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loader
}

// SetPosition is called by the live renderer once per frame.
func (p *AudioPlayer) SetPosition(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = seconds
}

func (p *AudioPlayer) View() View {
	p.mu.Lock()
	media, controller, loader := p.media, p.controller, p.loader
	position := p.position
	p.mu.Unlock()

	if media == nil {
		return View{Fallback: FallbackMessage}
	}

	state := controller.State()
	v := View{
		Paused:   state.Paused,
		Position: position,
		Duration: media.Duration(),
		Volume:   state.Volume,
	}

	ls, version := loader.State()
	v.Preview = ls.Kind()
	switch s := ls.(type) {
	case preview.Idle, preview.Loading:
	case preview.Ready:
		v.Bars = p.bars.Get(version, func() []float64 {
			return slices.Clone(s.Bars)
		})
	case preview.Failed:
		v.Failure = s.Message
	}
	return v
}

// BarComputations reports how many times the preview bars were computed.
func (p *AudioPlayer) BarComputations() int {
	return p.bars.Computations()
}

func (p *AudioPlayer) controllerOrNil() *Controller {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controller
}

func (p *AudioPlayer) mediaFinished() {
	if c := p.controllerOrNil(); c != nil {
		c.Sync()
	}
	p.changed()
}

func (p *AudioPlayer) changed() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}
