package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/internal/handlers"
	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// GraphControl is the part of the analysis graph the controller drives.
type GraphControl interface {
	SetGain(v float64)
	Gain() float64
	Resume(ctx context.Context) error
}

// Controller applies play, pause, seek and volume intents to a media element
// and keeps the paused state the controls display.
type Controller struct {
	mu      sync.Mutex
	media   types.MediaElement
	graph   GraphControl
	bus     *handlers.EventBus
	paused  bool
	volume  float64
	resumed bool
	log     zerolog.Logger
}

func NewController(media types.MediaElement, graph GraphControl, bus *handlers.EventBus, logger zerolog.Logger) *Controller {
	return &Controller{
		media:  media,
		graph:  graph,
		bus:    bus,
		paused: media.Paused(),
		volume: graph.Gain(),
		log:    logger,
	}
}

// TogglePlayPause plays a paused element and pauses a playing one, then
// publishes play-changed. The first play from position 0 also resumes the
// audio context, which starts suspended until a user gesture.
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	c.mu.Lock()

	wasPaused := c.media.Paused()
	if wasPaused {
		if !c.resumed && c.media.CurrentTime() == 0 {
			c.resumed = true
			if err := c.graph.Resume(ctx); err != nil {
				c.log.Warn().Err(err).Msg("resume audio context")
			}
		}
		if err := c.media.Play(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("play: %w", err)
		}
	} else {
		if err := c.media.Pause(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("pause: %w", err)
		}
	}

	c.paused = !wasPaused
	event := types.PlayChanged{Paused: c.paused, Position: c.media.CurrentTime()}
	c.mu.Unlock()

	c.log.Debug().Bool("paused", event.Paused).Float64("position", event.Position).Msg("playback toggled")
	c.publish(event)
	return nil
}

// SetVolume hands gain to the gain node as is. Range handling is left to the node.
func (c *Controller) SetVolume(gain float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = gain
	c.graph.SetGain(gain)
}

func (c *Controller) Seek(seconds float64) error {
	if err := c.media.SetCurrentTime(seconds); err != nil {
		return fmt.Errorf("seek to %.2fs: %w", seconds, err)
	}
	return nil
}

// Sync picks up a paused state changed by the element itself, such as the
// track ending, and publishes play-changed when it differs from ours.
func (c *Controller) Sync() {
	c.mu.Lock()
	paused := c.media.Paused()
	if paused == c.paused {
		c.mu.Unlock()
		return
	}
	c.paused = paused
	event := types.PlayChanged{Paused: paused, Position: c.media.CurrentTime()}
	c.mu.Unlock()

	c.publish(event)
}

func (c *Controller) State() types.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.PlaybackState{
		Paused:   c.paused,
		Position: c.media.CurrentTime(),
		Volume:   c.volume,
	}
}

func (c *Controller) publish(event types.PlayChanged) {
	if c.bus != nil {
		c.bus.Publish(handlers.EventPlayChanged, event)
	}
}
