package player

import (
	"sync"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Slot is the content the caller projects into a player: at most one media
// element. It satisfies types.Host.
type Slot struct {
	mu    sync.RWMutex
	media types.MediaElement
}

func NewSlot(media types.MediaElement) *Slot {
	return &Slot{media: media}
}

// Project replaces the projected element. A player that is already attached
// keeps the element it found.
func (s *Slot) Project(media types.MediaElement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = media
}

func (s *Slot) QueryMedia() (types.MediaElement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.media == nil {
		return nil, false
	}
	return s.media, true
}
