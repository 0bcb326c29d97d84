// Package preview fetches a whole track in the background and summarises it
// as a fixed number of bar heights.
package preview

// LoadState is one of Idle, Loading, Ready or Failed. Transitions only move
// forward: Idle -> Loading -> Ready | Failed.
type LoadState interface {
	loadState()
	Kind() Kind
}

type Kind int

const (
	KindIdle Kind = iota
	KindLoading
	KindReady
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindReady:
		return "ready"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Idle struct{}

type Loading struct{}

// Ready holds the bar heights of the decoded track's first channel. The
// samples themselves are dropped once the bars are computed.
type Ready struct {
	Bars       []float64
	Samples    int
	SampleRate int
}

// Failed carries the message of the error that stopped the load.
type Failed struct {
	Message string
}

func (Idle) loadState()    {}
func (Loading) loadState() {}
func (Ready) loadState()   {}
func (Failed) loadState()  {}

func (Idle) Kind() Kind    { return KindIdle }
func (Loading) Kind() Kind { return KindLoading }
func (Ready) Kind() Kind   { return KindReady }
func (Failed) Kind() Kind  { return KindFailed }

// Terminal reports whether s can no longer change.
func Terminal(s LoadState) bool {
	switch s.(type) {
	case Ready, Failed:
		return true
	case Idle, Loading:
		return false
	default:
		return false
	}
}
