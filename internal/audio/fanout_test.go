package audio

import (
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
)

// counter emits 0, 1, 2, ... on both channels and ends after limit samples.
type counter struct {
	next, limit int
}

func (c *counter) Stream(samples [][2]float64) (int, bool) {
	if c.next >= c.limit {
		return 0, false
	}
	n := min(len(samples), c.limit-c.next)
	for i := 0; i < n; i++ {
		samples[i] = [2]float64{float64(c.next), float64(c.next)}
		c.next++
	}
	return n, true
}

func (c *counter) Err() error { return nil }

func collect(s beep.Streamer, n int) []float64 {
	buf := make([][2]float64, n)
	got, _ := s.Stream(buf)
	out := make([]float64, got)
	for i := range out {
		out[i] = buf[i][0]
	}
	return out
}

func TestFanoutBranchesSeeEverySample(t *testing.T) {
	src := &counter{limit: 100}
	f := newFanout(src, 2)
	a, b := f.branch(0), f.branch(1)

	assert.Equal(t, []float64{0, 1, 2, 3}, collect(a, 4))
	assert.Equal(t, []float64{0, 1}, collect(b, 2))
	assert.Equal(t, []float64{2, 3, 4, 5}, collect(b, 4))
	assert.Equal(t, []float64{4, 5}, collect(a, 2))
	assert.Equal(t, 6, src.next)
}

func TestFanoutEnds(t *testing.T) {
	f := newFanout(&counter{limit: 3}, 2)
	a, b := f.branch(0), f.branch(1)

	assert.Equal(t, []float64{0, 1, 2}, collect(a, 8))

	buf := make([][2]float64, 8)
	n, ok := a.Stream(buf)
	assert.Equal(t, 0, n)
	assert.False(t, ok)

	assert.Equal(t, []float64{0, 1, 2}, collect(b, 8))
	_, ok = b.Stream(buf)
	assert.False(t, ok)
}
