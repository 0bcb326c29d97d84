package audio

import "github.com/gopxl/beep"

// maxBacklog bounds how far one branch may fall behind the others.
const maxBacklog = 1 << 16

// fanout splits one streamer into branches that each see every sample. The
// source is pulled only as far as the most demanding branch needs; the others
// are served from per-branch queues.
type fanout struct {
	src     beep.Streamer
	queues  [][][2]float64
	scratch [][2]float64
	ended   bool
}

func newFanout(src beep.Streamer, branches int) *fanout {
	return &fanout{
		src:    src,
		queues: make([][][2]float64, branches),
	}
}

func (f *fanout) branch(i int) beep.Streamer {
	return &fanoutBranch{f: f, i: i}
}

func (f *fanout) fill(i, want int) {
	for len(f.queues[i]) < want && !f.ended {
		need := want - len(f.queues[i])
		if cap(f.scratch) < need {
			f.scratch = make([][2]float64, need)
		}
		buf := f.scratch[:need]

		n, ok := f.src.Stream(buf)
		for q := range f.queues {
			f.queues[q] = append(f.queues[q], buf[:n]...)
			if over := len(f.queues[q]) - maxBacklog; over > 0 {
				f.queues[q] = f.queues[q][over:]
			}
		}
		if !ok || n == 0 {
			f.ended = true
		}
	}
}

type fanoutBranch struct {
	f *fanout
	i int
}

func (b *fanoutBranch) Stream(samples [][2]float64) (int, bool) {
	b.f.fill(b.i, len(samples))

	q := b.f.queues[b.i]
	n := copy(samples, q)
	b.f.queues[b.i] = q[n:]

	if n == 0 && b.f.ended {
		return 0, false
	}
	return n, true
}

func (b *fanoutBranch) Err() error {
	return b.f.src.Err()
}
