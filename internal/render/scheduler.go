package render

import (
	"sync"
	"time"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

type pendingFrame struct {
	handle types.FrameHandle
	cb     types.FrameCallback
}

// FrameQueue is a frame scheduler driven from outside: whoever owns the
// display refresh calls Flush once per frame. Callbacks requested while a
// flush is running wait for the next one.
type FrameQueue struct {
	mu      sync.Mutex
	next    types.FrameHandle
	pending []pendingFrame
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

func (q *FrameQueue) RequestFrame(cb types.FrameCallback) types.FrameHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.pending = append(q.pending, pendingFrame{handle: q.next, cb: cb})
	return q.next
}

func (q *FrameQueue) CancelFrame(h types.FrameHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, p := range q.pending {
		if p.handle == h {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Flush runs every callback pending at the time of the call and reports how many ran.
func (q *FrameQueue) Flush(now time.Time) int {
	q.mu.Lock()
	due := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, p := range due {
		p.cb(now)
	}
	return len(due)
}

func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// TickerScheduler flushes a FrameQueue from its own goroutine at a fixed rate,
// for hosts without a display refresh of their own.
type TickerScheduler struct {
	*FrameQueue

	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	running  bool
	mutex    sync.RWMutex
}

func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{
		FrameQueue: NewFrameQueue(),
		interval:   time.Second / time.Duration(fps),
		done:       make(chan struct{}),
	}
}

func (ts *TickerScheduler) Start() {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if ts.running {
		return
	}

	ts.running = true
	ts.ticker = time.NewTicker(ts.interval)
	go ts.run(ts.ticker, ts.done)
}

func (ts *TickerScheduler) Stop() {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if !ts.running {
		return
	}

	ts.running = false
	close(ts.done)
	ts.done = make(chan struct{})

	if ts.ticker != nil {
		ts.ticker.Stop()
	}
}

func (ts *TickerScheduler) IsRunning() bool {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	return ts.running
}

func (ts *TickerScheduler) run(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case now := <-ticker.C:
			ts.Flush(now)
		case <-done:
			return
		}
	}
}
