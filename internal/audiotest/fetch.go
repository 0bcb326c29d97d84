package audiotest

import (
	"context"
	"fmt"
	"sync"
)

// Fetcher serves canned bodies by locator. When Gate is set every fetch
// waits for it to be closed, or for the context to end.
type Fetcher struct {
	mu     sync.Mutex
	Bodies map[string][]byte
	Errs   map[string]error
	Gate   chan struct{}
	calls  []string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		Bodies: map[string][]byte{},
		Errs:   map[string]error{},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, locator)
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Errs[locator]; ok {
		return nil, err
	}
	body, ok := f.Bodies[locator]
	if !ok {
		return nil, fmt.Errorf("GET %s: bad status: 404 Not Found", locator)
	}
	return body, nil
}

func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
