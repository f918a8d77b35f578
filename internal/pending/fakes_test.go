package pending

import (
	"context"
	"errors"
	"pnoti/internal/types"
	"sync"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.PendingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev types.PendingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) recorded() []types.PendingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.PendingEvent(nil), p.events...)
}

var errBackendDown = errors.New("backend down")

// brokenStore fails every call with an unavailable error.
type brokenStore struct{}

func (brokenStore) fail() error {
	return types.Err(types.ErrStoreUnavailable, errBackendDown, "broken")
}

func (b brokenStore) Count(context.Context) (int, error)              { return 0, b.fail() }
func (b brokenStore) ListDeviceIDs(context.Context) ([]string, error) { return nil, b.fail() }
func (b brokenStore) GetServiceIDs(context.Context, string) (types.ServiceSet, error) {
	return nil, b.fail()
}
func (b brokenStore) Remove(context.Context, string) error                    { return b.fail() }
func (b brokenStore) Replace(context.Context, string, types.ServiceSet) error { return b.fail() }
func (b brokenStore) ClearAll(context.Context) error                          { return b.fail() }
