package memory

import (
	"context"
	"pnoti/internal/types"
	"slices"
	"sync"
)

// RegistryStore is the process-local registry. Sets are copied on the way in and out so
// callers never share memory with the map.
type RegistryStore struct {
	mu      sync.RWMutex
	devices map[string]types.ServiceSet
}

func NewRegistryStore() *RegistryStore {
	return &RegistryStore{devices: make(map[string]types.ServiceSet)}
}

func (s *RegistryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices), nil
}

func (s *RegistryStore) ListDeviceIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

func (s *RegistryStore) GetServiceIDs(_ context.Context, deviceID string) (types.ServiceSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.devices[deviceID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return set.Clone(), nil
}

func (s *RegistryStore) Remove(_ context.Context, deviceID string) error {
	s.mu.Lock()
	delete(s.devices, deviceID)
	s.mu.Unlock()
	return nil
}

func (s *RegistryStore) Replace(_ context.Context, deviceID string, serviceIDs types.ServiceSet) error {
	next := types.NewServiceSet(serviceIDs.Sorted()...)
	s.mu.Lock()
	s.devices[deviceID] = next
	s.mu.Unlock()
	return nil
}

func (s *RegistryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	s.devices = make(map[string]types.ServiceSet)
	s.mu.Unlock()
	return nil
}
