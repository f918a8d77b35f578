package ports

import (
	"context"
	"pnoti/internal/types"
)

// RegistryStore persists the device -> service-set map of pending notifications.
// Every primitive MUST be atomic on its own; sequences of primitives are not, callers that
// read-modify-write a key are responsible for serialising access to it.
// Failures other than a missing key MUST wrap types.ErrStoreUnavailable or types.ErrStoreError.
type RegistryStore interface {
	// Count returns the number of devices currently present.
	Count(ctx context.Context) (int, error)

	// ListDeviceIDs returns every present device ID, sorted ascending byte-wise, no duplicates.
	ListDeviceIDs(ctx context.Context) ([]string, error)

	// GetServiceIDs returns a copy of the device's set, possibly empty.
	// MUST return types.ErrNotFound if the device is absent.
	GetServiceIDs(ctx context.Context, deviceID string) (types.ServiceSet, error)

	// Remove deletes the device. Removing an absent device is not an error.
	Remove(ctx context.Context, deviceID string) error

	// Replace creates or overwrites the device's set.
	Replace(ctx context.Context, deviceID string, serviceIDs types.ServiceSet) error

	// ClearAll purges every entry. Used in tests only.
	ClearAll(ctx context.Context) error
}
