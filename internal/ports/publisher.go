package ports

import (
	"context"
	"pnoti/internal/types"
)

// Publisher fans out registry change events to whoever wakes devices up.
type Publisher interface {
	Publish(ctx context.Context, event types.PendingEvent) error
}
