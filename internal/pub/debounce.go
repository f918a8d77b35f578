package pub

import (
	"context"
	"pnoti/internal/ports"
	"pnoti/internal/types"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

const purgeEvery = 1024

// Debounced drops an event identical to one already published within the window. An event of the
// opposite type for the same device and service resets the window, so create, delete, create
// always yields three events.
type Debounced struct {
	next   ports.Publisher
	window time.Duration
	seen   *TTL[string, struct{}]
	calls  atomic.Uint64
}

func NewDebounced(next ports.Publisher, window time.Duration) *Debounced {
	return &Debounced{next: next, window: window, seen: NewTTL[string, struct{}]()}
}

func (d *Debounced) Publish(ctx context.Context, ev types.PendingEvent) error {
	if d.calls.Add(1)%purgeEvery == 0 {
		d.seen.Purge()
	}
	key := debounceKey(ev.Type, ev.DeviceID, ev.ServiceID)
	if _, ok := d.seen.Get(key); ok {
		log.WithFields(log.Fields{
			"deviceId":  ev.DeviceID,
			"serviceId": ev.ServiceID,
			"event":     ev.Type,
		}).Debug("event debounced")
		return nil
	}
	if err := d.next.Publish(ctx, ev); err != nil {
		return err
	}
	d.seen.Delete(debounceKey(opposite(ev.Type), ev.DeviceID, ev.ServiceID))
	d.seen.Set(key, struct{}{}, d.window)
	return nil
}

func opposite(t types.EventType) types.EventType {
	if t == types.EventCreated {
		return types.EventDeleted
	}
	return types.EventCreated
}

func debounceKey(t types.EventType, deviceID, serviceID string) string {
	return string(t) + "\x00" + deviceID + "\x00" + serviceID
}
