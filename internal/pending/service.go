package pending

import (
	"context"
	"errors"
	"pnoti/internal/ports"
	"pnoti/internal/types"
	"time"

	log "github.com/sirupsen/logrus"
)

var timeNow = time.Now

// Service is the only reader and writer of the registry store. It never caches entries: every
// operation re-reads, mutates a local copy and writes it back.
//
// Create and Delete hold a per-device lock for their whole read-modify-write sequence, so two
// concurrent mutations of the same device in this process cannot lose each other's update.
type Service struct {
	store  ports.RegistryStore
	events ports.Publisher
	locks  *keyLocks
}

type Option func(*Service)

// WithPublisher emits a change event after every committed create/delete.
func WithPublisher(p ports.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(store ports.RegistryStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		locks: newKeyLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPending returns one page of device IDs with a pending notification, plus the registry size.
// Negative offsets count from the end; out-of-range offsets are clamped.
func (s *Service) ListPending(ctx context.Context, offset, count int) (types.PendingList, error) {
	if count < 0 {
		return types.PendingList{}, types.Err(types.ErrInvalidArgument, nil, "count must be >= 0, got %d", count)
	}
	ids, err := s.store.ListDeviceIDs(ctx)
	if err != nil {
		return types.PendingList{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return types.PendingList{}, err
	}
	page := Page(ids, offset, count)
	log.WithFields(log.Fields{
		"total":  total,
		"offset": offset,
		"count":  count,
		"page":   len(page),
	}).Info("listPending")
	return types.PendingList{Total: total, IDs: page}, nil
}

// GetForDeviceAndService reports whether serviceID has a pending notification for deviceID.
func (s *Service) GetForDeviceAndService(ctx context.Context, deviceID, serviceID string) (bool, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return false, err
	}
	set, err := s.store.GetServiceIDs(ctx, deviceID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			log.WithFields(log.Fields{"deviceId": deviceID, "serviceId": serviceID}).Info("getForDeviceAndService: device absent")
			return false, nil
		}
		return false, err
	}
	contains := set.Has(serviceID)
	log.WithFields(log.Fields{
		"deviceId":  deviceID,
		"serviceId": serviceID,
		"contains":  contains,
	}).Info("getForDeviceAndService")
	return contains, nil
}

// GetForDevice returns the pending services for deviceID. found is false when nothing is pending;
// an empty set with found=true is the ID-less pending notification.
func (s *Service) GetForDevice(ctx context.Context, deviceID string) (set types.ServiceSet, found bool, err error) {
	if err = checkDeviceID(deviceID); err != nil {
		return nil, false, err
	}
	set, err = s.store.GetServiceIDs(ctx, deviceID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			log.WithField("deviceId", deviceID).Info("getForDevice: device absent")
			return nil, false, nil
		}
		return nil, false, err
	}
	log.WithFields(log.Fields{"deviceId": deviceID, "serviceIds": set.Sorted()}).Info("getForDevice")
	return set, true, nil
}

// Create marks a notification pending. An empty serviceID creates the ID-less notification, which
// persists the device with whatever set it already has (possibly empty). Idempotent.
func (s *Service) Create(ctx context.Context, deviceID, serviceID string) error {
	if err := checkDeviceID(deviceID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"deviceId": deviceID, "serviceId": serviceID}).Info("create")

	unlock := s.locks.lock(deviceID)
	defer unlock()

	set, err := s.store.GetServiceIDs(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		set = types.NewServiceSet()
	}
	set.Add(serviceID)
	if err := s.store.Replace(ctx, deviceID, set); err != nil {
		return err
	}
	s.publish(ctx, types.EventCreated, deviceID, serviceID)
	return nil
}

// Delete clears pending notifications. An empty serviceID removes the whole device entry.
// Otherwise only serviceID is removed, and the entry goes away when its last service does.
// Deleting something that is not there is a successful no-op.
func (s *Service) Delete(ctx context.Context, deviceID, serviceID string) error {
	if err := checkDeviceID(deviceID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"deviceId": deviceID, "serviceId": serviceID}).Info("delete")

	unlock := s.locks.lock(deviceID)
	defer unlock()

	set, err := s.store.GetServiceIDs(ctx, deviceID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		return err
	}
	if serviceID == "" {
		if err := s.store.Remove(ctx, deviceID); err != nil {
			return err
		}
		s.publish(ctx, types.EventDeleted, deviceID, "")
		return nil
	}
	if !set.Has(serviceID) {
		return nil
	}
	set.Remove(serviceID)
	// Stores hand out copies, so a partial removal has to be written back.
	if len(set) == 0 {
		err = s.store.Remove(ctx, deviceID)
	} else {
		err = s.store.Replace(ctx, deviceID, set)
	}
	if err != nil {
		return err
	}
	s.publish(ctx, types.EventDeleted, deviceID, serviceID)
	return nil
}

func (s *Service) publish(ctx context.Context, typ types.EventType, deviceID, serviceID string) {
	if s.events == nil {
		return
	}
	ev := types.PendingEvent{Type: typ, DeviceID: deviceID, ServiceID: serviceID, At: timeNow().Unix()}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"deviceId":  deviceID,
			"serviceId": serviceID,
			"event":     typ,
		}).Warn("failed to publish pending event")
	}
}

func checkDeviceID(deviceID string) error {
	if deviceID == "" {
		return types.Err(types.ErrInvalidArgument, nil, "device id is required")
	}
	return nil
}
