package types

import (
	"encoding/xml"
	"slices"
)

// ServiceSet is the set of service IDs with a pending notification for one device.
// An empty (but present) set is the "ID-less" pending notification.
type ServiceSet map[string]struct{}

// NewServiceSet builds a set from ids, dropping empty strings and duplicates.
func NewServiceSet(ids ...string) ServiceSet {
	s := make(ServiceSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. The empty string is never a member.
func (s ServiceSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

func (s ServiceSet) Remove(id string) {
	delete(s, id)
}

func (s ServiceSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy; a nil set clones to an empty one.
func (s ServiceSet) Clone() ServiceSet {
	out := make(ServiceSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order, never nil.
func (s ServiceSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// PendingList is one page of device IDs with a pending notification.
// Total is the size of the whole registry, not of the page.
type PendingList struct {
	XMLName xml.Name `json:"-" xml:"notifications"`
	Total   int      `json:"total" xml:"total"`
	IDs     []string `json:"ids,omitempty" xml:"ids>id,omitempty"`
}

// ServiceValues is the body returned for a single device.
type ServiceValues struct {
	XMLName xml.Name `xml:"values"`
	Values  []string `xml:"value"`
}

type VersionInfo struct {
	XMLName xml.Name `json:"-" xml:"version"`
	Version string   `json:"version" xml:",chardata"`
}

// Version is overridden at build time with -ldflags "-X pnoti/internal/types.Version=...".
var Version = "dev"

type EventType string

const (
	EventCreated EventType = "created"
	EventDeleted EventType = "deleted"
)

// PendingEvent is emitted after a registry mutation has been committed.
// An empty ServiceID on a deleted event means every service was cleared.
type PendingEvent struct {
	Type      EventType `json:"type"`
	DeviceID  string    `json:"device_id"`
	ServiceID string    `json:"service_id,omitempty"`
	At        int64     `json:"at"`
}
