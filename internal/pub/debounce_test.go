package pub

import (
	"errors"
	"pnoti/internal/types"
	"time"
)

func (s *UnitTestSuite) TestDebounceDropsDuplicates() {
	d := NewDebounced(s.sink, time.Minute)
	ev := types.PendingEvent{Type: types.EventCreated, DeviceID: "d1", ServiceID: "s1"}

	s.NoError(d.Publish(s.ctx, ev))
	s.NoError(d.Publish(s.ctx, ev))
	s.Equal(1, s.sink.count())

	other := ev
	other.ServiceID = "s2"
	s.NoError(d.Publish(s.ctx, other))
	s.Equal(2, s.sink.count())
}

func (s *UnitTestSuite) TestDebounceOppositeEventResets() {
	d := NewDebounced(s.sink, time.Minute)
	created := types.PendingEvent{Type: types.EventCreated, DeviceID: "d1"}
	deleted := types.PendingEvent{Type: types.EventDeleted, DeviceID: "d1"}

	s.NoError(d.Publish(s.ctx, created))
	s.NoError(d.Publish(s.ctx, deleted))
	s.NoError(d.Publish(s.ctx, created))
	s.Equal(3, s.sink.count())
}

func (s *UnitTestSuite) TestDebounceWindowExpires() {
	d := NewDebounced(s.sink, 30*time.Millisecond)
	ev := types.PendingEvent{Type: types.EventCreated, DeviceID: "d1"}

	s.NoError(d.Publish(s.ctx, ev))
	time.Sleep(50 * time.Millisecond)
	s.NoError(d.Publish(s.ctx, ev))
	s.Equal(2, s.sink.count())
}

func (s *UnitTestSuite) TestDebounceFailureIsNotRemembered() {
	d := NewDebounced(s.sink, time.Minute)
	ev := types.PendingEvent{Type: types.EventCreated, DeviceID: "d1"}

	s.sink.err = errors.New("down")
	s.Error(d.Publish(s.ctx, ev))
	s.sink.err = nil
	s.NoError(d.Publish(s.ctx, ev))
	s.Equal(1, s.sink.count())
}
