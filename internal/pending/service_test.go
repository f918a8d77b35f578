package pending

import (
	"errors"
	"fmt"
	"pnoti/internal/types"
	"sync"
)

func (s *UnitTestSuite) TestEmptyRegistry() {
	list, err := s.svc.ListPending(s.ctx, types.DefaultOffset, types.DefaultCount)
	s.NoError(err)
	s.Equal(0, list.Total)
	s.Equal([]string{}, list.IDs)

	_, found, err := s.svc.GetForDevice(s.ctx, "nobody")
	s.NoError(err)
	s.False(found)

	ok, err := s.svc.GetForDeviceAndService(s.ctx, "nobody", "s1")
	s.NoError(err)
	s.False(ok)
}

func (s *UnitTestSuite) TestCreateThenRead() {
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	s.NoError(s.svc.Create(s.ctx, "d1", "s2"))

	set, found, err := s.svc.GetForDevice(s.ctx, "d1")
	s.NoError(err)
	s.True(found)
	s.Equal([]string{"s1", "s2"}, set.Sorted())

	ok, err := s.svc.GetForDeviceAndService(s.ctx, "d1", "s2")
	s.NoError(err)
	s.True(ok)
	ok, err = s.svc.GetForDeviceAndService(s.ctx, "d1", "s3")
	s.NoError(err)
	s.False(ok)

	list, err := s.svc.ListPending(s.ctx, 0, 10)
	s.NoError(err)
	s.Equal(1, list.Total)
	s.Equal([]string{"d1"}, list.IDs)
}

func (s *UnitTestSuite) TestCreateIsIdempotent() {
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	set, _, err := s.svc.GetForDevice(s.ctx, "d1")
	s.NoError(err)
	s.Equal([]string{"s1"}, set.Sorted())
}

func (s *UnitTestSuite) TestIDLessNotification() {
	s.NoError(s.svc.Create(s.ctx, "d1", ""))

	set, found, err := s.svc.GetForDevice(s.ctx, "d1")
	s.NoError(err)
	s.True(found)
	s.Empty(set)

	ok, err := s.svc.GetForDeviceAndService(s.ctx, "d1", "s1")
	s.NoError(err)
	s.False(ok)

	n, err := s.store.Count(s.ctx)
	s.NoError(err)
	s.Equal(1, n)

	// Adding a service to an ID-less entry keeps the entry and grows the set.
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	set, _, _ = s.svc.GetForDevice(s.ctx, "d1")
	s.Equal([]string{"s1"}, set.Sorted())

	// An ID-less create on an entry with services leaves them untouched.
	s.NoError(s.svc.Create(s.ctx, "d1", ""))
	set, _, _ = s.svc.GetForDevice(s.ctx, "d1")
	s.Equal([]string{"s1"}, set.Sorted())
}

func (s *UnitTestSuite) TestDeleteLastServiceRemovesDevice() {
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	s.NoError(s.svc.Create(s.ctx, "d1", "s2"))

	s.NoError(s.svc.Delete(s.ctx, "d1", "s1"))
	set, found, err := s.svc.GetForDevice(s.ctx, "d1")
	s.NoError(err)
	s.True(found)
	s.Equal([]string{"s2"}, set.Sorted())

	s.NoError(s.svc.Delete(s.ctx, "d1", "s2"))
	_, found, err = s.svc.GetForDevice(s.ctx, "d1")
	s.NoError(err)
	s.False(found)

	n, err := s.store.Count(s.ctx)
	s.NoError(err)
	s.Equal(0, n)
}

func (s *UnitTestSuite) TestDeleteAllForDevice() {
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	s.NoError(s.svc.Create(s.ctx, "d1", "s2"))
	s.NoError(s.svc.Create(s.ctx, "d2", "s1"))

	s.NoError(s.svc.Delete(s.ctx, "d1", ""))
	_, found, _ := s.svc.GetForDevice(s.ctx, "d1")
	s.False(found)
	_, found, _ = s.svc.GetForDevice(s.ctx, "d2")
	s.True(found)
}

func (s *UnitTestSuite) TestDeleteAbsentIsNoop() {
	s.NoError(s.svc.Delete(s.ctx, "ghost", ""))
	s.NoError(s.svc.Delete(s.ctx, "ghost", "s1"))

	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	s.NoError(s.svc.Delete(s.ctx, "d1", "never-added"))
	set, found, _ := s.svc.GetForDevice(s.ctx, "d1")
	s.True(found)
	s.Equal([]string{"s1"}, set.Sorted())

	// A non-member delete keeps an ID-less entry alive.
	s.NoError(s.svc.Create(s.ctx, "d2", ""))
	s.NoError(s.svc.Delete(s.ctx, "d2", "s1"))
	_, found, _ = s.svc.GetForDevice(s.ctx, "d2")
	s.True(found)

	n, _ := s.store.Count(s.ctx)
	s.Equal(2, n)
	s.Len(s.events.recorded(), 2)
}

func (s *UnitTestSuite) TestEmptyDeviceIDRejected() {
	s.ErrorIs(s.svc.Create(s.ctx, "", "s1"), types.ErrInvalidArgument)
	s.ErrorIs(s.svc.Delete(s.ctx, "", ""), types.ErrInvalidArgument)
	_, _, err := s.svc.GetForDevice(s.ctx, "")
	s.ErrorIs(err, types.ErrInvalidArgument)
	_, err = s.svc.GetForDeviceAndService(s.ctx, "", "s1")
	s.ErrorIs(err, types.ErrInvalidArgument)
}

func (s *UnitTestSuite) TestListPendingNegativeCount() {
	_, err := s.svc.ListPending(s.ctx, 0, -1)
	s.ErrorIs(err, types.ErrInvalidArgument)
}

func (s *UnitTestSuite) TestListPendingPages() {
	for _, id := range []string{"a", "b", "c", "d"} {
		s.NoError(s.svc.Create(s.ctx, id, ""))
	}
	cases := []struct {
		offset, count int
		want          []string
	}{
		{0, 2, []string{"a", "b"}},
		{2, 10, []string{"c", "d"}},
		{-1, 10, []string{"d"}},
		{-10, 2, []string{"a", "b"}},
		{10, 5, []string{}},
		{1, 0, []string{}},
	}
	for _, tc := range cases {
		list, err := s.svc.ListPending(s.ctx, tc.offset, tc.count)
		s.NoError(err)
		s.Equal(4, list.Total, "offset=%d count=%d", tc.offset, tc.count)
		s.Equal(tc.want, list.IDs, "offset=%d count=%d", tc.offset, tc.count)
	}
}

func (s *UnitTestSuite) TestReturnedSetIsACopy() {
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	set, _, _ := s.svc.GetForDevice(s.ctx, "d1")
	set.Add("intruder")

	again, _, _ := s.svc.GetForDevice(s.ctx, "d1")
	s.Equal([]string{"s1"}, again.Sorted())
}

func (s *UnitTestSuite) TestConcurrentCreatesOnOneDevice() {
	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.svc.Create(s.ctx, "hot", fmt.Sprintf("svc-%02d", i)))
		}()
	}
	wg.Wait()

	set, found, err := s.svc.GetForDevice(s.ctx, "hot")
	s.NoError(err)
	s.True(found)
	s.Len(set, n)
	s.Equal(0, s.svc.locks.size())
}

func (s *UnitTestSuite) TestConcurrentCreateAndDelete() {
	for i := range 20 {
		s.NoError(s.svc.Create(s.ctx, "hot", fmt.Sprintf("old-%02d", i)))
	}
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.NoError(s.svc.Delete(s.ctx, "hot", fmt.Sprintf("old-%02d", i)))
		}()
		go func() {
			defer wg.Done()
			s.NoError(s.svc.Create(s.ctx, "hot", fmt.Sprintf("new-%02d", i)))
		}()
	}
	wg.Wait()

	set, _, err := s.svc.GetForDevice(s.ctx, "hot")
	s.NoError(err)
	s.Len(set, 20)
	for _, id := range set.Sorted() {
		s.Contains(id, "new-")
	}
}

func (s *UnitTestSuite) TestEventsPublished() {
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	s.NoError(s.svc.Delete(s.ctx, "d1", "s1"))
	s.NoError(s.svc.Delete(s.ctx, "d1", "s1"))

	events := s.events.recorded()
	s.Require().Len(events, 2)
	s.Equal(types.EventCreated, events[0].Type)
	s.Equal("d1", events[0].DeviceID)
	s.Equal("s1", events[0].ServiceID)
	s.Equal(types.EventDeleted, events[1].Type)
	s.NotZero(events[1].At)
}

func (s *UnitTestSuite) TestPublishFailureDoesNotFailMutation() {
	s.events.err = errors.New("broker gone")
	s.NoError(s.svc.Create(s.ctx, "d1", "s1"))
	ok, err := s.svc.GetForDeviceAndService(s.ctx, "d1", "s1")
	s.NoError(err)
	s.True(ok)
}

func (s *UnitTestSuite) TestStoreErrorsPropagate() {
	svc := NewService(brokenStore{})

	_, err := svc.ListPending(s.ctx, 0, 10)
	s.ErrorIs(err, types.ErrStoreUnavailable)
	_, _, err = svc.GetForDevice(s.ctx, "d1")
	s.ErrorIs(err, types.ErrStoreUnavailable)
	_, err = svc.GetForDeviceAndService(s.ctx, "d1", "s1")
	s.ErrorIs(err, types.ErrStoreUnavailable)
	s.ErrorIs(svc.Create(s.ctx, "d1", "s1"), types.ErrStoreUnavailable)
	s.ErrorIs(svc.Delete(s.ctx, "d1", ""), types.ErrStoreUnavailable)
	s.ErrorIs(svc.Delete(s.ctx, "d1", "s1"), types.ErrStoreUnavailable)
}
