// Package storetest holds the behaviour every ports.RegistryStore backend must share.
// Backend packages embed ContractSuite in their own test suite and supply NewStore.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"pnoti/internal/ports"
	"pnoti/internal/types"
	"sync"

	"github.com/stretchr/testify/suite"
)

type ContractSuite struct {
	suite.Suite

	// NewStore is called once per test; the returned store is cleared before use.
	NewStore func() ports.RegistryStore

	Store ports.RegistryStore
	Ctx   context.Context
}

func (s *ContractSuite) SetupTest() {
	s.Ctx = context.Background()
	s.Store = s.NewStore()
	s.Require().NoError(s.Store.ClearAll(s.Ctx))
}

func (s *ContractSuite) TestEmptyStore() {
	n, err := s.Store.Count(s.Ctx)
	s.NoError(err)
	s.Equal(0, n)

	ids, err := s.Store.ListDeviceIDs(s.Ctx)
	s.NoError(err)
	s.Empty(ids)

	_, err = s.Store.GetServiceIDs(s.Ctx, "x")
	s.True(errors.Is(err, types.ErrNotFound), "got %v", err)

	s.NoError(s.Store.Remove(s.Ctx, "x"))
}

func (s *ContractSuite) TestReplaceCreatesAndOverwrites() {
	s.NoError(s.Store.Replace(s.Ctx, "x", types.NewServiceSet("1")))
	set, err := s.Store.GetServiceIDs(s.Ctx, "x")
	s.NoError(err)
	s.Equal([]string{"1"}, set.Sorted())

	s.NoError(s.Store.Replace(s.Ctx, "x", types.NewServiceSet("2", "3")))
	set, err = s.Store.GetServiceIDs(s.Ctx, "x")
	s.NoError(err)
	s.Equal([]string{"2", "3"}, set.Sorted())

	n, err := s.Store.Count(s.Ctx)
	s.NoError(err)
	s.Equal(1, n)
}

func (s *ContractSuite) TestEmptySetIsPresent() {
	s.NoError(s.Store.Replace(s.Ctx, "x", types.NewServiceSet()))
	set, err := s.Store.GetServiceIDs(s.Ctx, "x")
	s.NoError(err)
	s.NotNil(set)
	s.Empty(set)

	n, err := s.Store.Count(s.Ctx)
	s.NoError(err)
	s.Equal(1, n)
}

func (s *ContractSuite) TestReplaceDropsEmptyMember() {
	s.NoError(s.Store.Replace(s.Ctx, "x", types.ServiceSet{"": {}, "a": {}}))
	set, err := s.Store.GetServiceIDs(s.Ctx, "x")
	s.NoError(err)
	s.Equal([]string{"a"}, set.Sorted())
}

func (s *ContractSuite) TestListSorted() {
	for _, id := range []string{"b", "a", "c", "B", "a1"} {
		s.NoError(s.Store.Replace(s.Ctx, id, types.NewServiceSet()))
	}
	// Re-inserting must not duplicate.
	s.NoError(s.Store.Replace(s.Ctx, "a", types.NewServiceSet("1")))

	ids, err := s.Store.ListDeviceIDs(s.Ctx)
	s.NoError(err)
	s.Equal([]string{"B", "a", "a1", "b", "c"}, ids)

	n, err := s.Store.Count(s.Ctx)
	s.NoError(err)
	s.Equal(5, n)
}

func (s *ContractSuite) TestGetReturnsCopy() {
	s.NoError(s.Store.Replace(s.Ctx, "x", types.NewServiceSet("1")))
	set, err := s.Store.GetServiceIDs(s.Ctx, "x")
	s.NoError(err)
	set.Add("2")
	set.Remove("1")

	again, err := s.Store.GetServiceIDs(s.Ctx, "x")
	s.NoError(err)
	s.Equal([]string{"1"}, again.Sorted())
}

func (s *ContractSuite) TestRemove() {
	s.NoError(s.Store.Replace(s.Ctx, "x", types.NewServiceSet("1")))
	s.NoError(s.Store.Replace(s.Ctx, "y", types.NewServiceSet()))
	s.NoError(s.Store.Remove(s.Ctx, "x"))
	s.NoError(s.Store.Remove(s.Ctx, "x"))

	_, err := s.Store.GetServiceIDs(s.Ctx, "x")
	s.True(errors.Is(err, types.ErrNotFound), "got %v", err)

	ids, err := s.Store.ListDeviceIDs(s.Ctx)
	s.NoError(err)
	s.Equal([]string{"y"}, ids)
}

func (s *ContractSuite) TestConcurrentReplaceDistinctKeys() {
	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Store.Replace(s.Ctx, fmt.Sprintf("dev-%02d", i), types.NewServiceSet("svc"))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	count, err := s.Store.Count(s.Ctx)
	s.NoError(err)
	s.Equal(n, count)

	ids, err := s.Store.ListDeviceIDs(s.Ctx)
	s.NoError(err)
	s.Len(ids, n)
	s.Equal("dev-00", ids[0])
	s.Equal(fmt.Sprintf("dev-%02d", n-1), ids[n-1])
}

func (s *ContractSuite) TestClearAll() {
	s.NoError(s.Store.Replace(s.Ctx, "x", types.NewServiceSet("1")))
	s.NoError(s.Store.Replace(s.Ctx, "y", types.NewServiceSet()))
	s.NoError(s.Store.ClearAll(s.Ctx))

	n, err := s.Store.Count(s.Ctx)
	s.NoError(err)
	s.Equal(0, n)
}
