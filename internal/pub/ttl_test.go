package pub

import "time"

func (s *UnitTestSuite) TestTTLCache() {
	c := NewTTL[string, string]()
	c.Set("key1", "value1", 200*time.Millisecond)
	v, ok := c.Get("key1")
	s.True(ok)
	s.Equal("value1", v)

	time.Sleep(250 * time.Millisecond)
	v, ok = c.Get("key1")
	s.False(ok)
	s.Equal("", v)
}

func (s *UnitTestSuite) TestTTLPurgeAndDelete() {
	c := NewTTL[string, int]()
	c.Set("short", 1, 10*time.Millisecond)
	c.Set("long", 2, time.Minute)
	c.Set("gone", 3, time.Minute)
	c.Delete("gone")
	s.Equal(2, c.Len())

	time.Sleep(20 * time.Millisecond)
	c.Purge()
	s.Equal(1, c.Len())
	v, ok := c.Get("long")
	s.True(ok)
	s.Equal(2, v)
}
