package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceSetIgnoresEmptyID(t *testing.T) {
	s := NewServiceSet("", "b", "a", "b")
	assert.Len(t, s, 2)
	assert.False(t, s.Has(""))
	assert.Equal(t, []string{"a", "b"}, s.Sorted())

	s.Add("")
	assert.Len(t, s, 2)
}

func TestServiceSetCloneIsIndependent(t *testing.T) {
	s := NewServiceSet("a")
	c := s.Clone()
	c.Add("b")
	c.Remove("a")
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))

	var nilSet ServiceSet
	assert.NotNil(t, nilSet.Clone())
	assert.Equal(t, []string{}, nilSet.Sorted())
}

func TestSettingsValidate(t *testing.T) {
	valid := Settings{Port: DefaultPort, Backend: BackendMemory}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(s *Settings)
		target error
	}{
		{"port", func(s *Settings) { s.Port = 0 }, ErrInvalidSettings},
		{"backend", func(s *Settings) { s.Backend = "mongo" }, ErrInvalidBackend},
		{"ddb table", func(s *Settings) { s.Backend = BackendDDB }, ErrInvalidSettings},
		{"sqlite path", func(s *Settings) { s.Backend = BackendSQLite }, ErrInvalidSettings},
		{"publisher", func(s *Settings) { s.Publisher.Kind = "kafka" }, ErrInvalidSettings},
		{"sns arn", func(s *Settings) { s.Publisher.Kind = PublisherSNS }, ErrInvalidSettings},
		{"mqtt qos", func(s *Settings) {
			s.Publisher.Kind = PublisherMQTT
			s.Publisher.MQTTBroker = "tcp://localhost:1883"
			s.Publisher.MQTTQoS = 3
		}, ErrInvalidSettings},
		{"debounce", func(s *Settings) { s.Publisher.DebounceSeconds = -1 }, ErrInvalidSettings},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := s.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tc.target), "got %v", err)
		})
	}
}
