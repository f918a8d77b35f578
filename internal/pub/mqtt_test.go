package pub

import (
	"errors"
	"pnoti/internal/types"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMQTT struct {
	topic        string
	qos          byte
	payload      []byte
	token        *fakeToken
	disconnected bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, _ bool, payload interface{}) pahomqtt.Token {
	f.topic = topic
	f.qos = qos
	f.payload = payload.([]byte)
	return f.token
}

func (f *fakeMQTT) Disconnect(uint) { f.disconnected = true }

func (s *UnitTestSuite) TestMQTTPublish() {
	fake := &fakeMQTT{token: &fakeToken{done: true}}
	m := newMQTT(fake, "devices/pending/", 1)
	ev := types.PendingEvent{Type: types.EventCreated, DeviceID: "d1", ServiceID: "s1", At: 7}

	s.Require().NoError(m.Publish(s.ctx, ev))
	s.Equal("devices/pending/d1", fake.topic)
	s.Equal(byte(1), fake.qos)

	var got types.PendingEvent
	s.Require().NoError(json.Unmarshal(fake.payload, &got))
	s.Equal(ev, got)

	s.NoError(m.Close())
	s.True(fake.disconnected)
}

func (s *UnitTestSuite) TestMQTTDefaultPrefix() {
	m := newMQTT(&fakeMQTT{}, "", 0)
	s.Equal(DefaultMQTTTopicPrefix+"/d9", m.Topic("d9"))
}

func (s *UnitTestSuite) TestMQTTPublishFailures() {
	ev := types.PendingEvent{Type: types.EventCreated, DeviceID: "d1"}

	m := newMQTT(&fakeMQTT{token: &fakeToken{done: false}}, "p", 0)
	s.ErrorIs(m.Publish(s.ctx, ev), types.ErrPublish)

	m = newMQTT(&fakeMQTT{token: &fakeToken{done: true, err: errors.New("not connected")}}, "p", 0)
	s.ErrorIs(m.Publish(s.ctx, ev), types.ErrPublish)
}

func (s *UnitTestSuite) TestFromSettingsNone() {
	p, closeFn, err := FromSettings(s.ctx, types.PublishSettings{}, "")
	s.NoError(err)
	s.Nil(p)
	s.NoError(closeFn())
}

func (s *UnitTestSuite) TestFromSettingsUnknown() {
	_, closeFn, err := FromSettings(s.ctx, types.PublishSettings{Kind: "kafka"}, "")
	s.ErrorIs(err, types.ErrInvalidSettings)
	s.NotNil(closeFn)
}

func (s *UnitTestSuite) TestFromSettingsSNSDebounced() {
	cfg := types.PublishSettings{
		Kind:            types.PublisherSNS,
		SNSTopicArn:     "arn:aws:sns:us-east-1:000000000000:pending",
		SNSEndpoint:     "http://localhost:4566",
		DebounceSeconds: 5,
	}
	p, _, err := FromSettings(s.ctx, cfg, "us-east-1")
	s.Require().NoError(err)
	d, ok := p.(*Debounced)
	s.Require().True(ok)
	s.Equal(5*time.Second, d.window)
	s.IsType(&SNS{}, d.next)
}
