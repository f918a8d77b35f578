package pub

import (
	"context"
	"errors"
	"pnoti/internal/types"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/goccy/go-json"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	return &sns.PublishOutput{}, f.err
}

func (s *UnitTestSuite) TestSNSPublish() {
	fake := &fakeSNS{}
	p := &SNS{cli: fake, topicArn: "arn:aws:sns:us-east-1:000000000000:pending"}
	ev := types.PendingEvent{Type: types.EventDeleted, DeviceID: "d1", ServiceID: "s1", At: 42}

	s.Require().NoError(p.Publish(s.ctx, ev))
	s.Equal("arn:aws:sns:us-east-1:000000000000:pending", *fake.in.TopicArn)
	s.Equal("d1", *fake.in.MessageAttributes[AttrDeviceID].StringValue)
	s.Equal("deleted", *fake.in.MessageAttributes[AttrEventType].StringValue)

	var got types.PendingEvent
	s.Require().NoError(json.Unmarshal([]byte(*fake.in.Message), &got))
	s.Equal(ev, got)
}

func (s *UnitTestSuite) TestSNSPublishError() {
	p := &SNS{cli: &fakeSNS{err: errors.New("throttled")}, topicArn: "arn"}
	err := p.Publish(s.ctx, types.PendingEvent{Type: types.EventCreated, DeviceID: "d1"})
	s.ErrorIs(err, types.ErrPublish)
}
