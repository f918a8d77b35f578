package pub

import (
	"context"
	"pnoti/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/goccy/go-json"
)

const (
	AttrContentType = "content-type"
	AttrDeviceID    = "device-id"
	AttrEventType   = "event-type"
)

// snsAPI is the slice of *sns.Client used here.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes every event as a JSON message on one topic. Device ID and event type travel as
// message attributes so subscriptions can filter on them.
type SNS struct {
	cli      snsAPI
	topicArn string
}

func NewSNS(c *sns.Client, topicArn string) *SNS { return &SNS{cli: c, topicArn: topicArn} }

func (s *SNS) Publish(ctx context.Context, ev types.PendingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return types.Err(types.ErrPublish, err, "failed to marshal event")
	}
	_, err = s.cli.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicArn),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			AttrContentType: {DataType: aws.String("String"), StringValue: aws.String("application/json")},
			AttrDeviceID:    {DataType: aws.String("String"), StringValue: aws.String(ev.DeviceID)},
			AttrEventType:   {DataType: aws.String("String"), StringValue: aws.String(string(ev.Type))},
		},
	})
	if err != nil {
		return types.Err(types.ErrPublish, err, "failed to publish to %s", s.topicArn)
	}
	return nil
}
