package pub

import (
	"context"
	"pnoti/internal/ports"
	"pnoti/internal/types"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	log "github.com/sirupsen/logrus"
)

// FromSettings builds the publisher selected by cfg.Kind, wrapped in a Debounced when a window is
// configured. PublisherNone yields a nil publisher. The close function is never nil.
func FromSettings(ctx context.Context, cfg types.PublishSettings, region string) (p ports.Publisher, closeFn func() error, err error) {
	closeFn = func() error { return nil }
	switch cfg.Kind {
	case types.PublisherNone:
		return nil, closeFn, nil

	case types.PublisherSNS:
		var cli *sns.Client
		cli, err = snsClient(ctx, cfg.SNSEndpoint, region)
		if err != nil {
			return nil, closeFn, types.Err(types.ErrPublish, err, "failed to load AWS config")
		}
		p = NewSNS(cli, cfg.SNSTopicArn)

	case types.PublisherMQTT:
		var m *MQTT
		m, err = ConnectMQTT(cfg)
		if err != nil {
			return nil, closeFn, err
		}
		p = m
		closeFn = m.Close

	default:
		return nil, closeFn, types.Err(types.ErrInvalidSettings, nil, "unknown publisher %q", cfg.Kind)
	}

	if cfg.DebounceSeconds > 0 {
		p = NewDebounced(p, time.Duration(cfg.DebounceSeconds)*time.Second)
	}
	log.WithFields(log.Fields{"publisher": cfg.Kind, "debounceSeconds": cfg.DebounceSeconds}).Info("event publisher ready")
	return p, closeFn, nil
}

// snsClient creates an SNS client. A non-empty endpoint points it at a local mock.
func snsClient(ctx context.Context, endpoint, region string) (*sns.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if region != "" {
			o.Region = region
		}
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
		}
	}), nil
}
