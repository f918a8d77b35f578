package api

import (
	"context"
	"fmt"
	"pnoti/internal/pending"

	"github.com/aws/aws-lambda-go/events"
	log "github.com/sirupsen/logrus"
)

const (
	SQSAttrDeviceID  = "device-id"
	SQSAttrServiceID = "service-id"
	SQSAttrAction    = "action"

	ActionCreate = "create"
	ActionDelete = "delete"
)

// SQSHandler applies SQS messages to the registry. It is the entry point of the SQS lambda.
type SQSHandler struct {
	Svc *pending.Service
}

// SQSMessageAttributes contains the expected attributes from queue messages
type SQSMessageAttributes struct {
	DeviceID  string
	ServiceID string // Optional, empty means the ID-less notification or the whole device
	Action    string
}

// HandleSQSEvent processes SQS messages. Failed records are reported back so only they are retried.
func (h *SQSHandler) HandleSQSEvent(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	log.Infof("Processing batch of %d messages", len(sqsEvent.Records))

	var batchItemFailures []events.SQSBatchItemFailure

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			log.WithError(err).Errorf("Failed to process message %s", record.MessageId)
			// For FIFO queues, report failure to preserve ordering
			batchItemFailures = append(batchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	return events.SQSEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

// processMessage handles a single SQS message
func (h *SQSHandler) processMessage(ctx context.Context, record events.SQSMessage) error {
	attrs, err := extractMessageAttributes(record)
	if err != nil {
		return fmt.Errorf("extract attributes: %w", err)
	}

	log.WithFields(log.Fields{
		"deviceId":  attrs.DeviceID,
		"serviceId": attrs.ServiceID,
		"action":    attrs.Action,
		"messageID": record.MessageId,
	}).Debug("Processing message")

	switch attrs.Action {
	case ActionCreate:
		if err := h.Svc.Create(ctx, attrs.DeviceID, attrs.ServiceID); err != nil {
			return fmt.Errorf("create: %w", err)
		}
	case ActionDelete:
		if err := h.Svc.Delete(ctx, attrs.DeviceID, attrs.ServiceID); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}
	return nil
}

// extractMessageAttributes parses SQS message attributes
func extractMessageAttributes(record events.SQSMessage) (*SQSMessageAttributes, error) {
	attrs := &SQSMessageAttributes{
		DeviceID:  stringAttr(record, SQSAttrDeviceID),
		ServiceID: stringAttr(record, SQSAttrServiceID),
		Action:    stringAttr(record, SQSAttrAction),
	}
	if attrs.DeviceID == "" {
		return nil, fmt.Errorf("missing required attribute: %s", SQSAttrDeviceID)
	}
	switch attrs.Action {
	case ActionCreate, ActionDelete:
	case "":
		return nil, fmt.Errorf("missing required attribute: %s", SQSAttrAction)
	default:
		return nil, fmt.Errorf("unknown action %q", attrs.Action)
	}
	return attrs, nil
}

func stringAttr(record events.SQSMessage, name string) string {
	if a, ok := record.MessageAttributes[name]; ok && a.StringValue != nil {
		return *a.StringValue
	}
	return ""
}
