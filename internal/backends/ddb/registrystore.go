package ddb

import (
	"context"
	"pnoti/internal/types"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

// RegistryStore keeps one item per device: PK=PENDING, SK=DEVICE#<id>, service_ids as a list.
// A list (not a string set) is used because DynamoDB sets cannot be empty and the empty set is a
// valid pending state.
type RegistryStore struct {
	table string
	cli   *dynamodb.Client
}

type deviceItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	DeviceID   string   `dynamodbav:"device_id"`
	ServiceIDs []string `dynamodbav:"service_ids"`
	UpdatedAt  int64    `dynamodbav:"updated_at"`
}

// NewRegistryStore creates the table if needed and waits for it to become active.
func NewRegistryStore(ctx context.Context, table string, cli *dynamodb.Client) (*RegistryStore, error) {
	if err := createTableIfNotExists(ctx, cli, table); err != nil {
		return nil, types.Err(types.ErrStoreUnavailable, err, "")
	}
	return &RegistryStore{table: table, cli: cli}, nil
}

func (s *RegistryStore) Count(ctx context.Context) (int, error) {
	p := dynamodb.NewQueryPaginator(s.cli, s.partitionQuery(func(in *dynamodb.QueryInput) {
		in.Select = ddbTypes.SelectCount
	}))
	total := 0
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, types.Err(types.ErrStoreUnavailable, err, "ddb count")
		}
		total += int(out.Count)
	}
	return total, nil
}

func (s *RegistryStore) ListDeviceIDs(ctx context.Context) ([]string, error) {
	p := dynamodb.NewQueryPaginator(s.cli, s.partitionQuery(func(in *dynamodb.QueryInput) {
		in.ProjectionExpression = aws.String("SK")
	}))
	ids := make([]string, 0)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, types.Err(types.ErrStoreUnavailable, err, "ddb list")
		}
		for _, item := range out.Items {
			var key struct {
				SK string `dynamodbav:"SK"`
			}
			if err := attributevalue.UnmarshalMap(item, &key); err != nil {
				return nil, types.Err(types.ErrStoreError, err, "")
			}
			id, err := parseDeviceID(key.SK)
			if err != nil {
				return nil, types.Err(types.ErrStoreError, err, "")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *RegistryStore) GetServiceIDs(ctx context.Context, deviceID string) (types.ServiceSet, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		Key:            s.key(deviceID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, types.Err(types.ErrStoreUnavailable, err, "ddb get %s", deviceID)
	}
	if out.Item == nil {
		return nil, types.ErrNotFound
	}
	var item deviceItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, types.Err(types.ErrStoreError, err, "ddb item for %s", deviceID)
	}
	return types.NewServiceSet(item.ServiceIDs...), nil
}

func (s *RegistryStore) Remove(ctx context.Context, deviceID string) error {
	_, err := s.cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key:       s.key(deviceID),
	})
	if err != nil {
		return types.Err(types.ErrStoreUnavailable, err, "ddb delete %s", deviceID)
	}
	return nil
}

func (s *RegistryStore) Replace(ctx context.Context, deviceID string, serviceIDs types.ServiceSet) error {
	item, err := attributevalue.MarshalMap(deviceItem{
		PK:        pkPending(),
		SK:        skDevice(deviceID),
		DeviceID:  deviceID,
		UpdatedAt: time.Now().Unix(),
	})
	if err != nil {
		return types.Err(types.ErrStoreError, err, "")
	}
	// Built by hand so an empty set is stored as an empty list rather than NULL.
	ids := serviceIDs.Sorted()
	list := make([]ddbTypes.AttributeValue, 0, len(ids))
	for _, id := range ids {
		list = append(list, &ddbTypes.AttributeValueMemberS{Value: id})
	}
	item["service_ids"] = &ddbTypes.AttributeValueMemberL{Value: list}

	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return types.Err(types.ErrStoreUnavailable, err, "ddb put %s", deviceID)
	}
	log.WithField("deviceId", deviceID).Debugf("ddb: stored %d service ids", len(ids))
	return nil
}

func (s *RegistryStore) ClearAll(ctx context.Context) error {
	_, err := s.cli.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	err = dynamodb.NewTableNotExistsWaiter(s.cli).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}, tableWaitTimeout)
	if err != nil {
		return err
	}
	return createTableIfNotExists(ctx, s.cli, s.table)
}

func (s *RegistryStore) key(deviceID string) map[string]ddbTypes.AttributeValue {
	return map[string]ddbTypes.AttributeValue{
		"PK": &ddbTypes.AttributeValueMemberS{Value: pkPending()},
		"SK": &ddbTypes.AttributeValueMemberS{Value: skDevice(deviceID)},
	}
}

func (s *RegistryStore) partitionQuery(opt func(*dynamodb.QueryInput)) *dynamodb.QueryInput {
	in := &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: pkPending()},
			":sk": &ddbTypes.AttributeValueMemberS{Value: SDevice + "#"},
		},
		ConsistentRead: aws.Bool(true),
	}
	opt(in)
	return in
}
