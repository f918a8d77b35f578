package ddb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

const (
	SPending = "PENDING"
	SDevice  = "DEVICE"

	tableWaitTimeout = 30 * time.Second
)

// All entries share one partition so a Query over it returns device IDs in sort-key order.
func pkPending() string               { return SPending }
func skDevice(deviceID string) string { return fmt.Sprintf("%s#%s", SDevice, deviceID) }

func parseDeviceID(sk string) (string, error) {
	prefix := SDevice + "#"
	if !strings.HasPrefix(sk, prefix) {
		return "", fmt.Errorf("unexpected sort key %q", sk)
	}
	return strings.TrimPrefix(sk, prefix), nil
}

// createTableIfNotExists builds the PK/SK table that serves as the device ID lookup structure and
// blocks until it is active. An existing table is left untouched.
func createTableIfNotExists(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	var re *ddbTypes.ResourceInUseException
	if err != nil && !errors.As(err, &re) {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	if err == nil {
		log.Infof("ddb: created table %s", table)
	}
	return dynamodb.NewTableExistsWaiter(client).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}, tableWaitTimeout)
}
