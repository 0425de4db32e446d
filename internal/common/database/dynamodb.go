package database

import (
	"context"
	"fmt"

	awsclient "tenancy-workflow/internal/common/aws"
	"tenancy-workflow/internal/common/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBClient wraps the DynamoDB client and the criteria table name
type DynamoDBClient struct {
	Client *dynamodb.Client
	Table  string
}

// NewDynamoDB creates a new DynamoDB client from the default AWS config chain
func NewDynamoDB(ctx context.Context, cfg config.DynamoDBConfig) (*DynamoDBClient, error) {
	awsCfg, err := awsclient.LoadConfig(ctx, cfg.Region, cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	return &DynamoDBClient{
		Client: dynamodb.NewFromConfig(awsCfg),
		Table:  cfg.CriteriaTable,
	}, nil
}

// Ping checks that the configured table is reachable.
func (c *DynamoDBClient) Ping(ctx context.Context) error {
	_, err := c.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.Table),
	})
	if err != nil {
		return fmt.Errorf("dynamodb describe table %s: %w", c.Table, err)
	}
	return nil
}
