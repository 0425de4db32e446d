package criteria

import (
	"context"
	"fmt"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps one item per landlord in the criteria table, keyed by
// landlordId.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Find returns nil without error when the landlord has no criteria.
func (s *DynamoStore) Find(ctx context.Context, landlordID string) (*models.Criteria, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"landlordId": &types.AttributeValueMemberS{Value: landlordID},
		},
	})
	if err != nil {
		return nil, errors.NewExternalServiceError("dynamodb", fmt.Errorf("get criteria %s: %w", landlordID, err))
	}
	if out.Item == nil {
		return nil, nil
	}

	var c models.Criteria
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("unmarshal criteria: %w", err))
	}
	return &c, nil
}

func (s *DynamoStore) Put(ctx context.Context, c models.Criteria) error {
	update := expression.Set(expression.Name("minExperianScore"), expression.Value(c.MinExperianScore))
	update.Set(expression.Name("maxCcjs"), expression.Value(c.MaxCCJs))
	update.Set(expression.Name("updatedAt"), expression.Value(c.UpdatedAt))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("build criteria update: %w", err))
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"landlordId": &types.AttributeValueMemberS{Value: c.LandlordID},
		},
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
	})
	if err != nil {
		return errors.NewExternalServiceError("dynamodb", fmt.Errorf("put criteria %s: %w", c.LandlordID, err))
	}
	return nil
}
