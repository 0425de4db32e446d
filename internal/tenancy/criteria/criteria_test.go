package criteria

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDynamo struct {
	getItemFunc    func(ctx context.Context, in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	updateItemFunc func(ctx context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.getItemFunc(ctx, in)
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return m.updateItemFunc(ctx, in)
}

type memStore struct {
	items map[string]models.Criteria
	finds int
	err   error
}

func (m *memStore) Find(_ context.Context, id string) (*models.Criteria, error) {
	m.finds++
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.items[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) Put(_ context.Context, c models.Criteria) error {
	m.items[c.LandlordID] = c
	return nil
}

var defaults = Defaults{MinExperianScore: 750, MaxCCJs: 1}

func TestDynamoStore_Find(t *testing.T) {
	item, err := attributevalue.MarshalMap(models.Criteria{LandlordID: "landlord-1", MinExperianScore: 680, MaxCCJs: 0})
	require.NoError(t, err)

	client := &mockDynamo{getItemFunc: func(_ context.Context, in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		assert.Equal(t, "landlord_criteria", *in.TableName)
		key := in.Key["landlordId"].(*types.AttributeValueMemberS)
		if key.Value == "landlord-1" {
			return &dynamodb.GetItemOutput{Item: item}, nil
		}
		return &dynamodb.GetItemOutput{}, nil
	}}
	s := NewDynamoStore(client, "landlord_criteria")

	c, err := s.Find(context.Background(), "landlord-1")
	require.NoError(t, err)
	assert.Equal(t, 680, c.MinExperianScore)
	assert.Equal(t, 0, c.MaxCCJs)

	c, err = s.Find(context.Background(), "landlord-2")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDynamoStore_Find_Error(t *testing.T) {
	client := &mockDynamo{getItemFunc: func(context.Context, *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		return nil, errors.New("throttled")
	}}

	_, err := NewDynamoStore(client, "t").Find(context.Background(), "landlord-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalService))
}

func TestDynamoStore_Put(t *testing.T) {
	var got *dynamodb.UpdateItemInput
	client := &mockDynamo{updateItemFunc: func(_ context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		got = in
		return &dynamodb.UpdateItemOutput{}, nil
	}}

	err := NewDynamoStore(client, "landlord_criteria").Put(context.Background(), models.Criteria{
		LandlordID: "landlord-1", MinExperianScore: 700, MaxCCJs: 2, UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "landlord-1", got.Key["landlordId"].(*types.AttributeValueMemberS).Value)
	assert.Contains(t, *got.UpdateExpression, "SET")
	assert.Len(t, got.ExpressionAttributeValues, 3)
}

func newMiniredis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestService_GetCriteria_Defaults(t *testing.T) {
	store := &memStore{items: map[string]models.Criteria{}}
	svc := NewService(store, newMiniredis(t), 10*time.Minute, defaults, logger.NewTestLogger(t))

	c, err := svc.GetCriteria(context.Background(), "landlord-9")
	require.NoError(t, err)
	assert.True(t, c.Default)
	assert.Equal(t, 750, c.MinExperianScore)
	assert.Equal(t, 1, c.MaxCCJs)
}

func TestService_GetCriteria_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	store := &memStore{items: map[string]models.Criteria{
		"landlord-1": {LandlordID: "landlord-1", MinExperianScore: 600, MaxCCJs: 3},
	}}
	svc := NewService(store, newMiniredis(t), 10*time.Minute, defaults, logger.NewTestLogger(t))

	c, err := svc.GetCriteria(ctx, "landlord-1")
	require.NoError(t, err)
	assert.Equal(t, 600, c.MinExperianScore)

	_, err = svc.GetCriteria(ctx, "landlord-1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.finds, "second read served from cache")

	require.NoError(t, svc.SetCriteria(ctx, models.Criteria{LandlordID: "landlord-1", MinExperianScore: 800, MaxCCJs: 0}))

	c, err = svc.GetCriteria(ctx, "landlord-1")
	require.NoError(t, err)
	assert.Equal(t, 800, c.MinExperianScore)
	assert.False(t, c.Default)
	assert.Equal(t, 2, store.finds)
}

func TestService_GetCriteria_StoreErrorPropagates(t *testing.T) {
	store := &memStore{err: apperrors.NewExternalServiceError("dynamodb", errors.New("unavailable"))}
	svc := NewService(store, newMiniredis(t), time.Minute, defaults, logger.NewTestLogger(t))

	_, err := svc.GetCriteria(context.Background(), "landlord-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternalService))
}

func TestService_GetCriteria_CacheDownFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("criteria:landlord-1").SetErr(errors.New("connection refused"))

	store := &memStore{items: map[string]models.Criteria{}}
	svc := NewService(store, db, time.Minute, defaults, logger.NewTestLogger(t))

	c, err := svc.GetCriteria(context.Background(), "landlord-1")
	require.NoError(t, err)
	assert.Equal(t, 750, c.MinExperianScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_SetCriteria_Validation(t *testing.T) {
	store := &memStore{items: map[string]models.Criteria{}}
	svc := NewService(store, newMiniredis(t), time.Minute, defaults, logger.NewTestLogger(t))

	err := svc.SetCriteria(context.Background(), models.Criteria{LandlordID: "l", MinExperianScore: 1200, MaxCCJs: -1})
	require.Error(t, err)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	assert.Len(t, stdErr.Fields, 2)
	assert.Empty(t, store.items)
}
