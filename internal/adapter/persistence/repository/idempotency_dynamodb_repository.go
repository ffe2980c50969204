package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultIdempotencyTableName = "idempotency_records"

// DynamoDBAPI is the subset of *dynamodb.Client used by the repository.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type idempotencyItem struct {
	Key         string `dynamodbav:"key"`
	Provider    string `dynamodbav:"provider"`
	Fingerprint string `dynamodbav:"fingerprint"`
	CreatedAt   string `dynamodbav:"created_at"`
	ExpiresAt   int64  `dynamodbav:"expires_at"`

	ProviderTransactionID string `dynamodbav:"provider_transaction_id,omitempty"`
	Status                string `dynamodbav:"status,omitempty"`
	RawProviderPayload    string `dynamodbav:"raw_provider_payload,omitempty"`

	ErrorKind    string `dynamodbav:"error_kind,omitempty"`
	ProviderCode string `dynamodbav:"provider_code,omitempty"`
	ErrorMessage string `dynamodbav:"error_message,omitempty"`
	Retriable    bool   `dynamodbav:"retriable,omitempty"`
}

// IdempotencyDynamoRepository persists idempotency records in DynamoDB.
//
// Table requirements:
//   - PK: key (string)
//   - TTL attribute: expires_at (epoch seconds)
//
// DynamoDB deletes expired items lazily, so reads also filter on expires_at.

type IdempotencyDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
	now       func() time.Time
}

var _ interfaces.IIdempotencyStore = (*IdempotencyDynamoRepository)(nil)

func NewIdempotencyDynamoRepository(ddb DynamoDBAPI, tableName string) *IdempotencyDynamoRepository {
	if tableName == "" {
		tableName = defaultIdempotencyTableName
	}
	return &IdempotencyDynamoRepository{
		ddb:       ddb,
		tableName: tableName,
		now:       time.Now,
	}
}

func (r *IdempotencyDynamoRepository) Get(ctx context.Context, key string) (entities.IdempotencyRecord, bool, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.IdempotencyRecord{}, false, fmt.Errorf("dynamodb get idempotency record: %w", err)
	}
	if len(out.Item) == 0 {
		return entities.IdempotencyRecord{}, false, nil
	}

	var it idempotencyItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.IdempotencyRecord{}, false, fmt.Errorf("dynamodb decode idempotency record: %w", err)
	}
	rec := fromIdempotencyItem(it)
	if rec.Expired(r.now()) {
		return entities.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (r *IdempotencyDynamoRepository) Save(ctx context.Context, rec entities.IdempotencyRecord) (entities.IdempotencyRecord, error) {
	av, err := attributevalue.MarshalMap(toIdempotencyItem(rec))
	if err != nil {
		return entities.IdempotencyRecord{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#key) OR #expires_at <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#key":        "key",
			"#expires_at": "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(r.now().Unix(), 10)},
		},
	})
	if err == nil {
		return rec, nil
	}

	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return entities.IdempotencyRecord{}, fmt.Errorf("dynamodb put idempotency record: %w", err)
	}
	existing, found, err := r.Get(ctx, rec.Key)
	if err != nil {
		return entities.IdempotencyRecord{}, err
	}
	if !found {
		return entities.IdempotencyRecord{}, fmt.Errorf("dynamodb idempotency record %q vanished after conditional check", rec.Key)
	}
	return existing, nil
}

func toIdempotencyItem(rec entities.IdempotencyRecord) idempotencyItem {
	it := idempotencyItem{
		Key:         rec.Key,
		Provider:    string(rec.Provider),
		Fingerprint: rec.Fingerprint,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		ExpiresAt:   rec.ExpiresAt.Unix(),
	}
	if rec.Result != nil {
		it.ProviderTransactionID = rec.Result.ProviderTransactionID
		it.Status = string(rec.Result.Status)
		it.RawProviderPayload = string(rec.Result.RawProviderPayload)
	}
	if rec.Failure != nil {
		it.ErrorKind = string(rec.Failure.Kind)
		it.ProviderCode = rec.Failure.ProviderCode
		it.ErrorMessage = rec.Failure.Message
		it.Retriable = rec.Failure.Retriable
	}
	return it
}

func fromIdempotencyItem(it idempotencyItem) entities.IdempotencyRecord {
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	rec := entities.IdempotencyRecord{
		Key:         it.Key,
		Provider:    entities.ProviderName(it.Provider),
		Fingerprint: it.Fingerprint,
		CreatedAt:   createdAt,
		ExpiresAt:   time.Unix(it.ExpiresAt, 0).UTC(),
	}
	if it.ErrorKind != "" {
		rec.Failure = &entities.NormalizedError{
			Kind:         entities.ErrorKind(it.ErrorKind),
			Provider:     rec.Provider,
			ProviderCode: it.ProviderCode,
			Retriable:    it.Retriable,
			Message:      it.ErrorMessage,
		}
		return rec
	}
	res := entities.PaymentResult{
		Provider:              rec.Provider,
		ProviderTransactionID: it.ProviderTransactionID,
		Status:                entities.PaymentStatus(it.Status),
	}
	if it.RawProviderPayload != "" {
		res.RawProviderPayload = []byte(it.RawProviderPayload)
	}
	rec.Result = &res
	return rec
}
