// Package dynamodb stores short URL records in a DynamoDB table keyed by short_code.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

// legacyTimeLayout matches timestamps written without a zone offset,
// which are read as UTC.
const legacyTimeLayout = "2006-01-02T15:04:05.999999999"

// API is the subset of the DynamoDB client used by the repository.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type urlItem struct {
	ShortCode   string `dynamodbav:"short_code"`
	LongURL     string `dynamodbav:"long_url"`
	ClickCount  *int64 `dynamodbav:"click_count,omitempty"`
	IsActive    *bool  `dynamodbav:"is_active,omitempty"`
	CreatedByIP string `dynamodbav:"created_by_ip,omitempty"`
	CreatedAt   string `dynamodbav:"created_at"`
}

func fromURL(url *models.URL) urlItem {
	clickCount := url.ClickCount
	isActive := url.IsActive

	return urlItem{
		ShortCode:   url.ShortCode,
		LongURL:     url.OriginalURL,
		ClickCount:  &clickCount,
		IsActive:    &isActive,
		CreatedByIP: url.CreatedByIP,
		CreatedAt:   url.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (i urlItem) toURL() (*models.URL, error) {
	url := &models.URL{
		ShortCode:   i.ShortCode,
		OriginalURL: i.LongURL,
		IsActive:    true,
		CreatedByIP: i.CreatedByIP,
	}

	if i.ClickCount != nil {
		url.ClickCount = *i.ClickCount
	}
	if i.IsActive != nil {
		url.IsActive = *i.IsActive
	}

	if i.CreatedAt != "" {
		createdAt, err := parseTime(i.CreatedAt)
		if err != nil {
			return nil, err
		}
		url.CreatedAt = createdAt
	}

	return url, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	t, err := time.ParseInLocation(legacyTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_at %q: %w", s, err)
	}

	return t, nil
}

type URLRepository struct {
	client API
	table  string
}

func NewURLRepository(client API, table string) *URLRepository {
	return &URLRepository{
		client: client,
		table:  table,
	}
}

func (r *URLRepository) key(shortCode string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"short_code": &types.AttributeValueMemberS{Value: shortCode},
	}
}

func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.dynamodb.URLRepository.GetByShortCode"

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       r.key(shortCode),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url item: %w", op, err)
	}

	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	var item urlItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal url item: %w", op, err)
	}

	url, err := item.toURL()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (r *URLRepository) Create(ctx context.Context, url *models.URL) error {
	const op = "database.dynamodb.URLRepository.Create"

	av, err := attributevalue.MarshalMap(fromURL(url))
	if err != nil {
		return fmt.Errorf("%s: failed to marshal url item: %w", op, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(short_code)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}
		return fmt.Errorf("%s: failed to put url item: %w", op, err)
	}

	return nil
}

func (r *URLRepository) IncrementClickCount(ctx context.Context, shortCode string) error {
	const op = "database.dynamodb.URLRepository.IncrementClickCount"

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 r.key(shortCode),
		UpdateExpression:    aws.String("ADD click_count :inc"),
		ConditionExpression: aws.String("attribute_exists(short_code)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}
		return fmt.Errorf("%s: failed to update click count: %w", op, err)
	}

	return nil
}

func isConditionalCheckFailed(err error) bool {
	var ccfErr *types.ConditionalCheckFailedException
	return errors.As(err, &ccfErr)
}
