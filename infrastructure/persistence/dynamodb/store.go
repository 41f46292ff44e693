// Package dynamodb implements the Entity Store Adapter on DynamoDB.
// Identifiers are generated UUID strings; unique-field lookups go
// through global secondary indexes so the interface stays identical
// to the relational backend.
package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Secondary index names, one per unique lookup path.
const (
	emailIndex    = "email-index"
	usernameIndex = "username-index"
	isbnIndex     = "isbn-index"
	userIndex     = "user-index"
	userBookIndex = "user-book-index"
)

// Client is the subset of the DynamoDB API the store uses.
// *dynamodb.Client satisfies it; tests substitute a fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Tables names the three collections the store persists.
type Tables struct {
	Users     string
	Books     string
	UserBooks string
}

// Store provides DynamoDB-backed persistence for the book library.
type Store struct {
	client Client
	tables Tables
	logger *zap.Logger
}

// NewStore creates a DynamoDB store over the given tables.
func NewStore(client Client, tables Tables, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		tables: tables,
		logger: logger,
	}
}

// sortableTimeLayout is RFC 3339 with a fixed-width fractional second,
// so stored timestamps sort lexicographically in date order.
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime renders a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTimeLayout)
}

// parseTime parses a stored RFC 3339 timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// isConditionalCheckFailed reports whether err is a failed
// ConditionExpression, the signal for a missing or conflicting item.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
