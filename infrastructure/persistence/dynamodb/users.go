package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// userItem is the DynamoDB item shape for a user.
type userItem struct {
	UserID       string `dynamodbav:"user_id"`
	Username     string `dynamodbav:"username"`
	Email        string `dynamodbav:"email"`
	PasswordHash string `dynamodbav:"password_hash"`
	CreatedAt    string `dynamodbav:"created_at"`
}

func userToItem(u *domain.User) userItem {
	return userItem{
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    formatTime(u.CreatedAt),
	}
}

func userFromItem(item userItem) (*domain.User, error) {
	createdAt, err := parseTime(item.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewInternalError("corrupt user timestamp").WithCause(err)
	}
	return &domain.User{
		ID:           item.UserID,
		Username:     item.Username,
		Email:        item.Email,
		PasswordHash: item.PasswordHash,
		CreatedAt:    createdAt,
	}, nil
}

// CreateUser assigns a generated ID and persists the user. Uniqueness
// of email and username is checked with index lookups first; there is
// no cross-item transaction backing the check, which matches the
// backend's isolation model.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := s.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewDuplicateError("username already exists")
	}
	existing, err = s.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewDuplicateError("email already exists")
	}

	created := *user
	created.ID = uuid.New().String()

	item, err := attributevalue.MarshalMap(userToItem(&created))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal user").WithCause(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Users),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to create user").WithCause(err)
	}

	return &created, nil
}

// GetUser retrieves a user by ID, returning (nil, nil) when absent.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Users),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to load user").WithCause(err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal user").WithCause(err)
	}
	return userFromItem(item)
}

// GetUserByEmail retrieves a user through the email secondary index.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.queryOneUser(ctx, emailIndex, "email", email)
}

// GetUserByUsername retrieves a user through the username secondary index.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.queryOneUser(ctx, usernameIndex, "username", username)
}

// DeleteUser removes a user. Deleting a nonexistent ID is a no-op.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.Users),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return pkgerrors.NewInternalError("failed to delete user").WithCause(err)
	}
	return nil
}

// queryOneUser runs a single-key GSI query and unmarshals the first match.
func (s *Store) queryOneUser(ctx context.Context, index, field, value string) (*domain.User, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Users),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String(field + " = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to query users").WithCause(err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal user").WithCause(err)
	}
	return userFromItem(item)
}
