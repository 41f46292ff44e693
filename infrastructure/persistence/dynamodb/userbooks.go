package dynamodb

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// userBookItem is the DynamoDB item shape for a user-book row.
//
// Rating is declared as a float so any numeric attribute the backend
// holds (DynamoDB numbers are arbitrary-precision) unmarshals cleanly;
// the adapter boundary converts it to a plain int so callers never see
// a backend-specific numeric type.
type userBookItem struct {
	UserBookID string   `dynamodbav:"user_book_id"`
	UserID     string   `dynamodbav:"user_id"`
	BookID     string   `dynamodbav:"book_id"`
	Status     string   `dynamodbav:"status"`
	Rating     *float64 `dynamodbav:"rating,omitempty"`
	SyncState  string   `dynamodbav:"sync_state"`
	DateAdded  string   `dynamodbav:"date_added"`
}

func userBookToItem(ub *domain.UserBook) userBookItem {
	item := userBookItem{
		UserBookID: ub.ID,
		UserID:     ub.UserID,
		BookID:     ub.BookID,
		Status:     string(ub.Status),
		SyncState:  string(ub.SyncState),
		DateAdded:  formatTime(ub.DateAdded),
	}
	if ub.Rating != nil {
		r := float64(*ub.Rating)
		item.Rating = &r
	}
	return item
}

func userBookFromItem(item userBookItem) (*domain.UserBook, error) {
	dateAdded, err := parseTime(item.DateAdded)
	if err != nil {
		return nil, pkgerrors.NewInternalError("corrupt user book timestamp").WithCause(err)
	}

	ub := &domain.UserBook{
		ID:        item.UserBookID,
		UserID:    item.UserID,
		BookID:    item.BookID,
		Status:    domain.ReadingStatus(item.Status),
		SyncState: domain.SyncState(item.SyncState),
		DateAdded: dateAdded,
	}
	if item.Rating != nil {
		r := int(*item.Rating)
		ub.Rating = &r
	}
	return ub, nil
}

// CreateUserBook assigns a generated ID and persists the row after
// checking the (user, book) pair is unused.
func (s *Store) CreateUserBook(ctx context.Context, userBook *domain.UserBook) (*domain.UserBook, error) {
	existing, err := s.FindUserBook(ctx, userBook.UserID, userBook.BookID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewDuplicateError("book is already in your library")
	}

	created := *userBook
	created.ID = uuid.New().String()

	item, err := attributevalue.MarshalMap(userBookToItem(&created))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal user book").WithCause(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.UserBooks),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_book_id)"),
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to create user book").WithCause(err)
	}

	return &created, nil
}

// GetUserBook retrieves a row by ID, returning (nil, nil) when absent.
func (s *Store) GetUserBook(ctx context.Context, id string) (*domain.UserBook, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.UserBooks),
		Key: map[string]types.AttributeValue{
			"user_book_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to load user book").WithCause(err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item userBookItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal user book").WithCause(err)
	}
	return userBookFromItem(item)
}

// FindUserBook retrieves the row joining a user and a book through the
// composite secondary index.
func (s *Store) FindUserBook(ctx context.Context, userID, bookID string) (*domain.UserBook, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.UserBooks),
		IndexName:              aws.String(userBookIndex),
		KeyConditionExpression: aws.String("user_id = :u AND book_id = :b"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
			":b": &types.AttributeValueMemberS{Value: bookID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to query user books").WithCause(err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var item userBookItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal user book").WithCause(err)
	}
	return userBookFromItem(item)
}

// ListForOwner queries the user's rows through the owner index and
// fetches each referenced book individually. The N+1 read pattern is
// a characteristic of this backend (no native join); the results are
// value-identical to the relational backend's single query.
func (s *Store) ListForOwner(ctx context.Context, userID string) ([]domain.LibraryEntry, error) {
	userBooks, err := s.queryOwnerRows(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Stored date-added value orders the listing; processing order of
	// sibling rows never does. Ties break on the row ID.
	sort.Slice(userBooks, func(i, j int) bool {
		if !userBooks[i].DateAdded.Equal(userBooks[j].DateAdded) {
			return userBooks[i].DateAdded.Before(userBooks[j].DateAdded)
		}
		return userBooks[i].ID < userBooks[j].ID
	})

	entries := []domain.LibraryEntry{}
	for _, ub := range userBooks {
		book, err := s.GetBook(ctx, ub.BookID)
		if err != nil {
			return nil, err
		}
		if book == nil {
			// Orphaned row: the two-write create sequence has no
			// atomicity guarantee, so tolerate and skip.
			s.logger.Warn("Skipping user book with missing book record",
				zap.String("userBookID", ub.ID),
				zap.String("bookID", ub.BookID),
			)
			continue
		}
		entries = append(entries, domain.LibraryEntry{UserBook: *ub, Book: *book})
	}

	return entries, nil
}

// UpdateUserBook merges non-nil fields into an existing row.
func (s *Store) UpdateUserBook(ctx context.Context, id string, update domain.UserBookUpdate) (*domain.UserBook, error) {
	hasChange := update.Status != nil || update.Rating != nil || update.ClearRating || update.SyncState != nil
	if !hasChange {
		userBook, err := s.GetUserBook(ctx, id)
		if err != nil {
			return nil, err
		}
		if userBook == nil {
			return nil, pkgerrors.NewNotFoundError("book")
		}
		return userBook, nil
	}

	var upd expression.UpdateBuilder
	if update.Status != nil {
		upd = upd.Set(expression.Name("status"), expression.Value(string(*update.Status)))
	}
	if update.ClearRating {
		upd = upd.Remove(expression.Name("rating"))
	} else if update.Rating != nil {
		upd = upd.Set(expression.Name("rating"), expression.Value(*update.Rating))
	}
	if update.SyncState != nil {
		upd = upd.Set(expression.Name("sync_state"), expression.Value(string(*update.SyncState)))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(upd).
		WithCondition(expression.AttributeExists(expression.Name("user_book_id"))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build update expression").WithCause(err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.UserBooks),
		Key: map[string]types.AttributeValue{
			"user_book_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFoundError("book")
		}
		return nil, pkgerrors.NewInternalError("failed to update user book").WithCause(err)
	}

	var item userBookItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal user book").WithCause(err)
	}
	return userBookFromItem(item)
}

// DeleteUserBook removes a row. Deleting a nonexistent ID is a no-op.
func (s *Store) DeleteUserBook(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.UserBooks),
		Key: map[string]types.AttributeValue{
			"user_book_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return pkgerrors.NewInternalError("failed to delete user book").WithCause(err)
	}
	return nil
}

// DeleteUserBooksForOwner removes every row owned by the user. The
// backend has no foreign-key cascade, so cleanup is an explicit query
// followed by per-row deletes.
func (s *Store) DeleteUserBooksForOwner(ctx context.Context, userID string) error {
	userBooks, err := s.queryOwnerRows(ctx, userID)
	if err != nil {
		return err
	}

	for _, ub := range userBooks {
		if err := s.DeleteUserBook(ctx, ub.ID); err != nil {
			return err
		}
	}
	return nil
}

// queryOwnerRows pages through the owner index collecting every row
// for a user.
func (s *Store) queryOwnerRows(ctx context.Context, userID string) ([]*domain.UserBook, error) {
	var (
		rows     []*domain.UserBook
		startKey map[string]types.AttributeValue
	)

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tables.UserBooks),
			IndexName:              aws.String(userIndex),
			KeyConditionExpression: aws.String("user_id = :u"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":u": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to query user books").WithCause(err)
		}

		for _, raw := range out.Items {
			var item userBookItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, pkgerrors.NewInternalError("failed to unmarshal user book").WithCause(err)
			}
			ub, err := userBookFromItem(item)
			if err != nil {
				return nil, err
			}
			rows = append(rows, ub)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return rows, nil
}
