package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// bookItem is the DynamoDB item shape for a book.
type bookItem struct {
	BookID        string `dynamodbav:"book_id"`
	ISBN          string `dynamodbav:"isbn"`
	Title         string `dynamodbav:"title"`
	Author        string `dynamodbav:"author"`
	Genre         string `dynamodbav:"genre"`
	CoverImageURL string `dynamodbav:"cover_image_url,omitempty"`
	Description   string `dynamodbav:"description,omitempty"`
	CreatedAt     string `dynamodbav:"created_at"`
}

func bookToItem(b *domain.Book) bookItem {
	return bookItem{
		BookID:        b.ID,
		ISBN:          b.ISBN,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		CoverImageURL: b.CoverImageURL,
		Description:   b.Description,
		CreatedAt:     formatTime(b.CreatedAt),
	}
}

func bookFromItem(item bookItem) (*domain.Book, error) {
	createdAt, err := parseTime(item.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewInternalError("corrupt book timestamp").WithCause(err)
	}
	return &domain.Book{
		ID:            item.BookID,
		ISBN:          item.ISBN,
		Title:         item.Title,
		Author:        item.Author,
		Genre:         item.Genre,
		CoverImageURL: item.CoverImageURL,
		Description:   item.Description,
		CreatedAt:     createdAt,
	}, nil
}

// CreateBook persists a book, reusing an existing record when one
// already holds the same ISBN.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	existing, err := s.GetBookByISBN(ctx, book.ISBN)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created := *book
	created.ID = uuid.New().String()

	item, err := attributevalue.MarshalMap(bookToItem(&created))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal book").WithCause(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Books),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(book_id)"),
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to create book").WithCause(err)
	}

	return &created, nil
}

// GetBook retrieves a book by ID, returning (nil, nil) when absent.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Books),
		Key: map[string]types.AttributeValue{
			"book_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to load book").WithCause(err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item bookItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal book").WithCause(err)
	}
	return bookFromItem(item)
}

// GetBookByISBN retrieves a book through the ISBN secondary index.
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Books),
		IndexName:              aws.String(isbnIndex),
		KeyConditionExpression: aws.String("isbn = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: isbn},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to query books").WithCause(err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var item bookItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal book").WithCause(err)
	}
	return bookFromItem(item)
}

// UpdateBook merges non-nil fields into an existing book via a single
// UpdateItem. The condition expression turns a missing item into a
// not-found error instead of an upsert.
func (s *Store) UpdateBook(ctx context.Context, id string, update domain.BookUpdate) (*domain.Book, error) {
	if update.Empty() {
		book, err := s.GetBook(ctx, id)
		if err != nil {
			return nil, err
		}
		if book == nil {
			return nil, pkgerrors.NewNotFoundError("book")
		}
		return book, nil
	}

	var set expression.UpdateBuilder
	appendSet := func(name string, value *string) {
		if value != nil {
			set = set.Set(expression.Name(name), expression.Value(*value))
		}
	}
	appendSet("title", update.Title)
	appendSet("author", update.Author)
	appendSet("genre", update.Genre)
	appendSet("cover_image_url", update.CoverImageURL)
	appendSet("description", update.Description)

	expr, err := expression.NewBuilder().
		WithUpdate(set).
		WithCondition(expression.AttributeExists(expression.Name("book_id"))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build update expression").WithCause(err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Books),
		Key: map[string]types.AttributeValue{
			"book_id": &types.AttributeValueMemberS{Value: id},
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
		return nil, pkgerrors.NewInternalError("failed to update book").WithCause(err)
	}

	var item bookItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal book").WithCause(err)
	}
	return bookFromItem(item)
}
