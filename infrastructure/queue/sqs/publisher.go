// Package sqs implements the queued metadata-dispatch mode: the
// request handler publishes a message and a separate worker invocation
// performs the fetch.
package sqs

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	pkgerrors "booklib-backend/pkg/errors"
)

// Client is the subset of the SQS API the publisher uses.
// *sqs.Client satisfies it; tests substitute a fake.
type Client interface {
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
}

// FetchMessage is the JSON body of a metadata-fetch message.
type FetchMessage struct {
	UserBookID string `json:"user_book_id"`
}

// Publisher enqueues metadata-fetch work onto a durable queue.
// Redelivery after consumer failure, the retry bound, and dead-letter
// routing all belong to the queue configuration, not to this code.
type Publisher struct {
	client   Client
	queueURL string
	logger   *zap.Logger
}

// NewPublisher creates a queue publisher
func NewPublisher(client Client, queueURL string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Dispatch publishes a fetch message for the given UserBook
func (p *Publisher) Dispatch(ctx context.Context, userBookID string) error {
	body, err := json.Marshal(FetchMessage{UserBookID: userBookID})
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal fetch message").WithCause(err)
	}

	_, err = p.client.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return pkgerrors.NewUnavailableError("failed to enqueue metadata fetch").WithCause(err)
	}

	p.logger.Info("Queued metadata fetch", zap.String("userBookID", userBookID))
	return nil
}
