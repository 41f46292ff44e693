// Package worker consumes queued metadata fetch messages.
package worker

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"booklib-backend/application/services"
	"booklib-backend/infrastructure/queue/sqs"
	pkgerrors "booklib-backend/pkg/errors"
)

// Handler processes SQS batches of metadata fetch requests. Records
// that fail transiently are reported back as batch item failures so the
// queue redelivers them; after redelivery is exhausted they land on the
// dead-letter queue.
type Handler struct {
	metadata *services.MetadataService
	logger   *zap.Logger
}

func NewHandler(metadata *services.MetadataService, logger *zap.Logger) *Handler {
	return &Handler{
		metadata: metadata,
		logger:   logger,
	}
}

// HandleBatch processes each record independently. A malformed message
// body is dropped after marking nothing: redelivering it cannot help.
func (h *Handler) HandleBatch(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, record := range event.Records {
		var msg sqs.FetchMessage
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil || msg.UserBookID == "" {
			h.logger.Warn("Dropping malformed fetch message",
				zap.String("message_id", record.MessageId),
				zap.Error(err),
			)
			continue
		}

		if err := h.metadata.Fetch(ctx, msg.UserBookID); err != nil {
			if pkgerrors.IsUnavailable(err) {
				h.logger.Warn("Metadata fetch unavailable, returning record for redelivery",
					zap.String("message_id", record.MessageId),
					zap.String("user_book_id", msg.UserBookID),
					zap.Error(err),
				)
				resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
					ItemIdentifier: record.MessageId,
				})
				continue
			}
			h.logger.Error("Metadata fetch failed",
				zap.String("message_id", record.MessageId),
				zap.String("user_book_id", msg.UserBookID),
				zap.Error(err),
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	return resp, nil
}
