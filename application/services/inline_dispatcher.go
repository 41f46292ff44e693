package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	pkgerrors "booklib-backend/pkg/errors"
)

// InlineDispatcher runs metadata fetches as detached background tasks
// in the same process. Used by the long-running server deployment,
// where no durable queue exists.
type InlineDispatcher struct {
	metadata *MetadataService
	timeout  time.Duration
	logger   *zap.Logger
}

// NewInlineDispatcher creates an inline dispatcher with a per-fetch
// wall-clock budget
func NewInlineDispatcher(metadata *MetadataService, timeout time.Duration, logger *zap.Logger) *InlineDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &InlineDispatcher{
		metadata: metadata,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch launches the fetch on its own goroutine and returns
// immediately. The task carries a fresh context: cancelling the
// foreground request must not cancel the background fetch.
//
// Without a redelivery mechanism a transport failure is terminal here,
// so the row is marked failed rather than left pending.
func (d *InlineDispatcher) Dispatch(_ context.Context, userBookID string) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := d.metadata.Fetch(ctx, userBookID)
		if err == nil {
			return
		}

		d.logger.Error("Inline metadata fetch failed",
			zap.String("userBookID", userBookID),
			zap.Error(err),
		)

		if pkgerrors.IsUnavailable(err) {
			// Marking failed needs its own budget; the fetch context
			// may already be expired.
			markCtx, markCancel := context.WithTimeout(context.Background(), d.timeout)
			defer markCancel()
			if err := d.metadata.MarkFailed(markCtx, userBookID); err != nil {
				d.logger.Error("Failed to mark row failed",
					zap.String("userBookID", userBookID),
					zap.Error(err),
				)
			}
		}
	}()

	return nil
}
