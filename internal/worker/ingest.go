// Package worker turns chat messages into stored transactions.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fluxo/internal/amqp"
	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/store"
)

const (
	seenCapacity = 4096
	seenTTL      = 24 * time.Hour
)

// IngestWorker validates chat messages and appends them to the store.
// Redeliveries of an already stored message id are acknowledged without a
// second write.
type IngestWorker struct {
	writer store.Writer
	seen   *cache.LRUCache[int64]
	logger *log.Logger
}

func NewIngestWorker(writer store.Writer, logger *log.Logger) *IngestWorker {
	if logger == nil {
		logger = log.NewDefault()
	}
	return &IngestWorker{
		writer: writer,
		seen:   cache.NewLRUCache[int64](seenCapacity, seenTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Seen exposes the redelivery cache so it can be swept periodically.
func (w *IngestWorker) Seen() *cache.LRUCache[int64] {
	return w.seen
}

// HandleMessage has the amqp.Handler signature. Content problems wrap
// amqp.ErrInvalidMessage; storage problems are returned as is so the
// delivery is retried.
func (w *IngestWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionMessage) error {
	logger := w.logger.With(log.FieldMessageID, msg.MessageID)

	if msg.MessageID != "" {
		if id, ok := w.seen.Get(msg.MessageID); ok {
			logger.InfoContext(ctx, "Skipping redelivered message", "id", id)
			return nil
		}
	}

	t, err := msg.ToTransaction()
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		logger.WarnContext(ctx, "Chat transaction rejected",
			log.NewFields().
				WithOperation(log.OpValidate).
				WithErrorType(log.ErrorTypeValidation).
				WithError(err).
				WithTransaction(t.Owner, string(t.Kind), string(msg.Amount), t.CategoryOrDefault()).
				ToSlice()...)
		return fmt.Errorf("%w: %w", amqp.ErrInvalidMessage, err)
	}

	saved, err := w.writer.Append(ctx, t)
	if err != nil {
		if isValidationError(err) {
			return fmt.Errorf("%w: %w", amqp.ErrInvalidMessage, err)
		}
		logger.ErrorContext(ctx, "Failed to store chat transaction",
			log.FieldOperation, log.OpIngest,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		return fmt.Errorf("append transaction: %w", err)
	}

	id, _ := saved.IDValue()
	if msg.MessageID != "" {
		w.seen.Set(msg.MessageID, id)
	}
	logger.InfoContext(ctx, "Chat transaction stored",
		append([]any{"id", id}, log.NewFields().
			WithOperation(log.OpIngest).
			WithTransaction(saved.Owner, string(saved.Kind), core.FormatAmount(saved.Value()), saved.CategoryOrDefault()).
			ToSlice()...)...)
	return nil
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyOwner, core.ErrEmptyDescription, core.ErrDescriptionTooLong, core.ErrInvalidAmount,
		core.ErrInvalidKind, core.ErrInvalidInstrument, core.ErrInvalidTimestamp,
		core.ErrCreditIncome,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
