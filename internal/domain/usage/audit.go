package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/model"
	"go.uber.org/zap"
)

// Log is the append-only usage audit trail. Entries are written, never
// updated or deleted; quota-mutating writes go through the counter
// repository's transactional methods, so this service only covers direct
// appends (lifecycle markers) and reads.
type Log struct {
	events EventRepository
	logger *zap.Logger
}

// NewLog creates a new audit log service.
func NewLog(events EventRepository, logger *zap.Logger) *Log {
	return &Log{events: events, logger: logger}
}

// Append records a single audit event. A write failure is surfaced as
// ErrAuditWriteFailure so callers abort the operation they were recording.
func (l *Log) Append(ctx context.Context, event *model.UsageEvent) error {
	if !event.Type.IsValid() {
		return fmt.Errorf("%w: unknown event type %q", ErrAuditWriteFailure, event.Type)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if err := l.events.Append(ctx, event); err != nil {
		l.logger.Error("audit append failed",
			zap.String("user_id", event.UserID.String()),
			zap.String("type", event.Type.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrAuditWriteFailure, err)
	}
	return nil
}

// ListByUser returns a user's audit events in the window, oldest first.
func (l *Log) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.UsageEvent, error) {
	events, err := l.events.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events by user: %w", err)
	}
	return events, nil
}

// ListBySubscription returns every audit event tied to a subscription,
// oldest first.
func (l *Log) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*model.UsageEvent, error) {
	events, err := l.events.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list events by subscription: %w", err)
	}
	return events, nil
}
