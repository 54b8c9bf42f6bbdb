package interview

import (
	"context"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/eligibility"
	"github.com/mockmate/server/internal/model"
)

// SessionRepository defines the data access for interview sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *model.InterviewSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.InterviewSession, error)
	Update(ctx context.Context, session *model.InterviewSession) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.InterviewSession, error)
}

// GateChecker answers whether a user may start a metered action.
type GateChecker interface {
	Check(ctx context.Context, userID uuid.UUID, required int64) (*eligibility.Result, error)
}

// QuotaMeter charges and refunds interview cost against the period quota.
type QuotaMeter interface {
	Consume(ctx context.Context, userID uuid.UUID, period string, amount int64, actionRef string) (*model.UsagePeriodCounter, error)
	Refund(ctx context.Context, userID uuid.UUID, period string, amount int64, actionRef string) (*model.UsagePeriodCounter, error)
}
