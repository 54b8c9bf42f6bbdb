package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/interview"
	"github.com/mockmate/server/internal/model"
	"gorm.io/gorm"
)

// interviewSessionAdapter implements interview.SessionRepository.
type interviewSessionAdapter struct {
	db *gorm.DB
}

// NewInterviewSessionAdapter creates a new interview session database adapter.
func NewInterviewSessionAdapter(db *gorm.DB) interview.SessionRepository {
	return &interviewSessionAdapter{db: db}
}

func (a *interviewSessionAdapter) Create(ctx context.Context, session *model.InterviewSession) error {
	return a.db.WithContext(ctx).Create(session).Error
}

func (a *interviewSessionAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := a.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interview.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (a *interviewSessionAdapter) Update(ctx context.Context, session *model.InterviewSession) error {
	return a.db.WithContext(ctx).Save(session).Error
}

func (a *interviewSessionAdapter) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.InterviewSession, error) {
	var sessions []*model.InterviewSession
	err := a.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Compile-time check
var _ interview.SessionRepository = (*interviewSessionAdapter)(nil)
