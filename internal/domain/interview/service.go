package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/eligibility"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"go.uber.org/zap"
)

// costByDifficulty maps difficulty to the quota units one session charges.
// Data, not code: adding a difficulty means adding a row.
var costByDifficulty = map[model.InterviewDifficulty]int64{
	model.InterviewDifficultyJunior: 1000,
	model.InterviewDifficultyMid:    1500,
	model.InterviewDifficultySenior: 2500,
}

// CostFor returns the quota units a session of the given difficulty charges.
func CostFor(difficulty model.InterviewDifficulty) (int64, bool) {
	cost, ok := costByDifficulty[difficulty]
	return cost, ok
}

// Service runs the metered interview lifecycle: eligibility check, quota
// charge, script generation, and the compensating refund when a started
// session is cancelled or generation fails after the charge.
type Service struct {
	sessions  SessionRepository
	gate      GateChecker
	meter     QuotaMeter
	generator Generator
	logger    *zap.Logger
}

// NewService creates a new interview service.
func NewService(sessions SessionRepository, gate GateChecker, meter QuotaMeter, generator Generator, logger *zap.Logger) *Service {
	return &Service{
		sessions:  sessions,
		gate:      gate,
		meter:     meter,
		generator: generator,
		logger:    logger,
	}
}

// StartResult is a started session together with its generated script.
type StartResult struct {
	Session *model.InterviewSession
	Script  *Script
}

// Start begins a mock interview. The gate check is advisory; the meter's
// atomic consume is what actually reserves the quota, so two concurrent
// starts can both pass the gate but only as many as the remaining allowance
// covers will be charged.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, config model.InterviewConfig) (*StartResult, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	cost := costByDifficulty[config.Difficulty]

	check, err := s.gate.Check(ctx, userID, cost)
	if err != nil {
		return nil, fmt.Errorf("eligibility check: %w", err)
	}
	if !check.Allowed {
		return nil, denialError(check.Reason)
	}

	sessionID := uuid.New()
	period := model.PeriodFor(time.Now())
	actionRef := "interview:" + sessionID.String()

	if _, err := s.meter.Consume(ctx, userID, period, cost, actionRef); err != nil {
		return nil, err
	}

	script, err := s.generator.Generate(ctx, config)
	if err != nil {
		s.refund(ctx, userID, period, cost, actionRef)
		return nil, err
	}

	session := &model.InterviewSession{
		ID:        sessionID,
		UserID:    userID,
		Config:    config,
		Status:    model.InterviewSessionStarted,
		CostUnits: cost,
		Period:    period,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.refund(ctx, userID, period, cost, actionRef)
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("interview started",
		zap.String("session_id", sessionID.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("cost_units", cost),
	)
	return &StartResult{Session: session, Script: script}, nil
}

// Cancel abandons a started session and refunds its charge.
func (s *Service) Cancel(ctx context.Context, userID, sessionID uuid.UUID) (*model.InterviewSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.InterviewSessionStarted {
		return nil, ErrSessionFinished
	}

	actionRef := "interview:" + session.ID.String()
	if _, err := s.meter.Refund(ctx, userID, session.Period, session.CostUnits, actionRef); err != nil {
		return nil, fmt.Errorf("refund session: %w", err)
	}

	session.Status = model.InterviewSessionCancelled
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	s.logger.Info("interview cancelled",
		zap.String("session_id", session.ID.String()),
		zap.Int64("refunded_units", session.CostUnits),
	)
	return session, nil
}

// Complete finishes a started session. Consumed quota stays consumed.
func (s *Service) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*model.InterviewSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.InterviewSessionStarted {
		return nil, ErrSessionFinished
	}

	session.Status = model.InterviewSessionCompleted
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// Get returns a session owned by the user.
func (s *Service) Get(ctx context.Context, userID, sessionID uuid.UUID) (*model.InterviewSession, error) {
	return s.ownedSession(ctx, userID, sessionID)
}

// ListByUser returns the user's most recent sessions.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.InterviewSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	sessions, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*model.InterviewSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// refund compensates a charge after a downstream failure. A failed refund is
// logged loudly; the audit trail still carries the original consume event so
// support can reconcile.
func (s *Service) refund(ctx context.Context, userID uuid.UUID, period string, amount int64, actionRef string) {
	if _, err := s.meter.Refund(ctx, userID, period, amount, actionRef); err != nil {
		s.logger.Error("compensating refund failed",
			zap.String("user_id", userID.String()),
			zap.String("action_ref", actionRef),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
	}
}

func validateConfig(config *model.InterviewConfig) error {
	if config.JobRole == "" {
		return fmt.Errorf("%w: job role is required", ErrInvalidConfig)
	}
	if !config.Difficulty.IsValid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, config.Difficulty)
	}
	if !config.Style.IsValid() {
		return fmt.Errorf("%w: unknown style %q", ErrInvalidConfig, config.Style)
	}
	if config.Language == "" {
		config.Language = "en"
	}
	return nil
}

func denialError(reason string) error {
	switch reason {
	case eligibility.ReasonAccountBlocked:
		return ErrAccountInactive
	case eligibility.ReasonNoSubscription:
		return subscription.ErrNoActiveSubscription
	case eligibility.ReasonQuotaExceeded:
		return usage.ErrQuotaExceeded
	default:
		return fmt.Errorf("not eligible: %s", reason)
	}
}
