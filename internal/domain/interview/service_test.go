package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/eligibility"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, session *model.InterviewSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.InterviewSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InterviewSession), args.Error(1)
}

func (m *MockSessionRepo) Update(ctx context.Context, session *model.InterviewSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.InterviewSession, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.InterviewSession), args.Error(1)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Check(ctx context.Context, userID uuid.UUID, required int64) (*eligibility.Result, error) {
	args := m.Called(ctx, userID, required)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eligibility.Result), args.Error(1)
}

type MockMeter struct {
	mock.Mock
}

func (m *MockMeter) Consume(ctx context.Context, userID uuid.UUID, period string, amount int64, actionRef string) (*model.UsagePeriodCounter, error) {
	args := m.Called(ctx, userID, period, amount, actionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsagePeriodCounter), args.Error(1)
}

func (m *MockMeter) Refund(ctx context.Context, userID uuid.UUID, period string, amount int64, actionRef string) (*model.UsagePeriodCounter, error) {
	args := m.Called(ctx, userID, period, amount, actionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsagePeriodCounter), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, config model.InterviewConfig) (*Script, error) {
	args := m.Called(ctx, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Script), args.Error(1)
}

type serviceMocks struct {
	sessions  *MockSessionRepo
	gate      *MockGate
	meter     *MockMeter
	generator *MockGenerator
}

func newTestService() (*Service, serviceMocks) {
	m := serviceMocks{
		sessions:  new(MockSessionRepo),
		gate:      new(MockGate),
		meter:     new(MockMeter),
		generator: new(MockGenerator),
	}
	return NewService(m.sessions, m.gate, m.meter, m.generator, zap.NewNop()), m
}

func validConfig() model.InterviewConfig {
	return model.InterviewConfig{
		JobRole:    "Backend Engineer",
		Difficulty: model.InterviewDifficultyMid,
		Style:      model.InterviewStyleTechnical,
		Language:   "en",
	}
}

func allowedResult() *eligibility.Result {
	return &eligibility.Result{Allowed: true, Reason: eligibility.ReasonAllowed, CheckedAt: time.Now()}
}

func TestServiceStart(t *testing.T) {
	ctx := context.Background()

	t.Run("charges quota and creates the session", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()
		script := &Script{Opening: "welcome", Questions: []string{"q1"}}

		m.gate.On("Check", ctx, userID, int64(1500)).Return(allowedResult(), nil)
		m.meter.On("Consume", ctx, userID, mock.Anything, int64(1500), mock.Anything).
			Return(&model.UsagePeriodCounter{Remaining: 48500}, nil)
		m.generator.On("Generate", ctx, validConfig()).Return(script, nil)
		m.sessions.On("Create", ctx, mock.MatchedBy(func(s *model.InterviewSession) bool {
			return s.UserID == userID && s.Status == model.InterviewSessionStarted && s.CostUnits == 1500
		})).Return(nil)

		result, err := svc.Start(ctx, userID, validConfig())
		require.NoError(t, err)
		assert.Equal(t, script, result.Script)
		assert.Equal(t, int64(1500), result.Session.CostUnits)
		assert.Equal(t, model.PeriodFor(time.Now()), result.Session.Period)
		m.meter.AssertNotCalled(t, "Refund")
	})

	t.Run("senior difficulty costs more", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()
		config := validConfig()
		config.Difficulty = model.InterviewDifficultySenior

		m.gate.On("Check", ctx, userID, int64(2500)).Return(allowedResult(), nil)
		m.meter.On("Consume", ctx, userID, mock.Anything, int64(2500), mock.Anything).
			Return(&model.UsagePeriodCounter{}, nil)
		m.generator.On("Generate", ctx, config).Return(&Script{}, nil)
		m.sessions.On("Create", ctx, mock.Anything).Return(nil)

		_, err := svc.Start(ctx, userID, config)
		require.NoError(t, err)
	})

	t.Run("gate denial maps quota exceeded", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()

		m.gate.On("Check", ctx, userID, int64(1500)).
			Return(&eligibility.Result{Reason: eligibility.ReasonQuotaExceeded}, nil)

		_, err := svc.Start(ctx, userID, validConfig())
		assert.ErrorIs(t, err, usage.ErrQuotaExceeded)
		m.meter.AssertNotCalled(t, "Consume")
	})

	t.Run("gate denial maps missing subscription", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()

		m.gate.On("Check", ctx, userID, int64(1500)).
			Return(&eligibility.Result{Reason: eligibility.ReasonNoSubscription}, nil)

		_, err := svc.Start(ctx, userID, validConfig())
		assert.ErrorIs(t, err, subscription.ErrNoActiveSubscription)
	})

	t.Run("atomic consume loss surfaces quota exceeded", func(t *testing.T) {
		// The gate said yes but a concurrent session won the last units.
		svc, m := newTestService()
		userID := uuid.New()

		m.gate.On("Check", ctx, userID, int64(1500)).Return(allowedResult(), nil)
		m.meter.On("Consume", ctx, userID, mock.Anything, int64(1500), mock.Anything).
			Return(nil, usage.ErrQuotaExceeded)

		_, err := svc.Start(ctx, userID, validConfig())
		assert.ErrorIs(t, err, usage.ErrQuotaExceeded)
		m.generator.AssertNotCalled(t, "Generate")
	})

	t.Run("generator failure refunds the charge", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()

		m.gate.On("Check", ctx, userID, int64(1500)).Return(allowedResult(), nil)
		m.meter.On("Consume", ctx, userID, mock.Anything, int64(1500), mock.Anything).
			Return(&model.UsagePeriodCounter{}, nil)
		m.generator.On("Generate", ctx, validConfig()).Return(nil, ErrGeneratorUnavailable)
		m.meter.On("Refund", ctx, userID, mock.Anything, int64(1500), mock.Anything).
			Return(&model.UsagePeriodCounter{}, nil)

		_, err := svc.Start(ctx, userID, validConfig())
		assert.ErrorIs(t, err, ErrGeneratorUnavailable)
		m.meter.AssertCalled(t, "Refund", ctx, userID, mock.Anything, int64(1500), mock.Anything)
		m.sessions.AssertNotCalled(t, "Create")
	})

	t.Run("session persistence failure refunds the charge", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()

		m.gate.On("Check", ctx, userID, int64(1500)).Return(allowedResult(), nil)
		m.meter.On("Consume", ctx, userID, mock.Anything, int64(1500), mock.Anything).
			Return(&model.UsagePeriodCounter{}, nil)
		m.generator.On("Generate", ctx, validConfig()).Return(&Script{}, nil)
		m.sessions.On("Create", ctx, mock.Anything).Return(errors.New("db down"))
		m.meter.On("Refund", ctx, userID, mock.Anything, int64(1500), mock.Anything).
			Return(&model.UsagePeriodCounter{}, nil)

		_, err := svc.Start(ctx, userID, validConfig())
		require.Error(t, err)
		m.meter.AssertCalled(t, "Refund", ctx, userID, mock.Anything, int64(1500), mock.Anything)
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		svc, m := newTestService()

		config := validConfig()
		config.JobRole = ""
		_, err := svc.Start(ctx, uuid.New(), config)
		assert.ErrorIs(t, err, ErrInvalidConfig)

		config = validConfig()
		config.Difficulty = "impossible"
		_, err = svc.Start(ctx, uuid.New(), config)
		assert.ErrorIs(t, err, ErrInvalidConfig)

		m.gate.AssertNotCalled(t, "Check")
	})
}

func TestServiceCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds the exact charge and marks cancelled", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()
		session := &model.InterviewSession{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    model.InterviewSessionStarted,
			CostUnits: 1500,
			Period:    "2026-08",
		}

		m.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		m.meter.On("Refund", ctx, userID, "2026-08", int64(1500), "interview:"+session.ID.String()).
			Return(&model.UsagePeriodCounter{}, nil)
		m.sessions.On("Update", ctx, mock.MatchedBy(func(s *model.InterviewSession) bool {
			return s.Status == model.InterviewSessionCancelled
		})).Return(nil)

		got, err := svc.Cancel(ctx, userID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InterviewSessionCancelled, got.Status)
	})

	t.Run("finished session cannot be cancelled", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()
		session := &model.InterviewSession{
			ID:     uuid.New(),
			UserID: userID,
			Status: model.InterviewSessionCompleted,
		}

		m.sessions.On("GetByID", ctx, session.ID).Return(session, nil)

		_, err := svc.Cancel(ctx, userID, session.ID)
		assert.ErrorIs(t, err, ErrSessionFinished)
		m.meter.AssertNotCalled(t, "Refund")
	})

	t.Run("another user's session is not found", func(t *testing.T) {
		svc, m := newTestService()
		session := &model.InterviewSession{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Status: model.InterviewSessionStarted,
		}

		m.sessions.On("GetByID", ctx, session.ID).Return(session, nil)

		_, err := svc.Cancel(ctx, uuid.New(), session.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("failed refund leaves the session started", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()
		session := &model.InterviewSession{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    model.InterviewSessionStarted,
			CostUnits: 1000,
			Period:    "2026-08",
		}

		m.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		m.meter.On("Refund", ctx, userID, "2026-08", int64(1000), mock.Anything).
			Return(nil, usage.ErrAuditWriteFailure)

		_, err := svc.Cancel(ctx, userID, session.ID)
		assert.ErrorIs(t, err, usage.ErrAuditWriteFailure)
		m.sessions.AssertNotCalled(t, "Update")
	})
}

func TestServiceComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the session completed without touching quota", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()
		session := &model.InterviewSession{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    model.InterviewSessionStarted,
			CostUnits: 1500,
		}

		m.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		m.sessions.On("Update", ctx, mock.MatchedBy(func(s *model.InterviewSession) bool {
			return s.Status == model.InterviewSessionCompleted
		})).Return(nil)

		got, err := svc.Complete(ctx, userID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InterviewSessionCompleted, got.Status)
		m.meter.AssertNotCalled(t, "Refund")
	})

	t.Run("cancelled session cannot be completed", func(t *testing.T) {
		svc, m := newTestService()
		userID := uuid.New()
		session := &model.InterviewSession{
			ID:     uuid.New(),
			UserID: userID,
			Status: model.InterviewSessionCancelled,
		}

		m.sessions.On("GetByID", ctx, session.ID).Return(session, nil)

		_, err := svc.Complete(ctx, userID, session.ID)
		assert.ErrorIs(t, err, ErrSessionFinished)
	})
}

func TestBreakerGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("passes through a healthy generator", func(t *testing.T) {
		inner := new(MockGenerator)
		gen := NewBreakerGenerator(inner, BreakerConfig{
			GeneratorTimeout: time.Second,
			FailureThreshold: 3,
			CircuitTimeout:   time.Minute,
		}, zap.NewNop())

		inner.On("Generate", mock.Anything, mock.Anything).Return(&Script{Opening: "hi"}, nil)

		script, err := gen.Generate(ctx, validConfig())
		require.NoError(t, err)
		assert.Equal(t, "hi", script.Opening)
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		inner := new(MockGenerator)
		gen := NewBreakerGenerator(inner, BreakerConfig{
			GeneratorTimeout: time.Second,
			FailureThreshold: 3,
			CircuitTimeout:   time.Minute,
		}, zap.NewNop())

		inner.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("provider down"))

		for i := 0; i < 3; i++ {
			_, err := gen.Generate(ctx, validConfig())
			assert.ErrorIs(t, err, ErrGeneratorUnavailable)
		}

		// Breaker is now open; the inner generator is no longer called.
		inner.Calls = nil
		_, err := gen.Generate(ctx, validConfig())
		assert.ErrorIs(t, err, ErrGeneratorUnavailable)
		assert.Empty(t, inner.Calls)
	})
}

func TestTemplateGenerator(t *testing.T) {
	gen := NewTemplateGenerator()

	for _, style := range []model.InterviewStyle{
		model.InterviewStyleBehavioral,
		model.InterviewStyleTechnical,
		model.InterviewStyleSystemDesign,
		model.InterviewStyleMixed,
	} {
		config := validConfig()
		config.Style = style

		script, err := gen.Generate(context.Background(), config)
		require.NoError(t, err)
		assert.NotEmpty(t, script.Opening)
		assert.NotEmpty(t, script.Questions)
	}
}

func TestCostFor(t *testing.T) {
	cost, ok := CostFor(model.InterviewDifficultyJunior)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), cost)

	_, ok = CostFor("principal")
	assert.False(t, ok)
}
