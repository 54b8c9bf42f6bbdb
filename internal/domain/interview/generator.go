package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/mockmate/server/internal/model"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Script is the generated interview content handed to the client when a
// session starts.
type Script struct {
	Opening   string   `json:"opening"`
	Questions []string `json:"questions"`
}

// Generator produces an interview script for a configuration. Implementations
// typically call an external model provider and can fail or hang, so callers
// go through the circuit-breaker wrapper rather than a Generator directly.
type Generator interface {
	Generate(ctx context.Context, config model.InterviewConfig) (*Script, error)
}

// BreakerGenerator wraps a Generator with a circuit breaker so a failing
// provider sheds load fast instead of hanging every session start.
type BreakerGenerator struct {
	inner   Generator
	breaker *gobreaker.CircuitBreaker[*Script]
	timeout time.Duration
	logger  *zap.Logger
}

// BreakerConfig tunes the generator circuit breaker.
type BreakerConfig struct {
	GeneratorTimeout time.Duration
	FailureThreshold uint32
	CircuitTimeout   time.Duration
}

// NewBreakerGenerator wraps inner with circuit-breaker protection.
func NewBreakerGenerator(inner Generator, cfg BreakerConfig, logger *zap.Logger) *BreakerGenerator {
	settings := gobreaker.Settings{
		Name:        "interview-generator",
		MaxRequests: 1,
		Timeout:     cfg.CircuitTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generator breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerGenerator{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*Script](settings),
		timeout: cfg.GeneratorTimeout,
		logger:  logger,
	}
}

// Generate runs the inner generator through the breaker with a per-call
// timeout. Any failure, including an open breaker, comes back as
// ErrGeneratorUnavailable.
func (g *BreakerGenerator) Generate(ctx context.Context, config model.InterviewConfig) (*Script, error) {
	script, err := g.breaker.Execute(func() (*Script, error) {
		genCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return g.inner.Generate(genCtx, config)
	})
	if err != nil {
		g.logger.Error("interview generation failed",
			zap.String("job_role", config.JobRole),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	return script, nil
}

// TemplateGenerator is the built-in Generator. It fills a per-style question
// template from the configuration; real deployments swap in a model-backed
// implementation behind the same interface.
type TemplateGenerator struct{}

// NewTemplateGenerator creates the built-in template generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (TemplateGenerator) Generate(ctx context.Context, config model.InterviewConfig) (*Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	questions := questionsFor(config.Style, config.JobRole)
	return &Script{
		Opening:   fmt.Sprintf("Welcome to your %s %s interview for the %s role.", config.Difficulty, config.Style, config.JobRole),
		Questions: questions,
	}, nil
}

func questionsFor(style model.InterviewStyle, jobRole string) []string {
	switch style {
	case model.InterviewStyleBehavioral:
		return []string{
			fmt.Sprintf("Tell me about a time you disagreed with a teammate while working as a %s.", jobRole),
			"Describe a project you are proud of and your specific contribution.",
			"How do you handle receiving critical feedback?",
		}
	case model.InterviewStyleTechnical:
		return []string{
			fmt.Sprintf("Walk me through how you would debug a production incident as a %s.", jobRole),
			"Explain a technical trade-off you made recently and why.",
			"How do you decide what to test in a new feature?",
		}
	case model.InterviewStyleSystemDesign:
		return []string{
			"Design a rate limiter for a public API.",
			"How would you scale a read-heavy service to ten times the traffic?",
			"Where would you introduce a cache, and what invalidation strategy fits?",
		}
	default:
		return []string{
			fmt.Sprintf("Why are you interested in this %s position?", jobRole),
			"Describe the most challenging problem you solved this year.",
			"Design a notification system for a mobile application.",
		}
	}
}
