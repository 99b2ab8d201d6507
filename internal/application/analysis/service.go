package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
)

// Service sequences the two prompt stages for one design image.
// It keeps no state between calls and is safe for concurrent use.
type Service struct {
	Engine ai.Engine
	Logger *zap.Logger
}

func NewService(engine ai.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Engine: engine, Logger: logger}
}

// Analyze never returns a Go error: every failure is folded into Outcome.Err.
func (s *Service) Analyze(ctx context.Context, designImageDataURI, designDescription string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Error("design analysis panicked", zap.Any("panic", r))
			out = failWith(panicMessage(r), fmt.Errorf("panic: %v", r))
		}
	}()

	if designImageDataURI == "" {
		return fail(MsgImageRequired)
	}
	if designDescription == "" {
		designDescription = DefaultDescription
	}

	// stage 1: flaws + shallow suggestions
	initial, err := s.analyzeDesignImage(ctx, designImageDataURI)
	if err != nil {
		s.log().Warn("initial design analysis failed", zap.Error(err))
		if errors.Is(err, ai.ErrInvalidResponse) {
			return failWith(MsgInitialAnalysisFailed, err)
		}
		return failWith(err.Error(), err)
	}
	if initial == nil || initial.Flaws == nil {
		return fail(MsgInitialAnalysisFailed)
	}
	suggestions := initial.Suggestions

	identifiedFlaws := strings.Join(initial.Flaws, FlawSeparator)
	if identifiedFlaws == "" {
		if len(suggestions) == 0 {
			return succeed(&Result{
				Flaws:        initial.Flaws,
				Suggestions:  suggestions,
				Improvements: []Improvement{},
			})
		}
		// no flaws but suggestions exist: feed the suggestions to the second stage
		identifiedFlaws = strings.Join(suggestions, FlawSeparator)
	}

	// stage 2: detailed improvements
	detailed, err := s.suggestImprovements(ctx, designImageDataURI, designDescription, identifiedFlaws)
	if err != nil {
		s.log().Warn("design improvement suggestions failed", zap.Error(err))
		return failWith(err.Error(), err)
	}

	improvements := []Improvement{}
	if detailed != nil && detailed.Improvements != nil {
		improvements = detailed.Improvements
	}
	return succeed(&Result{
		Flaws:        initial.Flaws,
		Suggestions:  suggestions,
		Improvements: improvements,
	})
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return MsgUnexpected
	}
}
