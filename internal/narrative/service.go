// Package narrative answers free-form questions about a session's sales with a language model.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/analytics"
	"github.com/dvloznov/pharmainsight/internal/domain"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 60 * time.Second

var (
	// ErrNotConfigured is returned by Ask when no generator is available.
	ErrNotConfigured = errors.New("AI is not configured: set GEMINI_API_KEY")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is required")
	// ErrUpstreamUnavailable matches every UpstreamError.
	ErrUpstreamUnavailable = errors.New("AI service unavailable")
)

// UpstreamError reports a failed generation call. It is never retried.
type UpstreamError struct {
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return "AI request timed out. Please try again."
	}
	return fmt.Sprintf("AI service error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUpstreamUnavailable.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// Answer is the reply to a question.
type Answer struct {
	Answer      string   `json:"answer"`
	ContextUsed []string `json:"contextUsed"`
	Suggestions []string `json:"suggestions"`
}

// Diagnosis holds either a model answer or, without a generator, the rule-based analysis.
type Diagnosis struct {
	Answer      *Answer
	Preliminary *analytics.Preliminary
}

// Service asks questions of a Generator. A nil generator disables Ask.
type Service struct {
	generator Generator
	timeout   time.Duration
	log       zerolog.Logger
}

// NewService creates a narrative service. timeout <= 0 uses DefaultTimeout.
func NewService(generator Generator, timeout time.Duration, log zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{generator: generator, timeout: timeout, log: log}
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s.generator != nil
}

// Ask answers question using a snapshot of table.
func (s *Service) Ask(ctx context.Context, table *domain.Table, question string) (*Answer, error) {
	if s.generator == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	prompt := BuildPrompt(BuildContext(table), question)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		upstream := &UpstreamError{StatusCode: http.StatusBadGateway, Err: err}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			upstream.StatusCode = http.StatusGatewayTimeout
			upstream.Timeout = true
		}
		s.log.Error().Err(err).Bool("timeout", upstream.Timeout).Dur("elapsed", time.Since(start)).Msg("AI request failed")
		return nil, fmt.Errorf("Ask: %w", upstream)
	}

	s.log.Info().Int("prompt_chars", len(prompt)).Int("answer_chars", len(text)).Dur("elapsed", time.Since(start)).Msg("AI answer generated")

	return &Answer{
		Answer:      text,
		ContextUsed: append([]string(nil), ContextSections...),
		Suggestions: append([]string(nil), followUps...),
	}, nil
}

// Diagnose runs the fixed diagnosis question, or returns the preliminary analysis when AI is off.
func (s *Service) Diagnose(ctx context.Context, table *domain.Table) (*Diagnosis, error) {
	if s.generator == nil {
		prelim := analytics.NewService(table, nil, nil).PreliminaryAnalysis()
		return &Diagnosis{Preliminary: &prelim}, nil
	}

	answer, err := s.Ask(ctx, table, DiagnosisQuestion)
	if err != nil {
		return nil, fmt.Errorf("Diagnose: %w", err)
	}
	return &Diagnosis{Answer: answer}, nil
}
