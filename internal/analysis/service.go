package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nutriscan/nutriscan/internal/shared"
)

// ErrMissingIngredients is returned when a product has no ingredient list.
var ErrMissingIngredients = fmt.Errorf("%w: product ingredients not available", shared.ErrInvalidInput)

// Analysis is the structured ingredient report.
type Analysis struct {
	ID         string         `json:"id"`
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data"`
	AnalyzedAt time.Time      `json:"analyzedAt"`
}

// Comparison is the structured head-to-head report.
type Comparison struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

// Verdict is the one-line assessment.
type Verdict struct {
	Success bool   `json:"success"`
	Verdict string `json:"verdict"`
}

// Service turns product descriptions into model prompts and parses replies.
type Service struct {
	model    Model
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the analysis service. A nil model behaves as
// Unconfigured.
func NewService(model Model, logger *slog.Logger) *Service {
	if model == nil {
		model = Unconfigured{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{model: model, validate: validator.New(), logger: logger, now: time.Now}
}

// Analyze produces the full ingredient report for p.
func (s *Service) Analyze(ctx context.Context, p ProductInput) (Analysis, error) {
	if err := s.requireIngredients(p); err != nil {
		return Analysis{}, err
	}
	text, err := s.generate(ctx, "analyze", analyzePrompt(p))
	if err != nil {
		return Analysis{}, err
	}
	data, err := parseObject(text)
	if err != nil {
		s.logger.Error("parse analysis", slog.Any("error", err))
		return Analysis{}, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	return Analysis{
		ID:         uuid.NewString(),
		Success:    true,
		Data:       data,
		AnalyzedAt: s.now().UTC(),
	}, nil
}

// Verdict produces a one-sentence assessment of p.
func (s *Service) Verdict(ctx context.Context, p ProductInput) (Verdict, error) {
	if err := s.requireIngredients(p); err != nil {
		return Verdict{}, err
	}
	text, err := s.generate(ctx, "verdict", verdictPrompt(p))
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Success: true, Verdict: strings.TrimSpace(text)}, nil
}

// Compare asks the model which of a and b is healthier.
func (s *Service) Compare(ctx context.Context, a, b ProductInput) (Comparison, error) {
	if err := s.requireIngredients(a); err != nil {
		return Comparison{}, err
	}
	if err := s.requireIngredients(b); err != nil {
		return Comparison{}, err
	}
	text, err := s.generate(ctx, "compare", comparePrompt(a, b))
	if err != nil {
		return Comparison{}, err
	}
	data, err := parseObject(text)
	if err != nil {
		s.logger.Error("parse comparison", slog.Any("error", err))
		return Comparison{}, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	return Comparison{Success: true, Data: data}, nil
}

func (s *Service) requireIngredients(p ProductInput) error {
	if err := s.validate.Var(strings.TrimSpace(p.Ingredients), "required"); err != nil {
		return ErrMissingIngredients
	}
	return nil
}

func (s *Service) generate(ctx context.Context, op, prompt string) (string, error) {
	start := s.now()
	text, err := s.model.Generate(ctx, prompt)
	if err != nil {
		if !errors.Is(err, ErrModelNotConfigured) {
			s.logger.Error("model call", slog.String("op", op), slog.Any("error", err))
		}
		return "", fmt.Errorf("%w: %w", shared.ErrUpstreamUnavailable, err)
	}
	s.logger.Debug("model call", slog.String("op", op), slog.Duration("elapsed", s.now().Sub(start)))
	return text, nil
}
