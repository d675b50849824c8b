package health

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Service runs AI-assisted symptom checks and health chat. Generation is
// best effort: a bounded timeout and a limited retry apply per request, and
// any failure degrades to static localized advice instead of an error.
type Service struct {
	repo      interfaces.SymptomCheckRepository
	generator interfaces.TextGenerator
	cfg       *config.AIConfig
	logger    *logger.Logger
}

// NewService creates the health service.
func NewService(repo interfaces.SymptomCheckRepository, gen interfaces.TextGenerator, cfg *config.AIConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, generator: gen, cfg: cfg, logger: log}
}

// ChatReply is the response to a free-form health question.
type ChatReply struct {
	Reply          string         `json:"reply"`
	SuggestsDoctor bool           `json:"suggests_doctor"`
	Fallback       bool           `json:"fallback"`
	Language       types.Language `json:"language"`
}

// CheckSymptoms analyzes a symptom description and persists the interaction
// so a later consultation booking can reference it. The check is stored and
// returned even when generation degraded to the static fallback.
func (s *Service) CheckSymptoms(ctx context.Context, userID, symptoms string, lang types.Language) (*types.SymptomCheck, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "symptoms are required", nil)
	}
	if !lang.IsValid() {
		lang = types.LanguageTamil
	}

	advice, degraded := s.generate(ctx, symptomPrompt(symptoms, lang), lang)

	check := &types.SymptomCheck{
		ID:        uuid.New().String(),
		UserID:    userID,
		Symptoms:  symptoms,
		Advice:    advice,
		Language:  lang,
		Fallback:  degraded,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateSymptomCheck(check); err != nil {
		// The advice is still useful without the stored record.
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to persist symptom check")
	}
	return check, nil
}

// Chat answers a free-form health question. Replies are not persisted.
func (s *Service) Chat(ctx context.Context, userID, message string, lang types.Language) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "message is required", nil)
	}
	if !lang.IsValid() {
		lang = types.LanguageTamil
	}

	reply, degraded := s.generate(ctx, chatPrompt(message, lang), lang)

	return &ChatReply{
		Reply:          reply,
		SuggestsDoctor: degraded || suggestsDoctor(reply),
		Fallback:       degraded,
		Language:       lang,
	}, nil
}

// GetSymptomCheck returns a stored check by id, scoped to its owner.
func (s *Service) GetSymptomCheck(ctx context.Context, id, userID string) (*types.SymptomCheck, error) {
	check, err := s.repo.GetSymptomCheckByID(id)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get symptom check", err)
	}
	if check == nil || check.UserID != userID {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "symptom check not found")
	}
	return check, nil
}

// GetHistory returns the user's recent symptom checks, newest first.
func (s *Service) GetHistory(ctx context.Context, userID string, limit int) ([]*types.SymptomCheck, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	checks, err := s.repo.GetSymptomChecks(userID, limit)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get symptom history", err)
	}
	return checks, nil
}

// generate calls the text backend with a per-attempt timeout, retrying a
// limited number of times. It reports whether the static fallback was used.
func (s *Service) generate(ctx context.Context, prompt string, lang types.Language) (string, bool) {
	timeout := time.Duration(s.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := s.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		text, err := s.generator.Generate(attemptCtx, prompt)
		cancel()

		if err == nil && strings.TrimSpace(text) != "" {
			return text, false
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		s.logger.WithError(err).WithField("attempt", i+1).Warn("Text generation failed")
	}

	s.logger.WithError(lastErr).Warn("Text generation exhausted, serving static advice")
	return types.MsgHealthFallback.Get(lang), true
}

// suggestsDoctor checks whether the reply steers the user to a consultation.
func suggestsDoctor(reply string) bool {
	lower := strings.ToLower(reply)
	return strings.Contains(lower, "doctor") ||
		strings.Contains(lower, "consult") ||
		strings.Contains(reply, "மருத்துவர்")
}
