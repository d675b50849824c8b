package health

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// MockGenerator is a canned text backend for development and tests. It
// answers every prompt with a short localized advisory so the rest of the
// pipeline can be exercised without a live model.
type MockGenerator struct {
	mu        sync.Mutex
	logger    *logger.Logger
	responses []string
	errs      []error
	calls     int
}

// NewMockGenerator creates a generator that logs prompts and returns stock
// advice.
func NewMockGenerator(log *logger.Logger) *MockGenerator {
	return &MockGenerator{logger: log}
}

var _ interfaces.TextGenerator = (*MockGenerator)(nil)

// Generate returns the next queued response, or stock advice when the queue
// is empty.
func (g *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	if g.logger != nil {
		g.logger.WithFields(map[string]interface{}{
			"prompt_length": len(prompt),
			"call":          g.calls,
		}).Debug("Mock generator invoked")
	}

	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(g.responses) > 0 {
		resp := g.responses[0]
		g.responses = g.responses[1:]
		return resp, nil
	}
	return "Rest, stay hydrated and monitor your symptoms. Consult a doctor if they persist beyond two days.", nil
}

// QueueResponse queues a response to return on an upcoming call.
func (g *MockGenerator) QueueResponse(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, text)
}

// QueueError queues a failure for an upcoming call.
func (g *MockGenerator) QueueError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs = append(g.errs, err)
}

// Calls reports how many times Generate ran.
func (g *MockGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// symptomPrompt renders the clinician-framed prompt for a symptom list in
// the requested language.
func symptomPrompt(symptoms string, lang types.Language) string {
	if lang == types.LanguageTamil {
		return fmt.Sprintf("நீங்கள் ஒரு மருத்துவ உதவியாளர். மருத்துவ வழிகாட்டுதல்களின் அடிப்படையில் தமிழில் பதிலளிக்கவும்.\n\nஅறிகுறிகள்: %s\n\nசாத்தியமான காரணங்கள், தீவிரத்தன்மை மதிப்பீடு, உடனடி பரிந்துரைகள் மற்றும் மருத்துவரை சந்திக்க வேண்டுமா என்பதை வழங்கவும்.", symptoms)
	}
	return fmt.Sprintf("You are a medical assistant. Respond in English following clinical guidelines.\n\nSymptoms: %s\n\nProvide likely causes, a severity assessment, immediate recommendations and whether a doctor visit is needed.", symptoms)
}

// chatPrompt renders the health-chat prompt for a free-form question.
func chatPrompt(message string, lang types.Language) string {
	if lang == types.LanguageTamil {
		return fmt.Sprintf("நீங்கள் ஒரு மருத்துவ உதவியாளர். மருத்துவ தரநிலைகளின் அடிப்படையில் தமிழில் பதிலளிக்கவும். தேவைப்பட்டால் மருத்துவரை அணுக பரிந்துரைக்கவும்.\n\nகேள்வி: %s", message)
	}
	return fmt.Sprintf("You are a medical assistant. Provide evidence-based health information in English and recommend consulting a doctor when necessary.\n\nQuestion: %s", message)
}
