package interfaces

import (
	"context"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// TextGenerator is the generative-AI text backend. Implementations must
// tolerate overload; callers apply bounded timeouts and fall back to static
// localized advice when generation fails.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SymptomCheckRepository persists AI symptom-check interactions so bookings
// can reference them.
type SymptomCheckRepository interface {
	CreateSymptomCheck(check *types.SymptomCheck) error
	GetSymptomCheckByID(id string) (*types.SymptomCheck, error)
	GetSymptomChecks(userID string, limit int) ([]*types.SymptomCheck, error)
}
