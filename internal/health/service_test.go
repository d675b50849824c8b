package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// MockSymptomCheckRepository is a mock implementation of SymptomCheckRepository
type MockSymptomCheckRepository struct {
	mock.Mock
}

func (m *MockSymptomCheckRepository) CreateSymptomCheck(check *types.SymptomCheck) error {
	args := m.Called(check)
	return args.Error(0)
}

func (m *MockSymptomCheckRepository) GetSymptomCheckByID(id string) (*types.SymptomCheck, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SymptomCheck), args.Error(1)
}

func (m *MockSymptomCheckRepository) GetSymptomChecks(userID string, limit int) ([]*types.SymptomCheck, error) {
	args := m.Called(userID, limit)
	return args.Get(0).([]*types.SymptomCheck), args.Error(1)
}

func setupTestService(gen *MockGenerator) (*Service, *MockSymptomCheckRepository) {
	repo := new(MockSymptomCheckRepository)
	cfg := &config.AIConfig{TimeoutSeconds: 1, MaxRetries: 1}
	svc := NewService(repo, gen, cfg, logger.New("error"))
	return svc, repo
}

func TestCheckSymptoms_Success(t *testing.T) {
	gen := NewMockGenerator(nil)
	gen.QueueResponse("Likely viral fever. Rest and hydrate. See a doctor if fever persists.")
	svc, repo := setupTestService(gen)

	repo.On("CreateSymptomCheck", mock.AnythingOfType("*types.SymptomCheck")).Return(nil)

	check, err := svc.CheckSymptoms(context.Background(), "user-1", "fever (high severity, duration: 2 days)", types.LanguageEnglish)

	assert.NoError(t, err)
	assert.False(t, check.Fallback)
	assert.Contains(t, check.Advice, "viral fever")
	assert.Equal(t, "user-1", check.UserID)
	assert.NotEmpty(t, check.ID)
	repo.AssertExpectations(t)
}

func TestCheckSymptoms_RetriesOnceThenSucceeds(t *testing.T) {
	gen := NewMockGenerator(nil)
	gen.QueueError(errors.New("model overloaded"))
	gen.QueueResponse("Sounds like a tension headache.")
	svc, repo := setupTestService(gen)

	repo.On("CreateSymptomCheck", mock.Anything).Return(nil)

	check, err := svc.CheckSymptoms(context.Background(), "user-1", "headache", types.LanguageEnglish)

	assert.NoError(t, err)
	assert.False(t, check.Fallback)
	assert.Equal(t, 2, gen.Calls())
}

func TestCheckSymptoms_FallbackOnExhaustedRetries(t *testing.T) {
	gen := NewMockGenerator(nil)
	gen.QueueError(errors.New("model overloaded"))
	gen.QueueError(errors.New("model overloaded"))
	svc, repo := setupTestService(gen)

	repo.On("CreateSymptomCheck", mock.Anything).Return(nil)

	check, err := svc.CheckSymptoms(context.Background(), "user-1", "chest pain", types.LanguageTamil)

	assert.NoError(t, err)
	assert.True(t, check.Fallback)
	assert.Equal(t, types.MsgHealthFallback.Get(types.LanguageTamil), check.Advice)
	assert.Equal(t, 2, gen.Calls())
}

func TestCheckSymptoms_AdviceReturnedEvenIfPersistFails(t *testing.T) {
	gen := NewMockGenerator(nil)
	gen.QueueResponse("Minor sprain. Ice and rest.")
	svc, repo := setupTestService(gen)

	repo.On("CreateSymptomCheck", mock.Anything).Return(errors.New("db down"))

	check, err := svc.CheckSymptoms(context.Background(), "user-1", "ankle pain", types.LanguageEnglish)

	assert.NoError(t, err)
	assert.Contains(t, check.Advice, "sprain")
}

func TestCheckSymptoms_EmptySymptomsRejected(t *testing.T) {
	svc, _ := setupTestService(NewMockGenerator(nil))

	_, err := svc.CheckSymptoms(context.Background(), "user-1", "   ", types.LanguageEnglish)

	var appErr *types.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrorTypeValidation, appErr.Type)
}

func TestChat_SuggestsDoctorDetection(t *testing.T) {
	gen := NewMockGenerator(nil)
	gen.QueueResponse("This can be managed at home, but consult a doctor if it worsens.")
	svc, _ := setupTestService(gen)

	reply, err := svc.Chat(context.Background(), "user-1", "what to do for mild cough?", types.LanguageEnglish)

	assert.NoError(t, err)
	assert.True(t, reply.SuggestsDoctor)
	assert.False(t, reply.Fallback)
}

func TestChat_FallbackAlwaysSuggestsDoctor(t *testing.T) {
	gen := NewMockGenerator(nil)
	gen.QueueError(errors.New("overloaded"))
	gen.QueueError(errors.New("overloaded"))
	svc, _ := setupTestService(gen)

	reply, err := svc.Chat(context.Background(), "user-1", "dizzy since morning", types.LanguageTamil)

	assert.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.True(t, reply.SuggestsDoctor)
	assert.Equal(t, types.MsgHealthFallback.Get(types.LanguageTamil), reply.Reply)
}

func TestGetSymptomCheck_ScopedToOwner(t *testing.T) {
	svc, repo := setupTestService(NewMockGenerator(nil))

	repo.On("GetSymptomCheckByID", "check-1").Return(&types.SymptomCheck{
		ID:     "check-1",
		UserID: "user-1",
	}, nil)

	_, err := svc.GetSymptomCheck(context.Background(), "check-1", "someone-else")

	var appErr *types.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrorTypeNotFound, appErr.Type)
}
