package consult

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// MockConsultRepository is a mock implementation of ConsultRepository
type MockConsultRepository struct {
	mock.Mock
}

func (m *MockConsultRepository) GetHospitalByID(id string) (*types.Hospital, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Hospital), args.Error(1)
}

func (m *MockConsultRepository) GetHospitals(filters *types.HospitalFilters) ([]*types.Hospital, error) {
	args := m.Called(filters)
	return args.Get(0).([]*types.Hospital), args.Error(1)
}

func (m *MockConsultRepository) GetDoctorByID(id string) (*types.Doctor, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Doctor), args.Error(1)
}

func (m *MockConsultRepository) GetDoctors(filters *types.DoctorFilters) ([]*types.Doctor, error) {
	args := m.Called(filters)
	return args.Get(0).([]*types.Doctor), args.Error(1)
}

func (m *MockConsultRepository) IncrementDoctorConsultations(doctorID string) error {
	args := m.Called(doctorID)
	return args.Error(0)
}

func (m *MockConsultRepository) CreateConsultation(c *types.Consultation) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *MockConsultRepository) GetConsultationByID(id string) (*types.Consultation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Consultation), args.Error(1)
}

func (m *MockConsultRepository) GetConsultationByMeetingID(meetingID string) (*types.Consultation, error) {
	args := m.Called(meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Consultation), args.Error(1)
}

func (m *MockConsultRepository) GetConsultations(filters *types.ConsultationFilters) ([]*types.Consultation, error) {
	args := m.Called(filters)
	return args.Get(0).([]*types.Consultation), args.Error(1)
}

func (m *MockConsultRepository) CountConsultations(filters *types.ConsultationFilters) (int, error) {
	args := m.Called(filters)
	return args.Int(0), args.Error(1)
}

func (m *MockConsultRepository) GetConflictingConsultations(doctorID string, around time.Time, window time.Duration) ([]*types.Consultation, error) {
	args := m.Called(doctorID, around, window)
	return args.Get(0).([]*types.Consultation), args.Error(1)
}

func (m *MockConsultRepository) TransitionConsultation(id, userID string, allowed []types.ConsultationStatus, to types.ConsultationStatus) (bool, error) {
	args := m.Called(id, userID, allowed, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsultRepository) MarkNoShows(cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConsultRepository) CreateRequest(req *types.ConsultationRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockConsultRepository) GetRequestByRequestID(requestID string) (*types.ConsultationRequest, error) {
	args := m.Called(requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ConsultationRequest), args.Error(1)
}

func (m *MockConsultRepository) GetRequestsByPatient(patientID string) ([]*types.ConsultationRequest, error) {
	args := m.Called(patientID)
	return args.Get(0).([]*types.ConsultationRequest), args.Error(1)
}

func (m *MockConsultRepository) GetPendingRequests(doctorID string) ([]*types.ConsultationRequest, error) {
	args := m.Called(doctorID)
	return args.Get(0).([]*types.ConsultationRequest), args.Error(1)
}

func (m *MockConsultRepository) UpdateRequest(req *types.ConsultationRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func setupTestService() (*Service, *MockConsultRepository) {
	repo := &MockConsultRepository{}
	svc := NewService(repo, interfaces.NopPublisher{}, &config.MeetingConfig{
		BaseURL:      "http://localhost:3000/consult/session?meetingId=",
		JitsiBaseURL: "https://meet.jit.si/",
	}, logger.New("error"))
	return svc, repo
}

// testDoctor returns a doctor available all day every day.
func testDoctor() *types.Doctor {
	availability := make([]types.AvailabilityWindow, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		availability = append(availability, types.AvailabilityWindow{
			Day: day, StartTime: "00:00", EndTime: "23:59",
		})
	}
	return &types.Doctor{
		ID:              "doc-1",
		HospitalID:      "hosp-1",
		Name:            "Dr. Kumar",
		Specialization:  "General Medicine",
		Availability:    availability,
		ConsultationFee: 300,
		IsActive:        true,
		Hospital: &types.Hospital{
			ID:       "hosp-1",
			Name:     "Government General Hospital",
			IsActive: true,
		},
	}
}

func TestBook_Success(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)
	repo.On("GetConflictingConsultations", "doc-1", slot, conflictWindow).Return([]*types.Consultation{}, nil)
	repo.On("CreateConsultation", mock.AnythingOfType("*types.Consultation")).Return(nil)
	repo.On("IncrementDoctorConsultations", "doc-1").Return(nil)

	c, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: slot,
		Type:        types.ConsultVideo,
	})

	assert.NoError(t, err)
	assert.Equal(t, types.ConsultationScheduled, c.Status)
	assert.Equal(t, 300.0, c.Fee)
	assert.NotEmpty(t, c.MeetingID)
	assert.Contains(t, c.MeetingLink, c.MeetingID)
	repo.AssertExpectations(t)
}

func TestBook_PhoneHasNoMeetingLink(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)
	repo.On("GetConflictingConsultations", "doc-1", slot, conflictWindow).Return([]*types.Consultation{}, nil)
	repo.On("CreateConsultation", mock.AnythingOfType("*types.Consultation")).Return(nil)
	repo.On("IncrementDoctorConsultations", "doc-1").Return(nil)

	c, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: slot,
		Type:        types.ConsultPhone,
	})

	assert.NoError(t, err)
	assert.Empty(t, c.MeetingID)
	assert.Empty(t, c.MeetingLink)
}

func TestBook_Conflict(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)
	repo.On("GetConflictingConsultations", "doc-1", slot, conflictWindow).Return([]*types.Consultation{
		{ID: "existing", Status: types.ConsultationScheduled},
	}, nil)

	_, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: slot,
		Type:        types.ConsultVideo,
	})

	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrCodeSlotConflict, appErr.Code)
	repo.AssertNotCalled(t, "CreateConsultation", mock.Anything)
}

func TestBook_ExactlyThirtyMinutesApartConflicts(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	// The window is inclusive on both ends: a booking exactly 30 minutes
	// before the candidate is still a conflict.
	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)
	repo.On("GetConflictingConsultations", "doc-1", slot, conflictWindow).Return([]*types.Consultation{
		{ID: "existing", Status: types.ConsultationScheduled, ScheduledAt: slot.Add(-conflictWindow)},
	}, nil)

	_, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: slot,
		Type:        types.ConsultVideo,
	})

	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrCodeSlotConflict, appErr.Code)
	repo.AssertNotCalled(t, "CreateConsultation", mock.Anything)
}

func TestBook_InactiveHospitalRefused(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	doctor.Hospital.IsActive = false
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)

	_, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: slot,
		Type:        types.ConsultVideo,
	})

	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrorTypeNotFound, appErr.Type)
	repo.AssertNotCalled(t, "GetConflictingConsultations", mock.Anything, mock.Anything, mock.Anything)
}

func TestBook_OutsideAvailability(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	doctor.Availability = []types.AvailabilityWindow{
		{Day: time.Monday, StartTime: "09:00", EndTime: "10:00"},
	}

	// Next Monday at noon, outside the 09:00-10:00 window.
	slot := time.Now().Add(24 * time.Hour)
	for slot.Weekday() != time.Monday {
		slot = slot.Add(24 * time.Hour)
	}
	slot = time.Date(slot.Year(), slot.Month(), slot.Day(), 12, 0, 0, 0, slot.Location())

	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)

	_, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: slot,
		Type:        types.ConsultVideo,
	})

	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrCodeSlotUnavailable, appErr.Code)
	repo.AssertNotCalled(t, "GetConflictingConsultations", mock.Anything, mock.Anything, mock.Anything)
}

func TestBook_InThePast(t *testing.T) {
	svc, _ := setupTestService()

	_, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: time.Now().Add(-time.Hour),
	})

	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrorTypeValidation, appErr.Type)
}

func TestBook_CounterFailureDoesNotFailBooking(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)
	repo.On("GetConflictingConsultations", "doc-1", slot, conflictWindow).Return([]*types.Consultation{}, nil)
	repo.On("CreateConsultation", mock.AnythingOfType("*types.Consultation")).Return(nil)
	repo.On("IncrementDoctorConsultations", "doc-1").Return(assert.AnError)

	c, err := svc.Book(context.Background(), "user-1", &BookingRequest{
		DoctorID:    "doc-1",
		ScheduledAt: slot,
		Type:        types.ConsultVideo,
	})

	assert.NoError(t, err)
	assert.NotNil(t, c)
}

func TestBook_ConcurrentSameSlotOnlyOneWins(t *testing.T) {
	svc, repo := setupTestService()
	doctor := testDoctor()
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	// With the per-doctor lock the two bookings are serialized: the first
	// conflict check sees an empty schedule, the second sees the insert.
	var storeMu sync.Mutex
	var stored []*types.Consultation

	repo.On("GetDoctorByID", "doc-1").Return(doctor, nil)
	repo.On("GetConflictingConsultations", "doc-1", slot, conflictWindow).
		Return([]*types.Consultation{}, nil).Once()
	repo.On("GetConflictingConsultations", "doc-1", slot, conflictWindow).
		Return([]*types.Consultation{{ID: "first", Status: types.ConsultationScheduled}}, nil).Once()
	repo.On("CreateConsultation", mock.AnythingOfType("*types.Consultation")).
		Return(nil).
		Run(func(args mock.Arguments) {
			storeMu.Lock()
			defer storeMu.Unlock()
			stored = append(stored, args.Get(0).(*types.Consultation))
		})
	repo.On("IncrementDoctorConsultations", "doc-1").Return(nil)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Book(context.Background(), "user-a", &BookingRequest{
				DoctorID:    "doc-1",
				ScheduledAt: slot,
				Type:        types.ConsultVideo,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, stored, 1)
}

func TestCancel_Success(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("TransitionConsultation", "cons-1", "user-1",
		[]types.ConsultationStatus{types.ConsultationScheduled, types.ConsultationOngoing}, types.ConsultationCancelled).
		Return(true, nil)

	err := svc.Cancel(context.Background(), "cons-1", "user-1")
	assert.NoError(t, err)
}

func TestCancel_OngoingSucceeds(t *testing.T) {
	svc, repo := setupTestService()

	// An in-progress consultation can still be called off by its owner.
	repo.On("TransitionConsultation", "cons-1", "user-1",
		[]types.ConsultationStatus{types.ConsultationScheduled, types.ConsultationOngoing}, types.ConsultationCancelled).
		Return(true, nil)

	err := svc.Cancel(context.Background(), "cons-1", "user-1")
	assert.NoError(t, err)
}

func TestCancel_AlreadyCancelledConflicts(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("TransitionConsultation", "cons-1", "user-1",
		[]types.ConsultationStatus{types.ConsultationScheduled, types.ConsultationOngoing}, types.ConsultationCancelled).
		Return(false, nil)
	repo.On("GetConsultationByID", "cons-1").Return(&types.Consultation{
		ID: "cons-1", UserID: "user-1", Status: types.ConsultationCancelled,
	}, nil)

	err := svc.Cancel(context.Background(), "cons-1", "user-1")
	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrCodeInvalidState, appErr.Code)
}

func TestCancel_CompletedRefused(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("TransitionConsultation", "cons-1", "user-1",
		[]types.ConsultationStatus{types.ConsultationScheduled, types.ConsultationOngoing}, types.ConsultationCancelled).
		Return(false, nil)
	repo.On("GetConsultationByID", "cons-1").Return(&types.Consultation{
		ID: "cons-1", UserID: "user-1", Status: types.ConsultationCompleted,
	}, nil)

	err := svc.Cancel(context.Background(), "cons-1", "user-1")
	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrCodeInvalidState, appErr.Code)
}

func TestCancel_NotOwned(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("TransitionConsultation", "cons-1", "intruder",
		[]types.ConsultationStatus{types.ConsultationScheduled, types.ConsultationOngoing}, types.ConsultationCancelled).
		Return(false, nil)
	repo.On("GetConsultationByID", "cons-1").Return(&types.Consultation{
		ID: "cons-1", UserID: "user-1", Status: types.ConsultationScheduled,
	}, nil)

	err := svc.Cancel(context.Background(), "cons-1", "intruder")
	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrorTypeNotFound, appErr.Type)
}

func TestAcceptRequest_AllocatesMeeting(t *testing.T) {
	svc, repo := setupTestService()

	pending := &types.ConsultationRequest{
		ID:        "row-1",
		RequestID: "REQ-1756350000000-0042",
		PatientID: "user-1",
		Status:    types.RequestPending,
	}

	repo.On("GetRequestByRequestID", pending.RequestID).Return(pending, nil)
	repo.On("UpdateRequest", mock.AnythingOfType("*types.ConsultationRequest")).Return(nil)

	req, err := svc.AcceptRequest(context.Background(), pending.RequestID)

	assert.NoError(t, err)
	assert.Equal(t, types.RequestAccepted, req.Status)
	assert.Equal(t, "maruthuvan-"+pending.RequestID, req.MeetingID)
	assert.Equal(t, "https://meet.jit.si/maruthuvan-"+pending.RequestID, req.MeetingLink)
}

func TestAcceptRequest_NotPending(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("GetRequestByRequestID", "REQ-x").Return(&types.ConsultationRequest{
		RequestID: "REQ-x", Status: types.RequestRejected,
	}, nil)

	_, err := svc.AcceptRequest(context.Background(), "REQ-x")
	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrCodeInvalidState, appErr.Code)
}

func TestRejectRequest_RequiresReason(t *testing.T) {
	svc, _ := setupTestService()

	_, err := svc.RejectRequest(context.Background(), "REQ-x", "")
	assert.Error(t, err)
	appErr := err.(*types.AppError)
	assert.Equal(t, types.ErrorTypeValidation, appErr.Type)
}

func TestRejectRequest_Success(t *testing.T) {
	svc, repo := setupTestService()

	pending := &types.ConsultationRequest{
		RequestID: "REQ-y", PatientID: "user-1", Status: types.RequestPending,
	}
	repo.On("GetRequestByRequestID", "REQ-y").Return(pending, nil)
	repo.On("UpdateRequest", mock.AnythingOfType("*types.ConsultationRequest")).Return(nil)

	req, err := svc.RejectRequest(context.Background(), "REQ-y", "doctor unavailable that day")

	assert.NoError(t, err)
	assert.Equal(t, types.RequestRejected, req.Status)
	assert.NotNil(t, req.RejectionReason)
	assert.Equal(t, "doctor unavailable that day", *req.RejectionReason)
	assert.Empty(t, req.MeetingLink)
}

func TestSweepNoShows(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("MarkNoShows", mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	svc.SweepNoShows(time.Hour)

	repo.AssertCalled(t, "MarkNoShows", mock.MatchedBy(func(cutoff time.Time) bool {
		expected := time.Now().Add(-time.Hour)
		return cutoff.Sub(expected) < time.Minute && expected.Sub(cutoff) < time.Minute
	}))
}
