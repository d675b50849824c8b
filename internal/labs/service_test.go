package labs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// MockLabsRepository is a mock implementation of LabsRepository
type MockLabsRepository struct {
	mock.Mock
}

func (m *MockLabsRepository) GetLabTests(category string) ([]*types.LabTest, error) {
	args := m.Called(category)
	return args.Get(0).([]*types.LabTest), args.Error(1)
}

func (m *MockLabsRepository) GetLabTestByID(id string) (*types.LabTest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LabTest), args.Error(1)
}

func (m *MockLabsRepository) GetLabs(filters *types.HospitalFilters) ([]*types.DiagnosticLab, error) {
	args := m.Called(filters)
	return args.Get(0).([]*types.DiagnosticLab), args.Error(1)
}

func (m *MockLabsRepository) GetLabByID(id string) (*types.DiagnosticLab, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DiagnosticLab), args.Error(1)
}

func (m *MockLabsRepository) CreateBooking(b *types.LabBooking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockLabsRepository) GetBookingByID(id, userID string) (*types.LabBooking, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LabBooking), args.Error(1)
}

func (m *MockLabsRepository) GetBookings(userID string, limit, offset int) ([]*types.LabBooking, error) {
	args := m.Called(userID, limit, offset)
	return args.Get(0).([]*types.LabBooking), args.Error(1)
}

func (m *MockLabsRepository) UpdateBookingStatus(id string, status types.BookingStatus, reportURL string) error {
	args := m.Called(id, status, reportURL)
	return args.Error(0)
}

func setupTestService() (*Service, *MockLabsRepository) {
	repo := new(MockLabsRepository)
	return NewService(repo, logger.New("error")), repo
}

func validInput() *BookTestInput {
	return &BookTestInput{
		TestID:      "test-1",
		LabID:       "lab-1",
		BookingDate: time.Now().Add(24 * time.Hour),
		TimeSlot:    "09:00-10:00",
		SampleType:  types.SampleLab,
		PatientDetails: types.PatientDetails{
			PatientName: "Kumar",
			Age:         42,
			Gender:      "male",
			PhoneNumber: "9876543210",
		},
	}
}

func TestBookTest_Success(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("GetLabTestByID", "test-1").Return(&types.LabTest{
		ID: "test-1", Name: "CBC", Price: 350, IsActive: true,
	}, nil)
	repo.On("GetLabByID", "lab-1").Return(&types.DiagnosticLab{
		ID: "lab-1", Name: "Chennai Diagnostics", IsActive: true,
	}, nil)
	repo.On("CreateBooking", mock.AnythingOfType("*types.LabBooking")).Return(nil)

	booking, err := svc.BookTest(context.Background(), "user-1", validInput())

	assert.NoError(t, err)
	assert.Equal(t, types.BookingBooked, booking.BookingStatus)
	assert.Equal(t, types.PaymentPending, booking.PaymentStatus)
	assert.Equal(t, 350.0, booking.Amount)
	assert.Regexp(t, `^LAB-\d+$`, booking.BookingID)
	repo.AssertExpectations(t)
}

func TestBookTest_HomeCollectionUnavailable(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("GetLabTestByID", "test-1").Return(&types.LabTest{
		ID: "test-1", Name: "MRI", Price: 4500, IsActive: true, HomeCollection: false,
	}, nil)

	in := validInput()
	in.SampleType = types.SampleHome
	in.PatientDetails.Address = "12 Anna Salai, Chennai"

	_, err := svc.BookTest(context.Background(), "user-1", in)

	var appErr *types.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrorTypeValidation, appErr.Type)
	repo.AssertNotCalled(t, "CreateBooking", mock.Anything)
}

func TestBookTest_HomeCollectionNeedsAddress(t *testing.T) {
	svc, _ := setupTestService()

	in := validInput()
	in.SampleType = types.SampleHome
	in.PatientDetails.Address = ""

	_, err := svc.BookTest(context.Background(), "user-1", in)

	var appErr *types.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "patient_details.address")
}

func TestBookTest_InactiveTestRejected(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("GetLabTestByID", "test-1").Return(&types.LabTest{
		ID: "test-1", IsActive: false,
	}, nil)

	_, err := svc.BookTest(context.Background(), "user-1", validInput())

	var appErr *types.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrorTypeNotFound, appErr.Type)
}

func TestUpdateStatus_ForwardTransition(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("GetBookingByID", "b-1", "user-1").Return(&types.LabBooking{
		ID: "b-1", BookingID: "LAB-1", UserID: "user-1",
		BookingStatus: types.BookingSampleCollected,
	}, nil)
	repo.On("UpdateBookingStatus", "b-1", types.BookingProcessing, "").Return(nil)

	booking, err := svc.UpdateStatus(context.Background(), "b-1", "user-1", types.BookingProcessing, "")

	assert.NoError(t, err)
	assert.Equal(t, types.BookingProcessing, booking.BookingStatus)
}

func TestUpdateStatus_BackwardTransitionRejected(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("GetBookingByID", "b-1", "user-1").Return(&types.LabBooking{
		ID: "b-1", UserID: "user-1",
		BookingStatus: types.BookingReportReady,
	}, nil)

	_, err := svc.UpdateStatus(context.Background(), "b-1", "user-1", types.BookingSampleCollected, "")

	var appErr *types.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrorTypeConflict, appErr.Type)
	repo.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_ReportReadyRequiresURL(t *testing.T) {
	svc, _ := setupTestService()

	_, err := svc.UpdateStatus(context.Background(), "b-1", "user-1", types.BookingReportReady, "")

	var appErr *types.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrorTypeValidation, appErr.Type)
}

func TestUpdateStatus_SkippingStagesAllowed(t *testing.T) {
	svc, repo := setupTestService()

	repo.On("GetBookingByID", "b-1", "user-1").Return(&types.LabBooking{
		ID: "b-1", UserID: "user-1",
		BookingStatus: types.BookingBooked,
	}, nil)
	repo.On("UpdateBookingStatus", "b-1", types.BookingReportReady, "https://reports.example/r1.pdf").Return(nil)

	booking, err := svc.UpdateStatus(context.Background(), "b-1", "user-1",
		types.BookingReportReady, "https://reports.example/r1.pdf")

	assert.NoError(t, err)
	assert.Equal(t, "https://reports.example/r1.pdf", booking.ReportURL)
}
