// Package labs implements the diagnostic lab directory and lab test
// bookings. Bookings move through a forward-only pipeline from BOOKED to
// COMPLETED; a report URL becomes available once processing finishes.
package labs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// bookingPipeline is the forward-only status order.
var bookingPipeline = []types.BookingStatus{
	types.BookingBooked,
	types.BookingSampleCollected,
	types.BookingProcessing,
	types.BookingReportReady,
	types.BookingCompleted,
}

// Service implements lab directory browsing and test booking.
type Service struct {
	repo   interfaces.LabsRepository
	logger *logger.Logger
}

// NewService creates the labs service.
func NewService(repo interfaces.LabsRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// GetTests lists orderable tests, optionally filtered by category.
func (s *Service) GetTests(ctx context.Context, category string) ([]*types.LabTest, error) {
	tests, err := s.repo.GetLabTests(category)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get lab tests", err)
	}
	return tests, nil
}

// GetLabs lists diagnostic labs, optionally filtered by proximity.
func (s *Service) GetLabs(ctx context.Context, filters *types.HospitalFilters) ([]*types.DiagnosticLab, error) {
	labs, err := s.repo.GetLabs(filters)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get labs", err)
	}
	return labs, nil
}

// BookTestInput carries the booking parameters.
type BookTestInput struct {
	TestID         string               `json:"test_id"`
	LabID          string               `json:"lab_id"`
	BookingDate    time.Time            `json:"booking_date"`
	TimeSlot       string               `json:"time_slot"`
	SampleType     types.SampleType     `json:"sample_type"`
	PatientDetails types.PatientDetails `json:"patient_details"`
}

// BookTest books a lab test for the user. Home collection is only offered
// for tests that support it.
func (s *Service) BookTest(ctx context.Context, userID string, in *BookTestInput) (*types.LabBooking, error) {
	if err := validateBooking(in); err != nil {
		return nil, err
	}

	test, err := s.repo.GetLabTestByID(in.TestID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get lab test", err)
	}
	if test == nil || !test.IsActive {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "lab test not found")
	}
	if in.SampleType == types.SampleHome && !test.HomeCollection {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"home collection is not available for this test", nil)
	}

	lab, err := s.repo.GetLabByID(in.LabID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get lab", err)
	}
	if lab == nil || !lab.IsActive {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "lab not found")
	}

	now := time.Now().UTC()
	booking := &types.LabBooking{
		ID:             uuid.New().String(),
		BookingID:      fmt.Sprintf("LAB-%d", now.UnixMilli()),
		UserID:         userID,
		TestID:         test.ID,
		LabID:          lab.ID,
		BookingDate:    in.BookingDate,
		TimeSlot:       in.TimeSlot,
		SampleType:     in.SampleType,
		PatientDetails: in.PatientDetails,
		PaymentStatus:  types.PaymentPending,
		BookingStatus:  types.BookingBooked,
		Amount:         test.Price,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateBooking(booking); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to create lab booking", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"booking_id": booking.BookingID,
		"user_id":    userID,
		"test_id":    test.ID,
		"lab_id":     lab.ID,
	}).Info("Lab test booked")

	return booking, nil
}

// GetBooking returns a booking scoped to its owner.
func (s *Service) GetBooking(ctx context.Context, id, userID string) (*types.LabBooking, error) {
	booking, err := s.repo.GetBookingByID(id, userID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get lab booking", err)
	}
	if booking == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "lab booking not found")
	}
	return booking, nil
}

// GetBookings returns a page of the user's bookings, newest first.
func (s *Service) GetBookings(ctx context.Context, userID string, limit, offset int) ([]*types.LabBooking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	bookings, err := s.repo.GetBookings(userID, limit, offset)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get lab bookings", err)
	}
	return bookings, nil
}

// UpdateStatus advances a booking along the pipeline. Backward moves are
// rejected; REPORT_READY requires the report URL that becomes visible to the
// patient.
func (s *Service) UpdateStatus(ctx context.Context, id, userID string, to types.BookingStatus, reportURL string) (*types.LabBooking, error) {
	toIdx := pipelineIndex(to)
	if toIdx < 0 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unknown booking status", nil)
	}
	if to == types.BookingReportReady && strings.TrimSpace(reportURL) == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"report URL is required when the report is ready", nil)
	}

	booking, err := s.GetBooking(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	fromIdx := pipelineIndex(booking.BookingStatus)
	if toIdx <= fromIdx {
		return nil, types.NewConflictError(types.ErrCodeInvalidState,
			fmt.Sprintf("cannot move booking from %s to %s", booking.BookingStatus, to))
	}

	if err := s.repo.UpdateBookingStatus(booking.ID, to, reportURL); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to update lab booking", err)
	}

	booking.BookingStatus = to
	if reportURL != "" {
		booking.ReportURL = reportURL
	}
	booking.UpdatedAt = time.Now().UTC()

	s.logger.WithFields(map[string]interface{}{
		"booking_id": booking.BookingID,
		"status":     to,
	}).Info("Lab booking status updated")

	return booking, nil
}

func validateBooking(in *BookTestInput) error {
	details := map[string]interface{}{}
	if in.TestID == "" {
		details["test_id"] = "required"
	}
	if in.LabID == "" {
		details["lab_id"] = "required"
	}
	if in.BookingDate.IsZero() {
		details["booking_date"] = "required"
	} else if in.BookingDate.Before(time.Now().Add(-24 * time.Hour)) {
		details["booking_date"] = "must not be in the past"
	}
	if strings.TrimSpace(in.TimeSlot) == "" {
		details["time_slot"] = "required"
	}
	if in.SampleType != types.SampleHome && in.SampleType != types.SampleLab {
		details["sample_type"] = "must be home or lab"
	}
	if strings.TrimSpace(in.PatientDetails.PatientName) == "" {
		details["patient_details.patient_name"] = "required"
	}
	if in.SampleType == types.SampleHome && strings.TrimSpace(in.PatientDetails.Address) == "" {
		details["patient_details.address"] = "required for home collection"
	}
	if len(details) > 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "invalid booking request", details)
	}
	return nil
}

func pipelineIndex(status types.BookingStatus) int {
	for i, s := range bookingPipeline {
		if s == status {
			return i
		}
	}
	return -1
}
