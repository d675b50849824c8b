package sos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/monitoring"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Service handles SOS triggering and the record lifecycle.
type Service struct {
	repository interfaces.SOSRepository
	dispatcher *Dispatcher
	events     interfaces.EventPublisher
	logger     *logger.Logger
}

// NewService creates a new SOS service.
func NewService(repo interfaces.SOSRepository, dispatcher *Dispatcher, events interfaces.EventPublisher, log *logger.Logger) *Service {
	return &Service{
		repository: repo,
		dispatcher: dispatcher,
		events:     events,
		logger:     log,
	}
}

// TriggerRequest is the request to raise an SOS.
type TriggerRequest struct {
	Location      types.GeoPoint      `json:"location"`
	Address       string              `json:"address,omitempty"`
	EmergencyType types.EmergencyType `json:"emergency_type"`
	Description   string              `json:"description,omitempty"`
}

// TriggerResult is returned immediately on trigger; the notification cascade
// continues in the background.
type TriggerResult struct {
	SOS     *types.SOS `json:"sos"`
	Message string     `json:"message"`
	// Warning is set when the user already had an active SOS. The new one
	// is still created; an emergency re-trigger must never be refused.
	Warning string `json:"warning,omitempty"`
}

// Trigger raises an SOS and starts the emergency cascade. The record is
// persisted and returned before any call is placed.
func (s *Service) Trigger(ctx context.Context, userID string, lang types.Language, req *TriggerRequest) (*TriggerResult, error) {
	if !req.Location.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid location coordinates", map[string]interface{}{
			"latitude":  req.Location.Latitude,
			"longitude": req.Location.Longitude,
		})
	}
	if req.EmergencyType == "" {
		req.EmergencyType = types.EmergencyMedical
	}
	if !req.EmergencyType.IsValid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid emergency type", nil)
	}

	warning := ""
	if existing, err := s.repository.GetActiveSOS(userID); err != nil {
		s.logger.WithError(err).Warn("Failed to check for existing active SOS")
	} else if existing != nil {
		warning = fmt.Sprintf("an SOS raised at %s is still active", existing.CreatedAt.Format(time.RFC3339))
	}

	now := time.Now()
	record := &types.SOS{
		ID:            uuid.New().String(),
		UserID:        userID,
		Location:      req.Location,
		Address:       req.Address,
		EmergencyType: req.EmergencyType,
		Description:   req.Description,
		Language:      lang,
		Status:        types.SOSActive,
		Priority:      types.PriorityCritical,
		CallLogs:      []types.CallLog{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repository.CreateSOS(record); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to create SOS record", err)
	}

	monitoring.RecordSOSTrigger(string(record.EmergencyType))
	s.logger.Emergency(record.ID, "triggered", map[string]interface{}{
		"user_id":        userID,
		"emergency_type": record.EmergencyType,
		"latitude":       record.Location.Latitude,
		"longitude":      record.Location.Longitude,
	})

	s.events.PublishToUser(userID, "sos_triggered", map[string]interface{}{
		"sos_id":  record.ID,
		"status":  record.Status,
		"message": types.MsgSOSTriggered.Get(lang),
	})
	s.events.Broadcast("sos_alerts", "emergency_alert", map[string]interface{}{
		"sos_id":         record.ID,
		"location":       record.Location,
		"emergency_type": record.EmergencyType,
		"priority":       record.Priority,
	})

	// The cascade runs detached from the request: a slow emergency line
	// must not delay the acknowledgment to the user.
	go s.dispatcher.Dispatch(context.WithoutCancel(ctx), record)

	return &TriggerResult{
		SOS:     record,
		Message: types.MsgSOSTriggered.Get(lang),
		Warning: warning,
	}, nil
}

// Active returns the user's currently active SOS, or nil.
func (s *Service) Active(ctx context.Context, userID string) (*types.SOS, error) {
	record, err := s.repository.GetActiveSOS(userID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get active SOS", err)
	}
	return record, nil
}

// Get retrieves one of the user's SOS records.
func (s *Service) Get(ctx context.Context, id, userID string) (*types.SOS, error) {
	record, err := s.repository.GetSOSByID(id, userID)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get SOS record", err)
	}
	if record == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "SOS record not found")
	}
	return record, nil
}

// HistoryPage is a page of the user's SOS history.
type HistoryPage struct {
	Records []*types.SOS `json:"records"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// History returns a page of the user's SOS records, newest first.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) (*HistoryPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := s.repository.GetSOSHistory(userID, limit, offset)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get SOS history", err)
	}

	return &HistoryPage{Records: records, Total: total, Limit: limit, Offset: offset}, nil
}

// statusTransitions maps each target status to the statuses it may be
// reached from. Cancellation is only open while the record is still active;
// once responders are engaged the record can only be resolved.
var statusTransitions = map[types.SOSStatus][]types.SOSStatus{
	types.SOSResponded: {types.SOSActive},
	types.SOSResolved:  {types.SOSActive, types.SOSResponded},
	types.SOSCancelled: {types.SOSActive},
}

// UpdateStatus moves an SOS record along active -> responded -> resolved, or
// cancels it.
func (s *Service) UpdateStatus(ctx context.Context, id, userID string, to types.SOSStatus) (*types.SOS, error) {
	allowed, ok := statusTransitions[to]
	if !ok {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "invalid target status", nil)
	}

	record, err := s.repository.TransitionStatus(id, userID, allowed, to, time.Now())
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to update SOS status", err)
	}
	if record == nil {
		existing, err := s.repository.GetSOSByID(id, userID)
		if err != nil {
			return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to get SOS record", err)
		}
		if existing == nil {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, "SOS record not found")
		}
		return nil, types.NewConflictError(types.ErrCodeInvalidState,
			fmt.Sprintf("cannot move an SOS from %s to %s", existing.Status, to))
	}

	directed, broadcast := "sos_updated", "sos_status_changed"
	if to == types.SOSCancelled {
		directed, broadcast = "sos_cancelled", "emergency_cancelled"
	}
	s.events.PublishToUser(userID, directed, record)
	s.events.Broadcast("sos_alerts", broadcast, map[string]string{
		"sos_id": id,
		"status": string(to),
	})
	s.logger.Emergency(id, "status_change", map[string]interface{}{"status": to})
	return record, nil
}

// Cancel cancels an SOS raised by the user.
func (s *Service) Cancel(ctx context.Context, id, userID string) (*types.SOS, error) {
	return s.UpdateStatus(ctx, id, userID, types.SOSCancelled)
}

// SweepStale force-resolves SOS records active longer than the given age.
// Run on a schedule.
func (s *Service) SweepStale(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	n, err := s.repository.ResolveStale(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Stale SOS sweep failed")
		return
	}
	if n > 0 {
		s.logger.WithField("count", n).Warn("Force-resolved stale SOS records")
	}
}
