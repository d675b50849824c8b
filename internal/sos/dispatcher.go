package sos

import (
	"context"
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/monitoring"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// Dispatcher runs the emergency notification cascade for a triggered SOS.
// Medical services are always called first; type-specific services follow;
// nearby hospitals are notified last. A failed step never stops the ones
// after it.
type Dispatcher struct {
	repository interfaces.SOSRepository
	dialer     interfaces.EmergencyDialer
	events     interfaces.EventPublisher
	logger     *logger.Logger

	medical     types.EmergencyService
	police      types.EmergencyService
	fire        types.EmergencyService
	callTimeout time.Duration
}

// NewDispatcher creates an SOS dispatcher from emergency configuration.
func NewDispatcher(
	repo interfaces.SOSRepository,
	dialer interfaces.EmergencyDialer,
	events interfaces.EventPublisher,
	cfg *config.EmergencyConfig,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		repository:  repo,
		dialer:      dialer,
		events:      events,
		logger:      log,
		medical:     types.EmergencyService{Name: "ambulance", NameTa: "ஆம்புலன்ஸ்", Number: cfg.MedicalNumber},
		police:      types.EmergencyService{Name: "police", NameTa: "காவல்துறை", Number: cfg.PoliceNumber},
		fire:        types.EmergencyService{Name: "fire", NameTa: "தீயணைப்பு", Number: cfg.FireNumber},
		callTimeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second,
	}
}

// servicesFor returns the cascade for an emergency type. The ambulance is
// always first.
func (d *Dispatcher) servicesFor(emergencyType types.EmergencyType) []types.EmergencyService {
	services := []types.EmergencyService{d.medical}
	switch emergencyType {
	case types.EmergencyAccident, types.EmergencyPolice:
		services = append(services, d.police)
	case types.EmergencyFire:
		services = append(services, d.fire)
	}
	return services
}

// Dispatch runs the cascade for a triggered SOS, appending each attempt to
// the record's call log and streaming progress to the user. Runs in its own
// goroutine; the trigger response does not wait for it.
func (d *Dispatcher) Dispatch(ctx context.Context, sos *types.SOS) {
	logs := make([]types.CallLog, 0, 4)

	for _, service := range d.servicesFor(sos.EmergencyType) {
		entry := d.callWithTimeout(ctx, service, sos)
		logs = append(logs, entry)
		monitoring.RecordEmergencyCall(entry.Service, string(entry.Status))

		d.events.PublishToUser(sos.UserID, "sos_call_progress", map[string]interface{}{
			"sos_id":  sos.ID,
			"service": entry.Service,
			"status":  entry.Status,
		})
	}

	hospitalEntry := d.notifyHospitalsWithTimeout(ctx, sos)
	logs = append(logs, hospitalEntry)
	monitoring.RecordEmergencyCall(hospitalEntry.Service, string(hospitalEntry.Status))

	d.events.PublishToUser(sos.UserID, "sos_call_progress", map[string]interface{}{
		"sos_id":  sos.ID,
		"service": hospitalEntry.Service,
		"status":  hospitalEntry.Status,
	})

	if err := d.repository.AppendCallLogs(sos.ID, logs); err != nil {
		d.logger.WithError(err).WithField("sos_id", sos.ID).Error("Failed to persist SOS call logs")
	}

	d.logger.Emergency(sos.ID, "cascade_complete", map[string]interface{}{
		"emergency_type": sos.EmergencyType,
		"attempts":       len(logs),
	})
}

// callWithTimeout places one call under its own deadline so a hung attempt
// cannot stall the rest of the cascade.
func (d *Dispatcher) callWithTimeout(ctx context.Context, service types.EmergencyService, sos *types.SOS) types.CallLog {
	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	done := make(chan types.CallLog, 1)
	go func() {
		done <- d.dialer.Call(callCtx, service, sos.Location, sos.Language)
	}()

	select {
	case entry := <-done:
		return entry
	case <-callCtx.Done():
		d.logger.Emergency(sos.ID, "call_timeout", map[string]interface{}{
			"service": service.Name,
		})
		return types.CallLog{
			Service:  service.Name,
			Number:   service.Number,
			CalledAt: time.Now(),
			Status:   types.CallFailed,
			Notes:    "call attempt timed out",
		}
	}
}

func (d *Dispatcher) notifyHospitalsWithTimeout(ctx context.Context, sos *types.SOS) types.CallLog {
	notifyCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	done := make(chan types.CallLog, 1)
	go func() {
		done <- d.dialer.NotifyNearbyHospitals(notifyCtx, sos, sos.Language)
	}()

	select {
	case entry := <-done:
		return entry
	case <-notifyCtx.Done():
		return types.CallLog{
			Service:  "nearby_hospitals",
			CalledAt: time.Now(),
			Status:   types.CallFailed,
			Notes:    "hospital notification timed out",
		}
	}
}
