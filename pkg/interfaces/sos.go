package interfaces

import (
	"context"
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// SOSRepository defines the interface for SOS record persistence. Records are
// append-mostly: status transitions and call-log appends only, no deletes.
type SOSRepository interface {
	CreateSOS(s *types.SOS) error
	GetSOSByID(id, userID string) (*types.SOS, error)
	GetActiveSOS(userID string) (*types.SOS, error)
	GetSOSHistory(userID string, limit, offset int) ([]*types.SOS, int, error)
	// AppendCallLogs appends entries to the record's call log without
	// replacing existing ones.
	AppendCallLogs(id string, logs []types.CallLog) error
	// TransitionStatus atomically moves a record owned by userID from one of
	// the allowed statuses to the target status, stamping the given
	// resolution/response time. Returns the updated record, or nil when no
	// row matched.
	TransitionStatus(id, userID string, allowed []types.SOSStatus, to types.SOSStatus, at time.Time) (*types.SOS, error)
	// ResolveStale force-resolves active records created before the cutoff,
	// returning the number affected.
	ResolveStale(cutoff time.Time) (int64, error)
}

// EmergencyDialer places emergency service calls and hospital notifications.
// Each attempt returns a call log entry regardless of outcome; failures are
// reported through the entry's status, never through a panic or a hang.
type EmergencyDialer interface {
	Call(ctx context.Context, service types.EmergencyService, loc types.GeoPoint, lang types.Language) types.CallLog
	NotifyNearbyHospitals(ctx context.Context, sos *types.SOS, lang types.Language) types.CallLog
}
