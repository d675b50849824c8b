package sos

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// HospitalFinder is the slice of the directory the dialer needs to locate
// hospitals near an emergency.
type HospitalFinder interface {
	GetHospitals(filters *types.HospitalFilters) ([]*types.Hospital, error)
}

// hospitalSearchRadiusKm bounds the nearby-hospital notification search.
const hospitalSearchRadiusKm = 15.0

// TwilioDialer places real outbound calls and SMS notifications through
// Twilio.
type TwilioDialer struct {
	client    *twilio.RestClient
	from      string
	hospitals HospitalFinder
	logger    *logger.Logger
}

// NewTwilioDialer creates a Twilio-backed emergency dialer.
func NewTwilioDialer(accountSID, authToken, from string, hospitals HospitalFinder, log *logger.Logger) *TwilioDialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioDialer{client: client, from: from, hospitals: hospitals, logger: log}
}

// Call places an outbound voice call to an emergency service with a spoken
// location announcement.
func (d *TwilioDialer) Call(ctx context.Context, service types.EmergencyService, loc types.GeoPoint, lang types.Language) types.CallLog {
	entry := types.CallLog{
		Service:  service.Name,
		Number:   service.Number,
		CalledAt: time.Now(),
		Status:   types.CallInitiated,
	}

	announcement := fmt.Sprintf(
		"Emergency reported via Maruthuvan at latitude %.5f, longitude %.5f.",
		loc.Latitude, loc.Longitude)

	params := &twilioapi.CreateCallParams{}
	params.SetTo(service.Number)
	params.SetFrom(d.from)
	params.SetTwiml(fmt.Sprintf("<Response><Say>%s</Say></Response>", announcement))
	params.SetTimeout(int(deadlineSeconds(ctx)))

	if _, err := d.client.Api.CreateCall(params); err != nil {
		entry.Status = types.CallFailed
		entry.Notes = err.Error()
		d.logger.WithError(err).WithField("service", service.Name).Error("Emergency call failed")
		return entry
	}

	entry.Status = types.CallConnected
	return entry
}

// NotifyNearbyHospitals sends an SMS alert to hospitals with emergency
// services near the SOS location.
func (d *TwilioDialer) NotifyNearbyHospitals(ctx context.Context, sos *types.SOS, lang types.Language) types.CallLog {
	entry := types.CallLog{
		Service:  "nearby_hospitals",
		CalledAt: time.Now(),
		Status:   types.CallInitiated,
	}

	hospitals, err := d.hospitals.GetHospitals(&types.HospitalFilters{
		Near:     &sos.Location,
		RadiusKm: hospitalSearchRadiusKm,
	})
	if err != nil {
		entry.Status = types.CallFailed
		entry.Notes = err.Error()
		return entry
	}

	notified := 0
	for _, h := range hospitals {
		if !h.EmergencyServices || h.Contact == "" {
			continue
		}

		body := fmt.Sprintf(
			"Maruthuvan SOS (%s): patient at %.5f,%.5f needs emergency assistance.",
			sos.EmergencyType, sos.Location.Latitude, sos.Location.Longitude)

		params := &twilioapi.CreateMessageParams{}
		params.SetTo(h.Contact)
		params.SetFrom(d.from)
		params.SetBody(body)

		if _, err := d.client.Api.CreateMessage(params); err != nil {
			d.logger.WithError(err).WithField("hospital_id", h.ID).Warn("Hospital SOS notification failed")
			continue
		}
		notified++
	}

	if notified == 0 {
		entry.Status = types.CallFailed
		entry.Notes = "no reachable hospitals with emergency services nearby"
	} else {
		entry.Status = types.CallNotified
		entry.Notes = fmt.Sprintf("%d hospitals notified", notified)
	}
	return entry
}

// deadlineSeconds converts the context deadline into whole seconds for the
// Twilio ring timeout, defaulting to 30.
func deadlineSeconds(ctx context.Context) int64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 30
	}
	secs := int64(time.Until(deadline).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}

// MockDialer simulates the cascade for development and tests: calls always
// connect, hospital lookups run against the real directory.
type MockDialer struct {
	hospitals HospitalFinder
	logger    *logger.Logger
}

// NewMockDialer creates a dialer that logs instead of calling out.
func NewMockDialer(hospitals HospitalFinder, log *logger.Logger) *MockDialer {
	return &MockDialer{hospitals: hospitals, logger: log}
}

// Call simulates an emergency call.
func (d *MockDialer) Call(_ context.Context, service types.EmergencyService, loc types.GeoPoint, _ types.Language) types.CallLog {
	d.logger.WithFields(map[string]interface{}{
		"service":   service.Name,
		"number":    service.Number,
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
	}).Warn("Simulated emergency call")

	return types.CallLog{
		Service:  service.Name,
		Number:   service.Number,
		CalledAt: time.Now(),
		Status:   types.CallConnected,
		Notes:    "simulated call",
	}
}

// NotifyNearbyHospitals simulates hospital notification using the directory.
func (d *MockDialer) NotifyNearbyHospitals(_ context.Context, sos *types.SOS, _ types.Language) types.CallLog {
	entry := types.CallLog{
		Service:  "nearby_hospitals",
		CalledAt: time.Now(),
		Status:   types.CallNotified,
		Notes:    "simulated notification",
	}

	hospitals, err := d.hospitals.GetHospitals(&types.HospitalFilters{
		Near:     &sos.Location,
		RadiusKm: hospitalSearchRadiusKm,
	})
	if err != nil {
		entry.Status = types.CallFailed
		entry.Notes = err.Error()
		return entry
	}

	count := 0
	for _, h := range hospitals {
		if h.EmergencyServices {
			count++
		}
	}
	entry.Notes = fmt.Sprintf("%d hospitals notified (simulated)", count)
	return entry
}

var _ interfaces.EmergencyDialer = (*TwilioDialer)(nil)
var _ interfaces.EmergencyDialer = (*MockDialer)(nil)
