package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/sos"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{
		ID:     "client-" + userID,
		UserID: userID,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]struct{}),
		hub:    hub,
	}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload := <-c.Send:
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("malformed event: %v", err)
		}
		return event
	default:
		t.Fatal("expected an event, channel empty")
		return Event{}
	}
}

func TestHub_RegisterJoinsPersonalRoom(t *testing.T) {
	hub := NewHub(logger.New("error"))
	client := newTestClient(hub, "user-1")

	hub.Register(client)

	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, 1, hub.RoomCount(UserRoom("user-1")))
}

func TestHub_PublishToUserReachesAllConnections(t *testing.T) {
	hub := NewHub(logger.New("error"))
	phone := newTestClient(hub, "user-1")
	tablet := newTestClient(hub, "user-1")
	other := newTestClient(hub, "user-2")

	hub.Register(phone)
	hub.Register(tablet)
	hub.Register(other)

	hub.PublishToUser("user-1", "consultation_booked", map[string]string{"id": "c-1"})

	assert.Equal(t, "consultation_booked", receive(t, phone).Event)
	assert.Equal(t, "consultation_booked", receive(t, tablet).Event)
	assert.Empty(t, other.Send)
}

func TestHub_UnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub(logger.New("error"))
	client := newTestClient(hub, "user-1")

	hub.Register(client)
	hub.Join(client, SOSAlertsRoom)
	hub.Join(client, MeetingRoom("m-1"))

	hub.Unregister(client)

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.RoomCount(SOSAlertsRoom))
	assert.Equal(t, 0, hub.RoomCount(MeetingRoom("m-1")))

	// Unregistering twice is harmless.
	hub.Unregister(client)
}

func TestHub_BroadcastExceptSkipsSender(t *testing.T) {
	hub := NewHub(logger.New("error"))
	caller := newTestClient(hub, "patient-1")
	callee := newTestClient(hub, "doctor-1")

	hub.Register(caller)
	hub.Register(callee)
	room := MeetingRoom("m-1")
	hub.Join(caller, room)
	hub.Join(callee, room)

	hub.BroadcastExcept(room, "webrtc_offer", map[string]string{"from": "patient-1"}, caller)

	assert.Empty(t, caller.Send)
	event := receive(t, callee)
	assert.Equal(t, "webrtc_offer", event.Event)
	assert.Equal(t, room, event.Room)
}

func TestHub_TwoJoinersSeeEachOther(t *testing.T) {
	hub := NewHub(logger.New("error"))
	first := newTestClient(hub, "patient-1")
	second := newTestClient(hub, "doctor-1")

	hub.Register(first)
	hub.Register(second)

	room := MeetingRoom("m-1")
	hub.Join(first, room)

	// Second joiner is announced to the first; the roster lists both.
	hub.Join(second, room)
	hub.BroadcastExcept(room, "participant_joined", map[string]string{"user_id": "doctor-1"}, second)

	event := receive(t, first)
	assert.Equal(t, "participant_joined", event.Event)

	members := hub.RoomMembers(room)
	assert.ElementsMatch(t, []string{"patient-1", "doctor-1"}, members)
}

func TestHub_SlowConsumerDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.New("error"))
	slow := newTestClient(hub, "user-1")
	slow.Send = make(chan []byte) // unbuffered, nobody reading

	hub.Register(slow)

	// The event is dropped rather than blocking the hub.
	hub.PublishToUser("user-1", "ping", nil)
	assert.Equal(t, 1, hub.ClientCount())
}

// stubAuthorizer authorizes a fixed participant set per meeting.
type stubAuthorizer struct {
	participants map[string][]string
}

func (s *stubAuthorizer) AuthorizeMeeting(_ context.Context, meetingID, userID string) error {
	users, ok := s.participants[meetingID]
	if !ok {
		return types.NewNotFoundError(types.ErrCodeNotFound, "consultation not found")
	}
	for _, u := range users {
		if u == userID {
			return nil
		}
	}
	return &types.AppError{Type: types.ErrorTypeAuthorization, Code: types.ErrCodeUnauthorized, Message: "not a participant"}
}

func setupHandler(participants map[string][]string) (*Handler, *Hub) {
	hub := NewHub(logger.New("error"))
	h := NewHandler(hub, nil, nil, &stubAuthorizer{participants: participants}, nil, logger.New("error"))
	return h, hub
}

// stubSOSGateway acknowledges every trigger, or fails when err is set.
type stubSOSGateway struct {
	err       error
	triggered int
}

func (s *stubSOSGateway) Trigger(_ context.Context, userID string, lang types.Language, req *sos.TriggerRequest) (*sos.TriggerResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.triggered++
	return &sos.TriggerResult{
		SOS:     &types.SOS{ID: "sos-1", UserID: userID, Status: types.SOSActive},
		Message: types.MsgSOSTriggered.Get(lang),
	}, nil
}

func (s *stubSOSGateway) UpdateStatus(_ context.Context, id, userID string, to types.SOSStatus) (*types.SOS, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.SOS{ID: id, UserID: userID, Status: to}, nil
}

func TestTriggerSOS_AcknowledgedOverSocket(t *testing.T) {
	hub := NewHub(logger.New("error"))
	gateway := &stubSOSGateway{}
	h := NewHandler(hub, nil, nil, &stubAuthorizer{}, gateway, logger.New("error"))

	client := newTestClient(hub, "patient-1")
	hub.Register(client)

	h.dispatch(client, &inboundMessage{
		Event:   "trigger_sos",
		Payload: json.RawMessage(`{"location":{"latitude":13.08,"longitude":80.27},"emergency_type":"fire","language":"en"}`),
	})

	event := receive(t, client)
	assert.Equal(t, "sos_acknowledged", event.Event)
	data := event.Data.(map[string]interface{})
	assert.Equal(t, "sos-1", data["sos_id"])
	assert.Equal(t, 1, gateway.triggered)
}

func TestTriggerSOS_FailureEmitsSOSError(t *testing.T) {
	hub := NewHub(logger.New("error"))
	gateway := &stubSOSGateway{err: types.NewValidationError(types.ErrCodeInvalidInput, "invalid location coordinates", nil)}
	h := NewHandler(hub, nil, nil, &stubAuthorizer{}, gateway, logger.New("error"))

	client := newTestClient(hub, "patient-1")
	hub.Register(client)

	h.dispatch(client, &inboundMessage{
		Event:   "trigger_sos",
		Payload: json.RawMessage(`{"location":{"latitude":99,"longitude":200}}`),
	})

	event := receive(t, client)
	assert.Equal(t, "sos_error", event.Event)
	data := event.Data.(map[string]interface{})
	assert.Equal(t, "invalid location coordinates", data["message"])
}

func TestJoinVideoCall_AuthorizedParticipant(t *testing.T) {
	h, hub := setupHandler(map[string][]string{"m-1": {"patient-1", "doctor-1"}})
	client := newTestClient(hub, "patient-1")
	hub.Register(client)

	h.dispatch(client, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})

	assert.Equal(t, 1, hub.RoomCount(MeetingRoom("m-1")))
	event := receive(t, client)
	assert.Equal(t, "video_call_joined", event.Event)
}

func TestJoinVideoCall_StrangerRefused(t *testing.T) {
	h, hub := setupHandler(map[string][]string{"m-1": {"patient-1", "doctor-1"}})
	intruder := newTestClient(hub, "stranger")
	hub.Register(intruder)

	h.dispatch(intruder, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})

	assert.Equal(t, 0, hub.RoomCount(MeetingRoom("m-1")))
	event := receive(t, intruder)
	assert.Equal(t, "video_call_error", event.Event)
}

func TestJoinVideoCall_UnknownMeeting(t *testing.T) {
	h, hub := setupHandler(map[string][]string{})
	client := newTestClient(hub, "patient-1")
	hub.Register(client)

	h.dispatch(client, &inboundMessage{Event: "join_video_call", MeetingID: "nope"})

	event := receive(t, client)
	assert.Equal(t, "video_call_error", event.Event)
	data := event.Data.(map[string]interface{})
	assert.Equal(t, "session not found", data["message"])
}

func TestRelaySignal_RequiresJoin(t *testing.T) {
	h, hub := setupHandler(map[string][]string{"m-1": {"patient-1", "doctor-1"}})
	client := newTestClient(hub, "patient-1")
	hub.Register(client)

	// Signaling before joining the room is refused.
	h.dispatch(client, &inboundMessage{Event: "webrtc_offer", MeetingID: "m-1"})
	assert.Equal(t, "video_call_error", receive(t, client).Event)
}

func TestRelaySignal_ForwardedToPeer(t *testing.T) {
	h, hub := setupHandler(map[string][]string{"m-1": {"patient-1", "doctor-1"}})
	caller := newTestClient(hub, "patient-1")
	callee := newTestClient(hub, "doctor-1")
	hub.Register(caller)
	hub.Register(callee)

	h.dispatch(caller, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})
	receive(t, caller) // video_call_joined
	h.dispatch(callee, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})
	receive(t, caller) // participant_joined announcement
	receive(t, callee) // video_call_joined

	h.dispatch(caller, &inboundMessage{
		Event:     "webrtc_offer",
		MeetingID: "m-1",
		Payload:   json.RawMessage(`{"sdp":"offer"}`),
	})

	event := receive(t, callee)
	assert.Equal(t, "webrtc_offer", event.Event)
	assert.Empty(t, caller.Send)
}

func TestRelaySignal_TargetedToOnePeer(t *testing.T) {
	h, hub := setupHandler(map[string][]string{"m-1": {"patient-1", "doctor-1", "doctor-2"}})
	caller := newTestClient(hub, "patient-1")
	first := newTestClient(hub, "doctor-1")
	second := newTestClient(hub, "doctor-2")
	for _, c := range []*Client{caller, first, second} {
		hub.Register(c)
	}

	h.dispatch(caller, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})
	receive(t, caller)
	h.dispatch(first, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})
	receive(t, caller)
	receive(t, first)
	h.dispatch(second, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})
	receive(t, caller)
	receive(t, first)
	receive(t, second)

	h.dispatch(caller, &inboundMessage{
		Event:     "webrtc_ice_candidate",
		MeetingID: "m-1",
		TargetID:  "doctor-2",
		Payload:   json.RawMessage(`{"candidate":"c"}`),
	})

	event := receive(t, second)
	assert.Equal(t, "webrtc_ice_candidate", event.Event)
	data := event.Data.(map[string]interface{})
	assert.Equal(t, "patient-1", data["from"])
	assert.Equal(t, "doctor-2", data["target"])
	assert.Empty(t, first.Send)
}

func TestTypingIndicator_RelayedToChatRoom(t *testing.T) {
	h, hub := setupHandler(nil)
	a := newTestClient(hub, "user-a")
	b := newTestClient(hub, "user-b")
	hub.Register(a)
	hub.Register(b)

	h.dispatch(a, &inboundMessage{Event: "join_chat", ChatID: "c-1"})
	h.dispatch(b, &inboundMessage{Event: "join_chat", ChatID: "c-1"})

	h.dispatch(a, &inboundMessage{Event: "typing_start", ChatID: "c-1"})

	event := receive(t, b)
	assert.Equal(t, "user_typing", event.Event)
	assert.Empty(t, a.Send)
}

func TestDisconnectDoesNotAnnounceLeave(t *testing.T) {
	h, hub := setupHandler(map[string][]string{"m-1": {"patient-1", "doctor-1"}})
	caller := newTestClient(hub, "patient-1")
	callee := newTestClient(hub, "doctor-1")
	hub.Register(caller)
	hub.Register(callee)

	h.dispatch(caller, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})
	receive(t, caller)
	h.dispatch(callee, &inboundMessage{Event: "join_video_call", MeetingID: "m-1"})
	receive(t, caller)
	receive(t, callee)

	// A dropped connection unregisters silently; only an explicit leave is
	// announced to the peer.
	hub.Unregister(callee)
	assert.Empty(t, caller.Send)

	h.dispatch(caller, &inboundMessage{Event: "leave_video_call", MeetingID: "m-1"})
	assert.Equal(t, 0, hub.RoomCount(MeetingRoom("m-1")))
}
