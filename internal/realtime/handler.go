package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/auth"
	"github.com/ZERASHAHADIYA/Maruthuvan/internal/sos"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/types"
)

// MeetingAuthorizer decides whether a user may enter a video session room.
type MeetingAuthorizer interface {
	AuthorizeMeeting(ctx context.Context, meetingID, userID string) error
}

// SOSGateway lets connected clients raise and update emergencies over the
// socket instead of the HTTP surface.
type SOSGateway interface {
	Trigger(ctx context.Context, userID string, lang types.Language, req *sos.TriggerRequest) (*sos.TriggerResult, error)
	UpdateStatus(ctx context.Context, id, userID string, to types.SOSStatus) (*types.SOS, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten per deployment
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// inboundMessage is the protocol for client-to-server messages.
type inboundMessage struct {
	Event     string          `json:"event"`
	MeetingID string          `json:"meeting_id,omitempty"`
	ChatID    string          `json:"chat_id,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	TargetID  string          `json:"target_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Handler upgrades HTTP connections, authenticates them and routes the
// realtime message protocol.
type Handler struct {
	hub      *Hub
	tokens   *auth.TokenManager
	users    interfaces.UserRepository
	meetings MeetingAuthorizer
	sos      SOSGateway
	logger   *logger.Logger
}

// NewHandler creates the realtime WebSocket handler. The user repository is
// optional and only resolves display names for room rosters; the SOS gateway
// is optional and enables socket-triggered emergencies.
func NewHandler(hub *Hub, tokens *auth.TokenManager, users interfaces.UserRepository, meetings MeetingAuthorizer, sosGateway SOSGateway, log *logger.Logger) *Handler {
	return &Handler{hub: hub, tokens: tokens, users: users, meetings: meetings, sos: sosGateway, logger: log}
}

// RegisterRoutes configures the WebSocket endpoint. Authentication happens
// at the handshake via the token query parameter, since browsers cannot set
// headers on WebSocket upgrades.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.connectHandler).Methods("GET")
}

// connectHandler upgrades the connection and starts the pumps
func (h *Handler) connectHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	var displayName string
	if h.users != nil {
		if user, err := h.users.GetUserByID(claims.UserID); err == nil && user != nil {
			displayName = user.Name
		}
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: claims.UserID,
		Name:   displayName,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]struct{}),
		hub:    h.hub,
		conn:   ws,
	}

	h.hub.Register(client)
	h.logger.WithUserID(client.UserID).WithField("client_id", client.ID).Debug("WebSocket client connected")

	go h.writePump(client, ws)
	go h.readPump(client, ws)
}

// readPump reads and dispatches messages until the connection drops.
func (h *Handler) readPump(client *Client, ws *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.sendError(client, "error", "invalid message format")
			continue
		}

		h.dispatch(client, &msg)
	}
}

// writePump drains the Send channel onto the wire and keeps the connection
// alive with pings.
func (h *Handler) writePump(client *Client, ws *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound message.
func (h *Handler) dispatch(client *Client, msg *inboundMessage) {
	switch msg.Event {
	case "join_sos":
		h.hub.Join(client, SOSAlertsRoom)

	case "trigger_sos":
		h.triggerSOS(client, msg)

	case "sos_status_update":
		h.updateSOSStatus(client, msg)

	case "join_video_call":
		h.joinVideoCall(client, msg.MeetingID)

	case "leave_video_call":
		if msg.MeetingID == "" {
			return
		}
		room := MeetingRoom(msg.MeetingID)
		h.hub.BroadcastExcept(room, "participant_left", map[string]string{"user_id": client.UserID}, client)
		h.hub.Leave(client, room)

	case "webrtc_offer", "webrtc_answer", "webrtc_ice_candidate":
		h.relaySignal(client, msg)

	case "join_chat":
		if msg.ChatID != "" {
			h.hub.Join(client, ChatRoom(msg.ChatID))
		}

	case "typing_start", "typing_stop":
		if msg.ChatID == "" {
			return
		}
		event := "user_typing"
		if msg.Event == "typing_stop" {
			event = "user_stopped_typing"
		}
		h.hub.BroadcastExcept(ChatRoom(msg.ChatID), event, map[string]string{
			"user_id": client.UserID,
			"chat_id": msg.ChatID,
		}, client)

	case "message_delivered":
		if msg.ChatID == "" || msg.MessageID == "" {
			return
		}
		h.hub.BroadcastExcept(ChatRoom(msg.ChatID), "message_status_update", map[string]string{
			"user_id":    client.UserID,
			"chat_id":    msg.ChatID,
			"message_id": msg.MessageID,
			"status":     "delivered",
		}, client)

	default:
		h.sendError(client, "error", "unknown event: "+msg.Event)
	}
}

// triggerSOS raises an emergency from the socket. The acknowledgment goes
// back on this connection; the service broadcasts the alert to sos_alerts.
func (h *Handler) triggerSOS(client *Client, msg *inboundMessage) {
	if h.sos == nil {
		h.sendError(client, "sos_error", "emergency service unavailable")
		return
	}

	var req struct {
		sos.TriggerRequest
		Language types.Language `json:"language,omitempty"`
	}
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(client, "sos_error", "invalid payload")
			return
		}
	}
	lang := req.Language
	if !lang.IsValid() {
		lang = types.LanguageTamil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.sos.Trigger(ctx, client.UserID, lang, &req.TriggerRequest)
	if err != nil {
		h.sendError(client, "sos_error", errorMessage(err))
		return
	}

	h.sendEvent(client, Event{
		Event:     "sos_acknowledged",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"sos_id":  result.SOS.ID,
			"status":  result.SOS.Status,
			"message": result.Message,
		},
	})
}

// updateSOSStatus moves an SOS record over the socket. The service publishes
// sos_updated to the owner and sos_status_changed to the alert room.
func (h *Handler) updateSOSStatus(client *Client, msg *inboundMessage) {
	if h.sos == nil {
		h.sendError(client, "sos_error", "emergency service unavailable")
		return
	}

	var req struct {
		SOSID  string          `json:"sos_id"`
		Status types.SOSStatus `json:"status"`
	}
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.SOSID == "" {
		h.sendError(client, "sos_error", "sos_id and status are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := h.sos.UpdateStatus(ctx, req.SOSID, client.UserID, req.Status); err != nil {
		h.sendError(client, "sos_error", errorMessage(err))
	}
}

// joinVideoCall authorizes against the booking before admitting the client
// to the session room.
func (h *Handler) joinVideoCall(client *Client, meetingID string) {
	if meetingID == "" {
		h.sendError(client, "video_call_error", "meeting_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.meetings.AuthorizeMeeting(ctx, meetingID, client.UserID); err != nil {
		var appErr *types.AppError
		message := "not authorized for this session"
		if errors.As(err, &appErr) && appErr.Type == types.ErrorTypeNotFound {
			message = "session not found"
		}
		h.sendError(client, "video_call_error", message)
		return
	}

	room := MeetingRoom(meetingID)
	h.hub.Join(client, room)
	h.hub.BroadcastExcept(room, "participant_joined", map[string]string{
		"user_id":   client.UserID,
		"name":      client.Name,
		"client_id": client.ID,
	}, client)

	// Tell the joiner who is already here.
	h.sendEvent(client, Event{
		Event:     "video_call_joined",
		Room:      room,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"participants": h.hub.RoomRoster(room)},
	})
}

// relaySignal forwards WebRTC signaling payloads to the other participants
// of a session the client has actually joined.
func (h *Handler) relaySignal(client *Client, msg *inboundMessage) {
	if msg.MeetingID == "" {
		h.sendError(client, "video_call_error", "meeting_id is required")
		return
	}

	room := MeetingRoom(msg.MeetingID)
	if !client.inRoom(room) {
		h.sendError(client, "video_call_error", "join the session before signaling")
		return
	}

	data := map[string]interface{}{
		"from":    client.UserID,
		"payload": msg.Payload,
	}
	if msg.TargetID != "" {
		// Point-to-point relay within the mesh.
		data["target"] = msg.TargetID
		h.hub.RelayToUser(room, msg.TargetID, msg.Event, data, client)
		return
	}
	h.hub.BroadcastExcept(room, msg.Event, data, client)
}

func (h *Handler) sendEvent(client *Client, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case client.Send <- payload:
	default:
	}
}

func (h *Handler) sendError(client *Client, event, message string) {
	h.sendEvent(client, Event{
		Event:     event,
		Timestamp: time.Now(),
		Data:      map[string]string{"message": message},
	})
}

// errorMessage extracts a client-safe message from a service error.
func errorMessage(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "request failed"
}

func (c *Client) inRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}
