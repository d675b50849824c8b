// Package realtime provides the WebSocket room coordinator: personal event
// delivery, SOS alert fan-out, video session rooms with WebRTC signaling
// relay, and chat presence indicators.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/monitoring"
)

// Event is the envelope for every message pushed to a client.
type Event struct {
	Event     string      `json:"event"`
	Room      string      `json:"room,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection. One user may hold several
// connections at once.
type Client struct {
	ID     string
	UserID string
	Name   string
	Send   chan []byte

	mu    sync.Mutex
	rooms map[string]struct{}

	hub  *Hub
	conn Conn
}

func (c *Client) trackRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = struct{}{}
}

func (c *Client) untrackRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

func (c *Client) trackedRooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Hub is the central connection manager tracking clients and their room
// memberships. All operations are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	all    map[*Client]struct{}
	logger *logger.Logger
}

// NewHub creates a hub ready to manage clients.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		all:    make(map[*Client]struct{}),
		logger: log,
	}
}

// UserRoom names a user's personal room. Targeted server pushes land here.
func UserRoom(userID string) string { return "user_" + userID }

// MeetingRoom names the room for a video session.
func MeetingRoom(meetingID string) string { return "meeting_" + meetingID }

// ChatRoom names the room for a chat thread.
func ChatRoom(chatID string) string { return "chat_" + chatID }

// SOSAlertsRoom receives a copy of every SOS trigger.
const SOSAlertsRoom = "sos_alerts"

// Register adds a client to the hub and its personal room.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.all[client] = struct{}{}
	h.joinLocked(client, UserRoom(client.UserID))
	count := len(h.all)
	h.mu.Unlock()

	client.trackRoom(UserRoom(client.UserID))
	monitoring.SetWebsocketConnections(count)
}

// Unregister removes a client from every room and closes its Send channel.
// Peers are not told about the disconnect; leave announcements only happen
// on an explicit leave.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.all[client]; !ok {
		h.mu.Unlock()
		return
	}

	for _, room := range client.trackedRooms() {
		h.leaveLocked(client, room)
	}
	delete(h.all, client)
	count := len(h.all)
	h.mu.Unlock()

	close(client.Send)
	monitoring.SetWebsocketConnections(count)
}

// Join adds a client to a room.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	h.joinLocked(client, room)
	h.mu.Unlock()
	client.trackRoom(room)
}

// Leave removes a client from a room.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	h.leaveLocked(client, room)
	h.mu.Unlock()
	client.untrackRoom(room)
}

func (h *Hub) joinLocked(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
}

func (h *Hub) leaveLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends an event to every client in a room.
func (h *Hub) Broadcast(room, event string, data interface{}) {
	h.send(room, event, data, nil)
}

// BroadcastExcept sends an event to every client in a room except the sender.
// Used for signaling relay, where echoing an offer back to its author would
// confuse the peer connection.
func (h *Hub) BroadcastExcept(room, event string, data interface{}, except *Client) {
	h.send(room, event, data, except)
}

// PublishToUser sends an event to all of a user's connections.
func (h *Hub) PublishToUser(userID, event string, data interface{}) {
	h.send(UserRoom(userID), event, data, nil)
}

func (h *Hub) send(room, event string, data interface{}, except *Client) {
	payload, err := json.Marshal(Event{
		Event:     event,
		Room:      room,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		h.logger.WithError(err).WithField("event", event).Error("Failed to marshal realtime event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		if client == except {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			// Slow consumer; drop rather than block the hub.
		}
	}
}

// RelayToUser sends an event to one user's connections within a room,
// skipping the sender. Used for targeted signaling relay in mesh calls.
func (h *Hub) RelayToUser(room, targetUserID, event string, data interface{}, except *Client) {
	payload, err := json.Marshal(Event{
		Event:     event,
		Room:      room,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		h.logger.WithError(err).WithField("event", event).Error("Failed to marshal realtime event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		if client == except || client.UserID != targetUserID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// RoomMember describes one connection in a room roster.
type RoomMember struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	ClientID string `json:"client_id"`
}

// RoomRoster returns who is in a room, one entry per connection.
func (h *Hub) RoomRoster(room string) []RoomMember {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roster := make([]RoomMember, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		roster = append(roster, RoomMember{UserID: client.UserID, Name: client.Name, ClientID: client.ID})
	}
	return roster
}

// RoomMembers returns the user ids currently in a room, one entry per
// connection.
func (h *Hub) RoomMembers(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]string, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		members = append(members, client.UserID)
	}
	return members
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// RoomCount returns the number of clients in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
