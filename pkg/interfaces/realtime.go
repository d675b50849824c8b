package interfaces

// EventPublisher fans out realtime events to connected clients. Services
// publish through this interface so they never depend on the hub concretely;
// delivery is fire-and-forget, at-most-once.
type EventPublisher interface {
	// PublishToUser sends a directed event to the user's personal channel.
	PublishToUser(userID, event string, data interface{})
	// Broadcast sends an event to every member of a named room.
	Broadcast(room, event string, data interface{})
}

// NopPublisher discards all events. Used where realtime fan-out is optional.
type NopPublisher struct{}

// PublishToUser implements EventPublisher.
func (NopPublisher) PublishToUser(string, string, interface{}) {}

// Broadcast implements EventPublisher.
func (NopPublisher) Broadcast(string, string, interface{}) {}
