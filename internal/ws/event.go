// Package ws implements the realtime notification hub. Post mutations are
// fanned out to every connected subscriber of the "posts" channel; delivery
// is fire-and-forget with no backlog or replay.
package ws

// ChannelPosts is the broadcast channel carrying post change events.
const ChannelPosts = "posts"

// Event is the wire envelope for a broadcast. Data must be JSON-serializable.
type Event struct {
	Channel string `json:"channel"`
	Seq     int64  `json:"seq"`
	Data    any    `json:"data"`
}

// EventPublisher is the interface services depend on instead of the concrete
// Hub, so tests can observe broadcasts with a fake.
type EventPublisher interface {
	BroadcastToAll(event Event)
}
