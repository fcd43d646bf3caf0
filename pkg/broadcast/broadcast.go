// Package broadcast provides a named fanout channel shared by console
// instances, the moral equivalent of a browser BroadcastChannel. Messages
// posted by one participant are delivered to every other participant on the
// same channel name. The in-process implementation never echoes a message
// back to its sender; broker-backed implementations may, so consumers that
// care must tag messages with an origin id and skip their own.
package broadcast

// Handler receives the raw JSON payload of a message posted by a peer.
type Handler func(payload []byte)

// Channel is one participant's handle on a named fanout topic.
type Channel interface {
	// Post delivers payload to every other participant on the channel.
	Post(payload []byte) error
	// Subscribe registers the handler for incoming messages. At most one
	// handler per channel; later calls replace the earlier handler.
	Subscribe(h Handler)
	// Close detaches from the channel. Further Posts fail.
	Close() error
}

// Opener opens named channels. Implementations may be unavailable at runtime
// (no broker configured); callers treat a nil Opener or an Open error as
// "no cross-instance sync" and carry on.
type Opener interface {
	Open(name string) (Channel, error)
}
