package broadcast

import (
	"errors"
	"sync"
)

// ErrChannelClosed is returned by Post after Close.
var ErrChannelClosed = errors.New("broadcast: channel closed")

// MemoryGroup is an in-process Opener. Every Open with the same name joins
// the same topic. Delivery is synchronous: Post invokes each peer's handler
// on the caller's goroutine before returning, which keeps tests deterministic.
type MemoryGroup struct {
	mu     sync.Mutex
	topics map[string][]*memoryChannel
}

// NewMemoryGroup creates an empty in-process channel group.
func NewMemoryGroup() *MemoryGroup {
	return &MemoryGroup{topics: make(map[string][]*memoryChannel)}
}

// Open joins the named topic.
func (g *MemoryGroup) Open(name string) (Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := &memoryChannel{group: g, name: name}
	g.topics[name] = append(g.topics[name], ch)
	return ch, nil
}

func (g *MemoryGroup) post(from *memoryChannel, payload []byte) {
	g.mu.Lock()
	peers := make([]*memoryChannel, 0)
	for _, ch := range g.topics[from.name] {
		if ch != from {
			peers = append(peers, ch)
		}
	}
	g.mu.Unlock()

	// Handlers run outside the group lock so they may post replies.
	for _, peer := range peers {
		peer.deliver(payload)
	}
}

func (g *MemoryGroup) remove(target *memoryChannel) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members := g.topics[target.name]
	for i, ch := range members {
		if ch == target {
			g.topics[target.name] = append(members[:i], members[i+1:]...)
			break
		}
	}
}

type memoryChannel struct {
	group *MemoryGroup
	name  string

	mu      sync.Mutex
	handler Handler
	closed  bool
}

func (c *memoryChannel) Post(payload []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}

	c.group.post(c, payload)
	return nil
}

func (c *memoryChannel) Subscribe(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *memoryChannel) deliver(payload []byte) {
	c.mu.Lock()
	handler := c.handler
	closed := c.closed
	c.mu.Unlock()

	if closed || handler == nil {
		return
	}
	handler(payload)
}

func (c *memoryChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.group.remove(c)
	return nil
}
