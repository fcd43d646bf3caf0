// Package session keeps multiple console instances for the same operator in
// agreement about whether the session is still alive. When one instance ends
// the session it broadcasts an invalidation to its peers, waits briefly for
// acknowledgments, then carries on regardless of how many arrived.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legalease/legalease-admin/pkg/broadcast"
)

// DefaultAckWait bounds how long EndSession blocks for peer acknowledgments.
const DefaultAckWait = 500 * time.Millisecond

const (
	messageTypeInvalidated = "session_invalidated"
	messageTypeAck         = "ack"
)

// Info describes the session being synchronized.
type Info struct {
	SessionID string
	UserEmail string
}

type message struct {
	ID        string `json:"id"`
	Origin    string `json:"origin"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	AckFor    string `json:"ack_for,omitempty"`
}

// InvalidatedFunc is called when a peer instance ends the shared session.
type InvalidatedFunc func(sessionID string)

// Synchronizer coordinates session teardown across console instances. All
// methods are safe for concurrent use. A Synchronizer whose Opener is nil,
// or whose channel failed to open, degrades to a local-only mode where every
// operation still succeeds.
type Synchronizer struct {
	opener      broadcast.Opener
	channelName string
	logger      *slog.Logger
	ackWait     time.Duration

	mu            sync.Mutex
	instanceID    string
	channel       broadcast.Channel
	info          *Info
	onInvalidated InvalidatedFunc
	pendingAcks   map[string]chan struct{}
	destroyed     bool
}

// NewSynchronizer builds a synchronizer that opens channels from opener.
// A nil opener is valid and means no cross-instance sync.
func NewSynchronizer(opener broadcast.Opener, channelName string, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		opener:      opener,
		channelName: channelName,
		logger:      logger,
		ackWait:     DefaultAckWait,
		instanceID:  uuid.New().String(),
		pendingAcks: make(map[string]chan struct{}),
	}
}

// SetAckWait overrides the acknowledgment wait. Zero disables waiting.
func (s *Synchronizer) SetAckWait(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackWait = d
}

// OnInvalidated registers the callback fired when a peer ends the session.
func (s *Synchronizer) OnInvalidated(fn InvalidatedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidated = fn
}

// Initialize binds the synchronizer to a session and joins the broadcast
// channel. A missing session id is generated. It is idempotent: once
// initialized, later calls are ignored and the original session info is
// kept. A failed channel open is logged and the synchronizer continues
// without cross-instance sync.
func (s *Synchronizer) Initialize(info Info) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info != nil || s.destroyed {
		return
	}
	bound := info
	if bound.SessionID == "" {
		bound.SessionID = uuid.New().String()
	}
	s.info = &bound

	if s.opener == nil {
		s.logger.Debug("session sync disabled, no broadcast opener configured")
		return
	}

	ch, err := s.opener.Open(s.channelName)
	if err != nil || ch == nil {
		s.logger.Warn("session sync unavailable, continuing without it",
			slog.String("channel", s.channelName),
			slog.Any("error", err))
		return
	}
	ch.Subscribe(s.handleMessage)
	s.channel = ch
}

// Session returns the bound session info, or nil before Initialize.
func (s *Synchronizer) Session() *Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return nil
	}
	copied := *s.info
	return &copied
}

// SessionID returns the bound session id, or "" before Initialize.
func (s *Synchronizer) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return ""
	}
	return s.info.SessionID
}

// EndSession broadcasts a session invalidation to peer instances when notify
// is set, waits up to the ack window for acknowledgments, then closes the
// channel and clears all pending state. It never fails: broadcast errors are
// logged and swallowed so local logout always completes.
func (s *Synchronizer) EndSession(ctx context.Context, notify bool) {
	s.mu.Lock()
	ch := s.channel
	info := s.info
	ackWait := s.ackWait
	destroyed := s.destroyed
	s.mu.Unlock()

	if destroyed || info == nil {
		return
	}

	if notify && ch != nil {
		msg := message{
			ID:        uuid.New().String(),
			Origin:    s.instanceID,
			Type:      messageTypeInvalidated,
			SessionID: info.SessionID,
			UserEmail: info.UserEmail,
		}

		payload, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("failed to encode session invalidation", slog.Any("error", err))
		} else {
			done := make(chan struct{})
			s.mu.Lock()
			s.pendingAcks[msg.ID] = done
			s.mu.Unlock()

			if err := ch.Post(payload); err != nil {
				s.logger.Error("failed to broadcast session invalidation",
					slog.String("session_id", info.SessionID),
					slog.Any("error", err))
				s.mu.Lock()
				delete(s.pendingAcks, msg.ID)
				s.mu.Unlock()
			} else if ackWait > 0 {
				timer := time.NewTimer(ackWait)
				select {
				case <-done:
				case <-timer.C:
				case <-ctx.Done():
				}
				timer.Stop()
			}
		}
	}

	s.mu.Lock()
	s.pendingAcks = make(map[string]chan struct{})
	s.info = nil
	s.channel = nil
	s.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			s.logger.Debug("broadcast channel close failed", slog.Any("error", err))
		}
	}
}

// HandleAcknowledgment resolves the pending wait for the given message id.
// Unknown ids are ignored.
func (s *Synchronizer) HandleAcknowledgment(messageID string) {
	s.mu.Lock()
	done, ok := s.pendingAcks[messageID]
	if ok {
		delete(s.pendingAcks, messageID)
	}
	s.mu.Unlock()

	if ok {
		close(done)
	}
}

// PendingAcknowledgments reports how many broadcasts are still awaiting acks.
func (s *Synchronizer) PendingAcknowledgments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingAcks)
}

// Destroy releases the broadcast channel and all pending state. It is
// idempotent and safe to call without a prior Initialize.
func (s *Synchronizer) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	ch := s.channel
	s.channel = nil
	s.info = nil
	s.pendingAcks = make(map[string]chan struct{})
	s.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			s.logger.Warn("failed to close session sync channel", slog.Any("error", err))
		}
	}
}

// handleMessage runs on the broadcast delivery path. It acks peer
// invalidations and resolves acks addressed to this instance.
func (s *Synchronizer) handleMessage(payload []byte) {
	var msg message
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("discarding malformed session sync message", slog.Any("error", err))
		return
	}
	if msg.Origin == s.instanceID {
		// Broker-backed channels echo our own messages.
		return
	}

	switch msg.Type {
	case messageTypeInvalidated:
		s.mu.Lock()
		ch := s.channel
		fn := s.onInvalidated
		s.info = nil
		s.mu.Unlock()

		if ch != nil {
			ack := message{
				ID:     uuid.New().String(),
				Origin: s.instanceID,
				Type:   messageTypeAck,
				AckFor: msg.ID,
			}
			if ackPayload, err := json.Marshal(ack); err == nil {
				if err := ch.Post(ackPayload); err != nil {
					s.logger.Warn("failed to acknowledge session invalidation", slog.Any("error", err))
				}
			}
		}
		if fn != nil {
			fn(msg.SessionID)
		}
	case messageTypeAck:
		s.HandleAcknowledgment(msg.AckFor)
	default:
		s.logger.Debug("ignoring unknown session sync message type", slog.String("type", msg.Type))
	}
}
