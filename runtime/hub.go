// Package runtime connects live sessions to each other: it owns the
// session registry and routes realtime events between connections. It
// contains no business logic and no persistence.
package runtime

import (
	"io"
	"log/slog"
	"sync"

	"github.com/GregoryFarmer/orthant/contract"
	"github.com/GregoryFarmer/orthant/domain"
	"github.com/GregoryFarmer/orthant/domain/event"
	"github.com/samber/lo"
)

type liveSession struct {
	session domain.Session
	sink    contract.EventSink
}

// Hub owns the set of connected sessions and fans events out to them
// according to its policy. The registry map is guarded by the mutex; only
// the hub mutates it. Events from one session keep their order because
// each connection dispatches from a single goroutine and fan-out runs
// synchronously in the caller.
type Hub struct {
	mu       sync.RWMutex
	log      *slog.Logger
	policy   Policy
	sessions map[string]*liveSession
}

func NewHub(log *slog.Logger, policy Policy) *Hub {
	return &Hub{
		log:      log,
		policy:   policy,
		sessions: make(map[string]*liveSession),
	}
}

// Connect registers a new session and then broadcasts its connect notice.
// Registration happens first, so the new session receives its own notice.
func (h *Hub) Connect(username string, sink contract.EventSink) domain.Session {
	session := domain.NewSession(username)
	h.mu.Lock()
	h.sessions[session.ConnectionID] = &liveSession{session: session, sink: sink}
	total := len(h.sessions)
	h.mu.Unlock()

	h.log.Info("Session connected", "id", session.ConnectionID, "username", session.Username, "total", total)
	h.emit(session, event.Outbound{
		Event:    event.Connect,
		UserID:   session.ConnectionID,
		Username: session.Username,
	}, h.policy.Presence)
	return session
}

// Disconnect removes the session and broadcasts its disconnect notice to
// the sessions that remain. Disconnecting an unknown id is a no-op.
func (h *Hub) Disconnect(connectionID, reason string) {
	h.mu.Lock()
	live, ok := h.sessions[connectionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, connectionID)
	total := len(h.sessions)
	h.mu.Unlock()

	h.log.Info("Session disconnected", "id", connectionID, "reason", reason, "total", total)
	h.emit(live.session, event.Outbound{
		Event:    event.Disconnect,
		UserID:   connectionID,
		Username: live.session.Username,
		Reason:   reason,
	}, h.policy.Presence)
}

// Dispatch routes one inbound content event. Events referencing a session
// that is no longer registered are dropped silently.
func (h *Hub) Dispatch(e event.Inbound) {
	h.mu.RLock()
	live, ok := h.sessions[e.SessionID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug("Dropping event for unregistered session", "id", e.SessionID, "kind", e.Kind)
		return
	}

	switch e.Kind {
	case event.Message:
		h.emit(live.session, event.Outbound{
			Event:    event.Message,
			Username: live.session.Username,
			Text:     e.Text,
		}, h.policy.Message)
	case event.Typing:
		typing := e.Typing
		h.emit(live.session, event.Outbound{
			Event:    event.Typing,
			UserID:   live.session.ConnectionID,
			Username: live.session.Username,
			Typing:   &typing,
		}, h.policy.Typing)
	default:
		h.log.Debug("Ignoring inbound event kind", "kind", e.Kind)
	}
}

// Shutdown takes every registered session through the disconnect
// transition: each is deregistered with the given reason, its notice goes
// to the sessions still remaining, and sinks that support closing are
// closed so their connection pumps unwind. Hijacked websocket connections
// are invisible to http.Server.Shutdown, so the hub has to do this itself.
func (h *Hub) Shutdown(reason string) {
	for _, s := range h.Sessions() {
		h.mu.RLock()
		live, ok := h.sessions[s.ConnectionID]
		h.mu.RUnlock()
		if !ok {
			continue
		}
		h.Disconnect(s.ConnectionID, reason)
		if closer, ok := live.sink.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}

// Sessions returns a snapshot of the currently registered sessions.
func (h *Hub) Sessions() []domain.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Map(lo.Values(h.sessions), func(l *liveSession, _ int) domain.Session {
		return l.session
	})
}

func (h *Hub) emit(sender domain.Session, out event.Outbound, fanout Fanout) {
	recipients := h.recipients(sender.ConnectionID, fanout)
	var failed []string
	for _, r := range recipients {
		if err := r.sink.Consume(out); err != nil {
			h.log.Warn("Removing session after failed delivery",
				"id", r.session.ConnectionID, "error", err)
			failed = append(failed, r.session.ConnectionID)
		}
	}
	for _, id := range failed {
		h.Disconnect(id, "delivery failure")
	}
}

// recipients snapshots the registry under the read lock so delivery can
// happen without holding it.
func (h *Hub) recipients(senderID string, fanout Fanout) []*liveSession {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch fanout {
	case FanoutEcho:
		if live, ok := h.sessions[senderID]; ok {
			return []*liveSession{live}
		}
		return nil
	case FanoutOthers:
		recipients := make([]*liveSession, 0, len(h.sessions))
		for id, live := range h.sessions {
			if id == senderID {
				continue
			}
			recipients = append(recipients, live)
		}
		return recipients
	default:
		return lo.Values(h.sessions)
	}
}
