// Package domain contains core concepts of the chat system.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousUsername is assigned when the client handshake carries no username.
const AnonymousUsername = "Anonymous"

// Session is the server-side identity of one live realtime connection.
// It is created when the transport handshake completes and discarded on
// disconnect; the hub owns the ConnectionID -> Session mapping.
type Session struct {
	ConnectionID string
	Username     string
	ConnectedAt  time.Time
}

// NewSession assigns a fresh connection id and resolves the username
// supplied at handshake, falling back to AnonymousUsername.
func NewSession(username string) Session {
	if username == "" {
		username = AnonymousUsername
	}
	return Session{
		ConnectionID: uuid.New().String(),
		Username:     username,
		ConnectedAt:  time.Now().UTC(),
	}
}
