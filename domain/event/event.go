// Package event defines the closed set of realtime events exchanged
// between sessions and the hub. Inbound events come from a client
// connection; outbound events are what the hub fans out to sinks.
package event

// Kind enumerates every event the hub understands. The set is closed:
// frames carrying any other name are rejected at decode time.
type Kind string

const (
	Connect    Kind = "connect"
	Message    Kind = "message"
	Typing     Kind = "typing"
	Disconnect Kind = "disconnect"
)

// Inbound is an event produced by one session's connection. SessionID
// references the emitting session; the hub drops events whose session
// is no longer registered.
type Inbound struct {
	Kind      Kind
	SessionID string
	Text      string // Message
	Typing    bool   // Typing
	Reason    string // Disconnect
}

// Outbound is an event delivered to recipient sessions. The JSON shape
// follows the wire contract: unused fields are omitted per kind.
type Outbound struct {
	Event    Kind   `json:"event"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
	Typing   *bool  `json:"typing,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
