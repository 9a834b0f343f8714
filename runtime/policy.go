package runtime

// Mode names one of the supported hub configurations. The echo variant
// returns content to its sender only (single-client debugging); the
// broadcast variant relays content to everyone else.
type Mode string

const (
	ModeEcho      Mode = "echo"
	ModeBroadcast Mode = "broadcast"
)

// Fanout selects which sessions receive an outbound event.
type Fanout int

const (
	// FanoutEcho delivers to the originating session only.
	FanoutEcho Fanout = iota
	// FanoutAll delivers to every registered session, sender included.
	FanoutAll
	// FanoutOthers delivers to every registered session except the sender.
	FanoutOthers
)

// Policy fixes the fan-out per event kind. Presence notices (connect and
// disconnect) go to everyone in both modes; only content fan-out differs.
type Policy struct {
	Message  Fanout
	Typing   Fanout
	Presence Fanout
}

func PolicyFor(mode Mode) Policy {
	if mode == ModeEcho {
		return Policy{Message: FanoutEcho, Typing: FanoutEcho, Presence: FanoutAll}
	}
	return Policy{Message: FanoutOthers, Typing: FanoutOthers, Presence: FanoutAll}
}
