package contract

import (
	"github.com/GregoryFarmer/orthant/domain"
	"github.com/GregoryFarmer/orthant/domain/event"
)

// EventSink is the delivery side of one session. Consume must not block
// indefinitely: a sink that cannot accept the event returns an error and
// the hub disconnects the session.
type EventSink interface {
	Consume(e event.Outbound) error
}

// IHub is the surface the transport layer needs from the broadcast hub.
type IHub interface {
	Connect(username string, sink EventSink) domain.Session
	Disconnect(connectionID, reason string)
	Dispatch(e event.Inbound)
	Shutdown(reason string)
}
