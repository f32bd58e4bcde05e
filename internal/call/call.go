// Package call implements the tagged call state machine: Outgoing,
// Incoming (WaitingForAction, AwaitingResponse), and Established. It
// replaces the teacher's trait-object Leg hierarchy with a closed interface
// plus one concrete type per state, and replaces enum_dispatch with an
// explicit Run step method: each call to Run either returns the same state
// (no event yet) or the next state plus the event that fired the
// transition.
package call

import "context"

// EventKind is an event a state transition can emit, consumed by the
// coordinator's ordered event queue.
type EventKind int

const (
	// EventEstablished fires when a call reaches confirmed media.
	EventEstablished EventKind = iota
	// EventTerminated fires when a call ends, for any reason.
	EventTerminated
)

func (k EventKind) String() string {
	switch k {
	case EventEstablished:
		return "CallEstablished"
	case EventTerminated:
		return "CallTerminated"
	default:
		return "Unknown"
	}
}

// Call is the sum type: Outgoing | WaitingForAction | AwaitingResponse |
// Established. Run steps the machine once; Terminate unconditionally tears
// it down regardless of which state it is in.
type Call interface {
	// Run advances the state machine one step. It returns the (possibly new)
	// state and, if a transition fired, the event describing it. A nil
	// returned Call means the call has ended.
	Run(ctx context.Context) (Call, *EventKind, error)

	// Terminate unwinds whatever background work this state owns.
	Terminate(ctx context.Context) error
}

// MediaSession is what an Established call reads from and writes to. The
// concrete implementation (internal/rtpsession) is a connected UDP socket
// plus an RTP packetizer; Call only needs the three methods below.
type MediaSession interface {
	Send(payload []byte) error
	Recv() ([]byte, error)
	Close() error
}
