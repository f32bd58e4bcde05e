package call

import (
	"context"
	"time"
)

// tickInterval bounds one Run step so the coordinator's loop never blocks
// indefinitely inside an Established call, following the teacher's 50ms
// race against the SIP library's internal call runner.
const tickInterval = 50 * time.Millisecond

// Established is a call with a confirmed dialog and a wired media session.
// Each direction starts exactly once: a second attempt to start an already-
// started direction is an invariant violation and panics, mirroring the
// teacher's fatal reaction to a duplicate SenderAdded/ReceiverAdded event.
type Established struct {
	session MediaSession

	audioIn  <-chan []byte
	audioOut chan<- []byte

	sendStarted bool
	recvStarted bool
	sendDone    chan struct{}
	recvDone    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEstablished wires a confirmed media session to the audio bridge
// channels. Unlike the teacher, where each direction arrives as a separate
// asynchronous Media event from the SIP library's call runner, a real SIP
// answer negotiates both directions at once, so both tasks start on the
// first Run call rather than waiting for distinct events.
func NewEstablished(session MediaSession, audioIn <-chan []byte, audioOut chan<- []byte) *Established {
	ctx, cancel := context.WithCancel(context.Background())
	return &Established{
		session:  session,
		audioIn:  audioIn,
		audioOut: audioOut,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// startSending wires the audio-in channel to the media session. Calling it
// twice is a protocol violation.
func (e *Established) startSending() {
	if e.sendStarted {
		panic("call: sender already established")
	}
	e.sendStarted = true
	e.sendDone = make(chan struct{})

	go func() {
		defer close(e.sendDone)
		for {
			select {
			case payload, ok := <-e.audioIn:
				if !ok {
					return
				}
				if err := e.session.Send(payload); err != nil {
					return
				}
			case <-e.ctx.Done():
				return
			}
		}
	}()
}

// startReceiving wires the media session to the audio-out channel. Calling
// it twice is a protocol violation.
func (e *Established) startReceiving() {
	if e.recvStarted {
		panic("call: receiver already established")
	}
	e.recvStarted = true
	e.recvDone = make(chan struct{})

	go func() {
		defer close(e.recvDone)
		for {
			payload, err := e.session.Recv()
			if err != nil {
				return
			}
			select {
			case e.audioOut <- payload:
			default:
				// Overflow: drop rather than block the real-time receive path.
			}
		}
	}()
}

// Run starts both media directions on first entry, then ticks at
// tickInterval, returning itself with no event until the call ends.
func (e *Established) Run(ctx context.Context) (Call, *EventKind, error) {
	if !e.sendStarted {
		e.startSending()
	}
	if !e.recvStarted {
		e.startReceiving()
	}

	select {
	case <-e.ctx.Done():
		event := EventTerminated
		return nil, &event, nil
	case <-time.After(tickInterval):
		return e, nil, nil
	}
}

// Terminate closes the media session, which unblocks the receive task, and
// waits for both pump tasks to exit before returning.
func (e *Established) Terminate(ctx context.Context) error {
	e.cancel()
	err := e.session.Close()

	if e.sendDone != nil {
		<-e.sendDone
	}
	if e.recvDone != nil {
		<-e.recvDone
	}
	return err
}

var _ Call = (*Established)(nil)
