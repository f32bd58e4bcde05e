package call

import (
	"context"
	"fmt"
	"time"
)

// Dialer performs the blocking SIP INVITE exchange for one outbound call.
// Dial blocks until the peer answers, rejects, or ctx is done; Cancel sends
// a CANCEL for an in-flight INVITE.
type Dialer interface {
	Dial(ctx context.Context) (MediaSession, error)
	Cancel(ctx context.Context) error
}

type dialResult struct {
	session MediaSession
	err     error
}

// Outgoing is a call initiated locally, with the INVITE exchange running in
// the background under a per-call waiting timeout.
type Outgoing struct {
	audioIn  <-chan []byte
	audioOut chan<- []byte

	dialer Dialer
	result chan dialResult
	cancel context.CancelFunc
}

// NewOutgoing starts dialing immediately, bounded by timeout. audioIn/audioOut
// are handed to the resulting Established call once the peer answers.
func NewOutgoing(dialer Dialer, audioIn <-chan []byte, audioOut chan<- []byte, timeout time.Duration) *Outgoing {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	result := make(chan dialResult, 1)

	go func() {
		session, err := dialer.Dial(ctx)
		if err != nil && ctx.Err() != nil {
			// The INVITE was still in flight when the timeout or an explicit
			// Terminate fired; a completed rejection needs no CANCEL.
			_ = dialer.Cancel(context.Background())
		}
		result <- dialResult{session: session, err: err}
	}()

	return &Outgoing{
		audioIn:  audioIn,
		audioOut: audioOut,
		dialer:   dialer,
		result:   result,
		cancel:   cancel,
	}
}

// Run checks whether dialing has finished; if not, it returns itself with
// no event, following the teacher's is_finished-poll shape.
func (o *Outgoing) Run(ctx context.Context) (Call, *EventKind, error) {
	select {
	case res := <-o.result:
		if res.err != nil {
			return nil, nil, fmt.Errorf("call: outbound dial failed: %w", res.err)
		}
		established := NewEstablished(res.session, o.audioIn, o.audioOut)
		event := EventEstablished
		return established, &event, nil
	default:
		return o, nil, nil
	}
}

// Terminate cancels the in-flight dial and waits for its goroutine to settle.
func (o *Outgoing) Terminate(ctx context.Context) error {
	o.cancel()
	select {
	case <-o.result:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

var _ Call = (*Outgoing)(nil)
