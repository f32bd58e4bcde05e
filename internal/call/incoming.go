package call

import (
	"context"
	"fmt"
)

// DeclineCode is the caller-facing reason an incoming call is rejected.
type DeclineCode int

const (
	DeclineBusy DeclineCode = iota
	DeclineServerInternalError
	DeclineUserDeclined
)

// SIPStatus maps a DeclineCode to its RFC 3261 status code.
func (c DeclineCode) SIPStatus() int {
	switch c {
	case DeclineBusy:
		return 486
	case DeclineServerInternalError:
		return 500
	default:
		return 603
	}
}

// IncomingHandle is the SIP-facing half of an incoming INVITE.
type IncomingHandle interface {
	Accept(ctx context.Context) (MediaSession, error)
	Decline(ctx context.Context, code DeclineCode, reason string) error
}

type incomingAction struct {
	accept   bool
	code     DeclineCode
	reason   string
	audioIn  <-chan []byte
	audioOut chan<- []byte
}

type waitResult struct {
	established *Established
	err         error
}

// WaitingForAction is an incoming call awaiting the operator's accept or
// decline, carrying a background task that holds the SIP handle until one
// arrives.
type WaitingForAction struct {
	handle  IncomingHandle
	actions chan incomingAction
	result  chan waitResult
	cancel  context.CancelFunc
}

// NewWaitingForAction starts the background task awaiting exactly one
// accept/decline action, with capacity 1 so the operator never blocks
// sending it.
func NewWaitingForAction(handle IncomingHandle) *WaitingForAction {
	ctx, cancel := context.WithCancel(context.Background())
	actions := make(chan incomingAction, 1)
	result := make(chan waitResult, 1)

	go func() {
		select {
		case action := <-actions:
			result <- runIncomingAction(ctx, handle, action)
		case <-ctx.Done():
			// Terminate was called before any action arrived.
			_ = handle.Decline(context.Background(), DeclineUserDeclined, "The call cancelled")
			result <- waitResult{err: fmt.Errorf("call: incoming call cancelled")}
		}
	}()

	return &WaitingForAction{handle: handle, actions: actions, result: result, cancel: cancel}
}

func runIncomingAction(ctx context.Context, handle IncomingHandle, action incomingAction) waitResult {
	if action.accept {
		session, err := handle.Accept(ctx)
		if err != nil {
			return waitResult{err: fmt.Errorf("call: accept incoming call: %w", err)}
		}
		return waitResult{established: NewEstablished(session, action.audioIn, action.audioOut)}
	}
	if err := handle.Decline(ctx, action.code, action.reason); err != nil {
		return waitResult{err: fmt.Errorf("call: decline incoming call: %w", err)}
	}
	return waitResult{}
}

// Accept sends the accept action and transitions to AwaitingResponse.
func (w *WaitingForAction) Accept(audioIn <-chan []byte, audioOut chan<- []byte) *AwaitingResponse {
	w.actions <- incomingAction{accept: true, audioIn: audioIn, audioOut: audioOut}
	return &AwaitingResponse{result: w.result}
}

// Decline sends the decline action and transitions to AwaitingResponse.
func (w *WaitingForAction) Decline(code DeclineCode, reason string) *AwaitingResponse {
	w.actions <- incomingAction{accept: false, code: code, reason: reason}
	return &AwaitingResponse{result: w.result}
}

// Run reports whether the background task has finished.
func (w *WaitingForAction) Run(ctx context.Context) (Call, *EventKind, error) {
	select {
	case res := <-w.result:
		return finishIncoming(res)
	default:
		return w, nil, nil
	}
}

// Terminate cancels the waiting task, which declines with 603 "The call
// cancelled".
func (w *WaitingForAction) Terminate(ctx context.Context) error {
	w.cancel()
	select {
	case <-w.result:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

var _ Call = (*WaitingForAction)(nil)

// AwaitingResponse is an incoming call whose accept/decline action has
// already been sent; it waits for the background task to settle.
type AwaitingResponse struct {
	result chan waitResult
}

// Run reports whether the action has settled, transitioning to Established
// on accept or to nil (terminated) on decline/error.
func (a *AwaitingResponse) Run(ctx context.Context) (Call, *EventKind, error) {
	select {
	case res := <-a.result:
		return finishIncoming(res)
	default:
		return a, nil, nil
	}
}

// Terminate is a no-op here: the action has already been sent and cannot be
// recalled, matching the teacher's WaitingForActionResponse::terminate.
func (a *AwaitingResponse) Terminate(ctx context.Context) error {
	return nil
}

var _ Call = (*AwaitingResponse)(nil)

func finishIncoming(res waitResult) (Call, *EventKind, error) {
	if res.err != nil {
		event := EventTerminated
		return nil, &event, res.err
	}
	if res.established != nil {
		event := EventEstablished
		return res.established, &event, nil
	}
	event := EventTerminated
	return nil, &event, nil
}
