// Package useragent is the single top-level coordinator: it owns the one
// registration slot, the one call slot, the ordered event queue, and the
// incoming-INVITE server handler. It serializes every operation through a
// mutex rather than the teacher's enum_dispatch/async-fn shape, since Go has
// no native coroutine-per-call scheduler to lean on.
package useragent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emiago/sipgo/sip"

	"github.com/sebas/sipphone/internal/call"
	"github.com/sebas/sipphone/internal/registration"
	"github.com/sebas/sipphone/internal/sdpneg"
	internalsip "github.com/sebas/sipphone/internal/sip"
)

// EventKind enumerates the events the coordinator can emit.
type EventKind int

const (
	EventRegistered EventKind = iota
	EventUnregistered
	EventCalling
	EventIncomingCall
	EventCallEstablished
	EventCallTerminated
)

func (k EventKind) String() string {
	switch k {
	case EventRegistered:
		return "Registered"
	case EventUnregistered:
		return "Unregistered"
	case EventCalling:
		return "Calling"
	case EventIncomingCall:
		return "IncomingCall"
	case EventCallEstablished:
		return "CallEstablished"
	case EventCallTerminated:
		return "CallTerminated"
	default:
		return "Unknown"
	}
}

// Event is one item in the coordinator's ordered event queue.
type Event struct {
	Kind EventKind
	From string // populated for IncomingCall
}

// outgoingCallTimeout bounds how long an outbound INVITE may ring before
// the coordinator gives up, matching the teacher's 10s waiting_timeout.
const outgoingCallTimeout = 10 * time.Second

// Coordinator is the UserAgent: one SIP endpoint, at most one registration,
// at most one call.
type Coordinator struct {
	endpoint  *internalsip.Endpoint
	localHost string

	mu         sync.Mutex
	events     []Event
	registrar  *registration.Registrator
	regURI     sip.Uri
	currentAOR sip.Uri

	creds internalsip.Credentials

	activeCall    call.Call
	waitingAction *call.WaitingForAction
}

// New builds a Coordinator bound to an already-listening endpoint.
func New(endpoint *internalsip.Endpoint, localHost string) *Coordinator {
	c := &Coordinator{endpoint: endpoint, localHost: localHost}
	c.endpoint.Server.OnRequest(sip.INVITE, c.handleInvite)
	c.endpoint.Server.OnRequest(sip.BYE, c.handleBye)
	return c
}

func (c *Coordinator) enqueue(ev Event) {
	c.events = append(c.events, ev)
}

// Register builds the AOR URI sip:user@registrar, starts the registration
// loop, and enqueues Registered once it has actually started (the loop's
// own 2xx/failure result surfaces later through Status, not this event,
// mirroring the teacher's optimistic "request accepted" enqueue).
func (c *Coordinator) Register(ctx context.Context, user, password, registrarHost string, registrarPort int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	registrarURI := sip.Uri{Scheme: "sip", Host: registrarHost, Port: registrarPort}
	aor := sip.Uri{Scheme: "sip", User: user, Host: registrarHost, Port: registrarPort}

	if c.registrar != nil {
		c.registrar.Stop()
	}

	c.creds = internalsip.Credentials{Username: user, Password: password}
	c.registrar = registration.New(registration.Config{
		Client:       c.endpoint.Client,
		RegistrarURI: registrarURI,
		AOR:          aor,
		Contact:      c.endpoint.Contact(),
		Credentials:  c.creds,
		Expires:      3600,
	})
	c.regURI = registrarURI
	c.currentAOR = aor
	c.registrar.Start(ctx)

	c.enqueue(Event{Kind: EventRegistered})
	return nil
}

// Unregister drops the binding. An in-flight call is left untouched.
func (c *Coordinator) Unregister() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registrar != nil {
		c.registrar.Stop()
		c.registrar = nil
	}
	c.enqueue(Event{Kind: EventUnregistered})
}

// MakeCall places an outbound call to sip:target@registrar. Precondition:
// registered and no active call.
func (c *Coordinator) MakeCall(target string, audioIn <-chan []byte, audioOut chan<- []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registrar == nil {
		return fmt.Errorf("useragent: not registered")
	}
	if c.activeCall != nil || c.waitingAction != nil {
		return fmt.Errorf("useragent: a call is already active")
	}

	targetURI := sip.Uri{Scheme: "sip", User: target, Host: c.regURI.Host, Port: c.regURI.Port}
	dialer := newOutboundDialer(c.endpoint.Client, c.localHost, c.endpoint.Contact(), targetURI, c.currentAOR, c.creds)

	c.activeCall = call.NewOutgoing(dialer, audioIn, audioOut, outgoingCallTimeout)
	c.enqueue(Event{Kind: EventCalling})
	return nil
}

// AcceptIncomingCall sends the Accept action to the call currently waiting
// for one. Precondition: an incoming call is waiting.
func (c *Coordinator) AcceptIncomingCall(audioIn <-chan []byte, audioOut chan<- []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waitingAction == nil {
		return fmt.Errorf("useragent: no incoming call is waiting")
	}
	c.activeCall = c.waitingAction.Accept(audioIn, audioOut)
	c.waitingAction = nil
	return nil
}

// DeclineIncomingCall sends a user-declined Decline action to the call
// currently waiting for one.
func (c *Coordinator) DeclineIncomingCall() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waitingAction == nil {
		return fmt.Errorf("useragent: no incoming call is waiting")
	}
	c.activeCall = c.waitingAction.Decline(call.DeclineUserDeclined, "User declined")
	c.waitingAction = nil
	return nil
}

// TerminateCall tears down the active call, whatever state it is in.
func (c *Coordinator) TerminateCall(ctx context.Context) error {
	c.mu.Lock()
	active := c.activeCall
	c.activeCall = nil
	c.waitingAction = nil
	c.mu.Unlock()

	if active == nil {
		return fmt.Errorf("useragent: no active call")
	}
	err := active.Terminate(ctx)

	c.mu.Lock()
	c.enqueue(Event{Kind: EventCallTerminated})
	c.mu.Unlock()
	return err
}

// Run pops one queued event if present; otherwise it steps the active call
// one tick and returns the event for any resulting transition directly. It
// never blocks longer than the call's own tick ceiling.
func (c *Coordinator) Run(ctx context.Context) *Event {
	c.mu.Lock()
	if len(c.events) > 0 {
		ev := c.events[0]
		c.events = c.events[1:]
		c.mu.Unlock()
		return &ev
	}
	active := c.activeCall
	c.mu.Unlock()

	if active == nil {
		return nil
	}

	next, kind, err := active.Run(ctx)
	if err != nil {
		slog.Warn("useragent: call ended with error", "error", err)
		c.mu.Lock()
		if c.activeCall == active {
			c.activeCall = nil
		}
		c.mu.Unlock()
		return &Event{Kind: EventCallTerminated}
	}

	c.mu.Lock()
	if c.activeCall == active {
		c.activeCall = next
		if wfa, ok := next.(*call.WaitingForAction); ok {
			c.waitingAction = wfa
		}
	}
	c.mu.Unlock()

	if kind == nil {
		return nil
	}
	switch *kind {
	case call.EventEstablished:
		return &Event{Kind: EventCallEstablished}
	case call.EventTerminated:
		return &Event{Kind: EventCallTerminated}
	default:
		return nil
	}
}

// handleInvite is the server-side INVITE entry point: decline with 486 if
// busy, otherwise create the incoming call and enqueue IncomingCall(from).
func (c *Coordinator) handleInvite(req *sip.Request, tx sip.ServerTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeCall != nil || c.waitingAction != nil {
		resp := sip.NewResponseFromRequest(req, sip.StatusBusyHere, "There is an active call", nil)
		_ = tx.Respond(resp)
		return
	}

	if req.Body() == nil {
		resp := sip.NewResponseFromRequest(req, sip.StatusNotAcceptable, "Missing SDP offer", nil)
		_ = tx.Respond(resp)
		return
	}
	remote, err := sdpneg.ParseRemote(req.Body())
	if err != nil {
		resp := sip.NewResponseFromRequest(req, sip.StatusNotAcceptable, "Invalid SDP offer", nil)
		_ = tx.Respond(resp)
		return
	}

	handle := newInboundHandle(req, tx, c.endpoint.Client, c.localHost, c.endpoint.Contact(), remote)
	waiting := call.NewWaitingForAction(handle)
	c.waitingAction = waiting
	c.activeCall = waiting
	c.enqueue(Event{Kind: EventIncomingCall, From: handle.From()})
}
