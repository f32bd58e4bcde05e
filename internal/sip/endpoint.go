// Package sip is the thin sipgo wiring layer: user agent, server and client
// construction, the local Contact header, and request builders for the
// handful of methods the softphone needs to send (REGISTER, INVITE, ACK,
// CANCEL, BYE) plus a digest-auth challenge/retry helper. It holds no call
// state of its own; internal/call and internal/registration own that.
package sip

import (
	"fmt"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"
	"github.com/google/uuid"
)

// Endpoint bundles the sipgo primitives a single softphone process needs:
// one user agent, one server transaction layer, one client.
type Endpoint struct {
	UA     *sipgo.UserAgent
	Server *sipgo.Server
	Client *sipgo.Client

	contact sip.ContactHeader
}

// NewEndpoint builds the user agent, server and client, and the Contact
// header advertised on every outbound request, following the switchboard
// teacher's construction order in app.NewServer.
func NewEndpoint(localHost string, localPort int) (*Endpoint, error) {
	ua, err := sipgo.NewUA()
	if err != nil {
		return nil, fmt.Errorf("sip: create user agent: %w", err)
	}
	srv, err := sipgo.NewServer(ua)
	if err != nil {
		ua.Close()
		return nil, fmt.Errorf("sip: create server: %w", err)
	}
	client, err := sipgo.NewClient(ua)
	if err != nil {
		ua.Close()
		return nil, fmt.Errorf("sip: create client: %w", err)
	}

	contact := sip.ContactHeader{
		Address: sip.Uri{
			Scheme: "sip",
			User:   "sipphone",
			Host:   localHost,
			Port:   localPort,
		},
	}

	return &Endpoint{UA: ua, Server: srv, Client: client, contact: contact}, nil
}

// Contact returns a copy of the local Contact header for use on outbound
// requests.
func (e *Endpoint) Contact() sip.ContactHeader {
	return e.contact
}

// Close tears down the user agent and its transports.
func (e *Endpoint) Close() error {
	return e.UA.Close()
}

// NewCallID generates a globally unique Call-ID, following b2bua's
// generateCallID.
func NewCallID() string {
	return uuid.New().String()
}

// NewTag generates a short unique tag for From/To headers, following
// b2bua's generateTag.
func NewTag() string {
	return uuid.New().String()[:8]
}
