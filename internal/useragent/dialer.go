package useragent

import (
	"context"
	"fmt"
	"sync"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"

	"github.com/sebas/sipphone/internal/call"
	"github.com/sebas/sipphone/internal/rtpsession"
	"github.com/sebas/sipphone/internal/sdpneg"
	internalsip "github.com/sebas/sipphone/internal/sip"
)

// outboundDialer performs one outbound INVITE exchange, implementing
// call.Dialer. Grounded on b2bua/originator.go's buildINVITE/executeINVITE
// sequence, collapsed to a single leg since this softphone is an endpoint,
// not a back-to-back user agent.
type outboundDialer struct {
	client    *sipgo.Client
	localHost string
	contact   sip.ContactHeader
	target    sip.Uri
	from      sip.Uri
	localTag  string
	callID    string
	creds     internalsip.Credentials

	mu     sync.Mutex
	invite *sip.Request
}

func newOutboundDialer(client *sipgo.Client, localHost string, contact sip.ContactHeader, target, from sip.Uri, creds internalsip.Credentials) *outboundDialer {
	return &outboundDialer{
		client:    client,
		localHost: localHost,
		contact:   contact,
		target:    target,
		from:      from,
		localTag:  internalsip.NewTag(),
		callID:    internalsip.NewCallID(),
		creds:     creds,
	}
}

// Dial sends the INVITE, follows at most one digest-auth retry, ACKs the
// final 2xx, and returns a connected RTP session to the peer's answered
// media.
func (d *outboundDialer) Dial(ctx context.Context) (call.MediaSession, error) {
	port, err := rtpsession.ReservePort(d.localHost)
	if err != nil {
		return nil, fmt.Errorf("useragent: reserve RTP port: %w", err)
	}

	offer := sdpneg.BuildOffer(d.localHost, port)
	invite := internalsip.BuildInvite(internalsip.InviteParams{
		Target:   d.target,
		From:     d.from,
		LocalTag: d.localTag,
		CallID:   d.callID,
		CSeq:     1,
		Contact:  d.contact,
		SDPBody:  offer,
	})

	resp, err := d.sendInvite(ctx, invite)
	if err != nil {
		return nil, err
	}

	if internalsip.IsAuthChallenge(resp) {
		authInvite, err := internalsip.Authorize(invite, resp, d.creds)
		if err != nil {
			return nil, err
		}
		resp, err = d.sendInvite(ctx, authInvite)
		if err != nil {
			return nil, err
		}
		invite = authInvite
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("useragent: call rejected: %d %s", resp.StatusCode, resp.Reason)
	}

	remote, err := sdpneg.ParseRemote(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("useragent: parse remote SDP: %w", err)
	}

	ack := internalsip.BuildACK(invite, resp)
	if err := d.client.WriteRequest(ack); err != nil {
		return nil, fmt.Errorf("useragent: send ACK: %w", err)
	}

	session, err := rtpsession.Dial(port, remote.Addr, remote.Port)
	if err != nil {
		return nil, err
	}

	remoteContact := d.target.String()
	if contact := resp.Contact(); contact != nil {
		remoteContact = contact.Address.String()
	}
	remoteTag := ""
	remoteToURI := ""
	if to := resp.To(); to != nil {
		remoteToURI = to.Address.String()
		if tag, ok := to.Params.Get("tag"); ok {
			remoteTag = tag
		}
	}

	return newDialogSession(d.client, session, dialogInfo{
		remoteContactURI: remoteContact,
		remoteToURI:      remoteToURI,
		localFromURI:     d.from.String(),
		remoteTag:        remoteTag,
		localTag:         d.localTag,
		callID:           d.callID,
		cseq:             2,
	}), nil
}

func (d *outboundDialer) sendInvite(ctx context.Context, req *sip.Request) (*sip.Response, error) {
	tx, err := d.client.TransactionRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("useragent: send INVITE: %w", err)
	}

	d.mu.Lock()
	d.invite = req
	d.mu.Unlock()

	for {
		select {
		case res := <-tx.Responses():
			if res == nil {
				continue
			}
			if res.StatusCode < 200 {
				continue
			}
			return res, nil
		case <-tx.Done():
			return nil, fmt.Errorf("useragent: INVITE transaction ended without a final response")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Cancel sends a CANCEL for the most recently sent INVITE, per RFC 3261
// Section 9.1. It is a no-op if no INVITE has been sent yet.
func (d *outboundDialer) Cancel(ctx context.Context) error {
	d.mu.Lock()
	invite := d.invite
	d.mu.Unlock()
	if invite == nil {
		return nil
	}

	cancelReq := internalsip.BuildCANCEL(invite)
	tx, err := d.client.TransactionRequest(ctx, cancelReq)
	if err != nil {
		return fmt.Errorf("useragent: send CANCEL: %w", err)
	}
	defer tx.Terminate()

	select {
	case <-tx.Responses():
	case <-tx.Done():
	case <-ctx.Done():
	}
	return nil
}

var _ call.Dialer = (*outboundDialer)(nil)
