package useragent

import (
	"context"
	"fmt"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"

	"github.com/sebas/sipphone/internal/call"
	"github.com/sebas/sipphone/internal/rtpsession"
	"github.com/sebas/sipphone/internal/sdpneg"
	internalsip "github.com/sebas/sipphone/internal/sip"
)

// inboundHandle wraps one inbound INVITE server transaction, implementing
// call.IncomingHandle. Accept answers with 200 OK and our SDP, then binds
// the RTP session to the offer's remote endpoint; Decline answers with the
// chosen status code. Grounded on routing/invite.go's SDP-validation and
// response-sending idiom.
type inboundHandle struct {
	req       *sip.Request
	tx        sip.ServerTransaction
	client    *sipgo.Client
	localHost string
	contact   sip.ContactHeader
	remote    *sdpneg.RemoteMedia
}

func newInboundHandle(req *sip.Request, tx sip.ServerTransaction, client *sipgo.Client, localHost string, contact sip.ContactHeader, remote *sdpneg.RemoteMedia) *inboundHandle {
	return &inboundHandle{req: req, tx: tx, client: client, localHost: localHost, contact: contact, remote: remote}
}

// From is the caller identity from the INVITE's From header, for the
// IncomingCall event.
func (h *inboundHandle) From() string {
	if from := h.req.From(); from != nil {
		return from.Address.String()
	}
	return ""
}

// Accept answers the INVITE with 200 OK and our SDP answer, then dials the
// RTP session to the caller's offered endpoint.
func (h *inboundHandle) Accept(ctx context.Context) (call.MediaSession, error) {
	port, err := rtpsession.ReservePort(h.localHost)
	if err != nil {
		return nil, fmt.Errorf("useragent: reserve RTP port: %w", err)
	}

	localTag := internalsip.NewTag()
	answer := sdpneg.BuildOffer(h.localHost, port)
	ok := sip.NewResponseFromRequest(h.req, sip.StatusOK, "OK", answer)
	ok.AppendHeader(sip.NewHeader("Content-Type", "application/sdp"))
	contact := h.contact
	ok.AppendHeader(&contact)
	if to := ok.To(); to != nil {
		if to.Params == nil {
			to.Params = sip.NewParams()
		}
		to.Params.Add("tag", localTag)
	}

	if err := h.tx.Respond(ok); err != nil {
		return nil, fmt.Errorf("useragent: send 200 OK: %w", err)
	}

	session, err := rtpsession.Dial(port, h.remote.Addr, h.remote.Port)
	if err != nil {
		return nil, err
	}

	remoteContact := h.req.Recipient.String()
	if contact := h.req.Contact(); contact != nil {
		remoteContact = contact.Address.String()
	}
	remoteTag := ""
	if from := h.req.From(); from != nil {
		if tag, ok := from.Params.Get("tag"); ok {
			remoteTag = tag
		}
	}
	remoteToURI := ""
	if from := h.req.From(); from != nil {
		remoteToURI = from.Address.String()
	}
	localFromURI := ""
	if to := h.req.To(); to != nil {
		localFromURI = to.Address.String()
	}
	callID := ""
	if cid := h.req.CallID(); cid != nil {
		callID = cid.String()
	}

	return newDialogSession(h.client, session, dialogInfo{
		remoteContactURI: remoteContact,
		remoteToURI:      remoteToURI,
		localFromURI:     localFromURI,
		remoteTag:        remoteTag,
		localTag:         localTag,
		callID:           callID,
		cseq:             2,
	}), nil
}

// Decline answers the INVITE with the status code mapped from code.
func (h *inboundHandle) Decline(ctx context.Context, code call.DeclineCode, reason string) error {
	resp := sip.NewResponseFromRequest(h.req, sip.StatusCode(code.SIPStatus()), reason, nil)
	return h.tx.Respond(resp)
}

var _ call.IncomingHandle = (*inboundHandle)(nil)
