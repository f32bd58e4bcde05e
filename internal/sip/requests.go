package sip

import (
	"fmt"

	"github.com/emiago/sipgo/sip"
)

// RegisterParams carries the fields needed to build a REGISTER request.
type RegisterParams struct {
	RegistrarURI sip.Uri
	AOR          sip.Uri
	CallID       string
	CSeq         uint32
	Expires      uint32
	Contact      sip.ContactHeader
}

// BuildRegister constructs a REGISTER request, following the From/To/CSeq
// shape b2bua's buildINVITE uses for INVITE.
func BuildRegister(p RegisterParams) *sip.Request {
	req := sip.NewRequest(sip.REGISTER, p.RegistrarURI)

	from := &sip.FromHeader{Address: p.AOR, Params: sip.NewParams()}
	from.Params.Add("tag", NewTag())
	req.AppendHeader(from)

	to := &sip.ToHeader{Address: p.AOR}
	req.AppendHeader(to)

	callID := sip.CallIDHeader(p.CallID)
	req.AppendHeader(&callID)

	cseq := &sip.CSeqHeader{SeqNo: p.CSeq, MethodName: sip.REGISTER}
	req.AppendHeader(cseq)

	contact := p.Contact
	req.AppendHeader(&contact)

	expires := sip.ExpiresHeader(p.Expires)
	req.AppendHeader(&expires)

	maxFwd := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxFwd)

	return req
}

// InviteParams carries the fields needed to build an INVITE request.
type InviteParams struct {
	Target   sip.Uri
	From     sip.Uri
	LocalTag string
	CallID   string
	CSeq     uint32
	Contact  sip.ContactHeader
	SDPBody  []byte
}

// BuildInvite constructs an INVITE request carrying an SDP offer, following
// b2bua's buildINVITE header-construction order.
func BuildInvite(p InviteParams) *sip.Request {
	req := sip.NewRequest(sip.INVITE, p.Target)

	from := &sip.FromHeader{Address: p.From, Params: sip.NewParams()}
	from.Params.Add("tag", p.LocalTag)
	req.AppendHeader(from)

	to := &sip.ToHeader{Address: p.Target}
	req.AppendHeader(to)

	callID := sip.CallIDHeader(p.CallID)
	req.AppendHeader(&callID)

	cseq := &sip.CSeqHeader{SeqNo: p.CSeq, MethodName: sip.INVITE}
	req.AppendHeader(cseq)

	contact := p.Contact
	req.AppendHeader(&contact)

	maxFwd := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxFwd)

	req.SetBody(p.SDPBody)
	req.AppendHeader(sip.NewHeader("Content-Type", "application/sdp"))

	return req
}

// BuildACK builds the ACK for a 2xx response to invite, per RFC 3261
// Section 13.2.2.4: Request-URI from the response's Contact, To tag from
// the response, CSeq number unchanged but method ACK. Grounded on
// b2bua's sendACK.
func BuildACK(invite *sip.Request, resp *sip.Response) *sip.Request {
	requestURI := invite.Recipient
	if contact := resp.Contact(); contact != nil {
		requestURI = contact.Address
	}

	ack := sip.NewRequest(sip.ACK, requestURI)
	sip.CopyHeaders("From", invite, ack)
	sip.CopyHeaders("Call-ID", invite, ack)

	if to := resp.To(); to != nil {
		ack.AppendHeader(&sip.ToHeader{
			DisplayName: to.DisplayName,
			Address:     to.Address,
			Params:      to.Params,
		})
	}

	if cseq := invite.CSeq(); cseq != nil {
		ack.AppendHeader(&sip.CSeqHeader{SeqNo: cseq.SeqNo, MethodName: sip.ACK})
	}

	maxFwd := sip.MaxForwardsHeader(70)
	ack.AppendHeader(&maxFwd)

	return ack
}

// BuildCANCEL builds a CANCEL for an in-progress INVITE transaction,
// copying Via/From/To/Call-ID per RFC 3261 Section 9.1. Grounded on
// b2bua's sendCANCEL.
func BuildCANCEL(invite *sip.Request) *sip.Request {
	cancel := sip.NewRequest(sip.CANCEL, invite.Recipient)
	sip.CopyHeaders("Via", invite, cancel)
	sip.CopyHeaders("From", invite, cancel)
	sip.CopyHeaders("To", invite, cancel)
	sip.CopyHeaders("Call-ID", invite, cancel)

	if cseq := invite.CSeq(); cseq != nil {
		cancel.AppendHeader(&sip.CSeqHeader{SeqNo: cseq.SeqNo, MethodName: sip.CANCEL})
	}

	maxFwd := sip.MaxForwardsHeader(70)
	cancel.AppendHeader(&maxFwd)

	return cancel
}

// BuildBYE builds a BYE for an established dialog, Request-URI taken from
// the remote Contact, To from the dialog's remote URI plus remote tag.
func BuildBYE(remoteContactURI, remoteToURI, localFromURI, remoteTag, localTag, callID string, cseq uint32) (*sip.Request, error) {
	var requestURI sip.Uri
	if err := sip.ParseUri(remoteContactURI, &requestURI); err != nil {
		return nil, fmt.Errorf("sip: parse remote contact: %w", err)
	}

	var toURI sip.Uri
	if remoteToURI != "" {
		if err := sip.ParseUri(remoteToURI, &toURI); err != nil {
			toURI = requestURI
		}
	} else {
		toURI = requestURI
	}

	var fromURI sip.Uri
	if err := sip.ParseUri(localFromURI, &fromURI); err != nil {
		return nil, fmt.Errorf("sip: parse local from: %w", err)
	}

	bye := sip.NewRequest(sip.BYE, requestURI)

	toParams := sip.NewParams()
	if remoteTag != "" {
		toParams.Add("tag", remoteTag)
	}
	bye.AppendHeader(&sip.ToHeader{Address: toURI, Params: toParams})

	fromParams := sip.NewParams()
	if localTag != "" {
		fromParams.Add("tag", localTag)
	}
	bye.AppendHeader(&sip.FromHeader{Address: fromURI, Params: fromParams})

	callIDHdr := sip.CallIDHeader(callID)
	bye.AppendHeader(&callIDHdr)

	bye.AppendHeader(&sip.CSeqHeader{SeqNo: cseq, MethodName: sip.BYE})

	maxFwd := sip.MaxForwardsHeader(70)
	bye.AppendHeader(&maxFwd)

	return bye, nil
}
