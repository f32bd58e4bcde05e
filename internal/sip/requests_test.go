package sip

import (
	"testing"

	"github.com/emiago/sipgo/sip"
)

func testContact() sip.ContactHeader {
	return sip.ContactHeader{Address: sip.Uri{Scheme: "sip", User: "sipphone", Host: "10.0.0.1", Port: 5061}}
}

func TestBuildRegisterHeaders(t *testing.T) {
	registrar := sip.Uri{Scheme: "sip", Host: "registrar.example", Port: 5060}
	aor := sip.Uri{Scheme: "sip", User: "alice", Host: "registrar.example", Port: 5060}

	req := BuildRegister(RegisterParams{
		RegistrarURI: registrar,
		AOR:          aor,
		CallID:       "call-1",
		CSeq:         1,
		Expires:      3600,
		Contact:      testContact(),
	})

	if req.Method != sip.REGISTER {
		t.Fatalf("Method = %v, want REGISTER", req.Method)
	}
	if req.Recipient.Host != "registrar.example" {
		t.Fatalf("Recipient.Host = %q, want registrar.example", req.Recipient.Host)
	}

	from := req.From()
	if from == nil || from.Address.User != "alice" {
		t.Fatal("From header missing or has wrong user")
	}
	if tag, ok := from.Params.Get("tag"); !ok || tag == "" {
		t.Fatal("From header missing a tag")
	}

	cseq := req.CSeq()
	if cseq == nil || cseq.SeqNo != 1 || cseq.MethodName != sip.REGISTER {
		t.Fatalf("CSeq header = %+v, want SeqNo=1 MethodName=REGISTER", cseq)
	}

	if req.GetHeader("Expires") == nil {
		t.Fatal("Expires header missing")
	}
	if req.Contact() == nil {
		t.Fatal("Contact header missing")
	}
	if req.CallID() == nil || req.CallID().Value() != "call-1" {
		t.Fatal("Call-ID header missing or wrong")
	}
}

func TestBuildInviteHeaders(t *testing.T) {
	target := sip.Uri{Scheme: "sip", User: "bob", Host: "registrar.example", Port: 5060}
	from := sip.Uri{Scheme: "sip", User: "alice", Host: "registrar.example", Port: 5060}

	req := BuildInvite(InviteParams{
		Target:   target,
		From:     from,
		LocalTag: "abc12345",
		CallID:   "call-2",
		CSeq:     1,
		Contact:  testContact(),
		SDPBody:  []byte("v=0\r\n"),
	})

	if req.Method != sip.INVITE {
		t.Fatalf("Method = %v, want INVITE", req.Method)
	}
	if string(req.Body()) != "v=0\r\n" {
		t.Fatalf("Body = %q, want SDP offer", req.Body())
	}
	if ct := req.GetHeader("Content-Type"); ct == nil || ct.Value() != "application/sdp" {
		t.Fatalf("Content-Type header = %v, want application/sdp", ct)
	}
	fromHdr := req.From()
	if tag, ok := fromHdr.Params.Get("tag"); !ok || tag != "abc12345" {
		t.Fatalf("From tag = %q, want abc12345", tag)
	}
}

func TestBuildACKUsesContactFromResponse(t *testing.T) {
	target := sip.Uri{Scheme: "sip", User: "bob", Host: "registrar.example", Port: 5060}
	from := sip.Uri{Scheme: "sip", User: "alice", Host: "registrar.example", Port: 5060}

	invite := BuildInvite(InviteParams{
		Target: target, From: from, LocalTag: "tag1", CallID: "call-3", CSeq: 1, Contact: testContact(),
	})

	resp := sip.NewResponseFromRequest(invite, sip.StatusOK, "OK", nil)
	remoteContact := sip.ContactHeader{Address: sip.Uri{Scheme: "sip", User: "bob", Host: "203.0.113.5", Port: 5070}}
	resp.AppendHeader(&remoteContact)
	if to := resp.To(); to != nil {
		to.Params = sip.NewParams()
		to.Params.Add("tag", "remotetag")
	}

	ack := BuildACK(invite, resp)

	if ack.Method != sip.ACK {
		t.Fatalf("Method = %v, want ACK", ack.Method)
	}
	if ack.Recipient.Host != "203.0.113.5" || ack.Recipient.Port != 5070 {
		t.Fatalf("Recipient = %+v, want the response's Contact", ack.Recipient)
	}
	if ack.CallID() == nil || ack.CallID().Value() != "call-3" {
		t.Fatal("ACK must carry the INVITE's Call-ID")
	}
	to := ack.To()
	if to == nil {
		t.Fatal("ACK missing To header")
	}
	if tag, ok := to.Params.Get("tag"); !ok || tag != "remotetag" {
		t.Fatalf("ACK To tag = %q, want remotetag", tag)
	}
	if cseq := ack.CSeq(); cseq == nil || cseq.MethodName != sip.ACK || cseq.SeqNo != 1 {
		t.Fatalf("ACK CSeq = %+v, want SeqNo=1 MethodName=ACK", cseq)
	}
}

func TestBuildCANCELCopiesDialogHeaders(t *testing.T) {
	target := sip.Uri{Scheme: "sip", User: "bob", Host: "registrar.example", Port: 5060}
	from := sip.Uri{Scheme: "sip", User: "alice", Host: "registrar.example", Port: 5060}

	invite := BuildInvite(InviteParams{
		Target: target, From: from, LocalTag: "tag1", CallID: "call-4", CSeq: 7, Contact: testContact(),
	})

	cancel := BuildCANCEL(invite)

	if cancel.Method != sip.CANCEL {
		t.Fatalf("Method = %v, want CANCEL", cancel.Method)
	}
	if cancel.CallID() == nil || cancel.CallID().Value() != "call-4" {
		t.Fatal("CANCEL must carry the same Call-ID as the INVITE")
	}
	if cseq := cancel.CSeq(); cseq == nil || cseq.SeqNo != 7 || cseq.MethodName != sip.CANCEL {
		t.Fatalf("CANCEL CSeq = %+v, want SeqNo=7 MethodName=CANCEL", cseq)
	}
}

func TestBuildBYEParsesDialogURIs(t *testing.T) {
	req, err := BuildBYE(
		"sip:bob@203.0.113.5:5070",
		"sip:bob@registrar.example:5060",
		"sip:alice@registrar.example:5060",
		"remotetag",
		"localtag",
		"call-5",
		2,
	)
	if err != nil {
		t.Fatalf("BuildBYE: %v", err)
	}
	if req.Method != sip.BYE {
		t.Fatalf("Method = %v, want BYE", req.Method)
	}
	if req.Recipient.Host != "203.0.113.5" || req.Recipient.Port != 5070 {
		t.Fatalf("Recipient = %+v, want the remote contact", req.Recipient)
	}
	to := req.To()
	if tag, ok := to.Params.Get("tag"); !ok || tag != "remotetag" {
		t.Fatalf("To tag = %q, want remotetag", tag)
	}
	from := req.From()
	if tag, ok := from.Params.Get("tag"); !ok || tag != "localtag" {
		t.Fatalf("From tag = %q, want localtag", tag)
	}
}

func TestBuildBYERejectsMalformedContact(t *testing.T) {
	_, err := BuildBYE("", "", "sip:alice@registrar.example:5060", "", "", "call-6", 1)
	if err == nil {
		t.Fatal("expected an error for a malformed remote contact URI")
	}
}
