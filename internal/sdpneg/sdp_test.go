package sdpneg

import (
	"strings"
	"testing"
)

func TestBuildOfferThenParseRemoteRoundTrips(t *testing.T) {
	body := BuildOffer("203.0.113.10", 40000)

	if !strings.Contains(string(body), "m=audio 40000") {
		t.Fatalf("offer missing the expected media line: %s", body)
	}

	media, err := ParseRemote(body)
	if err != nil {
		t.Fatalf("ParseRemote: %v", err)
	}
	if media.Addr != "203.0.113.10" {
		t.Fatalf("Addr = %q, want 203.0.113.10", media.Addr)
	}
	if media.Port != 40000 {
		t.Fatalf("Port = %d, want 40000", media.Port)
	}
	if media.Codec != "8" {
		t.Fatalf("Codec = %q, want 8 (PCMA)", media.Codec)
	}
}

func TestParseRemoteRejectsMalformedSDP(t *testing.T) {
	_, err := ParseRemote([]byte("not sdp at all"))
	if err == nil {
		t.Fatal("expected an error for malformed SDP")
	}
}

func TestParseRemoteRejectsMissingMediaDescription(t *testing.T) {
	body := []byte("v=0\r\no=sipphone 1 1 IN IP4 203.0.113.10\r\ns=sipphone media session\r\nc=IN IP4 203.0.113.10\r\nt=0 0\r\n")
	_, err := ParseRemote(body)
	if err == nil {
		t.Fatal("expected an error when the SDP has no media descriptions")
	}
}
