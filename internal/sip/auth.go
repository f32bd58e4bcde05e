package sip

import (
	"fmt"

	"github.com/emiago/sipgo/sip"
	"github.com/icholy/digest"
)

// Credentials are the AOR's authentication parameters, supplied once at
// startup and reused across REGISTER refreshes and outbound INVITEs.
type Credentials struct {
	Username string
	Password string
}

// Authorize inspects a 401/407 response and, if it carries a digest
// challenge, clones origReq with an Authorization/Proxy-Authorization header
// computed for the given method and request-URI. Grounded on flowpbx's
// handleTrunkAuth.
func Authorize(origReq *sip.Request, challenge *sip.Response, creds Credentials) (*sip.Request, error) {
	authHeader := "WWW-Authenticate"
	authzHeader := "Authorization"
	if challenge.StatusCode == sip.StatusProxyAuthRequired {
		authHeader = "Proxy-Authenticate"
		authzHeader = "Proxy-Authorization"
	}

	wwwAuth := challenge.GetHeader(authHeader)
	if wwwAuth == nil {
		return nil, fmt.Errorf("sip: %d response carries no %s header", challenge.StatusCode, authHeader)
	}

	chal, err := digest.ParseChallenge(wwwAuth.Value())
	if err != nil {
		return nil, fmt.Errorf("sip: parse auth challenge: %w", err)
	}

	cred, err := digest.Digest(chal, digest.Options{
		Method:   origReq.Method.String(),
		URI:      origReq.Recipient.String(),
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("sip: compute digest response: %w", err)
	}

	authReq := origReq.Clone()
	authReq.RemoveHeader("Via")
	authReq.AppendHeader(sip.NewHeader(authzHeader, cred.String()))

	if cseq := authReq.CSeq(); cseq != nil {
		cseq.SeqNo++
	}

	return authReq, nil
}

// IsAuthChallenge reports whether resp is a digest challenge this package
// can retry against.
func IsAuthChallenge(resp *sip.Response) bool {
	return resp != nil && (resp.StatusCode == sip.StatusUnauthorized || resp.StatusCode == sip.StatusProxyAuthRequired)
}
