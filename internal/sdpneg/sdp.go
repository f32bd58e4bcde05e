// Package sdpneg builds and parses the softphone's SDP bodies: a single
// audio media line, G.711 A-law only (PT 8), direction sendrecv, no ICE or
// rtcp-mux.
package sdpneg

import (
	"fmt"

	"github.com/pion/sdp/v3"
)

// RemoteMedia describes the peer's negotiated audio endpoint.
type RemoteMedia struct {
	Addr  string
	Port  int
	Codec string // RTP payload type, as a string, e.g. "8"
}

// BuildOffer constructs the local SDP offer/answer body for a single A-law
// audio media line at localAddr:localPort.
func BuildOffer(localAddr string, localPort int) []byte {
	desc := &sdp.SessionDescription{
		Origin: sdp.Origin{
			Username:       "sipphone",
			SessionID:      1,
			SessionVersion: 1,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: localAddr,
		},
		SessionName: "sipphone media session",
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: localAddr},
		},
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
		MediaDescriptions: []*sdp.MediaDescription{
			{
				MediaName: sdp.MediaName{
					Media:   "audio",
					Port:    sdp.RangedPort{Value: localPort},
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{"8"},
				},
				Attributes: []sdp.Attribute{
					{Key: "rtpmap", Value: "8 PCMA/8000"},
					{Key: "ptime", Value: "20"},
					{Key: "sendrecv"},
				},
			},
		},
	}

	body, err := desc.Marshal()
	if err != nil {
		// Marshal only fails on a malformed SessionDescription, which the
		// literal above never produces.
		panic(fmt.Sprintf("sdpneg: marshal static offer: %v", err))
	}
	return body
}

// ParseRemote extracts the peer's audio endpoint and the first codec format
// of its first media description from an SDP body, as the switchboard
// teacher's INVITE handler does for its own incoming offers.
func ParseRemote(body []byte) (*RemoteMedia, error) {
	desc := &sdp.SessionDescription{}
	if err := desc.Unmarshal(body); err != nil {
		return nil, fmt.Errorf("sdpneg: parse SDP: %w", err)
	}
	if len(desc.MediaDescriptions) == 0 {
		return nil, fmt.Errorf("sdpneg: no media descriptions in SDP")
	}

	media := desc.MediaDescriptions[0]
	if len(media.MediaName.Formats) == 0 {
		return nil, fmt.Errorf("sdpneg: no codec formats offered")
	}

	addr := ""
	if media.ConnectionInformation != nil && media.ConnectionInformation.Address != nil {
		addr = media.ConnectionInformation.Address.Address
	} else if desc.ConnectionInformation != nil && desc.ConnectionInformation.Address != nil {
		addr = desc.ConnectionInformation.Address.Address
	}
	if addr == "" {
		return nil, fmt.Errorf("sdpneg: no connection address in SDP")
	}

	return &RemoteMedia{
		Addr:  addr,
		Port:  media.MediaName.Port.Value,
		Codec: media.MediaName.Formats[0],
	}, nil
}
