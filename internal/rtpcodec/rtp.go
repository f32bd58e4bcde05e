// Package rtpcodec frames an A-law byte stream into RTP packets. It owns no
// socket and no clock: pacing belongs to whatever goroutine calls Next, not
// to the packetizer itself.
package rtpcodec

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/pion/rtp"
)

// PayloadTypeALaw is the static RTP payload type for G.711 A-law (RFC 3551).
const PayloadTypeALaw uint8 = 8

// SampleRate is the fixed G.711 sample rate in Hz.
const SampleRate = 8000

// FrameBytes is 20ms of A-law audio at 8kHz: one byte per sample.
const FrameBytes = 160

// GenerateSequenceStart produces a random initial RTP sequence number.
func GenerateSequenceStart() uint16 {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint16(b[:])
}

// GenerateTimestampStart produces a random initial RTP timestamp.
func GenerateTimestampStart() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(b[:])
}

// Packetizer holds the per-call RTP header state: payload type, sequence
// number (wraps mod 2^16), timestamp (advances by payload length), and
// SSRC. It performs no I/O; Next only builds packets.
type Packetizer struct {
	pt   uint8
	ssrc uint32
	seq  uint16
	ts   uint32
}

// NewPacketizer seeds sequence number and timestamp randomly per RFC 3550,
// for the given static payload type. SSRC is fixed at 0: this softphone
// never multiplexes more than one call's media at a time, so there is no
// collision to randomize against.
func NewPacketizer(pt uint8) *Packetizer {
	return &Packetizer{
		pt:  pt,
		seq: GenerateSequenceStart(),
		ts:  GenerateTimestampStart(),
	}
}

// Next builds the next RTP packet for payload, then advances sequence by one
// and timestamp by len(payload) (one A-law byte per 8kHz sample).
func (p *Packetizer) Next(payload []byte) *rtp.Packet {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    p.pt,
			SequenceNumber: p.seq,
			Timestamp:      p.ts,
			SSRC:           p.ssrc,
		},
		Payload: payload,
	}
	p.seq++
	p.ts += uint32(len(payload))
	return pkt
}

// SSRC returns the fixed synchronization source identifier for this call.
func (p *Packetizer) SSRC() uint32 { return p.ssrc }
