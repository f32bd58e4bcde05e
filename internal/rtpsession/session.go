// Package rtpsession is the one concrete transport a call.MediaSession
// wraps: a connected UDP socket paired with an RTP packetizer for sending
// and a sequence tracker for receiving, following the shape of
// rtpmanager/media's RTPSession interface but specialized to a single fixed
// codec (G.711 A-law) and a single peer, since this softphone never
// multiplexes more than one call's media at a time.
package rtpsession

import (
	"fmt"
	"net"

	"github.com/pion/rtp"

	"github.com/sebas/sipphone/internal/rtpcodec"
)

// Session is a bidirectional RTP flow to one peer.
type Session struct {
	conn       *net.UDPConn
	packetizer *rtpcodec.Packetizer
	tracker    *rtpcodec.SequenceTracker
}

// ReservePort opens a transient UDP socket on localHost to learn an
// available ephemeral port, then closes it so Dial can bind the same port
// once the remote endpoint is known. The SDP offer must name a port before
// the peer's address is known, so this two-step reserve-then-dial is the
// same tradeoff any SIP UA without a preallocated RTP port range makes; the
// brief window between reservation and Dial could in principle race another
// process for the port.
func ReservePort(localHost string) (int, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(localHost)})
	if err != nil {
		return 0, fmt.Errorf("rtpsession: reserve port: %w", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port, nil
}

// Dial opens a UDP socket on localPort and connects it to remoteAddr:remotePort,
// so that subsequent writes need not specify a destination on every packet.
func Dial(localPort int, remoteAddr string, remotePort int) (*Session, error) {
	laddr := &net.UDPAddr{Port: localPort}
	raddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", remoteAddr, remotePort))
	if err != nil {
		return nil, fmt.Errorf("rtpsession: resolve remote %s:%d: %w", remoteAddr, remotePort, err)
	}

	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("rtpsession: dial: %w", err)
	}

	return &Session{
		conn:       conn,
		packetizer: rtpcodec.NewPacketizer(rtpcodec.PayloadTypeALaw),
		tracker:    rtpcodec.NewSequenceTracker(),
	}, nil
}

// LocalAddr is the local RTP socket address.
func (s *Session) LocalAddr() string { return s.conn.LocalAddr().String() }

// RemoteAddr is the peer's RTP socket address.
func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr().String() }

// Send packetizes one A-law payload and writes it to the peer.
func (s *Session) Send(payload []byte) error {
	pkt := s.packetizer.Next(payload)
	buf, err := pkt.Marshal()
	if err != nil {
		return fmt.Errorf("rtpsession: marshal packet: %w", err)
	}
	_, err = s.conn.Write(buf)
	return err
}

// Recv blocks for the next packet and returns its A-law payload. Loss is
// tracked but not surfaced here; Stats reports the cumulative counts.
func (s *Session) Recv() ([]byte, error) {
	buf := make([]byte, 1500)
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, err
	}

	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(buf[:n]); err != nil {
		return nil, fmt.Errorf("rtpsession: unmarshal packet: %w", err)
	}
	s.tracker.Update(pkt.SequenceNumber)
	return pkt.Payload, nil
}

// Stats reports cumulative received/lost packet counts for this session.
func (s *Session) Stats() (received, lost uint64) {
	return s.tracker.Stats()
}

// Close releases the socket, unblocking any in-flight Recv with an error.
func (s *Session) Close() error {
	return s.conn.Close()
}
