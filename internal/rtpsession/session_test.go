package rtpsession

import "testing"

func TestReservePortReturnsUsablePort(t *testing.T) {
	port, err := ReservePort("127.0.0.1")
	if err != nil {
		t.Fatalf("ReservePort: %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Fatalf("port = %d, out of range", port)
	}
}

func TestSendRecvRoundTripOverLoopback(t *testing.T) {
	portA, err := ReservePort("127.0.0.1")
	if err != nil {
		t.Fatalf("ReservePort A: %v", err)
	}
	portB, err := ReservePort("127.0.0.1")
	if err != nil {
		t.Fatalf("ReservePort B: %v", err)
	}

	sessA, err := Dial(portA, "127.0.0.1", portB)
	if err != nil {
		t.Fatalf("Dial A: %v", err)
	}
	defer sessA.Close()

	sessB, err := Dial(portB, "127.0.0.1", portA)
	if err != nil {
		t.Fatalf("Dial B: %v", err)
	}
	defer sessB.Close()

	payload := make([]byte, 160)
	for i := range payload {
		payload[i] = byte(i)
	}

	if err := sessA.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := sessB.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("received payload length = %d, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("payload mismatch at byte %d: got %d, want %d", i, got[i], payload[i])
		}
	}

	received, lost := sessB.Stats()
	if received != 1 || lost != 0 {
		t.Fatalf("Stats() = (%d, %d), want (1, 0)", received, lost)
	}
}

func TestRecvFailsAfterClose(t *testing.T) {
	portA, err := ReservePort("127.0.0.1")
	if err != nil {
		t.Fatalf("ReservePort A: %v", err)
	}
	portB, err := ReservePort("127.0.0.1")
	if err != nil {
		t.Fatalf("ReservePort B: %v", err)
	}

	sess, err := Dial(portA, "127.0.0.1", portB)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := sess.Recv(); err == nil {
		t.Fatal("expected Recv to fail after Close")
	}
}
