package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sebas/sipphone/internal/useragent"
)

// tickCadence is how often the loop polls the coordinator when no command
// line is waiting, matching spec.md's 100ms coordinator loop cadence.
const tickCadence = 100 * time.Millisecond

// Coordinator is the subset of useragent.Coordinator the command loop
// drives; declared here so the loop can be tested against a fake.
type Coordinator interface {
	Register(ctx context.Context, user, password, registrarHost string, registrarPort int) error
	Unregister()
	MakeCall(target string, audioIn <-chan []byte, audioOut chan<- []byte) error
	AcceptIncomingCall(audioIn <-chan []byte, audioOut chan<- []byte) error
	DeclineIncomingCall() error
	TerminateCall(ctx context.Context) error
	Run(ctx context.Context) *useragent.Event
}

// AudioChannels supplies the bounded audio queues wired into a call once it
// reaches Established; the loop asks for a fresh pair per call so a
// previous call's channels are never reused.
type AudioChannels func() (in <-chan []byte, out chan<- []byte)

// Lines reads whitespace/key=value command lines from r, one per call,
// following the teacher's blocking-stdin-read-then-sleep shape but driven
// here by the caller instead of a dedicated OS thread.
func Lines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// Run is the command loop: race a command line against one coordinator
// tick, handle whichever arrives, repeat. It returns when a StopApp command
// (an empty line) is received or lines is closed.
func Run(ctx context.Context, coord Coordinator, lines <-chan string, audio AudioChannels) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleLine(ctx, coord, line, audio) {
				return
			}
		case <-time.After(tickCadence):
			handleTick(coord)
		}
	}
}

func handleLine(ctx context.Context, coord Coordinator, line string, audio AudioChannels) bool {
	cmd, err := Parse(line)
	if err != nil {
		slog.Warn("command: unrecognized input", "error", err)
		return true
	}

	slog.Info("command: received", "command", cmd.String())

	switch cmd.Kind {
	case KindHelp:
		fmt.Println(HelpText)
	case KindStopApp:
		return false
	case KindRegister:
		if err := coord.Register(ctx, cmd.User, cmd.Password, cmd.RegistrarHost, cmd.RegistrarPort); err != nil {
			slog.Warn("command: register failed", "error", err)
		}
	case KindUnregister:
		coord.Unregister()
	case KindCall:
		in, out := audio()
		if err := coord.MakeCall(cmd.User, in, out); err != nil {
			slog.Warn("command: call failed", "error", err)
		}
	case KindAcceptCall:
		in, out := audio()
		if err := coord.AcceptIncomingCall(in, out); err != nil {
			slog.Warn("command: accept call failed", "error", err)
		}
	case KindDeclineCall:
		if err := coord.DeclineIncomingCall(); err != nil {
			slog.Warn("command: decline call failed", "error", err)
		}
	case KindTerminateCall:
		if err := coord.TerminateCall(ctx); err != nil {
			slog.Warn("command: terminate call failed", "error", err)
		}
	}
	return true
}

func handleTick(coord Coordinator) {
	ctx, cancel := context.WithTimeout(context.Background(), tickCadence)
	defer cancel()

	ev := coord.Run(ctx)
	if ev == nil {
		return
	}
	if ev.Kind == useragent.EventIncomingCall {
		fmt.Printf("%s from %s\n", ev.Kind, ev.From)
		return
	}
	fmt.Println(ev.Kind)
}
