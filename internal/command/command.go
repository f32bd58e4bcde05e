// Package command is the operator-facing surface: parsing line-oriented
// key=value commands and running the loop that races a command line
// against one coordinator tick, per spec.md's Command Loop. Grounded on
// original_source's cli_input.rs parser shape, translated from per-parser
// structs into one switch over the leading keyword.
package command

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sebas/sipphone/internal/config"
)

// Kind identifies which command a parsed line carries.
type Kind int

const (
	KindRegister Kind = iota
	KindUnregister
	KindCall
	KindAcceptCall
	KindDeclineCall
	KindTerminateCall
	KindHelp
	KindStopApp
)

// Command is one parsed operator command.
type Command struct {
	Kind Kind

	User          string
	Password      string
	RegistrarHost string
	RegistrarPort int
}

// ErrUnknownCommand is returned for a line that matches no known command
// keyword.
var ErrUnknownCommand = fmt.Errorf("command: unknown command")

// Parse splits a line into its command keyword and key=value fields and
// builds a Command, or ErrUnknownCommand / a descriptive argument error.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: KindStopApp}, nil
	}

	switch {
	case line == "help":
		return Command{Kind: KindHelp}, nil
	case line == "unregister":
		return Command{Kind: KindUnregister}, nil
	case line == "accept call":
		return Command{Kind: KindAcceptCall}, nil
	case line == "decline call":
		return Command{Kind: KindDeclineCall}, nil
	case line == "terminate call":
		return Command{Kind: KindTerminateCall}, nil
	case strings.HasPrefix(line, "register"):
		return parseRegister(line)
	case strings.HasPrefix(line, "call"):
		return parseCall(line)
	default:
		return Command{}, ErrUnknownCommand
	}
}

func fields(rest string) map[string]string {
	out := map[string]string{}
	for _, tok := range strings.Fields(rest) {
		name, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		out[name] = value
	}
	return out
}

func parseRegister(line string) (Command, error) {
	f := fields(strings.TrimPrefix(line, "register"))

	user, ok := f["user"]
	if !ok {
		return Command{}, fmt.Errorf(`command: register: "user" field is missing`)
	}
	registrar, ok := f["registrar"]
	if !ok {
		return Command{}, fmt.Errorf(`command: register: "registrar" field is missing`)
	}
	host, port, err := splitHostPort(registrar)
	if err != nil {
		return Command{}, fmt.Errorf("command: register: registrar: %w", err)
	}

	password := f["password"]
	if password != "" {
		resolved, err := config.ResolvePassword(password)
		if err != nil {
			return Command{}, fmt.Errorf("command: register: password: %w", err)
		}
		password = resolved
	}

	return Command{
		Kind:          KindRegister,
		User:          user,
		Password:      password,
		RegistrarHost: host,
		RegistrarPort: port,
	}, nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

func parseCall(line string) (Command, error) {
	f := fields(strings.TrimPrefix(line, "call"))

	user, ok := f["user"]
	if !ok {
		return Command{}, fmt.Errorf(`command: call: "user" field is missing`)
	}
	return Command{Kind: KindCall, User: user}, nil
}

// String renders a one-line summary of the command, in the
// "name {field:value; ...}" shape the operator sees echoed before it runs.
func (c Command) String() string {
	switch c.Kind {
	case KindRegister:
		return fmt.Sprintf("register {user:%s; registrar:%s:%d}", c.User, c.RegistrarHost, c.RegistrarPort)
	case KindUnregister:
		return "unregister {}"
	case KindCall:
		return fmt.Sprintf("call {user:%s}", c.User)
	case KindAcceptCall:
		return "accept call {}"
	case KindDeclineCall:
		return "decline call {}"
	case KindTerminateCall:
		return "terminate call {}"
	case KindHelp:
		return "help {}"
	default:
		return "stop app {}"
	}
}

// HelpText is printed verbatim for the help command.
const HelpText = `==== Help ====
	register user=<extension_number> [password=(<literal>|env:<VAR>)] registrar=<ip:port>
	unregister
	call user=<extension_number>
	accept call
	decline call
	terminate call
	help
	(empty line) stop the application`
