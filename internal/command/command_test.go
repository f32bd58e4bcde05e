package command

import (
	"testing"
)

func TestParseSimpleCommands(t *testing.T) {
	cases := []struct {
		line string
		want Kind
	}{
		{"", KindStopApp},
		{"   ", KindStopApp},
		{"help", KindHelp},
		{"unregister", KindUnregister},
		{"accept call", KindAcceptCall},
		{"decline call", KindDeclineCall},
		{"terminate call", KindTerminateCall},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := Parse(tc.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.line, err)
			}
			if cmd.Kind != tc.want {
				t.Errorf("Kind = %v, want %v", cmd.Kind, tc.want)
			}
		})
	}
}

func TestParseRegister(t *testing.T) {
	cmd, err := Parse("register user=1001 password=secret registrar=192.0.2.1:5060")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Kind != KindRegister {
		t.Fatalf("Kind = %v, want KindRegister", cmd.Kind)
	}
	if cmd.User != "1001" {
		t.Errorf("User = %q, want 1001", cmd.User)
	}
	if cmd.Password != "secret" {
		t.Errorf("Password = %q, want secret", cmd.Password)
	}
	if cmd.RegistrarHost != "192.0.2.1" || cmd.RegistrarPort != 5060 {
		t.Errorf("Registrar = %s:%d, want 192.0.2.1:5060", cmd.RegistrarHost, cmd.RegistrarPort)
	}
}

func TestParseRegisterResolvesEnvPassword(t *testing.T) {
	t.Setenv("SIPPHONE_TEST_COMMAND_PASSWORD", "envsecret")
	cmd, err := Parse("register user=1001 password=env:SIPPHONE_TEST_COMMAND_PASSWORD registrar=192.0.2.1:5060")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Password != "envsecret" {
		t.Errorf("Password = %q, want envsecret", cmd.Password)
	}
}

func TestParseRegisterFailsOnUnsetEnvPassword(t *testing.T) {
	_, err := Parse("register user=1001 password=env:SIPPHONE_TEST_COMMAND_PASSWORD_MISSING registrar=192.0.2.1:5060")
	if err == nil {
		t.Fatal("expected an error for an unset env password variable")
	}
}

func TestParseRegisterMissingFields(t *testing.T) {
	cases := []string{
		"register registrar=192.0.2.1:5060",
		"register user=1001",
		"register user=1001 registrar=not-a-hostport",
	}
	for _, line := range cases {
		t.Run(line, func(t *testing.T) {
			if _, err := Parse(line); err == nil {
				t.Errorf("Parse(%q): expected an error", line)
			}
		})
	}
}

func TestParseCall(t *testing.T) {
	cmd, err := Parse("call user=1002")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Kind != KindCall {
		t.Fatalf("Kind = %v, want KindCall", cmd.Kind)
	}
	if cmd.User != "1002" {
		t.Errorf("User = %q, want 1002", cmd.User)
	}
}

func TestParseCallMissingUser(t *testing.T) {
	if _, err := Parse("call"); err == nil {
		t.Fatal("expected an error when user is missing")
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("frobnicate")
	if err != ErrUnknownCommand {
		t.Fatalf("err = %v, want ErrUnknownCommand", err)
	}
}

func TestCommandStringSummary(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"register user=1001 registrar=192.0.2.1:5060", "register {user:1001; registrar:192.0.2.1:5060}"},
		{"unregister", "unregister {}"},
		{"call user=1002", "call {user:1002}"},
		{"accept call", "accept call {}"},
		{"decline call", "decline call {}"},
		{"terminate call", "terminate call {}"},
		{"help", "help {}"},
		{"", "stop app {}"},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := Parse(tc.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.line, err)
			}
			if got := cmd.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
