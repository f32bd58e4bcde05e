package config

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{IPAddr: "192.0.2.1", Port: 5060, Jobs: 4}, false},
		{"missing ip", Config{Port: 5060, Jobs: 4}, true},
		{"non-ipv4", Config{IPAddr: "not-an-ip", Port: 5060, Jobs: 4}, true},
		{"ipv6 rejected", Config{IPAddr: "::1", Port: 5060, Jobs: 4}, true},
		{"port zero", Config{IPAddr: "192.0.2.1", Port: 0, Jobs: 4}, true},
		{"port too large", Config{IPAddr: "192.0.2.1", Port: 70000, Jobs: 4}, true},
		{"jobs zero", Config{IPAddr: "192.0.2.1", Port: 5060, Jobs: 0}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBindAddr(t *testing.T) {
	cfg := Config{IPAddr: "192.0.2.1", Port: 5060}
	if got := cfg.BindAddr(); got != "192.0.2.1:5060" {
		t.Fatalf("BindAddr() = %q, want 192.0.2.1:5060", got)
	}
}

func TestResolvePasswordLiteral(t *testing.T) {
	got, err := ResolvePassword("hunter2")
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("ResolvePassword(literal) = %q, want hunter2", got)
	}
}

func TestResolvePasswordFromEnv(t *testing.T) {
	t.Setenv("SIPPHONE_TEST_PASSWORD", "fromenv")
	got, err := ResolvePassword("env:SIPPHONE_TEST_PASSWORD")
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	if got != "fromenv" {
		t.Fatalf("ResolvePassword(env:VAR) = %q, want fromenv", got)
	}
}

func TestResolvePasswordMissingEnvVar(t *testing.T) {
	_, err := ResolvePassword("env:SIPPHONE_TEST_PASSWORD_DOES_NOT_EXIST")
	if err == nil {
		t.Fatal("expected an error for an unset environment variable")
	}
}
