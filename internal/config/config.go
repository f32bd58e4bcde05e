// Package config loads the softphone's process configuration from command
// line flags, overridable by environment variables, the same layering the
// switchboard signaling server uses for its own flag set.
package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Config holds the softphone's process configuration.
type Config struct {
	IPAddr   string // local bind address, required
	Port     int    // SIP listening port
	Jobs     int    // GOMAXPROCS worker count
	LogLevel string
}

// Load parses flags, then applies environment overrides, then validates.
func Load() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.IPAddr, "ip-addr", "", "local IPv4 address to bind (required)")
	flag.IntVar(&cfg.Port, "port", 5060, "SIP listening port")
	flag.IntVar(&cfg.Jobs, "jobs", 4, "runtime worker count (GOMAXPROCS)")
	flag.StringVar(&cfg.LogLevel, "loglevel", "info", "log level (debug, info, warn, error)")

	flag.Parse()

	if level := os.Getenv("SIPPHONE_LOGLEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IPAddr == "" {
		return fmt.Errorf("--ip-addr is required")
	}
	if ip := net.ParseIP(c.IPAddr); ip == nil || ip.To4() == nil {
		return fmt.Errorf("--ip-addr %q is not a valid IPv4 address", c.IPAddr)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("--port %d out of range", c.Port)
	}
	if c.Jobs <= 0 {
		return fmt.Errorf("--jobs must be positive, got %d", c.Jobs)
	}
	return nil
}

// ApplyRuntime sets GOMAXPROCS from the configured worker count.
func (c *Config) ApplyRuntime() {
	runtime.GOMAXPROCS(c.Jobs)
}

// BindAddr returns the ip:port pair the SIP transport listens on.
func (c *Config) BindAddr() string {
	return net.JoinHostPort(c.IPAddr, strconv.Itoa(c.Port))
}

// ResolvePassword resolves a password field of the form "env:VAR" against
// the process environment, or returns the literal value unchanged.
func ResolvePassword(value string) (string, error) {
	const envPrefix = "env:"
	if !strings.HasPrefix(value, envPrefix) {
		return value, nil
	}
	name := strings.TrimPrefix(value, envPrefix)
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", name)
	}
	return v, nil
}
