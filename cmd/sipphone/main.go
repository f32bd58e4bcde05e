package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sebas/sipphone/internal/audio"
	"github.com/sebas/sipphone/internal/banner"
	"github.com/sebas/sipphone/internal/command"
	"github.com/sebas/sipphone/internal/config"
	"github.com/sebas/sipphone/internal/logger"
	"github.com/sebas/sipphone/internal/sip"
	"github.com/sebas/sipphone/internal/useragent"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg.ApplyRuntime()

	logger.InitLogger(os.Stdout)
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	endpoint, err := sip.NewEndpoint(cfg.IPAddr, cfg.Port)
	if err != nil {
		slog.Error("failed to create SIP endpoint", "error", err)
		os.Exit(1)
	}
	defer endpoint.Close()

	bridge, err := audio.New()
	if err != nil {
		slog.Error("failed to initialize audio device", "error", err)
		os.Exit(1)
	}
	defer bridge.Close()

	coord := useragent.New(endpoint, cfg.IPAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := endpoint.Server.ListenAndServe(ctx, "udp", cfg.BindAddr()); err != nil {
			slog.Error("SIP transport error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	banner.Print("sipphone", []banner.ConfigLine{
		{Label: "Bind address", Value: cfg.BindAddr()},
		{Label: "Log level", Value: cfg.LogLevel},
		{Label: "Jobs", Value: strconv.Itoa(cfg.Jobs)},
	})
	slog.Info("sipphone ready", "bind", cfg.BindAddr())

	command.Run(ctx, coord, command.Lines(os.Stdin), newAudioChannels(bridge))

	slog.Info("sipphone stopped")
}

// newAudioChannels returns a command.AudioChannels that (re)creates the
// bridge's single input/output device streams for each new call, tearing
// down any previous streams first since the hardware only supports one
// stream per direction at a time.
func newAudioChannels(bridge *audio.Bridge) command.AudioChannels {
	return func() (<-chan []byte, chan<- []byte) {
		_ = bridge.DestroyOutputStream()
		_ = bridge.DestroyInputStream()

		out, err := bridge.CreateOutputStream()
		if err != nil {
			slog.Error("failed to open output stream", "error", err)
			return nil, nil
		}
		in, err := bridge.CreateInputStream()
		if err != nil {
			slog.Error("failed to open input stream", "error", err)
			return nil, nil
		}
		return in, out
	}
}
