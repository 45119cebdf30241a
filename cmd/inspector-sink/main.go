// inspector-sink is a minimal desktop-side peer for local development: it
// listens on the agent's direct port, decodes incoming frames and logs
// message summaries. With ADVERTISE=1 it also announces itself over mDNS so
// agents in Bonjour mode can find it.
package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/grandcat/zeroconf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ProxymanApp/atlantis-go/internal/discovery"
	"github.com/ProxymanApp/atlantis-go/internal/domain"
	cfgpkg "github.com/ProxymanApp/atlantis-go/internal/infrastructure/config"
	obs "github.com/ProxymanApp/atlantis-go/internal/infrastructure/observability"
	"github.com/ProxymanApp/atlantis-go/internal/wire"
)

func main() {
	cfg := cfgpkg.FromEnv()
	logger := obs.NewLogger(cfg.LogLevel)
	metrics := obs.NewMetrics()

	addr := ":" + strconv.Itoa(cfg.DirectPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error().Err(err).Str("addr", addr).Msg("listen failed")
		os.Exit(1)
	}
	logger.Info().Str("addr", addr).Str("version", obs.Version).Msg("inspector-sink listening")

	if os.Getenv("ADVERTISE") == "1" || os.Getenv("ADVERTISE") == "true" {
		instance := getenv("INSTANCE_NAME", "Proxyman-"+hostname())
		srv, err := zeroconf.Register(instance, cfg.ServiceType, discovery.ServiceDomain, cfg.DirectPort, nil, nil)
		if err != nil {
			logger.Error().Err(err).Msg("mdns advertise failed")
		} else {
			defer srv.Shutdown()
			logger.Info().Str("instance", instance).Str("service", cfg.ServiceType).Msg("advertising over mDNS")
		}
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	go acceptLoop(ln, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	_ = ln.Close()
	logger.Info().Msg("inspector-sink stopped")
}

func acceptLoop(ln net.Listener, logger *zerolog.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("agent connected")
		go handleAgent(conn, logger)
	}
}

func handleAgent(conn net.Conn, logger *zerolog.Logger) {
	defer conn.Close()
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn().Err(err).Msg("read frame failed")
			}
			logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("agent disconnected")
			return
		}
		raw, err := wire.DecodePayload(payload)
		if err != nil {
			logger.Warn().Err(err).Msg("payload decode failed")
			continue
		}
		var msg domain.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Warn().Err(err).Msg("message unmarshal failed")
			continue
		}
		logger.Info().
			Str("session", msg.ID).
			Str("type", string(msg.MessageType)).
			Str("buildVersion", msg.BuildVersion).
			Int("contentBytes", len(msg.Content)).
			Msg("message")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "inspector"
	}
	return h
}
