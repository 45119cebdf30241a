// atlantis-demo is a composition-root example: it starts the transporter,
// instruments an http.Client with the capture adapter and issues a few
// requests so an inspector on the same network has something to show.
package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ProxymanApp/atlantis-go/internal/capture"
	"github.com/ProxymanApp/atlantis-go/internal/domain"
	cfgpkg "github.com/ProxymanApp/atlantis-go/internal/infrastructure/config"
	obs "github.com/ProxymanApp/atlantis-go/internal/infrastructure/observability"
	"github.com/ProxymanApp/atlantis-go/internal/transporter"
)

func main() {
	cfg := cfgpkg.FromEnv()
	logger := obs.NewLogger(cfg.LogLevel)
	metrics := obs.NewMetrics()
	domain.BuildVersion = obs.Version

	session := domain.NewConfiguration(
		getenv("PROJECT_NAME", "atlantis-demo"),
		getenv("DEVICE_NAME", hostname()),
		getenv("DEVICE_MODEL", "go-"+hostname()),
		getenv("BUNDLE_ID", "com.proxyman.atlantis.demo"),
	)
	session.Fingerprint = os.Getenv("DEVICE_FINGERPRINT")
	session.HostnameFilter = cfg.HostnameFilter

	agent := transporter.New(transporter.Options{Config: cfg, Logger: logger, Metrics: metrics})
	agent.SetListener(logListener{logger})
	agent.Start(session)
	logger.Info().Str("version", obs.Version).Str("session", session.ID).Msg("atlantis-demo started")

	client := &http.Client{
		Transport: capture.NewTransport(http.DefaultTransport, agent, cfg, logger),
		Timeout:   15 * time.Second,
	}
	target := getenv("TARGET_URL", "https://httpbin.org/get")
	go func() {
		for {
			resp, err := client.Get(target)
			if err != nil {
				logger.Warn().Err(err).Msg("demo request failed")
			} else {
				_ = resp.Body.Close()
			}
			time.Sleep(5 * time.Second)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	agent.SetListener(nil)
	agent.Stop()
	logger.Info().Msg("atlantis-demo stopped")
}

// logListener prints connection-state transitions; a real host app would
// surface these in its debug UI instead.
type logListener struct {
	log *zerolog.Logger
}

func (l logListener) OnConnected(host string, port int) {
	l.log.Info().Str("host", host).Int("port", port).Msg("connected to inspector")
}

func (l logListener) OnDisconnected() {
	l.log.Warn().Msg("disconnected from inspector")
}

func (l logListener) OnConnectionFailed(reason error) {
	l.log.Error().Err(reason).Msg("connection failed")
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
		return "unknown"
	}
	return h
}
