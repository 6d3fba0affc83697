// cmd/tracepath-gateway/main.go
// Binary entrypoint for the standalone Tracepath gateway service.  It exposes a
// gRPC endpoint for agents, keeps a time-bounded retention ring and broadcasts
// chunks to WebSocket subscribers (future).  The process is configured via
// CLI flags with sane defaults for local testing.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tracepath/tracepath/internal/gateway"
	"github.com/tracepath/tracepath/internal/health"
	"github.com/tracepath/tracepath/internal/health/sinks"
	"github.com/tracepath/tracepath/internal/logging"
	"go.uber.org/zap"
)

// ruleFlags collects repeated -health-rule name=expr flags.
type ruleFlags map[string]string

func (r ruleFlags) String() string { return "" }

func (r ruleFlags) Set(v string) error {
	name, expr, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("health-rule %q: expected name=expr", v)
	}
	r[name] = expr
	return nil
}

func main() {
    // Flags -----------------------------------------------------------------
    listen := flag.String("listen", ":4317", "TCP address to listen on (host:port)")
    tlsCert := flag.String("tls-cert", "", "TLS certificate file (PEM); if empty, serve plaintext")
    tlsKey := flag.String("tls-key", "", "TLS private key file (PEM)")
    authToken := flag.String("auth-token", "", "Static bearer token required from agents (optional)")
    retention := flag.Duration("retention", 15*time.Minute, "In-memory retention window for replay")
    maxClients := flag.Int("max-clients", 128, "Soft cap on concurrent UI subscriber connections")
    healthRules := make(ruleFlags)
    flag.Var(healthRules, "health-rule", "Health rule as name=expr (repeatable), e.g. -health-rule 'drops=dropped_chunk_rate > 0.05'")
    healthCheckEvery := flag.Duration("health-check-every", 10*time.Second, "Interval between health rule evaluations")
    slackWebhook := flag.String("health-sink-slack", "", "Slack incoming webhook URL for health notifications")
    webhookURL := flag.String("health-sink-webhook", "", "Generic webhook URL for health notifications")
    logHealth := flag.Bool("health-sink-log", true, "Log health rule transitions to the structured logger")
    flag.Parse()

    // Logger ----------------------------------------------------------------
    lg, err := zap.NewProduction()
    if err != nil {
        log.Fatalf("zap: %v", err)
    }
    logging.Set(lg)
    defer lg.Sync()

    // TLS -------------------------------------------------------------------
    var tlsCfg *tls.Config
    if *tlsCert != "" && *tlsKey != "" {
        cert, err := tls.LoadX509KeyPair(*tlsCert, *tlsKey)
        if err != nil {
            lg.Fatal("load cert", zap.Error(err))
        }
        tlsCfg = &tls.Config{Certificates: []tls.Certificate{cert}}
    }

    // Health sinks ------------------------------------------------------------
    var healthSinks []health.Sink
    if *logHealth {
        healthSinks = append(healthSinks, sinks.NewLogSink())
    }
    if *slackWebhook != "" {
        healthSinks = append(healthSinks, sinks.NewSlackSink(*slackWebhook))
    }
    if *webhookURL != "" {
        healthSinks = append(healthSinks, sinks.NewWebhookSink(*webhookURL))
    }
    if len(healthRules) == 0 {
        healthRules["dropped_chunks"] = "dropped_chunk_rate > 0.05"
    }

    // Gateway ---------------------------------------------------------------
    gw, err := gateway.New(gateway.Config{
        ListenAddr:       *listen,
        TLSConfig:        tlsCfg,
        AuthToken:        *authToken,
        RetentionDur:     *retention,
        MaxClients:       *maxClients,
        HealthRules:      healthRules,
        HealthSinks:      healthSinks,
        HealthCheckEvery: *healthCheckEvery,
    })
    if err != nil {
        lg.Fatal("gateway init", zap.Error(err))
    }

    // Graceful shutdown -----------------------------------------------------
    ctx, cancel := context.WithCancel(context.Background())
    go func() {
        sigCh := make(chan os.Signal, 1)
        signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
        <-sigCh
        lg.Info("signal received, shutting down")
        cancel()
    }()

    // Optional pprof --------------------------------------------------------
    go func() {
        // Expose pprof on 6060 for debugging; ignore errors.
        _ = http.ListenAndServe("localhost:6060", nil)
    }()

    if err := gw.ListenAndServe(ctx); err != nil {
        lg.Fatal("serve", zap.Error(err))
    }

    lg.Info("goodbye")
}
