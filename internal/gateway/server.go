// internal/gateway/server.go
// Package gateway exposes a gRPC front‑door for agents and a fan‑out hub for
// UI subscribers (WebSocket, gRPC‑web, etc.).  The server is intentionally
// lightweight; retention and alerting are delegated to pluggable components in
// sibling packages.
package gateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tracepath/tracepath/internal/agent/encoder"
	"github.com/tracepath/tracepath/internal/gateway/retention"
	"github.com/tracepath/tracepath/internal/health"
	"github.com/tracepath/tracepath/internal/logging"
	agentpb "github.com/tracepath/tracepath/internal/proto"
	"github.com/tracepath/tracepath/pkg/traceevent"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Config parameterises a Gateway Server.
type Config struct {
    ListenAddr   string        // host:port to bind
    TLSConfig    *tls.Config   // nil to serve over plaintext
    AuthToken    string        // optional static bearer token ("" means open)
    RetentionDur time.Duration // how long to keep a chunk in memory (0 => 15m)
    MaxClients   int           // soft cap for connected subscribers
    TLSCertPath  string        // path to TLS certificate (PEM)
    TLSKeyPath   string        // path to TLS key (PEM)
    EnableOTEL   bool          // enrich snapshots with correlated span info

    // HealthRules names composite health.Compile expressions (evaluated
    // against "subscriber_count", "dropped_chunk_rate", "total_chunks")
    // keyed by a human-readable rule name. Sinks are notified on each
    // firing/clearing transition.
    HealthRules      map[string]string
    HealthSinks      []health.Sink
    HealthCheckEvery time.Duration // default 10s; 0 uses default
}

// Server implements the generated gRPC service and fans‑out chunks to all
// attached UI subscribers (via Subscribe()) while writing them to a Retention
// Store for replay.
type Server struct {
    agentpb.UnimplementedIngestServiceServer
    agentpb.UnimplementedViewerServiceServer

    cfg     Config
    store   retention.Store
    subsMu  sync.RWMutex
    subs    map[chan []byte]struct{}
    grpcSrv *grpc.Server
    jwt     jwtHelper
    otel    *otelBridge
    health  *health.Engine

    totalChunks   atomic.Uint64
    droppedChunks atomic.Uint64
}

// New returns a ready‑to‑serve Gateway.  The caller must invoke ListenAndServe.
func New(cfg Config) (*Server, error) {
    if cfg.RetentionDur == 0 {
        cfg.RetentionDur = 15 * time.Minute
    }
    rules, err := buildHealthRules(cfg.HealthRules)
    if err != nil {
        return nil, err
    }
    s := &Server{
        cfg:    cfg,
        store:  retention.NewInMem(cfg.RetentionDur),
        subs:   make(map[chan []byte]struct{}),
        otel:   newOTELBridge(cfg.EnableOTEL),
        health: health.NewEngine(rules, cfg.HealthSinks),
    }

    var opts []grpc.ServerOption
    if cfg.TLSConfig != nil {
        opts = append(opts, grpc.Creds(credentials.NewTLS(cfg.TLSConfig)))
    }

    // Add CORS interceptor
    opts = append(opts, grpc.ChainUnaryInterceptor(
        func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
            md, ok := metadata.FromIncomingContext(ctx)
            if ok {
                md.Set("Access-Control-Allow-Origin", "*")
                md.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
                md.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
                ctx = metadata.NewOutgoingContext(ctx, md)
            }
            return handler(ctx, req)
        },
    ))
    opts = append(opts, grpc.ChainStreamInterceptor(
        func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
            ctx := ss.Context()
            md, ok := metadata.FromIncomingContext(ctx)
            if ok {
                md.Set("Access-Control-Allow-Origin", "*")
                md.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
                md.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
                ctx = metadata.NewOutgoingContext(ctx, md)
            }
            return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
        },
    ))

    s.grpcSrv = grpc.NewServer(opts...)
    agentpb.RegisterIngestServiceServer(s.grpcSrv, s)
    agentpb.RegisterViewerServiceServer(s.grpcSrv, s)
    return s, nil
}

// wrappedServerStream wraps grpc.ServerStream to override Context()
type wrappedServerStream struct {
    grpc.ServerStream
    ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
    return w.ctx
}

// ListenAndServe blocks, serving the gRPC API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
    ln, err := net.Listen("tcp", s.cfg.ListenAddr)
    if err != nil {
        return err
    }

    go func() {
        <-ctx.Done()
        // GracefulStop drains existing RPCs; Close closes listener.
        s.grpcSrv.GracefulStop()
        _ = ln.Close()
    }()

    go s.runHealthChecks(ctx)

    logging.Sugar().Infow("gateway listening", "addr", ln.Addr().String())
    return s.grpcSrv.Serve(ln)
}

// buildHealthRules compiles a name->expression map into health.Rules, in
// sorted-name order so Engine's transition notifications are deterministic.
func buildHealthRules(exprs map[string]string) ([]health.Rule, error) {
    if len(exprs) == 0 {
        return nil, nil
    }
    names := make([]string, 0, len(exprs))
    for name := range exprs {
        names = append(names, name)
    }
    sort.Strings(names)

    rules := make([]health.Rule, 0, len(names))
    for _, name := range names {
        r, err := health.NewRule(name, exprs[name])
        if err != nil {
            return nil, fmt.Errorf("health rule %q: %w", name, err)
        }
        rules = append(rules, r)
    }
    return rules, nil
}

// runHealthChecks samples gateway metrics on a fixed interval and feeds them
// to the health engine until ctx is cancelled.
func (s *Server) runHealthChecks(ctx context.Context) {
    interval := s.cfg.HealthCheckEvery
    if interval <= 0 {
        interval = 10 * time.Second
    }
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            s.health.Check(s.metricsSnapshot())
        }
    }
}

// metricsSnapshot reports the gateway metrics health rules are evaluated
// against.
func (s *Server) metricsSnapshot() map[string]float64 {
    s.subsMu.RLock()
    subscribers := len(s.subs)
    s.subsMu.RUnlock()

    total := s.totalChunks.Load()
    dropped := s.droppedChunks.Load()
    var droppedRate float64
    if total > 0 {
        droppedRate = float64(dropped) / float64(total)
    }

    return map[string]float64{
        "subscriber_count":   float64(subscribers),
        "total_chunks":       float64(total),
        "dropped_chunk_rate": droppedRate,
    }
}

// Stream is the hot path: agents push one encoded snapshot per message
// and the gateway acknowledges once the agent closes the send side.
func (s *Server) Stream(stream agentpb.IngestService_StreamServer) error {
    // Optional bearer‑token auth.
    if s.cfg.AuthToken != "" {
        md, ok := metadata.FromIncomingContext(stream.Context())
        if !ok || len(md.Get("authorization")) == 0 {
            return status.Error(codes.Unauthenticated, "missing auth token")
        }
        tok := md.Get("authorization")[0]
        expected := "Bearer " + s.cfg.AuthToken
        if tok != expected {
            return status.Error(codes.PermissionDenied, "invalid auth token")
        }
    }

    // Read chunks until EOF, then ack.
    for {
        chunk, err := stream.Recv()
        if err != nil {
            if status.Code(err) == codes.Canceled || status.Code(err) == codes.Unavailable {
                return nil // client disconnected
            }
            if errors.Is(err, io.EOF) {
                return stream.SendAndClose(&emptypb.Empty{})
            }
            logging.Sugar().Warnw("stream recv", "err", err)
            return err
        }
        s.handleChunk(chunk.Value)
    }
}

// StreamSnapshots is the viewer service endpoint that streams encoded
// snapshots to clients.
func (s *Server) StreamSnapshots(req *emptypb.Empty, stream agentpb.ViewerService_StreamSnapshotsServer) error {
    // Optional bearer‑token auth.
    if s.cfg.AuthToken != "" {
        md, ok := metadata.FromIncomingContext(stream.Context())
        if !ok || len(md.Get("authorization")) == 0 {
            return status.Error(codes.Unauthenticated, "missing auth token")
        }
        tok := md.Get("authorization")[0]
        expected := "Bearer " + s.cfg.AuthToken
        if tok != expected {
            return status.Error(codes.PermissionDenied, "invalid auth token")
        }
    }

    // Create a channel for this subscriber.
    ch := make(chan []byte, 100) // buffered to avoid blocking the gateway
    s.subsMu.Lock()
    s.subs[ch] = struct{}{}
    s.subsMu.Unlock()

    // Clean up when the client disconnects.
    defer func() {
        s.subsMu.Lock()
        delete(s.subs, ch)
        s.subsMu.Unlock()
        close(ch)
    }()

    // Send initial data from retention store.
    for _, data := range s.store.ReadAll() {
        if err := stream.Send(&wrapperspb.BytesValue{Value: data}); err != nil {
            return err
        }
    }

    // Stream new chunks until client disconnects.
    for data := range ch {
        if err := stream.Send(&wrapperspb.BytesValue{Value: data}); err != nil {
            return err
        }
    }

    return nil
}

// enrichChunk decodes a snapshot, attaches correlated span info (if OTEL
// bridging is enabled) and re-encodes it in its original format. Payloads
// this gateway cannot parse (neither the Chrome Trace JSON array nor the
// binary container) pass through unchanged.
func (s *Server) enrichChunk(data []byte) []byte {
    if !s.cfg.EnableOTEL {
        return data
    }
    var events []traceevent.ChromeEvent
    if err := json.Unmarshal(data, &events); err == nil {
        s.otel.attachToEvents(events)
        if out, err := json.Marshal(events); err == nil {
            return out
        }
        return data
    }
    events, err := encoder.DecodeBinary(data)
    if err != nil {
        return data
    }
    s.otel.attachToEvents(events)
    out, err := encoder.EncodeBinary(events)
    if err != nil {
        return data
    }
    return out
}

// handleChunk writes to store and broadcasts to subscribers.
func (s *Server) handleChunk(data []byte) {
    data = s.enrichChunk(data)
    s.totalChunks.Add(1)

    // Persist in ring buffer.
    if err := s.store.Write(data); err != nil {
        logging.Sugar().Warnw("retention write", "err", err)
    }

    // Non‑blocking fan‑out.
    s.subsMu.RLock()
    for ch := range s.subs {
        select {
        case ch <- data:
        default:
            // Skip slow consumer to avoid head‑of‑line blocking.
            s.droppedChunks.Add(1)
            logging.Sugar().Debug("dropping chunk to slow subscriber")
        }
    }
    s.subsMu.RUnlock()
}

// Subscribe registers a UI client.  The caller must drain the returned channel
// and invoke the unregister func when done.
func (s *Server) Subscribe() (ch chan []byte, unregister func()) {
    ch = make(chan []byte, 100) // buffered to avoid blocking the gateway
    s.subsMu.Lock()
    s.subs[ch] = struct{}{}
    s.subsMu.Unlock()

    unregister = func() {
        s.subsMu.Lock()
        delete(s.subs, ch)
        s.subsMu.Unlock()
        close(ch)
    }

    return ch, unregister
}

// Logger returns the *zap.Logger used by the server (delegates to global).
func (s *Server) Logger() *zap.Logger { return logging.Logger() }
