// ABOUTME: Gateway orchestrator that owns the HTTP server and its listeners
// ABOUTME: Wires the upstream client into the MCP dispatcher and manages shutdown

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/solscan-gateway/internal/catalog"
	"github.com/2389/solscan-gateway/internal/config"
	"github.com/2389/solscan-gateway/internal/mcp"
	"github.com/2389/solscan-gateway/internal/solscan"
)

// Gateway runs the HTTP front door for the MCP dispatcher. It owns the
// listeners (plain TCP, plus a tailnet listener when enabled), the request
// logging middleware, and graceful shutdown.
type Gateway struct {
	config      *config.Config
	mcpServer   *mcp.Server
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	// logPreview caps request body previews in the access log
	logPreview int
}

// New creates a Gateway from the given configuration. Nothing listens until
// Run is called.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if cfg.Upstream.APIKey == "" {
		logger.Warn("SOLSCAN_API_KEY is empty. Requests may fail with 401.")
	}

	upstream, err := solscan.New(solscan.Config{
		BaseURL:         cfg.Upstream.BaseURL,
		APIKey:          cfg.Upstream.APIKey,
		DefaultTimeout:  cfg.Upstream.DefaultTimeout,
		AllowedPrefixes: catalog.AllowedPrefixes(),
		Logger:          logger,
		LogPreview:      cfg.Limits.LogPreview,
	})
	if err != nil {
		return nil, fmt.Errorf("creating upstream client: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Upstream:   upstream,
		Logger:     logger,
		LogPreview: cfg.Limits.LogPreview,
		TextMax:    cfg.Limits.TextMax,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	gw := &Gateway{
		config:     cfg,
		mcpServer:  mcpServer,
		logger:     logger.With("component", "gateway"),
		logPreview: cfg.Limits.LogPreview,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", gw.handleRoot)
	if cfg.Server.MountPath != "/" {
		mux.HandleFunc(cfg.Server.MountPath, gw.handleMount)
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           gw.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// handleRoot serves the bare path. The root doubles as an alias for the
// mount path so probes and clients that ignore mount_path still work.
func (g *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	g.serveMount(w, r)
}

func (g *Gateway) handleMount(w http.ResponseWriter, r *http.Request) {
	g.serveMount(w, r)
}

// serveMount dispatches by method: GET answers the health probe, POST is
// JSON-RPC.
func (g *Gateway) serveMount(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.handleHealth(w, r)
	case http.MethodPost:
		g.mcpServer.HandleRPC(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleHealth reports liveness and where JSON-RPC is mounted.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":   true,
		"path": g.config.Server.MountPath,
	})
}

// replayBody restores peeked bytes in front of the unread remainder.
type replayBody struct {
	io.Reader
	io.Closer
}

// logRequests attaches a correlation ID to every request and logs it on the
// way in and out. POST bodies are previewed without consuming them.
func (g *Gateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := g.logger.With("request_id", uuid.NewString())

		remote := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			remote = host
		}

		attrs := []any{"method", r.Method, "path", r.URL.Path, "remote", remote}
		if r.Method == http.MethodPost && r.Body != nil {
			peek, _ := io.ReadAll(io.LimitReader(r.Body, int64(g.logPreview)+1))
			r.Body = replayBody{io.MultiReader(bytes.NewReader(peek), r.Body), r.Body}
			attrs = append(attrs, "body", preview(string(peek), g.logPreview))
		}
		logger.Info("HTTP IN", attrs...)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("HTTP OUT", "method", r.Method, "path", r.URL.Path, "status", rec.status)
	})
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Run starts the gateway and blocks until the context is canceled or a
// server fails. Returns nil on graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	listeners, err := g.setupListeners(ctx)
	if err != nil {
		return err
	}

	errCh := g.startServers(listeners)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// setupListeners opens the TCP listener, plus the tailnet listener when
// tailscale is enabled.
func (g *Gateway) setupListeners(ctx context.Context) ([]net.Listener, error) {
	tcpLn, err := net.Listen("tcp", g.config.Server.Addr())
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", g.config.Server.Addr(), err)
	}
	listeners := []net.Listener{tcpLn}

	if g.config.Tailscale.Enabled {
		tsLn, err := g.setupTailscaleListener(ctx)
		if err != nil {
			_ = tcpLn.Close()
			return nil, err
		}
		listeners = append(listeners, tsLn)
	}

	return listeners, nil
}

// startServers serves every listener on the shared HTTP server, returning
// an error channel sized to the listener count.
func (g *Gateway) startServers(listeners []net.Listener) chan error {
	errCh := make(chan error, len(listeners))

	for _, ln := range listeners {
		go func() {
			g.logger.Info("HTTP server listening", "addr", ln.Addr().String(), "mount_path", g.config.Server.MountPath)
			if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("HTTP server: %w", err)
			}
		}()
	}

	return errCh
}

// waitForShutdownSignal waits for context cancellation or a server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		g.drainErrors(errCh)
		return err
	}
}

// drainErrors drains any remaining errors from the channel.
func (g *Gateway) drainErrors(errCh chan error) {
	select {
	case additionalErr := <-errCh:
		g.logger.Error("additional server error", "error", additionalErr)
	default:
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "solscan-gateway", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable (get one at https://login.tailscale.com/admin/settings/keys)")
	}
	return authKey, nil
}

// setupTailscaleListener brings up the tsnet node and listens on its :80.
func (g *Gateway) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	g.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		g.tsnetServer = nil
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	g.logTailscaleStatus(tsCfg.Hostname, status)

	ln, err := g.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		_ = g.tsnetServer.Close()
		g.tsnetServer = nil
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the HTTP server and the tailnet node.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// preview truncates s for log output.
func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…<truncated>"
}
