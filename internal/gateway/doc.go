// Package gateway wires the MCP dispatcher into an HTTP server and manages
// its lifecycle.
//
// # HTTP surface
//
// JSON-RPC is served at the configured mount path (default /mcp). The bare
// root path serves the same handler, so POST / works for clients that
// ignore mount_path. GET on either path answers a health probe with
// {"ok": true, "path": "<mount_path>"}; any other method gets 405 with an
// Allow header. Every other path is 404.
//
// # Listeners
//
// Run always listens on the configured TCP address. When tailscale.enabled
// is set, a tsnet node is brought up as well and the same HTTP server also
// serves the tailnet on :80. Node state lives under the configured
// state_dir (default ~/.local/share/solscan-gateway/tailscale) and the auth
// key comes from the config file or TS_AUTHKEY.
//
// # Request logging
//
// A middleware assigns each request a UUID correlation ID and logs method,
// path, and remote host on the way in (plus a body preview for POSTs, which
// are replayed so handlers see the full body) and the status code on the
// way out.
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	go gw.Run(ctx)
//
// Graceful shutdown:
//
//	cancel()
//
// Run returns nil after cancellation once the server has drained, bounded
// by a five second shutdown deadline.
package gateway
