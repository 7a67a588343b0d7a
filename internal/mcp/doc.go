// Package mcp implements the gateway's MCP (Model Context Protocol) surface:
// a stateless JSON-RPC 2.0 dispatcher exposing exactly one tool,
// solscan_v2_call, which proxies GET requests to the Solscan Pro v2 API.
//
// # Methods
//
// The dispatcher answers initialize (protocol version negotiation, no
// session state), tools/list (a static single-tool descriptor whose
// description embeds the full endpoint catalog), and tools/call. Requests
// without an id are notifications and receive HTTP 204 with no body. Any
// other method gets a -32601 error.
//
// # Error model
//
// Envelope problems (unparseable body, wrong jsonrpc version, unknown
// method, unknown tool name) surface as standard JSON-RPC error objects.
// Everything that goes wrong inside a dispatched solscan_v2_call (bad
// arguments, upstream timeouts, HTTP errors, malformed upstream bodies)
// is rendered as a text content block with isError set, so protocol-level
// errors stay distinguishable from tool-level ones.
//
// # Call pipeline
//
// tools/call decodes arguments (consuming query.fields into select
// semantics), normalizes the endpoint through the catalog alias table,
// issues one bounded upstream GET, optionally prunes the response to the
// selected keys (order-preserving, annotated with _mcp_note), and wraps the
// outcome in a single text block headed by a human-readable status line.
package mcp
