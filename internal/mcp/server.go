// ABOUTME: Stateless JSON-RPC 2.0 dispatcher for initialize, tools/list, tools/call
// ABOUTME: In-call failures render as isError text blocks, never JSON-RPC errors

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/2389/solscan-gateway/internal/catalog"
	"github.com/2389/solscan-gateway/internal/solscan"
)

// Config holds settings for the MCP dispatcher.
type Config struct {
	// Upstream executes the Solscan calls. Required.
	Upstream *solscan.Client

	// Logger receives JSON-RPC in/out logging. Defaults to slog.Default().
	Logger *slog.Logger

	// LogPreview caps logged body previews; TextMax caps response text.
	// Zero values pick the built-in defaults.
	LogPreview int
	TextMax    int
}

// Server routes JSON-RPC requests to the gateway's single tool. It is
// stateless: no sessions, no handshake tracking. Every request carries
// everything it needs.
type Server struct {
	upstream   *solscan.Client
	logger     *slog.Logger
	logPreview int
	textMax    int
}

// NewServer creates an MCP dispatcher from the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Upstream == nil {
		return nil, errors.New("upstream client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logPreview := cfg.LogPreview
	if logPreview <= 0 {
		logPreview = 2000
	}

	textMax := cfg.TextMax
	if textMax <= 0 {
		textMax = 200000
	}

	return &Server{
		upstream:   cfg.Upstream,
		logger:     logger.With("component", "mcp"),
		logPreview: logPreview,
		textMax:    textMax,
	}, nil
}

// HandleRPC serves one JSON-RPC POST. The gateway mounts it on every path
// that accepts RPC traffic.
func (s *Server) HandleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendJSONRPCError(w, nil, JSONRPCParseError, "failed to read request body", "parse")
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendJSONRPCError(w, nil, JSONRPCInvalidRequest, "request body too large", "parse")
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendJSONRPCError(w, nil, JSONRPCParseError, "invalid JSON", "parse")
		return
	}

	s.logger.Info("JSON-RPC IN",
		"method", req.Method,
		"body", preview(string(body), s.logPreview),
	)

	if req.JSONRPC != "2.0" {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version", "parse")
		return
	}
	if req.Method == "" {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidRequest, "method is required", "parse")
		return
	}

	// Notifications get no response body, whatever the method.
	if isNotification := len(req.ID) == 0 || string(req.ID) == "null"; isNotification {
		if strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Debug("accepted MCP notification", "method", req.Method)
		} else {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req)
	case "tools/list":
		s.handleToolsList(w, req)
	case "tools/call":
		s.handleToolsCall(r.Context(), w, req)
	default:
		s.sendJSONRPCError(w, req.ID, JSONRPCMethodNotFound, "Unsupported method: "+req.Method, "unsupported")
	}
}

// handleInitialize negotiates the protocol version and reports server
// identity. No session is created; initialize is answerable any number of
// times.
func (s *Server) handleInitialize(w http.ResponseWriter, req JSONRPCRequest) {
	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, "invalid params", "initialize:error")
			return
		}
	}

	version := params.ProtocolVersion
	if version == "" {
		version = latestProtocolVersion
	} else if !supportedProtocolVersions[version] {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams,
			"Unsupported protocolVersion. Supported: "+strings.Join(versionList(), ", "),
			"initialize:error")
		return
	}

	result := map[string]any{
		"protocolVersion": version,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": serverVersion,
		},
	}
	s.sendJSONRPCResult(w, req.ID, result, "initialize")
}

// handleToolsList returns the static single-tool list.
func (s *Server) handleToolsList(w http.ResponseWriter, req JSONRPCRequest) {
	result := MCPListToolsResult{Tools: toolDescriptors()}
	s.sendJSONRPCResult(w, req.ID, result, "tools/list")
}

// handleToolsCall validates the tool name and runs the call pipeline. A bad
// name is the only in-call condition that surfaces as a JSON-RPC error.
func (s *Server) handleToolsCall(ctx context.Context, w http.ResponseWriter, req JSONRPCRequest) {
	var params MCPCallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, "invalid params", "tools/call")
			return
		}
	}

	if params.Name != ToolName {
		s.sendJSONRPCError(w, req.ID, JSONRPCMethodNotFound, "Unknown tool: "+params.Name, "tools/call")
		return
	}

	result := s.callTool(ctx, params.Arguments)
	tag := ToolName
	if result.IsError {
		tag += ":error"
	}
	s.sendJSONRPCResult(w, req.ID, result, tag)
}

// callTool runs the proxy pipeline for one invocation: decode arguments,
// normalize the endpoint, call upstream, filter, format.
func (s *Server) callTool(ctx context.Context, rawArgs json.RawMessage) MCPCallToolResult {
	args, err := parseCallArgs(rawArgs)
	switch {
	case errors.Is(err, errEndpointMissing):
		return formatError("endpoint must be a non-empty string.\nSee catalog in the tool description (tools/list) for available endpoints.", nil, s.textMax)
	case errors.Is(err, errTimeoutInvalid):
		return formatError("timeout_ms must be positive", nil, s.textMax)
	case err != nil:
		return formatError("invalid arguments: "+err.Error(), nil, s.textMax)
	}

	endpoint, note, aliased := catalog.Normalize(args.Endpoint)
	res := s.upstream.Get(ctx, endpoint, args.Query, args.Timeout)
	if !res.OK() {
		return s.upstreamError(args.Endpoint, endpoint, res)
	}

	payload, filtered := filterPayload(res.Body, args.Select)
	return formatSuccess(endpoint, note, aliased, filtered, payload, s.textMax)
}

// upstreamError renders a failed upstream call with its diagnostic JSON:
// what was requested, what it normalized to, nearby known endpoints, and
// whatever the upstream sent back.
func (s *Server) upstreamError(requested, normalized string, res solscan.Result) MCPCallToolResult {
	head, _, _ := strings.Cut(normalized, "/")
	known := catalog.Suggestions(head)
	if len(known) > 10 {
		known = known[:10]
	}
	if known == nil {
		known = []string{}
	}

	var message string
	switch res.Status {
	case solscan.StatusTimeout:
		message = fmt.Sprintf("upstream timeout after %s", res.Timeout)
	case solscan.StatusNetworkError:
		message = "upstream request failed"
	case solscan.StatusMalformedBody:
		message = "upstream returned invalid JSON"
	default:
		message = "upstream error"
		if res.HTTPStatus == http.StatusNotFound {
			message = "endpoint not found upstream (did you mean one of the known endpoints?)"
		}
	}

	return formatError(message, upstreamDiagnostic{
		Requested:      requested,
		Normalized:     normalized,
		Known:          known,
		UpstreamStatus: res.HTTPStatus,
		UpstreamData:   res.Body,
	}, s.textMax)
}

// versionList returns the supported protocol versions in ascending order.
func versionList() []string {
	versions := make([]string, 0, len(supportedProtocolVersions))
	for v := range supportedProtocolVersions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// sendJSONRPCResult sends a successful JSON-RPC response.
func (s *Server) sendJSONRPCResult(w http.ResponseWriter, id json.RawMessage, result any, tag string) {
	s.writeResponse(w, JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}, tag)
}

// sendJSONRPCError sends a JSON-RPC error response. A nil id renders as JSON
// null, for requests whose id could not be read.
func (s *Server) sendJSONRPCError(w http.ResponseWriter, id json.RawMessage, code int, message, tag string) {
	s.writeResponse(w, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}, tag)
}

func (s *Server) writeResponse(w http.ResponseWriter, resp JSONRPCResponse, tag string) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode JSON-RPC response", "tag", tag, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("JSON-RPC OUT",
		"tag", tag,
		"body", preview(string(data), s.logPreview),
	)

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write JSON-RPC response", "tag", tag, "error", err)
	}
}

// preview truncates s for log output.
func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…<truncated>"
}
