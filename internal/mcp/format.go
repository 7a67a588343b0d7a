// ABOUTME: Renders tool call outcomes into single text content blocks
// ABOUTME: Owns the success/error header lines and byte-capped truncation

package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// upstreamDiagnostic is the JSON block attached to failed upstream calls.
type upstreamDiagnostic struct {
	Requested      string          `json:"requested"`
	Normalized     string          `json:"normalized"`
	Known          []string        `json:"known"`
	UpstreamStatus int             `json:"upstream_status"`
	UpstreamData   json.RawMessage `json:"upstream_data"`
}

// formatSuccess builds the content block for a successful upstream call. The
// header names the canonical endpoint and flags what post-processing ran.
func formatSuccess(endpoint, note string, aliased, filtered bool, payload json.RawMessage, textMax int) MCPCallToolResult {
	body, truncated := truncateText(string(payload), textMax)

	var quals []string
	if aliased {
		quals = append(quals, "alias rewritten")
	}
	if filtered {
		quals = append(quals, "select filter applied")
	}
	if truncated {
		quals = append(quals, "output truncated")
	}

	var b strings.Builder
	b.WriteString("Upstream OK for ")
	b.WriteString(endpoint)
	if len(quals) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(quals, ", "))
		b.WriteString(")")
	}
	b.WriteString(". JSON follows below:")
	if note != "" {
		b.WriteString("\n(note: ")
		b.WriteString(note)
		b.WriteString(")")
	}
	b.WriteString("\n")
	b.WriteString(body)

	return MCPCallToolResult{Content: []MCPContent{{Type: "text", Text: b.String()}}}
}

// formatError builds an isError content block. extra, when non-nil, is
// serialized below the message line.
func formatError(message string, extra any, textMax int) MCPCallToolResult {
	text := "error: " + message
	if extra != nil {
		data, err := json.Marshal(extra)
		if err != nil {
			data = []byte(`{"_mcp_error":"unserializable"}`)
		}
		block, _ := truncateText(string(data), textMax)
		text += "\n" + block
	}
	return MCPCallToolResult{
		Content: []MCPContent{{Type: "text", Text: text}},
		IsError: true,
	}
}

// truncateText enforces the response size cap: cut at max bytes, backed off
// to a rune boundary, with a marker naming how many bytes were dropped.
func truncateText(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	removed := len(s) - cut
	return s[:cut] + fmt.Sprintf("\n...<truncated %d chars>", removed), true
}
