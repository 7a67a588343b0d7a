// ABOUTME: Static descriptor and argument decoding for the solscan_v2_call tool
// ABOUTME: Owns the fields→select merge and timeout_ms validation

package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2389/solscan-gateway/internal/catalog"
)

// ToolName is the single tool this gateway exposes.
const ToolName = "solscan_v2_call"

// toolInputSchema is the JSON Schema advertised for solscan_v2_call.
const toolInputSchema = `{
  "type": "object",
  "properties": {
    "endpoint": {"type": "string", "description": "e.g. account/detail"},
    "query": {"type": "object", "additionalProperties": true},
    "timeout_ms": {"type": "number"},
    "select": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Keep only these keys in top-level result.data (e.g. ['lamports','solBalance'])."
    }
  },
  "required": ["endpoint"]
}`

// toolDescriptors returns the static tools/list payload. The description
// carries the full rendered endpoint catalog so clients can discover
// endpoints without a separate call.
func toolDescriptors() []MCPToolInfo {
	return []MCPToolInfo{{
		Name:        ToolName,
		Description: catalog.Description(),
		InputSchema: json.RawMessage(toolInputSchema),
	}}
}

// Argument errors that render with specific message texts.
var (
	errEndpointMissing = errors.New("endpoint must be a non-empty string")
	errTimeoutInvalid  = errors.New("timeout_ms must be positive")
)

// CallArgs are the decoded arguments of one solscan_v2_call invocation.
// Query never contains "fields" here: it is consumed into Select during
// decoding and is not forwarded upstream.
type CallArgs struct {
	Endpoint string
	Query    map[string]any
	Timeout  time.Duration // 0 means the upstream client default
	Select   []string      // empty means no filtering
}

// parseCallArgs decodes raw tool arguments. Query values decode with
// json.Number so slot numbers and lamport amounts round-trip losslessly.
func parseCallArgs(raw json.RawMessage) (CallArgs, error) {
	text := string(raw)
	if text == "" || text == "null" {
		text = "{}"
	}

	var wire struct {
		Endpoint  string         `json:"endpoint"`
		Query     map[string]any `json:"query"`
		TimeoutMS json.Number    `json:"timeout_ms"`
		Select    *[]string      `json:"select"`
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return CallArgs{}, err
	}

	args := CallArgs{
		Endpoint: strings.TrimSpace(wire.Endpoint),
		Query:    wire.Query,
	}
	if args.Endpoint == "" {
		return CallArgs{}, errEndpointMissing
	}

	// "fields" is a filter directive, not an upstream parameter: pop it
	// before the query ever reaches the client.
	var fields any
	if args.Query != nil {
		fields = args.Query["fields"]
		delete(args.Query, "fields")
	}

	if wire.Select != nil {
		args.Select = *wire.Select // may be empty; still overrides fields
	} else {
		args.Select = selectFromFields(fields)
	}

	if wire.TimeoutMS != "" {
		timeout, err := timeoutMillis(wire.TimeoutMS)
		if err != nil {
			return CallArgs{}, err
		}
		args.Timeout = timeout
	}

	return args, nil
}

// timeoutMillis converts a timeout_ms JSON number into a duration.
func timeoutMillis(n json.Number) (time.Duration, error) {
	ms, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("timeout_ms: %w", err)
	}
	if ms <= 0 {
		return 0, errTimeoutInvalid
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// selectFromFields derives filter keys from a query "fields" value: either a
// comma-separated string or an array of key names. Other shapes mean no
// filtering.
func selectFromFields(fields any) []string {
	var parts []string
	switch v := fields.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			parts = append(parts, fieldString(item))
		}
	default:
		return nil
	}

	var keys []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// fieldString renders one fields array element as a key name.
func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
