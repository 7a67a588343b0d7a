// ABOUTME: Embedded Solscan Pro v2 endpoint catalog with alias normalization
// ABOUTME: Parses catalog.toml once at init and serves read-only lookups

package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var rawCatalog string

// Endpoint describes one upstream API endpoint as advertised in the tool
// description.
type Endpoint struct {
	Endpoint string   `toml:"endpoint" json:"endpoint"`
	Required []string `toml:"required" json:"required"`
	Optional []string `toml:"optional" json:"optional"`
	Desc     string   `toml:"desc" json:"desc"`
}

// Group is a named set of endpoints sharing a path prefix.
type Group struct {
	Name      string     `toml:"name"`
	Endpoints []Endpoint `toml:"endpoints"`
}

// Variant is a substring rewrite tried against endpoints that are neither
// aliases nor known endpoints.
type Variant struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

type catalogFile struct {
	Version         string            `toml:"version"`
	Note            string            `toml:"note"`
	Tips            []string          `toml:"tips"`
	AllowedPrefixes []string          `toml:"allowed_prefixes"`
	Aliases         map[string]string `toml:"aliases"`
	Variants        []Variant         `toml:"variants"`
	Groups          []Group           `toml:"groups"`
}

// descriptionHead instructs the model before the raw catalog JSON. Kept
// byte-identical across releases; clients key off it.
const descriptionHead = "Solscan Pro v2 — full method catalog (grouped). " +
	"Call: solscan_v2_call(endpoint='<group/endpoint>', query={...}).\n\n"

var (
	cat             catalogFile
	knownEndpoints  []string
	allowedPrefixes map[string]bool
	description     string
)

func init() {
	if _, err := toml.Decode(rawCatalog, &cat); err != nil {
		panic("catalog: parsing embedded catalog.toml: " + err.Error())
	}

	seen := make(map[string]bool)
	for gi, g := range cat.Groups {
		for ei, e := range g.Endpoints {
			// nil slices would render as JSON null instead of []
			if e.Required == nil {
				cat.Groups[gi].Endpoints[ei].Required = []string{}
			}
			if e.Optional == nil {
				cat.Groups[gi].Endpoints[ei].Optional = []string{}
			}
			if !seen[e.Endpoint] {
				seen[e.Endpoint] = true
				knownEndpoints = append(knownEndpoints, e.Endpoint)
			}
		}
	}
	sort.Strings(knownEndpoints)

	allowedPrefixes = make(map[string]bool, len(cat.AllowedPrefixes))
	for _, p := range cat.AllowedPrefixes {
		allowedPrefixes[p] = true
	}

	for alias, target := range cat.Aliases {
		if !seen[target] {
			panic(fmt.Sprintf("catalog: alias %q points to unknown endpoint %q", alias, target))
		}
	}

	description = renderDescription()
}

// Description returns the full catalog text embedded in the tool descriptor:
// a fixed instruction head followed by the catalog serialized as JSON, with
// groups in the order they appear in the data file.
func Description() string {
	return description
}

// KnownEndpoints returns the sorted canonical endpoint paths.
// The returned slice is shared; callers must not modify it.
func KnownEndpoints() []string {
	return knownEndpoints
}

// Suggestions returns the known endpoints under the given first path
// segment, e.g. Suggestions("account") lists all account/* endpoints.
func Suggestions(head string) []string {
	var out []string
	for _, e := range knownEndpoints {
		if strings.HasPrefix(e, head+"/") {
			out = append(out, e)
		}
	}
	return out
}

// PrefixAllowed reports whether the given first path segment belongs to the
// upstream API surface the gateway is willing to proxy.
func PrefixAllowed(head string) bool {
	return allowedPrefixes[head]
}

// AllowedPrefixes returns the proxyable first path segments in file order.
// The returned slice is shared; callers must not modify it.
func AllowedPrefixes() []string {
	return cat.AllowedPrefixes
}

// Normalize maps an endpoint as given by the client to its canonical form.
// Resolution order: exact alias hit, exact known endpoint, then the fuzzy
// variant rewrites in declared order. Unknown endpoints pass through
// unchanged. The note, when non-empty, explains the rewrite in a form meant
// for the response header; aliased reports whether any rewrite happened.
func Normalize(endpoint string) (canonical, note string, aliased bool) {
	raw := strings.TrimLeft(strings.TrimSpace(endpoint), "/")

	if target, ok := cat.Aliases[raw]; ok {
		return target, fmt.Sprintf("endpoint alias '%s' normalized to '%s'", raw, target), true
	}
	if isKnown(raw) {
		return raw, "", false
	}
	for _, v := range cat.Variants {
		rewritten := strings.ReplaceAll(raw, v.From, v.To)
		if rewritten == raw {
			continue
		}
		if isKnown(rewritten) {
			note := fmt.Sprintf("maybe you meant '%s' (normalized '%s' -> '%s')", v.To, raw, rewritten)
			return rewritten, note, true
		}
	}
	return raw, "", false
}

// isKnown is a binary search over the sorted known endpoint list.
func isKnown(endpoint string) bool {
	i := sort.SearchStrings(knownEndpoints, endpoint)
	return i < len(knownEndpoints) && knownEndpoints[i] == endpoint
}

func renderDescription() string {
	var buf bytes.Buffer
	buf.WriteString(descriptionHead)

	// Hand-built so groups keep file order; Go maps would shuffle them.
	buf.WriteString(`{"version":`)
	writeJSON(&buf, cat.Version)
	buf.WriteString(`,"note":`)
	writeJSON(&buf, cat.Note)
	buf.WriteString(`,"groups":{`)
	for i, g := range cat.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSON(&buf, g.Name)
		buf.WriteByte(':')
		writeJSON(&buf, g.Endpoints)
	}
	buf.WriteString(`},"tips":`)
	writeJSON(&buf, cat.Tips)
	buf.WriteByte('}')

	return buf.String()
}

func writeJSON(buf *bytes.Buffer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic("catalog: rendering description: " + err.Error())
	}
	buf.Write(data)
}
