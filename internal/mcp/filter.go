// ABOUTME: Order-preserving JSON field filter for tool call payloads
// ABOUTME: Prunes result.data (or the top-level object) to a requested key set

package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
)

// noteKey annotates filtered payloads so callers can tell the response was
// reduced locally rather than by the upstream.
const noteKey = "_mcp_note"

var (
	errNotObject = errors.New("not a JSON object")
	errNotArray  = errors.New("not a JSON array")
)

// member is one key/value pair of a JSON object, value kept as raw bytes so
// nothing inside it gets re-encoded.
type member struct {
	key string
	val json.RawMessage
}

// filterPayload prunes raw to the given keys. When raw is an object whose
// "data" member is an object or an array of objects, pruning applies inside
// data and every other top-level member passes through; otherwise it applies
// to the top-level object itself. Key order follows the source document. A
// trailing _mcp_note member records the requested keys. Non-object payloads
// and an empty key set pass through untouched.
func filterPayload(raw json.RawMessage, keys []string) (json.RawMessage, bool) {
	if len(keys) == 0 {
		return raw, false
	}
	members, err := objectMembers(raw)
	if err != nil {
		return raw, false
	}

	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		keep[k] = true
	}

	dataIdx := -1
	for i, m := range members {
		if m.key == "data" {
			if b := firstByte(m.val); b == '{' || b == '[' {
				dataIdx = i
			}
			break
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for i, m := range members {
		if m.key == noteKey {
			continue // replaced by the fresh annotation below
		}
		if dataIdx < 0 && !keep[m.key] {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		writeMemberKey(&buf, m.key)
		if i == dataIdx {
			buf.Write(filterData(m.val, keep))
		} else {
			buf.Write(m.val)
		}
	}
	if n > 0 {
		buf.WriteByte(',')
	}
	writeMemberKey(&buf, noteKey)
	note, _ := json.Marshal(map[string][]string{"filtered_by": keys})
	buf.Write(note)
	buf.WriteByte('}')

	return buf.Bytes(), true
}

// filterData prunes a data value: an object directly, or each object element
// of an array. Non-object array elements pass through verbatim.
func filterData(raw json.RawMessage, keep map[string]bool) json.RawMessage {
	switch firstByte(raw) {
	case '{':
		return pruneObject(raw, keep)
	case '[':
		elems, err := arrayElements(raw)
		if err != nil {
			return raw
		}
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, el := range elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if firstByte(el) == '{' {
				buf.Write(pruneObject(el, keep))
			} else {
				buf.Write(el)
			}
		}
		buf.WriteByte(']')
		return buf.Bytes()
	}
	return raw
}

// pruneObject keeps only the listed keys, in their original order.
func pruneObject(raw json.RawMessage, keep map[string]bool) json.RawMessage {
	members, err := objectMembers(raw)
	if err != nil {
		return raw
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for _, m := range members {
		if !keep[m.key] {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		writeMemberKey(&buf, m.key)
		buf.Write(m.val)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// objectMembers splits a JSON object into its members in document order.
func objectMembers(raw []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errNotObject
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		members = append(members, member{key: key, val: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

// arrayElements splits a JSON array into its raw elements.
func arrayElements(raw []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errNotArray
	}

	var elems []json.RawMessage
	for dec.More() {
		var el json.RawMessage
		if err := dec.Decode(&el); err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return elems, nil
}

// firstByte returns the first non-whitespace byte of raw, or 0.
func firstByte(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// writeMemberKey writes a JSON-encoded object key and its separating colon.
func writeMemberKey(buf *bytes.Buffer, key string) {
	b, _ := json.Marshal(key)
	buf.Write(b)
	buf.WriteByte(':')
}
