package client

import (
	"bytes"
	"encoding/json"
)

// wrapperKeys are the envelope names list payloads are known to hide under,
// in priority order. The same unwrapping runs for every list endpoint so the
// client survives backend response-shape drift without per-endpoint casing.
var wrapperKeys = []string{
	"data",
	"items",
	"results",
	"challenges",
	"userDtoList",
	"users",
	"activities",
	"logs",
	"entries",
	"leaderboard",
}

// member is one key/value pair of a JSON object in document order.
// encoding/json maps drop ordering, and the unwrap rules are first-match,
// so objects are scanned token by token instead.
type member struct {
	key   string
	value json.RawMessage
}

// objectMembers parses raw as a JSON object and returns its members in
// document order. Returns nil if raw is not an object.
func objectMembers(raw []byte) []member {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil
		}
		members = append(members, member{key: key, value: value})
	}
	return members
}

func lookup(members []member, key string) (json.RawMessage, bool) {
	for _, m := range members {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeArray(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items
}

// unwrapList locates the payload array inside an arbitrary list response.
// Resolution order: the body itself if it is already an array; a known
// wrapper key, including one level of nesting (e.g. data.items); the first
// array among the values of a HAL-style _embedded object; the first
// array-valued property anywhere on the object. An empty slice is returned
// when nothing array-valued exists, so callers always get a valid sequence.
func unwrapList(raw []byte) []json.RawMessage {
	if isArray(raw) {
		return decodeArray(raw)
	}

	members := objectMembers(raw)
	if members == nil {
		return []json.RawMessage{}
	}

	for _, key := range wrapperKeys {
		value, ok := lookup(members, key)
		if !ok {
			continue
		}
		if isArray(value) {
			return decodeArray(value)
		}
		if isObject(value) {
			inner := objectMembers(value)
			for _, innerKey := range wrapperKeys {
				if innerValue, ok := lookup(inner, innerKey); ok && isArray(innerValue) {
					return decodeArray(innerValue)
				}
			}
		}
	}

	if embedded, ok := lookup(members, "_embedded"); ok && isObject(embedded) {
		for _, m := range objectMembers(embedded) {
			if isArray(m.value) {
				return decodeArray(m.value)
			}
		}
	}

	// Last resort: first array-valued property in document order.
	for _, m := range members {
		if isArray(m.value) {
			return decodeArray(m.value)
		}
	}

	return []json.RawMessage{}
}

// unwrapObject returns the meaningful object of a single-resource response:
// the value of a known wrapper key when it holds an object, otherwise the
// body itself. Returns an empty map for non-object bodies.
func unwrapObject(raw []byte) map[string]interface{} {
	members := objectMembers(raw)

	for _, key := range []string{"data", "result"} {
		if value, ok := lookup(members, key); ok && isObject(value) {
			var obj map[string]interface{}
			if err := json.Unmarshal(value, &obj); err == nil {
				return obj
			}
		}
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return map[string]interface{}{}
	}
	return obj
}

// decodeItem parses one element of an unwrapped list as a generic object.
func decodeItem(raw json.RawMessage) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return map[string]interface{}{}
	}
	return obj
}
