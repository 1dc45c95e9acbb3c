package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

type member struct {
	Key   string
	Value json.RawMessage
}

// objectMembers reads a JSON object keeping key order. b must be exactly one
// valid JSON value; ok is false when that value is not an object. A repeated
// key keeps its first position and its last value.
func objectMembers(b []byte) (members []member, ok bool, err error) {
	if !json.Valid(b) {
		return nil, false, errors.New("invalid json")
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}
	if d, isDelim := tok.(json.Delim); !isDelim || d != '{' {
		return nil, false, nil
	}
	index := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false, err
		}
		key, _ := keyTok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false, err
		}
		if i, dup := index[key]; dup {
			members[i].Value = v
			continue
		}
		index[key] = len(members)
		members = append(members, member{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, false, err
	}
	return members, true, nil
}

func lookup(members []member, key string) (json.RawMessage, bool) {
	for _, m := range members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// stringValue returns v as a string when it is a JSON string, or the literal
// text of a JSON number. Anything else is "".
func stringValue(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(v)
	default:
		return ""
	}
}

// isIndexKey reports whether key is a canonical non-negative integer label
// ("0", "7", "12" but not "01" or "-1").
func isIndexKey(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}
