package settings

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// dbConfig holds the current settings snapshot as a map from key to raw
// JSON value. It is replaced wholesale on refresh and never mutated, so
// readers on the reservation hot path take no lock.
var dbConfig atomic.Value // stores map[string]json.RawMessage

func init() {
	dbConfig.Store(map[string]json.RawMessage{})
}

// StoreDBConfig replaces the settings snapshot. Keys are trimmed; values
// are copied so callers cannot alias the stored state.
func StoreDBConfig(values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if v == nil {
			next[key] = nil
			continue
		}
		copied := make([]byte, len(v))
		copy(copied, v)
		next[key] = copied
	}
	dbConfig.Store(next)
}

// DBConfigValue returns a copy of the raw value for a key.
func DBConfigValue(key string) (json.RawMessage, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	values, _ := dbConfig.Load().(map[string]json.RawMessage)
	val, ok := values[key]
	if !ok {
		return nil, false
	}
	if val == nil {
		return nil, true
	}
	copied := make([]byte, len(val))
	copy(copied, val)
	return copied, true
}

// IntValue returns an integer setting, falling back when unset or malformed.
func IntValue(key string, fallback int) int {
	raw, ok := DBConfigValue(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseConfigInt(raw)
	if !okParse {
		return fallback
	}
	return parsed
}

// parseConfigInt accepts raw numbers, stringified numbers and {"value": ...}
// wrappers, since admin tooling has stored all three shapes over time.
func parseConfigInt(raw json.RawMessage) (int, bool) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		// A nulled setting means "unset", not zero.
		return 0, false
	}
	var n int
	if errUnmarshal := json.Unmarshal(raw, &n); errUnmarshal == nil {
		return n, true
	}
	var f float64
	if errUnmarshal := json.Unmarshal(raw, &f); errUnmarshal == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(s))
		if errParse == nil {
			return parsed, true
		}
	}
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if errUnmarshal := json.Unmarshal(raw, &wrapper); errUnmarshal == nil && len(wrapper.Value) > 0 {
		return parseConfigInt(wrapper.Value)
	}
	return 0, false
}
