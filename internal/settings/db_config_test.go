package settings

import (
	"encoding/json"
	"testing"
)

func TestParseConfigIntShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`5`, 5, true},
		{`"5"`, 5, true},
		{`" 7 "`, 7, true},
		{`5.0`, 5, true},
		{`{"value": 9}`, 9, true},
		{`{"value": "11"}`, 11, true},
		{`5.5`, 0, false},
		{`"abc"`, 0, false},
		{`null`, 0, false},
		{``, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseConfigInt(json.RawMessage(tc.raw))
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseConfigInt(%q) = (%d, %v), want (%d, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIntValueFallsBackWhenUnsetOrMalformed(t *testing.T) {
	StoreDBConfig(map[string]json.RawMessage{
		ReserveMaxRetriesKey: json.RawMessage(`5`),
		"broken":             json.RawMessage(`"nope"`),
		"nulled":             json.RawMessage(`null`),
	})
	t.Cleanup(func() {
		StoreDBConfig(nil)
	})

	if got := IntValue(ReserveMaxRetriesKey, DefaultReserveMaxRetries); got != 5 {
		t.Fatalf("expected stored value 5, got %d", got)
	}
	if got := IntValue("broken", 42); got != 42 {
		t.Fatalf("expected fallback for malformed value, got %d", got)
	}
	if got := IntValue("missing", 42); got != 42 {
		t.Fatalf("expected fallback for missing key, got %d", got)
	}
	// A nulled setting falls back instead of becoming zero.
	if got := IntValue("nulled", 42); got != 42 {
		t.Fatalf("expected fallback for nulled value, got %d", got)
	}
}

func TestStoreDBConfigCopiesValues(t *testing.T) {
	raw := json.RawMessage(`123`)
	StoreDBConfig(map[string]json.RawMessage{"k": raw})
	t.Cleanup(func() {
		StoreDBConfig(nil)
	})

	raw[0] = '9'

	got, ok := DBConfigValue("k")
	if !ok {
		t.Fatalf("expected key present")
	}
	if string(got) != "123" {
		t.Fatalf("snapshot aliased caller data: %s", got)
	}
}
