package enumcodec

import (
	"encoding/json"
	"reflect"
	"testing"
)

var statuses = []string{"WAITING", "IN_PROGRESS", "COMPLETED", "CANCELLED"}

func TestDecode_ValidLabel(t *testing.T) {
	got := Decode("IN_PROGRESS", statuses, "WAITING")
	if got != "IN_PROGRESS" {
		t.Fatalf("expected IN_PROGRESS, got %s", got)
	}
}

func TestDecode_Totality(t *testing.T) {
	inputs := []any{
		"BOGUS", "", nil, 42, 3.14, true,
		[]string{"WAITING"}, map[string]string{"a": "b"},
	}
	for _, in := range inputs {
		got := Decode(in, statuses, "WAITING")
		if got != "WAITING" {
			t.Fatalf("input %v: expected fallback WAITING, got %s", in, got)
		}
	}
}

func TestDecodeIndexed(t *testing.T) {
	table := []string{"NORMAL", "URGENT", "EMERGENCY"}

	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"int", 1, "URGENT"},
		{"int64", int64(2), "EMERGENCY"},
		{"float", float64(0), "NORMAL"},
		{"json number", json.Number("1"), "URGENT"},
		{"numeric string", "2", "EMERGENCY"},
		{"negative", -1, "NORMAL"},
		{"out of range", 99, "NORMAL"},
		{"fractional", 1.5, "NORMAL"},
		{"garbage string", "urgent", "NORMAL"},
		{"nil", nil, "NORMAL"},
		{"wrong type", []int{1}, "NORMAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodeIndexed(tc.value, table, "NORMAL")
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEncode_Identity(t *testing.T) {
	if Encode("COMPLETED") != "COMPLETED" {
		t.Fatal("encode must be identity over validated labels")
	}
}

func TestDecodeSet_DropsUnknownAndDedupes(t *testing.T) {
	equipment := []string{"OXYGEN", "MONITOR", "VENTILATOR", "IV_PUMP"}

	got := DecodeSet([]any{"FOO", "OXYGEN", "OXYGEN", "MONITOR"}, equipment)
	want := []string{"OXYGEN", "MONITOR"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDecodeSet_JSONString(t *testing.T) {
	equipment := []string{"OXYGEN", "MONITOR"}

	got := DecodeSet(`["MONITOR","BOGUS"]`, equipment)
	want := []string{"MONITOR"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDecodeSet_MalformedInput(t *testing.T) {
	equipment := []string{"OXYGEN"}

	inputs := []any{nil, "not json", `{"a":1}`, 42, true}
	for _, in := range inputs {
		got := DecodeSet(in, equipment)
		if len(got) != 0 {
			t.Fatalf("input %v: expected empty set, got %v", in, got)
		}
		if got == nil {
			t.Fatalf("input %v: expected non-nil empty set", in)
		}
	}
}

func TestDecodeSet_RoundTrip(t *testing.T) {
	equipment := []string{"OXYGEN", "MONITOR", "VENTILATOR"}

	in := []string{"OXYGEN", "FOO", "VENTILATOR", "OXYGEN"}
	got := DecodeSet(EncodeSet(in), equipment)
	want := []string{"OXYGEN", "VENTILATOR"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
