package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1.5", 150},
		{"1.50", 150},
		{"2", 200},
		{"0.99", 99},
		{".5", 50},
		{"3.", 300},
		{"+4.25", 425},
		{"-0", 0},
		{"1.230", 123},
		{" 7.1 ", 710},
		{"1e1", 1000},
		{"2.5E-1", 25},
	}
	for _, tc := range cases {
		got, err := ParsePrice(tc.in)
		if err != nil {
			t.Fatalf("ParsePrice(%q): unexpected error %v", tc.in, err)
		}
		if got.Cents() != tc.want {
			t.Fatalf("ParsePrice(%q) = %d cents, want %d", tc.in, got.Cents(), tc.want)
		}
	}
}

func TestParsePrice_Rejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1.234", "-1", "-0.01", ".", "1,5", "1e-3", "NaN", "Infinity", "1e999999999", "0x10", "1.000000000000000000000001"} {
		if _, err := ParsePrice(in); !errors.Is(err, ErrValidation) {
			t.Errorf("ParsePrice(%q): expected ErrValidation, got %v", in, err)
		}
	}
}

func TestPrice_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Price Price `json:"price"`
	}{Price: 150})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"price":1.50}` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var in struct {
		Price *Price `json:"price"`
	}
	for raw, want := range map[string]int64{
		`{"price":1.5}`:    150,
		`{"price":"2.25"}`: 225,
		`{"price":0}`:      0,
	} {
		in.Price = nil
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if in.Price == nil || in.Price.Cents() != want {
			t.Fatalf("unmarshal %s: got %v, want %d cents", raw, in.Price, want)
		}
	}

	if err := json.Unmarshal([]byte(`{"price":1.005}`), &in); err == nil {
		t.Fatalf("expected three decimals to be rejected")
	}
}
