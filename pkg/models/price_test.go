package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want Price
	}{
		{"100000.00", 10000000},
		{"100000", 10000000},
		{"12.5", 1250},
		{"0", 0},
		{"0.07", 7},
		{"99999999.99", MaxPrice},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if err != nil {
			t.Errorf("ParsePrice(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrice(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParsePriceRejects(t *testing.T) {
	for _, in := range []string{"", "-1.00", "1.234", "abc", "1.", ".5", "100000000.00", "1e5"} {
		if _, err := ParsePrice(in); !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("ParsePrice(%q): expected ErrInvalidPrice, got %v", in, err)
		}
	}
}

func TestPriceString(t *testing.T) {
	if s := Price(10000000).String(); s != "100000.00" {
		t.Errorf("expected 100000.00, got %s", s)
	}
	if s := Price(5).String(); s != "0.05" {
		t.Errorf("expected 0.05, got %s", s)
	}
}

func TestPriceJSON(t *testing.T) {
	data, err := json.Marshal(Property{Title: "P1", Price: 20000000})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["price"] != "200000.00" {
		t.Errorf("expected price as string 200000.00, got %v", raw["price"])
	}

	var in PropertyInput
	if err := json.Unmarshal([]byte(`{"title":"x","price":150000.5,"location":"y"}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.Price != 15000050 {
		t.Errorf("expected 15000050 cents from bare number, got %d", in.Price)
	}
	if err := json.Unmarshal([]byte(`{"price":"12.345"}`), &in); err == nil {
		t.Error("expected error for three fractional digits")
	}
}

func TestPropertyString(t *testing.T) {
	p := Property{Title: "Test Property", Location: "Test City"}
	if p.String() != "Test Property - Test City" {
		t.Errorf("unexpected string: %s", p.String())
	}
}
