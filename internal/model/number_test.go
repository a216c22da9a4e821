package model

import (
	"encoding/json"
	"testing"
)

func TestParseLenientNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"2.5", 2.5},
		{"2,5", 2.5},
		{" 10 ", 10},
		{"", 0},
		{"abc", 0},
		{"-1", -1},
	}
	for _, tt := range tests {
		if got := ParseLenientNumber(tt.raw); got != tt.want {
			t.Errorf("ParseLenientNumber(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLenientNumberUnmarshal(t *testing.T) {
	var doc struct {
		Points LenientNumber `json:"points"`
	}

	cases := []struct {
		raw  string
		want float64
	}{
		{`{"points": 1.5}`, 1.5},
		{`{"points": "0,25"}`, 0.25},
		{`{"points": ""}`, 0},
		{`{"points": null}`, 0},
		{`{"points": "junk"}`, 0},
	}
	for _, tt := range cases {
		doc.Points = 0
		if err := json.Unmarshal([]byte(tt.raw), &doc); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if doc.Points.Float() != tt.want {
			t.Errorf("%s → %v, want %v", tt.raw, doc.Points.Float(), tt.want)
		}
	}
}
