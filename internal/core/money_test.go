package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12", 1200, true},
		{"12.3", 1230, true},
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.344", 1234, true},
		{"12.345", 1235, true},
		{"12.346", 1235, true},
		{" 1100 ", 110000, true},
		{"0", 0, false},
		{"0.00", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseDecimalToCents(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("%q => got %d,%v want %d,nil", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("%q => expected error, got %d", c.in, got)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 123450})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "1234.5" {
		t.Fatalf("marshal = %s, want 1234.5", b)
	}

	var m Money
	if err := json.Unmarshal([]byte("-800.25"), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Cents != -80025 {
		t.Fatalf("cents = %d, want -80025", m.Cents)
	}
}

func TestMoneyUnmarshalIsNullSafe(t *testing.T) {
	inputs := []string{`null`, `""`, `"abc"`, `{}`, `true`, `1e30`, `"-99999999999999999999"`}
	for _, in := range inputs {
		m := Money{Cents: 99}
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if m.Cents != 0 {
			t.Fatalf("%s: cents = %d, want 0", in, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"12,50"`), &m); err != nil || m.Cents != 1250 {
		t.Fatalf("numeric string: cents=%d err=%v", m.Cents, err)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 500}
	b := Money{Cents: -200}
	if got := a.Add(b); got.Cents != 300 {
		t.Fatalf("Add = %d", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 700 {
		t.Fatalf("Sub = %d", got.Cents)
	}
	if got := b.Abs(); got.Cents != 200 {
		t.Fatalf("Abs = %d", got.Cents)
	}
	if got := NewMoney(11.005); got.Cents != 1101 && got.Cents != 1100 {
		t.Fatalf("NewMoney = %d", got.Cents)
	}
	if got := (Money{Cents: 1100}).String(); got != "11.00" {
		t.Fatalf("String = %q", got)
	}
}
