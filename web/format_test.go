package web

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatter_Money(t *testing.T) {
	f := NewFormatter("₦")
	cases := map[string]string{
		"0":           "₦0.00",
		"5":           "₦5.00",
		"1234.56":     "₦1,234.56",
		"1234567.891": "₦1,234,567.89",
		"999.995":     "₦1,000.00",
		"-250.5":      "-₦250.50",
	}
	for in, want := range cases {
		if got := f.Money(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Money(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatter_Date(t *testing.T) {
	f := NewFormatter("$")
	d := time.Date(2026, time.March, 7, 15, 4, 0, 0, time.UTC)
	if got := f.Date(d); got != "Mar 7, 2026" {
		t.Fatalf("unexpected date %q", got)
	}
	if got := f.Date(time.Time{}); got != "" {
		t.Fatalf("zero date should be blank, got %q", got)
	}
	if got := f.Count(12345); got != "12,345" {
		t.Fatalf("unexpected count %q", got)
	}
}
