package loan

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMonthlyPayment(t *testing.T) {
	cases := []struct {
		name      string
		principal string
		rate      string
		months    int
		want      string
	}{
		{"twelve percent one year", "100000", "12", 12, "8884.88"},
		{"zero rate splits evenly", "120000", "0", 12, "10000"},
		{"zero rate rounds", "1000", "0", 3, "333.33"},
		{"single installment", "5000", "24", 1, "5100"},
		{"fractional rate", "250000", "7.5", 24, "11249.9"},
		{"no term", "1000", "10", 0, "0"},
		{"no principal", "0", "10", 12, "0"},
		{"negative rate", "1000", "-1", 12, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MonthlyPayment(decimal.RequireFromString(tc.principal), decimal.RequireFromString(tc.rate), tc.months)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestLoan_Totals(t *testing.T) {
	l := Loan{
		Principal:  decimal.RequireFromString("100000"),
		AnnualRate: decimal.RequireFromString("12"),
		TermMonths: 12,
	}
	if got := l.TotalPayable(); !got.Equal(decimal.RequireFromString("106618.56")) {
		t.Fatalf("unexpected total payable %s", got)
	}
	if got := l.TotalInterest(); !got.Equal(decimal.RequireFromString("6618.56")) {
		t.Fatalf("unexpected total interest %s", got)
	}
}

func TestStatus_Label(t *testing.T) {
	if StatusActive.Label() != "Active" || StatusRejected.Label() != "Rejected" {
		t.Fatal("unexpected labels")
	}
	if Status("frozen").Label() != "frozen" {
		t.Fatal("unknown statuses should pass through")
	}
}
