package loan

import "github.com/shopspring/decimal"

var (
	one         = decimal.NewFromInt(1)
	monthlyBase = decimal.NewFromInt(1200)
)

// MonthlyPayment computes the level installment of a fully amortising loan:
//
//	P·r / (1 − (1 + r)^−n),  r = annualRate / 1200
//
// annualRate is a percentage. A zero rate splits the principal evenly. The
// result is rounded half away from zero to two places.
func MonthlyPayment(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 || principal.Sign() <= 0 || annualRate.Sign() < 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(months))
	if annualRate.IsZero() {
		return principal.Div(n).Round(2)
	}

	r := annualRate.Div(monthlyBase)
	growth := one.Add(r).Pow(n)
	return principal.Mul(r).Mul(growth).Div(growth.Sub(one)).Round(2)
}
