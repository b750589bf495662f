package shared

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places kept for every stored amount.
const MoneyScale = 2

// RoundMoney rounds an amount to currency precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// MaxZero floors an amount at zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
