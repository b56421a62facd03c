// Package render formats ledger data for the terminal. Tables are built as
// markdown and drawn by glamour; amounts are formatted by go-money in the
// configured currency.
package render

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats amounts in one currency.
type Money struct {
	currency *money.Currency
}

// NewMoney returns a formatter for the ISO 4217 code, e.g. "USD".
func NewMoney(code string) (Money, error) {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if cur == nil {
		return Money{}, fmt.Errorf("render: unknown currency %q", code)
	}
	return Money{currency: cur}, nil
}

// Format displays amount rounded to the currency's minor unit, e.g. "$1,234.50".
func (m Money) Format(amount float64) string {
	return m.value(amount).Display()
}

// Signed is Format with an explicit "+" on positive amounts.
func (m Money) Signed(amount float64) string {
	v := m.value(amount)
	if v.IsPositive() {
		return "+" + v.Display()
	}
	return v.Display()
}

func (m Money) value(amount float64) *money.Money {
	factor := decimal.New(1, int32(m.currency.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, m.currency.Code)
}
