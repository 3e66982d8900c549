package database

import (
	"github.com/shopspring/decimal"
	"gopkg.in/inf.v0"
)

// Les prix sont stockés en CQL decimal : gocql lit et écrit des *inf.Dec.

func toCQLDecimal(d decimal.Decimal) *inf.Dec {
	exp := d.Exponent()
	if exp > 0 {
		return inf.NewDecBig(d.Shift(0).BigInt(), 0)
	}
	return inf.NewDecBig(d.Coefficient(), inf.Scale(-exp))
}

func fromCQLDecimal(d *inf.Dec) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(d.UnscaledBig(), -int32(d.Scale()))
}
