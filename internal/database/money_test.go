package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gopkg.in/inf.v0"
)

func TestCQLDecimal(t *testing.T) {
	for _, s := range []string{"0", "12.5", "0.1", "19.99", "1234567890123456789.000001", "-3.30"} {
		d := decimal.RequireFromString(s)
		got := fromCQLDecimal(toCQLDecimal(d))
		assert.True(t, d.Equal(got), "%s != %s", d, got)
	}

	assert.Equal(t, "0.10", toCQLDecimal(decimal.RequireFromString("0.10")).String())
	assert.Equal(t, "1200", toCQLDecimal(decimal.New(12, 2)).String())
	assert.True(t, fromCQLDecimal(nil).IsZero())
	assert.True(t, fromCQLDecimal(inf.NewDec(1999, 2)).Equal(decimal.RequireFromString("19.99")))
}
