package number

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestCeil(t *testing.T) {
	data := map[string]string{
		"0.10304":     "0.11",
		"0.100000001": "0.11",
		"0.108":       "0.11",
		"2":           "2",
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			c := Ceil(Decimal(k), 2)
			assert.Equal(t, v, c.String(), "should be ceil")
		})
	}
}

func TestBps(t *testing.T) {
	data := []struct {
		amount string
		bps    int64
		fee    string
	}{
		{"1000", 50, "5"},
		{"1", 50, "0.005"},
		{"0.00000001", 50, "0.00000001"},
		{"123", 0, "0"},
	}

	for _, d := range data {
		t.Run(d.amount, func(t *testing.T) {
			assert.Equal(t, d.fee, Bps(Decimal(d.amount), d.bps, 8).String())
		})
	}
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, "333.33333333", MulDiv(Decimal("1000"), Decimal("1"), Decimal("3"), 8).String())
	assert.Equal(t, "0", MulDiv(Decimal("1000"), Decimal("1"), Decimal("0"), 8).String())
	assert.Equal(t, "0", Decimal("not a number").String())
}
