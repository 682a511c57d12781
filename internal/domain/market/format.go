package market

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// exactDigits 足以完整表示價格量級 float64 二進位值的小數位數。
const exactDigits = 40

// Fixed 以 float64 的精確二進位值四捨五入至 places 位小數，與 JS toFixed 相同。
func Fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero.StringFixed(places)
	}
	exact := new(big.Float).SetFloat64(v).Text('f', exactDigits)
	return decimal.RequireFromString(exact).StringFixed(places)
}
