package normalize

import "github.com/shopspring/decimal"

// CNYToUSDRate is the fixed exchange rate applied to prices quoted in yuan.
var CNYToUSDRate = decimal.RequireFromString("0.138")

// CNYToUSD converts an amount in yuan to dollars.
func CNYToUSD(amount decimal.Decimal) float64 {
	return amount.Mul(CNYToUSDRate).InexactFloat64()
}
