package vault

import "github.com/shopspring/decimal"

const (
	// DefaultAPYBps is 5% a year.
	DefaultAPYBps  int64 = 500
	secondsPerYear int64 = 365 * 24 * 3600
	bpsDenominator int64 = 10000
)

// CalculateYield returns the yield accrued by p between its last settlement and asOf at the
// annual rate apyBps, truncated to whole base units. asOf before the last settlement
// yields zero.
func CalculateYield(p *Position, asOf int64, apyBps int64) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return YieldBetween(p.DepositedAmount, p.LastUpdateTime, asOf, apyBps)
}

// YieldBetween returns the linear yield of principal over [from, to].
func YieldBetween(principal decimal.Decimal, from, to int64, apyBps int64) decimal.Decimal {
	if to <= from || !principal.IsPositive() || apyBps <= 0 {
		return decimal.Zero
	}
	numerator := principal.Mul(decimal.NewFromInt(apyBps)).Mul(decimal.NewFromInt(to - from))
	denominator := decimal.NewFromInt(bpsDenominator * secondsPerYear)
	q, _ := numerator.QuoRem(denominator, 0)
	return q
}
