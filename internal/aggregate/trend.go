package aggregate

import (
	"math"

	"github.com/runnerr0/footprint/internal/activity"
)

// Round2 rounds to two decimal places, halves to even.
func Round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}

// RoundInt rounds to the nearest integer, halves to even.
func RoundInt(x float64) int {
	return int(math.RoundToEven(x))
}

// PercentChange is the relative change from previous to current, in percent
// rounded to two decimals. A non-positive previous value yields 0.
func PercentChange(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return Round2((current - previous) / previous * 100)
}

// Ratio is part as a percentage of total, rounded to two decimals. A
// non-positive total yields 0.
func Ratio(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(part / total * 100)
}

// TrendOf returns the direction of a percent change.
func TrendOf(pct float64) activity.Trend {
	switch {
	case pct > 0:
		return activity.TrendUp
	case pct < 0:
		return activity.TrendDown
	default:
		return activity.TrendFlat
	}
}

// Label grades a percent change.
func Label(pct float64) activity.ImprovementLabel {
	switch {
	case pct >= 10:
		return activity.MuchBetter
	case pct > 0:
		return activity.SlightlyBetter
	case pct == 0:
		return activity.NoChange
	case pct > -10:
		return activity.SlightWorse
	default:
		return activity.MuchWorse
	}
}

// Change computes the percent change, its direction and its label.
func Change(current, previous float64) (float64, activity.Trend, activity.ImprovementLabel) {
	pct := PercentChange(current, previous)
	return pct, TrendOf(pct), Label(pct)
}

// MakeMetric builds a dashboard tile. The value is truncated to whole seconds.
func MakeMetric(title string, current, previous float64) activity.Metric {
	pct, trend, label := Change(current, previous)
	return activity.Metric{
		Title:            title,
		Value:            int64(current),
		ChangePercent:    pct,
		Trend:            trend,
		ImprovementLabel: label,
	}
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
