// Package profit derives budget and profitability figures from a client's
// rate configuration and in-progress timer duration.
package profit

import "fmt"

// Inputs are the four values the recalculation depends on. SpentHours is the
// committed backend aggregate; RunningSeconds is the in-progress duration
// owned by the timer lifecycle manager.
type Inputs struct {
	HourlyRate     float64
	TargetHours    float64
	SpentHours     float64
	MonthlyBudget  float64
	RunningSeconds int64
}

// Projection is the recalculated view of a running session.
type Projection struct {
	CurrentHoursSpent   float64
	RemainingHours      float64 // negative means over budget
	PercentageUsed      float64 // 0 when TargetHours <= 0
	EffectiveHourlyRate float64
}

// Project recomputes the projection. Pure; invoked once per tick.
func Project(in Inputs) Projection {
	current := in.SpentHours + float64(in.RunningSeconds)/3600

	var pct float64
	if in.TargetHours > 0 {
		pct = current / in.TargetHours * 100
	}

	effective := in.HourlyRate
	if current > 0 {
		effective = in.MonthlyBudget / current
	}

	return Projection{
		CurrentHoursSpent:   current,
		RemainingHours:      in.TargetHours - current,
		PercentageUsed:      pct,
		EffectiveHourlyRate: effective,
	}
}

// FormatDuration renders seconds as HH:MM:SS (3661 -> "01:01:01").
// Negative values are clamped to zero.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
