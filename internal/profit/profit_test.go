package profit

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestProject_RemainingHoursExact(t *testing.T) {
	t.Parallel()

	p := Project(Inputs{HourlyRate: 80, TargetHours: 10, SpentHours: 9, MonthlyBudget: 800, RunningSeconds: 1800})
	if math.Abs(p.CurrentHoursSpent-9.5) > eps {
		t.Fatalf("CurrentHoursSpent=%v, want 9.5", p.CurrentHoursSpent)
	}
	if math.Abs(p.RemainingHours-0.5) > eps {
		t.Fatalf("RemainingHours=%v, want 0.5", p.RemainingHours)
	}
	if math.Abs(p.PercentageUsed-95) > eps {
		t.Fatalf("PercentageUsed=%v, want 95", p.PercentageUsed)
	}
}

func TestProject_RemainingGoesNegative(t *testing.T) {
	t.Parallel()

	p := Project(Inputs{TargetHours: 1, SpentHours: 2})
	if p.RemainingHours >= 0 {
		t.Fatalf("RemainingHours=%v, want negative", p.RemainingHours)
	}
}

func TestProject_ZeroTargetNoDivide(t *testing.T) {
	t.Parallel()

	for _, target := range []float64{0, -5} {
		p := Project(Inputs{TargetHours: target, SpentHours: 3, RunningSeconds: 60})
		if p.PercentageUsed != 0 {
			t.Fatalf("target=%v: PercentageUsed=%v, want 0", target, p.PercentageUsed)
		}
	}
}

func TestProject_EffectiveRateFallsBackToHourlyRate(t *testing.T) {
	t.Parallel()

	p := Project(Inputs{HourlyRate: 120, MonthlyBudget: 800})
	if p.EffectiveHourlyRate != 120 {
		t.Fatalf("EffectiveHourlyRate=%v, want configured rate 120", p.EffectiveHourlyRate)
	}

	p = Project(Inputs{HourlyRate: 120, MonthlyBudget: 800, SpentHours: 4})
	if math.Abs(p.EffectiveHourlyRate-200) > eps {
		t.Fatalf("EffectiveHourlyRate=%v, want 200", p.EffectiveHourlyRate)
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int64
		want string
	}{
		{0, "00:00:00"},
		{3661, "01:01:01"},
		{59, "00:00:59"},
		{3600, "01:00:00"},
		{-5, "00:00:00"},
		{360000, "100:00:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Fatalf("FormatDuration(%d)=%q, want %q", c.in, got, c.want)
		}
	}
}

func TestTracker_EdgeTriggered(t *testing.T) {
	t.Parallel()

	var tr Tracker
	if ev := tr.Observe(5); len(ev) != 0 {
		t.Fatalf("no event expected above threshold, got %v", ev)
	}
	ev := tr.Observe(0.9)
	if len(ev) != 1 || ev[0] != EventNearLimit {
		t.Fatalf("want single EventNearLimit, got %v", ev)
	}
	if ev := tr.Observe(0.5); len(ev) != 0 {
		t.Fatalf("near-limit must fire only on the crossing tick, got %v", ev)
	}
	ev = tr.Observe(0)
	if len(ev) != 1 || ev[0] != EventOverBudget {
		t.Fatalf("want single EventOverBudget, got %v", ev)
	}
	if ev := tr.Observe(-3); len(ev) != 0 {
		t.Fatalf("over-budget must fire only once, got %v", ev)
	}
}

func TestTracker_SkipsStraightToOverBudget(t *testing.T) {
	t.Parallel()

	var tr Tracker
	ev := tr.Observe(-1)
	if len(ev) != 1 || ev[0] != EventOverBudget {
		t.Fatalf("want EventOverBudget on direct crossing, got %v", ev)
	}
}

func TestTracker_BudgetExceededScenario(t *testing.T) {
	t.Parallel()

	// hourlyRate=80, targetHours=10, spentHours=9, monthlyBudget=800;
	// ticking to 3600 seconds must exhaust the budget exactly once.
	in := Inputs{HourlyRate: 80, TargetHours: 10, SpentHours: 9, MonthlyBudget: 800}

	var tr Tracker
	over := 0
	for s := int64(1); s <= 3600; s++ {
		in.RunningSeconds = s
		for _, ev := range tr.Observe(Project(in).RemainingHours) {
			if ev == EventOverBudget {
				over++
			}
		}
	}
	if math.Abs(Project(Inputs{HourlyRate: 80, TargetHours: 10, SpentHours: 9, MonthlyBudget: 800, RunningSeconds: 3600}).RemainingHours) > eps {
		t.Fatalf("remaining at 3600s should be 0")
	}
	if over != 1 {
		t.Fatalf("budget exceeded fired %d times, want exactly once", over)
	}
}
