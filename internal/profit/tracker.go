package profit

// Level classifies remaining budget hours.
type Level int

const (
	// LevelBelow means more than one hour of budget remains.
	LevelBelow Level = iota
	// LevelNearLimit means at most one hour remains.
	LevelNearLimit
	// LevelOverBudget means the budget is exhausted.
	LevelOverBudget
)

// Event is an edge-triggered budget notification.
type Event int

const (
	// EventNearLimit fires once when remaining hours first drop to one or less.
	EventNearLimit Event = iota
	// EventOverBudget fires once when remaining hours first drop to zero or less.
	EventOverBudget
)

// Tracker turns the per-tick remaining-hours recomputation into
// edge-triggered events: each level transition fires at most once per
// running session. The zero value starts at LevelBelow.
type Tracker struct {
	level Level
}

// Reset returns the tracker to LevelBelow (called on session start).
func (t *Tracker) Reset() { t.level = LevelBelow }

// Level returns the current classification.
func (t *Tracker) Level() Level { return t.level }

func classify(remainingHours float64) Level {
	switch {
	case remainingHours <= 0:
		return LevelOverBudget
	case remainingHours <= 1:
		return LevelNearLimit
	default:
		return LevelBelow
	}
}

// Observe records the latest remaining-hours figure and returns the event
// for the crossing, if any. Spend is monotone while a timer runs, so levels
// only ever escalate; a stale lower level (after an upward budget edit) just
// re-arms the tracker without firing.
func (t *Tracker) Observe(remainingHours float64) []Event {
	next := classify(remainingHours)
	prev := t.level
	t.level = next
	if next <= prev {
		return nil
	}
	switch next {
	case LevelNearLimit:
		return []Event{EventNearLimit}
	case LevelOverBudget:
		return []Event{EventOverBudget}
	}
	return nil
}
