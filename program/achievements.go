/*
achievements.go - Achievement metrics and unlock evaluation

PURPOSE:
  The evaluator behind the gamified milestone system. Each achievement
  tracks a metric recomputed from the committed snapshot; when the metric
  crosses the target the achievement unlocks, exactly once, forever.

STATE MACHINE (per achievement):
  Locked --progress >= target--> Unlocked (terminal)

  There is no Unlocked -> Locked transition. A metric that later drops
  below its target leaves the achievement unlocked; the tracked Progress
  figure keeps updating for display, the unlock does not revert.

EVALUATION:
  Evaluate runs after every mutation, against the freshly aggregated
  snapshot (mutate -> aggregate -> evaluate, never against stale numbers).
  Achievements are independent of each other, so evaluation order is
  irrelevant and re-running is idempotent: an already-unlocked achievement
  is never re-unlocked and its reward is never reapplied.

REWARDS:
  The reward payload is opaque to the core. Unlock events are reported to
  the caller's RewardSink exactly once, at the transition edge.

SEE ALSO:
  - types.go: Achievement and Metric definitions
  - progress.go: The aggregates metrics are computed from
  - factory/: JSON catalog the dashboard achievements are loaded from
*/
package program

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// METRIC COMPUTATION
// =============================================================================

// MetricValue computes the current value of a metric from a snapshot.
// Unknown metrics evaluate to zero so a malformed catalog entry stays
// permanently locked instead of failing evaluation.
func MetricValue(metric Metric, snap Snapshot) decimal.Decimal {
	switch metric {
	case MetricCompletedProjects:
		return decimal.NewFromInt(int64(snap.Stats.CompletedProjects))

	case MetricBudgetSaved:
		saved := decimal.Zero
		for _, p := range snap.Projects {
			if p.Status == StatusCompleted {
				saved = saved.Add(p.Budget.Sub(p.Spent).Value)
			}
		}
		return saved

	case MetricSatisfaction:
		return decimal.NewFromInt(int64(snap.Stats.SatisfactionRating))

	case MetricEarlyCompletions:
		n := int64(0)
		for _, p := range snap.Projects {
			if p.EarlyCompletion {
				n++
			}
		}
		return decimal.NewFromInt(n)

	default:
		return decimal.Zero
	}
}

// =============================================================================
// EVALUATOR
// =============================================================================

// Unlock is the event emitted once, at the Locked -> Unlocked edge.
type Unlock struct {
	Achievement Achievement
	At          time.Time
}

// RewardSink receives unlock events. The sink is invoked exactly once per
// achievement, at the transition; re-evaluation never replays it.
type RewardSink func(Unlock)

// Evaluate recomputes progress for every achievement against the snapshot
// and fires unlock transitions. Returns the updated achievements and the
// unlocks that occurred during this pass.
//
// The input slice is not modified.
func Evaluate(achievements []Achievement, snap Snapshot, now time.Time, sink RewardSink) ([]Achievement, []Unlock) {
	updated := make([]Achievement, len(achievements))
	var unlocks []Unlock

	for i, a := range achievements {
		a.Progress = MetricValue(a.Metric, snap)

		if !a.Unlocked && a.Progress.GreaterThanOrEqual(a.Target) {
			a.Unlocked = true
			at := now
			a.UnlockedAt = &at

			event := Unlock{Achievement: a, At: now}
			unlocks = append(unlocks, event)
			if sink != nil {
				sink(event)
			}
		}

		updated[i] = a
	}

	return updated, unlocks
}

// =============================================================================
// CATALOG VALIDATION
// =============================================================================

// ValidateAchievement checks a catalog entry before it enters the engine.
func ValidateAchievement(a Achievement) error {
	verr := &ValidationError{}
	if a.ID == "" {
		verr.Add("id", "must not be empty")
	}
	if a.Title == "" {
		verr.Add("title", "must not be empty")
	}
	if !a.Target.IsPositive() {
		verr.Add("target", "must be positive")
	}
	if a.Progress.IsNegative() {
		verr.Add("progress", "must not be negative")
	}
	switch a.Metric {
	case MetricCompletedProjects, MetricBudgetSaved, MetricSatisfaction, MetricEarlyCompletions:
	default:
		verr.Add("metric", "unknown metric")
	}
	return verr.OrNil()
}
