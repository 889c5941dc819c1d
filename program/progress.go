/*
progress.go - Derived-state computation

PURPOSE:
  Stateless functions computing every displayed quantity from a snapshot of
  {projects, districts, statistics}: per-project ratios, per-district
  progress, and the program-wide aggregate.

KEY INSIGHT:
  Derived values are never stored. District completed/total counts and the
  whole of ProgramStatistics are recomputed on demand from the project list,
  so stored and derived figures cannot drift apart. Satisfaction is the one
  exception: it comes from resident surveys, not from projects, and is
  carried from its own authoritative source.

TOTALITY:
  Every function here is total on well-formed input and degrades rather
  than failing on malformed input: a zero budget yields utilization 0 with
  an anomaly flag instead of a division panic. All functions are
  side-effect-free and safe to call concurrently against a snapshot.

SATISFACTION POLICY:
  Whether the program rating is a flat mean of district satisfaction or a
  resident-weighted mean is a policy choice, not a law. The default is the
  flat mean; callers may plug in WeightedSatisfaction.

SEE ALSO:
  - types.go: Entity definitions
  - achievements.go: Reads aggregates computed here
*/
package program

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PER-PROJECT RATIOS
// =============================================================================

// CompletionRatio returns construction progress in [0,1].
func CompletionRatio(p Project) float64 {
	return float64(p.Progress) / 100
}

// BudgetUtilization returns spent/budget in [0,1].
//
// A zero budget is never legitimate, but the function must not fail on
// malformed input: it degrades to 0 and flags the anomaly so the caller
// can surface it.
func BudgetUtilization(p Project) (ratio float64, zeroBudget bool) {
	if p.Budget.IsZero() || p.Budget.IsNegative() {
		return 0, true
	}
	r, _ := p.Spent.Value.Div(p.Budget.Value).Float64()
	return r, false
}

// =============================================================================
// DISTRICT DERIVATION
// =============================================================================

// DeriveDistrict recomputes a district's completed/total counts by scanning
// projects. Satisfaction is carried from the authoritative survey figure;
// only the counts are derived.
func DeriveDistrict(name string, satisfaction int, projects []Project) District {
	d := District{Name: name, Satisfaction: satisfaction}
	for _, p := range projects {
		if p.District != name {
			continue
		}
		d.Total++
		if p.Status == StatusCompleted {
			d.Completed++
		}
	}
	return d
}

// DeriveDistricts derives every registered district, sorted by name for
// deterministic output.
func DeriveDistricts(satisfaction map[string]int, projects []Project) []District {
	names := make([]string, 0, len(satisfaction))
	for name := range satisfaction {
		names = append(names, name)
	}
	sort.Strings(names)

	districts := make([]District, len(names))
	for i, name := range names {
		districts[i] = DeriveDistrict(name, satisfaction[name], projects)
	}
	return districts
}

// =============================================================================
// SATISFACTION POLICY
// =============================================================================

// SatisfactionPolicy aggregates district satisfaction into the program
// rating. Returns a percent in [0,100], rounded half-up.
type SatisfactionPolicy func(districts []District, projects []Project) int

// MeanSatisfaction is the default policy: a flat arithmetic mean over
// districts, rounded half-up to the nearest integer.
func MeanSatisfaction(districts []District, _ []Project) int {
	if len(districts) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, d := range districts {
		sum = sum.Add(decimal.NewFromInt(int64(d.Satisfaction)))
	}
	return int(sum.Div(decimal.NewFromInt(int64(len(districts)))).Round(0).IntPart())
}

// WeightedSatisfaction weighs each district by the residents affected by
// its projects. Districts without residents fall back to weight 1 so empty
// districts still count.
func WeightedSatisfaction(districts []District, projects []Project) int {
	residents := make(map[string]int64, len(districts))
	for _, p := range projects {
		residents[p.District] += int64(p.Residents)
	}

	sum := decimal.Zero
	weights := decimal.Zero
	for _, d := range districts {
		w := residents[d.Name]
		if w == 0 {
			w = 1
		}
		weight := decimal.NewFromInt(w)
		sum = sum.Add(decimal.NewFromInt(int64(d.Satisfaction)).Mul(weight))
		weights = weights.Add(weight)
	}
	if weights.IsZero() {
		return 0
	}
	return int(sum.Div(weights).Round(0).IntPart())
}

// =============================================================================
// PROGRAM AGGREGATION
// =============================================================================

// AggregateInput is the snapshot AggregateStatistics reads.
type AggregateInput struct {
	Projects  []Project
	Districts []District

	// TotalBudget is the program allocation, owned outside the projects.
	TotalBudget Money

	// ActionSpend is program-level expenditure from quick actions, added to
	// the sum of project spend.
	ActionSpend Money

	// Policy defaults to MeanSatisfaction when nil.
	Policy SatisfactionPolicy
}

// AggregateStatistics recomputes the program-wide view from scratch.
// Deterministic: identical input yields identical output.
func AggregateStatistics(in AggregateInput) ProgramStatistics {
	spent := in.ActionSpend
	completed := 0
	for _, p := range in.Projects {
		spent = spent.Add(p.Spent)
		if p.Status == StatusCompleted {
			completed++
		}
	}

	policy := in.Policy
	if policy == nil {
		policy = MeanSatisfaction
	}

	return ProgramStatistics{
		TotalBudget:        in.TotalBudget,
		SpentBudget:        spent,
		TotalProjects:      len(in.Projects),
		CompletedProjects:  completed,
		SatisfactionRating: policy(in.Districts, in.Projects),
	}
}
