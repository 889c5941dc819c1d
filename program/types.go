/*
Package program provides the core engine for a city renovation program.

PURPOSE:
  This package contains the domain entities and algorithms behind the
  renovation dashboard: projects with budgets and construction progress,
  districts aggregating those projects, a gamified achievement system,
  and the program-wide statistics derived from all of it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary amount in minor-unit-free rubles
  - Project: A tracked renovation effort and its lifecycle state
  - District: A named grouping of projects (counts derived, satisfaction stored)
  - Achievement: A permanent milestone with a tracked metric
  - ProgramStatistics: The city-wide aggregate view

DESIGN PRINCIPLES:
  1. Invariants at the boundary: entities are validated at construction
     and at every mutation; an invalid entity is never handed out
  2. Precision: Uses decimal.Decimal for money to avoid floating-point errors
  3. Derived state is derived: district counts and program statistics are
     recomputed from projects, never stored alongside them
  4. Snapshots: queries return copies, mutations return new values

USAGE:
  budget := program.NewMoney(15_000_000_000)
  p, err := program.NewProject(program.NewProjectInput{
      Name: "ЖК Новые Горизонты", District: "Бутово",
      Budget: budget, Residents: 2400,
  }, districts, time.Now())

SEE ALSO:
  - lifecycle.go: Project state machine and mutation commands
  - progress.go: Derived-state computation (ratios, aggregates)
  - achievements.go: Achievement metrics and unlock evaluation
  - engine.go: State owner exposing the query/command surface
*/
package program

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Minor-unit-free ruble amounts
// =============================================================================

// Money is a monetary amount. The program deals in whole rubles only;
// formatting and localization live with the presentation collaborator.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

// ParseMoney parses a decimal string into a ruble amount.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustParseMoney is ParseMoney for trusted input (persisted state, seed
// data). Malformed input degrades to zero rather than panicking.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func (m Money) Add(b Money) Money          { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money          { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Neg() Money                 { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsNegative() bool           { return m.Value.IsNegative() }
func (m Money) IsPositive() bool           { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool         { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool   { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool      { return m.Value.LessThan(b.Value) }
func (m Money) String() string             { return m.Value.StringFixed(0) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProjectID string
type AchievementID string

// =============================================================================
// PROJECT - A tracked renovation effort
// =============================================================================

type ProjectStatus string

const (
	StatusPlanning     ProjectStatus = "planning"     // Submitted, construction not started
	StatusConstruction ProjectStatus = "construction" // Progress has been made
	StatusCompleted    ProjectStatus = "completed"    // Progress reached 100
)

// ProjectType tags the kind of housing being built. Informational only;
// it comes from the creation form and never drives core rules.
type ProjectType string

const (
	TypeResidential ProjectType = "residential"
	TypeMixed       ProjectType = "mixed"
	TypeSocial      ProjectType = "social"
	TypePremium     ProjectType = "premium"
)

// Project is a renovation effort with budget, progress, and resident impact.
//
// Invariants (enforced by Validate):
//   - 0 <= Progress <= 100
//   - Progress == 100 iff Status == Completed
//   - Progress == 0 only while Status == Planning
//   - Budget > 0 and 0 <= Spent <= Budget
//   - Residents >= 0
//
// Completed projects are never removed; they remain as historical records.
type Project struct {
	ID          ProjectID
	Name        string
	District    string
	Type        ProjectType
	Description string

	Status   ProjectStatus
	Progress int // percent, 0..100

	Budget Money
	Spent  Money

	Residents int

	// CompletionDate is informational only: the planned (or actual) handover
	// date shown on the dashboard. No invariant ties it to Status.
	CompletionDate time.Time

	// EarlyCompletion marks projects finished through the explicit override
	// path rather than the natural progress ratchet.
	EarlyCompletion bool

	CreatedAt time.Time
}

// NewProjectInput is the validated submission contract with the form
// collaborator. The form collects raw text; by the time input reaches the
// core it carries typed values.
type NewProjectInput struct {
	Name        string
	District    string
	Budget      Money
	Residents   int
	Description string
	Type        ProjectType
}

// =============================================================================
// DISTRICT - Named grouping of projects
// =============================================================================

// District aggregates the projects sharing a district name.
//
// Completed/Total are always derived by scanning projects (see DeriveDistrict).
// Satisfaction is the one independently stored field: it comes from resident
// surveys, not from project state.
type District struct {
	Name         string
	Completed    int
	Total        int
	Satisfaction int // percent, 0..100
}

// DistrictSet is the registry of known district names. Project submissions
// referencing an unknown district are rejected.
type DistrictSet map[string]bool

func NewDistrictSet(names ...string) DistrictSet {
	set := make(DistrictSet, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (s DistrictSet) Contains(name string) bool { return s[name] }

// MoscowDistricts is the default registry used by the dashboard.
var MoscowDistricts = []string{
	"Бутово", "Марьино", "Коньково", "Солнцево", "Некрасовка",
	"Митино", "Братеево", "Выхино-Жулебино", "Лианозово", "Капотня",
}

// =============================================================================
// ACHIEVEMENT - Permanent milestone
// =============================================================================

// Metric identifies which program quantity an achievement tracks.
// Progress for every metric is recomputed from the committed snapshot;
// achievements never accumulate state of their own.
type Metric string

const (
	// MetricCompletedProjects counts projects with Status == Completed.
	MetricCompletedProjects Metric = "completed_projects"

	// MetricBudgetSaved sums Budget - Spent over completed projects.
	MetricBudgetSaved Metric = "budget_saved"

	// MetricSatisfaction is the program-wide satisfaction rating.
	MetricSatisfaction Metric = "satisfaction"

	// MetricEarlyCompletions counts projects finished via CompleteEarly.
	MetricEarlyCompletions Metric = "early_completions"
)

// Achievement is a milestone unlocked once its metric crosses Target.
//
// Progress and Target share a unit per achievement: plain counts for
// project metrics, rubles for budget metrics, percent for satisfaction.
// Unlocked is monotonic - once true it never reverts, even if the metric
// later drops below Target.
type Achievement struct {
	ID          AchievementID
	Title       string
	Description string
	Metric      Metric
	Progress    decimal.Decimal
	Target      decimal.Decimal
	Reward      string // Opaque descriptive payload, applied once at unlock
	Unlocked    bool
	UnlockedAt  *time.Time
}

// Ratio returns unlock progress in [0,1] for display. Degrades to 0 on a
// malformed zero target instead of failing.
func (a Achievement) Ratio() float64 {
	if a.Unlocked {
		return 1
	}
	if !a.Target.IsPositive() {
		return 0
	}
	r, _ := a.Progress.Div(a.Target).Float64()
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// =============================================================================
// PROGRAM STATISTICS - City-wide aggregate
// =============================================================================

// ProgramStatistics is the aggregate view derived from all projects and
// districts. It is recomputed after every mutation (see AggregateStatistics)
// and never edited directly.
type ProgramStatistics struct {
	TotalBudget Money
	SpentBudget Money

	TotalProjects     int
	CompletedProjects int

	SatisfactionRating int // percent, 0..100
}

// Remaining returns the unspent portion of the program budget.
func (s ProgramStatistics) Remaining() Money {
	return s.TotalBudget.Sub(s.SpentBudget)
}

// =============================================================================
// SNAPSHOT - Read-only view handed to derived-state computation
// =============================================================================

// Snapshot is a consistent copy of program state. Aggregation and achievement
// evaluation read snapshots, never live references, so they are safe to run
// repeatedly and concurrently.
type Snapshot struct {
	Projects  []Project
	Districts []District
	Stats     ProgramStatistics
}
