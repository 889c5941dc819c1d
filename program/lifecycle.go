/*
lifecycle.go - Project state machine and mutation commands

PURPOSE:
  The lifecycle manager governing how a Project moves through
  Planning -> Construction -> Completed and how its budget is spent.

STATE MACHINE:
  Planning     --progress > 0-->   Construction
  Construction --progress = 100--> Completed
  any state    --CompleteEarly-->  Completed (explicit override)

  Status is a one-way ratchet. Progress may be pushed down by a negative
  delta, but status never regresses: a Completed project stays pinned at
  100, and a Construction project never shows 0 again (0 is reserved for
  Planning).

MUTATION CONTRACT:
  Every command takes a Project value and returns a new, validated value.
  On error the prior value is returned unchanged - there is no half-applied
  state, so a rejected spend leaves Spent exactly as it was.

SEE ALSO:
  - types.go: Project definition and invariants
  - engine.go: Wraps these commands with state ownership and the
    aggregate/evaluate pipeline
*/
package program

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CREATION
// =============================================================================

// NewProject validates a submission and constructs a Project in its initial
// state: Planning, zero progress, nothing spent.
//
// The returned *ValidationError lists ALL violated fields.
func NewProject(input NewProjectInput, districts DistrictSet, now time.Time) (Project, error) {
	verr := &ValidationError{}

	if input.Name == "" {
		verr.Add("name", "must not be empty")
	}
	if input.District == "" {
		verr.Add("district", "must not be empty")
	} else if !districts.Contains(input.District) {
		verr.Add("district", "not a registered district")
	}
	if !input.Budget.IsPositive() {
		verr.Add("budget", "must be positive")
	}
	if input.Residents < 0 {
		verr.Add("residents", "must not be negative")
	}

	if err := verr.OrNil(); err != nil {
		return Project{}, err
	}

	return Project{
		ID:          ProjectID(uuid.NewString()),
		Name:        input.Name,
		District:    input.District,
		Type:        input.Type,
		Description: input.Description,
		Status:      StatusPlanning,
		Progress:    0,
		Budget:      input.Budget,
		Spent:       NewMoney(0),
		Residents:   input.Residents,
		CreatedAt:   now,
	}, nil
}

// =============================================================================
// PROGRESS
// =============================================================================

// AdvanceProgress applies a progress delta, clamped to [0,100], and moves
// status forward when thresholds are crossed. Reaching 100 transitions to
// Completed atomically with the progress update.
func AdvanceProgress(p Project, delta int) Project {
	if p.Status == StatusCompleted {
		// Ratchet: completed projects stay at 100 regardless of delta.
		return p
	}

	progress := p.Progress + delta
	if progress > 100 {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}

	switch {
	case progress == 100:
		p.Status = StatusCompleted
	case progress > 0 && p.Status == StatusPlanning:
		p.Status = StatusConstruction
	case progress == 0 && p.Status == StatusConstruction:
		// Zero progress is reserved for Planning and status cannot regress,
		// so construction floors at 1.
		progress = 1
	}

	p.Progress = progress
	return p
}

// CompleteEarly forces the project to Completed with full progress,
// bypassing the natural ratchet. Spent is left untouched; there is no
// retroactive budget reconciliation on overrides.
func CompleteEarly(p Project) Project {
	p.Status = StatusCompleted
	p.Progress = 100
	p.EarlyCompletion = true
	return p
}

// =============================================================================
// BUDGET
// =============================================================================

// RecordSpend increases Spent by amount. Fails with no effect when the
// result would exceed the project budget or the amount is not positive.
func RecordSpend(p Project, amount Money) (Project, error) {
	if !amount.IsPositive() {
		verr := &ValidationError{}
		verr.Add("amount", "must be positive")
		return p, verr
	}

	next := p.Spent.Add(amount)
	if next.GreaterThan(p.Budget) {
		return p, &InsufficientBudgetError{
			ProjectID: p.ID,
			Budget:    p.Budget,
			Spent:     p.Spent,
			Requested: amount,
			Shortfall: next.Sub(p.Budget),
		}
	}

	p.Spent = next
	return p, nil
}

// =============================================================================
// INVARIANT CHECK
// =============================================================================

// Validate checks every Project invariant and reports all violations.
// Mutation commands preserve the invariants by construction; Validate is
// the guard for state restored from outside (persistence, scenarios).
func (p Project) Validate() error {
	verr := &ValidationError{}

	if p.ID == "" {
		verr.Add("id", "must not be empty")
	}
	if p.Name == "" {
		verr.Add("name", "must not be empty")
	}
	if p.District == "" {
		verr.Add("district", "must not be empty")
	}
	if p.Progress < 0 || p.Progress > 100 {
		verr.Add("progress", "must be within 0..100")
	}
	if (p.Progress == 100) != (p.Status == StatusCompleted) {
		verr.Add("status", "completed exactly when progress is 100")
	}
	if p.Progress == 0 && p.Status != StatusPlanning {
		verr.Add("progress", "zero progress is only valid while planning")
	}
	if !p.Budget.IsPositive() {
		verr.Add("budget", "must be positive")
	}
	if p.Spent.IsNegative() {
		verr.Add("spent", "must not be negative")
	}
	if p.Spent.GreaterThan(p.Budget) {
		verr.Add("spent", "must not exceed budget")
	}
	if p.Residents < 0 {
		verr.Add("residents", "must not be negative")
	}
	switch p.Status {
	case StatusPlanning, StatusConstruction, StatusCompleted:
	default:
		verr.Add("status", "unknown status")
	}

	return verr.OrNil()
}
