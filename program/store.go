/*
store.go - Persistence interface

PURPOSE:
  Defines the storage interface the engine writes through to. Persistence
  is a collaborator, not part of the core: the engine owns its state in
  memory and works identically with no store at all.

IMPLEMENTATIONS:
  - program/store: In-memory (testing/dev)
  - store/sqlite:  SQLite-backed (production)

WRITE-THROUGH:
  The engine persists after each committed mutation: the touched project
  or district, every achievement whose unlock state changed, and the
  program header when action spend moves. A persistence failure is
  reported to the caller; the in-memory state stays committed and
  consistent, and the next successful write catches the store up.
*/
package program

import "context"

// State is the full persisted program state, loaded at boot and by
// scenario loaders.
type State struct {
	Projects     []Project
	Satisfaction map[string]int // district name -> survey percent
	Achievements []Achievement
	TotalBudget  Money
	ActionSpend  Money
}

// Store persists program state.
type Store interface {
	SaveProject(ctx context.Context, p Project) error
	SaveSatisfaction(ctx context.Context, district string, value int) error
	SaveAchievement(ctx context.Context, a Achievement) error
	SaveProgram(ctx context.Context, totalBudget, actionSpend Money) error

	// Load returns the persisted state, or nil when nothing was saved yet.
	Load(ctx context.Context) (*State, error)

	// Reset clears everything. Scenario loaders call this first.
	Reset(ctx context.Context) error
}
