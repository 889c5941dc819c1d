/*
engine.go - Program state owner and command/query surface

PURPOSE:
  The Engine owns all mutable program state - projects, district
  satisfaction, achievements, budgets - and exposes the surface the
  presentation collaborator consumes:

    Queries:  ListProjects, GetProject, ListDistricts, GetStatistics,
              ListAchievements
    Commands: CreateProject, AdvanceProgress, RecordSpend, CompleteEarly,
              ApplyQuickAction

  There is no ambient or package-level state; everything lives on the
  Engine value handed to collaborators.

COMMIT PIPELINE:
  Every command runs the same strict sequence before its result is
  considered committed:

    1. mutate     - lifecycle command produces the new entity
    2. aggregate  - ProgramStatistics recomputed from the full state
    3. evaluate   - achievements re-evaluated against the fresh aggregate

  Unlock decisions are therefore never made against stale aggregates.

CONCURRENCY:
  Single logical writer: a RWMutex serializes mutations, so read-check-write
  invariants (spent <= budget) cannot be violated by interleaving. Queries
  take the read lock and return deep copies - callers never see a live
  reference. No operation blocks on anything but the lock and the optional
  write-through to the store. Reward sinks are invoked after the lock is
  released, so a sink may call back into the engine.

SEE ALSO:
  - lifecycle.go: The per-project mutation commands
  - progress.go: Aggregation
  - achievements.go: Evaluation
  - store.go: Write-through persistence interface
*/
package program

import (
	"context"
	"sync"
	"time"
)

// Config assembles an Engine. Zero-value fields get defaults: the Moscow
// district registry, the dashboard quick actions, the flat-mean
// satisfaction policy, and no persistence.
type Config struct {
	Districts    []string
	TotalBudget  Money
	Achievements []Achievement
	QuickActions []QuickAction
	Policy       SatisfactionPolicy
	Store        Store
	RewardSink   RewardSink
	Now          func() time.Time
}

// Engine owns the program state.
type Engine struct {
	mu sync.RWMutex

	districts    DistrictSet
	satisfaction map[string]int
	projects     map[ProjectID]Project
	order        []ProjectID // insertion order, for stable listings

	achievements []Achievement
	actions      []QuickAction

	totalBudget Money
	actionSpend Money
	stats       ProgramStatistics

	policy SatisfactionPolicy
	store  Store
	sink   RewardSink
	now    func() time.Time
}

// NewEngine builds an engine from the config and commits the initial
// aggregate so statistics are valid before the first command.
func NewEngine(cfg Config) *Engine {
	districts := cfg.Districts
	if len(districts) == 0 {
		districts = MoscowDistricts
	}
	actions := cfg.QuickActions
	if actions == nil {
		actions = DefaultQuickActions
	}
	policy := cfg.Policy
	if policy == nil {
		policy = MeanSatisfaction
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		districts:    NewDistrictSet(districts...),
		satisfaction: make(map[string]int, len(districts)),
		projects:     make(map[ProjectID]Project),
		achievements: append([]Achievement(nil), cfg.Achievements...),
		actions:      actions,
		totalBudget:  cfg.TotalBudget,
		actionSpend:  NewMoney(0),
		policy:       policy,
		store:        cfg.Store,
		sink:         cfg.RewardSink,
		now:          now,
	}
	for _, d := range districts {
		e.satisfaction[d] = DefaultSatisfaction
	}

	e.mu.Lock()
	unlocks := e.commitLocked()
	e.mu.Unlock()
	e.fireUnlocks(unlocks)
	return e
}

// DefaultSatisfaction is the survey figure assumed for districts without
// a recorded one.
const DefaultSatisfaction = 80

// =============================================================================
// STATE RESTORE
// =============================================================================

// Restore replaces engine state with a trusted snapshot (boot from the
// store, scenario load). Every entity is validated; on any violation the
// prior state is kept untouched.
//
// Restore does not fire reward sinks: unlocks present in restored state
// already happened, and replaying rewards would violate apply-once.
func (e *Engine) Restore(ctx context.Context, state State) error {
	projects := make(map[ProjectID]Project, len(state.Projects))
	order := make([]ProjectID, 0, len(state.Projects))
	for _, p := range state.Projects {
		if err := p.Validate(); err != nil {
			return err
		}
		projects[p.ID] = p
		order = append(order, p.ID)
	}
	for _, a := range state.Achievements {
		if err := ValidateAchievement(a); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.projects = projects
	e.order = order
	e.achievements = append([]Achievement(nil), state.Achievements...)
	e.totalBudget = state.TotalBudget
	e.actionSpend = state.ActionSpend

	// Full replacement, not an overlay: districts the snapshot does not
	// mention fall back to the default, so nothing from the prior state
	// survives a restore.
	for d := range e.satisfaction {
		if v, ok := state.Satisfaction[d]; ok {
			e.satisfaction[d] = clampPercent(v)
		} else {
			e.satisfaction[d] = DefaultSatisfaction
		}
	}

	// Re-aggregate without the reward sink: restored unlocks are history.
	in := e.aggregateInputLocked()
	stats := AggregateStatistics(in)
	snap := Snapshot{Projects: in.Projects, Districts: in.Districts, Stats: stats}
	e.achievements, _ = Evaluate(e.achievements, snap, e.now(), nil)
	e.stats = stats
	return e.persistAllLocked(ctx)
}

// =============================================================================
// QUERIES - Immutable snapshots
// =============================================================================

// ListProjects returns all projects in creation order.
func (e *Engine) ListProjects() []Project {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Project, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.projects[id])
	}
	return out
}

// GetProject returns a single project.
func (e *Engine) GetProject(id ProjectID) (Project, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.projects[id]
	if !ok {
		return Project{}, &NotFoundError{Kind: "project", ID: string(id)}
	}
	return p, nil
}

// ListDistricts derives every registered district from the current projects.
func (e *Engine) ListDistricts() []District {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return DeriveDistricts(e.satisfaction, e.projectsLocked())
}

// GetStatistics returns the last committed aggregate.
func (e *Engine) GetStatistics() ProgramStatistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// ListAchievements returns the achievement catalog with current progress.
func (e *Engine) ListAchievements() []Achievement {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Achievement, len(e.achievements))
	for i, a := range e.achievements {
		out[i] = cloneAchievement(a)
	}
	return out
}

// ListQuickActions returns the action catalog.
func (e *Engine) ListQuickActions() []QuickAction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]QuickAction(nil), e.actions...)
}

// Snapshot returns a consistent copy of the full state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// ExportState returns the persistable form of the current state.
func (e *Engine) ExportState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	satisfaction := make(map[string]int, len(e.satisfaction))
	for d, v := range e.satisfaction {
		satisfaction[d] = v
	}
	achievements := make([]Achievement, len(e.achievements))
	for i, a := range e.achievements {
		achievements[i] = cloneAchievement(a)
	}
	return State{
		Projects:     e.projectsLocked(),
		Satisfaction: satisfaction,
		Achievements: achievements,
		TotalBudget:  e.totalBudget,
		ActionSpend:  e.actionSpend,
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// CreateProject validates the submission and adds the project in its
// initial Planning state.
func (e *Engine) CreateProject(ctx context.Context, input NewProjectInput) (Project, error) {
	var unlocks []Unlock
	defer func() { e.fireUnlocks(unlocks) }()
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := NewProject(input, e.districts, e.now())
	if err != nil {
		return Project{}, err
	}

	e.projects[p.ID] = p
	e.order = append(e.order, p.ID)
	unlocks = e.commitLocked()

	return p, e.persistProjectLocked(ctx, p)
}

// AdvanceProgress moves a project's construction forward (or back) by
// delta percent, ratcheting status as thresholds are crossed.
func (e *Engine) AdvanceProgress(ctx context.Context, id ProjectID, delta int) (Project, error) {
	var unlocks []Unlock
	defer func() { e.fireUnlocks(unlocks) }()
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.projects[id]
	if !ok {
		return Project{}, &NotFoundError{Kind: "project", ID: string(id)}
	}

	p = AdvanceProgress(p, delta)
	e.projects[id] = p
	unlocks = e.commitLocked()

	return p, e.persistProjectLocked(ctx, p)
}

// RecordSpend charges amount against the project budget. A rejected spend
// has no effect anywhere: project, statistics, and achievements all keep
// their prior values.
func (e *Engine) RecordSpend(ctx context.Context, id ProjectID, amount Money) (Project, error) {
	var unlocks []Unlock
	defer func() { e.fireUnlocks(unlocks) }()
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.projects[id]
	if !ok {
		return Project{}, &NotFoundError{Kind: "project", ID: string(id)}
	}

	p, err := RecordSpend(p, amount)
	if err != nil {
		return p, err
	}

	e.projects[id] = p
	unlocks = e.commitLocked()

	return p, e.persistProjectLocked(ctx, p)
}

// CompleteEarly forces the project to Completed regardless of progress or
// spend - the accelerator override path.
func (e *Engine) CompleteEarly(ctx context.Context, id ProjectID) (Project, error) {
	var unlocks []Unlock
	defer func() { e.fireUnlocks(unlocks) }()
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.projects[id]
	if !ok {
		return Project{}, &NotFoundError{Kind: "project", ID: string(id)}
	}

	p = CompleteEarly(p)
	e.projects[id] = p
	unlocks = e.commitLocked()

	return p, e.persistProjectLocked(ctx, p)
}

// QuickActionResult reports what an applied action changed.
type QuickActionResult struct {
	Action  QuickAction
	Project *Project // nil for actions without a project effect
	Stats   ProgramStatistics
}

// ApplyQuickAction applies a predefined {cost, effect} bundle: progress
// and district satisfaction deltas on the target, plus the cost deducted
// from the program budget. All-or-nothing: a rejected action changes
// nothing.
func (e *Engine) ApplyQuickAction(ctx context.Context, actionID string, projectID ProjectID) (QuickActionResult, error) {
	var unlocks []Unlock
	defer func() { e.fireUnlocks(unlocks) }()
	e.mu.Lock()
	defer e.mu.Unlock()

	var action *QuickAction
	for i := range e.actions {
		if e.actions[i].ID == actionID {
			action = &e.actions[i]
			break
		}
	}
	if action == nil {
		return QuickActionResult{}, &NotFoundError{Kind: "action", ID: actionID}
	}

	// Check the program budget before touching anything.
	nextSpend := e.stats.SpentBudget.Add(action.Cost)
	if nextSpend.GreaterThan(e.totalBudget) {
		return QuickActionResult{}, &InsufficientBudgetError{
			Budget:    e.totalBudget,
			Spent:     e.stats.SpentBudget,
			Requested: action.Cost,
			Shortfall: nextSpend.Sub(e.totalBudget),
		}
	}

	result := QuickActionResult{Action: *action}

	if action.RequiresProject() {
		if projectID == "" {
			return QuickActionResult{}, ErrProjectRequired
		}
		p, ok := e.projects[projectID]
		if !ok {
			return QuickActionResult{}, &NotFoundError{Kind: "project", ID: string(projectID)}
		}

		if action.Effect.ProgressDelta != 0 {
			p = AdvanceProgress(p, action.Effect.ProgressDelta)
			e.projects[projectID] = p
		}
		if action.Effect.SatisfactionDelta != 0 {
			e.satisfaction[p.District] = clampPercent(e.satisfaction[p.District] + action.Effect.SatisfactionDelta)
		}
		result.Project = &p
	}

	e.actionSpend = e.actionSpend.Add(action.Cost)
	unlocks = e.commitLocked()
	result.Stats = e.stats

	if err := e.persistActionLocked(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// =============================================================================
// COMMIT PIPELINE
// =============================================================================

// commitLocked runs aggregate -> evaluate against the mutated state.
// Caller holds the write lock. Unlocks are returned, not reported: the
// sink runs only after the lock is released (see fireUnlocks), so a sink
// is free to call back into the engine.
func (e *Engine) commitLocked() []Unlock {
	in := e.aggregateInputLocked()
	stats := AggregateStatistics(in)
	snap := Snapshot{Projects: in.Projects, Districts: in.Districts, Stats: stats}

	var unlocks []Unlock
	e.achievements, unlocks = Evaluate(e.achievements, snap, e.now(), nil)
	e.stats = stats
	return unlocks
}

// fireUnlocks reports unlock events to the configured sink. Must be
// called without the engine lock held.
func (e *Engine) fireUnlocks(unlocks []Unlock) {
	if e.sink == nil {
		return
	}
	for _, u := range unlocks {
		e.sink(u)
	}
}

func (e *Engine) aggregateInputLocked() AggregateInput {
	projects := e.projectsLocked()
	return AggregateInput{
		Projects:    projects,
		Districts:   DeriveDistricts(e.satisfaction, projects),
		TotalBudget: e.totalBudget,
		ActionSpend: e.actionSpend,
		Policy:      e.policy,
	}
}

func (e *Engine) projectsLocked() []Project {
	out := make([]Project, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.projects[id])
	}
	return out
}

func (e *Engine) snapshotLocked() Snapshot {
	projects := e.projectsLocked()
	return Snapshot{
		Projects:  projects,
		Districts: DeriveDistricts(e.satisfaction, projects),
		Stats:     e.stats,
	}
}

// =============================================================================
// WRITE-THROUGH
// =============================================================================

func (e *Engine) persistProjectLocked(ctx context.Context, p Project) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SaveProject(ctx, p); err != nil {
		return err
	}
	// The header row marks the program as saved; without it a store with
	// projects but no header loads as empty.
	if err := e.store.SaveProgram(ctx, e.totalBudget, e.actionSpend); err != nil {
		return err
	}
	return e.persistDerivedLocked(ctx)
}

func (e *Engine) persistActionLocked(ctx context.Context, result QuickActionResult) error {
	if e.store == nil {
		return nil
	}
	if result.Project != nil {
		if err := e.store.SaveProject(ctx, *result.Project); err != nil {
			return err
		}
		if err := e.store.SaveSatisfaction(ctx, result.Project.District, e.satisfaction[result.Project.District]); err != nil {
			return err
		}
	}
	if err := e.store.SaveProgram(ctx, e.totalBudget, e.actionSpend); err != nil {
		return err
	}
	return e.persistDerivedLocked(ctx)
}

func (e *Engine) persistDerivedLocked(ctx context.Context) error {
	for _, a := range e.achievements {
		if err := e.store.SaveAchievement(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) persistAllLocked(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Reset(ctx); err != nil {
		return err
	}
	for _, id := range e.order {
		if err := e.store.SaveProject(ctx, e.projects[id]); err != nil {
			return err
		}
	}
	for d, v := range e.satisfaction {
		if err := e.store.SaveSatisfaction(ctx, d, v); err != nil {
			return err
		}
	}
	if err := e.store.SaveProgram(ctx, e.totalBudget, e.actionSpend); err != nil {
		return err
	}
	return e.persistDerivedLocked(ctx)
}

// =============================================================================
// HELPERS
// =============================================================================

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func cloneAchievement(a Achievement) Achievement {
	if a.UnlockedAt != nil {
		at := *a.UnlockedAt
		a.UnlockedAt = &at
	}
	return a
}
