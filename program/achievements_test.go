package program_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mosbuild/renovation-engine/program"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func budgetMaster() program.Achievement {
	return program.Achievement{
		ID:     "budget_master",
		Title:  "Мастер бюджета",
		Metric: program.MetricBudgetSaved,
		Target: decimal.NewFromInt(10_000_000_000),
		Reward: "Премия управления",
	}
}

func snapshotWithSavings(t *testing.T, savedPerProject ...int64) program.Snapshot {
	t.Helper()
	projects := make([]program.Project, 0, len(savedPerProject))
	for _, saved := range savedPerProject {
		budget := int64(20_000_000_000)
		p, err := program.NewProject(program.NewProjectInput{
			Name:      "ЖК",
			District:  "Бутово",
			Budget:    rubles(budget),
			Residents: 100,
		}, testDistricts(), time.Now())
		if err != nil {
			t.Fatal(err)
		}
		p, err = program.RecordSpend(p, rubles(budget-saved))
		if err != nil {
			t.Fatal(err)
		}
		projects = append(projects, program.AdvanceProgress(p, 100))
	}

	stats := program.AggregateStatistics(program.AggregateInput{
		Projects:    projects,
		TotalBudget: rubles(500_000_000_000),
	})
	return program.Snapshot{Projects: projects, Stats: stats}
}

// =============================================================================
// METRIC TESTS
// =============================================================================

func TestMetricValue_BudgetSavedCountsCompletedOnly(t *testing.T) {
	// GIVEN: A completed project with 5 billion saved and an in-flight one
	// WHEN: Computing budget_saved
	// THEN: Only the completed project's savings count

	snap := snapshotWithSavings(t, 5_000_000_000)
	inFlight, err := program.NewProject(program.NewProjectInput{
		Name: "ЖК", District: "Марьино", Budget: rubles(9_000_000_000), Residents: 50,
	}, testDistricts(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	snap.Projects = append(snap.Projects, program.AdvanceProgress(inFlight, 40))

	got := program.MetricValue(program.MetricBudgetSaved, snap)
	if !got.Equal(decimal.NewFromInt(5_000_000_000)) {
		t.Errorf("expected 5000000000 saved, got %v", got)
	}
}

func TestMetricValue_CompletedProjects(t *testing.T) {
	snap := snapshotWithSavings(t, 1, 2)

	got := program.MetricValue(program.MetricCompletedProjects, snap)
	if !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected 2, got %v", got)
	}
}

func TestMetricValue_UnknownMetricIsZero(t *testing.T) {
	got := program.MetricValue(program.Metric("popularity"), snapshotWithSavings(t, 1))
	if !got.IsZero() {
		t.Errorf("expected zero for unknown metric, got %v", got)
	}
}

// =============================================================================
// UNLOCK TESTS
// =============================================================================

func TestEvaluate_UnlocksAtTarget(t *testing.T) {
	// GIVEN: budget_master (target 10 billion) with 8.2 billion saved
	// WHEN: Savings rise to 10.2 billion
	// THEN: Locked before, unlocked after, reward fired once

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	var fired []program.Unlock
	sink := func(u program.Unlock) { fired = append(fired, u) }

	below := snapshotWithSavings(t, 8_200_000_000)
	achievements, unlocks := program.Evaluate([]program.Achievement{budgetMaster()}, below, now, sink)
	if achievements[0].Unlocked {
		t.Fatal("unlocked below target")
	}
	if len(unlocks) != 0 || len(fired) != 0 {
		t.Fatalf("unexpected unlock events: %d reported, %d fired", len(unlocks), len(fired))
	}
	if !achievements[0].Progress.Equal(decimal.NewFromInt(8_200_000_000)) {
		t.Errorf("tracked progress not updated: %v", achievements[0].Progress)
	}

	above := snapshotWithSavings(t, 8_200_000_000, 2_000_000_000)
	achievements, unlocks = program.Evaluate(achievements, above, now, sink)
	if !achievements[0].Unlocked {
		t.Fatal("expected unlock at 10.2 billion saved")
	}
	if len(unlocks) != 1 || len(fired) != 1 {
		t.Fatalf("expected exactly one unlock event, got %d reported, %d fired", len(unlocks), len(fired))
	}
	if achievements[0].UnlockedAt == nil || !achievements[0].UnlockedAt.Equal(now) {
		t.Errorf("unlock timestamp not recorded: %v", achievements[0].UnlockedAt)
	}
}

func TestEvaluate_UnlockedStaysUnlockedWhenMetricDrops(t *testing.T) {
	// GIVEN: budget_master unlocked at 10.2 billion saved
	// WHEN: Savings drop back to 9 billion
	// THEN: Still unlocked, no second reward, progress tracks the new value

	now := time.Now()
	var fired int
	sink := func(program.Unlock) { fired++ }

	achievements, _ := program.Evaluate(
		[]program.Achievement{budgetMaster()},
		snapshotWithSavings(t, 10_200_000_000), now, sink)
	if !achievements[0].Unlocked {
		t.Fatal("setup: expected unlock")
	}

	achievements, unlocks := program.Evaluate(achievements, snapshotWithSavings(t, 9_000_000_000), now, sink)
	if !achievements[0].Unlocked {
		t.Error("unlock reverted when metric dropped")
	}
	if len(unlocks) != 0 || fired != 1 {
		t.Errorf("reward replayed: %d events, sink fired %d times", len(unlocks), fired)
	}
	if !achievements[0].Progress.Equal(decimal.NewFromInt(9_000_000_000)) {
		t.Errorf("tracked progress stale: %v", achievements[0].Progress)
	}
}

func TestEvaluate_InputSliceNotModified(t *testing.T) {
	input := []program.Achievement{budgetMaster()}

	program.Evaluate(input, snapshotWithSavings(t, 15_000_000_000), time.Now(), nil)

	if input[0].Unlocked {
		t.Error("Evaluate mutated the input slice")
	}
}

// =============================================================================
// CATALOG VALIDATION TESTS
// =============================================================================

func TestValidateAchievement(t *testing.T) {
	if err := program.ValidateAchievement(budgetMaster()); err != nil {
		t.Errorf("valid entry rejected: %v", err)
	}

	bad := budgetMaster()
	bad.ID = ""
	bad.Metric = program.Metric("popularity")
	bad.Target = decimal.Zero

	err := program.ValidateAchievement(bad)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	var verr *program.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Errorf("expected 3 violated fields, got %v", err)
	}
}
