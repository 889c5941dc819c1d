package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosbuild/renovation-engine/program"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "renovation.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleProject() program.Project {
	return program.Project{
		ID:              "proj-gorizonty",
		Name:            "ЖК Новые Горизонты",
		District:        "Бутово",
		Type:            program.TypeResidential,
		Description:     "Современный жилой комплекс",
		Status:          program.StatusConstruction,
		Progress:        65,
		Budget:          program.NewMoney(15_000_000_000),
		Spent:           program.NewMoney(9_750_000_000),
		Residents:       2400,
		CompletionDate:  time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
		EarlyCompletion: false,
		CreatedAt:       time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestLoad_EmptyDatabaseReturnsNil(t *testing.T) {
	st := newTestStore(t)

	state, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state, "an unsaved program should load as nil, not as empty state")
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	p := sampleProject()
	require.NoError(t, st.SaveProject(ctx, p))
	require.NoError(t, st.SaveProgram(ctx, program.NewMoney(500_000_000_000), program.NewMoney(0)))

	state, err := st.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Len(t, state.Projects, 1)

	got := state.Projects[0]
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.District, got.District)
	assert.Equal(t, p.Type, got.Type)
	assert.Equal(t, p.Status, got.Status)
	assert.Equal(t, p.Progress, got.Progress)
	assert.True(t, got.Budget.Equal(p.Budget), "budget should round-trip exactly: %v", got.Budget)
	assert.True(t, got.Spent.Equal(p.Spent), "spent should round-trip exactly: %v", got.Spent)
	assert.Equal(t, p.Residents, got.Residents)
	assert.True(t, got.CompletionDate.Equal(p.CompletionDate))
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
}

func TestSaveProject_UpsertPreservesOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first := sampleProject()
	second := sampleProject()
	second.ID = "proj-mira"
	second.Name = "Жилой комплекс Мира"
	second.District = "Марьино"
	second.Status = program.StatusPlanning
	second.Progress = 0
	second.Spent = program.NewMoney(0)

	require.NoError(t, st.SaveProject(ctx, first))
	require.NoError(t, st.SaveProject(ctx, second))

	// Updating the first project must not move it behind the second
	first.Progress = 80
	require.NoError(t, st.SaveProject(ctx, first))
	require.NoError(t, st.SaveProgram(ctx, program.NewMoney(500_000_000_000), program.NewMoney(0)))

	state, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, state.Projects, 2)
	assert.Equal(t, program.ProjectID("proj-gorizonty"), state.Projects[0].ID)
	assert.Equal(t, 80, state.Projects[0].Progress)
	assert.Equal(t, program.ProjectID("proj-mira"), state.Projects[1].ID)
}

func TestAchievementRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	unlockedAt := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	a := program.Achievement{
		ID:          "budget_master",
		Title:       "Мастер бюджета",
		Description: "Сэкономить 10 миллиардов",
		Metric:      program.MetricBudgetSaved,
		Progress:    decimal.NewFromInt(10_200_000_000),
		Target:      decimal.NewFromInt(10_000_000_000),
		Reward:      "Премия управления",
		Unlocked:    true,
		UnlockedAt:  &unlockedAt,
	}
	locked := program.Achievement{
		ID:     "speed_builder",
		Title:  "Скоростной строитель",
		Metric: program.MetricEarlyCompletions,
		Target: decimal.NewFromInt(10),
	}

	require.NoError(t, st.SaveAchievement(ctx, a))
	require.NoError(t, st.SaveAchievement(ctx, locked))
	require.NoError(t, st.SaveProgram(ctx, program.NewMoney(500_000_000_000), program.NewMoney(0)))

	state, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, state.Achievements, 2)

	got := state.Achievements[0]
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, got.Unlocked)
	require.NotNil(t, got.UnlockedAt)
	assert.True(t, got.UnlockedAt.Equal(unlockedAt))
	assert.True(t, got.Progress.Equal(a.Progress), "billions must survive as exact decimals: %v", got.Progress)
	assert.True(t, got.Target.Equal(a.Target))

	assert.False(t, state.Achievements[1].Unlocked)
	assert.Nil(t, state.Achievements[1].UnlockedAt)
}

func TestSatisfactionAndProgramHeader(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveSatisfaction(ctx, "Бутово", 88))
	require.NoError(t, st.SaveSatisfaction(ctx, "Марьино", 82))
	require.NoError(t, st.SaveSatisfaction(ctx, "Бутово", 93)) // survey update
	require.NoError(t, st.SaveProgram(ctx,
		program.NewMoney(500_000_000_000), program.NewMoney(103_750_000_000)))

	state, err := st.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, 93, state.Satisfaction["Бутово"])
	assert.Equal(t, 82, state.Satisfaction["Марьино"])
	assert.True(t, state.TotalBudget.Equal(program.NewMoney(500_000_000_000)))
	assert.True(t, state.ActionSpend.Equal(program.NewMoney(103_750_000_000)))
}

func TestReset_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveProject(ctx, sampleProject()))
	require.NoError(t, st.SaveSatisfaction(ctx, "Бутово", 88))
	require.NoError(t, st.SaveProgram(ctx, program.NewMoney(500_000_000_000), program.NewMoney(0)))

	require.NoError(t, st.Reset(ctx))

	state, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, state, "a reset store should behave like a fresh one")
}

func TestEngineWriteThroughSurvivesRestart(t *testing.T) {
	// The full persistence loop: engine writes through, a second engine
	// boots from the same file and resumes.
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "renovation.db")

	st, err := New(path)
	require.NoError(t, err)

	engine := program.NewEngine(program.Config{
		TotalBudget: program.NewMoney(500_000_000_000),
		Store:       st,
	})
	created, err := engine.CreateProject(ctx, program.NewProjectInput{
		Name:      "ЖК Новые Горизонты",
		District:  "Бутово",
		Budget:    program.NewMoney(15_000_000_000),
		Residents: 2400,
	})
	require.NoError(t, err)
	_, err = engine.AdvanceProgress(ctx, created.ID, 65)
	require.NoError(t, err)
	_, err = engine.ApplyQuickAction(ctx, "improve_quality", created.ID)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st2, err := New(path)
	require.NoError(t, err)
	defer st2.Close()

	state, err := st2.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)

	reborn := program.NewEngine(program.Config{TotalBudget: program.NewMoney(500_000_000_000)})
	require.NoError(t, reborn.Restore(ctx, *state))

	got, err := reborn.GetProject(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 65, got.Progress)
	assert.Equal(t, program.StatusConstruction, got.Status)
	assert.True(t, reborn.GetStatistics().SpentBudget.Equal(program.NewMoney(8_000_000_000)),
		"spend should include the 8 billion improve_quality cost: %v", reborn.GetStatistics().SpentBudget)
}
