package store

import (
	"context"
	"testing"

	"github.com/mosbuild/renovation-engine/program"
)

func TestMemory_LoadsNilUntilSaved(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	state, err := m.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state != nil {
		t.Error("fresh store should load nil")
	}

	if err := m.SaveSatisfaction(ctx, "Бутово", 88); err != nil {
		t.Fatal(err)
	}
	state, err = m.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state == nil || state.Satisfaction["Бутово"] != 88 {
		t.Errorf("saved satisfaction not loaded: %+v", state)
	}
}

func TestMemory_ProjectsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, id := range []program.ProjectID{"a", "b", "c"} {
		if err := m.SaveProject(ctx, program.Project{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	// Re-saving must not move a project to the back
	if err := m.SaveProject(ctx, program.Project{ID: "a", Progress: 50}); err != nil {
		t.Fatal(err)
	}

	state, err := m.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(state.Projects))
	}
	if state.Projects[0].ID != "a" || state.Projects[0].Progress != 50 {
		t.Errorf("upsert broke ordering: %+v", state.Projects)
	}
}

func TestMemory_ResetClears(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SaveProgram(ctx, program.NewMoney(500), program.NewMoney(5)); err != nil {
		t.Fatal(err)
	}
	if err := m.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	state, err := m.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state != nil {
		t.Error("reset store should load nil")
	}
}
