package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mosbuild/renovation-engine/factory"
	"github.com/mosbuild/renovation-engine/program"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	achievements, err := factory.DefaultAchievements()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	engine := program.NewEngine(program.Config{
		TotalBudget:  program.NewMoney(500_000_000_000),
		Achievements: achievements,
	})
	srv := httptest.NewServer(NewRouter(NewHandler(engine)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, url, err)
		}
	}
	return resp
}

func createTestProject(t *testing.T, srv *httptest.Server, budget string) ProjectDTO {
	t.Helper()
	var dto ProjectDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projects", CreateProjectRequest{
		Name:      "ЖК Новые Горизонты",
		District:  "Бутово",
		Budget:    budget,
		Residents: 2400,
		Type:      "residential",
	}, &dto)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	return dto
}

// =============================================================================
// PROJECT ENDPOINT TESTS
// =============================================================================

func TestAPI_CreateAndGetProject(t *testing.T) {
	srv := newTestServer(t)

	created := createTestProject(t, srv, "15000000000")
	if created.Status != "planning" || created.Progress != 0 {
		t.Errorf("unexpected initial state: %+v", created)
	}
	if created.Budget != "15000000000" {
		t.Errorf("budget should travel as a decimal string, got %q", created.Budget)
	}

	var got ProjectDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/projects/"+created.ID, nil, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got.ID != created.ID || got.Name != "ЖК Новые Горизонты" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestAPI_CreateProject_ValidationErrorListsFields(t *testing.T) {
	srv := newTestServer(t)

	var errResp ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projects", CreateProjectRequest{
		District: "Нарния",
		Budget:   "-5",
	}, &errResp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if errResp.Code != "validation_error" {
		t.Errorf("expected validation_error code, got %q", errResp.Code)
	}
	fields, ok := errResp.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected field map details, got %T", errResp.Details)
	}
	for _, f := range []string{"name", "district", "budget"} {
		if _, present := fields[f]; !present {
			t.Errorf("missing %s violation in %v", f, fields)
		}
	}
}

func TestAPI_AdvanceAndSpendFlow(t *testing.T) {
	srv := newTestServer(t)
	p := createTestProject(t, srv, "15000000000")

	var advanced ProjectDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/progress",
		AdvanceProgressRequest{Delta: 65}, &advanced)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d", resp.StatusCode)
	}
	if advanced.Progress != 65 || advanced.Status != "construction" {
		t.Errorf("expected 65/construction, got %d/%s", advanced.Progress, advanced.Status)
	}
	if advanced.CompletionRatio != 0.65 {
		t.Errorf("expected completion_ratio 0.65, got %v", advanced.CompletionRatio)
	}

	var spent ProjectDTO
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/spend",
		RecordSpendRequest{Amount: "9750000000"}, &spent)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("spend: expected 200, got %d", resp.StatusCode)
	}
	if spent.Spent != "9750000000" {
		t.Errorf("expected spent 9750000000, got %q", spent.Spent)
	}
}

func TestAPI_OverspendReturnsConflictWithShortfall(t *testing.T) {
	srv := newTestServer(t)
	p := createTestProject(t, srv, "15000000000")

	doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/spend",
		RecordSpendRequest{Amount: "9750000000"}, nil)

	var errResp ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/spend",
		RecordSpendRequest{Amount: "6000000000"}, &errResp)

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if errResp.Code != "insufficient_budget" {
		t.Errorf("expected insufficient_budget code, got %q", errResp.Code)
	}
	details, ok := errResp.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected detail map, got %T", errResp.Details)
	}
	if details["shortfall"] != "750000000" {
		t.Errorf("expected shortfall 750000000, got %v", details["shortfall"])
	}

	// Nothing was charged
	var got ProjectDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/projects/"+p.ID, nil, &got)
	if got.Spent != "9750000000" {
		t.Errorf("rejected spend changed state: %q", got.Spent)
	}
}

func TestAPI_CompleteEarly(t *testing.T) {
	srv := newTestServer(t)
	p := createTestProject(t, srv, "22000000000")

	var done ProjectDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/complete", nil, &done)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if done.Status != "completed" || done.Progress != 100 || !done.EarlyCompletion {
		t.Errorf("unexpected override result: %+v", done)
	}
}

func TestAPI_UnknownProjectIs404(t *testing.T) {
	srv := newTestServer(t)

	var errResp ErrorResponse
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/projects/missing", nil, &errResp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if errResp.Code != "not_found" {
		t.Errorf("expected not_found code, got %q", errResp.Code)
	}
}

// =============================================================================
// PROGRAM ENDPOINT TESTS
// =============================================================================

func TestAPI_StatisticsReflectCommands(t *testing.T) {
	srv := newTestServer(t)
	p := createTestProject(t, srv, "8500000000")
	doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/complete", nil, nil)

	var stats StatisticsDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/statistics", nil, &stats)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stats.TotalProjects != 1 || stats.CompletedProjects != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.TotalBudget != "500000000000" {
		t.Errorf("expected total 500000000000, got %q", stats.TotalBudget)
	}
}

func TestAPI_AchievementUnlockVisible(t *testing.T) {
	srv := newTestServer(t)
	p := createTestProject(t, srv, "8500000000")
	doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/complete", nil, nil)

	var achievements []AchievementDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/achievements", nil, &achievements)

	found := false
	for _, a := range achievements {
		if a.ID == "first_project" {
			found = true
			if !a.Unlocked || a.UnlockedAt == "" {
				t.Errorf("first_project should be unlocked with a timestamp: %+v", a)
			}
		}
	}
	if !found {
		t.Error("first_project missing from catalog")
	}
}

func TestAPI_DistrictsDerived(t *testing.T) {
	srv := newTestServer(t)
	p := createTestProject(t, srv, "8500000000")
	doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/complete", nil, nil)

	var districts []DistrictDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/districts", nil, &districts)

	if len(districts) != len(program.MoscowDistricts) {
		t.Fatalf("expected %d districts, got %d", len(program.MoscowDistricts), len(districts))
	}
	for _, d := range districts {
		if d.Name == "Бутово" {
			if d.Total != 1 || d.Completed != 1 || d.CompletionRatio != 1.0 {
				t.Errorf("unexpected Бутово counts: %+v", d)
			}
		}
	}
}

// =============================================================================
// QUICK ACTION ENDPOINT TESTS
// =============================================================================

func TestAPI_QuickActionCatalogAndApply(t *testing.T) {
	srv := newTestServer(t)

	var actions []QuickActionDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/actions", nil, &actions)
	if len(actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(actions))
	}

	p := createTestProject(t, srv, "15000000000")
	doJSON(t, http.MethodPost, srv.URL+"/api/projects/"+p.ID+"/progress",
		AdvanceProgressRequest{Delta: 30}, nil)

	var result QuickActionResultDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/actions/apply",
		QuickActionRequest{ActionID: "eco_upgrade", ProjectID: p.ID}, &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if result.Project == nil || result.Project.Progress != 40 {
		t.Errorf("expected progress 40 after eco_upgrade, got %+v", result.Project)
	}
	if result.Stats.SpentBudget != "6000000000" {
		t.Errorf("action cost missing from program spend: %q", result.Stats.SpentBudget)
	}
}

func TestAPI_QuickActionWithoutProjectIs400(t *testing.T) {
	srv := newTestServer(t)

	var errResp ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/actions/apply",
		QuickActionRequest{ActionID: "speed_construction"}, &errResp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
