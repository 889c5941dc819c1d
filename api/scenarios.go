/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the engine with realistic
	data for testing and demos. Each scenario resets the program state and
	seeds projects, district satisfaction, and the achievement catalog.

AVAILABLE SCENARIOS:

	fresh-program:   Empty program, full budget, everything locked
	showcase:        The dashboard's three flagship projects mid-flight
	district-report: Projects spread across districts for derived counts

HOW SCENARIOS WORK:
 1. Build a program.State (projects, satisfaction, achievements, budgets)
 2. Engine.Restore validates and swaps the state atomically
 3. The write-through store is reset and reseeded

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "showcase"}

NOTE:

	Scenarios replace all program state. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Shared response helpers
  - factory/catalog.go: Achievement catalog the scenarios seed
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mosbuild/renovation-engine/factory"
	"github.com/mosbuild/renovation-engine/program"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-program",
		Name:        "Fresh Program",
		Description: "Empty program with the full 500 billion ruble allocation",
	},
	{
		ID:          "showcase",
		Name:        "Showcase",
		Description: "Three flagship projects mid-flight, one completed",
	},
	{
		ID:          "district-report",
		Name:        "District Report",
		Description: "Projects across five districts for per-district progress",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the engine and seeds the selected scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var state program.State
	switch req.ScenarioID {
	case "fresh-program":
		state = freshProgramState()
	case "showcase":
		state = showcaseState()
	case "district-report":
		state = districtReportState()
	default:
		writeError(w, http.StatusNotFound, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}

	if err := h.Engine.Restore(r.Context(), state); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario_id": req.ScenarioID,
		"stats":       toStatisticsDTO(h.Engine.GetStatistics()),
	})
}

// =============================================================================
// SCENARIO STATES
// =============================================================================

const programAllocation = 500_000_000_000

func defaultCatalog() []program.Achievement {
	achievements, err := factory.DefaultAchievements()
	if err != nil {
		// The embedded catalog is fixed at build time; a parse failure is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return achievements
}

func freshProgramState() program.State {
	return program.State{
		Satisfaction: map[string]int{},
		Achievements: defaultCatalog(),
		TotalBudget:  program.NewMoney(programAllocation),
		ActionSpend:  program.NewMoney(0),
	}
}

func showcaseState() program.State {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	return program.State{
		Projects: []program.Project{
			{
				ID:             "proj-gorizonty",
				Name:           "ЖК Новые Горизонты",
				District:       "Бутово",
				Type:           program.TypeResidential,
				Status:         program.StatusConstruction,
				Progress:       65,
				Budget:         program.NewMoney(15_000_000_000),
				Spent:          program.NewMoney(9_750_000_000),
				Residents:      2400,
				CompletionDate: date(2025, time.June, 15),
				CreatedAt:      date(2024, time.January, 10),
			},
			{
				ID:             "proj-mira",
				Name:           "Жилой комплекс Мира",
				District:       "Марьино",
				Type:           program.TypeMixed,
				Status:         program.StatusPlanning,
				Progress:       15,
				Budget:         program.NewMoney(22_000_000_000),
				Spent:          program.NewMoney(3_300_000_000),
				Residents:      3200,
				CompletionDate: date(2026, time.December, 20),
				CreatedAt:      date(2024, time.March, 5),
			},
			{
				ID:             "proj-prospekt",
				Name:           "Дом на Проспекте",
				District:       "Коньково",
				Type:           program.TypeResidential,
				Status:         program.StatusCompleted,
				Progress:       100,
				Budget:         program.NewMoney(8_500_000_000),
				Spent:          program.NewMoney(8_200_000_000),
				Residents:      1800,
				CompletionDate: date(2024, time.March, 10),
				CreatedAt:      date(2023, time.February, 1),
			},
		},
		// Survey figures for all ten districts; flat mean is exactly 85,
		// the rating the dashboard header shows.
		Satisfaction: map[string]int{
			"Бутово":          88,
			"Марьино":         82,
			"Коньково":        91,
			"Солнцево":        86,
			"Митино":          79,
			"Некрасовка":      81,
			"Братеево":        84,
			"Выхино-Жулебино": 83,
			"Лианозово":       87,
			"Капотня":         89,
		},
		Achievements: defaultCatalog(),
		TotalBudget:  program.NewMoney(programAllocation),
		// Program-level spend beyond the three project budgets.
		ActionSpend: program.NewMoney(103_750_000_000),
	}
}

func districtReportState() program.State {
	state := showcaseState()

	extra := []struct {
		id        string
		name      string
		district  string
		status    program.ProjectStatus
		progress  int
		budget    int64
		spent     int64
		residents int
	}{
		{"proj-solncevo-1", "Квартал Солнечный", "Солнцево", program.StatusCompleted, 100, 9_000_000_000, 8_400_000_000, 2100},
		{"proj-solncevo-2", "Дом у Парка", "Солнцево", program.StatusConstruction, 40, 7_500_000_000, 2_800_000_000, 1500},
		{"proj-mitino-1", "ЖК Митино Лайф", "Митино", program.StatusConstruction, 55, 11_000_000_000, 5_900_000_000, 2700},
		{"proj-mitino-2", "Северные Высоты", "Митино", program.StatusPlanning, 0, 13_000_000_000, 0, 3100},
		{"proj-butovo-2", "Бутово Парк 2", "Бутово", program.StatusCompleted, 100, 6_800_000_000, 6_500_000_000, 1400},
	}

	for _, e := range extra {
		state.Projects = append(state.Projects, program.Project{
			ID:        program.ProjectID(e.id),
			Name:      e.name,
			District:  e.district,
			Type:      program.TypeResidential,
			Status:    e.status,
			Progress:  e.progress,
			Budget:    program.NewMoney(e.budget),
			Spent:     program.NewMoney(e.spent),
			Residents: e.residents,
			CreatedAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return state
}
