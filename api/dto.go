/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  Monetary values travel as decimal strings ("15000000000"), never JSON
  numbers, so billion-ruble budgets survive every JSON parser intact. The
  core deals in raw amounts; currency formatting is the client's job.

VALIDATION:
  Validation is done by the program core, not in DTOs. DTOs are pure data
  carriers; handlers only translate shapes.

SEE ALSO:
  - handlers.go: Uses these types
  - program/types.go: The entities these mirror
*/
package api

import (
	"time"

	"github.com/mosbuild/renovation-engine/program"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProjectDTO represents a project in API responses.
type ProjectDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	District        string  `json:"district"`
	Type            string  `json:"type,omitempty"`
	Description     string  `json:"description,omitempty"`
	Status          string  `json:"status"`
	Progress        int     `json:"progress"`
	Budget          string  `json:"budget"`
	Spent           string  `json:"spent"`
	Residents       int     `json:"residents"`
	CompletionDate  string  `json:"completion_date,omitempty"`
	CompletionRatio float64 `json:"completion_ratio"`
	BudgetUsedRatio float64 `json:"budget_used_ratio"`
	BudgetAnomaly   bool    `json:"budget_anomaly,omitempty"`
	EarlyCompletion bool    `json:"early_completion,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// CreateProjectRequest is the submission from the project form.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	District    string `json:"district"`
	Budget      string `json:"budget"` // decimal string, rubles
	Residents   int    `json:"residents"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// AdvanceProgressRequest moves construction progress by a delta.
type AdvanceProgressRequest struct {
	Delta int `json:"delta"`
}

// RecordSpendRequest charges an amount against the project budget.
type RecordSpendRequest struct {
	Amount string `json:"amount"` // decimal string, rubles
}

// QuickActionRequest applies a predefined action.
type QuickActionRequest struct {
	ActionID  string `json:"action_id"`
	ProjectID string `json:"project_id,omitempty"`
}

// QuickActionResultDTO reports what an action changed.
type QuickActionResultDTO struct {
	Action  QuickActionDTO `json:"action"`
	Project *ProjectDTO    `json:"project,omitempty"`
	Stats   StatisticsDTO  `json:"stats"`
}

// QuickActionDTO represents a catalog action.
type QuickActionDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Cost              string `json:"cost"`
	DurationDays      int    `json:"duration_days,omitempty"`
	ProgressDelta     int    `json:"progress_delta,omitempty"`
	SatisfactionDelta int    `json:"satisfaction_delta,omitempty"`
	Summary           string `json:"summary,omitempty"`
	Icon              string `json:"icon,omitempty"`
	RequiresProject   bool   `json:"requires_project"`
}

// DistrictDTO represents derived district progress.
type DistrictDTO struct {
	Name            string  `json:"name"`
	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	Satisfaction    int     `json:"satisfaction"`
	CompletionRatio float64 `json:"completion_ratio"`
}

// AchievementDTO represents an achievement with unlock state.
type AchievementDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Metric      string  `json:"metric"`
	Progress    string  `json:"progress"`
	Target      string  `json:"target"`
	Ratio       float64 `json:"ratio"`
	Reward      string  `json:"reward,omitempty"`
	Unlocked    bool    `json:"unlocked"`
	UnlockedAt  string  `json:"unlocked_at,omitempty"`
}

// StatisticsDTO is the program-wide aggregate view.
type StatisticsDTO struct {
	TotalBudget        string `json:"total_budget"`
	SpentBudget        string `json:"spent_budget"`
	RemainingBudget    string `json:"remaining_budget"`
	TotalProjects      int    `json:"total_projects"`
	CompletedProjects  int    `json:"completed_projects"`
	SatisfactionRating int    `json:"satisfaction_rating"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProjectDTO(p program.Project) ProjectDTO {
	used, anomaly := program.BudgetUtilization(p)
	dto := ProjectDTO{
		ID:              string(p.ID),
		Name:            p.Name,
		District:        p.District,
		Type:            string(p.Type),
		Description:     p.Description,
		Status:          string(p.Status),
		Progress:        p.Progress,
		Budget:          p.Budget.String(),
		Spent:           p.Spent.String(),
		Residents:       p.Residents,
		CompletionRatio: program.CompletionRatio(p),
		BudgetUsedRatio: used,
		BudgetAnomaly:   anomaly,
		EarlyCompletion: p.EarlyCompletion,
	}
	if !p.CompletionDate.IsZero() {
		dto.CompletionDate = p.CompletionDate.Format("2006-01-02")
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toProjectDTOs(projects []program.Project) []ProjectDTO {
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	return dtos
}

func toDistrictDTO(d program.District) DistrictDTO {
	ratio := 0.0
	if d.Total > 0 {
		ratio = float64(d.Completed) / float64(d.Total)
	}
	return DistrictDTO{
		Name:            d.Name,
		Completed:       d.Completed,
		Total:           d.Total,
		Satisfaction:    d.Satisfaction,
		CompletionRatio: ratio,
	}
}

func toAchievementDTO(a program.Achievement) AchievementDTO {
	dto := AchievementDTO{
		ID:          string(a.ID),
		Title:       a.Title,
		Description: a.Description,
		Metric:      string(a.Metric),
		Progress:    a.Progress.String(),
		Target:      a.Target.String(),
		Ratio:       a.Ratio(),
		Reward:      a.Reward,
		Unlocked:    a.Unlocked,
	}
	if a.UnlockedAt != nil {
		dto.UnlockedAt = a.UnlockedAt.Format(time.RFC3339)
	}
	return dto
}

func toStatisticsDTO(s program.ProgramStatistics) StatisticsDTO {
	return StatisticsDTO{
		TotalBudget:        s.TotalBudget.String(),
		SpentBudget:        s.SpentBudget.String(),
		RemainingBudget:    s.Remaining().String(),
		TotalProjects:      s.TotalProjects,
		CompletedProjects:  s.CompletedProjects,
		SatisfactionRating: s.SatisfactionRating,
	}
}

func toQuickActionDTO(a program.QuickAction) QuickActionDTO {
	return QuickActionDTO{
		ID:                a.ID,
		Name:              a.Name,
		Cost:              a.Cost.String(),
		DurationDays:      a.Duration,
		ProgressDelta:     a.Effect.ProgressDelta,
		SatisfactionDelta: a.Effect.SatisfactionDelta,
		Summary:           a.Effect.Summary,
		Icon:              a.Icon,
		RequiresProject:   a.RequiresProject(),
	}
}
