/*
handlers.go - HTTP API handlers for the renovation program engine

PURPOSE:
  Exposes the program engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the core.

ENDPOINTS:
  Projects:
    GET    /api/projects                    List all projects
    POST   /api/projects                    Create project
    GET    /api/projects/{id}               Get project details
    POST   /api/projects/{id}/progress      Advance construction progress
    POST   /api/projects/{id}/spend         Record budget spend
    POST   /api/projects/{id}/complete      Complete early (override)

  Program:
    GET    /api/districts                   Derived district progress
    GET    /api/statistics                  Program-wide aggregate
    GET    /api/achievements                Achievement catalog + unlocks
    GET    /api/actions                     Quick action catalog
    POST   /api/actions/apply               Apply a quick action

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed input
  - 404: Unknown project/district/action
  - 409: Insufficient budget
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mosbuild/renovation-engine/program"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *program.Engine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler around the engine.
func NewHandler(engine *program.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns all projects in creation order.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toProjectDTOs(h.Engine.ListProjects()))
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := program.ProjectID(chi.URLParam(r, "id"))

	p, err := h.Engine.GetProject(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// CreateProject validates and adds a new project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	budget, err := program.ParseMoney(req.Budget)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid budget amount", err)
		return
	}

	p, err := h.Engine.CreateProject(r.Context(), program.NewProjectInput{
		Name:        req.Name,
		District:    req.District,
		Budget:      budget,
		Residents:   req.Residents,
		Description: req.Description,
		Type:        program.ProjectType(req.Type),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

// AdvanceProgress moves construction progress by a delta.
func (h *Handler) AdvanceProgress(w http.ResponseWriter, r *http.Request) {
	id := program.ProjectID(chi.URLParam(r, "id"))

	var req AdvanceProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.Engine.AdvanceProgress(r.Context(), id, req.Delta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// RecordSpend charges an amount against the project budget.
func (h *Handler) RecordSpend(w http.ResponseWriter, r *http.Request) {
	id := program.ProjectID(chi.URLParam(r, "id"))

	var req RecordSpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := program.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid spend amount", err)
		return
	}

	p, err := h.Engine.RecordSpend(r.Context(), id, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// CompleteEarly forces a project to Completed.
func (h *Handler) CompleteEarly(w http.ResponseWriter, r *http.Request) {
	id := program.ProjectID(chi.URLParam(r, "id"))

	p, err := h.Engine.CompleteEarly(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// =============================================================================
// PROGRAM HANDLERS
// =============================================================================

// ListDistricts returns derived district progress.
func (h *Handler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	districts := h.Engine.ListDistricts()
	dtos := make([]DistrictDTO, len(districts))
	for i, d := range districts {
		dtos[i] = toDistrictDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStatistics returns the program-wide aggregate.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStatisticsDTO(h.Engine.GetStatistics()))
}

// ListAchievements returns the achievement catalog with unlock state.
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements := h.Engine.ListAchievements()
	dtos := make([]AchievementDTO, len(achievements))
	for i, a := range achievements {
		dtos[i] = toAchievementDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListQuickActions returns the quick action catalog.
func (h *Handler) ListQuickActions(w http.ResponseWriter, r *http.Request) {
	actions := h.Engine.ListQuickActions()
	dtos := make([]QuickActionDTO, len(actions))
	for i, a := range actions {
		dtos[i] = toQuickActionDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApplyQuickAction applies a predefined {cost, effect} bundle.
func (h *Handler) ApplyQuickAction(w http.ResponseWriter, r *http.Request) {
	var req QuickActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Engine.ApplyQuickAction(r.Context(), req.ActionID, program.ProjectID(req.ProjectID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := QuickActionResultDTO{
		Action: toQuickActionDTO(result.Action),
		Stats:  toStatisticsDTO(result.Stats),
	}
	if result.Project != nil {
		p := toProjectDTO(*result.Project)
		dto.Project = &p
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps core errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, program.ErrInsufficientBudget):
		resp := ErrorResponse{Error: err.Error(), Code: "insufficient_budget"}
		var ibe *program.InsufficientBudgetError
		if errors.As(err, &ibe) {
			resp.Details = map[string]string{
				"budget":    ibe.Budget.String(),
				"spent":     ibe.Spent.String(),
				"requested": ibe.Requested.String(),
				"shortfall": ibe.Shortfall.String(),
			}
		}
		writeJSON(w, http.StatusConflict, resp)

	case errors.Is(err, program.ErrValidation):
		resp := ErrorResponse{Error: err.Error(), Code: "validation_error"}
		var verr *program.ValidationError
		if errors.As(err, &verr) {
			fields := make(map[string]string, len(verr.Fields))
			for _, f := range verr.Fields {
				fields[f.Field] = f.Reason
			}
			resp.Details = fields
		}
		writeJSON(w, http.StatusBadRequest, resp)

	case program.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})

	case program.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})

	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
