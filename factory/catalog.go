/*
Package factory provides JSON to Go catalog conversion.

PURPOSE:
  Converts JSON achievement and quick-action definitions into program
  types. This keeps the gamification catalog configurable without code
  changes - a designer edits JSON, the factory builds the proper structs.

WHY JSON?
  - Non-developers can tune targets and rewards
  - Easy integration with an admin UI
  - Version control for catalog definitions
  - Database storage of catalog configs

JSON SCHEMA (achievement):
  {
    "id": "budget_master",
    "title": "Мастер бюджета",
    "description": "Сэкономьте 10 млрд рублей на проектах",
    "metric": "budget_saved",
    "target": "10000000000",
    "reward": "+3% к эффективности",
    "icon": "DollarSign"
  }

JSON SCHEMA (quick action):
  {
    "id": "speed_construction",
    "name": "Ускорить строительство",
    "cost": "5000000000",
    "duration_days": 30,
    "progress_delta": 20,
    "satisfaction_delta": 0,
    "summary": "+20% скорость на 30 дней",
    "icon": "Zap"
  }

KEY FEATURES:
  - Validates every entry with the program package's own validation
  - Targets and costs parsed as decimal strings, never floats
  - Ships the default dashboard catalog as embedded JSON

USAGE:
  f := factory.NewCatalogFactory()
  achievements, err := f.ParseAchievements(jsonStr)
  actions, err := f.ParseQuickActions(jsonStr)

  // Or the defaults the dashboard ships with:
  achievements, _ := factory.DefaultAchievements()

SEE ALSO:
  - program/achievements.go: Metric semantics and evaluation
  - program/actions.go: Effect semantics
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/mosbuild/renovation-engine/program"
	"github.com/shopspring/decimal"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// AchievementJSON is the JSON representation of an achievement.
type AchievementJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Metric      string `json:"metric"`
	Target      string `json:"target"` // decimal string: count, rubles, or percent
	Reward      string `json:"reward,omitempty"`
	Icon        string `json:"icon,omitempty"` // presentation tag, ignored by the core
}

// QuickActionJSON is the JSON representation of a quick action.
type QuickActionJSON struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Cost              string `json:"cost"` // decimal string, rubles
	DurationDays      int    `json:"duration_days,omitempty"`
	ProgressDelta     int    `json:"progress_delta,omitempty"`
	SatisfactionDelta int    `json:"satisfaction_delta,omitempty"`
	Summary           string `json:"summary,omitempty"`
	Icon              string `json:"icon,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// CatalogFactory converts JSON definitions into program catalog entries.
type CatalogFactory struct{}

func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseAchievements parses a JSON array of achievement definitions.
// Every entry is validated through program.ValidateAchievement.
func (f *CatalogFactory) ParseAchievements(jsonStr string) ([]program.Achievement, error) {
	var defs []AchievementJSON
	if err := json.Unmarshal([]byte(jsonStr), &defs); err != nil {
		return nil, fmt.Errorf("invalid achievement catalog: %w", err)
	}

	achievements := make([]program.Achievement, 0, len(defs))
	for _, def := range defs {
		a, err := f.buildAchievement(def)
		if err != nil {
			return nil, fmt.Errorf("achievement %q: %w", def.ID, err)
		}
		achievements = append(achievements, a)
	}
	return achievements, nil
}

func (f *CatalogFactory) buildAchievement(def AchievementJSON) (program.Achievement, error) {
	target, err := decimal.NewFromString(def.Target)
	if err != nil {
		return program.Achievement{}, fmt.Errorf("invalid target %q: %w", def.Target, err)
	}

	a := program.Achievement{
		ID:          program.AchievementID(def.ID),
		Title:       def.Title,
		Description: def.Description,
		Metric:      program.Metric(def.Metric),
		Progress:    decimal.Zero,
		Target:      target,
		Reward:      def.Reward,
	}
	if err := program.ValidateAchievement(a); err != nil {
		return program.Achievement{}, err
	}
	return a, nil
}

// ParseQuickActions parses a JSON array of quick action definitions.
func (f *CatalogFactory) ParseQuickActions(jsonStr string) ([]program.QuickAction, error) {
	var defs []QuickActionJSON
	if err := json.Unmarshal([]byte(jsonStr), &defs); err != nil {
		return nil, fmt.Errorf("invalid action catalog: %w", err)
	}

	actions := make([]program.QuickAction, 0, len(defs))
	for _, def := range defs {
		if def.ID == "" || def.Name == "" {
			return nil, fmt.Errorf("action %q: id and name are required", def.ID)
		}
		cost, err := decimal.NewFromString(def.Cost)
		if err != nil || !cost.IsPositive() {
			return nil, fmt.Errorf("action %q: invalid cost %q", def.ID, def.Cost)
		}

		actions = append(actions, program.QuickAction{
			ID:       def.ID,
			Name:     def.Name,
			Cost:     program.Money{Value: cost},
			Duration: def.DurationDays,
			Icon:     def.Icon,
			Effect: program.ActionEffect{
				ProgressDelta:     def.ProgressDelta,
				SatisfactionDelta: def.SatisfactionDelta,
				Summary:           def.Summary,
			},
		})
	}
	return actions, nil
}

// =============================================================================
// DEFAULT CATALOG - What the dashboard ships with
// =============================================================================

const defaultAchievementsJSON = `[
  {
    "id": "first_project",
    "title": "Первый проект",
    "description": "Завершите свой первый проект реновации",
    "metric": "completed_projects",
    "target": "1",
    "reward": "+5% к скорости строительства",
    "icon": "Trophy"
  },
  {
    "id": "budget_master",
    "title": "Мастер бюджета",
    "description": "Сэкономьте 10 млрд рублей на проектах",
    "metric": "budget_saved",
    "target": "10000000000",
    "reward": "+3% к эффективности",
    "icon": "DollarSign"
  },
  {
    "id": "happiness_guru",
    "title": "Гуру счастья",
    "description": "Достигните 90% удовлетворённости жителей",
    "metric": "satisfaction",
    "target": "90",
    "reward": "Новые типы зданий",
    "icon": "Smile"
  },
  {
    "id": "speed_builder",
    "title": "Скоростной строитель",
    "description": "Завершите 10 проектов досрочно",
    "metric": "early_completions",
    "target": "10",
    "reward": "+10% к скорости",
    "icon": "Zap"
  }
]`

// DefaultAchievements returns the four dashboard achievements.
func DefaultAchievements() ([]program.Achievement, error) {
	return NewCatalogFactory().ParseAchievements(defaultAchievementsJSON)
}
