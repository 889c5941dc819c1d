/*
actions.go - Quick action catalog

PURPOSE:
  Quick actions are predefined {cost, effect} bundles the dashboard offers
  as one-click accelerators. Applying one translates into lifecycle and
  district mutations plus a program-level budget deduction.

EFFECT MODEL:
  An effect is a pair of deltas: construction progress on a target project
  and satisfaction in that project's district. Either may be zero. Actions
  touching a project require a target; district-only actions still need a
  project to know which district to touch.

COST ACCOUNTING:
  Costs are not charged to any project budget. They accumulate as
  program-level action spend, which aggregation folds into SpentBudget.
  An action whose cost would push SpentBudget past TotalBudget is rejected
  with InsufficientBudgetError and no effect.

SEE ALSO:
  - engine.go: ApplyQuickAction command
  - factory/: JSON catalog definitions
*/
package program

// QuickAction is a predefined command bundle.
type QuickAction struct {
	ID       string
	Name     string
	Cost     Money
	Duration int // days, informational
	Effect   ActionEffect
	Icon     string // presentation tag, opaque to the core
}

// ActionEffect describes what applying the action does.
type ActionEffect struct {
	// ProgressDelta is applied through AdvanceProgress on the target project.
	ProgressDelta int

	// SatisfactionDelta is applied to the target project's district,
	// clamped to [0,100].
	SatisfactionDelta int

	// Summary is the human-readable description shown on the card.
	Summary string
}

// RequiresProject reports whether the action needs a target project.
// Every current effect is anchored to a project or its district.
func (a QuickAction) RequiresProject() bool {
	return a.Effect.ProgressDelta != 0 || a.Effect.SatisfactionDelta != 0
}

// DefaultQuickActions is the dashboard catalog.
var DefaultQuickActions = []QuickAction{
	{
		ID:       "speed_construction",
		Name:     "Ускорить строительство",
		Cost:     NewMoney(5_000_000_000),
		Duration: 30,
		Icon:     "Zap",
		Effect: ActionEffect{
			ProgressDelta: 20,
			Summary:       "+20% скорость на 30 дней",
		},
	},
	{
		ID:   "improve_quality",
		Name: "Улучшить качество",
		Cost: NewMoney(8_000_000_000),
		Icon: "Star",
		Effect: ActionEffect{
			SatisfactionDelta: 15,
			Summary:           "+15% удовлетворённость жителей",
		},
	},
	{
		ID:       "add_infrastructure",
		Name:     "Доп. инфраструктура",
		Cost:     NewMoney(12_000_000_000),
		Duration: 60,
		Icon:     "Building",
		Effect: ActionEffect{
			SatisfactionDelta: 10,
			Summary:           "Детские сады, школы, поликлиники",
		},
	},
	{
		ID:       "eco_upgrade",
		Name:     "Эко-модернизация",
		Cost:     NewMoney(6_000_000_000),
		Duration: 45,
		Icon:     "Leaf",
		Effect: ActionEffect{
			ProgressDelta:     10,
			SatisfactionDelta: 5,
			Summary:           "Солнечные панели, энергоэффективность",
		},
	},
}
