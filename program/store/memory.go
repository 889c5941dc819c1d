// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/mosbuild/renovation-engine/program"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	projects     map[program.ProjectID]program.Project
	order        []program.ProjectID
	satisfaction map[string]int
	achievements map[program.AchievementID]program.Achievement
	achOrder     []program.AchievementID
	totalBudget  program.Money
	actionSpend  program.Money
	saved        bool
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.projects = make(map[program.ProjectID]program.Project)
	m.order = nil
	m.satisfaction = make(map[string]int)
	m.achievements = make(map[program.AchievementID]program.Achievement)
	m.achOrder = nil
	m.totalBudget = program.NewMoney(0)
	m.actionSpend = program.NewMoney(0)
	m.saved = false
}

func (m *Memory) SaveProject(_ context.Context, p program.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.projects[p.ID] = p
	m.saved = true
	return nil
}

func (m *Memory) SaveSatisfaction(_ context.Context, district string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.satisfaction[district] = value
	m.saved = true
	return nil
}

func (m *Memory) SaveAchievement(_ context.Context, a program.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.achievements[a.ID]; !ok {
		m.achOrder = append(m.achOrder, a.ID)
	}
	m.achievements[a.ID] = a
	m.saved = true
	return nil
}

func (m *Memory) SaveProgram(_ context.Context, totalBudget, actionSpend program.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalBudget = totalBudget
	m.actionSpend = actionSpend
	m.saved = true
	return nil
}

func (m *Memory) Load(_ context.Context) (*program.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.saved {
		return nil, nil
	}

	state := &program.State{
		Satisfaction: make(map[string]int, len(m.satisfaction)),
		TotalBudget:  m.totalBudget,
		ActionSpend:  m.actionSpend,
	}
	for _, id := range m.order {
		state.Projects = append(state.Projects, m.projects[id])
	}
	for d, v := range m.satisfaction {
		state.Satisfaction[d] = v
	}
	for _, id := range m.achOrder {
		state.Achievements = append(state.Achievements, m.achievements[id])
	}
	return state, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

var _ program.Store = (*Memory)(nil)
