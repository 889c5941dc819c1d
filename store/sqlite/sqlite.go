/*
Package sqlite provides a SQLite-backed implementation of program.Store.

PURPOSE:
  Persists the renovation program so a restarted server resumes the same
  dashboard. The engine owns state in memory and writes through; this
  package is the collaborator behind that interface, exactly as the
  query/command surface anticipates for persistence.

KEY TABLES:
  projects:     One row per project, spanning its full lifecycle
  districts:    District name -> survey satisfaction
  achievements: Catalog entries with unlock state
  programs:     Single row holding total budget and action spend

MONEY ENCODING:
  Monetary values are stored as TEXT decimal strings, never floats, so
  ruble amounts in the billions round-trip exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite WAL mode. The
  engine serializes mutations anyway; the mutex guards direct store use
  from tests and scenario loaders.

USAGE:
  st, err := sqlite.New("./data/renovation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  engine := program.NewEngine(program.Config{Store: st, ...})

SEE ALSO:
  - program/store.go: Interface definition
  - program/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mosbuild/renovation-engine/program"
	"github.com/shopspring/decimal"
)

// Store implements program.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		district TEXT NOT NULL,
		project_type TEXT,
		description TEXT,
		status TEXT NOT NULL,
		progress INTEGER NOT NULL,
		budget TEXT NOT NULL,
		spent TEXT NOT NULL,
		residents INTEGER NOT NULL,
		completion_date TEXT,
		early_completion BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		seq INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_projects_district
		ON projects(district);
	CREATE INDEX IF NOT EXISTS idx_projects_status
		ON projects(status);

	CREATE TABLE IF NOT EXISTS districts (
		name TEXT PRIMARY KEY,
		satisfaction INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		metric TEXT NOT NULL,
		progress TEXT NOT NULL,
		target TEXT NOT NULL,
		reward TEXT,
		unlocked BOOLEAN NOT NULL DEFAULT FALSE,
		unlocked_at TEXT,
		seq INTEGER
	);

	-- Single-row program header (id is always 1)
	CREATE TABLE IF NOT EXISTS programs (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_budget TEXT NOT NULL,
		action_spend TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) SaveProject(ctx context.Context, p program.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completion any
	if !p.CompletionDate.IsZero() {
		completion = p.CompletionDate.Format("2006-01-02")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects
			(id, name, district, project_type, description, status, progress,
			 budget, spent, residents, completion_date, early_completion, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			COALESCE((SELECT seq FROM projects WHERE id = ?),
			         (SELECT COALESCE(MAX(seq), 0) + 1 FROM projects)))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			district = excluded.district,
			project_type = excluded.project_type,
			description = excluded.description,
			status = excluded.status,
			progress = excluded.progress,
			budget = excluded.budget,
			spent = excluded.spent,
			residents = excluded.residents,
			completion_date = excluded.completion_date,
			early_completion = excluded.early_completion`,
		string(p.ID), p.Name, p.District, string(p.Type), p.Description,
		string(p.Status), p.Progress, p.Budget.Value.String(), p.Spent.Value.String(),
		p.Residents, completion, p.EarlyCompletion,
		p.CreatedAt.UTC().Format(time.RFC3339), string(p.ID))
	return err
}

func (s *Store) loadProjects(ctx context.Context) ([]program.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, district, project_type, description, status, progress,
		       budget, spent, residents, completion_date, early_completion, created_at
		FROM projects ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []program.Project
	for rows.Next() {
		var (
			p          program.Project
			id         string
			ptype      string
			status     string
			budget     string
			spent      string
			completion sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&id, &p.Name, &p.District, &ptype, &p.Description,
			&status, &p.Progress, &budget, &spent, &p.Residents,
			&completion, &p.EarlyCompletion, &createdAt); err != nil {
			return nil, err
		}

		p.ID = program.ProjectID(id)
		p.Type = program.ProjectType(ptype)
		p.Status = program.ProjectStatus(status)
		p.Budget = program.MustParseMoney(budget)
		p.Spent = program.MustParseMoney(spent)
		if completion.Valid {
			if t, err := time.Parse("2006-01-02", completion.String); err == nil {
				p.CompletionDate = t
			}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			p.CreatedAt = t
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// =============================================================================
// DISTRICTS
// =============================================================================

func (s *Store) SaveSatisfaction(ctx context.Context, district string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO districts (name, satisfaction) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET satisfaction = excluded.satisfaction`,
		district, value)
	return err
}

func (s *Store) loadSatisfaction(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, satisfaction FROM districts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var satisfaction int
		if err := rows.Scan(&name, &satisfaction); err != nil {
			return nil, err
		}
		out[name] = satisfaction
	}
	return out, rows.Err()
}

// =============================================================================
// ACHIEVEMENTS
// =============================================================================

func (s *Store) SaveAchievement(ctx context.Context, a program.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unlockedAt any
	if a.UnlockedAt != nil {
		unlockedAt = a.UnlockedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO achievements
			(id, title, description, metric, progress, target, reward, unlocked, unlocked_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
			COALESCE((SELECT seq FROM achievements WHERE id = ?),
			         (SELECT COALESCE(MAX(seq), 0) + 1 FROM achievements)))
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			metric = excluded.metric,
			progress = excluded.progress,
			target = excluded.target,
			reward = excluded.reward,
			unlocked = excluded.unlocked,
			unlocked_at = excluded.unlocked_at`,
		string(a.ID), a.Title, a.Description, string(a.Metric),
		a.Progress.String(), a.Target.String(), a.Reward, a.Unlocked, unlockedAt,
		string(a.ID))
	return err
}

func (s *Store) loadAchievements(ctx context.Context) ([]program.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, metric, progress, target, reward, unlocked, unlocked_at
		FROM achievements ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []program.Achievement
	for rows.Next() {
		var (
			a          program.Achievement
			id         string
			metric     string
			progress   string
			target     string
			unlockedAt sql.NullString
		)
		if err := rows.Scan(&id, &a.Title, &a.Description, &metric,
			&progress, &target, &a.Reward, &a.Unlocked, &unlockedAt); err != nil {
			return nil, err
		}

		a.ID = program.AchievementID(id)
		a.Metric = program.Metric(metric)
		a.Progress, _ = decimal.NewFromString(progress)
		a.Target, _ = decimal.NewFromString(target)
		if unlockedAt.Valid {
			if t, err := time.Parse(time.RFC3339, unlockedAt.String); err == nil {
				a.UnlockedAt = &t
			}
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// =============================================================================
// PROGRAM HEADER
// =============================================================================

func (s *Store) SaveProgram(ctx context.Context, totalBudget, actionSpend program.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (id, total_budget, action_spend, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_budget = excluded.total_budget,
			action_spend = excluded.action_spend,
			updated_at = excluded.updated_at`,
		totalBudget.Value.String(), actionSpend.Value.String(),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// LOAD / RESET
// =============================================================================

// Load returns the persisted state, or nil when no program was saved yet.
func (s *Store) Load(ctx context.Context) (*program.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totalBudget, actionSpend string
	err := s.db.QueryRowContext(ctx,
		`SELECT total_budget, action_spend FROM programs WHERE id = 1`).
		Scan(&totalBudget, &actionSpend)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	projects, err := s.loadProjects(ctx)
	if err != nil {
		return nil, err
	}
	satisfaction, err := s.loadSatisfaction(ctx)
	if err != nil {
		return nil, err
	}
	achievements, err := s.loadAchievements(ctx)
	if err != nil {
		return nil, err
	}

	return &program.State{
		Projects:     projects,
		Satisfaction: satisfaction,
		Achievements: achievements,
		TotalBudget:  program.MustParseMoney(totalBudget),
		ActionSpend:  program.MustParseMoney(actionSpend),
	}, nil
}

// Reset clears all tables. Scenario loaders call this before seeding.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"projects", "districts", "achievements", "programs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

var _ program.Store = (*Store)(nil)
