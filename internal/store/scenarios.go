package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateScenario inserts a new Scenario owned by creatorID.
func (s *Store) CreateScenario(scenario Scenario, now time.Time) (Scenario, error) {
	scenario.CreatedAt = now
	_, err := s.db.Exec(fmt.Sprintf(`
		INSERT INTO %s (scenario_id, title, description, columns, rows, turn_count, hexes, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.scenariosTable),
		scenario.ID, scenario.Title, scenario.Description, scenario.Columns, scenario.Rows,
		scenario.TurnCount, scenario.Hexes, scenario.CreatorID, scenario.CreatedAt)
	if err != nil {
		return Scenario{}, fmt.Errorf("insert scenario: %w", err)
	}
	return scenario, nil
}

// GetScenario fetches a scenario by id.
func (s *Store) GetScenario(scenarioID string) (Scenario, error) {
	var sc Scenario
	var hexes []byte
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT scenario_id, title, description, columns, rows, turn_count, hexes, creator_id, created_at
		FROM %s WHERE scenario_id = $1
	`, s.scenariosTable), scenarioID).
		Scan(&sc.ID, &sc.Title, &sc.Description, &sc.Columns, &sc.Rows, &sc.TurnCount, &hexes, &sc.CreatorID, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return Scenario{}, newError(ErrNotFound, "scenario not found")
	}
	if err != nil {
		return Scenario{}, fmt.Errorf("scan scenario: %w", err)
	}
	sc.Hexes = hexes
	return sc, nil
}

// UpdateScenario updates a scenario's mutable fields. Only the creator may
// succeed.
func (s *Store) UpdateScenario(scenario Scenario, requestingUserID string) (Scenario, error) {
	existing, err := s.GetScenario(scenario.ID)
	if err != nil {
		return Scenario{}, err
	}
	if existing.CreatorID != requestingUserID {
		return Scenario{}, newError(ErrForbidden, "only the creator may edit this scenario")
	}

	_, err = s.db.Exec(fmt.Sprintf(`
		UPDATE %s SET title = $1, description = $2, columns = $3, rows = $4, turn_count = $5, hexes = $6
		WHERE scenario_id = $7
	`, s.scenariosTable),
		scenario.Title, scenario.Description, scenario.Columns, scenario.Rows, scenario.TurnCount, scenario.Hexes, scenario.ID)
	if err != nil {
		return Scenario{}, fmt.Errorf("update scenario: %w", err)
	}

	return s.GetScenario(scenario.ID)
}

// DeleteScenario removes a scenario. Only the creator may succeed.
func (s *Store) DeleteScenario(scenarioID, requestingUserID string) error {
	existing, err := s.GetScenario(scenarioID)
	if err != nil {
		return err
	}
	if existing.CreatorID != requestingUserID {
		return newError(ErrForbidden, "only the creator may delete this scenario")
	}

	_, err = s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE scenario_id = $1`, s.scenariosTable), scenarioID)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return nil
}

// ListScenarios returns a page of scenarios ordered by created_at
// descending, using the constant-partition-key style full ordered scan
// spec §3 describes for the ALL_SCENARIOS index.
func (s *Store) ListScenarios(limit int, token string) (Page[Scenario], error) {
	limit = ClampLimit(limit)
	cur, err := decodeCursor(token)
	if err != nil {
		return Page[Scenario]{}, err
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT scenario_id, title, description, columns, rows, turn_count, hexes, creator_id, created_at
		FROM %s
		WHERE (created_at, scenario_id) < ($1, $2)
		ORDER BY created_at DESC, scenario_id DESC
		LIMIT $3
	`, s.scenariosTable), cursorTime(cur), cursorID(cur), limit+1)
	if err != nil {
		return Page[Scenario]{}, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []Scenario
	for rows.Next() {
		var sc Scenario
		var hexes []byte
		if err := rows.Scan(&sc.ID, &sc.Title, &sc.Description, &sc.Columns, &sc.Rows, &sc.TurnCount, &hexes, &sc.CreatorID, &sc.CreatedAt); err != nil {
			return Page[Scenario]{}, fmt.Errorf("scan scenario: %w", err)
		}
		sc.Hexes = hexes
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return Page[Scenario]{}, err
	}

	page := Page[Scenario]{Items: scenarios}
	if len(scenarios) > limit {
		last := scenarios[limit-1]
		page.Items = scenarios[:limit]
		page.NextToken = encodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}
