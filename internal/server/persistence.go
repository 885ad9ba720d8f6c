package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kossichris/jeu-fa-api/internal/game"
)

// PersistenceManager stores sessions, turn results and players in Postgres.
// Best effort from the server's point of view: gameplay never blocks on it.
type PersistenceManager struct {
	db *sql.DB
}

func NewPersistenceManager(db *sql.DB) *PersistenceManager {
	return &PersistenceManager{
		db: db,
	}
}

// SaveSnapshot upserts the full session state. The snapshot JSON is the
// source of truth for restore; the scalar columns exist for queries.
func (pm *PersistenceManager) SaveSnapshot(snap *game.Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize game %s: %w", snap.ID, err)
	}

	query := `
		INSERT INTO games (id, room_code, mode, status, phase, turn, version, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			phase = EXCLUDED.phase,
			turn = EXCLUDED.turn,
			version = EXCLUDED.version,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`

	_, err = pm.db.Exec(query,
		snap.ID,
		snap.RoomCode,
		string(snap.Mode),
		string(snap.Status),
		string(snap.Phase),
		snap.Turn,
		snap.Version,
		state,
		snap.CreatedAt,
		snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", snap.ID, err)
	}
	return nil
}

// LoadSnapshot retrieves one session by ID.
func (pm *PersistenceManager) LoadSnapshot(id string) (*game.Snapshot, error) {
	var state []byte
	err := pm.db.QueryRow(`SELECT state FROM games WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &game.Error{Code: game.CodeNotFound, Message: fmt.Sprintf("game %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}

	var snap game.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize game %s: %w", id, err)
	}
	return &snap, nil
}

// LoadActiveSnapshots returns every session that was live at last save.
func (pm *PersistenceManager) LoadActiveSnapshots() ([]*game.Snapshot, error) {
	rows, err := pm.db.Query(`SELECT state FROM games WHERE status = $1`, string(game.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query active games: %w", err)
	}
	defer rows.Close()

	var snaps []*game.Snapshot
	for rows.Next() {
		var state []byte
		if err := rows.Scan(&state); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		var snap game.Snapshot
		if err := json.Unmarshal(state, &snap); err != nil {
			return nil, fmt.Errorf("failed to deserialize game row: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

// SaveTurnRecord appends a resolved turn to the per-game log.
func (pm *PersistenceManager) SaveTurnRecord(gameID string, rec game.TurnRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize turn %d of game %s: %w", rec.Turn, gameID, err)
	}

	query := `
		INSERT INTO turn_results (game_id, turn, record, played_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, turn) DO NOTHING
	`
	if _, err := pm.db.Exec(query, gameID, rec.Turn, data, rec.PlayedAt); err != nil {
		return fmt.Errorf("failed to save turn %d of game %s: %w", rec.Turn, gameID, err)
	}
	return nil
}

// LoadTurnRecords returns the resolved turns of a game in order.
func (pm *PersistenceManager) LoadTurnRecords(gameID string) ([]game.TurnRecord, error) {
	rows, err := pm.db.Query(`SELECT record FROM turn_results WHERE game_id = $1 ORDER BY turn`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns of game %s: %w", gameID, err)
	}
	defer rows.Close()

	var records []game.TurnRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		var rec game.TurnRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to deserialize turn row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreatePlayer registers a display name and returns the new player ID.
func (pm *PersistenceManager) CreatePlayer(name string) (int, error) {
	var id int
	err := pm.db.QueryRow(
		`INSERT INTO players (name, created_at) VALUES ($1, $2) RETURNING id`,
		name, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create player %q: %w", name, err)
	}
	return id, nil
}

// GetPlayerName looks one player up.
func (pm *PersistenceManager) GetPlayerName(id int) (string, error) {
	var name string
	err := pm.db.QueryRow(`SELECT name FROM players WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &game.Error{Code: game.CodeNotFound, Message: fmt.Sprintf("player %d not found", id)}
	}
	if err != nil {
		return "", fmt.Errorf("failed to load player %d: %w", id, err)
	}
	return name, nil
}

// DeleteGame removes a session and its turn log.
func (pm *PersistenceManager) DeleteGame(id string) error {
	if _, err := pm.db.Exec(`DELETE FROM turn_results WHERE game_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete turns of game %s: %w", id, err)
	}
	if _, err := pm.db.Exec(`DELETE FROM games WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	return nil
}

// CleanupOldGames deletes finished games not touched within maxAge.
func (pm *PersistenceManager) CleanupOldGames(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	if _, err := pm.db.Exec(`
		DELETE FROM turn_results WHERE game_id IN (
			SELECT id FROM games WHERE status != $1 AND updated_at < $2
		)`, string(game.StatusActive), cutoff); err != nil {
		return 0, fmt.Errorf("failed to clean up turn logs: %w", err)
	}

	res, err := pm.db.Exec(
		`DELETE FROM games WHERE status != $1 AND updated_at < $2`,
		string(game.StatusActive), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up games: %w", err)
	}
	return res.RowsAffected()
}
