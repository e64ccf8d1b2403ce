package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playtime/internal/model"
)

// UpsertGame inserts a game identity or renames an existing one.
// The update is skipped entirely when the stored name already matches, so a
// repeated upsert is a no-op write.
func (t *Tx) UpsertGame(gameID, name string) error {
	_, err := t.tx.Exec(`
		INSERT INTO game_dict (game_id, name)
		VALUES (?1, ?2)
		ON CONFLICT (game_id) DO UPDATE SET name = ?2
		WHERE name != ?2`,
		gameID, name)
	if err != nil {
		return fmt.Errorf("upserting game %s: %w", gameID, err)
	}
	return nil
}

// RecordSession appends a play session and increments the game's running
// total in the same unit of work. Duration may be negative (corrections).
func (t *Tx) RecordSession(start time.Time, duration float64, gameID, source string) error {
	var src sql.NullString
	if source != "" {
		src = sql.NullString{String: source, Valid: true}
	}

	_, err := t.tx.Exec(`
		INSERT INTO play_time (date_time, duration, game_id, migrated)
		VALUES (?, ?, ?, ?)`,
		start.Format(TimeLayout), duration, gameID, src)
	if err != nil {
		return fmt.Errorf("inserting play session for %s: %w", gameID, err)
	}

	_, err = t.tx.Exec(`
		INSERT INTO overall_time (game_id, duration)
		VALUES (?1, ?2)
		ON CONFLICT (game_id) DO UPDATE SET duration = duration + ?2`,
		gameID, duration)
	if err != nil {
		return fmt.Errorf("updating overall time for %s: %w", gameID, err)
	}
	return nil
}

// SumPlayTime returns the sum of all session durations for a game, 0 when
// the game has no sessions. This is the ground truth the overall_time cache
// must agree with.
func (t *Tx) SumPlayTime(gameID string) (float64, error) {
	var sum float64
	err := t.tx.QueryRow(
		`SELECT COALESCE(SUM(duration), 0) FROM play_time WHERE game_id = ?`,
		gameID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("summing play time for %s: %w", gameID, err)
	}
	return sum, nil
}

// OverallTime returns the cached running total for a game, 0 when absent.
func (t *Tx) OverallTime(gameID string) (float64, error) {
	var d float64
	err := t.tx.QueryRow(
		`SELECT duration FROM overall_time WHERE game_id = ?`,
		gameID).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading overall time for %s: %w", gameID, err)
	}
	return d, nil
}

// GetGame returns the dictionary entry and total time for a game, or
// (nil, nil) when the game is not tracked.
func (t *Tx) GetGame(gameID string) (*model.GameInformation, error) {
	var info model.GameInformation
	err := t.tx.QueryRow(`
		SELECT gd.game_id, gd.name, COALESCE(ot.duration, 0)
		FROM game_dict gd
		LEFT JOIN overall_time ot ON gd.game_id = ot.game_id
		WHERE gd.game_id = ?`,
		gameID).Scan(&info.ID, &info.Name, &info.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("reading game %s: %w", gameID, err)
	}
	return &info, nil
}

// GamesDictionary lists every tracked game identity.
func (t *Tx) GamesDictionary() ([]model.Game, error) {
	rows, err := t.tx.Query(`SELECT game_id, name FROM game_dict ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("listing games dictionary: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating games dictionary: %w", err)
	}
	return games, nil
}
