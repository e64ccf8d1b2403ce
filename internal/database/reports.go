package database

import (
	"fmt"
	"strings"
	"time"

	"playtime/internal/model"
)

// DailyGameTime is one row of the per-day time report: aggregated duration
// and session count for a single raw game id on a single calendar day.
type DailyGameTime struct {
	Date     string
	GameID   string
	GameName string
	Time     float64
	Sessions int
}

// GameSession pairs a session with the raw game id it belongs to.
type GameSession struct {
	GameID  string
	Session model.SessionInformation
}

// GameTimeRow is one row of the overall playtime report.
type GameTimeRow struct {
	GameID   string
	GameName string
	Time     float64
}

// GameStatsRow is one row of the per-game stats report: total (or in-period)
// duration plus the most recent session timestamp across all time.
// LastPlayed is empty for games that were never played.
type GameStatsRow struct {
	GameID     string
	GameName   string
	TotalTime  float64
	LastPlayed string
}

// inClause renders "pt.game_id IN (?, ?, ...)" and the matching args.
func inClause(column string, ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf("%s IN (%s?)", column, strings.Repeat("?, ", len(ids)-1)), args
}

// PerDayReport aggregates play time per game per calendar day within
// [begin, end]. Correction sessions (migrated tag set) are excluded from the
// daily view. When gameIDs is non-empty the report is restricted to those
// raw ids; alias expansion is the caller's concern.
func (t *Tx) PerDayReport(begin, end time.Time, gameIDs []string) ([]DailyGameTime, error) {
	query := `
		SELECT STRFTIME('%Y-%m-%d', pt.date_time) AS date,
		       pt.game_id,
		       COALESCE(gd.name, '') AS game_name,
		       SUM(pt.duration) AS total_time,
		       COUNT(*) AS sessions
		FROM play_time pt
		LEFT JOIN game_dict gd ON pt.game_id = gd.game_id
		WHERE pt.date_time BETWEEN ? AND ?
		  AND pt.migrated IS NULL`
	args := []any{begin.Format(TimeLayout), end.Format(TimeLayout)}

	if len(gameIDs) > 0 {
		clause, clauseArgs := inClause("pt.game_id", gameIDs)
		query += " AND " + clause
		args = append(args, clauseArgs...)
	}
	query += `
		GROUP BY date, pt.game_id, gd.name
		ORDER BY date, game_name, pt.game_id`

	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying per-day report: %w", err)
	}
	defer rows.Close()

	var report []DailyGameTime
	for rows.Next() {
		var r DailyGameTime
		if err := rows.Scan(&r.Date, &r.GameID, &r.GameName, &r.Time, &r.Sessions); err != nil {
			return nil, fmt.Errorf("scanning per-day report row: %w", err)
		}
		report = append(report, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating per-day report: %w", err)
	}
	return report, nil
}

// SessionsForPeriod returns every session in [begin, end), ordered by game
// and timestamp, optionally restricted to a set of raw ids.
func (t *Tx) SessionsForPeriod(begin, end time.Time, gameIDs []string) ([]GameSession, error) {
	query := `
		SELECT pt.game_id, pt.date_time, pt.duration, COALESCE(pt.migrated, '')
		FROM play_time pt
		WHERE pt.date_time >= ? AND pt.date_time < ?`
	args := []any{begin.Format(TimeLayout), end.Format(TimeLayout)}

	if len(gameIDs) > 0 {
		clause, clauseArgs := inClause("pt.game_id", gameIDs)
		query += " AND " + clause
		args = append(args, clauseArgs...)
	}
	query += " ORDER BY pt.game_id, pt.date_time"

	return t.querySessions(query, args...)
}

// AllSessions returns every recorded session, ordered by game and timestamp.
func (t *Tx) AllSessions() ([]GameSession, error) {
	return t.querySessions(`
		SELECT pt.game_id, pt.date_time, pt.duration, COALESCE(pt.migrated, '')
		FROM play_time pt
		ORDER BY pt.game_id, pt.date_time`)
}

func (t *Tx) querySessions(query string, args ...any) ([]GameSession, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []GameSession
	for rows.Next() {
		var s GameSession
		if err := rows.Scan(&s.GameID, &s.Session.Date, &s.Session.Duration, &s.Session.Source); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// LastSessions returns the single most recent session per raw id, for the
// given ids (or for every game when ids is empty).
func (t *Tx) LastSessions(gameIDs []string) (map[string]model.SessionInformation, error) {
	query := `
		SELECT pt.game_id, pt.date_time, pt.duration, COALESCE(pt.migrated, '')
		FROM (
			SELECT *,
			       ROW_NUMBER() OVER (PARTITION BY game_id ORDER BY date_time DESC) AS rn
			FROM play_time
			%s
		) pt
		WHERE pt.rn = 1`
	var args []any
	filter := ""
	if len(gameIDs) > 0 {
		clause, clauseArgs := inClause("game_id", gameIDs)
		filter = "WHERE " + clause
		args = clauseArgs
	}

	rows, err := t.tx.Query(fmt.Sprintf(query, filter), args...)
	if err != nil {
		return nil, fmt.Errorf("querying last sessions: %w", err)
	}
	defer rows.Close()

	last := make(map[string]model.SessionInformation)
	for rows.Next() {
		var gameID string
		var s model.SessionInformation
		if err := rows.Scan(&gameID, &s.Date, &s.Duration, &s.Source); err != nil {
			return nil, fmt.Errorf("scanning last session row: %w", err)
		}
		last[gameID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating last sessions: %w", err)
	}
	return last, nil
}

// HasDataBefore reports whether any session exists strictly before cutoff,
// optionally scoped to a set of raw ids.
func (t *Tx) HasDataBefore(cutoff time.Time, gameIDs []string) (bool, error) {
	return t.hasData("<", cutoff, gameIDs)
}

// HasDataAfter reports whether any session exists strictly after cutoff,
// optionally scoped to a set of raw ids.
func (t *Tx) HasDataAfter(cutoff time.Time, gameIDs []string) (bool, error) {
	return t.hasData(">", cutoff, gameIDs)
}

func (t *Tx) hasData(op string, cutoff time.Time, gameIDs []string) (bool, error) {
	query := fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM play_time pt WHERE pt.date_time %s ?`, op)
	args := []any{cutoff.Format(TimeLayout)}

	if len(gameIDs) > 0 {
		clause, clauseArgs := inClause("pt.game_id", gameIDs)
		query += " AND " + clause
		args = append(args, clauseArgs...)
	}
	query += ")"

	var exists bool
	if err := t.tx.QueryRow(query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking for data %s %s: %w", op, cutoff.Format(TimeLayout), err)
	}
	return exists, nil
}

// OverallPlaytime returns the cached running total per raw id, joined with
// the dictionary name, ordered by game id for deterministic grouping.
func (t *Tx) OverallPlaytime() ([]GameTimeRow, error) {
	rows, err := t.tx.Query(`
		SELECT ot.game_id, COALESCE(gd.name, ''), ot.duration
		FROM overall_time ot
		LEFT JOIN game_dict gd ON ot.game_id = gd.game_id
		ORDER BY ot.game_id`)
	if err != nil {
		return nil, fmt.Errorf("querying overall playtime: %w", err)
	}
	defer rows.Close()

	var result []GameTimeRow
	for rows.Next() {
		var r GameTimeRow
		if err := rows.Scan(&r.GameID, &r.GameName, &r.Time); err != nil {
			return nil, fmt.Errorf("scanning overall playtime row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating overall playtime: %w", err)
	}
	return result, nil
}

// GameStats returns, for every dictionary entry, its all-time total and the
// timestamp of its most recent session.
func (t *Tx) GameStats() ([]GameStatsRow, error) {
	return t.queryGameStats(`
		SELECT gd.game_id,
		       gd.name,
		       COALESCE(ot.duration, 0) AS total_duration,
		       COALESCE(pt_agg.last_played, '') AS last_played
		FROM game_dict gd
		LEFT JOIN overall_time ot ON gd.game_id = ot.game_id
		LEFT JOIN (
			SELECT game_id, MAX(date_time) AS last_played
			FROM play_time
			GROUP BY game_id
		) pt_agg ON gd.game_id = pt_agg.game_id
		ORDER BY gd.game_id`)
}

// PeriodGameStats returns, for every dictionary entry with sessions, the
// duration accumulated within [begin, end) and the most recent session
// timestamp across all time.
func (t *Tx) PeriodGameStats(begin, end time.Time) ([]GameStatsRow, error) {
	return t.queryGameStats(`
		SELECT gd.game_id,
		       gd.name,
		       SUM(CASE WHEN pt.date_time >= ?1 AND pt.date_time < ?2 THEN pt.duration ELSE 0 END) AS total_duration,
		       MAX(pt.date_time) AS last_played
		FROM game_dict gd
		JOIN play_time pt ON gd.game_id = pt.game_id
		GROUP BY gd.game_id, gd.name
		ORDER BY gd.game_id`,
		begin.Format(TimeLayout), end.Format(TimeLayout))
}

func (t *Tx) queryGameStats(query string, args ...any) ([]GameStatsRow, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying game stats: %w", err)
	}
	defer rows.Close()

	var result []GameStatsRow
	for rows.Next() {
		var r GameStatsRow
		if err := rows.Scan(&r.GameID, &r.GameName, &r.TotalTime, &r.LastPlayed); err != nil {
			return nil, fmt.Errorf("scanning game stats row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game stats: %w", err)
	}
	return result, nil
}
