package playtime

import (
	"fmt"
	"time"

	"playtime/internal/database"
	"playtime/internal/model"
)

// SourceManuallyChanged tags correction-generated sessions so they can be
// told apart from organically tracked ones.
const SourceManuallyChanged = "manually-changed"

// Tracker owns all session writes: organic intervals and manual corrections.
type Tracker struct {
	store  *database.Store
	logger Logger
	clock  Clock
}

// NewTracker creates a Tracker with the provided dependencies.
func NewTracker(store *database.Store, logger Logger, clock Clock) *Tracker {
	return &Tracker{store: store, logger: logger, clock: clock}
}

// AddTime records a played interval for a game. Intervals crossing midnight
// are split into one session per calendar day, with each continuation
// session starting at 00:00:00 of its day, so daily reports never have to
// apportion a session across days.
func (t *Tracker) AddTime(startedAt, endedAt time.Time, gameID, gameName string) error {
	if !endedAt.After(startedAt) {
		return fmt.Errorf("interval end %s is not after start %s",
			endedAt.Format(database.TimeLayout), startedAt.Format(database.TimeLayout))
	}

	err := t.store.WithTx(func(tx *database.Tx) error {
		if err := tx.UpsertGame(gameID, gameName); err != nil {
			return err
		}
		for _, part := range splitByDay(startedAt, endedAt) {
			if err := tx.RecordSession(part.start, part.duration, gameID, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("adding time for %s: %w", gameID, err)
	}

	t.logger.Debug("interval recorded",
		"game_id", gameID,
		"started_at", startedAt.Format(database.TimeLayout),
		"duration", endedAt.Sub(startedAt).Seconds())
	return nil
}

type intervalPart struct {
	start    time.Time
	duration float64
}

// splitByDay cuts (start, end) at midnight boundaries.
func splitByDay(start, end time.Time) []intervalPart {
	var parts []intervalPart
	for {
		nextMidnight := startOfDay(start).AddDate(0, 0, 1)
		if !end.After(nextMidnight) {
			break
		}
		parts = append(parts, intervalPart{start: start, duration: nextMidnight.Sub(start).Seconds()})
		start = nextMidnight
	}
	if d := end.Sub(start).Seconds(); d > 0 {
		parts = append(parts, intervalPart{start: start, duration: d})
	}
	return parts
}

// CorrectionEntry is one user-supplied overall-time correction.
type CorrectionEntry struct {
	Game model.Game
	Time float64 // desired new overall time in seconds
}

// ApplyManualCorrection reconciles a game's ledger total with a
// user-supplied overall time by appending a single signed delta session.
// When the ledger already agrees, nothing is written. History is never
// rewritten: the correction is one more auditable ledger entry.
func (t *Tracker) ApplyManualCorrection(game model.Game, newOverallTime float64, source string) error {
	now := t.clock.Now()

	err := t.store.WithTx(func(tx *database.Tx) error {
		// An empty name means the caller does not know it; never blank a
		// stored name with it.
		if game.Name != "" {
			if err := tx.UpsertGame(game.ID, game.Name); err != nil {
				return err
			}
		}
		current, err := tx.SumPlayTime(game.ID)
		if err != nil {
			return err
		}
		delta := newOverallTime - current
		if delta == 0 {
			return nil
		}
		return tx.RecordSession(now, delta, game.ID, source)
	})
	if err != nil {
		return fmt.Errorf("applying manual correction for %s: %w", game.ID, err)
	}

	t.logger.Info("manual correction applied",
		"game_id", game.ID, "new_overall_time", newOverallTime, "source", source)
	return nil
}

// ApplyManualCorrections applies a batch of corrections, one unit of work
// per game. A failure stops the batch; already-committed corrections stand.
func (t *Tracker) ApplyManualCorrections(entries []CorrectionEntry, source string) error {
	for _, e := range entries {
		if err := t.ApplyManualCorrection(e.Game, e.Time, source); err != nil {
			return err
		}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last representable second of t's day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
