package database_test

import (
	"testing"

	"playtime/internal/database"
	"playtime/internal/testutil"
)

func TestTx_PerDayReport(t *testing.T) {
	seed := func(t *testing.T, store *database.Store) {
		t.Helper()
		err := store.WithTx(func(tx *database.Tx) error {
			if err := tx.UpsertGame("100", "Alpha"); err != nil {
				return err
			}
			if err := tx.UpsertGame("200", "Beta"); err != nil {
				return err
			}
			if err := tx.RecordSession(ts(t, "2022-01-01T10:00:00"), 3600, "100", ""); err != nil {
				return err
			}
			if err := tx.RecordSession(ts(t, "2022-01-01T12:00:00"), 1800, "100", ""); err != nil {
				return err
			}
			if err := tx.RecordSession(ts(t, "2022-01-02T10:00:00"), 600, "200", ""); err != nil {
				return err
			}
			// Correction row, excluded from daily views.
			return tx.RecordSession(ts(t, "2022-01-01T20:00:00"), 500, "100", "manually-changed")
		})
		if err != nil {
			t.Fatalf("seeding sessions: %v", err)
		}
	}

	t.Run("aggregates per day and game, excluding corrections", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)
		seed(t, store)

		err := store.WithTx(func(tx *database.Tx) error {
			report, err := tx.PerDayReport(
				ts(t, "2022-01-01T00:00:00"), ts(t, "2022-01-02T23:59:59"), nil)
			if err != nil {
				return err
			}
			if len(report) != 2 {
				t.Fatalf("got %d rows, want 2", len(report))
			}
			first := report[0]
			if first.Date != "2022-01-01" || first.GameID != "100" {
				t.Errorf("got row %+v, want 2022-01-01/100", first)
			}
			if first.Time != 5400 {
				t.Errorf("got time %v, want 5400 (correction excluded)", first.Time)
			}
			if first.Sessions != 2 {
				t.Errorf("got %d sessions, want 2", first.Sessions)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("PerDayReport() error = %v", err)
		}
	})

	t.Run("restricts to the given game ids", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)
		seed(t, store)

		err := store.WithTx(func(tx *database.Tx) error {
			report, err := tx.PerDayReport(
				ts(t, "2022-01-01T00:00:00"), ts(t, "2022-01-02T23:59:59"), []string{"200"})
			if err != nil {
				return err
			}
			if len(report) != 1 {
				t.Fatalf("got %d rows, want 1", len(report))
			}
			if report[0].GameID != "200" {
				t.Errorf("got game %s, want 200", report[0].GameID)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("PerDayReport() error = %v", err)
		}
	})
}

func TestTx_SessionsForPeriod(t *testing.T) {
	t.Parallel()
	store := testutil.NewTestStore(t)

	err := store.WithTx(func(tx *database.Tx) error {
		if err := tx.RecordSession(ts(t, "2022-01-01T10:00:00"), 100, "100", ""); err != nil {
			return err
		}
		if err := tx.RecordSession(ts(t, "2022-01-02T00:00:00"), 200, "100", ""); err != nil {
			return err
		}
		// End boundary is exclusive.
		return tx.RecordSession(ts(t, "2022-01-03T00:00:00"), 300, "100", "")
	})
	if err != nil {
		t.Fatalf("seeding sessions: %v", err)
	}

	err = store.WithTx(func(tx *database.Tx) error {
		sessions, err := tx.SessionsForPeriod(
			ts(t, "2022-01-01T00:00:00"), ts(t, "2022-01-03T00:00:00"), nil)
		if err != nil {
			return err
		}
		if len(sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(sessions))
		}
		if sessions[0].Session.Date != "2022-01-01T10:00:00" {
			t.Errorf("got first session %s", sessions[0].Session.Date)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("SessionsForPeriod() error = %v", err)
	}
}

func TestTx_LastSessions(t *testing.T) {
	t.Parallel()
	store := testutil.NewTestStore(t)

	err := store.WithTx(func(tx *database.Tx) error {
		if err := tx.RecordSession(ts(t, "2022-01-01T10:00:00"), 100, "100", ""); err != nil {
			return err
		}
		if err := tx.RecordSession(ts(t, "2022-01-05T10:00:00"), 200, "100", ""); err != nil {
			return err
		}
		return tx.RecordSession(ts(t, "2022-01-03T10:00:00"), 300, "200", "")
	})
	if err != nil {
		t.Fatalf("seeding sessions: %v", err)
	}

	err = store.WithTx(func(tx *database.Tx) error {
		last, err := tx.LastSessions([]string{"100", "200"})
		if err != nil {
			return err
		}
		if len(last) != 2 {
			t.Fatalf("got %d entries, want 2", len(last))
		}
		if last["100"].Date != "2022-01-05T10:00:00" {
			t.Errorf("got last session %s for 100, want 2022-01-05T10:00:00", last["100"].Date)
		}
		if last["200"].Duration != 300 {
			t.Errorf("got duration %v for 200, want 300", last["200"].Duration)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("LastSessions() error = %v", err)
	}
}

func TestTx_HasData(t *testing.T) {
	t.Parallel()
	store := testutil.NewTestStore(t)

	err := store.WithTx(func(tx *database.Tx) error {
		return tx.RecordSession(ts(t, "2022-06-15T10:00:00"), 100, "100", "")
	})
	if err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	err = store.WithTx(func(tx *database.Tx) error {
		before, err := tx.HasDataBefore(ts(t, "2022-06-16T00:00:00"), nil)
		if err != nil {
			return err
		}
		if !before {
			t.Error("HasDataBefore = false, want true")
		}

		after, err := tx.HasDataAfter(ts(t, "2022-06-16T00:00:00"), nil)
		if err != nil {
			return err
		}
		if after {
			t.Error("HasDataAfter = true, want false")
		}

		scoped, err := tx.HasDataBefore(ts(t, "2022-06-16T00:00:00"), []string{"999"})
		if err != nil {
			return err
		}
		if scoped {
			t.Error("HasDataBefore scoped to other game = true, want false")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("HasData checks: %v", err)
	}
}

func TestTx_GameStats(t *testing.T) {
	t.Parallel()
	store := testutil.NewTestStore(t)

	err := store.WithTx(func(tx *database.Tx) error {
		if err := tx.UpsertGame("100", "Alpha"); err != nil {
			return err
		}
		if err := tx.UpsertGame("200", "Beta"); err != nil {
			return err
		}
		if err := tx.RecordSession(ts(t, "2022-01-01T10:00:00"), 100, "100", ""); err != nil {
			return err
		}
		return tx.RecordSession(ts(t, "2022-02-01T10:00:00"), 200, "100", "")
	})
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}

	err = store.WithTx(func(tx *database.Tx) error {
		stats, err := tx.GameStats()
		if err != nil {
			return err
		}
		if len(stats) != 2 {
			t.Fatalf("got %d rows, want 2 (never-played games included)", len(stats))
		}
		if stats[0].TotalTime != 300 || stats[0].LastPlayed != "2022-02-01T10:00:00" {
			t.Errorf("got %+v, want total 300 last 2022-02-01T10:00:00", stats[0])
		}
		if stats[1].TotalTime != 0 || stats[1].LastPlayed != "" {
			t.Errorf("got %+v, want zero totals for never-played game", stats[1])
		}

		period, err := tx.PeriodGameStats(ts(t, "2022-01-01T00:00:00"), ts(t, "2022-02-01T00:00:00"))
		if err != nil {
			return err
		}
		if len(period) != 1 {
			t.Fatalf("got %d period rows, want 1 (dictionary-only games excluded)", len(period))
		}
		if period[0].TotalTime != 100 {
			t.Errorf("got period total %v, want 100 (second session outside range)", period[0].TotalTime)
		}
		if period[0].LastPlayed != "2022-02-01T10:00:00" {
			t.Errorf("got last played %s, want all-time value", period[0].LastPlayed)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GameStats() error = %v", err)
	}
}
