package database_test

import (
	"errors"
	"testing"

	"playtime/internal/database"
	"playtime/internal/testutil"
)

func TestStore_WithTx(t *testing.T) {
	t.Run("error from fn rolls back every write", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)

		failure := errors.New("mid-operation failure")
		err := store.WithTx(func(tx *database.Tx) error {
			if err := tx.UpsertGame("100", "Alpha"); err != nil {
				return err
			}
			if err := tx.RecordSession(ts(t, "2022-01-01T10:00:00"), 3600, "100", ""); err != nil {
				return err
			}
			return failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("WithTx() error = %v, want the fn error unchanged", err)
		}

		// Neither the session nor the cache increment may be observable:
		// a half-applied RecordSession would break the ledger invariant.
		err = store.WithTx(func(tx *database.Tx) error {
			game, err := tx.GetGame("100")
			if err != nil {
				return err
			}
			if game != nil {
				t.Errorf("got game %+v after rollback, want nil", game)
			}

			sessions, err := tx.AllSessions()
			if err != nil {
				return err
			}
			if len(sessions) != 0 {
				t.Errorf("got %d sessions after rollback, want 0", len(sessions))
			}

			overall, err := tx.OverallTime("100")
			if err != nil {
				return err
			}
			if overall != 0 {
				t.Errorf("got overall time %v after rollback, want 0", overall)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("reading after rollback: %v", err)
		}
	})

	t.Run("nil return commits the writes", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)

		err := store.WithTx(func(tx *database.Tx) error {
			return tx.RecordSession(ts(t, "2022-01-01T10:00:00"), 3600, "100", "")
		})
		if err != nil {
			t.Fatalf("WithTx() error = %v", err)
		}

		err = store.WithTx(func(tx *database.Tx) error {
			sum, err := tx.SumPlayTime("100")
			if err != nil {
				return err
			}
			if sum != 3600 {
				t.Errorf("got sum %v after commit, want 3600", sum)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("reading after commit: %v", err)
		}
	})
}
