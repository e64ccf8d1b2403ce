package database_test

import (
	"testing"

	"playtime/internal/database"
	"playtime/internal/model"
	"playtime/internal/testutil"
)

func checksumInput(gameID, checksum string) database.ChecksumInput {
	return database.ChecksumInput{
		GameID:    gameID,
		Checksum:  checksum,
		Algorithm: model.SHA256,
		ChunkSize: 1024,
	}
}

func TestTx_SaveChecksum(t *testing.T) {
	t.Run("duplicate triple is an error", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)

		err := store.WithTx(func(tx *database.Tx) error {
			return tx.SaveChecksum(checksumInput("100", "abc"))
		})
		if err != nil {
			t.Fatalf("SaveChecksum() error = %v", err)
		}

		err = store.WithTx(func(tx *database.Tx) error {
			return tx.SaveChecksum(checksumInput("100", "abc"))
		})
		if err == nil {
			t.Fatal("expected unique constraint error, got nil")
		}
	})

	t.Run("accepts checksums for games without a dictionary entry", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)

		err := store.WithTx(func(tx *database.Tx) error {
			return tx.SaveChecksum(checksumInput("999", "abc"))
		})
		if err != nil {
			t.Fatalf("SaveChecksum() error = %v", err)
		}

		err = store.WithTx(func(tx *database.Tx) error {
			checksums, err := tx.ChecksumsForGame("999")
			if err != nil {
				return err
			}
			if len(checksums) != 1 {
				t.Fatalf("got %d checksums, want 1", len(checksums))
			}
			if checksums[0].GameName != "" {
				t.Errorf("got name %q, want empty", checksums[0].GameName)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("ChecksumsForGame() error = %v", err)
		}
	})
}

func TestTx_SaveChecksumBulk(t *testing.T) {
	t.Parallel()
	store := testutil.NewTestStore(t)

	err := store.WithTx(func(tx *database.Tx) error {
		return tx.SaveChecksumBulk([]database.ChecksumInput{
			checksumInput("100", "aaa"),
			checksumInput("100", "bbb"),
			checksumInput("100", "aaa"), // duplicate, silently dropped
		})
	})
	if err != nil {
		t.Fatalf("SaveChecksumBulk() error = %v", err)
	}

	err = store.WithTx(func(tx *database.Tx) error {
		checksums, err := tx.ChecksumsForGame("100")
		if err != nil {
			return err
		}
		if len(checksums) != 2 {
			t.Fatalf("got %d checksums, want 2", len(checksums))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ChecksumsForGame() error = %v", err)
	}
}

func TestTx_RemoveChecksums(t *testing.T) {
	seed := func(t *testing.T, store *database.Store) {
		t.Helper()
		err := store.WithTx(func(tx *database.Tx) error {
			return tx.SaveChecksumBulk([]database.ChecksumInput{
				checksumInput("100", "aaa"),
				checksumInput("100", "bbb"),
				checksumInput("200", "ccc"),
			})
		})
		if err != nil {
			t.Fatalf("seeding checksums: %v", err)
		}
	}

	count := func(t *testing.T, store *database.Store) int {
		t.Helper()
		var n int
		err := store.WithTx(func(tx *database.Tx) error {
			all, err := tx.AllChecksums()
			if err != nil {
				return err
			}
			n = len(all)
			return nil
		})
		if err != nil {
			t.Fatalf("AllChecksums() error = %v", err)
		}
		return n
	}

	t.Run("remove one", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)
		seed(t, store)

		err := store.WithTx(func(tx *database.Tx) error {
			return tx.RemoveChecksum("100", "aaa")
		})
		if err != nil {
			t.Fatalf("RemoveChecksum() error = %v", err)
		}
		if got := count(t, store); got != 2 {
			t.Errorf("got %d checksums, want 2", got)
		}
	})

	t.Run("remove all of one game", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)
		seed(t, store)

		err := store.WithTx(func(tx *database.Tx) error {
			return tx.RemoveAllGameChecksums("100")
		})
		if err != nil {
			t.Fatalf("RemoveAllGameChecksums() error = %v", err)
		}
		if got := count(t, store); got != 1 {
			t.Errorf("got %d checksums, want 1", got)
		}
	})

	t.Run("remove everything reports the count", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewTestStore(t)
		seed(t, store)

		var removed int64
		err := store.WithTx(func(tx *database.Tx) error {
			var err error
			removed, err = tx.RemoveAllChecksums()
			return err
		})
		if err != nil {
			t.Fatalf("RemoveAllChecksums() error = %v", err)
		}
		if removed != 3 {
			t.Errorf("got removed = %d, want 3", removed)
		}
		if got := count(t, store); got != 0 {
			t.Errorf("got %d checksums, want 0", got)
		}
	})
}

func TestTx_LinkGameChecksum(t *testing.T) {
	t.Parallel()
	store := testutil.NewTestStore(t)

	err := store.WithTx(func(tx *database.Tx) error {
		return tx.SaveChecksum(checksumInput("parent", "shared"))
	})
	if err != nil {
		t.Fatalf("seeding checksum: %v", err)
	}

	err = store.WithTx(func(tx *database.Tx) error {
		return tx.LinkGameChecksum("child", "parent")
	})
	if err != nil {
		t.Fatalf("LinkGameChecksum() error = %v", err)
	}

	err = store.WithTx(func(tx *database.Tx) error {
		edges, err := tx.ChecksumEdges()
		if err != nil {
			return err
		}
		if len(edges) != 2 {
			t.Fatalf("got %d edges, want 2", len(edges))
		}
		for _, e := range edges {
			if e.Checksum != "shared" {
				t.Errorf("got checksum %q, want %q", e.Checksum, "shared")
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ChecksumEdges() error = %v", err)
	}
}
