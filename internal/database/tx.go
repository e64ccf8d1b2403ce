package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is one unit of work. All reads within a Tx see the same snapshot and
// see their own uncommitted writes; nothing is visible to other connections
// until commit.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a single transaction. The transaction commits if fn
// returns nil and rolls back otherwise; the error from fn propagates
// unchanged. A failure to commit is reported as its own error.
func (s *Store) WithTx(fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
