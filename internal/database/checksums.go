package database

import (
	"fmt"

	"playtime/internal/model"
)

// ChecksumInput is the caller-supplied shape of a checksum edge write.
// CreatedAt/UpdatedAt default to CURRENT_TIMESTAMP when empty.
type ChecksumInput struct {
	GameID    string
	Checksum  string
	Algorithm model.ChecksumAlgorithm
	ChunkSize int64
	CreatedAt string
	UpdatedAt string
}

// ChecksumEdge is the minimal projection the identity resolver consumes.
type ChecksumEdge struct {
	GameID    string
	Checksum  string
	Algorithm model.ChecksumAlgorithm
}

const insertChecksumSQL = `
	INSERT INTO game_file_checksum (game_id, checksum, algorithm, chunk_size, created_at, updated_at)
	VALUES (?, ?, ?, ?, IFNULL(NULLIF(?, ''), CURRENT_TIMESTAMP), IFNULL(NULLIF(?, ''), CURRENT_TIMESTAMP))`

// SaveChecksum stores one checksum edge. A duplicate
// (game_id, checksum, algorithm) triple violates the unique constraint and
// is reported as an error; use SaveChecksumBulk for ignore-duplicates
// semantics.
func (t *Tx) SaveChecksum(in ChecksumInput) error {
	_, err := t.tx.Exec(insertChecksumSQL,
		in.GameID, in.Checksum, string(in.Algorithm), in.ChunkSize, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving checksum for %s: %w", in.GameID, err)
	}
	return nil
}

// SaveChecksumBulk stores many checksum edges, silently dropping rows whose
// (game_id, checksum, algorithm) triple already exists.
func (t *Tx) SaveChecksumBulk(inputs []ChecksumInput) error {
	stmt, err := t.tx.Prepare(`
		INSERT OR IGNORE INTO game_file_checksum (game_id, checksum, algorithm, chunk_size, created_at, updated_at)
		VALUES (?, ?, ?, ?, IFNULL(NULLIF(?, ''), CURRENT_TIMESTAMP), IFNULL(NULLIF(?, ''), CURRENT_TIMESTAMP))`)
	if err != nil {
		return fmt.Errorf("preparing bulk checksum insert: %w", err)
	}
	defer stmt.Close()

	for _, in := range inputs {
		_, err := stmt.Exec(in.GameID, in.Checksum, string(in.Algorithm), in.ChunkSize, in.CreatedAt, in.UpdatedAt)
		if err != nil {
			return fmt.Errorf("bulk-saving checksum for %s: %w", in.GameID, err)
		}
	}
	return nil
}

// RemoveChecksum deletes one checksum edge by game id and checksum value.
func (t *Tx) RemoveChecksum(gameID, checksum string) error {
	_, err := t.tx.Exec(
		`DELETE FROM game_file_checksum WHERE game_id = ? AND checksum = ?`,
		gameID, checksum)
	if err != nil {
		return fmt.Errorf("removing checksum for %s: %w", gameID, err)
	}
	return nil
}

// RemoveAllGameChecksums deletes every checksum edge of one game.
func (t *Tx) RemoveAllGameChecksums(gameID string) error {
	_, err := t.tx.Exec(`DELETE FROM game_file_checksum WHERE game_id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("removing checksums for %s: %w", gameID, err)
	}
	return nil
}

// RemoveAllChecksums deletes every checksum edge and returns how many rows
// were removed.
func (t *Tx) RemoveAllChecksums() (int64, error) {
	res, err := t.tx.Exec(`DELETE FROM game_file_checksum`)
	if err != nil {
		return 0, fmt.Errorf("removing all checksums: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting removed checksums: %w", err)
	}
	return n, nil
}

// ChecksumsForGame lists the stored checksums of one game.
func (t *Tx) ChecksumsForGame(gameID string) ([]model.FileChecksum, error) {
	return t.queryChecksums(`
		SELECT gfc.checksum_id, gfc.game_id, COALESCE(gd.name, ''),
		       gfc.checksum, gfc.algorithm, gfc.chunk_size,
		       COALESCE(gfc.created_at, ''), COALESCE(gfc.updated_at, '')
		FROM game_file_checksum gfc
		LEFT JOIN game_dict gd ON gd.game_id = gfc.game_id
		WHERE gfc.game_id = ?
		ORDER BY gfc.checksum_id`, gameID)
}

// AllChecksums lists every stored checksum edge.
func (t *Tx) AllChecksums() ([]model.FileChecksum, error) {
	return t.queryChecksums(`
		SELECT gfc.checksum_id, gfc.game_id, COALESCE(gd.name, ''),
		       gfc.checksum, gfc.algorithm, gfc.chunk_size,
		       COALESCE(gfc.created_at, ''), COALESCE(gfc.updated_at, '')
		FROM game_file_checksum gfc
		LEFT JOIN game_dict gd ON gd.game_id = gfc.game_id
		ORDER BY gfc.checksum_id`)
}

func (t *Tx) queryChecksums(query string, args ...any) ([]model.FileChecksum, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying checksums: %w", err)
	}
	defer rows.Close()

	var result []model.FileChecksum
	for rows.Next() {
		var c model.FileChecksum
		var algorithm string
		if err := rows.Scan(&c.ChecksumID, &c.GameID, &c.GameName,
			&c.Checksum, &algorithm, &c.ChunkSize, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning checksum row: %w", err)
		}
		c.Algorithm = model.ChecksumAlgorithm(algorithm)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checksums: %w", err)
	}
	return result, nil
}

// ChecksumEdges returns the full edge set for component resolution.
func (t *Tx) ChecksumEdges() ([]ChecksumEdge, error) {
	rows, err := t.tx.Query(
		`SELECT game_id, checksum, algorithm FROM game_file_checksum`)
	if err != nil {
		return nil, fmt.Errorf("querying checksum edges: %w", err)
	}
	defer rows.Close()

	var edges []ChecksumEdge
	for rows.Next() {
		var e ChecksumEdge
		var algorithm string
		if err := rows.Scan(&e.GameID, &e.Checksum, &algorithm); err != nil {
			return nil, fmt.Errorf("scanning checksum edge: %w", err)
		}
		e.Algorithm = model.ChecksumAlgorithm(algorithm)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checksum edges: %w", err)
	}
	return edges, nil
}

// LinkGameChecksum copies one checksum edge from parent to child so the two
// ids resolve to the same component without re-hashing the game file.
func (t *Tx) LinkGameChecksum(childID, parentID string) error {
	_, err := t.tx.Exec(`
		INSERT INTO game_file_checksum (game_id, checksum, algorithm, chunk_size)
		SELECT ?, gfc.checksum, gfc.algorithm, gfc.chunk_size
		FROM game_file_checksum gfc
		WHERE gfc.game_id = ?
		LIMIT 1`,
		childID, parentID)
	if err != nil {
		return fmt.Errorf("linking %s to %s: %w", childID, parentID, err)
	}
	return nil
}
