package playtime

import (
	"fmt"

	"playtime/internal/database"
	"playtime/internal/model"
)

// Games manages the game dictionary and the checksum edges that alias raw
// ids to one another. Checksum values arrive from the file-hashing
// collaborator; this service never computes hashes itself.
type Games struct {
	store  *database.Store
	logger Logger
}

// NewGames creates a Games service.
func NewGames(store *database.Store, logger Logger) *Games {
	return &Games{store: store, logger: logger}
}

// GetByID returns the dictionary entry for a game, or (nil, nil) when the
// id is not tracked.
func (g *Games) GetByID(gameID string) (*model.GameInformation, error) {
	var info *model.GameInformation
	err := g.store.WithTx(func(tx *database.Tx) error {
		var err error
		info, err = tx.GetGame(gameID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting game %s: %w", gameID, err)
	}
	return info, nil
}

// SaveGame inserts or renames a dictionary entry.
func (g *Games) SaveGame(gameID, name string) error {
	err := g.store.WithTx(func(tx *database.Tx) error {
		return tx.UpsertGame(gameID, name)
	})
	if err != nil {
		return fmt.Errorf("saving game %s: %w", gameID, err)
	}
	return nil
}

// Dictionary lists every tracked game identity.
func (g *Games) Dictionary() ([]model.Game, error) {
	var games []model.Game
	err := g.store.WithTx(func(tx *database.Tx) error {
		var err error
		games, err = tx.GamesDictionary()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

// SaveChecksum stores a single checksum edge.
func (g *Games) SaveChecksum(in database.ChecksumInput) error {
	err := g.store.WithTx(func(tx *database.Tx) error {
		return tx.SaveChecksum(in)
	})
	if err != nil {
		return fmt.Errorf("saving checksum: %w", err)
	}
	g.logger.Debug("checksum saved", "game_id", in.GameID, "algorithm", string(in.Algorithm))
	return nil
}

// SaveChecksumBulk stores many checksum edges in one unit of work,
// silently dropping duplicates of already-stored triples.
func (g *Games) SaveChecksumBulk(inputs []database.ChecksumInput) error {
	err := g.store.WithTx(func(tx *database.Tx) error {
		return tx.SaveChecksumBulk(inputs)
	})
	if err != nil {
		return fmt.Errorf("bulk-saving checksums: %w", err)
	}
	g.logger.Debug("checksums saved", "count", len(inputs))
	return nil
}

// RemoveChecksum deletes one checksum edge.
func (g *Games) RemoveChecksum(gameID, checksum string) error {
	err := g.store.WithTx(func(tx *database.Tx) error {
		return tx.RemoveChecksum(gameID, checksum)
	})
	if err != nil {
		return fmt.Errorf("removing checksum: %w", err)
	}
	return nil
}

// RemoveAllGameChecksums deletes every checksum edge of one game.
func (g *Games) RemoveAllGameChecksums(gameID string) error {
	err := g.store.WithTx(func(tx *database.Tx) error {
		return tx.RemoveAllGameChecksums(gameID)
	})
	if err != nil {
		return fmt.Errorf("removing checksums for %s: %w", gameID, err)
	}
	return nil
}

// RemoveAllChecksums deletes every stored checksum edge and returns how
// many rows were removed.
func (g *Games) RemoveAllChecksums() (int64, error) {
	var removed int64
	err := g.store.WithTx(func(tx *database.Tx) error {
		var err error
		removed, err = tx.RemoveAllChecksums()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("removing all checksums: %w", err)
	}
	g.logger.Info("all checksums removed", "count", removed)
	return removed, nil
}

// ChecksumsForGame lists the stored checksums of one game.
func (g *Games) ChecksumsForGame(gameID string) ([]model.FileChecksum, error) {
	var checksums []model.FileChecksum
	err := g.store.WithTx(func(tx *database.Tx) error {
		var err error
		checksums, err = tx.ChecksumsForGame(gameID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing checksums for %s: %w", gameID, err)
	}
	return checksums, nil
}

// AllChecksums lists every stored checksum edge.
func (g *Games) AllChecksums() ([]model.FileChecksum, error) {
	var checksums []model.FileChecksum
	err := g.store.WithTx(func(tx *database.Tx) error {
		var err error
		checksums, err = tx.AllChecksums()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing checksums: %w", err)
	}
	return checksums, nil
}

// LinkGameToGameWithChecksum copies one of the parent's checksum edges to
// the child id, putting both into the same component without re-hashing.
func (g *Games) LinkGameToGameWithChecksum(childID, parentID string) error {
	err := g.store.WithTx(func(tx *database.Tx) error {
		return tx.LinkGameChecksum(childID, parentID)
	})
	if err != nil {
		return fmt.Errorf("linking %s to %s: %w", childID, parentID, err)
	}
	g.logger.Info("games linked by checksum", "child", childID, "parent", parentID)
	return nil
}

// Resolver builds an identity resolver from the current checksum edge set.
func (g *Games) Resolver() (*Resolver, error) {
	var resolver *Resolver
	err := g.store.WithTx(func(tx *database.Tx) error {
		edges, err := tx.ChecksumEdges()
		if err != nil {
			return err
		}
		resolver = NewResolver(edges)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building resolver: %w", err)
	}
	return resolver, nil
}
