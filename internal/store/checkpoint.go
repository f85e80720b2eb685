package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckpointStore tracks, per chain, the last block height fully committed
// to both the primary and blockscout stores. Grounded on
// original_source/crates/database/src/client.rs's get_last_synced_height /
// upsert_last_synced, backed by the primary pool's indexing_checkpoints
// table (SPEC_FULL.md §6).
type CheckpointStore struct {
	pool *pgxpool.Pool
}

func NewCheckpointStore(pool *pgxpool.Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// LastSyncedHeight returns the last committed block height for chainID, or
// (0, false) if this chain has never checkpointed.
func (c *CheckpointStore) LastSyncedHeight(ctx context.Context, chainID uint64) (uint64, bool, error) {
	var height uint64
	err := c.pool.QueryRow(ctx,
		`SELECT last_synced_height FROM indexing_checkpoints WHERE chain_id = $1`,
		chainID,
	).Scan(&height)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("checkpoint: read last synced height: %w", err)
	}
	return height, true, nil
}

// upsertLastSynced advances the checkpoint for chainID to height. Must be
// called within the same transaction as the batch's data writes so it
// trails both store commits (SPEC_FULL.md §4.4).
func upsertLastSynced(ctx context.Context, tx pgx.Tx, chainID, height uint64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO indexing_checkpoints (chain_id, last_synced_height, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (chain_id) DO UPDATE
		SET last_synced_height = EXCLUDED.last_synced_height,
		    updated_at = EXCLUDED.updated_at
		WHERE indexing_checkpoints.last_synced_height < EXCLUDED.last_synced_height
	`, chainID, height)
	if err != nil {
		return fmt.Errorf("checkpoint: upsert last synced height: %w", err)
	}
	return nil
}
