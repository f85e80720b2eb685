package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/twine-network/bridge-indexer/internal/handler"
)

// commitBatch inserts the batch row if it's new and always upserts its
// commit-transaction hash on batch_details, matching
// original_source/crates/database/src/batches.rs's commit_batch: check
// existence first, only insert batch once, always refresh batch_details.
func commitBatch(ctx context.Context, tx pgx.Tx, c handler.BatchCommit) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT true FROM batches WHERE chain_id = $1 AND batch_number = $2`,
		c.ChainID, c.BatchNumber,
	).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("commit batch: check existence: %w", err)
	}

	if !exists {
		_, err = tx.Exec(ctx, `
			INSERT INTO batches (chain_id, batch_number, start_block, end_block)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (chain_id, batch_number) DO NOTHING
		`, c.ChainID, c.BatchNumber, c.StartBlock, c.EndBlock)
		if err != nil {
			return fmt.Errorf("commit batch: insert batch: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO batch_details (chain_id, batch_number, commit_tx_hash, committed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id, batch_number) DO UPDATE
		SET commit_tx_hash = EXCLUDED.commit_tx_hash,
		    committed_at = EXCLUDED.committed_at
	`, c.ChainID, c.BatchNumber, c.CommitTxHash, c.CommittedAt)
	if err != nil {
		return fmt.Errorf("commit batch: upsert batch_details: %w", err)
	}
	return nil
}

// finalizeBatch updates a batch's lifecycle row with its finalize tx hash.
// If the batch has no commit row yet, it returns errBatchNotFound; the
// caller (writeBlockscoutOps) treats that as a per-op consistency mismatch
// to warn and drop, not a reason to abort the rest of the commit.
func finalizeBatch(ctx context.Context, tx pgx.Tx, f handler.BatchFinalize) error {
	tag, err := tx.Exec(ctx, `
		UPDATE batch_details
		SET finalize_tx_hash = $3, finalized_at = $4
		WHERE chain_id = $1 AND batch_number = $2
	`, f.ChainID, f.BatchNumber, f.FinalizeTxHash, f.FinalizedAt)
	if err != nil {
		return fmt.Errorf("finalize batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finalize batch: chain %d batch %d: %w",
			f.ChainID, f.BatchNumber, errBatchNotFound)
	}
	return nil
}

var errBatchNotFound = errors.New("batch not found")

func upsertDaAvailable(ctx context.Context, tx pgx.Tx, rows []handler.DaAvailable) error {
	if len(rows) == 0 {
		return nil
	}
	chainIDs := make([]uint64, len(rows))
	batchNumbers := make([]int32, len(rows))
	heights := make([]uint64, len(rows))
	commitments := make([][]byte, len(rows))
	observedAts := make([]int64, len(rows))
	for i, r := range rows {
		chainIDs[i], batchNumbers[i], heights[i] = r.ChainID, r.BatchNumber, r.Height
		commitments[i] = r.Commitment
		observedAts[i] = r.ObservedAt.Unix()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO da_availability (chain_id, batch_number, height, commitment, observed_at)
		SELECT * FROM unnest(
			$1::bigint[], $2::int[], $3::bigint[], $4::bytea[],
			to_timestamp(unnest($5::bigint[]))
		)
		ON CONFLICT (chain_id, batch_number) DO UPDATE
		SET height = EXCLUDED.height,
		    commitment = EXCLUDED.commitment,
		    observed_at = EXCLUDED.observed_at
	`, chainIDs, batchNumbers, heights, commitments, observedAts)
	if err != nil {
		return fmt.Errorf("upsert da availability: %w", err)
	}
	return nil
}

func chunkDaAvailable(rows []handler.DaAvailable, size int) [][]handler.DaAvailable {
	var chunks [][]handler.DaAvailable
	for size < len(rows) {
		rows, chunks = rows[size:], append(chunks, rows[0:size:size])
	}
	return append(chunks, rows)
}
