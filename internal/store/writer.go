package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerwatch/log/v3"

	"github.com/twine-network/bridge-indexer/internal/handler"
)

// chunk sizes per SPEC_FULL.md §4.13: bridge/flow-shaped rows batch larger
// than batch/block-shaped rows.
const (
	flowChunkSize  = 3000
	batchChunkSize = 1000
)

// Writer commits one indexer batch's DbOps across the primary and
// blockscout stores as a single logical unit: both SQL transactions commit
// only if both succeed, and the checkpoint advances last, inside the
// primary transaction, only after every data row landed. Grounded on
// original_source/crates/database/src/client.rs's
// process_bulk_l1_database_operations + tokio::try_join! dual-commit, with
// the actual pgx transaction/UNNEST-upsert code grounded on
// other_examples' Outblock-flowindex postgres ingest.
type Writer struct {
	primary    *pgxpool.Pool
	blockscout *pgxpool.Pool
	checkpoint *CheckpointStore
	logger     log.Logger
}

func NewWriter(primary, blockscout *pgxpool.Pool, checkpoint *CheckpointStore, logger log.Logger) *Writer {
	return &Writer{primary: primary, blockscout: blockscout, checkpoint: checkpoint, logger: logger}
}

// Commit writes ops to their respective stores and advances the chain's
// checkpoint to height, atomically with respect to each store. If writing
// either half fails, both transactions are rolled back (spec.md §4.4's
// two-store commit rule). The blockscout transaction commits first; if the
// primary commit then fails, the blockscout rows stay committed and the
// checkpoint does not advance.
func (w *Writer) Commit(ctx context.Context, chainID uint64, height uint64, ops []handler.DbOp) error {
	primaryOps, blockscoutOps := partition(ops)

	primaryTx, err := w.primary.Begin(ctx)
	if err != nil {
		return fmt.Errorf("writer: begin primary tx: %w", err)
	}
	defer primaryTx.Rollback(ctx)

	blockscoutTx, err := w.blockscout.Begin(ctx)
	if err != nil {
		return fmt.Errorf("writer: begin blockscout tx: %w", err)
	}
	defer blockscoutTx.Rollback(ctx)

	if err := writePrimaryOps(ctx, primaryTx, primaryOps); err != nil {
		return fmt.Errorf("writer: primary store: %w", err)
	}
	if err := writeBlockscoutOps(ctx, blockscoutTx, blockscoutOps, w.logger); err != nil {
		return fmt.Errorf("writer: blockscout store: %w", err)
	}
	if err := upsertLastSynced(ctx, primaryTx, chainID, height); err != nil {
		return err
	}

	if err := blockscoutTx.Commit(ctx); err != nil {
		return fmt.Errorf("writer: commit blockscout tx: %w", err)
	}
	if err := primaryTx.Commit(ctx); err != nil {
		return fmt.Errorf("writer: commit primary tx: %w", err)
	}

	w.logger.Info("committed batch", "chain_id", chainID, "height", height,
		"primary_ops", len(primaryOps), "blockscout_ops", len(blockscoutOps))
	return nil
}

func partition(ops []handler.DbOp) (primary, blockscout []handler.DbOp) {
	for _, op := range ops {
		switch op.(type) {
		case handler.SourceTx, handler.FlowHandled, handler.FlowExecuted:
			primary = append(primary, op)
		case handler.BatchCommit, handler.BatchFinalize, handler.DaAvailable:
			blockscout = append(blockscout, op)
		}
	}
	return primary, blockscout
}

func writePrimaryOps(ctx context.Context, tx pgx.Tx, ops []handler.DbOp) error {
	var sourceTxs []handler.SourceTx
	var handled []handler.FlowHandled
	var executed []handler.FlowExecuted
	for _, op := range ops {
		switch v := op.(type) {
		case handler.SourceTx:
			sourceTxs = append(sourceTxs, v)
		case handler.FlowHandled:
			handled = append(handled, v)
		case handler.FlowExecuted:
			executed = append(executed, v)
		}
	}
	for _, chunk := range chunkSourceTxs(sourceTxs, flowChunkSize) {
		if err := upsertSourceTxs(ctx, tx, chunk); err != nil {
			return err
		}
	}
	for _, chunk := range chunkFlowHandled(handled, flowChunkSize) {
		if err := upsertFlowHandled(ctx, tx, chunk); err != nil {
			return err
		}
	}
	for _, chunk := range chunkFlowExecuted(executed, flowChunkSize) {
		if err := upsertFlowExecuted(ctx, tx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func writeBlockscoutOps(ctx context.Context, tx pgx.Tx, ops []handler.DbOp, logger log.Logger) error {
	var commits []handler.BatchCommit
	var finalizes []handler.BatchFinalize
	var daRows []handler.DaAvailable
	for _, op := range ops {
		switch v := op.(type) {
		case handler.BatchCommit:
			commits = append(commits, v)
		case handler.BatchFinalize:
			finalizes = append(finalizes, v)
		case handler.DaAvailable:
			daRows = append(daRows, v)
		}
	}
	for _, c := range commits {
		if err := commitBatch(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, f := range finalizes {
		if err := finalizeBatch(ctx, tx, f); err != nil {
			// A finalize referencing a batch never committed is a
			// consistency mismatch scoped to this one op, not the rest of
			// the batch: warn and drop it, keep the checkpoint advancing
			// and every other op in this commit (spec.md §3 invariant 2,
			// §7 Consistency, scenario S5).
			if errors.Is(err, errBatchNotFound) {
				logger.Warn("dropping finalize for unknown batch", "chain_id", f.ChainID,
					"batch_number", f.BatchNumber, "err", err)
				continue
			}
			return err
		}
	}
	for _, chunk := range chunkDaAvailable(daRows, batchChunkSize) {
		if err := upsertDaAvailable(ctx, tx, chunk); err != nil {
			return err
		}
	}
	return nil
}
