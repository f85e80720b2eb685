package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/twine-network/bridge-indexer/internal/handler"
)

// upsertSourceTxs bulk-inserts source-chain bridge transactions idempotently
// on (chain_id, nonce), matching original_source/crates/database/src/deposits.rs
// and bridge.rs's ON CONFLICT (ChainId, Nonce) DO NOTHING. Uses the UNNEST
// bulk-upsert shape from the pgx reference ingest path rather than one
// INSERT per row.
func upsertSourceTxs(ctx context.Context, tx pgx.Tx, rows []handler.SourceTx) error {
	if len(rows) == 0 {
		return nil
	}
	chainIDs := make([]uint64, len(rows))
	nonces := make([]uint64, len(rows))
	kinds := make([]string, len(rows))
	blockNumbers := make([]uint64, len(rows))
	tokensIn := make([][]byte, len(rows))
	tokensOut := make([][]byte, len(rows))
	fromAddrs := make([][]byte, len(rows))
	toAddrs := make([][]byte, len(rows))
	amounts := make([]string, len(rows))
	txHashes := make([][]byte, len(rows))
	timestamps := make([]int64, len(rows))

	for i, r := range rows {
		chainIDs[i] = r.ChainID
		nonces[i] = r.Nonce
		kinds[i] = r.Kind
		blockNumbers[i] = r.BlockNumber
		tokensIn[i] = r.TokenIn
		tokensOut[i] = r.TokenOut
		fromAddrs[i] = r.AddressFrom
		toAddrs[i] = r.AddressTo
		amounts[i] = r.Amount.String()
		txHashes[i] = r.TxHash
		timestamps[i] = r.Timestamp.Unix()
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO source_transactions
			(chain_id, nonce, kind, block_number, token_in, token_out,
			 address_from, address_to, amount, tx_hash, observed_at)
		SELECT * FROM unnest(
			$1::bigint[], $2::bigint[], $3::text[], $4::bigint[],
			$5::bytea[], $6::bytea[], $7::bytea[], $8::bytea[],
			$9::numeric[], $10::bytea[], to_timestamp(unnest($11::bigint[]))
		)
		ON CONFLICT (chain_id, nonce) DO NOTHING
	`, chainIDs, nonces, kinds, blockNumbers, tokensIn, tokensOut,
		fromAddrs, toAddrs, amounts, txHashes, timestamps)
	if err != nil {
		return fmt.Errorf("upsert source transactions: %w", err)
	}
	return nil
}

func upsertFlowHandled(ctx context.Context, tx pgx.Tx, rows []handler.FlowHandled) error {
	if len(rows) == 0 {
		return nil
	}
	chainIDs := make([]uint64, len(rows))
	nonces := make([]uint64, len(rows))
	blockNumbers := make([]uint64, len(rows))
	txHashes := make([][]byte, len(rows))
	timestamps := make([]int64, len(rows))
	for i, r := range rows {
		chainIDs[i], nonces[i], blockNumbers[i] = r.ChainID, r.Nonce, r.BlockNumber
		txHashes[i] = r.TxHash
		timestamps[i] = r.Timestamp.Unix()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO flow_handled (chain_id, nonce, block_number, tx_hash, handled_at)
		SELECT * FROM unnest(
			$1::bigint[], $2::bigint[], $3::bigint[], $4::bytea[],
			to_timestamp(unnest($5::bigint[]))
		)
		ON CONFLICT (chain_id, nonce) DO NOTHING
	`, chainIDs, nonces, blockNumbers, txHashes, timestamps)
	if err != nil {
		return fmt.Errorf("upsert flow handled: %w", err)
	}
	return nil
}

func upsertFlowExecuted(ctx context.Context, tx pgx.Tx, rows []handler.FlowExecuted) error {
	if len(rows) == 0 {
		return nil
	}
	chainIDs := make([]uint64, len(rows))
	nonces := make([]uint64, len(rows))
	blockNumbers := make([]uint64, len(rows))
	txHashes := make([][]byte, len(rows))
	timestamps := make([]int64, len(rows))
	for i, r := range rows {
		chainIDs[i], nonces[i], blockNumbers[i] = r.ChainID, r.Nonce, r.BlockNumber
		txHashes[i] = r.TxHash
		timestamps[i] = r.Timestamp.Unix()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO flow_executed (chain_id, nonce, block_number, tx_hash, executed_at)
		SELECT * FROM unnest(
			$1::bigint[], $2::bigint[], $3::bigint[], $4::bytea[],
			to_timestamp(unnest($5::bigint[]))
		)
		ON CONFLICT (chain_id, nonce) DO NOTHING
	`, chainIDs, nonces, blockNumbers, txHashes, timestamps)
	if err != nil {
		return fmt.Errorf("upsert flow executed: %w", err)
	}
	return nil
}

func chunkSourceTxs(rows []handler.SourceTx, size int) [][]handler.SourceTx {
	var chunks [][]handler.SourceTx
	for size < len(rows) {
		rows, chunks = rows[size:], append(chunks, rows[0:size:size])
	}
	return append(chunks, rows)
}

func chunkFlowHandled(rows []handler.FlowHandled, size int) [][]handler.FlowHandled {
	var chunks [][]handler.FlowHandled
	for size < len(rows) {
		rows, chunks = rows[size:], append(chunks, rows[0:size:size])
	}
	return append(chunks, rows)
}

func chunkFlowExecuted(rows []handler.FlowExecuted, size int) [][]handler.FlowExecuted {
	var chunks [][]handler.FlowExecuted
	for size < len(rows) {
		rows, chunks = rows[size:], append(chunks, rows[0:size:size])
	}
	return append(chunks, rows)
}
