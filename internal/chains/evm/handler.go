package evm

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/twine-network/bridge-indexer/internal/batchid"
	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

// Role distinguishes the L1 bridge-flow handler from the L2 batch-lifecycle
// handler -- same wire format, different event set (SPEC_FULL.md §4.10).
type Role int

const (
	RoleL1 Role = iota
	RoleL2
)

// Handler decodes EVM bridge/batch events into DbOps. Grounded on
// zk/stages/stage_l1syncer.go's parseLogType topic-dispatch switch.
type Handler struct {
	chainID uint64
	role    Role
	cfg     handler.ChainConfig
}

func NewHandler(chainID uint64, role Role, cfg handler.ChainConfig) *Handler {
	return &Handler{chainID: chainID, role: role, cfg: cfg}
}

func (h *Handler) ChainID() uint64 { return h.chainID }

func (h *Handler) ChainConfig() handler.ChainConfig { return h.cfg }

func (h *Handler) RelevantTopics() [][]byte {
	if h.role == RoleL1 {
		return [][]byte{DepositTopic.Bytes(), WithdrawTopic.Bytes(), ForcedWithdrawTopic.Bytes()}
	}
	return [][]byte{BatchCommitTopic.Bytes(), BatchFinalizeTopic.Bytes()}
}

var (
	errEmptyTopics  = errors.New("log has no topics")
	errMissingField = errors.New("required field missing")
	errUnknownTopic = errors.New("topic not watched by this handler")
	errShortPayload = errors.New("event payload shorter than expected")
)

func (h *Handler) HandleLog(ctx handler.EventContext, l chainclient.Log) ([]handler.DbOp, error) {
	if len(l.Topics) == 0 {
		return nil, &handler.DecodeError{Kind: handler.UnknownEvent, Err: errEmptyTopics}
	}
	if len(l.TxHash) == 0 {
		return nil, &handler.DecodeError{Kind: handler.MissingTxHash, Err: errMissingField}
	}
	if l.BlockNumber == 0 {
		return nil, &handler.DecodeError{Kind: handler.MissingBlockNumber, Err: errMissingField}
	}

	topic := common.BytesToHash(l.Topics[0])
	switch topic {
	case DepositTopic:
		return h.decodeSourceTx(l, KindDeposit)
	case WithdrawTopic:
		return h.decodeSourceTx(l, KindWithdraw)
	case ForcedWithdrawTopic:
		return h.decodeSourceTx(l, KindForcedWithdraw)
	case BatchCommitTopic:
		return h.decodeBatchCommit(ctx, l)
	case BatchFinalizeTopic:
		return h.decodeBatchFinalize(l)
	default:
		return nil, &handler.DecodeError{Kind: handler.UnknownEvent, Err: errUnknownTopic}
	}
}

// decodeSourceTx unpacks a deposit/withdraw/forced-withdraw event. Field
// layout is the standard 32-byte-word ABI encoding of
// (uint256 nonce, address token, address from, address to, uint256 amount),
// matching the reference bridge contract's event signature.
func (h *Handler) decodeSourceTx(l chainclient.Log, kind string) ([]handler.DbOp, error) {
	const wordLen = 32
	if len(l.Data) < wordLen*5 {
		return nil, &handler.DecodeError{Kind: handler.Decode, EventType: kind, Err: errShortPayload}
	}

	nonceBig := new(big.Int).SetBytes(l.Data[0:wordLen])
	if !nonceBig.IsUint64() {
		return nil, &handler.DecodeError{Kind: handler.NumberOverflow, EventType: kind, Err: errShortPayload}
	}

	token := l.Data[wordLen+12 : wordLen*2]
	from := l.Data[wordLen*2+12 : wordLen*3]
	to := l.Data[wordLen*3+12 : wordLen*4]
	amount := new(big.Int).SetBytes(l.Data[wordLen*4 : wordLen*5])

	op := handler.SourceTx{
		ChainID:     h.chainID,
		Nonce:       nonceBig.Uint64(),
		Kind:        kind,
		BlockNumber: l.BlockNumber,
		TokenIn:     append([]byte(nil), token...),
		AddressFrom: append([]byte(nil), from...),
		AddressTo:   append([]byte(nil), to...),
		Amount:      decimal.NewFromBigInt(amount, 0),
		TxHash:      l.TxHash,
		Timestamp:   logTimestamp(l),
	}
	return []handler.DbOp{op}, nil
}

func (h *Handler) decodeBatchCommit(ctx handler.EventContext, l chainclient.Log) ([]handler.DbOp, error) {
	op := handler.BatchCommit{
		ChainID:      h.chainID,
		BatchNumber:  batchid.Derive(ctx.StartBlock, ctx.EndBlock),
		StartBlock:   ctx.StartBlock,
		EndBlock:     ctx.EndBlock,
		CommitTxHash: l.TxHash,
		CommittedAt:  logTimestamp(l),
	}
	return []handler.DbOp{op}, nil
}

func (h *Handler) decodeBatchFinalize(l chainclient.Log) ([]handler.DbOp, error) {
	if len(l.Data) < 32 {
		return nil, &handler.DecodeError{Kind: handler.Decode, EventType: "BatchFinalize", Err: errShortPayload}
	}
	batchNumber := int32(new(big.Int).SetBytes(l.Data[0:32]).Int64() & 0x7FFFFFFF)
	op := handler.BatchFinalize{
		ChainID:        h.chainID,
		BatchNumber:    batchNumber,
		FinalizeTxHash: l.TxHash,
		FinalizedAt:    logTimestamp(l),
	}
	return []handler.DbOp{op}, nil
}

func logTimestamp(l chainclient.Log) time.Time {
	if l.Timestamp == 0 {
		return time.Now().UTC()
	}
	return time.Unix(l.Timestamp, 0).UTC()
}
