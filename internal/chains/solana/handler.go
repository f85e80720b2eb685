package solana

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

// Handler decodes the Solana-like bridge program's transactions into
// DbOps. Borsh instruction decoding is out of scope per spec.md §1 (a pure
// function this package treats as a private capability); HandleLog instead
// works off the already-JSON-rendered transaction meta the client's
// getTransaction call returns, matching the shape
// original_source/crates/indexer/svm/src/handler.rs maps into DbOperations.
type Handler struct {
	chainID uint64
	cfg     handler.ChainConfig
}

func NewHandler(chainID uint64, cfg handler.ChainConfig) *Handler {
	return &Handler{chainID: chainID, cfg: cfg}
}

func (h *Handler) ChainID() uint64 { return h.chainID }

func (h *Handler) ChainConfig() handler.ChainConfig { return h.cfg }

// RelevantTopics returns nil: the SVM wire format has no topic filter
// analogue to EVM logs, so filtering happens by program address at the
// ChainClient layer instead (chainclient.ChainClient.FetchHistorical).
func (h *Handler) RelevantTopics() [][]byte { return nil }

var errMalformedInstruction = errors.New("malformed bridge instruction in transaction meta")

// bridgeInstruction is the subset of a decoded instruction this indexer
// needs; the full instruction/account layout decode is the adapter's own
// concern upstream of this handler.
type bridgeInstruction struct {
	Kind   string `json:"kind"`
	Nonce  uint64 `json:"nonce"`
	Token  string `json:"token"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type txMeta struct {
	Instructions []bridgeInstruction `json:"bridgeInstructions"`
}

func (h *Handler) HandleLog(_ handler.EventContext, l chainclient.Log) ([]handler.DbOp, error) {
	if len(l.TxHash) == 0 {
		return nil, &handler.DecodeError{Kind: handler.MissingTxHash, Err: errMalformedInstruction}
	}

	var meta txMeta
	if err := json.Unmarshal(l.Data, &meta); err != nil {
		return nil, &handler.DecodeError{Kind: handler.Decode, EventType: "svmTransaction", Err: err}
	}
	if len(meta.Instructions) == 0 {
		return nil, &handler.DecodeError{Kind: handler.SkipLog, Err: errMalformedInstruction}
	}

	var ops []handler.DbOp
	for _, ix := range meta.Instructions {
		amount, err := decimal.NewFromString(ix.Amount)
		if err != nil {
			return nil, &handler.DecodeError{Kind: handler.NumberOverflow, EventType: ix.Kind, Err: err}
		}
		ops = append(ops, handler.SourceTx{
			ChainID:     h.chainID,
			Nonce:       ix.Nonce,
			Kind:        ix.Kind,
			BlockNumber: l.BlockNumber,
			TokenIn:     []byte(ix.Token),
			AddressFrom: []byte(ix.From),
			AddressTo:   []byte(ix.To),
			Amount:      amount,
			TxHash:      l.TxHash,
			Timestamp:   logTimestamp(l),
		})
	}
	return ops, nil
}

func logTimestamp(l chainclient.Log) time.Time {
	if l.Timestamp == 0 {
		return time.Now().UTC()
	}
	return time.Unix(l.Timestamp, 0).UTC()
}
