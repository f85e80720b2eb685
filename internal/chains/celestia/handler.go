package celestia

import (
	"time"

	"github.com/twine-network/bridge-indexer/internal/batchid"
	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

// Handler maps a blob-inclusion Log to a DaAvailable DbOp, keyed by the
// same derived batch_number scheme used by the L2 adapter so DA rows join
// against batch rows in the blockscout store.
type Handler struct {
	chainID uint64
	cfg     handler.ChainConfig
}

func NewHandler(chainID uint64, cfg handler.ChainConfig) *Handler {
	return &Handler{chainID: chainID, cfg: cfg}
}

func (h *Handler) ChainID() uint64                  { return h.chainID }
func (h *Handler) ChainConfig() handler.ChainConfig { return h.cfg }
func (h *Handler) RelevantTopics() [][]byte         { return nil }

func (h *Handler) HandleLog(ctx handler.EventContext, l chainclient.Log) ([]handler.DbOp, error) {
	op := handler.DaAvailable{
		ChainID:     h.chainID,
		BatchNumber: batchid.Derive(ctx.StartBlock, ctx.EndBlock),
		Height:      l.BlockNumber,
		Commitment:  l.Data,
		ObservedAt:  time.Unix(l.Timestamp, 0).UTC(),
	}
	return []handler.DbOp{op}, nil
}
