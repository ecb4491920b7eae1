package pendingmint

import (
	"time"

	"github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
)

// PendingMint is the durable remainder of a mint whose resolution failed
// after exhausting immediate retries. Rows are replayed by the sweep until
// they succeed; there is no retry ceiling at this layer.
type PendingMint struct {
	ChainId         domain.ChainId `bson:"chainId"`
	ContractAddress domain.Address `bson:"contractAddress"`
	TokenId         domain.TokenId `bson:"tokenID"`
	Owner           domain.Address `bson:"owner"`
	TxHash          domain.TxHash  `bson:"txHash"`
	// BlockNumber of the mint event, kept so a sweep-recovered record still
	// carries its mint provenance.
	BlockNumber domain.BlockNumber `bson:"blockNumber"`
	RetryCount  int32              `bson:"retryCount"`
	LastError       string         `bson:"lastError"`
	LastAttemptAt   time.Time      `bson:"lastAttemptAt"`
	CreatedAt       time.Time      `bson:"createdAt"`
}

type Id struct {
	ChainId         domain.ChainId `bson:"chainId"`
	ContractAddress domain.Address `bson:"contractAddress"`
	TokenId         domain.TokenId `bson:"tokenID"`
	TxHash          domain.TxHash  `bson:"txHash"`
}

func (p *PendingMint) ToId() *Id {
	return &Id{
		ChainId:         p.ChainId,
		ContractAddress: p.ContractAddress,
		TokenId:         p.TokenId,
		TxHash:          p.TxHash,
	}
}

type Repo interface {
	// Store is idempotent on Id; storing the same pending mint twice keeps
	// one row.
	Store(c ctx.Ctx, p *PendingMint) error
	// FindBatch returns at most limit rows, least-recently attempted first.
	FindBatch(c ctx.Ctx, limit int32) ([]*PendingMint, error)
	Delete(c ctx.Ctx, id *Id) error
	// MarkAttempt increments retryCount and records the failure; retryCount
	// never resets.
	MarkAttempt(c ctx.Ctx, id *Id, lastError string, at time.Time) error
	Count(c ctx.Ctx) (int, error)
}

type UseCase interface {
	Enqueue(c ctx.Ctx, p *PendingMint) error
	// Sweep re-attempts full resolution once per row in a bounded batch.
	// Returns how many rows were recovered.
	Sweep(c ctx.Ctx, limit int32) (int, error)
}
