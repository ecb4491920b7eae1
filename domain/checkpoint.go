package domain

import (
	"github.com/coinacci/travelmint-api/base/ctx"
)

const DefaultCheckpointTag = "default"

// ScanCheckpoint records the last block up to which incremental
// reconciliation has completed, one row per tracked contract.
type ScanCheckpoint struct {
	ChainId               ChainId `bson:"chainId"`
	ContractAddress       Address `bson:"contractAddress"`
	Tag                   string  `bson:"tag"`
	LastBlockProcessed    uint64  `bson:"lastBlockProcessed"`
	LastLogIndexProcessed int64   `bson:"lastLogIndexProcessed"`
}

func (s *ScanCheckpoint) ToId() *ScanCheckpointId {
	return &ScanCheckpointId{
		ChainId:         s.ChainId,
		ContractAddress: s.ContractAddress,
		Tag:             s.Tag,
	}
}

type ScanCheckpointId struct {
	ChainId         ChainId `bson:"chainId"`
	ContractAddress Address `bson:"contractAddress"`
	Tag             string  `bson:"tag"`
}

type ScanCheckpointRepo interface {
	Get(ctx.Ctx, *ScanCheckpointId) (*ScanCheckpoint, error)
	Update(ctx.Ctx, *ScanCheckpoint) error
	Store(ctx.Ctx, *ScanCheckpoint) error
}

type ScanCheckpointUseCase interface {
	Get(ctx.Ctx, *ScanCheckpointId) (*ScanCheckpoint, error)
	Update(ctx.Ctx, *ScanCheckpoint) error
	Store(ctx.Ctx, *ScanCheckpoint) error
}
