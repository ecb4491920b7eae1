package usecase

import (
	"time"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
)

type checkpointUseCase struct {
	checkpointRepo domain.ScanCheckpointRepo
	ctxTimeout     time.Duration
}

func NewCheckpointUseCase(r domain.ScanCheckpointRepo, ctxTimeout time.Duration) domain.ScanCheckpointUseCase {
	return &checkpointUseCase{
		checkpointRepo: r,
		ctxTimeout:     ctxTimeout,
	}
}

func (u *checkpointUseCase) Get(c bCtx.Ctx, id *domain.ScanCheckpointId) (*domain.ScanCheckpoint, error) {
	ctx, cancel := bCtx.WithTimeout(c, u.ctxTimeout)
	defer cancel()
	return u.checkpointRepo.Get(ctx, id)
}

func (u *checkpointUseCase) Update(c bCtx.Ctx, checkpoint *domain.ScanCheckpoint) error {
	ctx, cancel := bCtx.WithTimeout(c, u.ctxTimeout)
	defer cancel()
	return u.checkpointRepo.Update(ctx, checkpoint)
}

func (u *checkpointUseCase) Store(c bCtx.Ctx, checkpoint *domain.ScanCheckpoint) error {
	ctx, cancel := bCtx.WithTimeout(c, u.ctxTimeout)
	defer cancel()
	return u.checkpointRepo.Store(ctx, checkpoint)
}
