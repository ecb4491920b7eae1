package usecase

import (
	"time"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/pendingmint"
	"github.com/coinacci/travelmint-api/domain/token"
)

type PendingMintUseCaseCfg struct {
	PendingMintRepo pendingmint.Repo
	TokenUseCase    token.UseCase
}

type pendingMintUseCase struct {
	pendingMintRepo pendingmint.Repo
	tokenUC         token.UseCase
}

func NewPendingMintUseCase(cfg *PendingMintUseCaseCfg) pendingmint.UseCase {
	return &pendingMintUseCase{
		pendingMintRepo: cfg.PendingMintRepo,
		tokenUC:         cfg.TokenUseCase,
	}
}

func (u *pendingMintUseCase) Enqueue(c bCtx.Ctx, p *pendingmint.PendingMint) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.LastAttemptAt.IsZero() {
		p.LastAttemptAt = p.CreatedAt
	}
	return u.pendingMintRepo.Store(c, p)
}

// Sweep replays up to limit pending mints, oldest attempt first. Each row gets
// exactly one resolution attempt per sweep; failures are recorded and the row
// stays for the next round.
func (u *pendingMintUseCase) Sweep(c bCtx.Ctx, limit int32) (int, error) {
	batch, err := u.pendingMintRepo.FindBatch(c, limit)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, p := range batch {
		meta := &domain.LogMeta{
			TxHash:          p.TxHash,
			BlockNumber:     p.BlockNumber,
			ContractAddress: p.ContractAddress,
		}
		if _, err := u.tokenUC.ResolveMint(c, p.TokenId, p.Owner, meta); err != nil {
			c.WithFields(log.Fields{
				"tokenId":    p.TokenId,
				"retryCount": p.RetryCount,
				"err":        err,
			}).Warn("pending mint resolution failed")
			if merr := u.pendingMintRepo.MarkAttempt(c, p.ToId(), err.Error(), time.Now()); merr != nil {
				c.WithFields(log.Fields{
					"tokenId": p.TokenId,
					"err":     merr,
				}).Error("failed to mark attempt")
			}
			continue
		}
		if err := u.pendingMintRepo.Delete(c, p.ToId()); err != nil {
			c.WithFields(log.Fields{
				"tokenId": p.TokenId,
				"err":     err,
			}).Error("failed to delete recovered pending mint")
			continue
		}
		recovered += 1
	}
	return recovered, nil
}
