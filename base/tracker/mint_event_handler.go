package tracker

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/coinacci/travelmint-api/base/abi"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/token"
)

var transferSig = abi.TravelNftABI.Events["Transfer"].ID

type MintEventHandlerCfg struct {
	ChainId      domain.ChainId
	TokenUseCase token.UseCase
}

// MintEventHandler routes erc721 Transfer logs. A transfer from the zero
// address is a mint, everything else an ownership change.
type MintEventHandler struct {
	chainId domain.ChainId
	tokenUC token.UseCase
}

func NewMintEventHandler(cfg *MintEventHandlerCfg) EventHandler {
	return &MintEventHandler{
		chainId: cfg.ChainId,
		tokenUC: cfg.TokenUseCase,
	}
}

func (h *MintEventHandler) GetFilterTopics() [][]common.Hash {
	return [][]common.Hash{
		{
			transferSig,
		},
	}
}

func (h *MintEventHandler) ProcessEvents(ctx bCtx.Ctx, logs []logWithBlockTime) error {
	for _, log := range logs {
		switch log.Topics[0] {
		case transferSig:
			transferLog := abi.ToTransferLog(&log.Log)
			from := toDomainAddress(transferLog.From)
			to := toDomainAddress(transferLog.To)
			tokenId := domain.TokenId(transferLog.TokenId.String())
			if from.Equals(domain.EmptyAddress) {
				if err := h.tokenUC.HandleMint(ctx, tokenId, to, toLogMeta(&log)); err != nil {
					ctx.WithField("err", err).Error("tokenUC.HandleMint failed")
					return err
				}
			} else {
				if err := h.tokenUC.HandleTransfer(ctx, tokenId, from, to, toLogMeta(&log)); err != nil {
					ctx.WithField("err", err).Error("tokenUC.HandleTransfer failed")
					return err
				}
			}
		default:
			ctx.WithField("topic", log.Topics[0]).Warn("unknown topic, skipping")
		}
	}
	return nil
}
