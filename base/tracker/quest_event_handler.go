package tracker

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/coinacci/travelmint-api/base/abi"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/token"
)

var questCompletedSig = abi.QuestABI.Events["QuestCompleted"].ID

type QuestEventHandlerCfg struct {
	ChainId      domain.ChainId
	TokenUseCase token.UseCase
}

type QuestEventHandler struct {
	chainId domain.ChainId
	tokenUC token.UseCase
}

func NewQuestEventHandler(cfg *QuestEventHandlerCfg) EventHandler {
	return &QuestEventHandler{
		chainId: cfg.ChainId,
		tokenUC: cfg.TokenUseCase,
	}
}

func (h *QuestEventHandler) GetFilterTopics() [][]common.Hash {
	return [][]common.Hash{
		{
			questCompletedSig,
		},
	}
}

func (h *QuestEventHandler) ProcessEvents(ctx bCtx.Ctx, logs []logWithBlockTime) error {
	for _, l := range logs {
		switch l.Topics[0] {
		case questCompletedSig:
			completed, err := abi.ToQuestCompletedLog(&l.Log)
			if err != nil {
				ctx.WithField("err", err).Error("abi.ToQuestCompletedLog failed")
				return err
			}
			// unsupported quest ids are dropped up front, they must not
			// enter the retry loop
			if !completed.QuestId.IsInt64() || completed.QuestId.Int64() != domain.SupportedQuestId {
				ctx.WithFields(log.Fields{
					"questId": completed.QuestId.String(),
					"txHash":  l.TxHash.Hex(),
				}).Warn("unsupported quest id, skipping")
				continue
			}
			evt := &domain.QuestCompletedEvent{
				User:      toDomainAddress(completed.User),
				QuestId:   completed.QuestId,
				Fee:       completed.Fee,
				Timestamp: completed.Timestamp,
				Day:       completed.Day,
			}
			if err := h.tokenUC.HandleQuest(ctx, evt, toLogMeta(&l)); err != nil {
				ctx.WithField("err", err).Error("tokenUC.HandleQuest failed")
				return err
			}
		default:
			ctx.WithField("topic", l.Topics[0]).Warn("unknown topic, skipping")
		}
	}
	return nil
}
