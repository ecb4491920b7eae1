package tracker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/xerrors"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/service/query"
)

type CurrentBlockProvider interface {
	BlockNumber(context.Context) (uint64, error)
}

type EventHandler interface {
	GetFilterTopics() [][]common.Hash
	ProcessEvents(bCtx.Ctx, []logWithBlockTime) error
}

const CaughtUpBlock = 5
const TooManyLogsTimeout = 30 * time.Second

// blockTimeCacheSize bounds the in-memory block timestamp cache
const blockTimeCacheSize = 512

type EventTrackerCfg struct {
	ChainId            domain.ChainId
	BlockTime          time.Duration
	CurrentBlockGetter CurrentBlockProvider
	Mongo              query.Mongo
	WsClient           domain.EthClientRepo
	RpcClient          domain.EthClientRepo
	CheckpointUseCase  domain.ScanCheckpointUseCase
	ContractAddress    common.Address
	EventHandl         EventHandler
	ErrorCh            chan<- error
	Tag                string
	ShouldDecodeSender bool
	FollowDistance     uint64
	// StartBlock seeds the checkpoint for a contract never scanned before.
	// Zero means discover the deployment block by code probing.
	StartBlock uint64
}

type EventTracker struct {
	chainId            domain.ChainId
	blockTime          time.Duration
	currentBlockGetter CurrentBlockProvider
	q                  query.Mongo
	wsClient           domain.EthClientRepo
	rpcClient          domain.EthClientRepo
	signer             types.Signer
	checkpointUC       domain.ScanCheckpointUseCase
	contractAddress    common.Address
	eventHandler       EventHandler
	errorCh            chan<- error
	filter             ethereum.FilterQuery
	checkpoint         *domain.ScanCheckpoint
	tag                string
	shouldDecodeSender bool
	followDistance     uint64
	startBlock         uint64
	blockTimes         map[uint64]time.Time
	stoppedCh          chan interface{}
}

func NewEventTracker(cfg *EventTrackerCfg) (*EventTracker, error) {
	if domain.EmptyAddress.Equals(domain.Address(cfg.ContractAddress.String())) {
		return nil, errors.New("config error: contract address required")
	}
	filter := ethereum.FilterQuery{
		Addresses: []common.Address{cfg.ContractAddress},
		Topics:    cfg.EventHandl.GetFilterTopics(),
	}
	signer := types.LatestSignerForChainID(new(big.Int).SetInt64(int64(cfg.ChainId)))
	return &EventTracker{
		chainId:            cfg.ChainId,
		blockTime:          cfg.BlockTime,
		currentBlockGetter: cfg.CurrentBlockGetter,
		q:                  cfg.Mongo,
		wsClient:           cfg.WsClient,
		rpcClient:          cfg.RpcClient,
		signer:             signer,
		checkpointUC:       cfg.CheckpointUseCase,
		contractAddress:    cfg.ContractAddress,
		eventHandler:       cfg.EventHandl,
		errorCh:            cfg.ErrorCh,
		tag:                cfg.Tag,
		shouldDecodeSender: cfg.ShouldDecodeSender,
		followDistance:     cfg.FollowDistance,
		startBlock:         cfg.StartBlock,
		filter:             filter,
		blockTimes:         make(map[uint64]time.Time),
		stoppedCh:          make(chan interface{}),
	}, nil
}

func (f *EventTracker) Start(ctx bCtx.Ctx) {
	go func() {
		defer close(f.stoppedCh)
		if err := f.loop(ctx); err != nil {
			f.errorCh <- err
		}
	}()
}

func (f *EventTracker) Wait() {
	<-f.stoppedCh
}

func (f *EventTracker) loop(ctx bCtx.Ctx) error {
	checkpoint, err := f.setupCheckpoint(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("setupCheckpoint failed")
		return err
	}
	f.checkpoint = checkpoint

	if err := f.fastFetch(ctx); err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"chainId":  f.chainId,
			"contract": f.contractAddress,
		}).Error("fastFetch failed")
		return err
	}

	ch := make(chan types.Log, 1024)
	// from/to blocks must be unset for the subscription filter
	filter := ethereum.FilterQuery{
		Addresses: f.filter.Addresses,
		Topics:    f.filter.Topics,
	}
	sub, err := f.wsClient.SubscribeFilterLogs(ctx, filter, ch)
	if err != nil {
		ctx.WithField("err", err).Error("client.SubscribeFilterLogs failed")
		return err
	}
	defer sub.Unsubscribe()
	ctx.WithField("contract", f.contractAddress).Info("subscription")

	// seed pending with the current block so logs between last processed
	// block and now are not missed
	current, err := f.currentBlockGetter.BlockNumber(ctx)
	if err != nil {
		return err
	}
	lastPending := current
	pending := []uint64{current}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			ctx.WithField("err", err).Error("sub.Err()")
			return err
		case l := <-ch:
			// queue log block number, wait for follow distance confirmation
			if l.BlockNumber < lastPending {
				ctx.WithFields(log.Fields{
					"contract":         f.contractAddress,
					"log_block_number": l.BlockNumber,
					"last_pending":     lastPending,
				}).Warn("received old logs")
			}

			if l.BlockNumber > lastPending {
				lastPending = l.BlockNumber
				pending = append(pending, l.BlockNumber)
			}

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}

			current, err := f.currentBlockGetter.BlockNumber(ctx)
			if err != nil {
				ctx.WithField("err", err).Error("currentBlockGetter.BlockNumber failed")
				return err
			}
			target := current - f.followDistance

			// keep waiting
			if pending[0] > target {
				continue
			}

			start := f.checkpoint.LastBlockProcessed
			end := target
			if end < start {
				continue
			}

			blkRange := newBlockRange(start, end)
			if err := f.processBlkRange(ctx, blkRange); err != nil {
				ctx.WithField("err", err).Error("f.processBlkRange failed")
				return err
			}
			ctx.Info(fmt.Sprintf("process block range start=%d end=%d last=%d contract=%s",
				start, end, f.checkpoint.LastBlockProcessed, f.contractAddress.String()))

			// drop pending <= target
			i := 0
			for _, p := range pending {
				if p > target {
					break
				}
				i += 1
			}
			pending = pending[i:]
		}
	}
}

// CatchUp runs one checkpointed catch-up pass over the filter without
// subscribing. It shares the checkpoint with the live loop, so it must not
// run concurrently with Start on the same tracker.
func (f *EventTracker) CatchUp(ctx bCtx.Ctx) error {
	if f.checkpoint == nil {
		checkpoint, err := f.setupCheckpoint(ctx)
		if err != nil {
			return err
		}
		f.checkpoint = checkpoint
	}
	return f.fastFetch(ctx)
}

func (f *EventTracker) fastFetch(ctx bCtx.Ctx) error {
	startBlk := f.checkpoint.LastBlockProcessed
	endBlk, err := f.currentBlockGetter.BlockNumber(ctx)
	if err != nil {
		return err
	}
	endBlk = endBlk - f.followDistance
	ctx.Info(fmt.Sprintf("fast fetch %s start=%d end=%d", f.contractAddress.String(), startBlk, endBlk))
	for startBlk+CaughtUpBlock < endBlk {
		blkRange := newBlockRange(startBlk, endBlk)
		if err := f.processBlkRange(ctx, blkRange); err != nil {
			return err
		}
		startBlk = endBlk + 1
		endBlk, err = f.currentBlockGetter.BlockNumber(ctx)
		if err != nil {
			return err
		}
		endBlk = endBlk - f.followDistance
	}
	return nil
}

func (f *EventTracker) setupCheckpoint(ctx bCtx.Ctx) (*domain.ScanCheckpoint, error) {
	addr := ToLowerHexStr(f.contractAddress)
	id := &domain.ScanCheckpointId{
		ChainId:         f.chainId,
		ContractAddress: domain.Address(addr),
		Tag:             f.tag,
	}
	checkpoint, err := f.checkpointUC.Get(ctx, id)
	if err == nil {
		return checkpoint, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	startBlk := f.startBlock
	if startBlk == 0 {
		startBlk, err = getDeployedBlock(ctx, f.rpcClient, f.contractAddress)
		if err != nil {
			ctx.WithFields(log.Fields{
				"chainId":  f.chainId,
				"contract": f.contractAddress,
				"tag":      f.tag,
				"err":      err,
			}).Error("failed to get deployed block")
			return nil, err
		}
		ctx.WithFields(log.Fields{
			"chainId":       f.chainId,
			"contract":      f.contractAddress,
			"tag":           f.tag,
			"deployedBlock": startBlk,
		}).Info("got deployedBlock")
	}

	checkpoint = &domain.ScanCheckpoint{
		ChainId:               f.chainId,
		ContractAddress:       domain.Address(addr),
		Tag:                   f.tag,
		LastBlockProcessed:    startBlk,
		LastLogIndexProcessed: -1,
	}
	if err := f.checkpointUC.Store(ctx, checkpoint); err != nil {
		ctx.WithFields(log.Fields{
			"chainId":  f.chainId,
			"contract": f.contractAddress,
			"tag":      f.tag,
			"err":      err,
		}).Error("failed to store checkpoint")
		return nil, err
	}
	return checkpoint, nil
}

func (f *EventTracker) processBlkRange(ctx bCtx.Ctx, blkRange *blockRange) error {
	ranges := []*blockRange{blkRange}
	for len(ranges) > 0 {
		idx := len(ranges) - 1
		r := ranges[idx]
		ranges = ranges[:idx]
		f.filter.FromBlock = r.begin
		f.filter.ToBlock = r.end
		tCtx, cancel := bCtx.WithTimeout(ctx, TooManyLogsTimeout)
		logs, err := f.rpcClient.FilterLogs(tCtx, f.filter)
		cancel()
		if err != nil {
			if r.begin.Cmp(r.end) == 0 {
				ctx.WithFields(log.Fields{
					"err":      err,
					"begin":    r.begin.String(),
					"end":      r.end.String(),
					"chainId":  f.chainId,
					"contract": f.contractAddress,
				}).Error("failed to get logs within one block")
				return err
			}
			// over-large result, halve the range and retry both parts
			r1, r2 := r.split()
			ranges = append(ranges, r2, r1)
			ctx.WithFields(log.Fields{
				"chainId":       f.chainId,
				"contract":      f.contractAddress,
				"tag":           f.tag,
				"originalRange": r.String(),
				"range1":        r1.String(),
				"range2":        r2.String(),
			}).Info("splitting blockRange")
			continue
		}

		// skip already processed logs
		nonProcessedIndex := 0
		for _, log := range logs {
			if log.BlockNumber > f.checkpoint.LastBlockProcessed {
				break
			}
			if log.BlockNumber == f.checkpoint.LastBlockProcessed {
				if int64(log.Index) > f.checkpoint.LastLogIndexProcessed {
					break
				}
			}
			nonProcessedIndex += 1
		}
		logs = logs[nonProcessedIndex:]

		logsWithBlockTime, err := f.toLogsWithBlockTime(ctx, logs)
		if err != nil {
			ctx.WithField("err", err).Error("f.toLogsWithBlockTime failed")
			return xerrors.Errorf("failed to inject block time: %w", err)
		}

		batchSize := 5
		numLogs := len(logsWithBlockTime)
		i := 0
		for i < numLogs {
			j := i + batchSize
			if j > numLogs {
				j = numLogs
			}

			batchLogs := logsWithBlockTime[i:j]
			i = j

			n := len(batchLogs)
			end := batchLogs[n-1].BlockNumber
			logIndex := int64(batchLogs[n-1].Index)

			if err := f.processEvents(ctx, batchLogs, end, logIndex); err != nil {
				ctx.WithField("err", err).Error("f.processEvents failed")
				return err
			}
		}

		// advance checkpoint past the whole range
		if err := f.processEvents(ctx, nil, r.end.Uint64()+1, -1); err != nil {
			ctx.WithField("err", err).Error("f.processEvents failed")
			return err
		}
	}
	return nil
}

func (f *EventTracker) processEvents(ctx bCtx.Ctx, logsWithBlockTime []logWithBlockTime, end uint64, logIndex int64) error {
	run := func(c bCtx.Ctx) (interface{}, error) {
		if err := f.eventHandler.ProcessEvents(c, logsWithBlockTime); err != nil {
			return nil, xerrors.Errorf("failed to process events: %w", err)
		}
		f.checkpoint.LastBlockProcessed = end
		f.checkpoint.LastLogIndexProcessed = logIndex
		if err := f.checkpointUC.Update(c, f.checkpoint); err != nil {
			return nil, xerrors.Errorf("failed to store checkpoint: %w", err)
		}
		return nil, nil
	}

	_, err := f.q.RunWithTransaction(ctx, run)
	return err
}

func (f *EventTracker) toLogsWithBlockTime(ctx bCtx.Ctx, logs []types.Log) ([]logWithBlockTime, error) {
	logsWithTime := make([]logWithBlockTime, len(logs))
	for idx, l := range logs {
		msgSender := domain.Address("")
		if f.shouldDecodeSender {
			tx, _, err := f.rpcClient.TransactionByHash(ctx, l.TxHash)
			if err != nil {
				ctx.WithFields(log.Fields{
					"err":      err,
					"chainId":  f.chainId,
					"contract": f.contractAddress,
					"txHash":   l.TxHash.Hex(),
				}).Error("TransactionByHash failed")
				return nil, err
			}
			_msgSender, err := types.Sender(f.signer, tx)
			if err != nil {
				ctx.WithFields(log.Fields{
					"err":      err,
					"chainId":  f.chainId,
					"contract": f.contractAddress,
					"txHash":   l.TxHash.Hex(),
				}).Error("types.Sender failed")
				return nil, err
			}
			msgSender = toDomainAddress(_msgSender)
		}
		blkTime, err := f.getBlockTime(ctx, l.BlockNumber)
		if err != nil {
			ctx.WithField("err", err).Error("failed to get blocktime")
			return nil, err
		}
		logsWithTime[idx] = logWithBlockTime{Log: l, blockTime: *blkTime, msgSender: msgSender}
	}
	return logsWithTime, nil
}

func (f *EventTracker) getBlockTime(ctx bCtx.Ctx, number uint64) (*time.Time, error) {
	if t, ok := f.blockTimes[number]; ok {
		return &t, nil
	}

	retryCount := 3
	h, err := f.headerByNumberWithRetry(ctx, number, retryCount, time.Second)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":        err,
			"number":     number,
			"chainId":    f.chainId,
			"contract":   f.contractAddress,
			"retryCount": retryCount,
		}).Error("failed to get header")
		return nil, err
	}

	t := time.Unix(int64(h.Time), 0)
	if len(f.blockTimes) >= blockTimeCacheSize {
		f.blockTimes = make(map[uint64]time.Time)
	}
	f.blockTimes[number] = t
	return &t, nil
}

func (f *EventTracker) headerByNumberWithRetry(ctx bCtx.Ctx, number uint64, retryLimit int, interval time.Duration) (*types.Header, error) {
	var (
		err error
		h   *types.Header
	)
	blk := new(big.Int).SetUint64(number)
	for i := 0; i < retryLimit; i++ {
		if i > 0 {
			ctx.WithFields(log.Fields{
				"chainId":  f.chainId,
				"contract": f.contractAddress,
				"retry":    i,
				"interval": interval,
				"blk":      blk,
			}).Warn("rpcClient.HeaderByNumber failed, retry")
			select {
			case <-ctx.Done():
				return nil, xerrors.New("context canceled")
			case <-time.After(interval):
			}
			interval *= 2
		}
		h, err = f.rpcClient.HeaderByNumber(ctx, blk)
		if err == nil {
			break
		}
	}
	return h, err
}

// getDeployedBlock binary searches the first block where the contract has code
func getDeployedBlock(ctx bCtx.Ctx, c domain.EthClientRepo, addr common.Address) (uint64, error) {
	blk, err := c.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	l := blk
	s := blk
	for l > 0 {
		step := l / 2
		mid := s - step - 1
		b, err := c.CodeAt(ctx, addr, new(big.Int).SetUint64(mid))
		if err != nil {
			return 0, err
		}
		if len(b) > 0 {
			s = mid
			l -= step + 1
		} else {
			l = step
		}
	}
	return s, nil
}
