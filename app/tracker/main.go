package main

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/viney-shih/goroutines"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/database/mongoclient"
	"github.com/coinacci/travelmint-api/base/dedup"
	"github.com/coinacci/travelmint-api/base/ethereum"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/base/tracker"
	"github.com/coinacci/travelmint-api/domain"
	mmiddleware "github.com/coinacci/travelmint-api/middleware"
	"github.com/coinacci/travelmint-api/service/cache"
	"github.com/coinacci/travelmint-api/service/cache/provider/primitive"
	"github.com/coinacci/travelmint-api/service/chain"
	"github.com/coinacci/travelmint-api/service/chain/contract"
	"github.com/coinacci/travelmint-api/service/query"
	checkpointRepo "github.com/coinacci/travelmint-api/stores/checkpoint/repository"
	checkpointUseCase "github.com/coinacci/travelmint-api/stores/checkpoint/usecase"
	metadataUseCase "github.com/coinacci/travelmint-api/stores/metadata/usecase"
	pendingmintRepo "github.com/coinacci/travelmint-api/stores/pendingmint/repository"
	pendingmintUseCase "github.com/coinacci/travelmint-api/stores/pendingmint/usecase"
	scannerUseCase "github.com/coinacci/travelmint-api/stores/scanner/usecase"
	tokenRepository "github.com/coinacci/travelmint-api/stores/token/repository"
	tokenUseCase "github.com/coinacci/travelmint-api/stores/token/usecase"
	webresourceRepo "github.com/coinacci/travelmint-api/stores/webresource/repository"
	webresourceUseCase "github.com/coinacci/travelmint-api/stores/webresource/usecase"
)

func init() {
	pflag.String("config", "infra/configs/tracker/config.yaml", "config file path")
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.SetConfigType("yaml")
	viper.SetConfigFile(viper.GetString("config"))
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	ctx, cancel := bCtx.WithCancel(bCtx.Background())

	// start server to pass health checks
	startEchoServer()

	ctxTimeout := viper.GetDuration("context.timeout")
	followDistance := viper.GetUint64("tracker.followDistance")
	startBlock := viper.GetUint64("tracker.startBlock")
	chainId := domain.ChainId(viper.GetInt64("chain.chainId"))
	blockTime := viper.GetDuration("chain.blockTime")
	wsUrl := viper.GetString("chain.wsUrl")
	rpcUrl := viper.GetString("chain.rpcUrl")
	nftAddress := domain.Address(viper.GetString("chain.nftContract")).ToLower()
	marketplaceAddress := domain.Address(viper.GetString("chain.marketplaceContract")).ToLower()
	questAddress := domain.Address(viper.GetString("chain.questContract")).ToLower()
	sweepInterval := viper.GetDuration("sweep.interval")
	sweepBatch := viper.GetInt32("sweep.batch")
	scanInterval := viper.GetDuration("scanner.interval")

	ctx.WithFields(log.Fields{
		"chainId":     chainId,
		"blockTime":   blockTime,
		"wsUrl":       wsUrl,
		"rpcUrl":      rpcUrl,
		"nftContract": nftAddress,
		"marketplace": marketplaceAddress,
		"quest":       questAddress,
	}).Info("config")

	ctx.Info("init mongo")
	q := initMongo()
	ctx.Info("connecting eth clients")
	wsClient, rpcClient := initEthClient(ctx, wsUrl, rpcUrl)
	throttledClient := ethereum.NewThrottledClient(rpcClient, 100)
	errCh := make(chan error, 10)

	chainService, err := chain.NewClient(ctx, &chain.ClientCfg{
		RpcUrls: map[domain.ChainId]string{chainId: rpcUrl},
	})
	if err != nil {
		ctx.WithField("err", err).Panic("chainService init failed")
	}
	nftContract := contract.NewTravelNft(chainService, chainId, nftAddress)
	marketplaceContract := contract.NewMarketplace(chainService, chainId, marketplaceAddress)

	// repos
	tokenRepo := tokenRepository.NewTokenRepo(q)
	pendingRepo := pendingmintRepo.NewPendingMintRepo(q)
	ckRepo := checkpointRepo.NewCheckpointRepo(q)

	// usecases
	ckUC := checkpointUseCase.NewCheckpointUseCase(ckRepo, ctxTimeout)
	webResource := webresourceUseCase.NewWebResourceUseCase(&webresourceUseCase.WebResourceUseCaseCfg{
		HttpReader:    webresourceRepo.NewHttpReaderRepo(http.Client{}, nil),
		DataUriReader: webresourceRepo.NewDataUriReaderRepo(),
		IpfsGateways:  viper.GetStringSlice("ipfs.gateways"),
		ArGateways:    viper.GetStringSlice("arweave.gateways"),
		TimeoutBase:   viper.GetDuration("webresource.timeoutBase"),
		TimeoutStep:   viper.GetDuration("webresource.timeoutStep"),
	})
	metadataUC := metadataUseCase.NewMetadataUseCase(&metadataUseCase.MetadataUseCaseCfg{
		WebResource: webResource,
	})

	prefetchPool := goroutines.NewPool(8, goroutines.WithTaskQueueLength(256))
	defer prefetchPool.Release()

	tokenUC := tokenUseCase.NewTokenUseCase(&tokenUseCase.TokenUseCaseCfg{
		TokenRepo:       tokenRepo,
		PendingMintRepo: pendingRepo,
		NftContract:     nftContract,
		Marketplace:     marketplaceContract,
		Metadata:        metadataUC,
		WebResource:     webResource,
		Cache: cache.New(cache.ServiceConfig{
			Ttl:   viper.GetDuration("cache.ttl"),
			Pfx:   "tokens",
			Cache: primitive.NewPrimitive("tokens", viper.GetInt("cache.sizeMB")),
		}),
		ChainId:         chainId,
		ContractAddress: nftAddress,
		ProcessedTxs:    dedup.New(4096, time.Hour),
		PrefetchPool:    prefetchPool,
	})
	pendingUC := pendingmintUseCase.NewPendingMintUseCase(&pendingmintUseCase.PendingMintUseCaseCfg{
		PendingMintRepo: pendingRepo,
		TokenUseCase:    tokenUC,
	})

	// handlers
	mintHandler := tracker.NewMintEventHandler(&tracker.MintEventHandlerCfg{
		ChainId:      chainId,
		TokenUseCase: tokenUC,
	})
	questHandler := tracker.NewQuestEventHandler(&tracker.QuestEventHandlerCfg{
		ChainId:      chainId,
		TokenUseCase: tokenUC,
	})

	currentBlockGetter := tracker.NewCurrentBlockGetter(&tracker.CurrentBlockGetterCfg{
		Client: wsClient,
		ErrCh:  errCh,
	})

	// trackers
	var trackers []*tracker.EventTracker
	mintTracker, err := tracker.NewEventTracker(&tracker.EventTrackerCfg{
		ChainId:            chainId,
		BlockTime:          blockTime,
		CurrentBlockGetter: currentBlockGetter,
		Mongo:              q,
		WsClient:           ethereum.NewThrottledClient(wsClient, 100),
		RpcClient:          throttledClient,
		CheckpointUseCase:  ckUC,
		ContractAddress:    common.HexToAddress(nftAddress.ToLowerStr()),
		EventHandl:         mintHandler,
		ErrorCh:            errCh,
		Tag:                domain.DefaultCheckpointTag,
		FollowDistance:     followDistance,
		StartBlock:         startBlock,
	})
	if err != nil {
		ctx.WithField("err", err).Panic("new mint tracker failed")
	}
	trackers = append(trackers, mintTracker)

	questTracker, err := tracker.NewEventTracker(&tracker.EventTrackerCfg{
		ChainId:            chainId,
		BlockTime:          blockTime,
		CurrentBlockGetter: currentBlockGetter,
		Mongo:              q,
		WsClient:           ethereum.NewThrottledClient(wsClient, 100),
		RpcClient:          throttledClient,
		CheckpointUseCase:  ckUC,
		ContractAddress:    common.HexToAddress(questAddress.ToLowerStr()),
		EventHandl:         questHandler,
		ErrorCh:            errCh,
		Tag:                domain.DefaultCheckpointTag,
		FollowDistance:     followDistance,
		StartBlock:         startBlock,
	})
	if err != nil {
		ctx.WithField("err", err).Panic("new quest tracker failed")
	}
	trackers = append(trackers, questTracker)

	scannerUC := scannerUseCase.NewScannerUseCase(&scannerUseCase.ScannerUseCaseCfg{
		NftContract:    nftContract,
		TokenUseCase:   tokenUC,
		ProbeStopAfter: viper.GetInt("scanner.probeStopAfter"),
		ProbeStart:     viper.GetUint64("scanner.probeStart"),
	})

	ctx.Info("starting workers")
	if err := currentBlockGetter.Start(ctx); err != nil {
		ctx.WithField("err", err).Panic("currentBlockGetter.Start failed")
	}
	for _, t := range trackers {
		t.Start(ctx)
	}

	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()
	scanTicker := time.NewTicker(scanInterval)
	defer scanTicker.Stop()
FOR:
	for {
		select {
		case err := <-errCh:
			ctx.WithField("err", err).Error("tracker error")
			break FOR
		case <-sweepTicker.C:
			recovered, err := pendingUC.Sweep(ctx, sweepBatch)
			if err != nil {
				ctx.WithField("err", err).Error("sweep failed")
				continue
			}
			if recovered > 0 {
				ctx.WithField("recovered", recovered).Info("sweep recovered pending mints")
			}
		case <-scanTicker.C:
			found, err := scannerUC.ScanRange(ctx, 0, 0)
			if err != nil {
				ctx.WithField("err", err).Error("reconciliation scan failed")
				continue
			}
			if found > 0 {
				ctx.WithField("found", found).Info("reconciliation scan ingested tokens")
			}
		}
	}

	go func() {
		for range errCh {
		}
	}()
	cancel()

	for _, t := range trackers {
		t.Wait()
	}
	currentBlockGetter.Wait()
}

func startEchoServer() {
	context := bCtx.Background()

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())

	address := viper.GetString("server.address")
	context.WithField("address", address).Info("starting server")
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			context.Error("shutting down the server")
		}
	}()
}

func initMongo() query.Mongo {
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	return query.New(mongoClient, viper.GetInt("mongo.maxConcurrentTransactions"))
}

func initEthClient(ctx bCtx.Ctx, wsUrl, rpcUrl string) (*ethclient.Client, *ethclient.Client) {
	wsClient, err := ethclient.DialContext(ctx, wsUrl)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"url": wsUrl,
		}).Panic("failed to connect ws rpc")
	}

	rpcClient, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"url": rpcUrl,
		}).Panic("failed to connect rpc")
	}

	return wsClient, rpcClient
}
