package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/viney-shih/goroutines"

	"github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/database/mongoclient"
	"github.com/coinacci/travelmint-api/base/dedup"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/base/tracker"
	bValidator "github.com/coinacci/travelmint-api/base/validator"
	"github.com/coinacci/travelmint-api/domain"
	mmiddleware "github.com/coinacci/travelmint-api/middleware"
	"github.com/coinacci/travelmint-api/service/cache"
	"github.com/coinacci/travelmint-api/service/cache/provider"
	"github.com/coinacci/travelmint-api/service/cache/provider/primitive"
	providerRedis "github.com/coinacci/travelmint-api/service/cache/provider/redis"
	"github.com/coinacci/travelmint-api/service/chain"
	"github.com/coinacci/travelmint-api/service/chain/contract"
	"github.com/coinacci/travelmint-api/service/query"
	"github.com/coinacci/travelmint-api/service/redis"
	checkpoint_repository "github.com/coinacci/travelmint-api/stores/checkpoint/repository"
	checkpoint_usecase "github.com/coinacci/travelmint-api/stores/checkpoint/usecase"
	metadata_usecase "github.com/coinacci/travelmint-api/stores/metadata/usecase"
	pendingmint_repository "github.com/coinacci/travelmint-api/stores/pendingmint/repository"
	purchase_usecase "github.com/coinacci/travelmint-api/stores/purchase/usecase"
	scanner_usecase "github.com/coinacci/travelmint-api/stores/scanner/usecase"
	token_delivery "github.com/coinacci/travelmint-api/stores/token/delivery/http"
	token_repository "github.com/coinacci/travelmint-api/stores/token/repository"
	token_usecase "github.com/coinacci/travelmint-api/stores/token/usecase"
	webresource_repository "github.com/coinacci/travelmint-api/stores/webresource/repository"
	webresource_usecase "github.com/coinacci/travelmint-api/stores/webresource/usecase"
)

func init() {
	pflag.String("config", "infra/configs/config.yaml", "config file path")
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
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, viper.GetInt("mongo.maxConcurrentTransactions"))

	// init cache provider
	var cacheProvider provider.Provider
	if redisURI := viper.GetString("redis.uri"); redisURI != "" {
		context.Info("init redis cache")
		pool := redis.NewPool(redisURI, viper.GetInt("redis.maxIdle"), viper.GetInt("redis.maxActive"))
		cacheProvider = providerRedis.NewRedis(redis.New("cache", pool))
	} else {
		cacheProvider = primitive.NewPrimitive("tokens", viper.GetInt("cache.sizeMB"))
	}
	tokenCache := cache.New(cache.ServiceConfig{
		Ttl:   viper.GetDuration("cache.ttl"),
		Pfx:   "tokens",
		Cache: cacheProvider,
	})

	// init chain service
	chainId := domain.ChainId(viper.GetInt64("chain.chainId"))
	rpcUrl := viper.GetString("chain.rpcUrl")
	nftAddress := domain.Address(viper.GetString("chain.nftContract")).ToLower()
	marketplaceAddress := domain.Address(viper.GetString("chain.marketplaceContract")).ToLower()

	chainService, err := chain.NewClient(context, &chain.ClientCfg{
		RpcUrls: map[domain.ChainId]string{chainId: rpcUrl},
	})
	if err != nil {
		context.WithField("err", err).Panic("chainService init failed")
	}
	nftContract := contract.NewTravelNft(chainService, chainId, nftAddress)
	marketplaceContract := contract.NewMarketplace(chainService, chainId, marketplaceAddress)

	rpcClient, err := ethclient.Dial(rpcUrl)
	if err != nil {
		context.WithField("err", err).Panic("ethclient dial failed")
	}

	// construct repository, usecase and delivery
	tokenRepo := token_repository.NewTokenRepo(q)
	pendingMintRepo := pendingmint_repository.NewPendingMintRepo(q)
	checkpointRepo := checkpoint_repository.NewCheckpointRepo(q)
	checkpointUC := checkpoint_usecase.NewCheckpointUseCase(checkpointRepo, viper.GetDuration("context.timeout"))

	httpReader := webresource_repository.NewHttpReaderRepo(http.Client{}, nil)
	dataUriReader := webresource_repository.NewDataUriReaderRepo()
	webResource := webresource_usecase.NewWebResourceUseCase(&webresource_usecase.WebResourceUseCaseCfg{
		HttpReader:    httpReader,
		DataUriReader: dataUriReader,
		IpfsGateways:  viper.GetStringSlice("ipfs.gateways"),
		ArGateways:    viper.GetStringSlice("arweave.gateways"),
		TimeoutBase:   viper.GetDuration("webresource.timeoutBase"),
		TimeoutStep:   viper.GetDuration("webresource.timeoutStep"),
	})
	metadataUC := metadata_usecase.NewMetadataUseCase(&metadata_usecase.MetadataUseCaseCfg{
		WebResource: webResource,
	})

	prefetchPool := goroutines.NewPool(8, goroutines.WithTaskQueueLength(256))
	defer prefetchPool.Release()

	tokenUC := token_usecase.NewTokenUseCase(&token_usecase.TokenUseCaseCfg{
		TokenRepo:       tokenRepo,
		PendingMintRepo: pendingMintRepo,
		NftContract:     nftContract,
		Marketplace:     marketplaceContract,
		Metadata:        metadataUC,
		WebResource:     webResource,
		Cache:           tokenCache,
		ChainId:         chainId,
		ContractAddress: nftAddress,
		ProcessedTxs:    dedup.New(4096, time.Hour),
		PrefetchPool:    prefetchPool,
	})

	purchaseUC := purchase_usecase.NewPurchaseUseCase(&purchase_usecase.PurchaseUseCaseCfg{
		Client:             rpcClient,
		Marketplace:        marketplaceContract,
		ChainId:            chainId,
		MarketplaceAddress: marketplaceAddress,
	})

	// rescanners share checkpoint state with app/tracker; the api binary
	// only triggers them on demand
	questAddress := domain.Address(viper.GetString("chain.questContract")).ToLower()
	followDistance := viper.GetUint64("tracker.followDistance")
	errCh := make(chan error, 10)

	mintTracker, err := tracker.NewEventTracker(&tracker.EventTrackerCfg{
		ChainId:            chainId,
		BlockTime:          viper.GetDuration("chain.blockTime"),
		CurrentBlockGetter: rpcClient,
		Mongo:              q,
		WsClient:           rpcClient,
		RpcClient:          rpcClient,
		CheckpointUseCase:  checkpointUC,
		ContractAddress:    common.HexToAddress(nftAddress.ToLowerStr()),
		EventHandl: tracker.NewMintEventHandler(&tracker.MintEventHandlerCfg{
			ChainId:      chainId,
			TokenUseCase: tokenUC,
		}),
		ErrorCh:        errCh,
		Tag:            domain.DefaultCheckpointTag,
		FollowDistance: followDistance,
		StartBlock:     viper.GetUint64("tracker.startBlock"),
	})
	if err != nil {
		context.WithField("err", err).Panic("new mint tracker failed")
	}

	questTracker, err := tracker.NewEventTracker(&tracker.EventTrackerCfg{
		ChainId:            chainId,
		BlockTime:          viper.GetDuration("chain.blockTime"),
		CurrentBlockGetter: rpcClient,
		Mongo:              q,
		WsClient:           rpcClient,
		RpcClient:          rpcClient,
		CheckpointUseCase:  checkpointUC,
		ContractAddress:    common.HexToAddress(questAddress.ToLowerStr()),
		EventHandl: tracker.NewQuestEventHandler(&tracker.QuestEventHandlerCfg{
			ChainId:      chainId,
			TokenUseCase: tokenUC,
		}),
		ErrorCh:        errCh,
		Tag:            domain.DefaultCheckpointTag,
		FollowDistance: followDistance,
		StartBlock:     viper.GetUint64("tracker.startBlock"),
	})
	if err != nil {
		context.WithField("err", err).Panic("new quest tracker failed")
	}

	rescanners := []scanner_usecase.Rescanner{mintTracker, questTracker}

	scannerUC := scanner_usecase.NewScannerUseCase(&scanner_usecase.ScannerUseCaseCfg{
		NftContract:    nftContract,
		TokenUseCase:   tokenUC,
		Rescanners:     rescanners,
		ProbeStopAfter: viper.GetInt("scanner.probeStopAfter"),
		ProbeStart:     viper.GetUint64("scanner.probeStart"),
	})

	token_delivery.New(e, tokenUC, scannerUC, purchaseUC, chainId, nftAddress)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	sCtx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sCtx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
