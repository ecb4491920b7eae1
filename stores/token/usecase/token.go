package usecase

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/viney-shih/goroutines"
	"golang.org/x/xerrors"

	"github.com/coinacci/travelmint-api/base/backoff"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/dedup"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/base/ptr"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/keys"
	"github.com/coinacci/travelmint-api/domain/pendingmint"
	"github.com/coinacci/travelmint-api/domain/token"
	"github.com/coinacci/travelmint-api/service/cache"
)

const (
	mintAttempts     = 3
	mintBackoffStart = time.Second
	mintBackoffLimit = 4 * time.Second
)

type TokenUseCaseCfg struct {
	TokenRepo       token.Repo
	PendingMintRepo pendingmint.Repo
	NftContract     domain.TravelNftContract
	Marketplace     domain.MarketplaceContract
	Metadata        domain.MetadataUseCase
	WebResource     domain.WebResourceUseCase
	Cache           cache.Service
	ChainId         domain.ChainId
	ContractAddress domain.Address
	// ProcessedTxs is the intra-session dedup set keyed by tx hash
	ProcessedTxs *dedup.Set
	// PrefetchPool runs the detached image warmups after a commit
	PrefetchPool *goroutines.Pool
}

type tokenUseCase struct {
	// listGen namespaces the listing cache keys; a commit bumps it so stale
	// pages become unreachable and age out with the ttl
	listGen uint64

	tokenRepo       token.Repo
	pendingMintRepo pendingmint.Repo
	nftContract     domain.TravelNftContract
	marketplace     domain.MarketplaceContract
	metadata        domain.MetadataUseCase
	webResource     domain.WebResourceUseCase
	cache           cache.Service
	chainId         domain.ChainId
	contractAddress domain.Address
	processedTxs    *dedup.Set
	prefetchPool    *goroutines.Pool
}

func NewTokenUseCase(cfg *TokenUseCaseCfg) token.UseCase {
	return &tokenUseCase{
		tokenRepo:       cfg.TokenRepo,
		pendingMintRepo: cfg.PendingMintRepo,
		nftContract:     cfg.NftContract,
		marketplace:     cfg.Marketplace,
		metadata:        cfg.Metadata,
		webResource:     cfg.WebResource,
		cache:           cfg.Cache,
		chainId:         cfg.ChainId,
		contractAddress: cfg.ContractAddress.ToLower(),
		processedTxs:    cfg.ProcessedTxs,
		prefetchPool:    cfg.PrefetchPool,
	}
}

func (u *tokenUseCase) id(tokenId domain.TokenId) *token.Id {
	return &token.Id{
		ChainId:         u.chainId,
		ContractAddress: u.contractAddress,
		TokenId:         tokenId,
	}
}

func (u *tokenUseCase) FindOne(c bCtx.Ctx, id *token.Id) (*token.Token, error) {
	res := &token.Token{}
	key := keys.RedisKey(id.ContractAddress.ToLowerStr(), id.TokenId.String())
	err := u.cache.GetByFunc(c, key, res, func() (interface{}, error) {
		return u.tokenRepo.FindOne(c, id)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *tokenUseCase) FindAll(c bCtx.Ctx, opts ...token.FindAllOptionsFunc) ([]*token.Token, error) {
	key, err := u.listKey("list", opts...)
	if err != nil {
		return nil, err
	}
	res := &[]*token.Token{}
	err = u.cache.GetByFunc(c, key, res, func() (interface{}, error) {
		tokens, err := u.tokenRepo.FindAll(c, opts...)
		if err != nil {
			return nil, err
		}
		return &tokens, nil
	})
	if err != nil {
		return nil, err
	}
	return *res, nil
}

func (u *tokenUseCase) Count(c bCtx.Ctx, opts ...token.FindAllOptionsFunc) (int, error) {
	key, err := u.listKey("count", opts...)
	if err != nil {
		return 0, err
	}
	res := new(int)
	err = u.cache.GetByFunc(c, key, res, func() (interface{}, error) {
		count, err := u.tokenRepo.Count(c, opts...)
		if err != nil {
			return nil, err
		}
		return &count, nil
	})
	if err != nil {
		return 0, err
	}
	return *res, nil
}

func (u *tokenUseCase) listKey(kind string, opts ...token.FindAllOptionsFunc) (string, error) {
	optsKey, err := token.OptionsToKey(opts...)
	if err != nil {
		return "", err
	}
	gen := strconv.FormatUint(atomic.LoadUint64(&u.listGen), 10)
	return keys.RedisKey(keys.PfxTokens, kind, gen, keys.MD5(optsKey)), nil
}

// ResolveAndUpsert pulls the token's current state from chain, normalizes its
// metadata and commits the canonical record. Safe to call from the live event
// path, the scanner and the sweep concurrently.
func (u *tokenUseCase) ResolveAndUpsert(c bCtx.Ctx, tokenId domain.TokenId) (*token.Token, error) {
	if err := u.resolve(c, tokenId, nil); err != nil {
		return nil, err
	}
	return u.tokenRepo.FindOne(c, u.id(tokenId))
}

func (u *tokenUseCase) ResolveMint(c bCtx.Ctx, tokenId domain.TokenId, owner domain.Address, meta *domain.LogMeta) (*token.Token, error) {
	if err := u.resolve(c, tokenId, &mintContext{owner: owner, meta: meta}); err != nil {
		return nil, err
	}
	return u.tokenRepo.FindOne(c, u.id(tokenId))
}

type mintContext struct {
	owner domain.Address
	meta  *domain.LogMeta
}

func (u *tokenUseCase) resolve(c bCtx.Ctx, tokenId domain.TokenId, mint *mintContext) error {
	tokenUri, err := u.nftContract.TokenURI(c, tokenId)
	if err != nil {
		return xerrors.Errorf("read token uri: %w", err)
	}

	md, err := u.metadata.Resolve(c, tokenId, tokenUri)
	if err != nil {
		return xerrors.Errorf("resolve metadata: %w", err)
	}

	owner := domain.Address("")
	if mint != nil {
		owner = mint.owner
	} else {
		owner, err = u.nftContract.OwnerOf(c, tokenId)
		if err != nil {
			return xerrors.Errorf("read owner: %w", err)
		}
	}

	lowerOwner := owner.ToLower()
	incoming := &token.Patchable{
		TokenUri:    &tokenUri,
		Owner:       &lowerOwner,
		Name:        &md.Name,
		Description: &md.Description,
		ImageUrl:    &md.ImageUrl,
		Category:    &md.Category,
		Location:    &md.Location,
		Latitude:    md.Latitude,
		Longitude:   md.Longitude,
		RawMetadata: md.Raw,
	}
	if mint != nil {
		creator := mint.owner.ToLower()
		mintTx := mint.meta.TxHash.ToLower()
		incoming.Creator = &creator
		incoming.MintTxHash = &mintTx
		incoming.BlockNumber = &mint.meta.BlockNumber
	}

	// listing state is best effort here, a failed read never blocks the
	// record commit
	if listing, lerr := u.marketplace.GetListing(c, tokenId); lerr != nil {
		c.WithFields(log.Fields{
			"tokenId": tokenId,
			"err":     lerr,
		}).Warn("listing read failed, skipping sale fields")
	} else {
		incoming.IsForSale = &listing.Active
		if listing.Active {
			incoming.Price = ptr.String(listing.Price.String())
		}
	}

	id := u.id(tokenId)
	existing, err := u.tokenRepo.FindOne(c, id)
	if err != nil && !xerrors.Is(err, domain.ErrNotFound) {
		return err
	}

	merged := token.Merge(existing, incoming)
	if err := u.tokenRepo.Upsert(c, id, merged); err != nil {
		return err
	}

	u.invalidate(c, tokenId)
	if merged.ImageUrl != nil && *merged.ImageUrl != "" {
		u.prefetchImage(c, tokenId, *merged.ImageUrl)
	}
	return nil
}

// HandleMint drives the per-event retry state machine:
// observed -> (deduped | resolving) -> (committed | pending).
func (u *tokenUseCase) HandleMint(c bCtx.Ctx, tokenId domain.TokenId, to domain.Address, meta *domain.LogMeta) error {
	txKey := meta.TxHash.ToLower()
	if u.processedTxs.Contains(string(txKey)) {
		return nil
	}

	// an existing record means this event is a replay
	if _, err := u.tokenRepo.FindOne(c, u.id(tokenId)); err == nil {
		u.processedTxs.Seen(string(txKey))
		return nil
	} else if !xerrors.Is(err, domain.ErrNotFound) {
		return err
	}

	mint := &mintContext{owner: to, meta: meta}
	bf := backoff.NewExponential(mintBackoffStart, mintBackoffLimit)
	var lastErr error
	for attempt := 0; attempt < mintAttempts; attempt++ {
		if attempt > 0 {
			if err := bf.Backoff(c); err != nil {
				return err
			}
		}
		if lastErr = u.resolve(c, tokenId, mint); lastErr == nil {
			u.processedTxs.Seen(string(txKey))
			return nil
		}
		c.WithFields(log.Fields{
			"tokenId": tokenId,
			"txHash":  txKey,
			"attempt": attempt + 1,
			"err":     lastErr,
		}).Warn("mint resolution attempt failed")
	}

	// retries exhausted, park the work durably instead of dropping it
	now := time.Now()
	p := &pendingmint.PendingMint{
		ChainId:         u.chainId,
		ContractAddress: u.contractAddress,
		TokenId:         tokenId,
		Owner:           to.ToLower(),
		TxHash:          txKey,
		BlockNumber:     meta.BlockNumber,
		LastError:       lastErr.Error(),
		LastAttemptAt:   now,
		CreatedAt:       now,
	}
	if err := u.pendingMintRepo.Store(c, p); err != nil {
		c.WithFields(log.Fields{
			"tokenId": tokenId,
			"txHash":  txKey,
			"err":     err,
		}).Error("failed to store pending mint")
		return err
	}
	u.processedTxs.Seen(string(txKey))
	c.WithFields(log.Fields{
		"tokenId": tokenId,
		"txHash":  txKey,
	}).Info("mint parked as pending")
	return nil
}

func (u *tokenUseCase) HandleTransfer(c bCtx.Ctx, tokenId domain.TokenId, from, to domain.Address, meta *domain.LogMeta) error {
	id := u.id(tokenId)
	if _, err := u.tokenRepo.FindOne(c, id); xerrors.Is(err, domain.ErrNotFound) {
		// transfer for a token never ingested, treat as a late mint
		return u.HandleMint(c, tokenId, to, meta)
	} else if err != nil {
		return err
	}

	newOwner := to.ToLower()
	patch := &token.Patchable{
		Owner: &newOwner,
		// changing hands delists the token
		IsForSale: ptr.Bool(false),
	}
	if err := u.tokenRepo.Patch(c, id, patch); err != nil {
		return err
	}
	u.invalidate(c, tokenId)
	return nil
}

func (u *tokenUseCase) HandleQuest(c bCtx.Ctx, evt *domain.QuestCompletedEvent, meta *domain.LogMeta) error {
	if !evt.QuestId.IsInt64() || evt.QuestId.Int64() != domain.SupportedQuestId {
		return domain.ErrUnsupportedQuest
	}

	txKey := meta.TxHash.ToLower()
	if u.processedTxs.Contains(string(txKey)) {
		return nil
	}

	tokens, err := u.tokenRepo.FindAll(c, token.WithOwner(evt.User))
	if err != nil {
		return err
	}

	day := int32(0)
	if evt.Day != nil && evt.Day.IsInt64() {
		day = int32(evt.Day.Int64())
	}
	questAt := meta.BlockTime
	for _, t := range tokens {
		if err := u.tokenRepo.RecordQuestCompletion(c, t.ToId(), questAt, day); err != nil {
			c.WithFields(log.Fields{
				"tokenId": t.TokenId,
				"user":    evt.User,
				"err":     err,
			}).Error("failed to apply quest completion")
			return err
		}
		u.invalidate(c, t.TokenId)
	}
	u.processedTxs.Seen(string(txKey))
	return nil
}

// RefreshListing re-reads the authoritative listing and patches the sale
// fields. The record must already exist.
func (u *tokenUseCase) RefreshListing(c bCtx.Ctx, tokenId domain.TokenId) error {
	listing, err := u.marketplace.GetListing(c, tokenId)
	if err != nil {
		return err
	}

	patch := &token.Patchable{IsForSale: &listing.Active}
	if listing.Active {
		patch.Price = ptr.String(listing.Price.String())
	}
	if err := u.tokenRepo.Patch(c, u.id(tokenId), patch); err != nil {
		return err
	}
	u.invalidate(c, tokenId)
	return nil
}

func (u *tokenUseCase) invalidate(c bCtx.Ctx, tokenId domain.TokenId) {
	atomic.AddUint64(&u.listGen, 1)
	key := keys.RedisKey(u.contractAddress.ToLowerStr(), tokenId.String())
	if err := u.cache.Del(c, key); err != nil {
		c.WithFields(log.Fields{
			"key": key,
			"err": err,
		}).Warn("cache invalidation failed")
	}
}

// prefetchImage warms the gateways for the committed image off the critical
// path. Failures only log; the record is already committed.
func (u *tokenUseCase) prefetchImage(c bCtx.Ctx, tokenId domain.TokenId, imageUrl string) {
	if u.prefetchPool == nil {
		return
	}
	bg := bCtx.Background()
	err := u.prefetchPool.ScheduleWithTimeout(3*time.Second, func() {
		data, err := u.webResource.Get(bg, imageUrl)
		if err != nil {
			bg.WithFields(log.Fields{
				"tokenId":  tokenId,
				"imageUrl": imageUrl,
				"err":      err,
			}).Warn("image prefetch failed")
			return
		}
		mime := mimetype.Detect(data)
		if !isImageMime(mime.String()) {
			bg.WithFields(log.Fields{
				"tokenId":  tokenId,
				"imageUrl": imageUrl,
				"mime":     mime.String(),
			}).Warn("prefetched content is not an image")
		}
	})
	if err != nil {
		c.WithFields(log.Fields{
			"tokenId": tokenId,
			"err":     err,
		}).Warn("failed to schedule image prefetch")
	}
}

func isImageMime(mime string) bool {
	return len(mime) > 6 && mime[:6] == "image/"
}
