package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/dedup"
	"github.com/coinacci/travelmint-api/domain"
	dMocks "github.com/coinacci/travelmint-api/domain/mocks"
	"github.com/coinacci/travelmint-api/domain/pendingmint"
	pmMocks "github.com/coinacci/travelmint-api/domain/pendingmint/mocks"
	"github.com/coinacci/travelmint-api/domain/token"
	tokenMocks "github.com/coinacci/travelmint-api/domain/token/mocks"
	"github.com/coinacci/travelmint-api/service/cache"
	"github.com/coinacci/travelmint-api/service/cache/provider/primitive"
)

const (
	testChainId  = domain.ChainId(8453)
	testContract = domain.Address("0x5c0f1dcbcc14ad83d8eb4d849167b1f24f92cfab")
)

type tokenUseCaseSuite struct {
	suite.Suite

	repo        *tokenMocks.Repo
	pendingRepo *pmMocks.Repo
	nft         *dMocks.TravelNftContract
	marketplace *dMocks.MarketplaceContract
	metadata    *dMocks.MetadataUseCase
	processed   *dedup.Set
	uc          token.UseCase
}

func (s *tokenUseCaseSuite) SetupTest() {
	s.repo = &tokenMocks.Repo{}
	s.pendingRepo = &pmMocks.Repo{}
	s.nft = &dMocks.TravelNftContract{}
	s.marketplace = &dMocks.MarketplaceContract{}
	s.metadata = &dMocks.MetadataUseCase{}
	s.processed = dedup.New(128, time.Hour)
	s.uc = NewTokenUseCase(&TokenUseCaseCfg{
		TokenRepo:       s.repo,
		PendingMintRepo: s.pendingRepo,
		NftContract:     s.nft,
		Marketplace:     s.marketplace,
		Metadata:        s.metadata,
		Cache: cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   "token",
			Cache: primitive.NewPrimitive("token", 1),
		}),
		ChainId:         testChainId,
		ContractAddress: testContract,
		ProcessedTxs:    s.processed,
	})
}

func TestTokenUseCaseSuite(t *testing.T) {
	suite.Run(t, new(tokenUseCaseSuite))
}

func big1() *big.Int  { return big.NewInt(1) }
func big3() *big.Int  { return big.NewInt(3) }
func big99() *big.Int { return big.NewInt(99) }

func (s *tokenUseCaseSuite) meta(tx string) *domain.LogMeta {
	return &domain.LogMeta{
		BlockNumber: 19000000,
		BlockTime:   time.Unix(1735689600, 0),
		TxHash:      domain.TxHash(tx),
	}
}

func (s *tokenUseCaseSuite) stubHappyChain(tokenId domain.TokenId, owner domain.Address) {
	lat, lng := 41.008238, 28.978359
	s.nft.On("TokenURI", mock.Anything, tokenId).Return("ipfs://QmMeta", nil)
	s.nft.On("OwnerOf", mock.Anything, tokenId).Return(owner, nil)
	s.metadata.On("Resolve", mock.Anything, tokenId, "ipfs://QmMeta").Return(&domain.NormalizedMetadata{
		Name:      "Galata Tower",
		Location:  "Istanbul",
		Latitude:  &lat,
		Longitude: &lng,
	}, nil)
	s.marketplace.On("GetListing", mock.Anything, tokenId).Return(&domain.Listing{Active: false}, nil)
}

func (s *tokenUseCaseSuite) TestHandleMintCommitsRecord() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")
	owner := domain.Address("0xAbCd000000000000000000000000000000000001")

	s.stubHappyChain(tokenId, owner)
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	s.repo.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(p *token.Patchable) bool {
		return p.Owner != nil && *p.Owner == owner.ToLower() &&
			p.Creator != nil && *p.Creator == owner.ToLower() &&
			p.Name != nil && *p.Name == "Galata Tower" &&
			p.Latitude != nil && p.Longitude != nil
	})).Return(nil)

	s.Require().NoError(s.uc.HandleMint(c, tokenId, owner, s.meta("0xTX1")))
	s.repo.AssertCalled(s.T(), "Upsert", mock.Anything, mock.Anything, mock.Anything)
	s.pendingRepo.AssertNotCalled(s.T(), "Store", mock.Anything, mock.Anything)
}

func (s *tokenUseCaseSuite) TestHandleMintDedupsReplayedTx() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")
	owner := domain.Address("0xabc1")

	s.stubHappyChain(tokenId, owner)
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	s.repo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	meta := s.meta("0xSAME")
	s.Require().NoError(s.uc.HandleMint(c, tokenId, owner, meta))
	s.Require().NoError(s.uc.HandleMint(c, tokenId, owner, meta))
	s.repo.AssertNumberOfCalls(s.T(), "Upsert", 1)
}

func (s *tokenUseCaseSuite) TestHandleMintSkipsExistingRecord() {
	c := bCtx.Background()
	tokenId := domain.TokenId("7")
	owner := domain.Address("0xabc1")

	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(&token.Token{TokenId: tokenId}, nil)

	s.Require().NoError(s.uc.HandleMint(c, tokenId, owner, s.meta("0xREPLAY")))
	s.nft.AssertNotCalled(s.T(), "TokenURI", mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func (s *tokenUseCaseSuite) TestHandleMintExhaustedRetriesParksPendingMint() {
	c := bCtx.Background()
	tokenId := domain.TokenId("99")
	owner := domain.Address("0xDead000000000000000000000000000000000001")

	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	s.nft.On("TokenURI", mock.Anything, tokenId).Return("", xerrors.New("rpc down"))
	s.pendingRepo.On("Store", mock.Anything, mock.MatchedBy(func(p *pendingmint.PendingMint) bool {
		return p.TokenId == tokenId &&
			p.Owner == owner.ToLower() &&
			p.TxHash == domain.TxHash("0xtx2") &&
			p.LastError != "" &&
			!p.LastAttemptAt.IsZero() && !p.CreatedAt.IsZero()
	})).Return(nil)

	s.Require().NoError(s.uc.HandleMint(c, tokenId, owner, s.meta("0xTX2")))
	s.nft.AssertNumberOfCalls(s.T(), "TokenURI", 3)
	s.pendingRepo.AssertCalled(s.T(), "Store", mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func (s *tokenUseCaseSuite) TestHandleMintPendingStoreFailurePropagates() {
	c := bCtx.Background()
	tokenId := domain.TokenId("99")

	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	s.nft.On("TokenURI", mock.Anything, tokenId).Return("", xerrors.New("rpc down"))
	s.pendingRepo.On("Store", mock.Anything, mock.Anything).Return(xerrors.New("db down"))

	s.Require().Error(s.uc.HandleMint(c, tokenId, domain.Address("0xabc1"), s.meta("0xTX3")))
	s.False(s.processed.Contains("0xtx3"))
}

func (s *tokenUseCaseSuite) TestMergeProtectsExistingCoordinates() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")
	owner := domain.Address("0xabc1")
	lat, lng := 41.0, 29.0

	s.nft.On("TokenURI", mock.Anything, tokenId).Return("ipfs://QmMeta", nil)
	s.nft.On("OwnerOf", mock.Anything, tokenId).Return(owner, nil)
	// degraded read: coordinates absent this time
	s.metadata.On("Resolve", mock.Anything, tokenId, "ipfs://QmMeta").Return(&domain.NormalizedMetadata{
		Name: "Galata Tower",
	}, nil)
	s.marketplace.On("GetListing", mock.Anything, tokenId).Return(&domain.Listing{Active: false}, nil)
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(&token.Token{
		ChainId:         testChainId,
		ContractAddress: testContract,
		TokenId:         tokenId,
		Name:            "Galata Tower",
		Latitude:        &lat,
		Longitude:       &lng,
	}, nil)
	s.repo.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(p *token.Patchable) bool {
		return p.Latitude == nil && p.Longitude == nil
	})).Return(nil)

	_, err := s.uc.ResolveAndUpsert(c, tokenId)
	s.Require().NoError(err)
	s.repo.AssertCalled(s.T(), "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func (s *tokenUseCaseSuite) TestResolveAndUpsertListingFailureDoesNotBlock() {
	c := bCtx.Background()
	tokenId := domain.TokenId("5")
	owner := domain.Address("0xabc1")

	s.nft.On("TokenURI", mock.Anything, tokenId).Return("ipfs://QmMeta", nil)
	s.nft.On("OwnerOf", mock.Anything, tokenId).Return(owner, nil)
	s.metadata.On("Resolve", mock.Anything, tokenId, "ipfs://QmMeta").Return(&domain.NormalizedMetadata{Name: "Lake"}, nil)
	s.marketplace.On("GetListing", mock.Anything, tokenId).Return(nil, xerrors.New("rpc flake"))
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound).Once()
	s.repo.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(p *token.Patchable) bool {
		return p.IsForSale == nil && p.Price == nil
	})).Return(nil)
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(&token.Token{TokenId: tokenId}, nil)

	res, err := s.uc.ResolveAndUpsert(c, tokenId)
	s.Require().NoError(err)
	s.Equal(tokenId, res.TokenId)
}

func (s *tokenUseCaseSuite) TestResolveMintStampsProvenance() {
	c := bCtx.Background()
	tokenId := domain.TokenId("77")
	owner := domain.Address("0xAbCd000000000000000000000000000000000001")

	s.stubHappyChain(tokenId, owner)
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound).Once()
	s.repo.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(p *token.Patchable) bool {
		return p.Creator != nil && *p.Creator == owner.ToLower() &&
			p.MintTxHash != nil && *p.MintTxHash == domain.TxHash("0xtxp") &&
			p.BlockNumber != nil && *p.BlockNumber == domain.BlockNumber(19000000)
	})).Return(nil)
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(&token.Token{
		TokenId: tokenId,
		Creator: owner.ToLower(),
	}, nil)

	res, err := s.uc.ResolveMint(c, tokenId, owner, s.meta("0xTXP"))
	s.Require().NoError(err)
	s.Equal(owner.ToLower(), res.Creator)
	s.repo.AssertCalled(s.T(), "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func (s *tokenUseCaseSuite) TestFindAllServesRepeatedReadsFromCache() {
	c := bCtx.Background()
	tokens := []*token.Token{{TokenId: "1"}, {TokenId: "2"}}
	s.repo.On("FindAll", mock.Anything).Return(tokens, nil)

	first, err := s.uc.FindAll(c)
	s.Require().NoError(err)
	s.Len(first, 2)

	second, err := s.uc.FindAll(c)
	s.Require().NoError(err)
	s.Len(second, 2)

	s.repo.AssertNumberOfCalls(s.T(), "FindAll", 1)
}

func (s *tokenUseCaseSuite) TestCommitInvalidatesListingCache() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")

	s.repo.On("FindAll", mock.Anything).Return([]*token.Token{{TokenId: tokenId}}, nil)
	_, err := s.uc.FindAll(c)
	s.Require().NoError(err)

	s.marketplace.On("GetListing", mock.Anything, tokenId).Return(&domain.Listing{
		Active: true,
		Price:  decimal.RequireFromString("0.5"),
	}, nil)
	s.repo.On("Patch", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.Require().NoError(s.uc.RefreshListing(c, tokenId))

	_, err = s.uc.FindAll(c)
	s.Require().NoError(err)
	s.repo.AssertNumberOfCalls(s.T(), "FindAll", 2)
}

func (s *tokenUseCaseSuite) TestCountIsCachedAlongsideListing() {
	c := bCtx.Background()
	s.repo.On("Count", mock.Anything).Return(7, nil)

	for i := 0; i < 3; i++ {
		count, err := s.uc.Count(c)
		s.Require().NoError(err)
		s.Equal(7, count)
	}
	s.repo.AssertNumberOfCalls(s.T(), "Count", 1)
}

func (s *tokenUseCaseSuite) TestHandleTransferPatchesOwnerAndDelists() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")
	from := domain.Address("0xabc1")
	to := domain.Address("0xDef2000000000000000000000000000000000002")

	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(&token.Token{TokenId: tokenId}, nil)
	s.repo.On("Patch", mock.Anything, mock.Anything, mock.MatchedBy(func(p *token.Patchable) bool {
		return p.Owner != nil && *p.Owner == to.ToLower() &&
			p.IsForSale != nil && !*p.IsForSale
	})).Return(nil)

	s.Require().NoError(s.uc.HandleTransfer(c, tokenId, from, to, s.meta("0xTX4")))
}

func (s *tokenUseCaseSuite) TestHandleTransferUnknownTokenFallsBackToMint() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")
	to := domain.Address("0xdef2")

	s.stubHappyChain(tokenId, to)
	s.repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	s.repo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s.Require().NoError(s.uc.HandleTransfer(c, tokenId, domain.Address("0xabc1"), to, s.meta("0xTX5")))
	s.repo.AssertCalled(s.T(), "Upsert", mock.Anything, mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "Patch", mock.Anything, mock.Anything, mock.Anything)
}

func (s *tokenUseCaseSuite) TestHandleQuestRejectsUnsupportedQuestId() {
	c := bCtx.Background()
	evt := &domain.QuestCompletedEvent{
		User:    domain.Address("0xabc1"),
		QuestId: big99(),
	}
	err := s.uc.HandleQuest(c, evt, s.meta("0xTX6"))
	s.Require().ErrorIs(err, domain.ErrUnsupportedQuest)
	s.repo.AssertNotCalled(s.T(), "FindAll", mock.Anything)
}

func (s *tokenUseCaseSuite) TestHandleQuestPatchesOwnersTokens() {
	c := bCtx.Background()
	user := domain.Address("0xabc1")
	evt := &domain.QuestCompletedEvent{
		User:    user,
		QuestId: big1(),
		Day:     big3(),
	}
	owned := []*token.Token{
		{ChainId: testChainId, ContractAddress: testContract, TokenId: "1", QuestCompletions: 2},
		{ChainId: testChainId, ContractAddress: testContract, TokenId: "2", QuestCompletions: 0},
	}

	s.repo.On("FindAll", mock.Anything, mock.Anything).Return(owned, nil)
	questAt := s.meta("0xTX7").BlockTime
	s.repo.On("RecordQuestCompletion", mock.Anything, mock.MatchedBy(func(id *token.Id) bool {
		return id.TokenId == "1"
	}), questAt, int32(3)).Return(nil)
	s.repo.On("RecordQuestCompletion", mock.Anything, mock.MatchedBy(func(id *token.Id) bool {
		return id.TokenId == "2"
	}), questAt, int32(3)).Return(nil)

	s.Require().NoError(s.uc.HandleQuest(c, evt, s.meta("0xTX7")))
	s.repo.AssertNumberOfCalls(s.T(), "RecordQuestCompletion", 2)
	// the counter moves through a store-level $inc, never a read back value
	s.repo.AssertNotCalled(s.T(), "Patch", mock.Anything, mock.Anything, mock.Anything)
}

func (s *tokenUseCaseSuite) TestHandleQuestDedupsReplayedTx() {
	c := bCtx.Background()
	evt := &domain.QuestCompletedEvent{User: domain.Address("0xabc1"), QuestId: big1()}

	s.repo.On("FindAll", mock.Anything, mock.Anything).Return([]*token.Token{}, nil)

	meta := s.meta("0xQUEST")
	s.Require().NoError(s.uc.HandleQuest(c, evt, meta))
	s.Require().NoError(s.uc.HandleQuest(c, evt, meta))
	s.repo.AssertNumberOfCalls(s.T(), "FindAll", 1)
}

func (s *tokenUseCaseSuite) TestRefreshListingPatchesSaleFields() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")
	price := decimal.RequireFromString("2500000")

	s.marketplace.On("GetListing", mock.Anything, tokenId).Return(&domain.Listing{
		TokenId: tokenId,
		Active:  true,
		Price:   price,
	}, nil)
	s.repo.On("Patch", mock.Anything, mock.Anything, mock.MatchedBy(func(p *token.Patchable) bool {
		return p.IsForSale != nil && *p.IsForSale &&
			p.Price != nil && *p.Price == "2500000"
	})).Return(nil)

	s.Require().NoError(s.uc.RefreshListing(c, tokenId))
}

func (s *tokenUseCaseSuite) TestRefreshListingInactiveClearsFlagOnly() {
	c := bCtx.Background()
	tokenId := domain.TokenId("42")

	s.marketplace.On("GetListing", mock.Anything, tokenId).Return(&domain.Listing{Active: false}, nil)
	s.repo.On("Patch", mock.Anything, mock.Anything, mock.MatchedBy(func(p *token.Patchable) bool {
		return p.IsForSale != nil && !*p.IsForSale && p.Price == nil
	})).Return(nil)

	s.Require().NoError(s.uc.RefreshListing(c, tokenId))
}
