package usecase

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	"github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/pendingmint"
	pendingmintMocks "github.com/coinacci/travelmint-api/domain/pendingmint/mocks"
	"github.com/coinacci/travelmint-api/domain/token"
	tokenMocks "github.com/coinacci/travelmint-api/domain/token/mocks"
)

type sweepSuite struct {
	suite.Suite
	repo    *pendingmintMocks.Repo
	tokenUC *tokenMocks.UseCase
	im      pendingmint.UseCase
}

func (s *sweepSuite) SetupTest() {
	s.repo = &pendingmintMocks.Repo{}
	s.tokenUC = &tokenMocks.UseCase{}
	s.im = NewPendingMintUseCase(&PendingMintUseCaseCfg{
		PendingMintRepo: s.repo,
		TokenUseCase:    s.tokenUC,
	})
}

func TestSweepSuite(t *testing.T) {
	suite.Run(t, new(sweepSuite))
}

func pending(tokenId domain.TokenId, retries int32) *pendingmint.PendingMint {
	return &pendingmint.PendingMint{
		ChainId:         8453,
		ContractAddress: "0xnft",
		TokenId:         tokenId,
		Owner:           "0xowner",
		TxHash:          domain.TxHash("0xtx" + tokenId.String()),
		RetryCount:      retries,
	}
}

func (s *sweepSuite) TestSweepRecoversAndDeletes() {
	c := ctx.Background()
	p := pending("1", 2)

	s.repo.On("FindBatch", mock.Anything, int32(10)).Return([]*pendingmint.PendingMint{p}, nil).Once()
	s.tokenUC.On("ResolveMint", mock.Anything, domain.TokenId("1"), p.Owner, mock.Anything).Return(&token.Token{}, nil).Once()
	s.repo.On("Delete", mock.Anything, p.ToId()).Return(nil).Once()

	recovered, err := s.im.Sweep(c, 10)
	s.NoError(err)
	s.Equal(1, recovered)
	s.repo.AssertExpectations(s.T())
	s.tokenUC.AssertExpectations(s.T())
}

func (s *sweepSuite) TestSweepFailureKeepsRowAndMarksAttempt() {
	c := ctx.Background()
	p := pending("2", 7)

	s.repo.On("FindBatch", mock.Anything, int32(10)).Return([]*pendingmint.PendingMint{p}, nil).Once()
	s.tokenUC.On("ResolveMint", mock.Anything, domain.TokenId("2"), p.Owner, mock.Anything).Return(nil, xerrors.New("gateway down")).Once()
	s.repo.On("MarkAttempt", mock.Anything, p.ToId(), "gateway down", mock.Anything).Return(nil).Once()

	recovered, err := s.im.Sweep(c, 10)
	s.NoError(err)
	s.Equal(0, recovered)
	s.repo.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything)
	s.repo.AssertExpectations(s.T())
}

func (s *sweepSuite) TestSweepOneAttemptPerRow() {
	c := ctx.Background()
	p1 := pending("3", 0)
	p2 := pending("4", 0)

	s.repo.On("FindBatch", mock.Anything, int32(10)).Return([]*pendingmint.PendingMint{p1, p2}, nil).Once()
	s.tokenUC.On("ResolveMint", mock.Anything, domain.TokenId("3"), p1.Owner, mock.Anything).Return(nil, xerrors.New("boom")).Once()
	s.tokenUC.On("ResolveMint", mock.Anything, domain.TokenId("4"), p2.Owner, mock.Anything).Return(&token.Token{}, nil).Once()
	s.repo.On("MarkAttempt", mock.Anything, p1.ToId(), "boom", mock.Anything).Return(nil).Once()
	s.repo.On("Delete", mock.Anything, p2.ToId()).Return(nil).Once()

	recovered, err := s.im.Sweep(c, 10)
	s.NoError(err)
	s.Equal(1, recovered)
	s.tokenUC.AssertNumberOfCalls(s.T(), "ResolveMint", 2)
}

func (s *sweepSuite) TestSweepCarriesMintProvenance() {
	c := ctx.Background()
	p := pending("6", 1)
	p.BlockNumber = 19000123

	s.repo.On("FindBatch", mock.Anything, int32(10)).Return([]*pendingmint.PendingMint{p}, nil).Once()
	s.tokenUC.On("ResolveMint", mock.Anything, domain.TokenId("6"), domain.Address("0xowner"),
		mock.MatchedBy(func(meta *domain.LogMeta) bool {
			return meta.TxHash == p.TxHash && meta.BlockNumber == p.BlockNumber
		})).Return(&token.Token{}, nil).Once()
	s.repo.On("Delete", mock.Anything, p.ToId()).Return(nil).Once()

	recovered, err := s.im.Sweep(c, 10)
	s.NoError(err)
	s.Equal(1, recovered)
	s.tokenUC.AssertExpectations(s.T())
}

func (s *sweepSuite) TestEnqueueFillsTimestamps() {
	c := ctx.Background()
	p := pending("5", 0)

	s.repo.On("Store", mock.Anything, mock.MatchedBy(func(got *pendingmint.PendingMint) bool {
		return !got.CreatedAt.IsZero() && !got.LastAttemptAt.IsZero()
	})).Return(nil).Once()

	s.NoError(s.im.Enqueue(c, p))
	s.repo.AssertExpectations(s.T())
}
