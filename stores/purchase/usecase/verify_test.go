package usecase

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	gabi "github.com/coinacci/travelmint-api/base/abi"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
	dMocks "github.com/coinacci/travelmint-api/domain/mocks"
)

const verifyChainId = domain.ChainId(8453)

var marketplaceAddr = common.HexToAddress("0x3a1f4e9b00000000000000000000000000000001")

type verifySuite struct {
	suite.Suite

	client      *dMocks.EthClientRepo
	marketplace *dMocks.MarketplaceContract
	uc          domain.PurchaseUseCase

	buyerKey  *ecdsa.PrivateKey
	buyerAddr domain.Address
	txHash    domain.TxHash
}

func (s *verifySuite) SetupTest() {
	s.client = &dMocks.EthClientRepo{}
	s.marketplace = &dMocks.MarketplaceContract{}
	s.uc = NewPurchaseUseCase(&PurchaseUseCaseCfg{
		Client:             s.client,
		Marketplace:        s.marketplace,
		ChainId:            verifyChainId,
		MarketplaceAddress: domain.Address(marketplaceAddr.String()),
	})

	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.buyerKey = key
	s.buyerAddr = domain.Address(crypto.PubkeyToAddress(key.PublicKey).String())
	s.txHash = domain.TxHash("0x9d4c00000000000000000000000000000000000000000000000000000000beef")
}

func TestVerifySuite(t *testing.T) {
	suite.Run(t, new(verifySuite))
}

func (s *verifySuite) signedTx(key *ecdsa.PrivateKey, to common.Address, data []byte) *types.Transaction {
	signer := types.LatestSignerForChainID(big.NewInt(int64(verifyChainId)))
	tx, err := types.SignNewTx(key, signer, &types.DynamicFeeTx{
		ChainID:   big.NewInt(int64(verifyChainId)),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(100),
		Gas:       200000,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      data,
	})
	s.Require().NoError(err)
	return tx
}

func (s *verifySuite) purchaseCalldata(tokenId int64) []byte {
	data, err := gabi.MarketplaceABI.Pack(gabi.PurchaseMethod, big.NewInt(tokenId))
	s.Require().NoError(err)
	return data
}

func (s *verifySuite) stubLookup(tx *types.Transaction, status uint64) {
	s.client.On("TransactionByHash", mock.Anything, mock.Anything).Return(tx, false, nil)
	s.client.On("TransactionReceipt", mock.Anything, mock.Anything).Return(&types.Receipt{
		Status:      status,
		BlockNumber: big.NewInt(19000000),
	}, nil)
}

func (s *verifySuite) assertRejected(err error, reason domain.VerifyReason) *domain.VerificationError {
	s.Require().Error(err)
	ve, ok := domain.AsVerificationError(err)
	s.Require().True(ok, "expected a verification error, got %v", err)
	s.Equal(reason, ve.Reason)
	return ve
}

func (s *verifySuite) TestMissingTransaction() {
	s.client.On("TransactionByHash", mock.Anything, mock.Anything).
		Return(nil, false, xerrors.New("not found"))

	_, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.assertRejected(err, domain.VerifyReasonTxNotFound)
}

func (s *verifySuite) TestPendingTransaction() {
	tx := s.signedTx(s.buyerKey, marketplaceAddr, s.purchaseCalldata(42))
	s.client.On("TransactionByHash", mock.Anything, mock.Anything).Return(tx, true, nil)

	_, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.assertRejected(err, domain.VerifyReasonTxNotFound)
}

func (s *verifySuite) TestRevertedTransaction() {
	tx := s.signedTx(s.buyerKey, marketplaceAddr, s.purchaseCalldata(42))
	s.stubLookup(tx, types.ReceiptStatusFailed)

	_, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.assertRejected(err, domain.VerifyReasonTxFailed)
}

func (s *verifySuite) TestWrongDestination() {
	other := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	tx := s.signedTx(s.buyerKey, other, s.purchaseCalldata(42))
	s.stubLookup(tx, types.ReceiptStatusSuccessful)

	_, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.assertRejected(err, domain.VerifyReasonWrongDestination)
}

func (s *verifySuite) TestWrongFunctionNamesActualFunction() {
	data, err := gabi.MarketplaceABI.Pack("listNFT", big.NewInt(42), big.NewInt(1000))
	s.Require().NoError(err)
	tx := s.signedTx(s.buyerKey, marketplaceAddr, data)
	s.stubLookup(tx, types.ReceiptStatusSuccessful)

	_, err = s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	ve := s.assertRejected(err, domain.VerifyReasonWrongFunction)
	s.Contains(ve.Detail, "listNFT")
}

func (s *verifySuite) TestEmptyCalldata() {
	tx := s.signedTx(s.buyerKey, marketplaceAddr, nil)
	s.stubLookup(tx, types.ReceiptStatusSuccessful)

	_, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.assertRejected(err, domain.VerifyReasonWrongFunction)
}

func (s *verifySuite) TestTokenMismatchCarriesBothIds() {
	tx := s.signedTx(s.buyerKey, marketplaceAddr, s.purchaseCalldata(43))
	s.stubLookup(tx, types.ReceiptStatusSuccessful)

	_, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	ve := s.assertRejected(err, domain.VerifyReasonTokenMismatch)
	s.Contains(ve.Detail, "42")
	s.Contains(ve.Detail, "43")
}

func (s *verifySuite) TestBuyerMismatch() {
	otherKey, err := crypto.GenerateKey()
	s.Require().NoError(err)
	tx := s.signedTx(otherKey, marketplaceAddr, s.purchaseCalldata(42))
	s.stubLookup(tx, types.ReceiptStatusSuccessful)

	_, err = s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.assertRejected(err, domain.VerifyReasonBuyerMismatch)
}

func (s *verifySuite) TestNeverListedToken() {
	tx := s.signedTx(s.buyerKey, marketplaceAddr, s.purchaseCalldata(42))
	s.stubLookup(tx, types.ReceiptStatusSuccessful)
	s.marketplace.On("GetListingAt", mock.Anything, domain.TokenId("42"), mock.Anything).
		Return(&domain.Listing{Active: false}, nil)

	_, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.assertRejected(err, domain.VerifyReasonNotListed)
}

func (s *verifySuite) TestVerifiedPurchaseUsesListingPrice() {
	tx := s.signedTx(s.buyerKey, marketplaceAddr, s.purchaseCalldata(42))
	s.stubLookup(tx, types.ReceiptStatusSuccessful)
	listingPrice := decimal.RequireFromString("2500000")
	seller := domain.Address("0x00000000000000000000000000000000000000AA")
	s.marketplace.On("GetListingAt", mock.Anything, domain.TokenId("42"), mock.Anything).
		Return(&domain.Listing{
			TokenId: "42",
			Seller:  seller,
			Price:   listingPrice,
			Active:  true,
		}, nil)

	details, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.Require().NoError(err)
	s.Equal(domain.TokenId("42"), details.TokenId)
	s.True(details.Price.Equal(listingPrice))
	s.Equal(seller.ToLower(), details.Seller)
	s.Equal(s.buyerAddr.ToLower(), details.Buyer)
	s.Equal(domain.BlockNumber(19000000), details.BlockNumber)
}

func (s *verifySuite) TestSettledPurchaseReadsListingBeforePurchaseBlock() {
	tx := s.signedTx(s.buyerKey, marketplaceAddr, s.purchaseCalldata(42))
	s.stubLookup(tx, types.ReceiptStatusSuccessful)
	listingPrice := decimal.RequireFromString("990000")

	// the sale already cleared the listing at head, only the pre-purchase
	// block still shows it active
	s.marketplace.On("GetListingAt", mock.Anything, domain.TokenId("42"),
		mock.MatchedBy(func(blk *big.Int) bool {
			return blk != nil && blk.Cmp(big.NewInt(18999999)) == 0
		})).Return(&domain.Listing{
		TokenId: "42",
		Seller:  "0x00000000000000000000000000000000000000bb",
		Price:   listingPrice,
		Active:  true,
	}, nil)

	details, err := s.uc.VerifyPurchase(bCtx.Background(), s.txHash, "42", s.buyerAddr)
	s.Require().NoError(err)
	s.True(details.Price.Equal(listingPrice))
	s.marketplace.AssertNotCalled(s.T(), "GetListing", mock.Anything, mock.Anything)
}
