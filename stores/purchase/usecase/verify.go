package usecase

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/xerrors"

	gabi "github.com/coinacci/travelmint-api/base/abi"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
)

type PurchaseUseCaseCfg struct {
	Client      domain.EthClientRepo
	Marketplace domain.MarketplaceContract
	ChainId     domain.ChainId
	// MarketplaceAddress is the only destination a verified purchase may
	// have called.
	MarketplaceAddress domain.Address
}

type purchaseUseCase struct {
	client             domain.EthClientRepo
	marketplace        domain.MarketplaceContract
	signer             types.Signer
	marketplaceAddress domain.Address
}

func NewPurchaseUseCase(cfg *PurchaseUseCaseCfg) domain.PurchaseUseCase {
	return &purchaseUseCase{
		client:             cfg.Client,
		marketplace:        cfg.Marketplace,
		signer:             types.LatestSignerForChainID(new(big.Int).SetInt64(int64(cfg.ChainId))),
		marketplaceAddress: cfg.MarketplaceAddress.ToLower(),
	}
}

// VerifyPurchase trusts nothing the caller claims beyond the tx hash used as
// a lookup key. Every check fails closed, and the settlement price comes
// from the marketplace listing alone.
func (u *purchaseUseCase) VerifyPurchase(c bCtx.Ctx, txHash domain.TxHash, tokenId domain.TokenId, buyer domain.Address) (*domain.PurchaseDetails, error) {
	hash := common.HexToHash(string(txHash))

	tx, pending, err := u.client.TransactionByHash(c, hash)
	if err != nil {
		c.WithFields(log.Fields{
			"txHash": txHash,
			"err":    err,
		}).Info("transaction lookup failed")
		return nil, domain.NewVerificationError(domain.VerifyReasonTxNotFound, "transaction %s not found", txHash)
	}
	if pending {
		return nil, domain.NewVerificationError(domain.VerifyReasonTxNotFound, "transaction %s not yet mined", txHash)
	}

	receipt, err := u.client.TransactionReceipt(c, hash)
	if err != nil {
		return nil, domain.NewVerificationError(domain.VerifyReasonTxNotFound, "receipt for %s not found", txHash)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, domain.NewVerificationError(domain.VerifyReasonTxFailed, "transaction %s reverted", txHash)
	}

	to := tx.To()
	if to == nil || !u.marketplaceAddress.Equals(domain.Address(to.String())) {
		dest := "contract creation"
		if to != nil {
			dest = to.String()
		}
		return nil, domain.NewVerificationError(domain.VerifyReasonWrongDestination,
			"transaction sent to %s, expected %s", dest, u.marketplaceAddress)
	}

	calledTokenId, err := u.decodePurchaseTokenId(tx.Data())
	if err != nil {
		return nil, err
	}

	expectedId, err := tokenId.ToBigInt()
	if err != nil {
		return nil, xerrors.Errorf("verify purchase: %w", err)
	}
	if calledTokenId.Cmp(expectedId) != 0 {
		return nil, domain.NewVerificationError(domain.VerifyReasonTokenMismatch,
			"transaction purchases token %s, expected %s", calledTokenId.String(), tokenId)
	}

	sender, err := u.signer.Sender(tx)
	if err != nil {
		return nil, xerrors.Errorf("recover tx sender: %w", err)
	}
	if !buyer.Equals(domain.Address(sender.String())) {
		return nil, domain.NewVerificationError(domain.VerifyReasonBuyerMismatch,
			"transaction sent by %s, expected %s", sender.String(), buyer)
	}

	// a settled purchase clears the listing, so the authoritative price is
	// the listing state just before the purchase block
	preBlock := new(big.Int).Sub(receipt.BlockNumber, big.NewInt(1))
	listing, err := u.marketplace.GetListingAt(c, tokenId, preBlock)
	if err != nil {
		return nil, xerrors.Errorf("read listing: %w", err)
	}
	if !listing.Active {
		return nil, domain.NewVerificationError(domain.VerifyReasonNotListed,
			"token %s was not listed before block %s", tokenId, receipt.BlockNumber)
	}

	return &domain.PurchaseDetails{
		TxHash:      txHash.ToLower(),
		TokenId:     tokenId,
		Buyer:       buyer.ToLower(),
		Seller:      listing.Seller.ToLower(),
		Price:       listing.Price,
		BlockNumber: domain.BlockNumber(receipt.BlockNumber.Uint64()),
	}, nil
}

// decodePurchaseTokenId insists the calldata invokes the purchase function
// and returns its tokenId argument. A different method name goes into the
// rejection so the caller sees what was actually called.
func (u *purchaseUseCase) decodePurchaseTokenId(data []byte) (*big.Int, error) {
	if len(data) < 4 {
		return nil, domain.NewVerificationError(domain.VerifyReasonWrongFunction,
			"transaction carries no function call")
	}

	method, err := gabi.MarketplaceABI.MethodById(data[:4])
	if err != nil {
		return nil, domain.NewVerificationError(domain.VerifyReasonWrongFunction,
			"unrecognized function selector 0x%x", data[:4])
	}
	if method.Name != gabi.PurchaseMethod {
		return nil, domain.NewVerificationError(domain.VerifyReasonWrongFunction,
			"transaction calls %s, expected %s", method.Name, gabi.PurchaseMethod)
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil || len(args) != 1 {
		return nil, domain.NewVerificationError(domain.VerifyReasonWrongFunction,
			"malformed %s calldata", gabi.PurchaseMethod)
	}
	tokenId, ok := args[0].(*big.Int)
	if !ok {
		return nil, domain.NewVerificationError(domain.VerifyReasonWrongFunction,
			"malformed %s calldata", gabi.PurchaseMethod)
	}
	return tokenId, nil
}
