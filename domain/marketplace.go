package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/coinacci/travelmint-api/base/ctx"
)

// Listing is the marketplace contract's authoritative sale offer. It is the
// sole source of truth for purchase price; client-supplied prices are never
// trusted.
type Listing struct {
	TokenId TokenId
	Seller  Address
	Price   decimal.Decimal
	Active  bool
}

// TravelNftContract exposes the read calls of the token contract.
type TravelNftContract interface {
	OwnerOf(c ctx.Ctx, tokenId TokenId) (Address, error)
	TokenURI(c ctx.Ctx, tokenId TokenId) (string, error)
	IsApprovedForAll(c ctx.Ctx, owner, operator Address) (bool, error)
	GetApproved(c ctx.Ctx, tokenId TokenId) (Address, error)
}

// MarketplaceContract exposes the read calls of the marketplace contract.
type MarketplaceContract interface {
	GetListing(c ctx.Ctx, tokenId TokenId) (*Listing, error)
	// GetListingAt reads the listing as of blockNumber; nil means latest.
	GetListingAt(c ctx.Ctx, tokenId TokenId, blockNumber *big.Int) (*Listing, error)
	IsListed(c ctx.Ctx, tokenId TokenId) (bool, error)
	TotalVolume(c ctx.Ctx) (*big.Int, error)
}

// PurchaseDetails is the verified settlement of a purchase. Price comes from
// the authoritative listing read at verification time.
type PurchaseDetails struct {
	TxHash      TxHash          `json:"txHash"`
	TokenId     TokenId         `json:"tokenId"`
	Buyer       Address         `json:"buyer"`
	Seller      Address         `json:"seller"`
	Price       decimal.Decimal `json:"price"`
	BlockNumber BlockNumber     `json:"blockNumber"`
}

type PurchaseUseCase interface {
	// VerifyPurchase re-validates a claimed purchase against on-chain state.
	// The error, when non-nil, is a *VerificationError at the trust boundary
	// or a plain error for infrastructure failures.
	VerifyPurchase(c ctx.Ctx, txHash TxHash, tokenId TokenId, buyer Address) (*PurchaseDetails, error)
}
