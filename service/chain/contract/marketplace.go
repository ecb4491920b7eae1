package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	baseabi "github.com/coinacci/travelmint-api/base/abi"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/service/chain"
)

type Marketplace struct {
	chainService chain.Client
	chainId      domain.ChainId
	address      common.Address
	abi          ethabi.ABI
}

func NewMarketplace(chainService chain.Client, chainId domain.ChainId, address domain.Address) *Marketplace {
	return &Marketplace{
		chainService: chainService,
		chainId:      chainId,
		address:      common.HexToAddress(string(address)),
		abi:          baseabi.MarketplaceABI,
	}
}

func (m *Marketplace) GetListing(c bCtx.Ctx, tokenId domain.TokenId) (*domain.Listing, error) {
	return m.GetListingAt(c, tokenId, nil)
}

// GetListingAt reads the listing as of blockNumber; nil means latest.
func (m *Marketplace) GetListingAt(c bCtx.Ctx, tokenId domain.TokenId, blockNumber *big.Int) (*domain.Listing, error) {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return nil, err
	}
	unpacked, err := m.chainService.Call(c, m.chainId, m.address, blockNumber, m.abi, "getListing", id)
	if err != nil {
		return nil, err
	}
	return &domain.Listing{
		TokenId: tokenId,
		Seller:  domain.Address(unpacked[0].(common.Address).String()).ToLower(),
		Price:   decimal.NewFromBigInt(unpacked[1].(*big.Int), 0),
		Active:  unpacked[2].(bool),
	}, nil
}

func (m *Marketplace) IsListed(c bCtx.Ctx, tokenId domain.TokenId) (bool, error) {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return false, err
	}
	unpacked, err := m.chainService.Call(c, m.chainId, m.address, nil, m.abi, "isListed", id)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (m *Marketplace) TotalVolume(c bCtx.Ctx) (*big.Int, error) {
	unpacked, err := m.chainService.Call(c, m.chainId, m.address, nil, m.abi, "totalVolume")
	if err != nil {
		return nil, err
	}
	return unpacked[0].(*big.Int), nil
}
