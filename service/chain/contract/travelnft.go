package contract

import (
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	baseabi "github.com/coinacci/travelmint-api/base/abi"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/service/chain"
)

type TravelNft struct {
	chainService chain.Client
	chainId      domain.ChainId
	address      common.Address
	abi          ethabi.ABI
}

func NewTravelNft(chainService chain.Client, chainId domain.ChainId, address domain.Address) *TravelNft {
	return &TravelNft{
		chainService: chainService,
		chainId:      chainId,
		address:      common.HexToAddress(string(address)),
		abi:          baseabi.TravelNftABI,
	}
}

func (t *TravelNft) OwnerOf(c bCtx.Ctx, tokenId domain.TokenId) (domain.Address, error) {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return "", err
	}
	unpacked, err := t.chainService.Call(c, t.chainId, t.address, nil, t.abi, "ownerOf", id)
	if err != nil {
		if chain.IsNonexistentToken(err) {
			return "", domain.ErrTokenNotFound
		}
		return "", err
	}
	return domain.Address(unpacked[0].(common.Address).String()).ToLower(), nil
}

func (t *TravelNft) TokenURI(c bCtx.Ctx, tokenId domain.TokenId) (string, error) {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return "", err
	}
	unpacked, err := t.chainService.Call(c, t.chainId, t.address, nil, t.abi, "tokenURI", id)
	if err != nil {
		if chain.IsNonexistentToken(err) {
			return "", domain.ErrTokenNotFound
		}
		return "", err
	}
	return unpacked[0].(string), nil
}

func (t *TravelNft) IsApprovedForAll(c bCtx.Ctx, owner, operator domain.Address) (bool, error) {
	unpacked, err := t.chainService.Call(c, t.chainId, t.address, nil, t.abi, "isApprovedForAll",
		common.HexToAddress(string(owner)), common.HexToAddress(string(operator)))
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (t *TravelNft) GetApproved(c bCtx.Ctx, tokenId domain.TokenId) (domain.Address, error) {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return "", err
	}
	unpacked, err := t.chainService.Call(c, t.chainId, t.address, nil, t.abi, "getApproved", id)
	if err != nil {
		if chain.IsNonexistentToken(err) {
			return "", domain.ErrTokenNotFound
		}
		return "", err
	}
	return domain.Address(unpacked[0].(common.Address).String()).ToLower(), nil
}
