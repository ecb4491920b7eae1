package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var MarketplaceABI abi.ABI

// PurchaseMethod is the only marketplace function a verified purchase may
// decode to.
const PurchaseMethod = "purchaseNFT"

var marketplaceABI = `[{"type":"function","name":"getListing","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"uint256","name":"tokenId"}],"outputs":[{"type":"address","name":"seller"},{"type":"uint256","name":"price"},{"type":"bool","name":"active"}]},{"type":"function","name":"isListed","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"uint256","name":"tokenId"}],"outputs":[{"type":"bool"}]},{"type":"function","name":"totalVolume","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint256"}]},{"type":"function","name":"purchaseNFT","constant":false,"stateMutability":"payable","payable":true,"inputs":[{"type":"uint256","name":"tokenId"}],"outputs":[]},{"type":"function","name":"listNFT","constant":false,"stateMutability":"nonpayable","payable":false,"inputs":[{"type":"uint256","name":"tokenId"},{"type":"uint256","name":"price"}],"outputs":[]},{"type":"function","name":"unlistNFT","constant":false,"stateMutability":"nonpayable","payable":false,"inputs":[{"type":"uint256","name":"tokenId"}],"outputs":[]}]`

func init() {
	_abi, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		panic("Failed to parse marketplace abi")
	}
	MarketplaceABI = _abi
}
