package abi

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var QuestABI abi.ABI

var questABI = `[{"type":"event","anonymous":false,"name":"QuestCompleted","inputs":[{"type":"address","name":"user","indexed":true},{"type":"uint256","name":"questId","indexed":true},{"type":"uint256","name":"fee"},{"type":"uint256","name":"timestamp"},{"type":"uint256","name":"day"}]}]`

func init() {
	_abi, err := abi.JSON(strings.NewReader(questABI))
	if err != nil {
		panic("Failed to parse quest abi")
	}
	QuestABI = _abi
}

type QuestCompletedLog struct {
	User      common.Address // indexed
	QuestId   *big.Int       // indexed
	Fee       *big.Int
	Timestamp *big.Int
	Day       *big.Int
}

func ToQuestCompletedLog(log *types.Log) (*QuestCompletedLog, error) {
	var completed QuestCompletedLog
	if err := QuestABI.UnpackIntoInterface(&completed, "QuestCompleted", log.Data); err != nil {
		return nil, err
	}
	completed.User = common.BytesToAddress(log.Topics[1].Bytes())
	completed.QuestId = new(big.Int).SetBytes(log.Topics[2].Bytes())
	return &completed, nil
}
