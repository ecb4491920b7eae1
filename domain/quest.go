package domain

import "math/big"

// SupportedQuestId is the only quest currently processed; events carrying any
// other quest id are rejected before entering the retry loop.
const SupportedQuestId = 1

type QuestCompletedEvent struct {
	User      Address
	QuestId   *big.Int
	Fee       *big.Int
	Timestamp *big.Int
	Day       *big.Int
}
