package domain

import "time"

// LogMeta carries the chain coordinates of the log an event was decoded
// from. Handlers use it to stamp records with the mint transaction and
// block time without re-fetching the receipt.
type LogMeta struct {
	BlockNumber     BlockNumber
	BlockTime       time.Time
	TxHash          TxHash
	TxIndex         uint
	LogIndex        uint
	ContractAddress Address
	MsgSender       Address
}
