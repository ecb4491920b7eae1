package domain

import (
	"github.com/coinacci/travelmint-api/base/ctx"
)

// ScannerUseCase reconciles the store with chain state outside the live
// event path.
type ScannerUseCase interface {
	// ScanRange probes token ids from start to end inclusive and ingests
	// every existing token. An end of zero means open-ended; the probe then
	// stops after a run of consecutive nonexistent tokens. Returns how many
	// tokens were ingested.
	ScanRange(c ctx.Ctx, start, end uint64) (int, error)
	// CatchUp replays missed contract events from the persisted checkpoints
	// up to the current head.
	CatchUp(c ctx.Ctx) error
}
