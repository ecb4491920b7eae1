package usecase

import (
	"strconv"

	"golang.org/x/xerrors"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/token"
)

const (
	defaultProbeStopAfter = 15
	defaultProbeStart     = 1

	// a probe that cannot reach the chain at all aborts instead of spinning
	maxConsecutiveProbeFailures = 10
)

// Rescanner replays missed events from a persisted checkpoint.
type Rescanner interface {
	CatchUp(c bCtx.Ctx) error
}

type ScannerUseCaseCfg struct {
	NftContract  domain.TravelNftContract
	TokenUseCase token.UseCase
	Rescanners   []Rescanner
	// ProbeStopAfter is the run of consecutive nonexistent tokens that ends
	// a scan. Zero means the default.
	ProbeStopAfter int
	// ProbeStart is the first token id probed when a caller passes start=0.
	ProbeStart uint64
}

type scannerUseCase struct {
	nftContract    domain.TravelNftContract
	tokenUseCase   token.UseCase
	rescanners     []Rescanner
	probeStopAfter int
	probeStart     uint64
}

func NewScannerUseCase(cfg *ScannerUseCaseCfg) domain.ScannerUseCase {
	stopAfter := cfg.ProbeStopAfter
	if stopAfter <= 0 {
		stopAfter = defaultProbeStopAfter
	}
	start := cfg.ProbeStart
	if start == 0 {
		start = defaultProbeStart
	}
	return &scannerUseCase{
		nftContract:    cfg.NftContract,
		tokenUseCase:   cfg.TokenUseCase,
		rescanners:     cfg.Rescanners,
		probeStopAfter: stopAfter,
		probeStart:     start,
	}
}

// ScanRange walks token ids and ingests every token the contract knows. Only
// a definitive nonexistent-token answer counts toward the stop run; rate
// limits and transient failures leave the run intact so a flaky RPC cannot
// end the scan early.
func (u *scannerUseCase) ScanRange(c bCtx.Ctx, start, end uint64) (int, error) {
	if start == 0 {
		start = u.probeStart
	}
	if end != 0 && end < start {
		return 0, xerrors.Errorf("invalid scan range [%d, %d]", start, end)
	}

	found := 0
	notFoundRun := 0
	failureRun := 0
	for id := start; end == 0 || id <= end; id++ {
		tokenId := domain.TokenId(strconv.FormatUint(id, 10))
		_, err := u.nftContract.OwnerOf(c, tokenId)
		switch {
		case err == nil:
			notFoundRun = 0
			failureRun = 0
			if _, rerr := u.tokenUseCase.ResolveAndUpsert(c, tokenId); rerr != nil {
				c.WithFields(log.Fields{
					"tokenId": tokenId,
					"err":     rerr,
				}).Warn("scan resolution failed, token left for next pass")
				continue
			}
			found++

		case xerrors.Is(err, domain.ErrTokenNotFound):
			failureRun = 0
			notFoundRun++
			if notFoundRun >= u.probeStopAfter {
				c.WithFields(log.Fields{
					"lastProbed":  id,
					"notFoundRun": notFoundRun,
				}).Info("probe stop threshold reached")
				return found, nil
			}

		default:
			// rate limits and transient failures never count toward the
			// not-found run
			failureRun++
			c.WithFields(log.Fields{
				"tokenId":    tokenId,
				"failureRun": failureRun,
				"err":        err,
			}).Warn("probe failed")
			if failureRun >= maxConsecutiveProbeFailures {
				return found, xerrors.Errorf("scan aborted at token %s: %w", tokenId, err)
			}
		}
	}
	return found, nil
}

func (u *scannerUseCase) CatchUp(c bCtx.Ctx) error {
	for _, r := range u.rescanners {
		if err := r.CatchUp(c); err != nil {
			return err
		}
	}
	return nil
}
