package domain

import (
	"time"

	"github.com/coinacci/travelmint-api/base/ctx"
)

// WebResourceReaderRepository fetches the content behind a single resolved
// URL. The timeout argument bounds this one attempt only; candidate iteration
// is the usecase's job.
type WebResourceReaderRepository interface {
	Get(c ctx.Ctx, url string, timeout time.Duration) ([]byte, error)
}

type WebResourceUseCase interface {
	// Get resolves a content locator of unknown scheme (ipfs, ar, data,
	// http(s)) through the configured candidate list.
	Get(ctx.Ctx, string) ([]byte, error)
	// GetJson is Get plus JSON validation; ErrInvalidJsonFormat on garbage.
	GetJson(ctx.Ctx, string) ([]byte, error)
}
