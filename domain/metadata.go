package domain

import (
	"github.com/coinacci/travelmint-api/base/ctx"
)

// MetadataUseCase turns a token's content locator into canonical record
// fields. Implementations own the extraction heuristics and the per-token
// override table.
type MetadataUseCase interface {
	// Resolve fetches the document behind tokenUri and normalizes it.
	Resolve(c ctx.Ctx, tokenId TokenId, tokenUri string) (*NormalizedMetadata, error)
	// Parse normalizes an already fetched document.
	Parse(c ctx.Ctx, tokenId TokenId, tokenUri string, raw []byte) (*NormalizedMetadata, error)
}

// NormalizedMetadata mirrors token.Metadata but lives here to avoid an import
// cycle between domain packages.
type NormalizedMetadata struct {
	Name        string
	Description string
	ImageUrl    string
	Category    string
	Location    string
	Latitude    *float64
	Longitude   *float64
	Raw         []byte
}
