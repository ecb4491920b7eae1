package query

import (
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
	"golang.org/x/xerrors"
)

var (
	ErrNotFound     = xerrors.New("record not found")
	ErrDuplicateKey = xerrors.New("duplicate key")
	ErrCollScan     = xerrors.New("query results in collection scan")
)

// Mongo is the facade for mongodb operations. Callers address collections by
// domain.Table and never touch the driver directly.
type Mongo interface {
	Insert(c bCtx.Ctx, table domain.Table, doc interface{}) error
	FindOne(c bCtx.Ctx, table domain.Table, selector interface{}, result interface{}) error
	Count(c bCtx.Ctx, table domain.Table, selector interface{}) (int, error)
	// Search sorts by the given field names, prefix "-" for descending
	Search(c bCtx.Ctx, table domain.Table, offset, limit int, sort string, selector interface{}, result interface{}) error
	// Upsert replaces the document matched by selector, inserting when absent
	Upsert(c bCtx.Ctx, table domain.Table, selector interface{}, doc interface{}) error
	// Patch applies a $set of the non-nil fields of updater to the matched document
	Patch(c bCtx.Ctx, table domain.Table, selector interface{}, updater interface{}) error
	// CustomPatch applies a caller-built update document, e.g. with $inc or $setOnInsert
	CustomPatch(c bCtx.Ctx, table domain.Table, selector interface{}, updater interface{}, upsert bool) error
	Remove(c bCtx.Ctx, table domain.Table, selector interface{}) error
	RemoveAll(c bCtx.Ctx, table domain.Table, selector interface{}) error
	Increment(c bCtx.Ctx, table domain.Table, selector interface{}, result interface{}, field string, incr int) error
	RunWithTransaction(c bCtx.Ctx, fn func(c bCtx.Ctx) (interface{}, error)) (interface{}, error)
}
