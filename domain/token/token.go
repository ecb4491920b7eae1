package token

import (
	"encoding/json"
	"time"

	"github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
)

type Id struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
}

// Token is the canonical record of one minted token. tokenID plus
// contractAddress identify it uniquely; upserts by id are idempotent.
type Token struct {
	ChainId         domain.ChainId `json:"chainId" bson:"chainId"`
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
	TokenUri        string         `json:"tokenUri" bson:"tokenURI"`
	Owner           domain.Address `json:"owner" bson:"owner"`
	Creator         domain.Address `json:"creator" bson:"creator"`

	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	ImageUrl    string   `json:"imageUrl" bson:"imageURL"`
	Category    string   `json:"category" bson:"category"`
	Location    string   `json:"location" bson:"location"`
	Latitude    *float64 `json:"latitude" bson:"latitude"`
	Longitude   *float64 `json:"longitude" bson:"longitude"`

	IsForSale bool   `json:"isForSale" bson:"isForSale"`
	Price     string `json:"price" bson:"price"`

	// RawMetadata is the last successfully parsed metadata, kept for audit.
	RawMetadata json.RawMessage `json:"-" bson:"rawMetadata"`

	QuestCompletions int32      `json:"questCompletions" bson:"questCompletions"`
	LastQuestAt      *time.Time `json:"lastQuestAt,omitempty" bson:"lastQuestAt"`
	StreakDay        int32      `json:"streakDay" bson:"streakDay"`

	MintTxHash  domain.TxHash      `json:"mintTxHash" bson:"mintTxHash"`
	BlockNumber domain.BlockNumber `json:"blockNumber" bson:"blockNumber"`
	CreatedAt   time.Time          `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt,omitempty" bson:"updatedAt"`
}

func (t *Token) ToId() *Id {
	return &Id{
		ChainId:         t.ChainId,
		ContractAddress: t.ContractAddress,
		TokenId:         t.TokenId,
	}
}

// Patchable carries the fields a writer wants to change. Nil means "leave
// untouched". Every writer is filtered through Merge before reaching the
// store.
type Patchable struct {
	TokenUri    *string         `bson:"tokenURI,omitempty"`
	Owner       *domain.Address `bson:"owner,omitempty"`
	Creator     *domain.Address `bson:"creator,omitempty"`
	Name        *string         `bson:"name,omitempty"`
	Description *string         `bson:"description,omitempty"`
	ImageUrl    *string         `bson:"imageURL,omitempty"`
	Category    *string         `bson:"category,omitempty"`
	Location    *string         `bson:"location,omitempty"`
	Latitude    *float64        `bson:"latitude,omitempty"`
	Longitude   *float64        `bson:"longitude,omitempty"`
	IsForSale   *bool           `bson:"isForSale,omitempty"`
	Price       *string         `bson:"price,omitempty"`
	RawMetadata json.RawMessage `bson:"rawMetadata,omitempty"`

	QuestCompletions *int32     `bson:"questCompletions,omitempty"`
	LastQuestAt      *time.Time `bson:"lastQuestAt,omitempty"`
	StreakDay        *int32     `bson:"streakDay,omitempty"`

	MintTxHash  *domain.TxHash      `bson:"mintTxHash,omitempty"`
	BlockNumber *domain.BlockNumber `bson:"blockNumber,omitempty"`
	UpdatedAt   *time.Time          `bson:"updatedAt,omitempty"`
}

type findAllOptions struct {
	Owner     *domain.Address
	IsForSale *bool
	SortBy    string
	SortDir   domain.SortDir
	Offset    int32
	Limit     int32
}

type FindAllOptionsFunc func(*findAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (findAllOptions, error) {
	res := findAllOptions{SortDir: domain.SortDirAsc}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// OptionsToKey renders the resolved find options as a stable string for
// cache keying.
func OptionsToKey(opts ...FindAllOptionsFunc) (string, error) {
	res, err := GetFindAllOptions(opts...)
	if err != nil {
		return "", err
	}
	key, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(key), nil
}

func WithOwner(owner domain.Address) FindAllOptionsFunc {
	return func(o *findAllOptions) error {
		owner := owner.ToLower()
		o.Owner = &owner
		return nil
	}
}

func WithIsForSale(forSale bool) FindAllOptionsFunc {
	return func(o *findAllOptions) error {
		o.IsForSale = &forSale
		return nil
	}
}

func WithSort(sortBy string, dir domain.SortDir) FindAllOptionsFunc {
	return func(o *findAllOptions) error {
		o.SortBy = sortBy
		o.SortDir = dir
		return nil
	}
}

func WithPagination(offset, limit int32) FindAllOptionsFunc {
	return func(o *findAllOptions) error {
		o.Offset = offset
		o.Limit = limit
		return nil
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, id *Id) (*Token, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Token, error)
	Count(c ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	// Upsert creates or replaces fields of the record identified by id using
	// a store-level atomic upsert; safe under concurrent callers.
	Upsert(c ctx.Ctx, id *Id, patchable *Patchable) error
	Patch(c ctx.Ctx, id *Id, patchable *Patchable) error
	// RecordQuestCompletion bumps questCompletions with a store-level $inc
	// and stamps the quest fields in the same update, so concurrent events
	// never lose a count.
	RecordQuestCompletion(c ctx.Ctx, id *Id, questAt time.Time, streakDay int32) error
}

type UseCase interface {
	FindOne(c ctx.Ctx, id *Id) (*Token, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Token, error)
	Count(c ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)

	// ResolveAndUpsert fetches the token's locator from chain, resolves and
	// normalizes its metadata and commits the canonical record. Idempotent.
	ResolveAndUpsert(c ctx.Ctx, tokenId domain.TokenId) (*Token, error)

	// ResolveMint is ResolveAndUpsert carrying mint provenance, so a replay
	// of a parked mint still stamps creator, mint tx and block number.
	ResolveMint(c ctx.Ctx, tokenId domain.TokenId, owner domain.Address, meta *domain.LogMeta) (*Token, error)

	// HandleMint drives the per-event retry state machine for one observed
	// mint; exhausted retries become a durable pending mint, never a drop.
	HandleMint(c ctx.Ctx, tokenId domain.TokenId, to domain.Address, meta *domain.LogMeta) error

	// HandleTransfer moves ownership of an already ingested token. Unknown
	// tokens fall back to the mint path so reorg-delivered events still land.
	HandleTransfer(c ctx.Ctx, tokenId domain.TokenId, from, to domain.Address, meta *domain.LogMeta) error

	// HandleQuest applies a quest completion to the owner's records. Quest
	// ids other than the supported one are rejected up front.
	HandleQuest(c ctx.Ctx, evt *domain.QuestCompletedEvent, meta *domain.LogMeta) error

	// RefreshListing re-reads the marketplace listing and patches the sale
	// flag and price through the merge rule.
	RefreshListing(c ctx.Ctx, tokenId domain.TokenId) error
}
