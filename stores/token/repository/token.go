package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/database/mongoclient"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/token"
	"github.com/coinacci/travelmint-api/service/query"
)

type tokenRepo struct {
	m query.Mongo
}

func NewTokenRepo(mCon query.Mongo) token.Repo {
	return &tokenRepo{m: mCon}
}

func (r *tokenRepo) FindOne(ctx bCtx.Ctx, id *token.Id) (*token.Token, error) {
	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to make bson.M")
		return nil, err
	}

	res := &token.Token{}
	if err := r.m.FindOne(ctx, domain.TableTokens, qry, res); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to FindOne")
		return nil, err
	}
	return res, nil
}

func makeFindQuery(opts ...token.FindAllOptionsFunc) (bson.M, string, int, int, error) {
	options, err := token.GetFindAllOptions(opts...)
	if err != nil {
		return nil, "", 0, 0, err
	}

	qry := bson.M{}
	if options.Owner != nil {
		qry["owner"] = *options.Owner
	}
	if options.IsForSale != nil {
		qry["isForSale"] = *options.IsForSale
	}

	sort := ""
	if options.SortBy != "" {
		sort = options.SortBy
		if options.SortDir == domain.SortDirDesc {
			sort = "-" + sort
		}
	}

	limit := int(options.Limit)
	if limit == 0 {
		limit = 100
	}
	return qry, sort, int(options.Offset), limit, nil
}

func (r *tokenRepo) FindAll(ctx bCtx.Ctx, opts ...token.FindAllOptionsFunc) ([]*token.Token, error) {
	qry, sort, offset, limit, err := makeFindQuery(opts...)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make find query")
		return nil, err
	}

	res := []*token.Token{}
	if err := r.m.Search(ctx, domain.TableTokens, offset, limit, sort, qry, &res); err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": qry,
		}).Error("failed to search tokens")
		return nil, err
	}
	return res, nil
}

func (r *tokenRepo) Count(ctx bCtx.Ctx, opts ...token.FindAllOptionsFunc) (int, error) {
	qry, _, _, _, err := makeFindQuery(opts...)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make find query")
		return 0, err
	}
	return r.m.Count(ctx, domain.TableTokens, qry)
}

func (r *tokenRepo) Upsert(ctx bCtx.Ctx, id *token.Id, patchable *token.Patchable) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	set, err := mongoclient.MakeBsonM(patchable)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	set["updatedAt"] = time.Now()

	// identity fields and createdAt are written once; the atomic upsert keeps
	// concurrent writers from creating duplicate records for one token
	updater := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"chainId":         id.ChainId,
			"contractAddress": id.ContractAddress,
			"tokenID":         id.TokenId,
			"createdAt":       time.Now(),
		},
	}
	if err := r.m.CustomPatch(ctx, domain.TableTokens, selector, updater, true); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to upsert token")
		return err
	}
	return nil
}

func (r *tokenRepo) Patch(ctx bCtx.Ctx, id *token.Id, patchable *token.Patchable) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	if err := r.m.Patch(ctx, domain.TableTokens, selector, patchable); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to patch token")
		return err
	}
	return nil
}

func (r *tokenRepo) RecordQuestCompletion(ctx bCtx.Ctx, id *token.Id, questAt time.Time, streakDay int32) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	updater := bson.M{
		"$inc": bson.M{"questCompletions": 1},
		"$set": bson.M{
			"lastQuestAt": questAt,
			"streakDay":   streakDay,
			"updatedAt":   time.Now(),
		},
	}
	if err := r.m.CustomPatch(ctx, domain.TableTokens, selector, updater, false); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to record quest completion")
		return err
	}
	return nil
}
