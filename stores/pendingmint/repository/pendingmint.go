package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/database/mongoclient"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/domain/pendingmint"
	"github.com/coinacci/travelmint-api/service/query"
)

type pendingMintRepo struct {
	m query.Mongo
}

func NewPendingMintRepo(mCon query.Mongo) pendingmint.Repo {
	return &pendingMintRepo{m: mCon}
}

func (r *pendingMintRepo) Store(ctx bCtx.Ctx, p *pendingmint.PendingMint) error {
	selector, err := mongoclient.MakeBsonM(p.ToId())
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	// only the first writer creates the row, replays keep the original
	// retry bookkeeping
	updater := bson.M{"$setOnInsert": p}
	if err := r.m.CustomPatch(ctx, domain.TablePendingMints, selector, updater, true); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  p.ToId(),
		}).Error("failed to store pending mint")
		return err
	}
	return nil
}

func (r *pendingMintRepo) FindBatch(ctx bCtx.Ctx, limit int32) ([]*pendingmint.PendingMint, error) {
	res := []*pendingmint.PendingMint{}
	if err := r.m.Search(ctx, domain.TablePendingMints, 0, int(limit), "lastAttemptAt", bson.M{}, &res); err != nil {
		ctx.WithField("err", err).Error("failed to search pending mints")
		return nil, err
	}
	return res, nil
}

func (r *pendingMintRepo) Delete(ctx bCtx.Ctx, id *pendingmint.Id) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	if err := r.m.Remove(ctx, domain.TablePendingMints, selector); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to delete pending mint")
		return err
	}
	return nil
}

func (r *pendingMintRepo) MarkAttempt(ctx bCtx.Ctx, id *pendingmint.Id, lastError string, at time.Time) error {
	selector, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	updater := bson.M{
		"$inc": bson.M{"retryCount": 1},
		"$set": bson.M{
			"lastError":     lastError,
			"lastAttemptAt": at,
		},
	}
	if err := r.m.CustomPatch(ctx, domain.TablePendingMints, selector, updater, false); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to mark attempt")
		return err
	}
	return nil
}

func (r *pendingMintRepo) Count(ctx bCtx.Ctx) (int, error) {
	return r.m.Count(ctx, domain.TablePendingMints, bson.M{})
}
