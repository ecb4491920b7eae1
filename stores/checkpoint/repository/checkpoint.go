package repository

import (
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/database/mongoclient"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
	"github.com/coinacci/travelmint-api/service/query"
)

type checkpointRepo struct {
	m query.Mongo
}

func NewCheckpointRepo(mCon query.Mongo) domain.ScanCheckpointRepo {
	return &checkpointRepo{m: mCon}
}

func (r *checkpointRepo) Get(ctx bCtx.Ctx, id *domain.ScanCheckpointId) (*domain.ScanCheckpoint, error) {
	qry, err := mongoclient.MakeBsonM(id)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("failed to make bson.M")
		return nil, err
	}

	checkpoint := &domain.ScanCheckpoint{}
	if err := r.m.FindOne(ctx, domain.TableScanCheckpoints, qry, checkpoint); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  qry,
		}).Error("failed to FindOne")
		return nil, err
	}
	return checkpoint, nil
}

func (r *checkpointRepo) Update(ctx bCtx.Ctx, checkpoint *domain.ScanCheckpoint) error {
	selector, err := mongoclient.MakeBsonM(checkpoint.ToId())
	if err != nil {
		ctx.WithField("err", err).Error("failed to make bson.M")
		return err
	}
	if err := r.m.Upsert(ctx, domain.TableScanCheckpoints, selector, checkpoint); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  checkpoint.ToId(),
		}).Error("failed to update")
		return err
	}
	return nil
}

func (r *checkpointRepo) Store(ctx bCtx.Ctx, checkpoint *domain.ScanCheckpoint) error {
	if err := r.m.Insert(ctx, domain.TableScanCheckpoints, checkpoint); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"id":  checkpoint.ToId(),
		}).Error("failed to store")
		return err
	}
	return nil
}
