package query

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/database/mongoclient"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
)

const slowLogThreshold = 500 * time.Millisecond

type impl struct {
	client *mongoclient.Client
	// bounds the number of concurrent mongo transactions
	transactionTokens chan struct{}
}

func New(client *mongoclient.Client, maxConcurrentTransactions int) Mongo {
	if maxConcurrentTransactions < 1 {
		maxConcurrentTransactions = 1
	}
	return &impl{
		client:            client,
		transactionTokens: make(chan struct{}, maxConcurrentTransactions),
	}
}

func (im *impl) collection(table domain.Table) *mongo.Collection {
	return im.client.Database(im.client.DbName).Collection(string(table))
}

func (im *impl) Insert(c bCtx.Ctx, table domain.Table, doc interface{}) error {
	defer im.slowLog(c, time.Now(), table, "insert", nil)
	_, err := im.collection(table).InsertOne(c, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	} else if err != nil {
		c.WithFields(log.Fields{
			"table": table,
			"err":   err,
		}).Error("mongo insert failed")
		return err
	}
	return nil
}

func (im *impl) FindOne(c bCtx.Ctx, table domain.Table, selector interface{}, result interface{}) error {
	defer im.slowLog(c, time.Now(), table, "findOne", selector)
	err := im.collection(table).FindOne(c, selector).Decode(result)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo findOne failed")
		return err
	}
	return nil
}

func (im *impl) Count(c bCtx.Ctx, table domain.Table, selector interface{}) (int, error) {
	defer im.slowLog(c, time.Now(), table, "count", selector)
	cnt, err := im.collection(table).CountDocuments(c, selector)
	if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo count failed")
		return 0, err
	}
	return int(cnt), nil
}

func getSortOption(sort string) bson.D {
	sorts := bson.D{}
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		sorts = append(sorts, bson.E{Key: field, Value: order})
	}
	return sorts
}

func (im *impl) Search(c bCtx.Ctx, table domain.Table, offset, limit int, sort string, selector interface{}, result interface{}) error {
	defer im.slowLog(c, time.Now(), table, "search", selector)
	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	if sort != "" {
		opts.SetSort(getSortOption(sort))
	}
	cursor, err := im.collection(table).Find(c, selector, opts)
	if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo find failed")
		return err
	}
	defer cursor.Close(c)
	if err := cursor.All(c, result); err != nil {
		c.WithFields(log.Fields{
			"table": table,
			"err":   err,
		}).Error("mongo cursor decode failed")
		return err
	}
	return nil
}

func (im *impl) Upsert(c bCtx.Ctx, table domain.Table, selector interface{}, doc interface{}) error {
	defer im.slowLog(c, time.Now(), table, "upsert", selector)
	opts := options.Replace().SetUpsert(true)
	_, err := im.collection(table).ReplaceOne(c, selector, doc, opts)
	if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo upsert failed")
		return err
	}
	return nil
}

func (im *impl) Patch(c bCtx.Ctx, table domain.Table, selector interface{}, updater interface{}) error {
	defer im.slowLog(c, time.Now(), table, "patch", selector)
	set, err := mongoclient.MakeBsonM(updater)
	if err != nil {
		c.WithFields(log.Fields{
			"table": table,
			"err":   err,
		}).Error("build patch document failed")
		return err
	}
	if len(set) == 0 {
		return nil
	}
	res, err := im.collection(table).UpdateOne(c, selector, bson.M{"$set": set})
	if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo patch failed")
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) CustomPatch(c bCtx.Ctx, table domain.Table, selector interface{}, updater interface{}, upsert bool) error {
	defer im.slowLog(c, time.Now(), table, "customPatch", selector)
	opts := options.Update().SetUpsert(upsert)
	res, err := im.collection(table).UpdateOne(c, selector, updater, opts)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	} else if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo customPatch failed")
		return err
	}
	if !upsert && res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) Remove(c bCtx.Ctx, table domain.Table, selector interface{}) error {
	defer im.slowLog(c, time.Now(), table, "remove", selector)
	res, err := im.collection(table).DeleteOne(c, selector)
	if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo remove failed")
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) RemoveAll(c bCtx.Ctx, table domain.Table, selector interface{}) error {
	defer im.slowLog(c, time.Now(), table, "removeAll", selector)
	_, err := im.collection(table).DeleteMany(c, selector)
	if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"err":      err,
		}).Error("mongo removeAll failed")
		return err
	}
	return nil
}

func (im *impl) Increment(c bCtx.Ctx, table domain.Table, selector interface{}, result interface{}, field string, incr int) error {
	defer im.slowLog(c, time.Now(), table, "increment", selector)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := im.collection(table).
		FindOneAndUpdate(c, selector, bson.M{"$inc": bson.M{field: incr}}, opts).
		Decode(result)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"table":    table,
			"selector": selector,
			"field":    field,
			"err":      err,
		}).Error("mongo increment failed")
		return err
	}
	return nil
}

func (im *impl) RunWithTransaction(c bCtx.Ctx, fn func(c bCtx.Ctx) (interface{}, error)) (interface{}, error) {
	select {
	case im.transactionTokens <- struct{}{}:
		defer func() { <-im.transactionTokens }()
	case <-c.Done():
		return nil, c.Err()
	}

	session, err := im.client.StartSession()
	if err != nil {
		c.WithField("err", err).Error("start mongo session failed")
		return nil, err
	}
	defer session.EndSession(c)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	return session.WithTransaction(c, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return fn(bCtx.Ctx{Context: sessCtx, Logger: c.Logger})
	}, txnOpts)
}

func (im *impl) slowLog(c bCtx.Ctx, start time.Time, table domain.Table, op string, selector interface{}) {
	elapsed := time.Since(start)
	if elapsed < slowLogThreshold {
		return
	}
	c.WithFields(log.Fields{
		"table":    table,
		"op":       op,
		"selector": selector,
		"elapsed":  elapsed.String(),
	}).Warn("slow mongo query")
}
