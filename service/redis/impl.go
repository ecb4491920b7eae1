package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/coinacci/travelmint-api/base/ctx"
)

const (
	// retTTLNoKey is the return value of TTL when the key does not exist
	retTTLNoKey = -2

	// retTTLNoExpire is the return value of TTL when the key exists but has
	// no associated expire
	retTTLNoExpire = -1
)

var (
	ErrNotFound = errors.New("redis key not found")
)

type Service interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error
	Del(c ctx.Ctx, key string) (int64, error)
	Exists(c ctx.Ctx, key string) (bool, error)
	Incrby(c ctx.Ctx, key string, diff int) (int64, error)
	TTL(c ctx.Ctx, key string) (int64, error)
}

type redImpl struct {
	name string
	pool *redis.Pool
}

// New redis service backed by a single pool
func New(name string, pool *redis.Pool) Service {
	return &redImpl{
		name: name,
		pool: pool,
	}
}

// NewPool builds a redigo pool with the usual dial/test settings
func NewPool(uri string, maxIdle, maxActive int) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     maxIdle,
		MaxActive:   maxActive,
		IdleTimeout: 240 * time.Second,
		Wait:        true,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(uri)
		},
		TestOnBorrow: func(conn redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := conn.Do("PING")
			return err
		},
	}
}

func (r *redImpl) connDo(c ctx.Ctx, commandName string, args ...interface{}) (interface{}, error) {
	conn := r.pool.Get()
	if err := conn.Err(); err != nil {
		return nil, err
	}

	reply, err := conn.Do(commandName, args...)

	// closing conn asap improves redigo's performance under load
	if cerr := conn.Close(); cerr != nil {
		c.WithField("err", cerr).Warn("redis conn close failed")
	}
	return reply, err
}

func (r *redImpl) Get(c ctx.Ctx, key string) ([]byte, error) {
	val, err := redis.Bytes(r.connDo(c, "GET", key))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *redImpl) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	var err error
	if ttl > 0 {
		_, err = r.connDo(c, "SET", key, value, "PX", int64(ttl/time.Millisecond))
	} else {
		_, err = r.connDo(c, "SET", key, value)
	}
	return err
}

func (r *redImpl) Del(c ctx.Ctx, key string) (int64, error) {
	return redis.Int64(r.connDo(c, "DEL", key))
}

func (r *redImpl) Exists(c ctx.Ctx, key string) (bool, error) {
	res, err := redis.Int(r.connDo(c, "EXISTS", key))
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (r *redImpl) Incrby(c ctx.Ctx, key string, diff int) (int64, error) {
	return redis.Int64(r.connDo(c, "INCRBY", key, diff))
}

func (r *redImpl) TTL(c ctx.Ctx, key string) (int64, error) {
	ttl, err := redis.Int64(r.connDo(c, "TTL", key))
	if err != nil {
		return 0, err
	}
	if ttl == retTTLNoKey {
		return 0, ErrNotFound
	}
	if ttl == retTTLNoExpire {
		return 0, nil
	}
	return ttl, nil
}
