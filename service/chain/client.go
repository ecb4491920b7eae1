package chain

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/xerrors"

	"github.com/coinacci/travelmint-api/base/backoff"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/log"
	"github.com/coinacci/travelmint-api/domain"
)

var ErrUnsupportedChain = errors.New("unsupported chain")

const (
	callAttempts = 3
	// delay between retries for plain transport failures
	flatRetryDelay = 200 * time.Millisecond
)

// rate limited backoff schedule, grows by half a second per retry
const (
	rateLimitBackoffStart = time.Second
	rateLimitBackoffStep  = 500 * time.Millisecond
	rateLimitBackoffLimit = 2 * time.Second
)

type ClientCfg struct {
	RpcUrls map[domain.ChainId]string
}

type Client interface {
	Call(bCtx.Ctx, domain.ChainId, common.Address, *big.Int, abi.ABI, string, ...interface{}) ([]interface{}, error)
}

type clientImpl struct {
	clients map[domain.ChainId]*ethclient.Client
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	var anyerr error
	clients := make(map[domain.ChainId]*ethclient.Client)
	for chainId, url := range cfg.RpcUrls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			anyerr = err
			ctx.WithFields(log.Fields{
				"err":     err,
				"chainId": chainId,
				"url":     url,
			}).Warn("failed to dial rpc")
			// soft warning, still let the server start
			continue
		}
		clients[chainId] = client
	}
	return &clientImpl{clients: clients}, anyerr
}

// IsRateLimited reports whether err looks like an rpc provider rate limit
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if xerrors.Is(err, domain.ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// IsNonexistentToken matches the revert reasons erc721 implementations use
// for queries on unminted or burned ids.
func IsNonexistentToken(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonexistent token") ||
		strings.Contains(msg, "invalid token id") ||
		strings.Contains(msg, "owner query for nonexistent")
}

// isTerminalRevert reports whether err is a deterministic contract revert
// that no amount of retrying can change.
func isTerminalRevert(err error) bool {
	if err == nil {
		return false
	}
	if IsNonexistentToken(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId domain.ChainId, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	client, ok := c.clients[chainId]
	if !ok {
		return nil, ErrUnsupportedChain
	}

	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}

	var res []byte
	bf := backoff.NewIncrement(rateLimitBackoffStart, rateLimitBackoffStep, rateLimitBackoffLimit)
	for attempt := 0; ; attempt++ {
		res, err = client.CallContract(ctx, msg, blk)
		if err == nil {
			break
		}
		if isTerminalRevert(err) {
			ctx.WithFields(log.Fields{
				"method": method,
				"err":    err,
			}).Debug("call reverted")
			return nil, err
		}
		if attempt >= callAttempts-1 {
			ctx.WithFields(log.Fields{
				"method":   method,
				"attempts": callAttempts,
				"err":      err,
			}).Error("client.CallContract failed")
			if IsRateLimited(err) {
				return nil, xerrors.Errorf("call %s: %w", method, domain.ErrRateLimited)
			}
			return nil, err
		}
		if IsRateLimited(err) {
			if serr := bf.Backoff(ctx); serr != nil {
				return nil, serr
			}
		} else {
			select {
			case <-time.After(flatRetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithField("err", err).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}
