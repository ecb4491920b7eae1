package chain

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	baseabi "github.com/coinacci/travelmint-api/base/abi"
	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
)

func Test_IsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{xerrors.Errorf("call: %w", domain.ErrRateLimited), true},
		{xerrors.New("429 Too Many Requests"), true},
		{xerrors.New("rate limit exceeded"), true},
		{xerrors.New("connection refused"), false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IsRateLimited(tt.err), "%v", tt.err)
	}
}

func Test_IsNonexistentToken(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{xerrors.New("execution reverted: ERC721: owner query for nonexistent token"), true},
		{xerrors.New("execution reverted: ERC721: invalid token ID"), true},
		{xerrors.New("execution reverted: URI query for nonexistent token"), true},
		{xerrors.New("execution reverted: not owner"), false},
		{xerrors.New("connection refused"), false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IsNonexistentToken(tt.err), "%v", tt.err)
	}
}

func Test_isTerminalRevert(t *testing.T) {
	require.True(t, isTerminalRevert(xerrors.New("execution reverted: paused")))
	require.True(t, isTerminalRevert(xerrors.New("execution reverted: ERC721: invalid token ID")))
	require.False(t, isTerminalRevert(xerrors.New("502 bad gateway")))
	require.False(t, isTerminalRevert(nil))
}

// rpcStub answers every eth_call with the configured json-rpc error and
// counts how many calls it served.
func rpcStub(t *testing.T, calls *int32, respond func(id json.RawMessage) []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Id json.RawMessage `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(respond(req.Id))
	}))
}

func Test_Call_revertSurfacesOnFirstAttempt(t *testing.T) {
	var calls int32
	srv := rpcStub(t, &calls, func(id json.RawMessage) []byte {
		return []byte(`{"jsonrpc":"2.0","id":` + string(id) +
			`,"error":{"code":3,"message":"execution reverted: ERC721: invalid token ID"}}`)
	})
	defer srv.Close()

	ctx := bCtx.Background()
	client, err := NewClient(ctx, &ClientCfg{RpcUrls: map[domain.ChainId]string{8453: srv.URL}})
	require.NoError(t, err)

	_, err = client.Call(ctx, 8453, common.Address{}, nil, baseabi.TravelNftABI, "ownerOf", big.NewInt(1))
	require.Error(t, err)
	require.True(t, IsNonexistentToken(err))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func Test_Call_transientFailureIsRetried(t *testing.T) {
	var calls int32
	srv := rpcStub(t, &calls, func(id json.RawMessage) []byte {
		return []byte(`{"jsonrpc":"2.0","id":` + string(id) +
			`,"error":{"code":-32000,"message":"upstream timeout"}}`)
	})
	defer srv.Close()

	ctx := bCtx.Background()
	client, err := NewClient(ctx, &ClientCfg{RpcUrls: map[domain.ChainId]string{8453: srv.URL}})
	require.NoError(t, err)

	_, err = client.Call(ctx, 8453, common.Address{}, nil, baseabi.TravelNftABI, "ownerOf", big.NewInt(1))
	require.Error(t, err)
	require.EqualValues(t, callAttempts, atomic.LoadInt32(&calls))
}
