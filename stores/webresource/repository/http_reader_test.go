package repository

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
)

func Test_httpReader_Get(t *testing.T) {
	c := ctx.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"name":"Sunset"}`))
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/unavailable":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	reader := NewHttpReaderRepo(http.Client{}, nil)

	t.Run("ok", func(t *testing.T) {
		body, err := reader.Get(c, srv.URL+"/ok", time.Second)
		require.NoError(t, err)
		require.Equal(t, `{"name":"Sunset"}`, string(body))
	})

	t.Run("rate limited maps to sentinel", func(t *testing.T) {
		_, err := reader.Get(c, srv.URL+"/limited", time.Second)
		require.Error(t, err)
		require.True(t, xerrors.Is(err, domain.ErrRateLimited))
	})

	t.Run("unavailable maps to sentinel", func(t *testing.T) {
		_, err := reader.Get(c, srv.URL+"/unavailable", time.Second)
		require.Error(t, err)
		require.True(t, xerrors.Is(err, domain.ErrRateLimited))
	})

	t.Run("not found is a plain error", func(t *testing.T) {
		_, err := reader.Get(c, srv.URL+"/missing", time.Second)
		require.Error(t, err)
		require.False(t, xerrors.Is(err, domain.ErrRateLimited))
	})
}
