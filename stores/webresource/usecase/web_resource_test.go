package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/domain"
)

type recordedCall struct {
	url     string
	timeout time.Duration
}

type scriptedReader struct {
	calls []recordedCall
	// errs[url] is returned for that url, missing entries succeed
	errs map[string]error
	body []byte
}

func (r *scriptedReader) Get(_ ctx.Ctx, url string, timeout time.Duration) ([]byte, error) {
	r.calls = append(r.calls, recordedCall{url, timeout})
	if err, ok := r.errs[url]; ok {
		return nil, err
	}
	return r.body, nil
}

func Test_getCascading_stopsAtFirstSuccess(t *testing.T) {
	c := ctx.Background()
	reader := &scriptedReader{
		body: []byte(`{"ok":true}`),
		errs: map[string]error{
			"https://gw1.example/cid": xerrors.New("timeout"),
			"https://gw2.example/cid": xerrors.Errorf("limited: %w", domain.ErrRateLimited),
			"https://gw3.example/cid": xerrors.New("502"),
		},
	}
	u := NewWebResourceUseCase(&WebResourceUseCaseCfg{
		HttpReader:   reader,
		IpfsGateways: []string{"https://gw1.example", "https://gw2.example", "https://gw3.example", "https://gw4.example", "https://gw5.example"},
		TimeoutBase:  time.Second,
		TimeoutStep:  time.Second,
	})

	body, err := u.Get(c, "ipfs://cid")
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, string(body))

	// the fourth candidate succeeded, the fifth must never be touched
	require.Len(t, reader.calls, 4)
	require.Equal(t, "https://gw4.example/cid", reader.calls[3].url)

	// each candidate gets a longer timeout than the one before
	for i := 1; i < len(reader.calls); i++ {
		require.Greater(t, reader.calls[i].timeout, reader.calls[i-1].timeout)
	}
}

func Test_getCascading_aggregatesFailure(t *testing.T) {
	c := ctx.Background()
	reader := &scriptedReader{
		errs: map[string]error{
			"https://gw1.example/cid": xerrors.New("timeout"),
			"https://gw2.example/cid": xerrors.New("502"),
		},
	}
	u := NewWebResourceUseCase(&WebResourceUseCaseCfg{
		HttpReader:   reader,
		IpfsGateways: []string{"https://gw1.example", "https://gw2.example"},
		TimeoutBase:  time.Second,
		TimeoutStep:  time.Second,
	})

	_, err := u.Get(c, "ipfs://cid")
	require.Error(t, err)
	require.Len(t, reader.calls, 2)
}

func Test_GetJson_rejectsGarbage(t *testing.T) {
	c := ctx.Background()
	reader := &scriptedReader{body: []byte("<html>not json</html>")}
	u := NewWebResourceUseCase(&WebResourceUseCaseCfg{
		HttpReader:   reader,
		IpfsGateways: []string{"https://gw1.example"},
	})

	_, err := u.GetJson(c, "ipfs://cid")
	require.Equal(t, domain.ErrInvalidJsonFormat, err)
}

func Test_get_unsupportedScheme(t *testing.T) {
	c := ctx.Background()
	u := NewWebResourceUseCase(&WebResourceUseCaseCfg{HttpReader: &scriptedReader{}})

	_, err := u.Get(c, "ftp://example.com/meta.json")
	require.Equal(t, domain.ErrUnsupportedSchema, err)
}

func Test_getIpfsUrl(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "pinata",
			url:  "https://gateway.pinata.cloud/ipfs/QmVVutd4A4i1jCQnJXR49miQdXLNLVeGwyo5wWznpgRGeH",
			want: "ipfs://QmVVutd4A4i1jCQnJXR49miQdXLNLVeGwyo5wWznpgRGeH",
		},
		{
			name: "pinata dedicated",
			url:  "https://travelmint.mypinata.cloud/ipfs/QmTeTTMFgPYULCNkfxLcJSu5KByxDWh6JA4HFZY4CQnxdS",
			want: "ipfs://QmTeTTMFgPYULCNkfxLcJSu5KByxDWh6JA4HFZY4CQnxdS",
		},
		{
			name: "ipfs.io",
			url:  "https://ipfs.io/ipfs/QmRM6jM1Agru6fgm9aae1oFukwSi5d3Kk71Lue2rYznEYm/0.png",
			want: "ipfs://QmRM6jM1Agru6fgm9aae1oFukwSi5d3Kk71Lue2rYznEYm/0.png",
		},
		{
			name: "noop",
			url:  "https://some.url",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getIpfsUrl(tt.url); got != tt.want {
				t.Errorf("getIpfsUrl() = %v, want %v", got, tt.want)
			}
		})
	}
}
