package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinacci/travelmint-api/base/ctx"
)

func Test_dataUriReader_Get(t *testing.T) {
	c := ctx.Background()
	reader := NewDataUriReaderRepo()

	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{
			name: "base64 json",
			uri:  "data:application/json;base64,eyJuYW1lIjoiU3Vuc2V0In0=",
			want: `{"name":"Sunset"}`,
		},
		{
			name: "plain text",
			uri:  `data:application/json,{"name":"Sunset"}`,
			want: `{"name":"Sunset"}`,
		},
		{
			name:    "not a data uri",
			uri:     "https://example.com/1.json",
			wantErr: true,
		},
		{
			name:    "missing data part",
			uri:     "data:application/json;base64",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reader.Get(c, tt.uri, 0)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
		})
	}
}
