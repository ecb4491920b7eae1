package tracker

import (
	"reflect"
	"testing"
)

func Test_blockRange_split(t *testing.T) {
	tests := []struct {
		r      *blockRange
		wantLo *blockRange
		wantHi *blockRange
	}{
		{
			r:      newBlockRange(0, 9),
			wantLo: newBlockRange(0, 4),
			wantHi: newBlockRange(5, 9),
		},
		{
			r:      newBlockRange(100, 201),
			wantLo: newBlockRange(100, 150),
			wantHi: newBlockRange(151, 201),
		},
		{
			// two-block span splits into singletons
			r:      newBlockRange(7, 8),
			wantLo: newBlockRange(7, 7),
			wantHi: newBlockRange(8, 8),
		},
		{
			r:      newBlockRange(19000000, 19002000),
			wantLo: newBlockRange(19000000, 19001000),
			wantHi: newBlockRange(19001001, 19002000),
		},
	}
	for _, tt := range tests {
		t.Run(tt.r.String(), func(t *testing.T) {
			lo, hi := tt.r.split()
			if !reflect.DeepEqual(lo, tt.wantLo) {
				t.Errorf("split() lo = %v, want %v", lo, tt.wantLo)
			}
			if !reflect.DeepEqual(hi, tt.wantHi) {
				t.Errorf("split() hi = %v, want %v", hi, tt.wantHi)
			}
		})
	}
}
