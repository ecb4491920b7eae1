package tracker

import (
	"fmt"
	"math/big"
)

// blockRange is an inclusive span of block numbers handed to eth_getLogs.
// When a node rejects a span as too wide the tracker bisects it with split
// and retries each half.
type blockRange struct {
	begin *big.Int
	end   *big.Int // inclusive
}

func newBlockRange(begin, end uint64) *blockRange {
	return &blockRange{
		begin: new(big.Int).SetUint64(begin),
		end:   new(big.Int).SetUint64(end),
	}
}

// split bisects the range into [begin, mid] and [mid+1, end].
func (r *blockRange) split() (*blockRange, *blockRange) {
	mid := new(big.Int).Add(r.begin, r.end)
	mid.Rsh(mid, 1)
	lo := &blockRange{begin: r.begin, end: mid}
	hi := &blockRange{begin: new(big.Int).Add(mid, big.NewInt(1)), end: r.end}
	return lo, hi
}

func (r *blockRange) String() string {
	return fmt.Sprintf("blocks [%s, %s]", r.begin, r.end)
}
