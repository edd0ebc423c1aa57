package value

import (
	"errors"
	"math/big"

	"lukechampine.com/uint128"
)

var ErrHugeIntOverflow = errors.New("value does not fit into 128 bits")

var (
	two128    = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	mask64    = new(big.Int).SetUint64(^uint64(0))
)

// HugeInt is a 128-bit signed integer in two's complement, split into the
// upper and lower 64 bits the same way the engine stores it.
type HugeInt struct {
	Hi int64
	Lo uint64
}

// HugeIntFromBig splits b into a HugeInt.
func HugeIntFromBig(b *big.Int) (HugeInt, error) {
	if b == nil {
		return HugeInt{}, nil
	}
	if b.Cmp(maxInt128) > 0 || b.Cmp(minInt128) < 0 {
		return HugeInt{}, ErrHugeIntOverflow
	}

	x := new(big.Int).Set(b)
	if x.Sign() < 0 {
		x.Add(x, two128)
	}

	lo := new(big.Int).And(x, mask64).Uint64()
	hi := new(big.Int).Rsh(x, 64).Uint64()

	return HugeInt{Hi: int64(hi), Lo: lo}, nil
}

// String returns the exact base 10 representation.
func (h HugeInt) String() string {
	u := uint128.New(h.Lo, uint64(h.Hi))
	if h.Hi >= 0 {
		return u.String()
	}
	return "-" + uint128.Zero.SubWrap(u).String()
}
