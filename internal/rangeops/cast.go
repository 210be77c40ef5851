package rangeops

import (
	"math/big"

	"github.com/shekhirin/pyrometer/internal/concrete"
)

// Convert casts v to the type of witness. Only the witness's kind, width and
// size matter; its payload is ignored. Integer casts truncate to the target
// width and reinterpret the sign bit.
func Convert(v, witness concrete.Value) (concrete.Value, bool) {
	switch target := witness.(type) {
	case concrete.Uint:
		n, ok := castBits(v)
		if !ok {
			return nil, false
		}
		return concrete.NewUint(target.Width, n), true

	case concrete.Int:
		n, ok := castBits(v)
		if !ok {
			return nil, false
		}
		return concrete.NewInt(target.Width, n), true

	case concrete.Address:
		switch src := v.(type) {
		case concrete.Address:
			return src, true
		case concrete.Bytes:
			if src.Size != 20 {
				return nil, false
			}
			var a concrete.Address
			copy(a[:], src.Val[:20])
			return a, true
		}
		n, ok := castBits(v)
		if !ok {
			return nil, false
		}
		var a concrete.Address
		concrete.WrapUint(n, 160).FillBytes(a[:])
		return a, true

	case concrete.Bytes:
		out := concrete.Bytes{Size: target.Size}
		switch src := v.(type) {
		case concrete.Bytes:
			copy(out.Val[:target.Size], src.Val[:src.Size])
		case concrete.DynBytes:
			copy(out.Val[:target.Size], src)
		case concrete.Address:
			copy(out.Val[:target.Size], src[:])
		default:
			n, ok := castBits(v)
			if !ok {
				return nil, false
			}
			width := uint16(target.Size) * 8
			concrete.WrapUint(n, width).FillBytes(out.Val[:target.Size])
		}
		return out, true

	case concrete.DynBytes:
		switch src := v.(type) {
		case concrete.DynBytes:
			return append(concrete.DynBytes{}, src...), true
		case concrete.String:
			return concrete.DynBytes(src), true
		case concrete.Bytes:
			return append(concrete.DynBytes{}, src.Val[:src.Size]...), true
		}
		return nil, false

	case concrete.String:
		switch src := v.(type) {
		case concrete.String:
			return src, true
		case concrete.DynBytes:
			return concrete.String(src), true
		}
		return nil, false

	case concrete.Bool:
		if b, ok := v.(concrete.Bool); ok {
			return b, true
		}
		return nil, false

	default:
		return nil, false
	}
}

// castBits returns the integer view of v for numeric casts. Negative Ints
// keep their sign so the target wrap sees the two's-complement pattern.
func castBits(v concrete.Value) (*big.Int, bool) {
	switch src := v.(type) {
	case concrete.Uint:
		return src.Val, true
	case concrete.Int:
		return src.Val, true
	case concrete.Bytes:
		return new(big.Int).SetBytes(src.Val[:src.Size]), true
	case concrete.Address:
		return new(big.Int).SetBytes(src[:]), true
	default:
		return nil, false
	}
}
