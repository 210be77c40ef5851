package concrete

import (
	"bytes"
	"strings"
)

// Equal reports whether two literals denote the same value.
//
// Both sides are first converted to their canonical unsigned 256-bit form; if
// both convert, they are compared numerically (so uint8:5 equals uint256:5 and
// bool:true equals uint256:1). Otherwise the comparison is by kind:
//   - two negative Ints compare by signed value
//   - DynBytes and String compare by raw bytes, in either direction, with the
//     String taken as its UTF-8 encoding
//   - two Arrays are equal iff they have the same length and every element
//     pair is Equal
//
// Every other pairing is not comparable and reports false.
func Equal(a, b Value) bool {
	au, aok := ToUint256(a)
	bu, bok := ToUint256(b)
	if aok && bok {
		return au.Cmp(bu) == 0
	}

	switch x := a.(type) {
	case Int:
		if y, ok := b.(Int); ok && !aok && !bok {
			return x.Val.Cmp(y.Val) == 0
		}
	case DynBytes:
		switch y := b.(type) {
		case DynBytes:
			return bytes.Equal(x, y)
		case String:
			return bytes.Equal(x, []byte(y))
		}
	case String:
		switch y := b.(type) {
		case String:
			return x == y
		case DynBytes:
			return bytes.Equal([]byte(x), y)
		}
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two literals. The int result is -1, 0 or +1 as a is less
// than, equal to or greater than b; the bool is false when the pair has no
// defined order.
//
// If exactly one side fails the unsigned conversion and that side is an Int,
// it is negative and therefore strictly below the other side regardless of
// magnitude. A byte string and a text string are ordered only when their
// bytes are equal. Arrays are never ordered.
func Compare(a, b Value) (int, bool) {
	au, aok := ToUint256(a)
	bu, bok := ToUint256(b)

	switch {
	case aok && bok:
		return au.Cmp(bu), true
	case aok:
		if _, neg := b.(Int); neg {
			return 1, true
		}
		return 0, false
	case bok:
		if _, neg := a.(Int); neg {
			return -1, true
		}
		return 0, false
	}

	switch x := a.(type) {
	case Int:
		if y, ok := b.(Int); ok {
			return x.Val.Cmp(y.Val), true
		}
	case DynBytes:
		switch y := b.(type) {
		case DynBytes:
			return bytes.Compare(x, y), true
		case String:
			return 0, bytes.Equal(x, []byte(y))
		}
	case String:
		switch y := b.(type) {
		case String:
			return strings.Compare(string(x), string(y)), true
		case DynBytes:
			return 0, bytes.Equal([]byte(x), y)
		}
	}
	return 0, false
}
