package concrete

import "math/big"

// MaxWidth is the widest integer the analyzer models.
const MaxWidth uint16 = 256

// ValidWidth reports whether w is a legal integer width (a multiple of 8
// between 8 and 256).
func ValidWidth(w uint16) bool {
	return w >= 8 && w <= MaxWidth && w%8 == 0
}

func modulus(width uint16) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(width))
}

// MaxUint returns 2^width - 1.
func MaxUint(width uint16) *big.Int {
	return new(big.Int).Sub(modulus(width), big.NewInt(1))
}

// MaxInt returns 2^(width-1) - 1.
func MaxInt(width uint16) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width-1)), big.NewInt(1))
}

// MinInt returns -2^(width-1).
func MinInt(width uint16) *big.Int {
	return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(width-1)))
}

// WrapUint reduces x modulo 2^width. The result is always non-negative.
func WrapUint(x *big.Int, width uint16) *big.Int {
	out := new(big.Int).Mod(x, modulus(width))
	return out
}

// WrapInt reduces x into the two's-complement range of width bits.
func WrapInt(x *big.Int, width uint16) *big.Int {
	out := WrapUint(x, width)
	if out.Cmp(MaxInt(width)) > 0 {
		out.Sub(out, modulus(width))
	}
	return out
}

// Reinterpret converts between the signed and unsigned views of the same bit
// pattern. An Int of -1 at width 8 becomes a Uint of 255 and back.
func Reinterpret(x *big.Int, width uint16, signed bool) *big.Int {
	if signed {
		return WrapInt(x, width)
	}
	return WrapUint(x, width)
}
