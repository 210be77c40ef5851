package concrete

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	_ Kind = iota
	KindUint
	KindInt
	KindBool
	KindAddress
	KindBytes
	KindDynBytes
	KindString
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindAddress:
		return "address"
	case KindBytes:
		return "fixed"
	case KindDynBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return "?"
	}
}

// Value is a sealed interface over the literal kinds a range bound can hold.
// Only Uint, Int, Bool, Address, Bytes, DynBytes, String and Array implement it.
type Value interface {
	concreteValue() // Sealed
	Kind() Kind
	String() string
}

// Uint is an unsigned integer of the given bit width.
type Uint struct {
	Width uint16
	Val   *big.Int
}

func (Uint) concreteValue() {}

// Kind implements Value.
func (Uint) Kind() Kind { return KindUint }

func (u Uint) String() string {
	return fmt.Sprintf("uint%d:%s", u.Width, u.Val.String())
}

// Int is a signed two's-complement integer of the given bit width.
type Int struct {
	Width uint16
	Val   *big.Int
}

func (Int) concreteValue() {}

// Kind implements Value.
func (Int) Kind() Kind { return KindInt }

func (i Int) String() string {
	return fmt.Sprintf("int%d:%s", i.Width, i.Val.String())
}

// Bool is a boolean literal.
type Bool bool

func (Bool) concreteValue() {}

// Kind implements Value.
func (Bool) Kind() Kind { return KindBool }

func (b Bool) String() string {
	return "bool:" + strconv.FormatBool(bool(b))
}

// Address is a 20-byte account address.
type Address [20]byte

func (Address) concreteValue() {}

// Kind implements Value.
func (Address) Kind() Kind { return KindAddress }

func (a Address) String() string {
	return "address:0x" + hex.EncodeToString(a[:])
}

// Bytes is a fixed-size byte string (bytes1..bytes32). The payload is
// left-aligned in Val; bytes past Size are always zero.
type Bytes struct {
	Size uint8
	Val  [32]byte
}

func (Bytes) concreteValue() {}

// Kind implements Value.
func (Bytes) Kind() Kind { return KindBytes }

func (b Bytes) String() string {
	return fmt.Sprintf("bytes%d:0x%s", b.Size, hex.EncodeToString(b.Val[:b.Size]))
}

// DynBytes is a dynamically sized byte string.
type DynBytes []byte

func (DynBytes) concreteValue() {}

// Kind implements Value.
func (DynBytes) Kind() Kind { return KindDynBytes }

func (b DynBytes) String() string {
	return "bytes:0x" + hex.EncodeToString(b)
}

// String is a text string literal.
type String string

func (String) concreteValue() {}

// Kind implements Value.
func (String) Kind() Kind { return KindString }

func (s String) String() string {
	return "string:" + strconv.Quote(string(s))
}

// Array is an ordered sequence of values.
type Array []Value

func (Array) concreteValue() {}

// Kind implements Value.
func (Array) Kind() Kind { return KindArray }

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NewUint creates a Uint of the given width, wrapping val into range.
func NewUint(width uint16, val *big.Int) Uint {
	return Uint{Width: width, Val: WrapUint(val, width)}
}

// NewInt creates an Int of the given width, wrapping val into range.
func NewInt(width uint16, val *big.Int) Int {
	return Int{Width: width, Val: WrapInt(val, width)}
}

// U256 creates a uint256 from a uint64.
func U256(n uint64) Uint {
	return Uint{Width: MaxWidth, Val: new(big.Int).SetUint64(n)}
}

// I256 creates an int256 from an int64.
func I256(n int64) Int {
	return Int{Width: MaxWidth, Val: big.NewInt(n)}
}

// NewBytes creates a fixed-size byte string. b must be at most 32 bytes; the
// size is len(b).
func NewBytes(b []byte) (Bytes, error) {
	if len(b) == 0 || len(b) > 32 {
		return Bytes{}, fmt.Errorf("fixed bytes size must be 1..32, got %d", len(b))
	}
	out := Bytes{Size: uint8(len(b))}
	copy(out.Val[:], b)
	return out, nil
}

// NewArray creates an Array from values.
func NewArray(vals ...Value) Array {
	return Array(vals)
}

// ToUint256 returns the canonical unsigned 256-bit view of v.
//
// Uint converts as-is, Int converts only when non-negative, fixed Bytes and
// Address convert big-endian, Bool converts to 0 or 1. DynBytes, String and
// Array never convert. A false second result on an Int always means the Int is
// negative.
func ToUint256(v Value) (*big.Int, bool) {
	switch val := v.(type) {
	case Uint:
		return new(big.Int).Set(val.Val), true
	case Int:
		if val.Val.Sign() < 0 {
			return nil, false
		}
		return new(big.Int).Set(val.Val), true
	case Bytes:
		return new(big.Int).SetBytes(val.Val[:]), true
	case Address:
		return new(big.Int).SetBytes(val[:]), true
	case Bool:
		if val {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	default:
		return nil, false
	}
}

// IsNumeric reports whether v is a Uint or an Int.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Uint, Int:
		return true
	default:
		return false
	}
}
