package concrete

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Parse reads the textual form produced by Value.String.
//
// Accepted forms:
//
//	uint256:12   uint8:0xff   int16:-3   bool:true
//	address:0x<40 hex>   bytes4:0x6162   bytes:0x6162   string:"ab"
//	[uint256:1, uint256:2]
//
// A bare decimal is shorthand for uint256 (or int256 when negative).
func Parse(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty literal")
	}

	if strings.HasPrefix(s, "[") {
		return parseArray(s)
	}

	kind, payload, found := strings.Cut(s, ":")
	if !found {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("literal %q: missing kind prefix", s)
		}
		if n.Sign() < 0 {
			return NewInt(MaxWidth, n), nil
		}
		return NewUint(MaxWidth, n), nil
	}

	switch {
	case kind == "bool":
		b, err := strconv.ParseBool(payload)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		return Bool(b), nil

	case kind == "address":
		raw, err := decodeHex(payload)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		if len(raw) != 20 {
			return nil, fmt.Errorf("literal %q: address must be 20 bytes, got %d", s, len(raw))
		}
		var a Address
		copy(a[:], raw)
		return a, nil

	case kind == "string":
		str, err := strconv.Unquote(payload)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		return String(str), nil

	case kind == "bytes":
		raw, err := decodeHex(payload)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		return DynBytes(raw), nil

	case strings.HasPrefix(kind, "bytes"):
		size, err := strconv.Atoi(strings.TrimPrefix(kind, "bytes"))
		if err != nil || size < 1 || size > 32 {
			return nil, fmt.Errorf("literal %q: invalid fixed bytes size", s)
		}
		raw, err := decodeHex(payload)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		if len(raw) > size {
			return nil, fmt.Errorf("literal %q: %d bytes do not fit bytes%d", s, len(raw), size)
		}
		out := Bytes{Size: uint8(size)}
		copy(out.Val[:], raw)
		return out, nil

	case strings.HasPrefix(kind, "uint"):
		width, err := parseWidth(strings.TrimPrefix(kind, "uint"))
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		n, err := parseInteger(payload)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		if n.Sign() < 0 || n.Cmp(MaxUint(width)) > 0 {
			return nil, fmt.Errorf("literal %q: out of range for uint%d", s, width)
		}
		return Uint{Width: width, Val: n}, nil

	case strings.HasPrefix(kind, "int"):
		width, err := parseWidth(strings.TrimPrefix(kind, "int"))
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		n, err := parseInteger(payload)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", s, err)
		}
		if n.Cmp(MinInt(width)) < 0 || n.Cmp(MaxInt(width)) > 0 {
			return nil, fmt.Errorf("literal %q: out of range for int%d", s, width)
		}
		return Int{Width: width, Val: n}, nil
	}

	return nil, fmt.Errorf("literal %q: unknown kind %q", s, kind)
}

// MustParse is like Parse but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseWidth(s string) (uint16, error) {
	if s == "" {
		return MaxWidth, nil
	}
	w, err := strconv.ParseUint(s, 10, 16)
	if err != nil || !ValidWidth(uint16(w)) {
		return 0, fmt.Errorf("invalid integer width %q", s)
	}
	return uint16(w), nil
}

func parseInteger(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("hex payload must start with 0x")
	}
	return hex.DecodeString(s[2:])
}

func parseArray(s string) (Value, error) {
	if !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("literal %q: unterminated array", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return Array{}, nil
	}

	parts, err := splitTopLevel(body)
	if err != nil {
		return nil, fmt.Errorf("literal %q: %w", s, err)
	}
	out := make(Array, len(parts))
	for i, part := range parts {
		v, err := Parse(part)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// splitTopLevel splits on commas that are outside brackets and quotes.
func splitTopLevel(s string) ([]string, error) {
	var (
		parts   []string
		depth   int
		inQuote bool
		start   int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets")
			}
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if inQuote || depth != 0 {
		return nil, fmt.Errorf("unbalanced quotes or brackets")
	}
	return append(parts, s[start:]), nil
}
