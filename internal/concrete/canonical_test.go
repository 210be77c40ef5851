package concrete

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalValueCanonical(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"uint", U256(12), `{"kind":"uint","value":"12","width":256}`},
		{"int", NewInt(8, big.NewInt(-3)), `{"kind":"int","value":"-3","width":8}`},
		{"bool", Bool(false), `{"kind":"bool","value":false}`},
		{"dyn bytes", DynBytes("ab"), `{"kind":"bytes","value":"0x6162"}`},
		{"string no html escape", String("<a&b>"), `{"kind":"string","value":"<a&b>"}`},
		{"array", NewArray(Bool(true)), `{"kind":"array","value":[{"kind":"bool","value":true}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalValue(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestMarshalValueLineSeparators(t *testing.T) {
	data, err := MarshalValue(String("a\u2028b"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "a\u2028b")
	assert.NotContains(t, string(data), `\u2028`)
}

func TestUnmarshalValueRoundTrip(t *testing.T) {
	fixed, err := NewBytes([]byte{0xca, 0xfe})
	require.NoError(t, err)
	big256 := Uint{Width: 256, Val: MaxUint(256)}

	for _, v := range []Value{big256, I256(-99), fixed, Address{1}, String("\u00fc"), NewArray(DynBytes{}, I256(1))} {
		data, err := MarshalValue(v)
		require.NoError(t, err)

		back, err := UnmarshalValue(data)
		require.NoError(t, err)
		assert.Equal(t, v.String(), back.String())
	}
}

func TestUnmarshalValueRejectsBadInput(t *testing.T) {
	inputs := []string{
		`[]`,
		`{"kind":"uint","width":7,"value":"1"}`,
		`{"kind":"uint","width":65544,"value":"5"}`,
		`{"kind":"int","width":-65528,"value":"5"}`,
		`{"kind":"int","width":264,"value":"5"}`,
		`{"kind":"uint","width":8,"value":"x"}`,
		`{"kind":"fixed","size":1,"value":"0x0102"}`,
		`{"kind":"float","value":"1.5"}`,
		`{"kind":"array","value":[{"kind":"nope"}]}`,
	}
	for _, in := range inputs {
		_, err := UnmarshalValue([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)
	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Negative(t, compareKeysRFC8785("A", "a"))
	assert.Negative(t, compareKeysRFC8785("a", "aa"))
	assert.Zero(t, compareKeysRFC8785("", ""))
	// U+FFFF sorts after a surrogate pair in UTF-16 even though UTF-8 disagrees.
	assert.Positive(t, compareKeysRFC8785("\uffff", "\U0001F600"))
}

func TestHashDeterminism(t *testing.T) {
	h1, err := Hash(U256(5))
	require.NoError(t, err)
	h2, err := Hash(U256(5))
	require.NoError(t, err)
	h3, err := Hash(NewUint(8, big.NewInt(5)))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, h1, h3, "width is part of literal identity")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, int64(0), WrapUint(big.NewInt(256), 8).Int64())
	assert.Equal(t, int64(255), WrapUint(big.NewInt(-1), 8).Int64())
	assert.Equal(t, int64(-128), WrapInt(big.NewInt(128), 8).Int64())
	assert.Equal(t, int64(127), WrapInt(big.NewInt(-129), 8).Int64())
	assert.Equal(t, int64(255), Reinterpret(big.NewInt(-1), 8, false).Int64())
	assert.Equal(t, int64(-1), Reinterpret(big.NewInt(255), 8, true).Int64())
	assert.True(t, ValidWidth(8))
	assert.False(t, ValidWidth(12))
	assert.False(t, ValidWidth(264))
}
