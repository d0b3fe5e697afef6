package entry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToAddress(t *testing.T) {
	addr, err := HexToAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", addr.Hex())

	// Short input is left-padded with zeros.
	addr, err = HexToAddress("0x01")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", addr.Hex())

	_, err = HexToAddress("0xzz")
	assert.Error(t, err)
}

func TestHexToHash(t *testing.T) {
	h, err := HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	require.NoError(t, err)
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", h.Hex())

	_, err = HexToHash("not hex")
	assert.Error(t, err)
}

func TestMustConvertPanics(t *testing.T) {
	assert.Panics(t, func() { MustHexToAddress("0xqq") })
	assert.Panics(t, func() { MustHexToHash("0xqq") })
	assert.NotPanics(t, func() { MustHexToAddress("0x01") })
}

func TestMarshalJSON(t *testing.T) {
	e := Entry{
		Address: MustHexToAddress("0x1111111111111111111111111111111111111111"),
		Topics:  []Hash{MustHexToHash("0x02")},
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "0x1111111111111111111111111111111111111111", decoded["Address"])
}

func TestSignature(t *testing.T) {
	assert.Equal(t, Hash{}, Entry{}.Signature())

	h := MustHexToHash("0x05")
	assert.Equal(t, h, Entry{Topics: []Hash{h}}.Signature())
}
