package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-watch/pharos/entry"
)

// stubEncoder returns canned topic and data filter sets.
type stubEncoder struct {
	topics []any
	data   DataFilterSet
	args   map[string]any
}

func (s *stubEncoder) TopicSet(args map[string]any) ([]any, error) {
	s.args = args
	return s.topics, nil
}

func (s *stubEncoder) DataFilterSet(args map[string]any) (DataFilterSet, error) {
	return s.data, nil
}

func TestBuildEventParams_NoDefaults(t *testing.T) {
	enc := &stubEncoder{topics: []any{"0xT1"}}

	_, params, err := BuildEventParams(enc)
	require.NoError(t, err)

	assert.Empty(t, params.FromBlock)
	assert.Empty(t, params.ToBlock)
	assert.Nil(t, params.Address)

	// The wire shape must omit unset keys entirely.
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	assert.NotContains(t, keys, "fromBlock")
	assert.NotContains(t, keys, "toBlock")
	assert.NotContains(t, keys, "address")
}

func TestBuildEventParams_BlockRange(t *testing.T) {
	enc := &stubEncoder{topics: []any{"0xT1"}}

	_, params, err := BuildEventParams(enc,
		WithFromBlock(Block(16)),
		WithToBlock(Latest),
	)
	require.NoError(t, err)

	assert.Equal(t, BlockRef("0x10"), params.FromBlock)
	assert.Equal(t, Latest, params.ToBlock)
}

func TestBuildEventParams_AddressMerge(t *testing.T) {
	tests := []struct {
		name    string
		opts    []BuildOption
		want    any
		wantErr error
	}{
		{
			name: "sequence plus contract appends",
			opts: []BuildOption{WithAddress([]string{"0xA"}), WithContractAddress("0xB")},
			want: []any{"0xA", "0xB"},
		},
		{
			name: "string plus contract forms pair",
			opts: []BuildOption{WithAddress("0xA"), WithContractAddress("0xB")},
			want: []any{"0xA", "0xB"},
		},
		{
			name:    "unsupported shape fails",
			opts:    []BuildOption{WithAddress(42), WithContractAddress("0xB")},
			wantErr: ErrUnsupportedAddressType,
		},
		{
			name: "address alone used unmodified",
			opts: []BuildOption{WithAddress("0xA")},
			want: "0xA",
		},
		{
			name: "contract alone used alone",
			opts: []BuildOption{WithContractAddress("0xB")},
			want: "0xB",
		},
		{
			name: "neither omits the key",
			opts: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &stubEncoder{topics: []any{"0xT1"}}
			_, params, err := BuildEventParams(enc, tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, params.Address)
		})
	}
}

func TestBuildEventParams_TopicCollapse(t *testing.T) {
	// Single element that is itself a sequence unwraps.
	enc := &stubEncoder{topics: nil}
	_, params, err := BuildEventParams(enc, WithTopics("0xT1", "0xT2"))
	require.NoError(t, err)
	assert.Equal(t, []any{"0xT1", "0xT2"}, params.Topics)
}

func TestBuildEventParams_NoCollapseWithTwoElements(t *testing.T) {
	enc := &stubEncoder{topics: []any{"0xT1", nil}}
	_, params, err := BuildEventParams(enc)
	require.NoError(t, err)
	assert.Equal(t, []any{"0xT1", nil}, params.Topics)
}

func TestBuildEventParams_ExplicitTopicsPrepended(t *testing.T) {
	enc := &stubEncoder{topics: []any{"0xE1", "0xE2"}}
	_, params, err := BuildEventParams(enc, WithTopics("0xT1"))
	require.NoError(t, err)

	require.Len(t, params.Topics, 3)
	assert.Equal(t, []any{"0xT1"}, params.Topics[0])
	assert.Equal(t, "0xE1", params.Topics[1])
	assert.Equal(t, "0xE2", params.Topics[2])
}

func TestBuildEventParams_ReturnsDataFilterSet(t *testing.T) {
	slot := entry.MustHexToHash("0x" + repeatHex("aa"))
	enc := &stubEncoder{
		topics: []any{"0xT1"},
		data:   DataFilterSet{{nil, &slot}},
	}

	set, _, err := BuildEventParams(enc, WithArgs(map[string]any{"value": 1}))
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, map[string]any{"value": 1}, enc.args)
}

func repeatHex(pair string) string {
	out := ""
	for i := 0; i < 32; i++ {
		out += pair
	}
	return out
}
