package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigrok-go/sigdecode/decoder"
)

func testClass() *decoder.Descriptor {
	return &decoder.Descriptor{
		ID: "test",
		Channels: []decoder.Channel{
			{ID: "clk", Kind: decoder.Required},
			{ID: "data", Kind: decoder.Required},
			{ID: "cs", Kind: decoder.Optional},
		},
		Options: []decoder.Option{
			{ID: "bitorder", Kind: decoder.OptString, Default: "msb-first"},
			{ID: "wordsize", Kind: decoder.OptInt, Default: 8},
		},
	}
}

func TestApplyOptionsDefaults(t *testing.T) {
	opts, err := ApplyOptions(testClass(), nil)
	require.NoError(t, err)
	assert.Equal(t, "msb-first", opts["bitorder"])
	assert.Equal(t, 8, opts["wordsize"])
}

func TestApplyOptionsTypeMismatch(t *testing.T) {
	_, err := ApplyOptions(testClass(), map[string]any{"wordsize": "eight"})
	assert.Error(t, err)
}

func TestApplyOptionsUnknownKeyIsWarningNotError(t *testing.T) {
	opts, err := ApplyOptions(testClass(), map[string]any{"bogus": 1})
	require.NoError(t, err)
	assert.NotContains(t, opts, "bogus")
}

func TestApplyChannelsRequiresRequired(t *testing.T) {
	_, err := ApplyChannels(testClass(), map[string]int{"clk": 0})
	assert.Error(t, err, "missing required channel data should be rejected")
}

func TestApplyChannelsOptionalDefaultsToUnmapped(t *testing.T) {
	cm, err := ApplyChannels(testClass(), map[string]int{"clk": 0, "data": 1})
	require.NoError(t, err)
	require.Len(t, cm, 3)
	assert.Equal(t, -1, cm[2])
}

func TestApplyChannelsUnknownIDIsError(t *testing.T) {
	_, err := ApplyChannels(testClass(), map[string]int{"clk": 0, "data": 1, "bogus": 2})
	assert.Error(t, err)
}
