package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFencedBlock(t *testing.T) {
	inner, ok := ExtractFencedBlock("before\n```json\n{\"a\":1}\n```\nafter")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, inner)
}

func TestExtractFencedBlockNoTag(t *testing.T) {
	inner, ok := ExtractFencedBlock("```\nplain\n```")
	require.True(t, ok)
	assert.Equal(t, "plain", inner)
}

func TestExtractFencedBlockUnclosed(t *testing.T) {
	_, ok := ExtractFencedBlock("```json\n{\"a\":1}")
	assert.False(t, ok)
}

func TestExtractFencedBlockAbsent(t *testing.T) {
	_, ok := ExtractFencedBlock("no fence here")
	assert.False(t, ok)
}

func TestRemoveFencedBlocks(t *testing.T) {
	out := RemoveFencedBlocks("keep this\n```\ndrop this\n```\nand this\n```\nalso dropped\n```")
	assert.Equal(t, "keep this\n\nand this", out)
}

func TestRemoveFencedBlocksKeepsUnclosed(t *testing.T) {
	out := RemoveFencedBlocks("text ```unclosed")
	assert.Equal(t, "text ```unclosed", out)
}
