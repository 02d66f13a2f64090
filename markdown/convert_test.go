package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMarkdownBasicFormatting(t *testing.T) {
	conv := NewConverter()

	out, err := conv.ToMarkdown("<p>This is <b>bold</b> and <em>emphasized</em> text.</p>")
	require.NoError(t, err)
	assert.Contains(t, out, "**bold**")
	assert.Contains(t, out, "emphasized")
}

func TestToMarkdownSuperAndSubscript(t *testing.T) {
	conv := NewConverter()

	out, err := conv.ToMarkdown("<p>See note<sup>1</sup> on H<sub>2</sub>O.</p>")
	require.NoError(t, err)
	assert.Contains(t, out, "^1^")
	assert.Contains(t, out, "~2~")
}

func TestToMarkdownUnderline(t *testing.T) {
	conv := NewConverter()

	out, err := conv.ToMarkdown("<p><u>underlined</u></p>")
	require.NoError(t, err)
	assert.Contains(t, out, "_underlined_")
}

func TestToMarkdownStrikethrough(t *testing.T) {
	conv := NewConverter()

	out, err := conv.ToMarkdown("<p><del>repealed text</del></p>")
	require.NoError(t, err)
	assert.Contains(t, out, "~repealed text~")
}

func TestToMarkdownEmptyInput(t *testing.T) {
	conv := NewConverter()

	out, err := conv.ToMarkdown("   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCleanCollapsesNoise(t *testing.T) {
	assert.Equal(t, "a\n\nb", Clean("a\n\n\n\n\nb"))
	assert.Equal(t, "before  after", Clean("before ** ** after"))
	assert.Equal(t, "keep **bold** intact", Clean("keep **bold** intact"))
	assert.Equal(t, "line one\nline two", Clean("line one   \nline two"))
	assert.Empty(t, Clean("  \n \t "))
}
