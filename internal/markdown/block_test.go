package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlocks(t *testing.T) {
	content := "Here is the config:\n```json\n{\"a\": 1}\n```\nand a shell line:\n```\nls\n```\ndone"
	blocks := ParseBlocks(content)
	require.Len(t, blocks, 5)

	assert.Equal(t, "Here is the config:", blocks[0].Content())
	assert.Equal(t, "txt", blocks[0].Extension())

	assert.Equal(t, "{\"a\": 1}", blocks[1].Content())
	assert.Equal(t, "json", blocks[1].Extension())

	assert.Equal(t, "ls", blocks[3].Content())
	assert.Equal(t, "md", blocks[3].Extension(), "unlabelled fences fall back to md")

	assert.Equal(t, "done", blocks[4].Content())
}

func TestParseBlocks_Fences(t *testing.T) {
	blocks := ParseBlocks("~~~~c++\nint x;\n```\nstill code\n~~~~\n```python\nprint(1)")
	require.Len(t, blocks, 2)
	assert.Equal(t, "c++", blocks[0].Extension())
	assert.Equal(t, "int x;\n```\nstill code", blocks[0].Content())
	assert.Equal(t, "python", blocks[1].Extension(), "an unclosed fence runs to the end")
	assert.Equal(t, "print(1)", blocks[1].Content())

	blocks = ParseBlocks("use ```inline``` code")
	require.Len(t, blocks, 1)
	assert.Equal(t, "txt", blocks[0].Extension())
}

func TestParseBlocks_PlainText(t *testing.T) {
	assert.Empty(t, ParseBlocks(""))
	blocks := ParseBlocks("just an answer")
	require.Len(t, blocks, 1)
	assert.Equal(t, "just an answer", blocks[0].Content())
}

func TestCodeBlocks(t *testing.T) {
	codeBlocks := CodeBlocks("a\n```go\nfunc main() {\n\tprintln()\n}\n```\nb")
	require.Len(t, codeBlocks, 1)
	assert.Equal(t, "func main() {\n  println()\n}", codeBlocks[0].Content())
	assert.Empty(t, CodeBlocks("no code here"))
}

func TestRenderer_Render(t *testing.T) {
	renderer, err := NewRenderer(80)
	require.NoError(t, err)

	first := renderer.Render("m1", "**bold** answer")
	assert.Contains(t, first, "bold")
	assert.Equal(t, first, renderer.Render("m1", "ignored, served from cache"))

	require.NoError(t, renderer.SetWidth(40))
	assert.Equal(t, 40, renderer.Width())
	assert.Contains(t, renderer.Render("m1", "fresh"), "fresh")
}
