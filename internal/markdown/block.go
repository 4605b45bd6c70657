package markdown

import (
	"strings"
)

// Answers with a fence but no language render as markdown.
const defaultLanguage = "md"

// Block is a segment of an answer, rendered on its own so identical code is
// highlighted once.
type Block interface {
	md() string
	Content() string
	Extension() string
}

// TextBlock is prose between code fences.
type TextBlock struct {
	Text string
}

func (b *TextBlock) md() string { return b.Text }

// Content returns the text content.
func (b *TextBlock) Content() string { return b.Text }

// Extension returns the file extension of a text block.
func (b *TextBlock) Extension() string { return "txt" }

// CodeBlock is a fenced code block.
type CodeBlock struct {
	language string
	code     string
}

func (b *CodeBlock) md() string {
	return "```" + b.language + "\n" + b.code + "\n```"
}

// Content returns the code without fences.
func (b *CodeBlock) Content() string { return b.code }

// Extension returns the fence language, "md" when the fence has none.
func (b *CodeBlock) Extension() string { return b.language }

// CodeBlocks returns only the code blocks of content, in order.
func CodeBlocks(content string) []*CodeBlock {
	var codeBlocks []*CodeBlock
	for _, block := range ParseBlocks(content) {
		if codeBlock, ok := block.(*CodeBlock); ok {
			codeBlocks = append(codeBlocks, codeBlock)
		}
	}
	return codeBlocks
}

// ParseBlocks splits content into text and code blocks. Fences open with ``` or ~~~ at
// the start of a line and close with a line of at least as many of the same character.
// A fence left open runs to the end of the content, as in a truncated answer.
func ParseBlocks(content string) []Block {
	var (
		blocks []Block
		text   []string
		code   []string
		fence  string
		lang   string
	)
	flushText := func() {
		if joined := strings.Join(text, "\n"); strings.TrimSpace(joined) != "" {
			blocks = append(blocks, &TextBlock{Text: joined})
		}
		text = nil
	}
	flushCode := func() {
		blocks = append(blocks, &CodeBlock{
			language: lang,
			// Tabs break the width computation of the terminal renderer.
			code: strings.ReplaceAll(strings.Trim(strings.Join(code, "\n"), "\n"), "\t", "  "),
		})
		code, fence, lang = nil, "", ""
	}

	for _, line := range strings.Split(content, "\n") {
		if fence == "" {
			if marker, info, ok := openingFence(line); ok {
				flushText()
				fence, lang = marker, info
				continue
			}
			text = append(text, line)
			continue
		}
		if closesFence(line, fence) {
			flushCode()
			continue
		}
		code = append(code, line)
	}
	if fence != "" {
		flushCode()
	}
	flushText()
	return blocks
}

// openingFence reports whether line opens a code block, returning the fence marker and
// the language.
func openingFence(line string) (string, string, bool) {
	if len(line) < 3 || (line[0] != '`' && line[0] != '~') {
		return "", "", false
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	info := strings.TrimSpace(line[n:])
	if line[0] == '`' && strings.Contains(info, "`") {
		// Inline code such as ```x``` on a single line.
		return "", "", false
	}
	language := defaultLanguage
	if fields := strings.Fields(info); len(fields) > 0 {
		language = fields[0]
	}
	return line[:n], language, true
}

func closesFence(line, fence string) bool {
	trimmed := strings.TrimRight(line, " \t")
	if len(trimmed) < len(fence) {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != fence[0] {
			return false
		}
	}
	return true
}
