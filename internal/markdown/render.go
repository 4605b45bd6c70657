package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Renderer handles markdown rendering with syntax highlighting.
// Rendered messages are cached by key until the width changes.
type Renderer struct {
	glamour    *glamour.TermRenderer
	width      int
	cache      map[string]string
	blockCache map[string]string
}

// NewRenderer creates a new markdown renderer.
func NewRenderer(width int) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(customStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		glamour:    gr,
		width:      width,
		cache:      map[string]string{},
		blockCache: map[string]string{},
	}, nil
}

// Width returns the wrapping width.
func (r *Renderer) Width() int { return r.width }

// Render renders markdown content. An empty key disables caching.
func (r *Renderer) Render(key, content string) string {
	if key != "" {
		if md, ok := r.cache[key]; ok {
			return md
		}
	}
	md := r.ToMarkdown(ParseBlocks(content)...)
	if key != "" {
		r.cache[key] = md
	}
	return md
}

// ToMarkdown renders blocks one at a time so identical code blocks are only highlighted once.
func (r *Renderer) ToMarkdown(blocks ...Block) string {
	var sb strings.Builder
	for i, block := range blocks {
		source := block.md()
		md, ok := r.blockCache[source]
		if !ok {
			md = r.toMarkdownBlock(source)
			r.blockCache[source] = md
		}
		sb.WriteString(md)
		if i < len(blocks)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// SetWidth updates the renderer width, recreating internals if needed.
func (r *Renderer) SetWidth(width int) error {
	if r.width == width {
		return nil
	}
	newRenderer, err := NewRenderer(width)
	if err != nil {
		return err
	}
	*r = *newRenderer
	return nil
}

// toMarkdownBlock renders a single block of markdown content.
func (r *Renderer) toMarkdownBlock(content string) string {
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// customStyle returns a modified glamour style for cleaner output.
func customStyle() ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""

	return style
}
