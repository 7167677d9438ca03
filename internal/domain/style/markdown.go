package style

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// markdownCounter counts rich-formatting constructs in a markdown document.
type markdownCounter struct {
	parser parser.Parser
}

func newMarkdownCounter() *markdownCounter {
	md := goldmark.New(goldmark.WithExtensions(
		extension.Strikethrough,
		extension.TaskList,
		extension.Footnote,
		richMarkdown{},
	))
	return &markdownCounter{parser: md.Parser()}
}

// Count returns the number of formatting nodes in src plus literal bullet glyphs.
func (c *markdownCounter) Count(src string) int {
	doc := c.parser.Parse(text.NewReader([]byte(src)))

	n := 0
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && isFormatting(node.Kind()) {
			n++
		}
		return ast.WalkContinue, nil
	})
	return n + strings.Count(src, "•")
}

func isFormatting(k ast.NodeKind) bool {
	switch k {
	case ast.KindCodeSpan,
		ast.KindRawHTML,
		ast.KindHTMLBlock,
		ast.KindThematicBreak,
		ast.KindBlockquote,
		ast.KindCodeBlock,
		ast.KindFencedCodeBlock,
		ast.KindEmphasis,
		ast.KindHeading,
		ast.KindLink,
		ast.KindAutoLink,
		ast.KindImage,
		extast.KindStrikethrough,
		extast.KindTaskCheckBox,
		extast.KindFootnoteLink,
		extast.KindFootnote,
		kindMath,
		kindMathBlock,
		kindSubscript,
		kindSuperscript:
		return true
	default:
		return false
	}
}
