package style

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Node kinds that goldmark and its bundled extensions do not provide.
var (
	kindMath        = ast.NewNodeKind("Math")
	kindMathBlock   = ast.NewNodeKind("MathBlock")
	kindSubscript   = ast.NewNodeKind("Subscript")
	kindSuperscript = ast.NewNodeKind("Superscript")
)

// markSpan is an inline construct counted by kind only. Its content is consumed.
type markSpan struct {
	ast.BaseInline
	kind ast.NodeKind
}

func (n *markSpan) Kind() ast.NodeKind { return n.kind }

func (n *markSpan) Dump(source []byte, level int) { ast.DumpHelper(n, source, level, nil, nil) }

type mathBlock struct {
	ast.BaseBlock
}

func (n *mathBlock) Kind() ast.NodeKind { return kindMathBlock }

func (n *mathBlock) Dump(source []byte, level int) { ast.DumpHelper(n, source, level, nil, nil) }

// spanParser parses delim-enclosed spans on one line: $x$ and $$x$$ for math,
// ~x~ for subscript, ^x^ for superscript.
type spanParser struct {
	delim   byte
	kind    ast.NodeKind
	maxRun  int  // longest accepted delimiter run
	spaces  bool // inner spaces allowed, but not next to the delimiters
	noDigit bool // closer must not be followed by a digit ("$5 and $10")
}

var (
	mathParser        = &spanParser{delim: '$', kind: kindMath, maxRun: 2, spaces: true, noDigit: true}
	subscriptParser   = &spanParser{delim: '~', kind: kindSubscript, maxRun: 1}
	superscriptParser = &spanParser{delim: '^', kind: kindSuperscript, maxRun: 1}
)

func (s *spanParser) Trigger() []byte { return []byte{s.delim} }

func (s *spanParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	run := delimRun(line, 0, s.delim)
	if run > s.maxRun || run >= len(line) {
		return nil
	}

	for j := run; j < len(line); j++ {
		if line[j] == '\n' {
			return nil
		}
		if line[j] != s.delim {
			continue
		}
		closer := delimRun(line, j, s.delim)
		if closer != run {
			j += closer - 1
			continue
		}
		end := j + run
		if s.noDigit && end < len(line) && line[end] >= '0' && line[end] <= '9' {
			return nil
		}
		if !s.validContent(line[run:j]) {
			return nil
		}
		block.Advance(end)
		return &markSpan{kind: s.kind}
	}
	return nil
}

func (s *spanParser) validContent(c []byte) bool {
	if len(c) == 0 || isMarkSpace(c[0]) || isMarkSpace(c[len(c)-1]) {
		return false
	}
	return s.spaces || bytes.IndexFunc(c, func(r rune) bool { return r == ' ' || r == '\t' }) < 0
}

func delimRun(line []byte, i int, delim byte) int {
	n := 0
	for i+n < len(line) && line[i+n] == delim {
		n++
	}
	return n
}

func isMarkSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' }

// mathBlockParser parses display math fenced by lines holding only "$$".
type mathBlockParser struct{}

func (mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (mathBlockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !isMathFence(line[pos:]) {
		return nil, parser.NoChildren
	}
	reader.AdvanceToEOL()
	return &mathBlock{}, parser.NoChildren
}

func (mathBlockParser) Continue(_ ast.Node, reader text.Reader, _ parser.Context) parser.State {
	line, _ := reader.PeekLine()
	reader.AdvanceToEOL()
	if isMathFence(line) {
		return parser.Close
	}
	return parser.Continue | parser.NoChildren
}

func (mathBlockParser) Close(ast.Node, text.Reader, parser.Context) {}

func (mathBlockParser) CanInterruptParagraph() bool { return true }

func (mathBlockParser) CanAcceptIndentedLine() bool { return false }

func isMathFence(line []byte) bool {
	return bytes.Equal(bytes.TrimSpace(line), []byte("$$"))
}

// richMarkdown registers math, subscript and superscript parsing.
// Subscript runs before strikethrough so "~x~" is a subscript and "~~x~~" stays strikethrough.
type richMarkdown struct{}

func (richMarkdown) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(mathBlockParser{}, 750)),
		parser.WithInlineParsers(
			util.Prioritized(mathParser, 150),
			util.Prioritized(subscriptParser, 450),
			util.Prioritized(superscriptParser, 450),
		),
	)
}
