// Package render converts markdown into the structured rich-text body
// stored on content records: a Lexical-style tree of typed nodes.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Format is the text-node style bitmask.
type Format int

const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatStrikethrough
	FormatUnderline
	FormatCode
)

const (
	nodeVersion    = 1
	wordsPerMinute = 200
)

type Node struct {
	Type     string `json:"type"`
	Tag      string `json:"tag,omitempty"`
	ListType string `json:"listType,omitempty"`
	Checked  *bool  `json:"checked,omitempty"`
	Value    int    `json:"value,omitempty"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url,omitempty"`
	AltText  string `json:"altText,omitempty"`
	Header   bool   `json:"headerState,omitempty"`
	Text     string `json:"text,omitempty"`
	Format   Format `json:"format,omitempty"`
	Version  int    `json:"version"`
	Children []Node `json:"children,omitempty"`
}

type Body struct {
	Root Node `json:"root"`
}

// Renderer is safe for concurrent use; build one at start-up and share it.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// MarkdownToBody never fails: any input, including the empty string,
// yields a root with at least one block.
func (r *Renderer) MarkdownToBody(markdown string) Body {
	src := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(src))

	c := &converter{source: src}
	children := c.blocks(doc)
	if len(children) == 0 {
		children = []Node{{Type: "paragraph", Version: nodeVersion}}
	}
	return Body{Root: Node{Type: "root", Version: nodeVersion, Children: children}}
}

// PlainText flattens the body, one line per block.
func (b Body) PlainText() string {
	var sb strings.Builder
	var walk func(n Node)
	walk = func(n Node) {
		if n.Text != "" {
			sb.WriteString(n.Text)
		}
		for _, child := range n.Children {
			walk(child)
		}
		switch n.Type {
		case "paragraph", "heading", "quote", "code", "listitem", "tablerow":
			sb.WriteString("\n")
		case "linebreak", "tablecell":
			sb.WriteString(" ")
		}
	}
	walk(b.Root)
	return strings.TrimSpace(sb.String())
}

// ReadingTime estimates minutes at 200 words per minute, never below one.
func ReadingTime(plain string) int {
	words := len(strings.Fields(plain))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

type converter struct {
	source []byte
}

func (c *converter) blocks(parent ast.Node) []Node {
	var out []Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b, ok := c.block(n); ok {
			out = append(out, b)
		}
	}
	return out
}

func (c *converter) block(n ast.Node) (Node, bool) {
	switch n := n.(type) {
	case *ast.Heading:
		return Node{Type: "heading", Tag: fmt.Sprintf("h%d", n.Level), Version: nodeVersion, Children: c.inlines(n, 0)}, true
	case *ast.Paragraph, *ast.TextBlock:
		return Node{Type: "paragraph", Version: nodeVersion, Children: c.inlines(n, 0)}, true
	case *ast.Blockquote:
		return Node{Type: "quote", Version: nodeVersion, Children: c.quoteInlines(n)}, true
	case *ast.List:
		return c.list(n), true
	case *ast.FencedCodeBlock:
		return c.code(string(n.Language(c.source)), n.Lines()), true
	case *ast.CodeBlock:
		return c.code("", n.Lines()), true
	case *ast.ThematicBreak:
		return Node{Type: "horizontalrule", Version: nodeVersion}, true
	case *ast.HTMLBlock:
		raw := strings.TrimSpace(c.lines(n.Lines()))
		if raw == "" {
			return Node{}, false
		}
		return Node{Type: "paragraph", Version: nodeVersion, Children: []Node{textNode(raw, 0)}}, true
	case *extast.Table:
		return c.table(n), true
	}

	if n.HasChildren() {
		children := c.blocks(n)
		if len(children) == 1 {
			return children[0], true
		}
		if len(children) > 1 {
			return Node{Type: "paragraph", Version: nodeVersion, Children: children}, true
		}
	}
	return Node{}, false
}

func (c *converter) list(l *ast.List) Node {
	listType, tag := "bullet", "ul"
	if l.IsOrdered() {
		listType, tag = "number", "ol"
	}

	node := Node{Type: "list", Tag: tag, Version: nodeVersion}
	value := 1
	if l.IsOrdered() && l.Start > 0 {
		value = l.Start
	}

	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		li := Node{Type: "listitem", Value: value, Version: nodeVersion}
		value++

		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			switch child.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if box, ok := child.FirstChild().(*extast.TaskCheckBox); ok {
					checked := box.IsChecked
					li.Checked = &checked
					listType = "check"
				}
				li.Children = append(li.Children, c.inlines(child, 0)...)
			default:
				if b, ok := c.block(child); ok {
					li.Children = append(li.Children, b)
				}
			}
		}
		node.Children = append(node.Children, li)
	}

	node.ListType = listType
	return node
}

func (c *converter) code(language string, lines *text.Segments) Node {
	return Node{
		Type:     "code",
		Language: language,
		Version:  nodeVersion,
		Children: []Node{textNode(strings.TrimSuffix(c.lines(lines), "\n"), 0)},
	}
}

func (c *converter) table(t *extast.Table) Node {
	node := Node{Type: "table", Version: nodeVersion}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*extast.TableHeader)
		tr := Node{Type: "tablerow", Version: nodeVersion}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			tr.Children = append(tr.Children, Node{
				Type:     "tablecell",
				Header:   header,
				Version:  nodeVersion,
				Children: []Node{{Type: "paragraph", Version: nodeVersion, Children: c.inlines(cell, 0)}},
			})
		}
		node.Children = append(node.Children, tr)
	}
	return node
}

// quoteInlines flattens the paragraphs of a blockquote into one inline run
// separated by line breaks.
func (c *converter) quoteInlines(q *ast.Blockquote) []Node {
	var out []Node
	for child := q.FirstChild(); child != nil; child = child.NextSibling() {
		if len(out) > 0 {
			out = append(out, Node{Type: "linebreak", Version: nodeVersion})
		}
		if child.HasChildren() && child.FirstChild().Type() == ast.TypeInline {
			out = append(out, c.inlines(child, 0)...)
			continue
		}
		out = append(out, textNode(c.plain(child), 0))
	}
	return out
}

func (c *converter) inlines(parent ast.Node, format Format) []Node {
	var out []Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			out = appendText(out, string(n.Segment.Value(c.source)), format)
			if n.HardLineBreak() {
				out = append(out, Node{Type: "linebreak", Version: nodeVersion})
			} else if n.SoftLineBreak() {
				out = appendText(out, " ", format)
			}
		case *ast.String:
			out = appendText(out, string(n.Value), format)
		case *ast.CodeSpan:
			out = appendText(out, c.plain(n), format|FormatCode)
		case *ast.Emphasis:
			f := FormatItalic
			if n.Level >= 2 {
				f = FormatBold
			}
			out = append(out, c.inlines(n, format|f)...)
		case *extast.Strikethrough:
			out = append(out, c.inlines(n, format|FormatStrikethrough)...)
		case *ast.Link:
			out = append(out, Node{Type: "link", URL: string(n.Destination), Version: nodeVersion, Children: c.inlines(n, format)})
		case *ast.AutoLink:
			out = append(out, Node{
				Type:     "link",
				URL:      string(n.URL(c.source)),
				Version:  nodeVersion,
				Children: []Node{textNode(string(n.Label(c.source)), format)},
			})
		case *ast.Image:
			out = append(out, Node{Type: "image", URL: string(n.Destination), AltText: c.plain(n), Version: nodeVersion})
		case *ast.RawHTML:
			var sb strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				sb.Write(seg.Value(c.source))
			}
			out = appendText(out, sb.String(), format)
		case *extast.TaskCheckBox:
		default:
			out = append(out, c.inlines(n, format)...)
		}
	}
	return out
}

func (c *converter) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(c.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString(" ")
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func (c *converter) lines(lines *text.Segments) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.source))
	}
	return sb.String()
}

func textNode(s string, format Format) Node {
	return Node{Type: "text", Text: s, Format: format, Version: nodeVersion}
}

// appendText merges adjacent runs that share a format.
func appendText(out []Node, s string, format Format) []Node {
	if s == "" {
		return out
	}
	if last := len(out) - 1; last >= 0 && out[last].Type == "text" && out[last].Format == format {
		out[last].Text += s
		return out
	}
	return append(out, textNode(s, format))
}
