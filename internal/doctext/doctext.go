// Package doctext turns the documentation tag of model elements, which
// modeling tools store as HTML or Markdown, into plain text for tables.
package doctext

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

var (
	tagRe   = regexp.MustCompile(`(?i)</?(html|body|p|br|div|span|b|i|u|em|strong|ul|ol|li|a|pre|code|h[1-6])\b[^>]*>`)
	spaceRe = regexp.MustCompile(`[ \t\r\f\v]+`)
)

var md = goldmark.New()

// Plain converts documentation to plain text. Paragraphs and list items are
// separated by newlines; runs of blanks collapse.
func Plain(doc string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return ""
	}
	if IsHTML(doc) {
		return FromHTML(doc)
	}
	return FromMarkdown(doc)
}

// IsHTML reports whether doc contains common HTML markup.
func IsHTML(doc string) bool {
	return tagRe.MatchString(doc)
}

// FromHTML extracts the text of an HTML fragment. Unparseable input is
// returned trimmed.
func FromHTML(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return strings.TrimSpace(doc)
	}
	var blocks []string
	var cur strings.Builder
	flush := func() {
		if t := normalize(cur.String()); t != "" {
			blocks = append(blocks, t)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "br":
				flush()
				return
			case "li":
				flush()
				cur.WriteString("- ")
			}
			if isBlock(n.Data) {
				flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && (isBlock(n.Data) || n.Data == "li") {
			flush()
		}
	}
	walk(root)
	flush()
	return strings.Join(blocks, "\n")
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "pre", "blockquote", "ul", "ol", "table", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// FromMarkdown renders the text of a Markdown document without markup.
func FromMarkdown(doc string) string {
	src := []byte(doc)
	root := md.Parser().Parse(text.NewReader(src))
	var blocks []string
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = appendBlocks(blocks, n, src)
	}
	return strings.Join(blocks, "\n")
}

func appendBlocks(blocks []string, n ast.Node, src []byte) []string {
	switch n.Kind() {
	case ast.KindList:
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			var parts []string
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				parts = appendBlocks(parts, c, src)
			}
			if len(parts) > 0 {
				parts[0] = "- " + parts[0]
			}
			blocks = append(blocks, parts...)
		}
		return blocks
	case ast.KindBlockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			blocks = appendBlocks(blocks, c, src)
		}
		return blocks
	case ast.KindThematicBreak:
		return blocks
	}
	if t := normalize(inlineText(n, src)); t != "" {
		blocks = append(blocks, t)
	}
	return blocks
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.Kind() {
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return buf.String()
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.URL(src))
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}

func normalize(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(spaceRe.ReplaceAllString(l, " ")); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, " ")
}
