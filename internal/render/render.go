package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// ErrRender is returned when a content document cannot be converted to text.
var ErrRender = errors.New("render failed")

// Options controls how text is laid out.
type Options struct {
	Width int  // Wrap width in display columns; 0 disables wrapping
	ASCII bool // Fold output to 7-bit ASCII
}

// TextRenderer converts XHTML content documents to plain text.
type TextRenderer struct {
	opts Options
}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer(opts Options) *TextRenderer {
	return &TextRenderer{opts: opts}
}

// RenderFile writes the plain text rendering of the XHTML file at path to w.
// Failures to read or parse the file wrap ErrRender; errors writing to w are
// returned as they are.
func (r *TextRenderer) RenderFile(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, path, err)
	}

	out := NewWriter(w, r.opts)
	b := &textBuilder{out: out}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	for _, n := range root.Nodes {
		b.walk(n)
	}
	b.flush()

	return out.Err()
}

// selfClosingRe matches XML-style empty elements such as <title/> or
// <a id="p1"/>, which an HTML parser would treat as unclosed start tags.
var selfClosingRe = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_-]*)((?:\s[^<>]*?)?)\s*/>`)

// voidElements never have content, so "<br/>" is already fine.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// xmlEncodingRe reads the encoding from an XML declaration.
var xmlEncodingRe = regexp.MustCompile(`^<\?xml[^>]*\sencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// parseDocument decodes and parses one XHTML document.
func parseDocument(data []byte) (*goquery.Document, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r, err := contentReader(data)
	if err != nil {
		return nil, err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	decoded = selfClosingRe.ReplaceAllFunc(decoded, func(m []byte) []byte {
		sub := selfClosingRe.FindSubmatch(m)
		name := string(sub[1])
		if voidElements[strings.ToLower(name)] {
			return m
		}
		return []byte("<" + name + string(sub[2]) + "></" + name + ">")
	})

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}
	stripNonContent(doc)
	return doc, nil
}

// contentReader returns a UTF-8 reader for data. The XML declaration wins;
// otherwise valid UTF-8 is taken as is and anything else is sniffed.
func contentReader(data []byte) (io.Reader, error) {
	head := data
	if len(head) > 256 {
		head = head[:256]
	}
	if m := xmlEncodingRe.FindSubmatch(head); m != nil {
		r, err := charset.NewReaderLabel(string(m[1]), bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", m[1], err)
		}
		return r, nil
	}
	if utf8.Valid(data) {
		return bytes.NewReader(data), nil
	}
	return charset.NewReader(bytes.NewReader(data), "")
}

// stripNonContent removes elements that are never displayed as text.
func stripNonContent(doc *goquery.Document) {
	doc.Find("head, script, style, noscript, template, svg, math, [hidden]").Remove()
	doc.Find(`[aria-hidden="true"]`).Remove()
}

// blockElements start and end a paragraph.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Caption: true, atom.Dd: true, atom.Details: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true,
	atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Summary: true, atom.Table: true, atom.Tr: true,
	atom.Ul: true,
}

// textBuilder collects the text of one paragraph at a time.
type textBuilder struct {
	out   *Writer
	lines []string
	cur   strings.Builder
	pre   int
}

func (b *textBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.cur.WriteString(n.Data)
		return
	case html.DocumentNode:
		b.walkChildren(n)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Br:
		b.lineBreak()
		return
	case atom.Td, atom.Th:
		b.walkChildren(n)
		b.cur.WriteByte(' ')
		return
	case atom.Pre:
		b.flush()
		b.pre++
		b.walkChildren(n)
		b.flush()
		b.pre--
		return
	}

	if !blockElements[n.DataAtom] {
		b.walkChildren(n)
		return
	}

	b.flush()
	if n.DataAtom == atom.Li {
		b.cur.WriteString("- ")
	}
	b.walkChildren(n)
	b.flush()
}

func (b *textBuilder) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

func (b *textBuilder) lineBreak() {
	b.lines = append(b.lines, b.cur.String())
	b.cur.Reset()
}

// flush writes the pending paragraph. Write errors stay in the Writer.
func (b *textBuilder) flush() {
	b.lineBreak()
	lines := b.lines
	b.lines = nil

	if b.pre == 0 {
		_ = b.out.WriteParagraph(lines...)
		return
	}

	text := strings.Trim(strings.Join(lines, "\n"), "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		_ = b.out.WriteLine(strings.TrimRight(line, " \t\r"))
	}
	_ = b.out.WriteLine("")
}
