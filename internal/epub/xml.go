package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseXML parses an XML document and returns its root element.
// Non UTF-8 documents are decoded according to their declaration.
// Unknown entities such as &eacute; are kept as literal text instead of
// failing the parse.
func parseXML(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	doc.ReadSettings.Permissive = true

	if err := doc.ReadFromBytes(bytes.TrimPrefix(data, utf8BOM)); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, ErrNoDocument
	}
	return root, nil
}

// localName strips a namespace prefix: "opf:manifest" -> "manifest".
func localName(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// hasLocalName reports whether el's tag, ignoring any prefix, is name.
func hasLocalName(el *etree.Element, name string) bool {
	return localName(el.FullTag()) == name
}

// firstChild returns the first direct child of el with the given local name.
func firstChild(el *etree.Element, name string) *etree.Element {
	for _, c := range el.ChildElements() {
		if hasLocalName(c, name) {
			return c
		}
	}
	return nil
}

// childrenNamed returns the direct children of el with the given local name,
// in document order.
func childrenNamed(el *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if hasLocalName(c, name) {
			out = append(out, c)
		}
	}
	return out
}

// attr returns the value of the first attribute whose key, ignoring any
// prefix, is key.
func attr(el *etree.Element, key string) (string, bool) {
	for _, a := range el.Attr {
		if localName(a.Key) == key {
			return a.Value, true
		}
	}
	return "", false
}
