package epub

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/microcosm-cc/bluemonday"
)

// dcLabels maps Dublin Core element names to the labels they are printed with.
var dcLabels = map[string]string{
	"creator":     "Creator",
	"publisher":   "Publisher",
	"contributor": "Contributor",
	"identifier":  "Identifier",
	"date":        "Date",
	"description": "Description",
	"subject":     "Subject",
	"language":    "Language",
	"title":       "Title",
}

// calibreLabels maps calibre <meta> names to their labels.
var calibreLabels = map[string]string{
	"calibre:series":       "Calibre series",
	"calibre:series_index": "Calibre series index",
	"calibre:title_sort":   "Calibre title sort",
}

var descriptionPolicy = bluemonday.StrictPolicy()

// ExtractMetadata returns the labelled metadata fields of an OPF document in
// document order. It never fails: an unparsable document or a missing
// <metadata> yields nil, and unusable fields are skipped.
func ExtractMetadata(opfData []byte, opts MetadataOptions) []Record {
	root, err := parseXML(opfData)
	if err != nil {
		return nil
	}
	metadata := firstChild(root, "metadata")
	if metadata == nil {
		return nil
	}

	var records []Record
	for _, el := range metadata.ChildElements() {
		name := localName(el.FullTag())

		if label, ok := dcLabels[name]; ok {
			if text, ok := dcText(name, el); ok {
				records = append(records, Record{Label: label, Text: text})
			}
			continue
		}

		if name == "meta" && opts.Calibre {
			if rec, ok := calibreRecord(el); ok {
				records = append(records, rec)
			}
		}
	}
	return records
}

// dcText returns the decoded text of a Dublin Core element.
func dcText(name string, el *etree.Element) (string, bool) {
	text := strings.TrimSpace(el.Text())
	if text == "" {
		return "", false
	}

	switch name {
	case "date":
		// Year only.
		text, _, _ = strings.Cut(text, "-")
	case "description":
		// Descriptions often carry (escaped) HTML markup.
		text = descriptionPolicy.Sanitize(text)
	}

	text = strings.TrimSpace(DecodeEntities(text))
	return text, text != ""
}

// calibreRecord reads a calibre <meta name="..." content="..."/> element.
// EPUB 3 style <meta property="...">value</meta> is accepted as well.
func calibreRecord(el *etree.Element) (Record, bool) {
	var key, content string
	hasContent := false
	for _, a := range el.Attr {
		switch a.Key {
		case "name", "property":
			key = a.Value
		case "content":
			content = a.Value
			hasContent = true
		}
	}
	if !hasContent {
		content = el.Text()
	}

	label, ok := calibreLabels[key]
	if !ok {
		return Record{}, false
	}

	if key == "calibre:series_index" {
		content, _, _ = strings.Cut(content, ".")
	}

	content = strings.TrimSpace(DecodeEntities(content))
	if content == "" {
		return Record{}, false
	}
	return Record{Label: label, Text: content}, true
}
