package epub

import (
	"testing"
)

func opfWithMetadata(metadata string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
` + metadata + `
  </metadata>
  <manifest><item id="c1" href="c1.xhtml"/></manifest>
  <spine><itemref idref="c1"/></spine>
</package>`)
}

func assertRecords(t *testing.T, got, want []Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExtractMetadata(t *testing.T) {
	data := opfWithMetadata(`
    <dc:title>A Tale</dc:title>
    <dc:creator opf:role="aut">Jane &amp; Doe</dc:creator>
    <dc:contributor>Ed Itor</dc:contributor>
    <dc:publisher>Pub House</dc:publisher>
    <dc:date opf:event="publication">2019-05-01</dc:date>
    <dc:identifier id="uid">urn:isbn:123</dc:identifier>
    <dc:language>en</dc:language>
    <dc:subject>Fiction</dc:subject>
    <dc:rights>All rights reserved</dc:rights>
    <dc:subtitle>Not a title</dc:subtitle>`)

	assertRecords(t, ExtractMetadata(data, MetadataOptions{}), []Record{
		{"Title", "A Tale"},
		{"Creator", "Jane & Doe"},
		{"Contributor", "Ed Itor"},
		{"Publisher", "Pub House"},
		{"Date", "2019"},
		{"Identifier", "urn:isbn:123"},
		{"Language", "en"},
		{"Subject", "Fiction"},
	})
}

func TestExtractMetadata_Date(t *testing.T) {
	tests := map[string]string{
		"2019-05-01":           "2019",
		"1999":                 "1999",
		"2001-01-01T10:00:00Z": "2001",
	}
	for in, want := range tests {
		records := ExtractMetadata(opfWithMetadata("<dc:date>"+in+"</dc:date>"), MetadataOptions{})
		assertRecords(t, records, []Record{{"Date", want}})
	}
}

func TestExtractMetadata_Description(t *testing.T) {
	data := opfWithMetadata(`<dc:description>&lt;p&gt;Tom &amp;amp; Jerry&lt;/p&gt;</dc:description>`)

	assertRecords(t, ExtractMetadata(data, MetadataOptions{}), []Record{
		{"Description", "Tom & Jerry"},
	})
}

func TestExtractMetadata_HTMLEntityInText(t *testing.T) {
	data := opfWithMetadata(`<dc:title>Caf&eacute; &#8212; Menu</dc:title>`)

	assertRecords(t, ExtractMetadata(data, MetadataOptions{}), []Record{
		{"Title", "Café — Menu"},
	})
}

func TestExtractMetadata_SkipsEmpty(t *testing.T) {
	data := opfWithMetadata(`<dc:title>   </dc:title><dc:creator/><dc:language>fr</dc:language>`)

	assertRecords(t, ExtractMetadata(data, MetadataOptions{}), []Record{
		{"Language", "fr"},
	})
}

func TestExtractMetadata_Calibre(t *testing.T) {
	data := opfWithMetadata(`
    <dc:title>Book</dc:title>
    <meta name="calibre:series" content="The Saga"/>
    <meta name="calibre:series_index" content="3.0"/>
    <meta name="calibre:title_sort" content="Book, The"/>
    <meta name="calibre:timestamp" content="2020-01-01"/>
    <meta property="calibre:series">Other Saga</meta>
    <meta name="cover" content="cover-image"/>`)

	t.Run("disabled", func(t *testing.T) {
		assertRecords(t, ExtractMetadata(data, MetadataOptions{}), []Record{
			{"Title", "Book"},
		})
	})

	t.Run("enabled", func(t *testing.T) {
		assertRecords(t, ExtractMetadata(data, MetadataOptions{Calibre: true}), []Record{
			{"Title", "Book"},
			{"Calibre series", "The Saga"},
			{"Calibre series index", "3"},
			{"Calibre title sort", "Book, The"},
			{"Calibre series", "Other Saga"},
		})
	})
}

func TestExtractMetadata_NeverFails(t *testing.T) {
	tests := map[string]string{
		"not xml":     "<<<",
		"empty":       "",
		"no metadata": `<package><manifest/></package>`,
		"empty block": `<package><metadata/></package>`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ExtractMetadata([]byte(in), MetadataOptions{Calibre: true}); len(got) != 0 {
				t.Errorf("ExtractMetadata() = %v, want none", got)
			}
		})
	}
}

func TestExtractMetadata_NonUTF8(t *testing.T) {
	// "Café" in ISO-8859-1.
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<package><metadata><dc:title xmlns:dc=\"http://purl.org/dc/elements/1.1/\">Caf\xe9</dc:title></metadata></package>")

	assertRecords(t, ExtractMetadata(data, MetadataOptions{}), []Record{
		{"Title", "Café"},
	})
}
