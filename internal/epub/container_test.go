package epub

import (
	"errors"
	"testing"
)

func TestFindRootfile(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "standard",
			xml:  testContainerXML,
			want: "OEBPS/content.opf",
		},
		{
			name: "prefixed elements",
			xml: `<?xml version="1.0"?>
<ocf:container xmlns:ocf="urn:oasis:names:tc:opendocument:xmlns:container" version="1.0">
  <ocf:rootfiles>
    <ocf:rootfile full-path="book.opf" media-type="application/oebps-package+xml"/>
  </ocf:rootfiles>
</ocf:container>`,
			want: "book.opf",
		},
		{
			name: "first rootfile lacks full-path",
			xml: `<container><rootfiles>
  <rootfile media-type="application/oebps-package+xml"/>
  <rootfile full-path="second.opf"/>
</rootfiles></container>`,
			want: "second.opf",
		},
		{
			name: "first rootfile wins",
			xml: `<container><rootfiles>
  <rootfile full-path="a.opf"/>
  <rootfile full-path="b.opf"/>
</rootfiles></container>`,
			want: "a.opf",
		},
		{
			name: "utf-8 bom",
			xml:  "\xEF\xBB\xBF" + testContainerXML,
			want: "OEBPS/content.opf",
		},
		{
			name: "surrounding whitespace",
			xml:  `<container><rootfiles><rootfile full-path="  OPS/package.opf "/></rootfiles></container>`,
			want: "OPS/package.opf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRootfile([]byte(tt.xml))
			if err != nil {
				t.Fatalf("FindRootfile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FindRootfile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindRootfile_Malformed(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"empty input", ""},
		{"not xml", "this is not xml <<<"},
		{"no rootfiles", `<container></container>`},
		{"no rootfile", `<container><rootfiles></rootfiles></container>`},
		{"no full-path", `<container><rootfiles><rootfile media-type="x"/></rootfiles></container>`},
		{"empty full-path", `<container><rootfiles><rootfile full-path=""/></rootfiles></container>`},
		{"similar tag name", `<container><rootfilesx><rootfile full-path="a.opf"/></rootfilesx></container>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindRootfile([]byte(tt.xml))
			if !errors.Is(err, ErrMalformedContainer) {
				t.Fatalf("FindRootfile() error = %v, want ErrMalformedContainer", err)
			}
		})
	}
}

func TestLocalName(t *testing.T) {
	tests := map[string]string{
		"manifest":     "manifest",
		"opf:manifest": "manifest",
		"dc:title":     "title",
		"a:b:c":        "c",
		"":             "",
	}
	for in, want := range tests {
		if got := localName(in); got != want {
			t.Errorf("localName(%q) = %q, want %q", in, got, want)
		}
	}
}
