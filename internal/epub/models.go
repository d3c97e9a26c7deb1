package epub

// Package is the part of an OPF document needed to find the reading order.
type Package struct {
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in declaration order
	Spine         []SpineItem
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID        string
	Href      string // as written in the OPF, still URL-encoded
	MediaType string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// ReadingOrder is the outcome of resolving a spine against the filesystem.
type ReadingOrder struct {
	ContentDir string        // directory holding the OPF
	Paths      []string      // canonical content paths, in spine order
	Skipped    []SkippedItem // spine entries that could not be used
}

// SkippedItem is a spine entry left out of a ReadingOrder.
type SkippedItem struct {
	IDRef string
	Href  string // empty when the idref was not in the manifest
	Err   error
}

// Record is one labelled metadata value, e.g. {"Creator", "Jane Doe"}.
type Record struct {
	Label string
	Text  string
}

// MetadataOptions controls which metadata fields are extracted.
type MetadataOptions struct {
	// Calibre enables calibre:series, calibre:series_index and
	// calibre:title_sort <meta> fields.
	Calibre bool
}
