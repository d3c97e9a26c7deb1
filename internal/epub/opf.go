package epub

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/yuanying/epub2txt/internal/pathguard"
)

// ParsePackage parses an OPF document into its manifest and spine.
// It fails with ErrMalformedManifest when the document does not parse or
// has no manifest items.
func ParsePackage(data []byte) (*Package, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}

	manifest := firstChild(root, "manifest")
	if manifest == nil {
		return nil, fmt.Errorf("%w: no manifest element", ErrMalformedManifest)
	}
	if len(manifest.ChildElements()) == 0 {
		return nil, fmt.Errorf("%w: manifest is empty", ErrMalformedManifest)
	}

	pkg := &Package{
		Manifest: make(map[string]ManifestItem),
	}

	for _, el := range childrenNamed(manifest, "item") {
		id, _ := attr(el, "id")
		if id == "" {
			continue
		}
		// Ids are unique; if a broken OPF repeats one, the first declaration wins.
		if _, dup := pkg.Manifest[id]; dup {
			continue
		}
		href, _ := attr(el, "href")
		mediaType, _ := attr(el, "media-type")
		pkg.Manifest[id] = ManifestItem{
			ID:        id,
			Href:      href,
			MediaType: mediaType,
		}
		pkg.ManifestOrder = append(pkg.ManifestOrder, id)
	}

	if spine := firstChild(root, "spine"); spine != nil {
		for _, el := range childrenNamed(spine, "itemref") {
			idref, ok := attr(el, "idref")
			if !ok {
				continue
			}
			linear, _ := attr(el, "linear")
			pkg.Spine = append(pkg.Spine, SpineItem{
				IDRef:  idref,
				Linear: linear != "no",
			})
		}
	}

	return pkg, nil
}

// ResolveReadingOrder turns the spine of the OPF at opfPath into canonical
// content file paths. Every path is checked to lie inside the directory that
// holds the OPF. Entries that fail the lookup or the check are reported in
// Skipped and do not stop the rest of the spine from resolving.
func ResolveReadingOrder(opfData []byte, opfPath string) (*ReadingOrder, error) {
	pkg, err := ParsePackage(opfData)
	if err != nil {
		return nil, err
	}

	order := &ReadingOrder{
		ContentDir: filepath.Dir(opfPath),
	}

	for _, ref := range pkg.Spine {
		item, ok := pkg.Manifest[ref.IDRef]
		if !ok {
			order.Skipped = append(order.Skipped, SkippedItem{
				IDRef: ref.IDRef,
				Err:   fmt.Errorf("%w: %q", ErrUnknownIDRef, ref.IDRef),
			})
			continue
		}

		rel := decodeHref(item.Href)
		candidate := filepath.Join(order.ContentDir, filepath.FromSlash(rel))
		resolved, err := pathguard.Resolve(candidate, order.ContentDir)
		if err != nil {
			order.Skipped = append(order.Skipped, SkippedItem{
				IDRef: ref.IDRef,
				Href:  item.Href,
				Err:   err,
			})
			continue
		}

		order.Paths = append(order.Paths, resolved)
	}

	return order, nil
}

// decodeHref turns a manifest href into a relative filesystem path. Hrefs
// are URL-encoded; a fragment, if any, is dropped. Undecodable escapes are
// left as written.
func decodeHref(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		return decoded
	}
	return href
}
