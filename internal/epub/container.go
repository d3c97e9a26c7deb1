package epub

import (
	"fmt"
	"strings"
)

// ContainerPath is the well-known location of container.xml in an EPUB.
const ContainerPath = "META-INF/container.xml"

// FindRootfile parses container.xml and returns the full-path of the first
// rootfile that carries a non-empty one. The returned path is relative to
// the archive root and has not been validated.
func FindRootfile(data []byte) (string, error) {
	root, err := parseXML(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedContainer, err)
	}

	for _, rootfiles := range childrenNamed(root, "rootfiles") {
		for _, rf := range childrenNamed(rootfiles, "rootfile") {
			fullPath, ok := attr(rf, "full-path")
			if !ok {
				continue
			}
			if fullPath = strings.TrimSpace(fullPath); fullPath != "" {
				return fullPath, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no rootfile with a full-path attribute", ErrMalformedContainer)
}
