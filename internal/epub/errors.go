package epub

import "errors"

var (
	// ErrMalformedContainer indicates META-INF/container.xml is missing,
	// unparsable, or names no rootfile.
	ErrMalformedContainer = errors.New("epub: malformed container")

	// ErrMalformedManifest indicates the OPF has no usable manifest.
	ErrMalformedManifest = errors.New("epub: malformed manifest")

	// ErrUnknownIDRef indicates a spine itemref whose idref is not declared
	// in the manifest.
	ErrUnknownIDRef = errors.New("epub: spine idref not in manifest")

	// ErrNoDocument indicates XML input without a root element.
	ErrNoDocument = errors.New("epub: no root element")
)
