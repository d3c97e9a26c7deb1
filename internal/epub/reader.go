package epub

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuanying/epub2txt/internal/pathguard"
)

// Reader provides access to an EPUB that has been unpacked into a directory.
// Every file it opens is first checked to lie inside that directory.
type Reader struct {
	root    string
	opfPath string
	opfData []byte
}

// Open locates and reads the package document of the EPUB unpacked at root.
//
// A missing or unusable container.xml yields ErrMalformedContainer. A
// rootfile that resolves outside root yields pathguard.ErrPathTraversal.
func Open(root string) (*Reader, error) {
	canonRoot, err := pathguard.Canonical(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	containerPath, err := pathguard.Resolve(filepath.FromSlash(ContainerPath), canonRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedContainer, ContainerPath, err)
	}
	containerData, err := os.ReadFile(containerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedContainer, err)
	}

	rel, err := FindRootfile(containerData)
	if err != nil {
		return nil, err
	}

	opfPath, err := pathguard.Resolve(filepath.FromSlash(rel), canonRoot)
	if err != nil {
		return nil, fmt.Errorf("bad OPF rootfile %q: %w", rel, err)
	}

	opfData, err := os.ReadFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OPF %s: %w", opfPath, err)
	}

	return &Reader{
		root:    canonRoot,
		opfPath: opfPath,
		opfData: opfData,
	}, nil
}

// Root returns the canonical directory the EPUB was unpacked into.
func (r *Reader) Root() string {
	return r.root
}

// OPFPath returns the canonical path of the package document.
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// ContentDir returns the directory holding the package document. Content
// paths are resolved against, and confined to, this directory.
func (r *Reader) ContentDir() string {
	return filepath.Dir(r.opfPath)
}

// Metadata returns the package metadata records.
func (r *Reader) Metadata(opts MetadataOptions) []Record {
	return ExtractMetadata(r.opfData, opts)
}

// ReadingOrder resolves the spine to content file paths.
func (r *Reader) ReadingOrder() (*ReadingOrder, error) {
	return ResolveReadingOrder(r.opfData, r.opfPath)
}
