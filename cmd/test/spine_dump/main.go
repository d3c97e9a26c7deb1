// Test program for container, OPF and spine resolution
//
// Usage:
//   go run ./cmd/test/spine_dump/main.go <epub-file-path>
//
// Example:
//   go run ./cmd/test/spine_dump/main.go ~/Downloads/sample.epub
//
// This program will:
// - Unpack the EPUB into a sandbox
// - Locate the OPF through META-INF/container.xml
// - Display metadata records (calibre fields included)
// - List manifest items in declaration order
// - Show the spine and the content paths it resolves to
// - List spine items that were skipped and why

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuanying/epub2txt/internal/epub"
	"github.com/yuanying/epub2txt/internal/sandbox"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <epub-file-path>\n", os.Args[0])
		os.Exit(1)
	}

	if err := dump(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dump(epubPath string) error {
	fmt.Println("=== EPUB Spine Dump ===")
	fmt.Printf("File: %s\n\n", epubPath)

	manager := sandbox.NewManager(sandbox.Options{})
	sb, err := manager.Acquire()
	if err != nil {
		return err
	}
	defer sb.Release()

	if err := manager.Extract(sb, epubPath); err != nil {
		return err
	}
	fmt.Printf("✓ Unpacked into %s\n", sb.Root())

	reader, err := epub.Open(sb.Root())
	if err != nil {
		return err
	}
	rel, _ := filepath.Rel(reader.Root(), reader.OPFPath())
	fmt.Printf("✓ OPF found: %s\n\n", rel)

	fmt.Println("--- Metadata ---")
	for _, r := range reader.Metadata(epub.MetadataOptions{Calibre: true}) {
		fmt.Printf("%-22s %s\n", r.Label+":", r.Text)
	}

	opfData, err := os.ReadFile(reader.OPFPath())
	if err != nil {
		return err
	}
	pkg, err := epub.ParsePackage(opfData)
	if err != nil {
		fmt.Printf("\nManifest unusable: %v\n", err)
		return nil
	}

	fmt.Printf("\n--- Manifest ---\n")
	fmt.Printf("Total items: %d\n\n", len(pkg.Manifest))
	for _, id := range pkg.ManifestOrder {
		item := pkg.Manifest[id]
		fmt.Printf("  %s: %s (%s)\n", id, item.Href, item.MediaType)
	}

	fmt.Printf("\n--- Spine ---\n")
	fmt.Printf("Total items: %d\n\n", len(pkg.Spine))
	for i, item := range pkg.Spine {
		linear := "yes"
		if !item.Linear {
			linear = "no"
		}
		fmt.Printf("  %d. %s (linear: %s)\n", i+1, item.IDRef, linear)
	}

	order, err := reader.ReadingOrder()
	if err != nil {
		return err
	}

	fmt.Println("\n--- Reading order ---")
	for i, path := range order.Paths {
		rel, _ := filepath.Rel(reader.ContentDir(), path)
		fmt.Printf("  %d. %s\n", i+1, rel)
	}

	if len(order.Skipped) > 0 {
		fmt.Println("\n--- Skipped ---")
		for _, s := range order.Skipped {
			fmt.Printf("  %s (%s): %v\n", s.IDRef, s.Href, s.Err)
		}
	}

	fmt.Println("\n=== Done ===")
	return nil
}
