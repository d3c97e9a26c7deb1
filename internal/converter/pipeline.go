package converter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yuanying/epub2txt/internal/epub"
	"github.com/yuanying/epub2txt/internal/render"
	"github.com/yuanying/epub2txt/internal/sandbox"
)

// ErrInputUnreadable is returned when the input file cannot be opened.
var ErrInputUnreadable = errors.New("file not found or not readable")

// ContentRenderer writes the text of one content document to w.
type ContentRenderer interface {
	RenderFile(w io.Writer, path string) error
}

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	InputPath string
	Output    io.Writer // Defaults to os.Stdout

	Meta             bool   // Print the metadata header
	NoText           bool   // Skip the content documents
	Calibre          bool   // Include calibre metadata fields
	SectionSeparator string // Line printed before each content document

	Render   render.Options
	Renderer ContentRenderer  // Defaults to a render.TextRenderer
	Sandbox  *sandbox.Manager // Defaults to a manager on os.TempDir()
	Logger   *slog.Logger     // Defaults to discarding logs
}

// Report summarizes one conversion.
type Report struct {
	Input   string
	Items   int  // Content documents written
	Skipped int  // Spine items or documents skipped with a warning
	Empty   bool // The spine resolved to no content at all
}

// Degraded reports whether anything was skipped or nothing was found.
func (r *Report) Degraded() bool {
	return r.Skipped > 0 || r.Empty
}

// Pipeline orchestrates the EPUB to text conversion of one input file.
type Pipeline struct {
	Options ConvertOptions
	logger  *slog.Logger
}

// NewPipeline creates a new conversion pipeline.
func NewPipeline(opts ConvertOptions) *Pipeline {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Renderer == nil {
		opts.Renderer = render.NewTextRenderer(opts.Render)
	}
	if opts.Sandbox == nil {
		opts.Sandbox = sandbox.NewManager(sandbox.Options{})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		Options: opts,
		logger:  logger.With("input", opts.InputPath),
	}
}

// Convert executes the conversion pipeline.
//
// The returned error is fatal: the input could not be read or unpacked, or
// its container or package document is unusable. Problems with individual
// spine items are logged, counted in the Report and skipped. The sandbox is
// removed on every path out of Convert.
func (p *Pipeline) Convert() (*Report, error) {
	report := &Report{Input: p.Options.InputPath}

	if err := checkReadable(p.Options.InputPath); err != nil {
		return report, err
	}

	sb, err := p.Options.Sandbox.Acquire()
	if err != nil {
		return report, err
	}
	defer func() {
		if rerr := sb.Release(); rerr != nil {
			p.logger.Warn("failed to remove sandbox", "path", sb.Root(), "err", rerr)
		}
	}()
	p.logger.Debug("sandbox acquired", "path", sb.Root())

	if err := p.Options.Sandbox.Extract(sb, p.Options.InputPath); err != nil {
		return report, err
	}

	reader, err := epub.Open(sb.Root())
	if err != nil {
		return report, fmt.Errorf("failed to open EPUB: %w", err)
	}
	p.logger.Debug("package document located", "opf", reader.OPFPath(), "content_dir", reader.ContentDir())

	out := newOutput(p.Options)

	if p.Options.Meta {
		records := reader.Metadata(epub.MetadataOptions{Calibre: p.Options.Calibre})
		if err := out.writeMetadata(records, !p.Options.NoText); err != nil {
			return report, err
		}
	}

	if p.Options.NoText {
		return report, nil
	}

	order, err := reader.ReadingOrder()
	if err != nil {
		// A broken manifest costs the text, not the metadata already written.
		p.logger.Warn("could not read spine", "err", err)
		report.Skipped++
		report.Empty = true
		return report, nil
	}

	for _, item := range order.Skipped {
		p.logger.Warn("skipping spine item", "idref", item.IDRef, "href", item.Href, "err", item.Err)
		report.Skipped++
	}

	if len(order.Paths) == 0 {
		p.logger.Warn("no readable content in spine")
		report.Empty = true
		return report, nil
	}
	p.logger.Debug("spine resolved", "items", len(order.Paths))

	for _, path := range order.Paths {
		err := out.writeContent(path)
		switch {
		case err == nil:
			report.Items++
		case errors.Is(err, render.ErrRender):
			p.logger.Warn("skipping content document", "path", path, "err", err)
			report.Skipped++
		default:
			return report, fmt.Errorf("failed to write output: %w", err)
		}
	}

	return report, nil
}

// checkReadable verifies that path is a regular file that can be opened.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInputUnreadable, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInputUnreadable, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s: not a regular file", ErrInputUnreadable, path)
	}
	return nil
}
