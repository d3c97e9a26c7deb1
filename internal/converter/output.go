package converter

import (
	"io"

	"github.com/yuanying/epub2txt/internal/epub"
	"github.com/yuanying/epub2txt/internal/render"
)

// output writes the metadata header and the content documents, in that
// order, to the pipeline's output stream.
type output struct {
	w         io.Writer
	text      *render.Writer
	renderer  ContentRenderer
	separator string
}

func newOutput(opts ConvertOptions) *output {
	return &output{
		w:         opts.Output,
		text:      render.NewWriter(opts.Output, opts.Render),
		renderer:  opts.Renderer,
		separator: opts.SectionSeparator,
	}
}

// writeMetadata prints one "Label: value" line per record. A blank line
// separates the header from the text when text follows.
func (o *output) writeMetadata(records []epub.Record, textFollows bool) error {
	for _, r := range records {
		if err := o.text.WriteWrapped(r.Label + ": " + r.Text); err != nil {
			return err
		}
	}
	if len(records) > 0 && textFollows {
		return o.text.WriteLine("")
	}
	return nil
}

// writeContent prints the section separator, if any, followed by the text
// of the content document at path.
func (o *output) writeContent(path string) error {
	if o.separator != "" {
		if err := o.text.WriteLine(o.separator); err != nil {
			return err
		}
	}
	return o.renderer.RenderFile(o.w, path)
}
