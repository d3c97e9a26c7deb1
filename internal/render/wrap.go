package render

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Writer writes plain text lines, wrapping and folding them according to
// Options. The first write error is kept and returned by every later call.
type Writer struct {
	w     io.Writer
	width int
	ascii bool
	err   error
}

// NewWriter creates a Writer on top of w.
func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{w: w, width: opts.Width, ascii: opts.ASCII}
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

// WriteLine writes s as a single line without wrapping.
func (w *Writer) WriteLine(s string) error {
	if w.ascii {
		s = ToASCII(s)
	}
	return w.write(s + "\n")
}

// WriteWrapped collapses the whitespace in s and writes it wrapped to the
// configured width. Nothing is written when s is blank.
func (w *Writer) WriteWrapped(s string) error {
	if w.ascii {
		s = ToASCII(s)
	}
	for _, line := range wrap(s, w.width) {
		if err := w.write(line + "\n"); err != nil {
			return err
		}
	}
	return w.err
}

// WriteParagraph writes each line with WriteWrapped followed by a blank
// line. Blank lines are dropped, and a paragraph with no text writes nothing.
func (w *Writer) WriteParagraph(lines ...string) error {
	wrote := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := w.WriteWrapped(line); err != nil {
			return err
		}
		wrote = true
	}
	if !wrote {
		return w.err
	}
	return w.write("\n")
}

func (w *Writer) write(s string) error {
	if w.err != nil {
		return w.err
	}
	_, w.err = io.WriteString(w.w, s)
	return w.err
}

// wrap splits text into lines no wider than width display columns.
// Words are never split unless a single word is wider than width on its own.
// A width of zero or less disables wrapping.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0

	flush := func() {
		if line.Len() > 0 {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
	}

	for _, word := range words {
		ww := runewidth.StringWidth(word)

		if ww > width {
			// Long words (or runs of CJK text) are broken at rune boundaries.
			flush()
			for _, r := range word {
				rw := runewidth.RuneWidth(r)
				if lineWidth > 0 && lineWidth+rw > width {
					flush()
				}
				line.WriteRune(r)
				lineWidth += rw
			}
			continue
		}

		if lineWidth > 0 && lineWidth+1+ww > width {
			flush()
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += ww
	}
	flush()

	return lines
}
