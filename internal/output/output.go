// Package output renders chatsift results for the terminal: styled when
// writing to an interactive TTY, plain when piped or when color is off.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Writer renders formatted output. Write errors are ignored on purpose;
// there is nothing sensible to do about a failing terminal.
type Writer struct {
	out    io.Writer
	styles Styles
	width  int
	quiet  bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithColorMode sets the color decision: "always", "never", or "auto"
// (color only on an interactive terminal without NO_COLOR set).
func WithColorMode(mode string) Option {
	return func(w *Writer) {
		switch mode {
		case "always":
			w.styles = DefaultStyles()
		case "never":
			w.styles = NoColorStyles()
		default:
			w.styles = GetStyles(!IsTTY(w.out) || DetectNoColor())
		}
	}
}

// WithWidth forces the render width. Zero keeps the default.
func WithWidth(width int) Option {
	return func(w *Writer) {
		if width > 0 {
			w.width = width
		}
	}
}

// WithQuiet drops status decorations: success and warning lines and the
// progress indicator. Results and errors still print.
func WithQuiet(quiet bool) Option {
	return func(w *Writer) {
		w.quiet = quiet
	}
}

// defaultWidth is used when the terminal width is unknown.
const defaultWidth = 100

// New creates a Writer over out. Default is auto color and default width.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{out: out, width: defaultWidth}
	w.styles = GetStyles(!IsTTY(out) || DetectNoColor())
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Styles exposes the resolved styles for callers composing their own lines.
func (w *Writer) Styles() Styles {
	return w.styles
}

// Width returns the render width.
func (w *Writer) Width() int {
	return w.width
}

// Print writes msg verbatim with a trailing newline.
func (w *Writer) Print(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Printf writes a formatted line.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Success prints a success message. Quiet writers say nothing.
func (w *Writer) Success(msg string) {
	if w.quiet {
		return
	}
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render("✓ "+msg))
}

// Warning prints a warning message. Quiet writers say nothing.
func (w *Writer) Warning(msg string) {
	if w.quiet {
		return
	}
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render("! "+msg))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render("✗ "+msg))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON pretty-prints v, for --json output.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Progress draws an in-place progress line for long scans. Call Done when
// finished to terminate the line. Quiet writers say nothing.
func (w *Writer) Progress(count int, msg string) {
	if w.quiet {
		return
	}
	_, _ = fmt.Fprintf(w.out, "\r%s %s", w.styles.Meta.Render(fmt.Sprintf("%6d", count)), msg)
}

// Done terminates an in-place progress line.
func (w *Writer) Done() {
	if w.quiet {
		return
	}
	_, _ = fmt.Fprint(w.out, "\r\033[K")
}

// Rule prints a horizontal separator sized to the render width.
func (w *Writer) Rule() {
	_, _ = fmt.Fprintln(w.out, w.styles.Separator.Render(strings.Repeat("─", w.width)))
}

// IsTTY reports whether out is an interactive terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor reports whether NO_COLOR is set, per no-color.org.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
