package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"kestrel/internal/buffer"
)

// PrettyOpts controls diagnostic rendering.
type PrettyOpts struct {
	Color bool
	Notes bool
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgBlue)
	pathColor    = color.New(color.Bold)
)

func severityColor(s Severity) *color.Color {
	switch s {
	case SevError:
		return errorColor
	case SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func paint(c *color.Color, on bool, s string) string {
	if !on {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// Pretty writes one line per diagnostic:
//
//	<file>:<path>: <SEV> <CODE>: <message>
//	    note: <file>:<path>: <message>
//
// followed by a summary line. Call bag.Sort() first for stable output.
func Pretty(w io.Writer, bag *Bag, opts PrettyOpts) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	out := buffer.New()
	for _, d := range bag.Items() {
		out.Printf("%s: %s %s: %s\n",
			paint(pathColor, opts.Color, d.Primary.String()),
			paint(severityColor(d.Severity), opts.Color, d.Severity.String()),
			d.Code.ID(),
			d.Message,
		)
		if !opts.Notes {
			continue
		}
		for _, n := range d.Notes {
			out.Printf("    %s %s: %s\n", paint(noteColor, opts.Color, "note:"), n.Where, n.Msg)
		}
	}
	errs, warns := bag.Counts()
	out.Printf("%d error(s), %d warning(s)", errs, warns)
	if bag.Dropped() > 0 {
		out.Printf(", %d more not shown", bag.Dropped())
	}
	out.AppendByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

// Short renders diagnostics without color or summary, one per line,
// suitable for golden comparisons in tests.
func Short(bag *Bag) string {
	out := buffer.New()
	for i, d := range bag.Items() {
		if i > 0 {
			out.AppendByte('\n')
		}
		out.Printf("%s %s %s %s", d.Severity, d.Code.ID(), d.Primary, d.Message)
	}
	return out.Body()
}

// Error adapts a bag with errors to the error interface.
type Error struct{ Bag *Bag }

func (e *Error) Error() string {
	errs, _ := e.Bag.Counts()
	for _, d := range e.Bag.Items() {
		if d.Severity == SevError {
			if errs == 1 {
				return fmt.Sprintf("%s: %s", d.Primary, d.Message)
			}
			return fmt.Sprintf("%s: %s (and %d more error(s))", d.Primary, d.Message, errs-1)
		}
	}
	return "no errors"
}
