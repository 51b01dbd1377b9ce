package scopescript

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/vmihailenco/msgpack/v5"

	"kestrel/internal/buffer"
)

// Format selects how results are written.
type Format uint8

const (
	FormatText Format = iota
	FormatJSON
	FormatMsgpack
)

// ParseFormat maps a --format value to Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q (want text, json or msgpack)", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "text"
	}
}

// RenderOpts control text output.
type RenderOpts struct {
	Color bool
	// Width caps the key column; 0 means no cap.
	Width int
}

// Render writes results to w in format f.
func Render(w io.Writer, results []*Result, f Format, opts RenderOpts) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(results)
	default:
		buf := buffer.New()
		for i, res := range results {
			if i > 0 {
				buf.AppendByte('\n')
			}
			renderText(buf, res, opts)
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
}

// Decode reads back a msgpack stream written by Render.
func Decode(r io.Reader) ([]*Result, error) {
	var out []*Result
	if err := msgpack.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return out, nil
}

func renderText(buf *buffer.Buffer, res *Result, opts RenderOpts) {
	header := color.New(color.Bold)
	dim := color.New(color.Faint)
	bad := color.New(color.FgRed)
	header.EnableColor()
	dim.EnableColor()
	bad.EnableColor()
	if !opts.Color {
		header.DisableColor()
		dim.DisableColor()
		bad.DisableColor()
	}

	buf.Printf("%s (policy %s)\n", header.Sprint(res.File), res.Policy)
	for _, sv := range res.Scopes {
		buf.Printf("  scope %s", header.Sprint(sv.Name))
		if sv.Parent != "" {
			buf.Printf(" < %s", sv.Parent)
		}
		buf.Printf(" %s\n", dim.Sprintf("[depth %d, local %d, buckets %d]", sv.Depth, sv.Local, sv.Table.Buckets))

		keyWidth := 0
		for _, b := range sv.Bindings {
			keyWidth = max(keyWidth, runewidth.StringWidth(b.Key))
		}
		if opts.Width > 0 {
			keyWidth = min(keyWidth, opts.Width)
		}
		for _, b := range sv.Bindings {
			key := runewidth.FillRight(runewidth.Truncate(b.Key, keyWidth, "…"), keyWidth)
			buf.Printf("    %s = %s", key, buffer.Quoted(b.Value))
			if b.From != sv.Name {
				buf.Printf(" %s", dim.Sprintf("(from %s)", b.From))
			}
			if b.Shadows {
				buf.Printf(" %s", dim.Sprint("(shadows)"))
			}
			buf.AppendByte('\n')
		}
	}
	for _, a := range res.Queries {
		buf.Printf("  query %s.%s -> ", a.Scope, a.Key)
		if a.Found {
			buf.Printf("%s from %s (%d hop(s))", buffer.Quoted(a.Value), a.From, a.Hops)
		} else {
			buf.WriteString("absent")
		}
		if !a.OK {
			buf.Printf(" %s", bad.Sprintf("FAIL (expected %s)", buffer.Quoted(a.Expect)))
		}
		buf.AppendByte('\n')
	}
}
