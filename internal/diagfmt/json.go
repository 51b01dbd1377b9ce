package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"kestrel/internal/diag"
)

// LocationJSON представляет местоположение в скрипте для JSON
type LocationJSON struct {
	File string `json:"file,omitempty"`
	Path string `json:"path,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Dropped     int              `json:"dropped,omitempty"`
}

func formatPath(path string, opts JSONOpts) string {
	if path == "" {
		return ""
	}
	switch opts.PathMode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	case PathModeRelative:
		base := opts.BaseDir
		if base == "" {
			base = "."
		}
		absBase, errBase := filepath.Abs(base)
		absPath, errPath := filepath.Abs(path)
		if errBase == nil && errPath == nil {
			if rel, err := filepath.Rel(absBase, absPath); err == nil {
				return rel
			}
		}
	case PathModeBasename:
		return filepath.Base(path)
	}
	return path
}

func makeLocation(l diag.Location, opts JSONOpts) LocationJSON {
	return LocationJSON{File: formatPath(l.File, opts), Path: l.Path}
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
// Several bags (one per script) are concatenated in order.
func BuildDiagnosticsOutput(bags []*diag.Bag, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}}
	for _, bag := range bags {
		if bag == nil {
			continue
		}
		errs, warns := bag.Counts()
		out.Errors += errs
		out.Warnings += warns
		out.Dropped += bag.Dropped()
		for _, d := range bag.Items() {
			if opts.Max > 0 && len(out.Diagnostics) >= opts.Max {
				out.Dropped++
				continue
			}
			dj := DiagnosticJSON{
				Severity: d.Severity.String(),
				Code:     d.Code.ID(),
				Title:    d.Code.Title(),
				Message:  d.Message,
				Location: makeLocation(d.Primary, opts),
			}
			if opts.IncludeNotes && len(d.Notes) > 0 {
				dj.Notes = make([]NoteJSON, len(d.Notes))
				for j, note := range d.Notes {
					dj.Notes[j] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Where, opts)}
				}
			}
			out.Diagnostics = append(out.Diagnostics, dj)
		}
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bags []*diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bags, opts))
}
