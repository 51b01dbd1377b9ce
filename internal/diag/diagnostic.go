package diag

import "fmt"

// Location points into a scope script: the file plus a dotted path to the
// offending table, e.g. `scope[main].put[2]`.
type Location struct {
	File string
	Path string
}

func (l Location) String() string {
	switch {
	case l.File == "" && l.Path == "":
		return "<unknown>"
	case l.Path == "":
		return l.File
	case l.File == "":
		return l.Path
	}
	return fmt.Sprintf("%s:%s", l.File, l.Path)
}

type Note struct {
	Where Location
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary Location, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(where Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Where: where, Msg: msg})
	return d
}
