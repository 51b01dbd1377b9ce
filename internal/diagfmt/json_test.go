package diagfmt

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"kestrel/internal/diag"
)

func TestJSONOutput(t *testing.T) {
	a := diag.NewBag(8)
	a.Add(diag.NewError(diag.ScrUnknownParent, diag.Location{File: filepath.Join("dir", "a.toml"), Path: "scope[b]"}, "unknown parent").
		WithNote(diag.Location{File: filepath.Join("dir", "a.toml"), Path: "scope[a]"}, "declared scopes: a"))
	b := diag.NewBag(1)
	b.Add(diag.New(diag.SevWarning, diag.ScrRemoveMissing, diag.Location{File: "b.toml", Path: "scope[x].remove[0]"}, "nothing removed"))
	b.Add(diag.New(diag.SevInfo, diag.ScrShadow, diag.Location{File: "b.toml"}, "dropped by the bag"))

	var out bytes.Buffer
	err := JSON(&out, []*diag.Bag{a, nil, b}, JSONOpts{PathMode: PathModeBasename, IncludeNotes: true})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var got DiagnosticsOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 || got.Errors != 1 || got.Warnings != 1 || got.Dropped != 1 {
		t.Fatalf("output = %+v", got)
	}
	first := got.Diagnostics[0]
	if first.Code != "SCR2003" || first.Location.File != "a.toml" || len(first.Notes) != 1 {
		t.Fatalf("first = %+v", first)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	bag := diag.NewBag(4)
	for range 3 {
		bag.Add(diag.NewError(diag.QryAbsent, diag.Location{File: "q.toml"}, "absent"))
	}
	got := BuildDiagnosticsOutput([]*diag.Bag{bag}, JSONOpts{Max: 2})
	if got.Count != 2 || got.Dropped != 1 || got.Diagnostics[0].Notes != nil {
		t.Fatalf("output = %+v", got)
	}
}

func TestParsePathMode(t *testing.T) {
	for in, want := range map[string]PathMode{"": PathModeAuto, "absolute": PathModeAbsolute, "relative": PathModeRelative, "basename": PathModeBasename} {
		if got, ok := ParsePathMode(in); !ok || got != want {
			t.Errorf("ParsePathMode(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParsePathMode("weird"); ok {
		t.Errorf("weird accepted")
	}
	if got := formatPath("x/y.toml", JSONOpts{PathMode: PathModeRelative, BaseDir: "x"}); got != "y.toml" {
		t.Errorf("relative = %q", got)
	}
}
