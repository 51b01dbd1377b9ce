package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kestrel/internal/diagfmt"
	"kestrel/internal/scope"
	"kestrel/internal/scopescript"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const stackScript = `
[[scope]]
name = "m1"
put = [{ key = "x", value = "1" }, { key = "y", value = "2" }]

[[scope]]
name = "m2"
parent = "m1"
put = [{ key = "x", value = "3" }]

[[query]]
scope = "m2"
key = "x"
expect = "3"
`

func TestSelftestCommand(t *testing.T) {
	out, _, err := runCLI(t, "selftest")
	if err != nil {
		t.Fatalf("selftest: %v", err)
	}
	if out != "Passed\n" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestScopesCommandJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "stack.toml"), stackScript)

	out, stderr, err := runCLI(t, "--ui", "off", "--color", "off", "scopes", "--format", "json", "stack.toml")
	if err != nil {
		t.Fatalf("scopes: %v\n%s", err, stderr)
	}
	var results []scopescript.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	m2 := results[0].Scopes[1]
	if len(m2.Bindings) != 2 || m2.Bindings[0].Value != "3" || m2.Bindings[1].Key != "y" {
		t.Fatalf("m2 = %+v", m2)
	}
	if !strings.Contains(stderr, "SCR2009") {
		t.Fatalf("expected the shadow note on stderr, got %q", stderr)
	}
}

func TestScopesCommandManifestAndFailure(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "kestrel.toml"), "[scopes]\npolicy = \"all\"\n\n[output]\nformat = \"json\"\n")
	writeFile(t, filepath.Join(dir, "scripts", "ok.toml"), stackScript)
	writeFile(t, filepath.Join(dir, "scripts", "bad.toml"), "[[scope]]\nname = \"a\"\nparent = \"ghost\"\n")

	out, stderr, err := runCLI(t, "--ui", "off", "--color", "off", "scopes", "scripts")
	if !errors.Is(err, errScriptsFailed) {
		t.Fatalf("err = %v, want errScriptsFailed", err)
	}
	if !strings.Contains(stderr, "SCR2003") || !strings.Contains(stderr, "2 script(s), 1 failed") {
		t.Fatalf("stderr = %q", stderr)
	}
	var results []scopescript.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("manifest format not applied: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].Policy != "all" || len(results[0].Scopes[1].Bindings) != 3 {
		t.Fatalf("results = %+v", results)
	}
}

func TestScopesFlagsOverrideManifest(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "kestrel.toml"), "[output]\nformat = \"json\"\n")
	writeFile(t, filepath.Join(dir, "stack.toml"), stackScript)

	out, _, err := runCLI(t, "--ui", "off", "--color", "off", "scopes", "--format", "text", "--policy", "all", "stack.toml")
	if err != nil {
		t.Fatalf("scopes: %v", err)
	}
	if !strings.Contains(out, "stack.toml (policy all)") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "kestrel.toml"), "[scopes]\nbuckets = 64\n")
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	m, ok, err := loadProjectManifest(nested)
	if err != nil || !ok {
		t.Fatalf("loadProjectManifest: %v %v", ok, err)
	}
	if m.Root != dir || m.Config.Scopes.Buckets != 64 {
		t.Fatalf("manifest = %+v", m)
	}
	s := m.apply(defaultSettings())
	if s.defaults.Buckets != 64 || s.defaults.Policy != scope.PolicyVisible || s.format != scopescript.FormatText {
		t.Fatalf("settings = %+v", s)
	}
}

func TestLoadProjectConfigRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[scopes]\ncolour = \"red\"\n",
		"bad policy":   "[scopes]\npolicy = \"sideways\"\n",
		"buckets":      "[scopes]\nbuckets = 0\n",
		"huge buckets": "[scopes]\nbuckets = 4611686018427387905\n",
		"load factor":  "[scopes]\nload_factor = 9.5\n",
		"format":       "[output]\nformat = \"yaml\"\n",
		"invalid toml": "[scopes\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "kestrel.toml")
		writeFile(t, path, body)
		if _, err := loadProjectConfig(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := runCLI(t, "version", "--format", "json", "--hash")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "kestrel" || payload.GitCommit == "" || payload.BuildDate != "" {
		t.Fatalf("payload = %+v", payload)
	}
	if _, _, err := runCLI(t, "version", "--format", "xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestBenchCommandJSON(t *testing.T) {
	out, _, err := runCLI(t, "bench", "--keys", "64", "--rounds", "1", "--format", "json")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	var results []map[string]any
	if err := json.Unmarshal([]byte(out), &results); err != nil || len(results) == 0 {
		t.Fatalf("decode: %v\n%s", err, out)
	}
}

func TestReadModes(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		if got, err := readUIMode(in); err != nil || got != want {
			t.Errorf("readUIMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Errorf("expected error for maybe")
	}
	if on, err := readColor("on", nil); err != nil || !on {
		t.Errorf("readColor(on) = %v, %v", on, err)
	}
	if _, err := readColor("rainbow", nil); err == nil {
		t.Errorf("expected error for rainbow")
	}
}

func TestScopesDiagnosticsJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "bad.toml"), "[[scope]]\nname = \"a\"\nparent = \"ghost\"\n")

	_, stderr, err := runCLI(t, "--ui", "off", "--color", "off", "scopes", "--diag-format", "json", "--path-mode", "basename", "bad.toml")
	if !errors.Is(err, errScriptsFailed) {
		t.Fatalf("err = %v, want errScriptsFailed", err)
	}
	var payload diagfmt.DiagnosticsOutput
	// cobra печатает ошибку после JSON
	if err := json.NewDecoder(strings.NewReader(stderr)).Decode(&payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, stderr)
	}
	if payload.Errors != 1 || payload.Diagnostics[0].Code != "SCR2003" || payload.Diagnostics[0].Location.File != "bad.toml" {
		t.Fatalf("payload = %+v", payload)
	}
	if _, _, err := runCLI(t, "scopes", "--diag-format", "xml", "bad.toml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestScopesCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "stack.toml"), stackScript)
	cacheDir := filepath.Join(dir, "cache")

	for range 2 {
		out, stderr, err := runCLI(t, "--ui", "off", "--color", "off", "scopes", "--cache-dir", cacheDir, "stack.toml")
		if err != nil {
			t.Fatalf("scopes: %v\n%s", err, stderr)
		}
		if !strings.Contains(out, "scope m2 < m1") {
			t.Fatalf("stdout = %q", out)
		}
	}
	entries, err := os.ReadDir(filepath.Join(cacheDir, "runs"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache entries = %v, %v", entries, err)
	}
}

func TestScopesRejectsHugeBucketsFlag(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "stack.toml"), stackScript)

	_, _, err := runCLI(t, "--ui", "off", "scopes", "--buckets", "4611686018427387905", "stack.toml")
	if err == nil || !strings.Contains(err.Error(), "--buckets must be in") {
		t.Fatalf("err = %v", err)
	}
}
