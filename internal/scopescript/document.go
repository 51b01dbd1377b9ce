package scopescript

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"kestrel/internal/diag"
	"kestrel/internal/scope"
	"kestrel/internal/vector"
)

// ErrSyntax wraps TOML decoding failures.
var ErrSyntax = errors.New("scope script syntax error")

// Document is the decoded form of a scope script.
type Document struct {
	Settings Settings    `toml:"settings"`
	Scopes   []ScopeDecl `toml:"scope"`
	Queries  []Query     `toml:"query"`
}

// Settings override the tool defaults for one script.
type Settings struct {
	Policy     string  `toml:"policy"`
	Buckets    int     `toml:"buckets"`
	LoadFactor float64 `toml:"load_factor"`
}

// ScopeDecl declares one scope: its bindings (applied in order) and the
// keys removed afterwards.
type ScopeDecl struct {
	Name   string   `toml:"name"`
	Parent string   `toml:"parent"`
	Put    []Put    `toml:"put"`
	Remove []string `toml:"remove"`
}

type Put struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// Query asks for the value of Key as seen from Scope. Expect is optional.
type Query struct {
	Scope  string  `toml:"scope"`
	Key    string  `toml:"key"`
	Expect *string `toml:"expect"`
}

// Script is a parsed document plus what the decoder could not place.
type Script struct {
	Path      string
	Doc       Document
	undecoded *vector.Vector[string]
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scope script: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data; name is used in diagnostics.
func Parse(name string, data []byte) (*Script, error) {
	s := &Script{Path: name, undecoded: vector.New[string]()}
	meta, err := toml.Decode(string(data), &s.Doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrSyntax, err)
	}
	for _, key := range meta.Undecoded() {
		s.undecoded.Push(key.String())
	}
	return s, nil
}

// Options are the defaults a script starts from before its [settings].
type Options struct {
	Policy     scope.Policy
	Buckets    int
	LoadFactor float64
}

// DefaultOptions mirror the scope package defaults.
func DefaultOptions() Options {
	return Options{Policy: scope.PolicyVisible}
}

func (o Options) mapOptions() []scope.Option {
	return []scope.Option{
		scope.WithPolicy(o.Policy),
		scope.WithBuckets(o.Buckets),
		scope.WithLoadFactor(o.LoadFactor),
	}
}

func (s *Script) at(path string) diag.Location {
	return diag.Location{File: s.Path, Path: path}
}

func (s *Script) scopeLoc(i int) diag.Location {
	name := strings.TrimSpace(s.Doc.Scopes[i].Name)
	if name == "" {
		return s.at(fmt.Sprintf("scope#%d", i))
	}
	return s.at(fmt.Sprintf("scope[%s]", name))
}

func (s *Script) putLoc(i, j int) diag.Location {
	l := s.scopeLoc(i)
	l.Path += fmt.Sprintf(".put[%d]", j)
	return l
}

func (s *Script) removeLoc(i, j int) diag.Location {
	l := s.scopeLoc(i)
	l.Path += fmt.Sprintf(".remove[%d]", j)
	return l
}

func (s *Script) queryLoc(i int) diag.Location {
	return s.at(fmt.Sprintf("query[%d]", i))
}
