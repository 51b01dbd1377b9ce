package scopescript

import (
	"fmt"
	"strings"

	"kestrel/internal/diag"
	"kestrel/internal/dict"
	"kestrel/internal/scope"
)

// Check validates the structure of s and returns the effective options
// (defaults overridden by the script's [settings]). Problems are reported to
// r; a script with error diagnostics must not be evaluated.
func Check(s *Script, defaults Options, r diag.Reporter) Options {
	opts := checkSettings(s, defaults, r)

	for _, key := range s.undecoded.All() {
		diag.ReportWarning(r, diag.DocBadSettings, s.at(key),
			fmt.Sprintf("unknown key %q is ignored", key)).Emit()
	}

	if len(s.Doc.Scopes) == 0 {
		diag.ReportWarning(r, diag.DocNoScopes, s.at(""), "script declares no [[scope]] tables").Emit()
	}

	// name -> declaration index, in declaration order
	declared := dict.New[int]()
	for i, decl := range s.Doc.Scopes {
		name := strings.TrimSpace(decl.Name)
		if name == "" {
			diag.ReportError(r, diag.ScrEmptyName, s.scopeLoc(i), "scope has no name").Emit()
			continue
		}
		if first, dup := declared.Get(name); dup {
			diag.ReportError(r, diag.ScrDuplicateScope, s.scopeLoc(i),
				fmt.Sprintf("scope %q is already declared", name)).
				WithNote(s.scopeLoc(first), "first declared here").Emit()
			continue
		}
		declared.Put(name, i)
	}

	for i, decl := range s.Doc.Scopes {
		checkParent(s, i, decl, declared, r)
		checkPuts(s, i, decl, r)
	}

	for i, q := range s.Doc.Queries {
		if strings.TrimSpace(q.Key) == "" {
			diag.ReportError(r, diag.QryEmptyKey, s.queryLoc(i), "query has no key").Emit()
		}
		if _, ok := declared.Get(strings.TrimSpace(q.Scope)); !ok {
			diag.ReportError(r, diag.QryUnknownScope, s.queryLoc(i),
				fmt.Sprintf("scope %q is not declared", q.Scope)).
				WithNote(s.at(""), "declared scopes: "+strings.Join(declared.Keys().Items(), ", ")).Emit()
		}
	}
	return opts
}

func checkSettings(s *Script, defaults Options, r diag.Reporter) Options {
	opts := defaults
	set := s.Doc.Settings
	if set.Policy != "" {
		p, err := scope.ParsePolicy(set.Policy)
		if err != nil {
			diag.ReportError(r, diag.DocBadPolicy, s.at("settings.policy"), err.Error()).Emit()
		} else {
			opts.Policy = p
		}
	}
	switch {
	case set.Buckets < 0:
		diag.ReportWarning(r, diag.DocBadSettings, s.at("settings.buckets"),
			fmt.Sprintf("bucket count %d is negative; using the default", set.Buckets)).Emit()
	case set.Buckets > scope.MaxBuckets:
		diag.ReportWarning(r, diag.DocBadSettings, s.at("settings.buckets"),
			fmt.Sprintf("bucket count %d exceeds %d; using the default", set.Buckets, scope.MaxBuckets)).Emit()
	case set.Buckets > 0:
		opts.Buckets = set.Buckets
	}
	switch {
	case set.LoadFactor < 0 || set.LoadFactor > 8:
		diag.ReportWarning(r, diag.DocBadSettings, s.at("settings.load_factor"),
			fmt.Sprintf("load factor %g is outside (0, 8]; using the default", set.LoadFactor)).Emit()
	case set.LoadFactor > 0:
		opts.LoadFactor = set.LoadFactor
	}
	return opts
}

func checkParent(s *Script, i int, decl ScopeDecl, declared *dict.Dict[int], r diag.Reporter) {
	parent := strings.TrimSpace(decl.Parent)
	if parent == "" {
		return
	}
	if parent == strings.TrimSpace(decl.Name) {
		diag.ReportError(r, diag.ScrSelfParent, s.scopeLoc(i),
			fmt.Sprintf("scope %q cannot be its own parent", parent)).Emit()
		return
	}
	at, ok := declared.Get(parent)
	if !ok {
		diag.ReportError(r, diag.ScrUnknownParent, s.scopeLoc(i),
			fmt.Sprintf("parent scope %q is not declared", parent)).Emit()
		return
	}
	if at > i {
		diag.ReportError(r, diag.ScrParentDeclaredLater, s.scopeLoc(i),
			fmt.Sprintf("parent scope %q must be declared before its child", parent)).
			WithNote(s.scopeLoc(at), "parent declared here").Emit()
	}
}

func checkPuts(s *Script, i int, decl ScopeDecl, r diag.Reporter) {
	seen := dict.New[int]()
	for j, put := range decl.Put {
		if put.Key == "" {
			diag.ReportError(r, diag.ScrEmptyKey, s.putLoc(i, j), "binding has no key").Emit()
			continue
		}
		if first, dup := seen.Get(put.Key); dup {
			diag.ReportWarning(r, diag.ScrDuplicatePut, s.putLoc(i, j),
				fmt.Sprintf("%q is bound again; the later value wins and keeps the first position", put.Key)).
				WithNote(s.putLoc(i, first), "first bound here").Emit()
			continue
		}
		seen.Put(put.Key, j)
	}
	for j, key := range decl.Remove {
		if key == "" {
			diag.ReportError(r, diag.ScrEmptyKey, s.removeLoc(i, j), "remove has an empty key").Emit()
		}
	}
}
