package scopescript

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"kestrel/internal/diag"
	"kestrel/internal/dict"
	"kestrel/internal/scope"
	"kestrel/internal/trace"
)

// Result is everything a script evaluation produced.
type Result struct {
	File    string      `json:"file" msgpack:"file"`
	Policy  string      `json:"policy" msgpack:"policy"`
	Scopes  []ScopeView `json:"scopes" msgpack:"scopes"`
	Queries []Answer    `json:"queries,omitempty" msgpack:"queries,omitempty"`
}

// ScopeView is the iteration of one scope, as seen from that scope.
type ScopeView struct {
	Name     string        `json:"name" msgpack:"name"`
	Parent   string        `json:"parent,omitempty" msgpack:"parent,omitempty"`
	Depth    uint32        `json:"depth" msgpack:"depth"`
	Local    uint32        `json:"local" msgpack:"local"`
	Bindings []BindingView `json:"bindings" msgpack:"bindings"`
	Table    TableStats    `json:"table" msgpack:"table"`
}

// BindingView is one iterated binding.
type BindingView struct {
	Key   string `json:"key" msgpack:"key"`
	Value string `json:"value" msgpack:"value"`
	// From names the scope that supplied Value.
	From    string `json:"from" msgpack:"from"`
	Shadows bool   `json:"shadows,omitempty" msgpack:"shadows,omitempty"`
}

// TableStats mirrors scope.Stats for serialisation.
type TableStats struct {
	Buckets      uint32 `json:"buckets" msgpack:"buckets"`
	Resizes      uint32 `json:"resizes" msgpack:"resizes"`
	LongestChain uint32 `json:"longest_chain" msgpack:"longest_chain"`
}

// Answer is the outcome of one query.
type Answer struct {
	Scope  string `json:"scope" msgpack:"scope"`
	Key    string `json:"key" msgpack:"key"`
	Found  bool   `json:"found" msgpack:"found"`
	Value  string `json:"value,omitempty" msgpack:"value,omitempty"`
	From   string `json:"from,omitempty" msgpack:"from,omitempty"`
	Hops   uint32 `json:"hops" msgpack:"hops"`
	Expect string `json:"expect,omitempty" msgpack:"expect,omitempty"`
	OK     bool   `json:"ok" msgpack:"ok"`
}

// Counts sums bindings over every scope view.
func (r *Result) Counts() (scopes, bindings int) {
	for _, v := range r.Scopes {
		bindings += len(v.Bindings)
	}
	return len(r.Scopes), bindings
}

type evalScope struct {
	decl  ScopeDecl
	index int
	name  string
	m     *scope.Map[string]
	// chain[i] is the name of the scope i hops out
	chain []string
}

func toU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("scope view counter overflow: %w", err))
	}
	return v
}

// Eval builds one scope map per declaration, applies bindings and removals,
// answers queries and returns the per-scope iteration. s must have passed
// Check without errors. Semantic findings (shadowing, ineffective removals,
// failed expectations) are reported to r.
func Eval(ctx context.Context, s *Script, opts Options, r diag.Reporter) (*Result, error) {
	tr := trace.FromContext(ctx)
	parentSpan := trace.CurrentSpan(ctx)

	scopes := dict.New[*evalScope]()
	for i, decl := range s.Doc.Scopes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(decl.Name)
		if name == "" || scopes.Has(name) {
			return nil, fmt.Errorf("%s: scope %q was not checked", s.Path, decl.Name)
		}
		es := &evalScope{decl: decl, index: i, name: name, chain: []string{name}}
		if parentName := strings.TrimSpace(decl.Parent); parentName != "" {
			parent, ok := scopes.Get(parentName)
			if !ok {
				return nil, fmt.Errorf("%s: parent %q of scope %q is not built", s.Path, parentName, name)
			}
			es.m = scope.NewChild(parent.m, opts.mapOptions()...)
			es.chain = append(es.chain, parent.chain...)
		} else {
			es.m = scope.New[string](opts.mapOptions()...)
		}

		span := trace.Begin(tr, trace.TierTable, "table:"+name, parentSpan)
		applyScope(s, es, r)
		span.WithStats(es.m.Stats()).End("")

		scopes.Put(name, es)
	}

	res := &Result{
		File:   s.Path,
		Policy: opts.Policy.String(),
		Scopes: make([]ScopeView, 0, scopes.Len()),
	}
	for _, es := range scopes.All() {
		res.Scopes = append(res.Scopes, viewOf(es, opts.Policy))
	}
	for i, q := range s.Doc.Queries {
		res.Queries = append(res.Queries, answer(s, i, q, scopes, r))
	}
	return res, nil
}

func applyScope(s *Script, es *evalScope, r diag.Reporter) {
	for j, put := range es.decl.Put {
		if _, hops, ok := es.m.Resolve(put.Key); ok && hops > 0 {
			diag.ReportInfo(r, diag.ScrShadow, s.putLoc(es.index, j),
				fmt.Sprintf("%q shadows the binding in scope %q", put.Key, es.chain[hops])).Emit()
		}
		es.m.Put(put.Key, put.Value)
	}
	for j, key := range es.decl.Remove {
		if es.m.Remove(key) {
			continue
		}
		b := diag.ReportWarning(r, diag.ScrRemoveMissing, s.removeLoc(es.index, j),
			fmt.Sprintf("%q is not bound in scope %q; nothing removed", key, es.name))
		if _, hops, ok := es.m.Resolve(key); ok {
			b.WithNote(s.at(fmt.Sprintf("scope[%s]", es.chain[hops])),
				"the binding lives in an enclosing scope and stays visible")
		}
		b.Emit()
	}
}

func viewOf(es *evalScope, policy scope.Policy) ScopeView {
	st := es.m.Stats()
	view := ScopeView{
		Name:   es.name,
		Parent: strings.TrimSpace(es.decl.Parent),
		Depth:  toU32(es.m.Depth()),
		Local:  toU32(es.m.Len()),
		Table: TableStats{
			Buckets:      toU32(st.Buckets),
			Resizes:      toU32(st.Resizes),
			LongestChain: toU32(st.LongestChain),
		},
	}
	for b := range es.m.Bindings(policy) {
		view.Bindings = append(view.Bindings, BindingView{
			Key:     b.Key,
			Value:   b.Value,
			From:    es.chain[b.Level],
			Shadows: b.Shadows,
		})
	}
	return view
}

func answer(s *Script, i int, q Query, scopes *dict.Dict[*evalScope], r diag.Reporter) Answer {
	name := strings.TrimSpace(q.Scope)
	a := Answer{Scope: name, Key: q.Key, OK: true}
	if q.Expect != nil {
		a.Expect = *q.Expect
	}
	es, ok := scopes.Get(name)
	if !ok {
		a.OK = false
		return a
	}
	value, hops, found := es.m.Resolve(q.Key)
	a.Found = found
	if found {
		a.Value = value
		a.From = es.chain[hops]
		a.Hops = toU32(hops)
	}
	if q.Expect == nil {
		return a
	}
	switch {
	case !found:
		a.OK = false
		diag.ReportError(r, diag.QryAbsent, s.queryLoc(i),
			fmt.Sprintf("%q is not visible from scope %q (expected %q)", q.Key, name, *q.Expect)).Emit()
	case value != *q.Expect:
		a.OK = false
		diag.ReportError(r, diag.QryMismatch, s.queryLoc(i),
			fmt.Sprintf("%q in scope %q is %q, expected %q", q.Key, name, value, *q.Expect)).
			WithNote(s.at(fmt.Sprintf("scope[%s]", a.From)), "value comes from here").Emit()
	}
	return a
}
