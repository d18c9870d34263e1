package lspintar

import (
	"github.com/adibfarrasy/lspintar/internal/store"
)

// QueryBuilder provides direct Symbol Index access for callers that already
// hold a resolved FQN and don't need the cursor/file pipeline an Engine
// query runs (e.g. test assertions). The CLI does not expose it.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder builds a QueryBuilder over an existing Store, for use
// without a full Engine.
func NewQueryBuilder(s *store.Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// Query returns a QueryBuilder over the Engine's Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Reference is one site that names a symbol FQN: either an explicit import,
// or a subtype that extends/implements it.
type Reference struct {
	FilePath string
	Kind     string // "import" | "extends" | "implements"
}

// ReferencesTo finds every file that names fqn, either via an explicit
// import or a super/implements edge (supplement: symmetric with
// find_implementors/find_subclasses). This does not track arbitrary
// expression-level uses — only the declarations the Symbol Extractor
// records — so it under-reports compared to a full references
// implementation; see DESIGN.md.
func (q *QueryBuilder) ReferencesTo(branch, fqn string) ([]Reference, error) {
	var refs []Reference

	importers, err := q.store.FindImportersByFQN(branch, fqn)
	if err != nil {
		return nil, err
	}
	for _, imp := range importers {
		refs = append(refs, Reference{FilePath: imp.FilePath, Kind: "import"})
	}

	subclasses, err := q.store.FindSubclasses(branch, fqn)
	if err != nil {
		return nil, err
	}
	for _, sym := range subclasses {
		refs = append(refs, Reference{FilePath: sym.FilePath, Kind: "extends"})
	}

	implementors, err := q.store.FindImplementors(branch, fqn)
	if err != nil {
		return nil, err
	}
	for _, sym := range implementors {
		refs = append(refs, Reference{FilePath: sym.FilePath, Kind: "implements"})
	}

	return refs, nil
}

// SymbolByFQN looks up a workspace symbol directly, bypassing cursor
// resolution.
func (q *QueryBuilder) SymbolByFQN(branch, fqn string) (*store.Symbol, error) {
	return q.store.FindByFQN(branch, fqn)
}
