// Package resolve is the Resolver Cascade: given a classified
// cursor context, it searches progressively wider scopes — local file,
// project imports, workspace short-name index, external dependencies — and
// returns the first match.
package resolve

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/adibfarrasy/lspintar/internal/classify"
	"github.com/adibfarrasy/lspintar/internal/depcache"
	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/lsperrors"
	"github.com/adibfarrasy/lspintar/internal/store"
)

const maxReceiverDepth = 8

// Target is whatever the cascade resolved to: either a workspace Symbol or
// an ExternalSymbol from a JAR/decompiled source.
type Target struct {
	Symbol   *store.Symbol
	External *store.ExternalSymbol
}

// FilePath returns the location a Location response should point at.
func (t Target) FilePath() string {
	if t.Symbol != nil {
		return t.Symbol.FilePath
	}
	if t.External != nil {
		// A still-pending symbol's SourceFilePath is the class entry inside
		// the jar, so navigation falls back to the jar itself.
		if t.External.SourceFilePath != "" && !t.External.NeedsDecompilation {
			return t.External.SourceFilePath
		}
		return t.External.JarPath
	}
	return ""
}

// Span returns the identifier span to point the cursor at.
func (t Target) Span() store.Span {
	if t.Symbol != nil {
		return t.Symbol.IdentifierSpan
	}
	if t.External != nil {
		return t.External.IdentifierSpan
	}
	return store.Span{}
}

// Cascade wires the Symbol Index, Grammar Facade, and Dependency Cache
// together to answer definition/hover/implementation queries.
type Cascade struct {
	store    *store.Store
	facade   *grammar.Facade
	depcache *depcache.Cache
	logger   *zap.Logger
}

// Option configures a Cascade.
type Option func(*Cascade)

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cascade) { c.logger = logger }
}

// New builds a Cascade over the given Symbol Index, Grammar Facade, and
// Dependency Cache.
func New(st *store.Store, facade *grammar.Facade, dc *depcache.Cache, opts ...Option) *Cascade {
	c := &Cascade{store: st, facade: facade, depcache: dc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request bundles one resolution attempt's working state, including the
// qualifier-resolution memo table.
type request struct {
	branch   string
	filePath string
	lang     grammar.Language
	root     grammar.Node
	fileID   int64

	memo map[string]string // variable/receiver name -> resolved type FQN, within this request
}

// Definition resolves the symbol at (line, col) in filePath to its
// declaration site.
func (c *Cascade) Definition(ctx context.Context, branch, filePath string, src []byte, lang grammar.Language, line, col int) (*Target, error) {
	tree, err := c.facade.Parse(lang, src)
	if err != nil {
		return nil, lsperrors.ParseError(filePath, err)
	}
	defer tree.Close()

	f, err := c.store.FileByPath(branch, filePath)
	if err != nil {
		return nil, lsperrors.IndexError("file lookup", err)
	}
	var fileID int64
	if f != nil {
		fileID = f.ID
	}

	pos := byteOffsetAt(src, line, col)
	cx := classify.Classify(tree.Root(), pos)

	req := &request{branch: branch, filePath: filePath, lang: lang, root: tree.Root(), fileID: fileID, memo: map[string]string{}}
	return c.resolveContext(ctx, req, cx)
}

func (c *Cascade) resolveContext(ctx context.Context, req *request, cx classify.Context) (*Target, error) {
	select {
	case <-ctx.Done():
		return nil, lsperrors.Cancelled("resolve")
	default:
	}

	switch cx.Kind {
	case classify.VariableUse, classify.Declaration:
		return c.resolveSimpleName(ctx, req, nameFor(cx))

	case classify.ThisQualified:
		return c.resolveMember(ctx, req, "this", cx.Member, -1)

	case classify.TypeReference, classify.ConstructorCall:
		return c.resolveTypeName(ctx, req, cx.Name)

	case classify.StaticAccess:
		return c.resolveMember(ctx, req, cx.Receiver, cx.Member, -1)

	case classify.FieldAccess:
		return c.resolveQualified(ctx, req, cx.Receiver, cx.Member, -1)

	case classify.MethodCall:
		return c.resolveQualified(ctx, req, cx.Receiver, cx.Member, cx.Arity)

	case classify.ImportTarget:
		if len(cx.ImportFQNParts) == 0 {
			return nil, lsperrors.NotFound("import target")
		}
		fqn := joinDot(cx.ImportFQNParts)
		return c.resolveByFQNEverywhere(ctx, req, fqn)

	default:
		return nil, lsperrors.NotFound("cursor context")
	}
}

func nameFor(cx classify.Context) string {
	if cx.Name != "" {
		return cx.Name
	}
	if cx.Member != "" {
		return cx.Member
	}
	return ""
}

func joinDot(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}

// resolveSimpleName is Layer 1 (local) for a bare identifier: search
// enclosing scopes for a matching declaration before falling through to
// Layers 2-4 as if it were a type name.
func (c *Cascade) resolveSimpleName(ctx context.Context, req *request, name string) (*Target, error) {
	if name == "" {
		return nil, lsperrors.NotFound("simple name")
	}
	if sym := c.localDeclaration(req, name); sym != nil {
		return &Target{Symbol: sym}, nil
	}
	return c.resolveTypeName(ctx, req, name)
}

// localDeclaration implements Layer 1: among all symbols declared in the
// cursor's file, it picks the local, parameter, field, or property with
// this short name that has the narrowest full span. The cursor position is
// not consulted, so a same-named declaration in another method of the same
// file can match.
func (c *Cascade) localDeclaration(req *request, name string) *store.Symbol {
	if req.fileID == 0 {
		return nil
	}
	syms, err := c.store.SymbolsByFile(req.fileID)
	if err != nil {
		return nil
	}
	var best *store.Symbol
	for _, s := range syms {
		if s.ShortName != name {
			continue
		}
		switch s.SymbolType {
		case store.SymbolLocalVariable, store.SymbolParameter, store.SymbolField, store.SymbolProperty:
			if best == nil || narrower(s, best) {
				best = s
			}
		}
	}
	return best
}

func narrower(a, b *store.Symbol) bool {
	aw := a.FullSpan.EndByte - a.FullSpan.StartByte
	bw := b.FullSpan.EndByte - b.FullSpan.StartByte
	return aw < bw
}

// resolveTypeName runs Layers 2-4 for a bare type/declaration name: project
// imports, then workspace short-name index, then external symbols.
func (c *Cascade) resolveTypeName(ctx context.Context, req *request, name string) (*Target, error) {
	// Layer 2: project imports.
	if fqn, ok := c.importedFQN(req, name); ok {
		if t, err := c.resolveByFQNEverywhere(ctx, req, fqn); err == nil {
			return t, nil
		}
	}
	// Layer 2b: same-package unqualified match, then name as a bare FQN
	// (default package).
	fqns := []string{name}
	for _, n := range req.root.NamedChildren() {
		if k := n.Kind(); k == "package_declaration" || k == "package_header" {
			pkg := strings.TrimSuffix(strings.TrimSpace(n.Text()), ";")
			pkg = strings.TrimSpace(strings.TrimPrefix(pkg, "package"))
			fqns = append([]string{pkg + "." + name}, fqns...)
		}
	}
	for _, fqn := range fqns {
		if sym, err := c.store.FindByFQN(req.branch, fqn); err == nil && sym != nil {
			return &Target{Symbol: sym}, nil
		}
	}

	select {
	case <-ctx.Done():
		return nil, lsperrors.Cancelled("resolve")
	default:
	}

	// Layer 3: workspace short-name index.
	candidates, err := c.store.FindByShortName(req.branch, name)
	if err != nil {
		return nil, lsperrors.IndexError("find by short name", err)
	}
	if len(candidates) > 0 {
		return &Target{Symbol: pickBest(candidates, req.filePath)}, nil
	}

	// Layer 4: external dependencies.
	return c.resolveExternalByShortName(ctx, name)
}

// pickBest implements Layer 3's tie-break: prefer the candidate that shares
// the deepest directory prefix with the cursor file (i.e. lives under the
// same module root), then lexicographic FQN.
func pickBest(candidates []*store.Symbol, filePath string) *store.Symbol {
	cursorDir := filepath.Dir(filePath)
	best := candidates[0]
	bestDepth := sharedDirDepth(best.FilePath, cursorDir)
	for _, c := range candidates[1:] {
		cDepth := sharedDirDepth(c.FilePath, cursorDir)
		switch {
		case cDepth > bestDepth:
			best, bestDepth = c, cDepth
		case cDepth == bestDepth && c.FQN < best.FQN:
			best = c
		}
	}
	return best
}

// sharedDirDepth returns how many leading directory segments path and
// cursorDir have in common, so a candidate under the cursor's own module
// root outranks an equally-named symbol that merely sits at the same
// directory depth elsewhere in the workspace.
func sharedDirDepth(path, cursorDir string) int {
	pathSegs := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	cursorSegs := strings.Split(filepath.ToSlash(cursorDir), "/")
	n := 0
	for n < len(pathSegs) && n < len(cursorSegs) && pathSegs[n] == cursorSegs[n] {
		n++
	}
	return n
}

func (c *Cascade) resolveExternalByShortName(ctx context.Context, name string) (*Target, error) {
	ext, err := c.store.FindExternalByShortName(name)
	if err == nil && len(ext) == 0 && c.depcache != nil {
		// Populate the dependency cache lazily on an external miss; jars
		// already scanned at their current mtime are skipped.
		if serr := c.depcache.Scan(ctx); serr == nil {
			ext, err = c.store.FindExternalByShortName(name)
		}
	}
	if err != nil {
		return nil, lsperrors.IndexError("find external by short name", err)
	}
	if len(ext) == 0 {
		return nil, lsperrors.NotFound("symbol " + name)
	}
	chosen := ext[0]
	if chosen.NeedsDecompilation && c.depcache != nil {
		if resolved, err := c.depcache.EnsureDecompiled(ctx, chosen); err == nil {
			chosen = resolved
		}
	}
	return &Target{External: chosen}, nil
}

func (c *Cascade) resolveByFQNEverywhere(ctx context.Context, req *request, fqn string) (*Target, error) {
	if sym, err := c.store.FindByFQN(req.branch, fqn); err == nil && sym != nil {
		return &Target{Symbol: sym}, nil
	}
	if ext, err := c.store.FindExternalByFQN(fqn); err == nil && ext != nil {
		if ext.NeedsDecompilation && c.depcache != nil {
			if resolved, derr := c.depcache.EnsureDecompiled(ctx, ext); derr == nil {
				ext = resolved
			}
		}
		return &Target{External: ext}, nil
	}
	return nil, lsperrors.NotFound(fqn)
}

// importedFQN resolves a short name against this file's import statements:
// explicit imports first, then wildcard imports.
func (c *Cascade) importedFQN(req *request, shortName string) (string, bool) {
	if req.fileID == 0 {
		return "", false
	}
	imports, err := c.store.ImportsByFile(req.fileID)
	if err != nil {
		return "", false
	}
	for _, imp := range imports {
		if !imp.IsWildcard && imp.ImportedName == shortName {
			return imp.FQNOrStem, true
		}
	}
	for _, imp := range imports {
		if imp.IsWildcard {
			return imp.FQNOrStem + "." + shortName, true
		}
	}
	return "", false
}

func byteOffsetAt(src []byte, line, col int) int {
	curLine, curCol := 0, 0
	for i, b := range src {
		if curLine == line && curCol == col {
			return i
		}
		if b == '\n' {
			curLine++
			curCol = 0
		} else {
			curCol++
		}
	}
	return len(src)
}
