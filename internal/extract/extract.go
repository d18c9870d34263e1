// Package extract is the Symbol Extractor: a single depth-first
// walk over a parsed CST that produces normalized Symbol records, super and
// implements edges, and import statements, maintaining a containment stack
// so each declaration's parent is always the scope it was declared in.
package extract

import (
	"fmt"
	"strings"

	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/store"
)

// Extractor walks CSTs produced by a grammar.Facade into store.ExtractedFile
// records.
type Extractor struct {
	facade *grammar.Facade
}

// New builds an Extractor over the given Grammar Facade.
func New(facade *grammar.Facade) *Extractor {
	return &Extractor{facade: facade}
}

// scope is one entry in the containment stack: the enclosing declaration's
// FQN and symbol kind, used to parent new symbols and to scope enum
// constants and class parameters correctly.
type scope struct {
	fqn  string
	kind store.SymbolType
}

// walker carries the mutable state of one extraction pass.
type walker struct {
	policy      policy
	lang        grammar.Language
	src         []byte
	filePath    string
	packageName string
	stack       []scope

	symbols         []*store.Symbol
	superEdges      []*store.SuperEdge
	implementsEdges []*store.ImplementsEdge
	imports         []*store.Import
}

// Extract parses src with lang's grammar and walks the result into a
// store.ExtractedFile. hash is the caller-computed content hash recorded on
// the file row.
func (e *Extractor) Extract(lang grammar.Language, filePath string, src []byte, hash string) (*store.ExtractedFile, error) {
	tree, err := e.facade.Parse(lang, src)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filePath, err)
	}
	defer tree.Close()

	var pol policy
	switch lang {
	case grammar.Java:
		pol = javaPolicy()
	case grammar.Groovy:
		pol = groovyPolicy()
	case grammar.Kotlin:
		pol = kotlinPolicy()
	default:
		return nil, fmt.Errorf("extract %s: unsupported language %q", filePath, lang)
	}

	w := &walker{policy: pol, lang: lang, src: src, filePath: filePath}
	w.packageName = w.findPackageName(tree.Root())
	w.walk(tree.Root())

	return &store.ExtractedFile{
		Path:            filePath,
		Language:        string(lang),
		Hash:            hash,
		Symbols:         w.symbols,
		SuperEdges:      w.superEdges,
		ImplementsEdges: w.implementsEdges,
		Imports:         w.imports,
	}, nil
}

func (w *walker) findPackageName(root grammar.Node) string {
	for _, c := range root.NamedChildren() {
		switch c.Kind() {
		case "package_declaration", "package_header":
			return strings.TrimPrefix(strings.TrimSuffix(c.Text(), ";"), "package ")
		}
	}
	return ""
}

func (w *walker) currentScope() (string, store.SymbolType, bool) {
	if len(w.stack) == 0 {
		return "", "", false
	}
	top := w.stack[len(w.stack)-1]
	return top.fqn, top.kind, true
}

func (w *walker) fqn(shortName string) string {
	parentFQN, _, ok := w.currentScope()
	switch {
	case ok:
		return parentFQN + "." + shortName
	case w.packageName != "":
		return w.packageName + "." + shortName
	default:
		return shortName
	}
}

func (w *walker) walk(n grammar.Node) {
	kind := n.Kind()

	switch {
	case isImport(kind):
		w.recordImport(n)
		return

	default:
		if rule, ok := w.policy.matchType(kind); ok {
			w.walkTypeDecl(n, rule)
			return
		}
		if rule, ok := w.policy.matchMethod(kind); ok {
			w.walkMethodDecl(n, rule)
			return
		}
		if rule, ok := w.policy.matchField(kind); ok {
			w.walkFieldDecl(n, rule)
			return
		}
		if rule, ok := w.policy.matchParam(kind); ok {
			w.walkParamDecl(n, rule)
			return
		}
		if rule, ok := w.policy.matchLocal(kind); ok {
			w.walkLocalDecl(n, rule)
			return
		}
	}

	for _, c := range n.NamedChildren() {
		w.walk(c)
	}
}

func isImport(kind string) bool {
	switch kind {
	case "import_declaration", "import_header":
		return true
	}
	return false
}

func (w *walker) recordImport(n grammar.Node) {
	text := strings.TrimSuffix(strings.TrimPrefix(n.Text(), "import "), ";")
	text = strings.TrimSpace(text)
	isStatic := strings.HasPrefix(text, "static ")
	text = strings.TrimPrefix(text, "static ")
	isWildcard := strings.HasSuffix(text, ".*")
	text = strings.TrimSuffix(text, ".*")

	imp := &store.Import{FQNOrStem: text, IsWildcard: isWildcard, IsStatic: isStatic}
	if !isWildcard {
		parts := strings.Split(text, ".")
		imp.ImportedName = parts[len(parts)-1]
	}
	w.imports = append(w.imports, imp)
}

func (w *walker) walkTypeDecl(n grammar.Node, rule declRule) {
	nameNode := n.ChildByField(w.policy.nameField(rule))
	if !nameNode.Valid() {
		for _, c := range n.NamedChildren() {
			w.walk(c)
		}
		return
	}
	shortName := nameNode.Text()
	symbolType := rule.SymbolType
	if w.policy.AnnotationIsInterface && n.Kind() == "annotation_type_declaration" {
		symbolType = store.SymbolInterface
	}

	fqn := w.fqn(shortName)
	sym := &store.Symbol{
		ShortName:      shortName,
		FQN:            fqn,
		SymbolType:     symbolType,
		FullSpan:       toStoreSpan(n.Span()),
		IdentifierSpan: toStoreSpan(nameNode.Span()),
		Modifiers:      w.modifiers(n),
	}
	if parentFQN, _, ok := w.currentScope(); ok {
		sym.ParentFQN = parentFQN
	}
	w.symbols = append(w.symbols, sym)
	w.recordSupertypes(n, fqn, shortName)

	w.stack = append(w.stack, scope{fqn: fqn, kind: symbolType})
	for _, c := range n.NamedChildren() {
		w.walk(c)
	}
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *walker) recordSupertypes(n grammar.Node, ownerFQN, ownerShortName string) {
	if w.policy.ExtendsField != "" {
		if clause := n.ChildByField(w.policy.ExtendsField); clause.Valid() {
			for _, nameText := range typeNamesIn(clause) {
				w.superEdges = append(w.superEdges, &store.SuperEdge{SymbolFQN: ownerFQN, ShortName: nameText})
			}
		}
	}
	if w.policy.ImplementsField != "" {
		if clause := n.ChildByField(w.policy.ImplementsField); clause.Valid() {
			for _, nameText := range typeNamesIn(clause) {
				w.implementsEdges = append(w.implementsEdges, &store.ImplementsEdge{SymbolFQN: ownerFQN, ShortName: nameText})
			}
		}
	}
}

// typeNamesIn returns every simple type identifier found in a clause node,
// covering both "single type" and "comma-separated list" grammar shapes.
func typeNamesIn(clause grammar.Node) []string {
	var names []string
	var walk func(grammar.Node)
	walk = func(n grammar.Node) {
		switch n.Kind() {
		case "type_identifier", "identifier", "scoped_type_identifier", "user_type":
			names = append(names, lastSegment(n.Text()))
			return
		}
		for _, c := range n.NamedChildren() {
			walk(c)
		}
	}
	walk(clause)
	return names
}

func lastSegment(s string) string {
	parts := strings.Split(s, ".")
	return parts[len(parts)-1]
}

func (w *walker) walkMethodDecl(n grammar.Node, rule declRule) {
	nameNode := n.ChildByField(w.policy.nameField(rule))
	shortName := "<init>"
	if nameNode.Valid() {
		shortName = nameNode.Text()
	}
	parentFQN, parentKind, _ := w.currentScope()
	fqn := w.fqn(shortName)

	sym := &store.Symbol{
		ShortName:      shortName,
		FQN:            fqn,
		ParentFQN:      parentFQN,
		SymbolType:     rule.SymbolType,
		FullSpan:       toStoreSpan(n.Span()),
		IdentifierSpan: toStoreSpan(nodeOrSelf(nameNode, n).Span()),
		Modifiers:      w.modifiers(n),
		Metadata: store.SymbolMetadata{
			ParamTypes: paramTypes(n),
			ReturnType: returnType(n),
		},
	}
	w.symbols = append(w.symbols, sym)

	w.stack = append(w.stack, scope{fqn: fqn, kind: rule.SymbolType})
	_ = parentKind
	for _, c := range n.NamedChildren() {
		w.walk(c)
	}
	w.stack = w.stack[:len(w.stack)-1]
}

func nodeOrSelf(n, fallback grammar.Node) grammar.Node {
	if n.Valid() {
		return n
	}
	return fallback
}

func paramTypes(methodNode grammar.Node) []string {
	params := methodNode.ChildByField("parameters")
	if !params.Valid() {
		return nil
	}
	var types []string
	for _, p := range params.NamedChildren() {
		if t := p.ChildByField("type"); t.Valid() {
			types = append(types, t.Text())
		}
	}
	return types
}

func returnType(methodNode grammar.Node) string {
	if t := methodNode.ChildByField("type"); t.Valid() {
		return t.Text()
	}
	return ""
}

func (w *walker) walkFieldDecl(n grammar.Node, rule declRule) {
	nameField := w.policy.nameField(rule)
	nameNode := n.ChildByField(nameField)
	if !nameNode.Valid() {
		nameNode = firstIdentifier(n)
	}
	if !nameNode.Valid() {
		return
	}
	shortName := nameNode.Text()
	parentFQN, parentKind, hasScope := w.currentScope()

	symbolType := rule.SymbolType
	if w.policy.EnumConstantIsField && n.Kind() == "enum_constant" {
		symbolType = store.SymbolField
	}
	// Kotlin's property_declaration names both class-scoped properties and
	// function-body val/var with the same node kind; tell them apart by
	// whether the enclosing scope is itself a type.
	if symbolType == store.SymbolProperty && hasScope && !isTypeScope(parentKind) {
		symbolType = store.SymbolLocalVariable
	}
	fqn := w.fqn(shortName)

	decl := n.Parent()
	sym := &store.Symbol{
		ShortName:      shortName,
		FQN:            fqn,
		ParentFQN:      parentFQN,
		SymbolType:     symbolType,
		FullSpan:       toStoreSpan(declSpanFor(n, decl)),
		IdentifierSpan: toStoreSpan(nameNode.Span()),
		Modifiers:      w.modifiers(decl),
		Metadata:       store.SymbolMetadata{DeclType: declaredType(decl)},
	}
	w.symbols = append(w.symbols, sym)
}

// isTypeScope reports whether kind names a class/interface/enum/annotation
// scope, as opposed to a method/constructor body.
func isTypeScope(kind store.SymbolType) bool {
	switch kind {
	case store.SymbolClass, store.SymbolInterface, store.SymbolEnumClass, store.SymbolAnnotation:
		return true
	}
	return false
}

// declSpanFor prefers the enclosing declaration statement's span (e.g. the
// field_declaration wrapping a variable_declarator) so the full span covers
// modifiers and the type, falling back to the bare node's own span.
func declSpanFor(n, decl grammar.Node) grammar.Span {
	if decl.Valid() {
		switch decl.Kind() {
		case "field_declaration", "constant_declaration", "local_variable_declaration":
			return decl.Span()
		}
	}
	return n.Span()
}

func declaredType(decl grammar.Node) string {
	if !decl.Valid() {
		return ""
	}
	if t := decl.ChildByField("type"); t.Valid() {
		return t.Text()
	}
	return ""
}

func firstIdentifier(n grammar.Node) grammar.Node {
	for _, c := range n.Children() {
		if c.Kind() == "identifier" || c.Kind() == "simple_identifier" {
			return c
		}
	}
	return grammar.Node{}
}

func (w *walker) walkParamDecl(n grammar.Node, rule declRule) {
	nameNode := n.ChildByField("name")
	if !nameNode.Valid() {
		nameNode = firstIdentifier(n)
	}
	if !nameNode.Valid() {
		return
	}
	shortName := nameNode.Text()
	parentFQN, _, _ := w.currentScope()
	fqn := w.fqn(shortName)

	sym := &store.Symbol{
		ShortName:      shortName,
		FQN:            fqn,
		ParentFQN:      parentFQN,
		SymbolType:     store.SymbolParameter,
		FullSpan:       toStoreSpan(n.Span()),
		IdentifierSpan: toStoreSpan(nameNode.Span()),
		Metadata:       store.SymbolMetadata{DeclType: declaredType(n)},
	}
	w.symbols = append(w.symbols, sym)

	if w.policy.DualParameterProperty && n.Kind() == "class_parameter" && isValOrVar(n) {
		prop := *sym
		prop.SymbolType = store.SymbolProperty
		w.symbols = append(w.symbols, &prop)
	}
}

func isValOrVar(n grammar.Node) bool {
	for _, c := range n.Children() {
		if c.Kind() == "val" || c.Kind() == "var" {
			return true
		}
	}
	return false
}

// walkLocalDecl handles Java/Groovy's local_variable_declaration, which
// wraps one or more comma-separated variable_declarator children under a
// single shared type (e.g. "int a, b;") rather than naming its own
// identifier directly.
func (w *walker) walkLocalDecl(n grammar.Node, rule declRule) {
	parentFQN, _, _ := w.currentScope()
	declType := declaredType(n)

	declarators := declaratorNodes(n)
	if len(declarators) == 0 {
		nameNode := n.ChildByField("name")
		if !nameNode.Valid() {
			nameNode = firstIdentifier(n)
		}
		if !nameNode.Valid() {
			return
		}
		w.emitLocal(n, nameNode, parentFQN, rule.SymbolType, declType)
		return
	}
	for _, d := range declarators {
		nameNode := d.ChildByField("name")
		if !nameNode.Valid() {
			nameNode = firstIdentifier(d)
		}
		if !nameNode.Valid() {
			continue
		}
		w.emitLocal(d, nameNode, parentFQN, rule.SymbolType, declType)
	}
}

// declaratorNodes returns n's nested variable_declarator children.
func declaratorNodes(n grammar.Node) []grammar.Node {
	var out []grammar.Node
	for _, c := range n.NamedChildren() {
		if c.Kind() == "variable_declarator" {
			out = append(out, c)
		}
	}
	return out
}

func (w *walker) emitLocal(spanNode, nameNode grammar.Node, parentFQN string, symbolType store.SymbolType, declType string) {
	shortName := nameNode.Text()
	sym := &store.Symbol{
		ShortName:      shortName,
		FQN:            w.fqn(shortName),
		ParentFQN:      parentFQN,
		SymbolType:     symbolType,
		FullSpan:       toStoreSpan(spanNode.Span()),
		IdentifierSpan: toStoreSpan(nameNode.Span()),
		Metadata:       store.SymbolMetadata{DeclType: declType},
	}
	w.symbols = append(w.symbols, sym)
}

// modifiers collects modifier keyword text from a declaration's "modifiers"
// child, applying Groovy's implicit-public rule when none are present.
func (w *walker) modifiers(n grammar.Node) []string {
	var mods []string
	for _, c := range n.Children() {
		if c.Kind() == "modifiers" {
			for _, m := range c.Children() {
				mods = append(mods, m.Text())
			}
		}
	}
	if len(mods) == 0 && w.policy.ImplicitPublicModifier {
		mods = []string{"public"}
	}
	return mods
}

func toStoreSpan(s grammar.Span) store.Span {
	return store.Span{
		StartByte: s.StartByte, StartLine: s.StartLine, StartCol: s.StartCol,
		EndByte: s.EndByte, EndLine: s.EndLine, EndCol: s.EndCol,
	}
}
