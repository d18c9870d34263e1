// Package classify is the Cursor Classifier: given a CST and a
// byte offset, it locates the identifier under the cursor and classifies
// its role so the Resolver Cascade knows what kind of lookup to run.
package classify

import (
	"strings"

	"github.com/adibfarrasy/lspintar/internal/grammar"
)

// Kind tags the classified role of the cursor position.
type Kind int

const (
	Unknown Kind = iota
	TypeReference
	FieldAccess
	MethodCall
	StaticAccess
	ThisQualified
	ConstructorCall
	ImportTarget
	Declaration
	VariableUse
)

// Context is the tagged classification result . Only the fields
// relevant to Kind are populated.
type Context struct {
	Kind Kind

	Name     string // VariableUse, TypeReference, Declaration
	Receiver string // FieldAccess, MethodCall, StaticAccess
	Member   string // FieldAccess, MethodCall, StaticAccess, ThisQualified
	Arity    int    // MethodCall, ConstructorCall

	ImportFQNParts []string // ImportTarget
	ImportCursorAt int      // index into ImportFQNParts the cursor falls on

	DeclKind string // Declaration: the symbol kind of the declaring node

	Node grammar.Node // the classified node itself, for span reporting
}

// Classify locates the deepest node at byte offset pos in root and
// classifies it.
func Classify(root grammar.Node, pos int) Context {
	node := root.NodeAt(pos)
	if !node.Valid() {
		return Context{Kind: Unknown}
	}

	if ctx, ok := classifyImport(node); ok {
		return ctx
	}
	if ctx, ok := classifyDeclaration(node); ok {
		return ctx
	}
	if ctx, ok := classifyDotted(node); ok {
		return ctx
	}
	if ctx, ok := classifyConstructorCall(node); ok {
		return ctx
	}
	if ctx, ok := classifyTypeReference(node); ok {
		return ctx
	}
	if isIdentifierLike(node.Kind()) {
		if isThis(node.Text()) {
			return Context{Kind: ThisQualified, Node: node}
		}
		return Context{Kind: VariableUse, Name: node.Text(), Node: node}
	}
	return Context{Kind: Unknown, Node: node}
}

func isIdentifierLike(kind string) bool {
	switch kind {
	case "identifier", "type_identifier", "simple_identifier":
		return true
	}
	return false
}

func isThis(text string) bool {
	return text == "this" || text == "self"
}

// classifyImport walks up from node looking for an import statement; if
// found, reports which dotted segment the cursor lands on.
func classifyImport(node grammar.Node) (Context, bool) {
	for n := node; n.Valid(); n = n.Parent() {
		switch n.Kind() {
		case "import_declaration", "import_header":
			fqn := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(n.Text()), "import "), ";")
			fqn = strings.TrimPrefix(fqn, "static ")
			parts := strings.Split(strings.TrimSuffix(fqn, ".*"), ".")
			idx := segmentIndex(n, node, parts)
			return Context{Kind: ImportTarget, ImportFQNParts: parts, ImportCursorAt: idx, Node: node}, true
		}
	}
	return Context{}, false
}

// segmentIndex approximates which dotted segment the cursor node
// corresponds to by matching its text against the parts list; falls back to
// the last segment (the common case of navigating to the imported symbol).
func segmentIndex(importNode, cursorNode grammar.Node, parts []string) int {
	text := cursorNode.Text()
	for i, p := range parts {
		if p == text {
			return i
		}
	}
	return len(parts) - 1
}

// classifyDeclaration reports Declaration when the cursor sits exactly on
// the identifier naming a declaration (not a use of it).
func classifyDeclaration(node grammar.Node) (Context, bool) {
	parent := node.Parent()
	if !parent.Valid() {
		return Context{}, false
	}
	if parent.Kind() == "method_invocation" {
		return Context{}, false // a call's name field names the callee, not a declaration
	}
	nameField := parent.ChildByField("name")
	if nameField.Valid() && sameSpan(nameField, node) {
		return Context{Kind: Declaration, Name: node.Text(), DeclKind: parent.Kind(), Node: node}, true
	}
	return Context{}, false
}

func sameSpan(a, b grammar.Node) bool {
	sa, sb := a.Span(), b.Span()
	return sa.StartByte == sb.StartByte && sa.EndByte == sb.EndByte
}

// classifyDotted handles FieldAccess/MethodCall/StaticAccess/ThisQualified,
// applying the left-of-dot disambiguation rule: a cursor on the receiver
// classifies as the receiver's own category, not as a member access
//.
func classifyDotted(node grammar.Node) (Context, bool) {
	parent := node.Parent()
	if !parent.Valid() {
		return Context{}, false
	}
	switch parent.Kind() {
	case "field_access", "navigation_expression":
		object := parent.ChildByField("object")
		field := parent.ChildByField("field")
		if !object.Valid() || !field.Valid() {
			return Context{}, false
		}
		if sameSpan(object, node) {
			return Context{}, false // let the caller re-classify the receiver itself
		}
		if sameSpan(field, node) {
			receiver := object.Text()
			member := field.Text()
			if isThis(receiver) {
				return Context{Kind: ThisQualified, Member: member, Node: node}, true
			}
			if looksLikeTypeName(receiver) {
				return Context{Kind: StaticAccess, Receiver: receiver, Member: member, Node: node}, true
			}
			return Context{Kind: FieldAccess, Receiver: receiver, Member: member, Node: node}, true
		}
	case "method_invocation", "call_expression":
		nameField := parent.ChildByField("name")
		objField := parent.ChildByField("object")
		argsField := parent.ChildByField("arguments")
		if nameField.Valid() && sameSpan(nameField, node) {
			receiver := ""
			if objField.Valid() {
				receiver = objField.Text()
			}
			return Context{
				Kind: MethodCall, Receiver: receiver, Member: node.Text(),
				Arity: countArgs(argsField), Node: node,
			}, true
		}
		if objField.Valid() && sameSpan(objField, node) {
			return Context{}, false // left-of-dot: fall through to receiver's own category
		}
	}
	return Context{}, false
}

func countArgs(argsNode grammar.Node) int {
	if !argsNode.Valid() {
		return 0
	}
	return len(argsNode.NamedChildren())
}

// looksLikeTypeName applies the conventional JVM rule: identifiers starting
// with an uppercase letter are type names.
func looksLikeTypeName(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func classifyConstructorCall(node grammar.Node) (Context, bool) {
	parent := node.Parent()
	if !parent.Valid() {
		return Context{}, false
	}
	switch parent.Kind() {
	case "object_creation_expression", "new_expression":
		typeField := parent.ChildByField("type")
		argsField := parent.ChildByField("arguments")
		if typeField.Valid() && (sameSpan(typeField, node) || nodeWithin(typeField, node)) {
			return Context{Kind: ConstructorCall, Name: typeField.Text(), Arity: countArgs(argsField), Node: node}, true
		}
	}
	return Context{}, false
}

func nodeWithin(outer, inner grammar.Node) bool {
	os, is := outer.Span(), inner.Span()
	return os.StartByte <= is.StartByte && is.EndByte <= os.EndByte
}

// classifyTypeReference covers extends/implements clauses, casts, type
// annotations, variable declaration types, and formal parameter types: any
// position where the enclosing node treats this identifier as a type.
func classifyTypeReference(node grammar.Node) (Context, bool) {
	if !looksLikeTypeName(node.Text()) {
		return Context{}, false
	}
	for p := node.Parent(); p.Valid(); p = p.Parent() {
		switch p.Kind() {
		case "superclass", "interfaces", "super_type_list", "delegation_specifiers",
			"cast_expression", "type_identifier", "formal_parameter", "parameter",
			"local_variable_declaration", "property_declaration", "variable_declarator",
			"type_arguments", "user_type":
			return Context{Kind: TypeReference, Name: node.Text(), Node: node}, true
		case "method_invocation", "call_expression", "field_access", "navigation_expression",
			"object_creation_expression", "new_expression":
			return Context{}, false
		}
	}
	return Context{}, false
}
