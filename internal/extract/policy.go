package extract

import "github.com/adibfarrasy/lspintar/internal/store"

// declRule maps one CST node kind to the symbol kind it introduces and the
// field holding its identifier. Declarative rule tables read the same way
// across all three languages even though the underlying grammars disagree
// on node names.
type declRule struct {
	NodeKind   string
	SymbolType store.SymbolType
	NameField  string // defaults to "name" when empty
}

// policy captures the per-language differences the extractor must account
// for: which node kinds open a new containment scope, which introduce
// members, and the handful of language-specific quirks calls out.
type policy struct {
	TypeDecls   []declRule
	MethodDecls []declRule
	FieldDecls  []declRule
	ParamDecls  []declRule
	LocalDecls  []declRule

	ExtendsField    string // field holding the superclass/interfaces clause
	ImplementsField string // empty when the grammar doesn't distinguish

	ImplicitPublicModifier bool // Groovy: no explicit modifier means public
	DualParameterProperty  bool // Kotlin: class_parameter is Parameter+Property
	AnnotationIsInterface  bool // Java: annotation_type_declaration -> Interface
	EnumConstantIsField    bool // Java: enum_constant -> Field scoped to the enum
}

func javaPolicy() policy {
	return policy{
		TypeDecls: []declRule{
			{NodeKind: "class_declaration", SymbolType: store.SymbolClass},
			{NodeKind: "interface_declaration", SymbolType: store.SymbolInterface},
			{NodeKind: "enum_declaration", SymbolType: store.SymbolEnumClass},
			{NodeKind: "annotation_type_declaration", SymbolType: store.SymbolAnnotation},
		},
		MethodDecls: []declRule{
			{NodeKind: "method_declaration", SymbolType: store.SymbolMethod},
			{NodeKind: "constructor_declaration", SymbolType: store.SymbolConstructor},
			{NodeKind: "annotation_type_element_declaration", SymbolType: store.SymbolMethod},
		},
		FieldDecls: []declRule{
			{NodeKind: "variable_declarator", SymbolType: store.SymbolField},
			{NodeKind: "enum_constant", SymbolType: store.SymbolField},
		},
		ParamDecls: []declRule{
			{NodeKind: "formal_parameter", SymbolType: store.SymbolParameter},
		},
		LocalDecls: []declRule{
			{NodeKind: "local_variable_declaration", SymbolType: store.SymbolLocalVariable},
		},
		ExtendsField:          "superclass",
		ImplementsField:       "interfaces",
		AnnotationIsInterface: true,
		EnumConstantIsField:   true,
	}
}

func groovyPolicy() policy {
	p := javaPolicy()
	p.ImplicitPublicModifier = true
	p.AnnotationIsInterface = false
	return p
}

func kotlinPolicy() policy {
	return policy{
		TypeDecls: []declRule{
			{NodeKind: "class_declaration", SymbolType: store.SymbolClass},
			{NodeKind: "object_declaration", SymbolType: store.SymbolClass},
		},
		MethodDecls: []declRule{
			{NodeKind: "function_declaration", SymbolType: store.SymbolMethod},
			{NodeKind: "secondary_constructor", SymbolType: store.SymbolConstructor},
			{NodeKind: "primary_constructor", SymbolType: store.SymbolConstructor},
		},
		// property_declaration covers both class-scoped properties and
		// function-body val/var: walkFieldDecl picks the right SymbolType by
		// checking whether the enclosing scope is a type or not.
		FieldDecls: []declRule{
			{NodeKind: "property_declaration", SymbolType: store.SymbolProperty},
		},
		ParamDecls: []declRule{
			{NodeKind: "parameter", SymbolType: store.SymbolParameter},
			{NodeKind: "class_parameter", SymbolType: store.SymbolParameter},
		},
		ExtendsField:          "delegation_specifiers",
		ImplementsField:       "",
		DualParameterProperty: true,
	}
}

func (p policy) nameField(r declRule) string {
	if r.NameField != "" {
		return r.NameField
	}
	return "name"
}

func (p policy) matchType(kind string) (declRule, bool) {
	return match(p.TypeDecls, kind)
}

func (p policy) matchMethod(kind string) (declRule, bool) {
	return match(p.MethodDecls, kind)
}

func (p policy) matchField(kind string) (declRule, bool) {
	return match(p.FieldDecls, kind)
}

func (p policy) matchParam(kind string) (declRule, bool) {
	return match(p.ParamDecls, kind)
}

func (p policy) matchLocal(kind string) (declRule, bool) {
	return match(p.LocalDecls, kind)
}

func match(rules []declRule, kind string) (declRule, bool) {
	for _, r := range rules {
		if r.NodeKind == kind {
			return r, true
		}
	}
	return declRule{}, false
}
