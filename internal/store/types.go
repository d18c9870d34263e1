package store

import "time"

// SymbolType enumerates the declaration kinds the extractor recognizes
// across Java, Groovy, and Kotlin.
type SymbolType string

const (
	SymbolClass          SymbolType = "class"
	SymbolInterface      SymbolType = "interface"
	SymbolEnumClass      SymbolType = "enum_class"
	SymbolAnnotation     SymbolType = "annotation"
	SymbolMethod         SymbolType = "method"
	SymbolConstructor    SymbolType = "constructor"
	SymbolField          SymbolType = "field"
	SymbolProperty       SymbolType = "property"
	SymbolParameter      SymbolType = "parameter"
	SymbolLocalVariable  SymbolType = "local_variable"
	SymbolPackage        SymbolType = "package"
	SymbolImport         SymbolType = "import"
)

// File is a single indexed source file, scoped to a VCS branch.
type File struct {
	ID          int64
	Path        string
	Language    string // "java" | "groovy" | "kotlin"
	VCSBranch   string
	Hash        string
	LastIndexed time.Time
}

// Span is a byte/line/column range. Lines and columns are 0-based,
// matching tree-sitter convention (and boundary-behavior tests).
type Span struct {
	StartByte int
	StartLine int
	StartCol  int
	EndByte   int
	EndLine   int
	EndCol    int
}

// Contains reports whether other is fully enclosed by s (identifier
// span contained within full span).
func (s Span) Contains(other Span) bool {
	return s.StartByte <= other.StartByte && other.EndByte <= s.EndByte
}

// ContainsPosition reports whether (line, col) falls within s, inclusive.
func (s Span) ContainsPosition(line, col int) bool {
	afterStart := line > s.StartLine || (line == s.StartLine && col >= s.StartCol)
	beforeEnd := line < s.EndLine || (line == s.EndLine && col <= s.EndCol)
	return afterStart && beforeEnd
}

// Symbol is a declaration discovered in a workspace source file.
type Symbol struct {
	ID int64

	ShortName string
	FQN       string
	ParentFQN string // empty when top-level

	FilePath  string
	FileID    int64
	Language  string
	VCSBranch string

	FullSpan       Span
	IdentifierSpan Span

	SymbolType SymbolType
	Modifiers  []string // subset of {public,private,protected,static,final,abstract,override,open,sealed,data,companion,default}

	ExtendsName     string   // as written, may be short or qualified
	ImplementsNames []string // as written

	LastModified time.Time

	// Metadata carries per-language details the resolver needs but that
	// don't warrant their own column, e.g. ordered parameter type lists
	// and the declared return type for overload resolution.
	Metadata SymbolMetadata
}

// SymbolMetadata is the arbitrary per-symbol blob attached to a Symbol,
// persisted as JSON. ParamTypes/ReturnType back arity-first overload
// resolution; DocComment backs hover rendering.
type SymbolMetadata struct {
	ParamTypes []string `json:"param_types,omitempty"`
	ParamNames []string `json:"param_names,omitempty"`
	ReturnType string   `json:"return_type,omitempty"`
	DeclType   string   `json:"decl_type,omitempty"` // for fields/properties/locals/params
	DocComment string   `json:"doc_comment,omitempty"`
}

// SuperEdge links a symbol to a named supertype, resolved lazily: the
// FQN may be unknown at extraction time and filled in by a later pass.
type SuperEdge struct {
	ID          int64
	SymbolFQN   string
	VCSBranch   string
	ShortName   string // supertype name as written
	ResolvedFQN string // empty until resolved
}

// ImplementsEdge links a symbol to a named interface it implements/conforms to.
type ImplementsEdge struct {
	ID          int64
	SymbolFQN   string
	VCSBranch   string
	ShortName   string
	ResolvedFQN string
}

// ExternalSymbol originates from a JAR or a decompiled classfile.
type ExternalSymbol struct {
	ID int64

	JarPath        string
	SourceFilePath string // path inside the JAR, or synthetic path for decompiled content
	PackageName    string

	ShortName string
	FQN       string
	ParentFQN string

	SymbolType SymbolType
	Modifiers  []string

	FullSpan       Span
	IdentifierSpan Span

	NeedsDecompilation bool
	Metadata           SymbolMetadata
}

// Import is a parsed import/use declaration, consumed by Resolver Cascade
// Layer 2.
type Import struct {
	ID         int64
	FileID     int64
	FQNOrStem  string // fully-qualified target, or package stem for wildcard imports
	ImportedName string // the simple name brought into scope; empty for wildcard
	IsWildcard bool
	IsStatic   bool // Java static imports / Kotlin "import x.Companion.member"
}
