// Package grammar is the Grammar Facade: one concrete-syntax-tree
// parser per source language, wrapped behind a single Tree/Node API so the
// Symbol Extractor, Cursor Classifier, and Diagnostics Emitter never branch
// on which tree-sitter grammar produced a node.
package grammar

import (
	"fmt"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsgroovy "github.com/tree-sitter-grammars/tree-sitter-groovy/bindings/go"
	tskotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	tsjava "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// Language identifies one of the three supported JVM source grammars.
type Language string

const (
	Java    Language = "java"
	Kotlin  Language = "kotlin"
	Groovy  Language = "groovy"
	Unknown Language = ""
)

// LanguageForExtension classifies a file by its extension.
func LanguageForExtension(ext string) Language {
	switch ext {
	case ".java":
		return Java
	case ".kt", ".kts":
		return Kotlin
	case ".groovy", ".gradle":
		return Groovy
	default:
		return Unknown
	}
}

// Facade owns one compiled Parser per language and dispatches Parse calls
// to the right one.
type Facade struct {
	parsers map[Language]*sitter.Parser
	langs   map[Language]*sitter.Language
}

// NewFacade compiles all three language parsers up front; a parser is cheap
// to hold and tree-sitter parsers are not safe for concurrent use, so
// callers needing concurrency should call NewFacade per goroutine or guard
// it with their own synchronization.
func NewFacade() (*Facade, error) {
	f := &Facade{
		parsers: make(map[Language]*sitter.Parser, 3),
		langs:   make(map[Language]*sitter.Language, 3),
	}
	if err := f.compile(Java, tsjava.Language()); err != nil {
		return nil, err
	}
	if err := f.compile(Kotlin, tskotlin.Language()); err != nil {
		return nil, err
	}
	if err := f.compile(Groovy, tsgroovy.Language()); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Facade) compile(lang Language, raw unsafe.Pointer) error {
	sl := sitter.NewLanguage(raw)
	p := sitter.NewParser()
	if err := p.SetLanguage(sl); err != nil {
		return fmt.Errorf("grammar: set language %s: %w", lang, err)
	}
	f.parsers[lang] = p
	f.langs[lang] = sl
	return nil
}

// Parse parses src with the grammar for lang, returning a Tree the caller
// must Close. Returns a plain error (not wrapped with lsperrors.ErrParse) if
// the language has no compiled parser.
func (f *Facade) Parse(lang Language, src []byte) (*Tree, error) {
	p, ok := f.parsers[lang]
	if !ok {
		return nil, fmt.Errorf("grammar: unsupported language %q", lang)
	}
	raw := p.Parse(src, nil)
	if raw == nil {
		return nil, fmt.Errorf("grammar: parser returned nil tree for %s", lang)
	}
	return &Tree{raw: raw, src: src, lang: lang, sitterLang: f.langs[lang]}, nil
}

// Query compiles a tree-sitter query string against lang's grammar, for
// components (extractor, classifier) that want declarative node matching
// instead of manual tree walking.
func (f *Facade) Query(lang Language, queryText string) (*sitter.Query, error) {
	sl, ok := f.langs[lang]
	if !ok {
		return nil, fmt.Errorf("grammar: unsupported language %q", lang)
	}
	q, err := sitter.NewQuery(sl, queryText)
	if err != nil {
		return nil, fmt.Errorf("grammar: compile query: %w", err)
	}
	return q, nil
}
