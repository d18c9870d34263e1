package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/store"
)

// Hover resolves the symbol at (line, col) the same way Definition does,
// then renders a text block: symbol kind, modifiers, enclosing type FQN,
// signature, and leading doc comment.
func (c *Cascade) Hover(ctx context.Context, branch, filePath string, src []byte, lang grammar.Language, line, col int) (string, error) {
	target, err := c.Definition(ctx, branch, filePath, src, lang, line, col)
	if err != nil {
		return "", err
	}
	return renderHover(target), nil
}

func renderHover(t *Target) string {
	if t.Symbol != nil {
		return renderSymbolHover(t.Symbol)
	}
	if t.External != nil {
		return renderExternalHover(t.External)
	}
	return ""
}

func renderSymbolHover(s *store.Symbol) string {
	var b strings.Builder
	if s.Metadata.DocComment != "" {
		b.WriteString(strings.TrimSpace(s.Metadata.DocComment))
		b.WriteString("\n\n")
	}
	if len(s.Modifiers) > 0 {
		b.WriteString(strings.Join(s.Modifiers, " "))
		b.WriteString(" ")
	}
	b.WriteString(string(s.SymbolType))
	b.WriteString(" ")
	b.WriteString(signature(s))
	if s.ParentFQN != "" {
		fmt.Fprintf(&b, "\n\nin %s", s.ParentFQN)
	}
	return b.String()
}

func signature(s *store.Symbol) string {
	switch s.SymbolType {
	case store.SymbolMethod, store.SymbolConstructor:
		params := strings.Join(s.Metadata.ParamTypes, ", ")
		sig := fmt.Sprintf("%s(%s)", s.ShortName, params)
		if s.Metadata.ReturnType != "" {
			sig += ": " + s.Metadata.ReturnType
		}
		return sig
	case store.SymbolField, store.SymbolProperty, store.SymbolParameter, store.SymbolLocalVariable:
		if s.Metadata.DeclType != "" {
			return fmt.Sprintf("%s: %s", s.ShortName, s.Metadata.DeclType)
		}
		return s.ShortName
	default:
		return s.FQN
	}
}

func renderExternalHover(e *store.ExternalSymbol) string {
	var b strings.Builder
	if len(e.Modifiers) > 0 {
		b.WriteString(strings.Join(e.Modifiers, " "))
		b.WriteString(" ")
	}
	b.WriteString(string(e.SymbolType))
	b.WriteString(" ")
	b.WriteString(e.ShortName)
	if e.NeedsDecompilation {
		fmt.Fprintf(&b, "\n\n(decompiled source unavailable; from %s)", e.JarPath)
	} else {
		fmt.Fprintf(&b, "\n\nin %s", e.JarPath)
	}
	return b.String()
}
