// Package diagnostics is the Diagnostics Emitter: it reports only
// syntactic parse errors from the Grammar Facade as LSP diagnostics at
// Error severity. No semantic validation (unresolved symbols, type
// errors) is performed.
package diagnostics

import (
	"go.lsp.dev/protocol"

	"github.com/adibfarrasy/lspintar/internal/grammar"
)

// Emitter turns parse-error nodes into LSP diagnostics.
type Emitter struct {
	facade *grammar.Facade
}

// New builds an Emitter over the given Grammar Facade.
func New(facade *grammar.Facade) *Emitter {
	return &Emitter{facade: facade}
}

// Diagnose parses src and returns one Error-severity diagnostic per ERROR
// or missing node in the resulting tree. Diagnostics are recomputed on
// every document change, never cached.
func (e *Emitter) Diagnose(lang grammar.Language, src []byte) ([]protocol.Diagnostic, error) {
	tree, err := e.facade.Parse(lang, src)
	if err != nil {
		return []protocol.Diagnostic{{
			Range:    protocol.Range{},
			Severity: protocol.DiagnosticSeverityError,
			Source:   "lspintar",
			Message:  err.Error(),
		}}, nil
	}
	defer tree.Close()

	var diags []protocol.Diagnostic
	for _, n := range tree.Errors() {
		span := n.Span()
		diags = append(diags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(span.StartLine), Character: uint32(span.StartCol)},
				End:   protocol.Position{Line: uint32(span.EndLine), Character: uint32(span.EndCol)},
			},
			Severity: protocol.DiagnosticSeverityError,
			Source:   "lspintar",
			Message:  "syntax error",
		})
	}
	return diags, nil
}
