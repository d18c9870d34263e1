package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/adibfarrasy/lspintar/internal/grammar"
)

func newEmitter(t *testing.T) *Emitter {
	t.Helper()
	facade, err := grammar.NewFacade()
	require.NoError(t, err)
	return New(facade)
}

func TestDiagnose_ValidSourceHasNoDiagnostics(t *testing.T) {
	e := newEmitter(t)
	diags, err := e.Diagnose(grammar.Java, []byte("class C { void run() {} }"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestDiagnose_SyntaxErrorReportsErrorSeverity(t *testing.T) {
	e := newEmitter(t)
	diags, err := e.Diagnose(grammar.Java, []byte("class C { void run( {} }"))
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Equal(t, protocol.DiagnosticSeverityError, d.Severity)
		assert.Equal(t, "lspintar", d.Source)
	}
}

func TestDiagnose_UnsupportedLanguageReportsOneDiagnostic(t *testing.T) {
	e := newEmitter(t)
	diags, err := e.Diagnose(grammar.Unknown, []byte("x"))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, diags[0].Severity)
}

func TestDiagnose_KotlinAndGroovyAlsoParse(t *testing.T) {
	e := newEmitter(t)

	diags, err := e.Diagnose(grammar.Kotlin, []byte("class C { fun run() {} }"))
	require.NoError(t, err)
	assert.Empty(t, diags)

	diags, err = e.Diagnose(grammar.Groovy, []byte("class C { void run() {} }"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}
