package resolve

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestCascade(t *testing.T, st *store.Store) *Cascade {
	t.Helper()
	facade, err := grammar.NewFacade()
	require.NoError(t, err)
	return New(st, facade, nil)
}

func offsetOf(t *testing.T, src, needle string) (line, col int) {
	t.Helper()
	idx := strings.Index(src, needle)
	require.GreaterOrEqual(t, idx, 0, "needle %q not found", needle)
	for i := 0; i < idx; i++ {
		if src[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return line, col
}

func TestDefinition_LocalVariableResolvesToDeclaration(t *testing.T) {
	st := newTestStore(t)
	c := newTestCascade(t, st)

	src := `class C {
    void run() {
        int total = 1;
        total = total + 1;
    }
}`
	local := &store.Symbol{
		ShortName:  "total",
		FQN:        "com.acme.C.run.total",
		SymbolType: store.SymbolLocalVariable,
		FullSpan:   store.Span{StartByte: strings.Index(src, "int total"), EndByte: strings.Index(src, ";\n        total")},
	}
	_, err := st.UpsertFile("main", &store.ExtractedFile{
		Path: "C.java", Language: "java", Hash: "h1",
		Symbols: []*store.Symbol{local},
	})
	require.NoError(t, err)

	line, col := offsetOf(t, src, "total + 1")
	target, err := c.Definition(context.Background(), "main", "C.java", []byte(src), grammar.Java, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	assert.Equal(t, local.FQN, target.Symbol.FQN)
}

func TestDefinition_TypeReferenceResolvesViaImport(t *testing.T) {
	st := newTestStore(t)
	c := newTestCascade(t, st)

	src := `import com.acme.model.User;
class C {
    void run() {
        User u = null;
    }
}`
	userClass := &store.Symbol{ShortName: "User", FQN: "com.acme.model.User", SymbolType: store.SymbolClass}
	_, err := st.UpsertFile("main", &store.ExtractedFile{
		Path: "User.java", Language: "java", Hash: "h1",
		Symbols: []*store.Symbol{userClass},
	})
	require.NoError(t, err)

	cFileID, err := st.UpsertFile("main", &store.ExtractedFile{
		Path: "C.java", Language: "java", Hash: "h2",
		Imports: []*store.Import{{FQNOrStem: "com.acme.model.User", ImportedName: "User"}},
	})
	require.NoError(t, err)
	require.Positive(t, cFileID)

	line, col := offsetOf(t, src, "User u")
	target, err := c.Definition(context.Background(), "main", "C.java", []byte(src), grammar.Java, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	assert.Equal(t, userClass.FQN, target.Symbol.FQN)
}

func TestDefinition_ThisQualifiedFieldResolvesThroughSupertype(t *testing.T) {
	st := newTestStore(t)
	c := newTestCascade(t, st)

	src := `class Controller extends BaseService {
    void run() {
        this.serviceName = "x";
    }
}`
	base := &store.Symbol{ShortName: "BaseService", FQN: "com.acme.BaseService", SymbolType: store.SymbolClass}
	field := &store.Symbol{ShortName: "serviceName", FQN: "com.acme.BaseService.serviceName", ParentFQN: base.FQN, SymbolType: store.SymbolField}
	_, err := st.UpsertFile("main", &store.ExtractedFile{
		Path: "BaseService.java", Language: "java", Hash: "h1",
		Symbols: []*store.Symbol{base, field},
	})
	require.NoError(t, err)

	controller := &store.Symbol{ShortName: "Controller", FQN: "com.acme.Controller", SymbolType: store.SymbolClass}
	_, err = st.UpsertFile("main", &store.ExtractedFile{
		Path: "Controller.java", Language: "java", Hash: "h2",
		Symbols: []*store.Symbol{controller},
		SuperEdges: []*store.SuperEdge{
			{SymbolFQN: controller.FQN, ShortName: "BaseService", ResolvedFQN: base.FQN},
		},
	})
	require.NoError(t, err)

	line, col := offsetOf(t, src, `serviceName = "x"`)
	target, err := c.Definition(context.Background(), "main", "Controller.java", []byte(src), grammar.Java, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	assert.Equal(t, field.FQN, target.Symbol.FQN)
}

func TestDefinition_StaticAccessResolvesOnDeclaredTypeNotInstance(t *testing.T) {
	st := newTestStore(t)
	c := newTestCascade(t, st)

	src := `class C {
    void run() {
        int limit = DataProcessor.MAX_BATCH_SIZE;
    }
}`
	iface := &store.Symbol{ShortName: "DataProcessor", FQN: "com.acme.DataProcessor", SymbolType: store.SymbolInterface}
	field := &store.Symbol{ShortName: "MAX_BATCH_SIZE", FQN: "com.acme.DataProcessor.MAX_BATCH_SIZE", ParentFQN: iface.FQN, SymbolType: store.SymbolField}
	_, err := st.UpsertFile("main", &store.ExtractedFile{
		Path: "DataProcessor.java", Language: "java", Hash: "h1",
		Symbols: []*store.Symbol{iface, field},
	})
	require.NoError(t, err)

	line, col := offsetOf(t, src, "MAX_BATCH_SIZE;")
	target, err := c.Definition(context.Background(), "main", "C.java", []byte(src), grammar.Java, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	assert.Equal(t, field.FQN, target.Symbol.FQN)
	assert.Equal(t, store.SymbolField, target.Symbol.SymbolType)

	line, col = offsetOf(t, src, "DataProcessor.MAX_BATCH_SIZE")
	target, err = c.Definition(context.Background(), "main", "C.java", []byte(src), grammar.Java, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	assert.Equal(t, iface.FQN, target.Symbol.FQN)
	assert.Equal(t, store.SymbolInterface, target.Symbol.SymbolType)
}

func TestDefinition_MethodCallOnVariableResolvesDeclaredType(t *testing.T) {
	st := newTestStore(t)
	c := newTestCascade(t, st)

	src := `class C {
    void run(Repository repository) {
        repository.findById(1);
    }
}`
	iface := &store.Symbol{ShortName: "Repository", FQN: "com.acme.Repository", SymbolType: store.SymbolInterface}
	method := &store.Symbol{
		ShortName: "findById", FQN: "com.acme.Repository.findById", ParentFQN: iface.FQN,
		SymbolType: store.SymbolMethod, Metadata: store.SymbolMetadata{ParamTypes: []string{"Long"}},
	}
	_, err := st.UpsertFile("main", &store.ExtractedFile{
		Path: "Repository.java", Language: "java", Hash: "h1",
		Symbols: []*store.Symbol{iface, method},
	})
	require.NoError(t, err)

	param := &store.Symbol{
		ShortName: "repository", FQN: "com.acme.C.run.repository", SymbolType: store.SymbolParameter,
		Metadata: store.SymbolMetadata{DeclType: "Repository"},
		FullSpan: store.Span{StartByte: strings.Index(src, "Repository repository"), EndByte: strings.Index(src, ") {")},
	}
	_, err = st.UpsertFile("main", &store.ExtractedFile{
		Path: "C.java", Language: "java", Hash: "h2",
		Symbols: []*store.Symbol{param},
	})
	require.NoError(t, err)

	line, col := offsetOf(t, src, "findById(1)")
	target, err := c.Definition(context.Background(), "main", "C.java", []byte(src), grammar.Java, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	assert.Equal(t, method.FQN, target.Symbol.FQN)
}

func TestDefinition_UnresolvedSymbolReturnsError(t *testing.T) {
	st := newTestStore(t)
	c := newTestCascade(t, st)

	src := `class C {
    void run() {
        Nonexistent x = null;
    }
}`
	line, col := offsetOf(t, src, "Nonexistent x")
	_, err := c.Definition(context.Background(), "main", "C.java", []byte(src), grammar.Java, line, col)
	assert.Error(t, err)
}

func TestHover_RendersSignatureAndEnclosingType(t *testing.T) {
	st := newTestStore(t)
	c := newTestCascade(t, st)

	src := `class C {
    void run() {
        int total = 1;
    }
}`
	local := &store.Symbol{
		ShortName: "total", FQN: "com.acme.C.run.total", SymbolType: store.SymbolLocalVariable,
		ParentFQN: "com.acme.C",
		Metadata:  store.SymbolMetadata{DeclType: "int"},
		FullSpan:  store.Span{StartByte: strings.Index(src, "int total"), EndByte: strings.Index(src, ";\n    }")},
	}
	_, err := st.UpsertFile("main", &store.ExtractedFile{
		Path: "C.java", Language: "java", Hash: "h1",
		Symbols: []*store.Symbol{local},
	})
	require.NoError(t, err)

	line, col := offsetOf(t, src, "total = 1")
	text, err := c.Hover(context.Background(), "main", "C.java", []byte(src), grammar.Java, line, col)
	require.NoError(t, err)
	assert.Contains(t, text, "total: int")
	assert.Contains(t, text, "com.acme.C")
}
