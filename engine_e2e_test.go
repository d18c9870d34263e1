package lspintar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adibfarrasy/lspintar/internal/config"
	"github.com/adibfarrasy/lspintar/internal/store"
)

func newFixtureEngine(t *testing.T, fixtureDir string) *Engine {
	t.Helper()
	cfg := config.Config{
		DBPath:                   filepath.Join(t.TempDir(), "index.db"),
		DecompiledSourceCacheDir: filepath.Join(t.TempDir(), "decompiled"),
	}
	e, err := New(fixtureDir, cfg, WithVCSAdapter(fixedBranchVCS{}))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	err = e.IndexDirectory(context.Background(), fixtureDir)
	require.NoError(t, err)
	return e
}

type fixedBranchVCS struct{}

func (fixedBranchVCS) CurrentBranch(ctx context.Context) (string, error) { return "main", nil }

// positionOf locates needle's byte offset in a file and converts it to the
// 0-based (line, col) pair Engine query methods expect.
func positionOf(t *testing.T, path, needle string) (line, col int) {
	t.Helper()
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	idx := strings.Index(string(src), needle)
	require.GreaterOrEqual(t, idx, 0, "needle %q not found in %s", needle, path)
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

func absFixture(t *testing.T, rel string) string {
	t.Helper()
	abs, err := filepath.Abs(rel)
	require.NoError(t, err)
	return abs
}

func TestEngine_DefinitionJumpsAcrossLanguages(t *testing.T) {
	fixture := absFixture(t, "testdata/polyglot-spring")
	e := newFixtureEngine(t, fixture)

	ktFile := filepath.Join(fixture, "src/main/kotlin/com/acme/repo/UserRepository.kt")
	line, col := positionOf(t, ktFile, "findById(id: Long)")

	target, err := e.Definition(context.Background(), ktFile, readFile(t, ktFile), line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	require.Equal(t, store.SymbolMethod, target.Symbol.SymbolType)
	require.Equal(t, "com.acme.repo.BaseRepository", target.Symbol.ParentFQN)
	require.True(t, strings.HasSuffix(target.Symbol.FilePath, "BaseRepository.java"))
}

func TestEngine_QualifierJumpDistinguishesMemberFromType(t *testing.T) {
	fixture := absFixture(t, "testdata/multi-module")
	e := newFixtureEngine(t, fixture)

	controller := filepath.Join(fixture, "controller/src/main/groovy/com/acme/web/UserController.groovy")
	src := readFile(t, controller)

	line, col := positionOf(t, controller, "MAX_BATCH_SIZE")
	target, err := e.Definition(context.Background(), controller, src, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	require.Equal(t, store.SymbolField, target.Symbol.SymbolType)
	require.True(t, strings.HasSuffix(target.Symbol.FilePath, "DataProcessor.groovy"))

	line, col = positionOf(t, controller, "DataProcessor.MAX_BATCH_SIZE")
	target, err = e.Definition(context.Background(), controller, src, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	require.Equal(t, store.SymbolInterface, target.Symbol.SymbolType)
}

func TestEngine_InheritedMemberViaThisResolvesToSuperclass(t *testing.T) {
	fixture := absFixture(t, "testdata/multi-module")
	e := newFixtureEngine(t, fixture)

	controller := filepath.Join(fixture, "controller/src/main/groovy/com/acme/web/UserController.groovy")
	src := readFile(t, controller)
	line, col := positionOf(t, controller, `serviceName = "user-api"`)

	target, err := e.Definition(context.Background(), controller, src, line, col)
	require.NoError(t, err)
	require.NotNil(t, target.Symbol)
	require.True(t, strings.HasSuffix(target.Symbol.FilePath, "BaseService.groovy"))
}

func TestEngine_ImplementationFinderReturnsAllImplementors(t *testing.T) {
	fixture := absFixture(t, "testdata/multi-module")
	e := newFixtureEngine(t, fixture)

	processorFile := filepath.Join(fixture, "processor/src/main/groovy/com/acme/batch/DataProcessor.groovy")
	src := readFile(t, processorFile)
	line, col := positionOf(t, processorFile, "DataProcessor {")

	impls, err := e.Implementations(context.Background(), processorFile, src, line, col)
	require.NoError(t, err)

	var names []string
	for _, sym := range impls {
		names = append(names, sym.ShortName)
	}
	require.Contains(t, names, "UserController")
	require.Contains(t, names, "LoggingProcessor")
}

func TestEngine_IdempotentUpsertProducesIdenticalRowSet(t *testing.T) {
	fixture := absFixture(t, "testdata/multi-module")
	e := newFixtureEngine(t, fixture)

	path := filepath.Join(fixture, "service/src/main/groovy/com/acme/service/UserService.groovy")
	ctx := context.Background()

	before, err := e.store.FindByFQN("main", "com.acme.service.UserService")
	require.NoError(t, err)
	require.NotNil(t, before)

	require.NoError(t, e.IndexFile(ctx, "main", path))

	after, err := e.store.FindByFQN("main", "com.acme.service.UserService")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}
