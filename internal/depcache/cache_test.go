package depcache

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/store"
)

type fakeBuildTool struct {
	jars []string
}

func (f *fakeBuildTool) Classpath(ctx context.Context) ([]string, error)   { return f.jars, nil }
func (f *fakeBuildTool) SourceRoots(ctx context.Context) ([]string, error) { return nil, nil }

type countingDecompiler struct {
	calls int
	text  string
}

func (d *countingDecompiler) Decompile(ctx context.Context, jarPath, internalClassPath string) (string, error) {
	d.calls++
	return d.text, nil
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestFacade(t *testing.T) *grammar.Facade {
	t.Helper()
	facade, err := grammar.NewFacade()
	require.NoError(t, err)
	return facade
}

func TestScan_IndexesClassEntriesAsPendingExternals(t *testing.T) {
	st := newTestStore(t)
	facade := newTestFacade(t)

	jarPath := filepath.Join(t.TempDir(), "lib.jar")
	writeZip(t, jarPath, map[string]string{
		"com/acme/Widget.class":        "",
		"com/acme/Widget$Inner.class":  "", // anonymous/inner, skipped
	})

	c, err := New(st, facade, &fakeBuildTool{jars: []string{jarPath}}, NullDecompiler{}, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Scan(context.Background()))

	sym, err := st.FindExternalByFQN("com.acme.Widget")
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.True(t, sym.NeedsDecompilation)
	assert.Equal(t, "Widget", sym.ShortName)

	inner, err := st.FindExternalByFQN("com.acme.Widget$Inner")
	require.NoError(t, err)
	assert.Nil(t, inner)
}

func TestScan_SkipsAlreadyScannedJarAtSameMtime(t *testing.T) {
	st := newTestStore(t)
	facade := newTestFacade(t)

	jarPath := filepath.Join(t.TempDir(), "lib.jar")
	writeZip(t, jarPath, map[string]string{"com/acme/Widget.class": ""})

	c, err := New(st, facade, &fakeBuildTool{jars: []string{jarPath}}, NullDecompiler{}, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Scan(context.Background()))
	first, err := st.FindExternalByFQN("com.acme.Widget")
	require.NoError(t, err)

	require.NoError(t, c.Scan(context.Background()))
	second, err := st.FindExternalByFQN("com.acme.Widget")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestScan_RescansAfterMtimeChange(t *testing.T) {
	st := newTestStore(t)
	facade := newTestFacade(t)

	jarPath := filepath.Join(t.TempDir(), "lib.jar")
	writeZip(t, jarPath, map[string]string{"com/acme/Widget.class": ""})

	c, err := New(st, facade, &fakeBuildTool{jars: []string{jarPath}}, NullDecompiler{}, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.Scan(context.Background()))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(jarPath, future, future))

	require.NoError(t, c.Scan(context.Background()))
	sym, err := st.FindExternalByFQN("com.acme.Widget")
	require.NoError(t, err)
	require.NotNil(t, sym)
}

func TestEnsureDecompiled_DeduplicatesAndPersistsResult(t *testing.T) {
	st := newTestStore(t)
	facade := newTestFacade(t)
	decompiler := &countingDecompiler{text: "package com.acme;\nclass Widget {}\n"}

	c, err := New(st, facade, &fakeBuildTool{}, decompiler, t.TempDir())
	require.NoError(t, err)

	ext := &store.ExternalSymbol{
		JarPath:            filepath.Join(t.TempDir(), "lib.jar"),
		SourceFilePath:     "com/acme/Widget.class",
		ShortName:          "Widget",
		FQN:                "com.acme.Widget",
		SymbolType:         store.SymbolClass,
		NeedsDecompilation: true,
	}

	resolved, err := c.EnsureDecompiled(context.Background(), ext)
	require.NoError(t, err)
	assert.False(t, resolved.NeedsDecompilation)
	assert.Equal(t, 1, decompiler.calls)

	resolved2, err := c.EnsureDecompiled(context.Background(), ext)
	require.NoError(t, err)
	assert.False(t, resolved2.NeedsDecompilation)
	assert.Equal(t, 1, decompiler.calls, "second call should hit the on-disk cache, not decompile again")
}

func TestEnsureDecompiled_AlreadyResolvedIsNoop(t *testing.T) {
	st := newTestStore(t)
	facade := newTestFacade(t)
	decompiler := &countingDecompiler{}

	c, err := New(st, facade, &fakeBuildTool{}, decompiler, t.TempDir())
	require.NoError(t, err)

	ext := &store.ExternalSymbol{FQN: "com.acme.Widget", NeedsDecompilation: false}
	resolved, err := c.EnsureDecompiled(context.Background(), ext)
	require.NoError(t, err)
	assert.Same(t, ext, resolved)
	assert.Equal(t, 0, decompiler.calls)
}

func TestEnsureDecompiled_DecompilerFailureLeavesSymbolPending(t *testing.T) {
	st := newTestStore(t)
	facade := newTestFacade(t)

	c, err := New(st, facade, &fakeBuildTool{}, NullDecompiler{}, t.TempDir())
	require.NoError(t, err)

	ext := &store.ExternalSymbol{
		JarPath:            "lib.jar",
		SourceFilePath:     "com/acme/Widget.class",
		FQN:                "com.acme.Widget",
		NeedsDecompilation: true,
	}
	resolved, err := c.EnsureDecompiled(context.Background(), ext)
	assert.Error(t, err)
	assert.True(t, resolved.NeedsDecompilation)
}

func TestSourcesJarFor(t *testing.T) {
	assert.Equal(t, "/repo/lib-1.0-sources.jar", sourcesJarFor("/repo/lib-1.0.jar"))
	assert.Equal(t, "/repo/lib-1.0-sources.jar", sourcesJarFor("/repo/lib-1.0-sources.jar"))
}

func TestClassEntryToFQN(t *testing.T) {
	assert.Equal(t, "com.acme.Widget", classEntryToFQN("com/acme/Widget.class"))
}
