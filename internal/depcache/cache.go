// Package depcache is the Dependency Cache: it discovers JARs via
// a Build-Tool Adapter, lists their class entries into the Symbol Index as
// pending External Symbols, and decompiles on demand — deduplicating
// concurrent requests for the same class with singleflight and caching the
// result so a class is never decompiled twice.
package depcache

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	mmap "github.com/edsrzf/mmap-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/adibfarrasy/lspintar/internal/extract"
	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/store"
)

// Cache is the Dependency Cache: JAR discovery, bytecode listing, and
// on-demand decompilation, all persisted through the Symbol Index.
type Cache struct {
	store      *store.Store
	facade     *grammar.Facade
	extractor  *extract.Extractor
	buildTool  BuildToolAdapter
	decompiler DecompilerAdapter
	cacheDir   string

	sf  singleflight.Group
	lru *lru.Cache[string, []string] // jarPath -> cached entry list

	jarLocks   sync.Map // jarPath -> *sync.Mutex
	classLocks sync.Map // jarPath!internalPath -> *sync.Mutex

	logger *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New builds a Cache. cacheDir is the decompiled-source cache directory;
// it is created on first write if missing.
func New(st *store.Store, facade *grammar.Facade, buildTool BuildToolAdapter, decompiler DecompilerAdapter, cacheDir string, opts ...Option) (*Cache, error) {
	entryCache, err := lru.New[string, []string](256)
	if err != nil {
		return nil, fmt.Errorf("depcache: new lru: %w", err)
	}
	c := &Cache{
		store:      st,
		facade:     facade,
		extractor:  extract.New(facade),
		buildTool:  buildTool,
		decompiler: decompiler,
		cacheDir:   cacheDir,
		lru:        entryCache,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) jarLock(jarPath string) *sync.Mutex {
	v, _ := c.jarLocks.LoadOrStore(jarPath, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (c *Cache) classLock(key string) *sync.Mutex {
	v, _ := c.classLocks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Scan discovers the classpath and indexes every jar not already scanned at
// its current mtime. Called synchronously when build_on_init is set, and by
// the Resolver Cascade when an external short-name lookup finds nothing.
func (c *Cache) Scan(ctx context.Context) error {
	jars, err := c.buildTool.Classpath(ctx)
	if err != nil {
		return fmt.Errorf("depcache: classpath: %w", err)
	}
	for _, jar := range jars {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.scanJar(ctx, jar); err != nil {
			c.logger.Warn("scan jar failed", zap.String("jar", jar), zap.Error(err))
		}
	}
	return nil
}

func (c *Cache) scanJar(ctx context.Context, jarPath string) error {
	lock := c.jarLock(jarPath)
	lock.Lock()
	defer lock.Unlock()

	info, err := os.Stat(jarPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", jarPath, err)
	}
	mtime := info.ModTime().Unix()
	scanned, err := c.store.JarScanned(jarPath, mtime)
	if err != nil {
		return err
	}
	if scanned {
		return nil
	}
	if err := c.store.InvalidateJar(jarPath); err != nil {
		return err
	}

	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", jarPath, err)
	}
	defer r.Close()

	var entries []string
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".class") || strings.Contains(f.Name, "$") {
			continue
		}
		entries = append(entries, f.Name)
		fqn := classEntryToFQN(f.Name)
		if _, err := c.store.UpsertExternalSymbol(&store.ExternalSymbol{
			JarPath:            jarPath,
			SourceFilePath:     f.Name,
			PackageName:        packageOf(fqn),
			ShortName:          lastDotSegment(fqn),
			FQN:                fqn,
			SymbolType:         store.SymbolClass,
			NeedsDecompilation: true,
		}); err != nil {
			c.logger.Warn("upsert external symbol failed", zap.String("fqn", fqn), zap.Error(err))
		}
	}
	c.lru.Add(jarPath, entries)

	if sourcesJar := sourcesJarFor(jarPath); sourcesJar != jarPath {
		if _, err := os.Stat(sourcesJar); err == nil {
			c.indexSourcesJar(jarPath, sourcesJar)
		}
	}

	return c.store.MarkJarScanned(jarPath, mtime)
}

// indexSourcesJar runs the Grammar Facade and Symbol Extractor against a
// sibling -sources.jar so externals get real spans up front, skipping the
// decompile step entirely.
func (c *Cache) indexSourcesJar(jarPath, sourcesJarPath string) {
	r, err := zip.OpenReader(sourcesJarPath)
	if err != nil {
		return
	}
	defer r.Close()

	for _, f := range r.File {
		lang := grammar.LanguageForExtension(filepath.Ext(f.Name))
		if lang == grammar.Unknown {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		src, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		ef, err := c.extractor.Extract(lang, f.Name, src, "")
		if err != nil {
			continue
		}
		for _, sym := range ef.Symbols {
			c.store.UpsertExternalSymbol(&store.ExternalSymbol{
				JarPath:            jarPath,
				SourceFilePath:     f.Name,
				PackageName:        packageOf(sym.FQN),
				ShortName:          sym.ShortName,
				FQN:                sym.FQN,
				ParentFQN:          sym.ParentFQN,
				SymbolType:         sym.SymbolType,
				Modifiers:          sym.Modifiers,
				FullSpan:           sym.FullSpan,
				IdentifierSpan:     sym.IdentifierSpan,
				NeedsDecompilation: false,
				Metadata:           sym.Metadata,
			})
		}
	}
}

// EnsureDecompiled resolves ext's real source when needs_decompilation is
// set: concurrent requests for the same (jar_path, internal_path) collapse
// onto one decompilation. On failure the symbol is returned unchanged,
// still pending.
func (c *Cache) EnsureDecompiled(ctx context.Context, ext *store.ExternalSymbol) (*store.ExternalSymbol, error) {
	if !ext.NeedsDecompilation {
		return ext, nil
	}
	key := ext.JarPath + "!" + ext.SourceFilePath
	lock := c.classLock(key)
	lock.Lock()
	defer lock.Unlock()

	result, err, _ := c.sf.Do(key, func() (any, error) {
		return c.decompileAndReparse(ctx, ext)
	})
	if err != nil {
		return ext, err
	}
	return result.(*store.ExternalSymbol), nil
}

func (c *Cache) decompileAndReparse(ctx context.Context, ext *store.ExternalSymbol) (*store.ExternalSymbol, error) {
	cachePath := filepath.Join(c.cacheDir, ext.FQN+".java")
	src, err := readCached(cachePath)
	if err != nil {
		text, derr := c.decompiler.Decompile(ctx, ext.JarPath, ext.SourceFilePath)
		if derr != nil {
			return ext, derr
		}
		if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
			return ext, fmt.Errorf("depcache: mkdir cache dir: %w", err)
		}
		if err := os.WriteFile(cachePath, []byte(text), 0o644); err != nil {
			return ext, fmt.Errorf("depcache: write cache file: %w", err)
		}
		src = []byte(text)
	}

	lang := grammar.Java // decompilers conventionally emit Java-like source regardless of original grammar
	ef, err := c.extractor.Extract(lang, cachePath, src, "")
	if err != nil || len(ef.Symbols) == 0 {
		return ext, fmt.Errorf("depcache: reparse decompiled source: %w", err)
	}
	top := ef.Symbols[0]
	for _, s := range ef.Symbols {
		if s.FQN == ext.FQN {
			top = s
			break
		}
	}

	updated := *ext
	updated.SourceFilePath = cachePath
	updated.FullSpan = top.FullSpan
	updated.IdentifierSpan = top.IdentifierSpan
	updated.NeedsDecompilation = false
	if _, err := c.store.UpsertExternalSymbol(&updated); err != nil {
		return ext, fmt.Errorf("depcache: persist decompiled symbol: %w", err)
	}
	return &updated, nil
}

// readCached reads a previously decompiled file via mmap for large-file
// performance, falling back to os.ReadFile when mmap is unavailable. The
// same (jar_path, internal_path) pair always yields the same cache path.
func readCached(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return os.ReadFile(path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return os.ReadFile(path)
	}
	defer m.Unmap()
	out := make([]byte, len(m))
	copy(out, m)
	return out, nil
}

func classEntryToFQN(entryName string) string {
	trimmed := strings.TrimSuffix(entryName, ".class")
	return strings.ReplaceAll(trimmed, "/", ".")
}

func packageOf(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return ""
	}
	return fqn[:idx]
}

func lastDotSegment(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return fqn
	}
	return fqn[idx+1:]
}
