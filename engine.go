// Package lspintar orchestrates symbol indexing and resolution for Java,
// Kotlin, and Groovy workspaces: file discovery, incremental extraction,
// cross-type edge resolution, and the on-demand query surface (definition,
// implementation, hover, diagnostics) an LSP server drives.
package lspintar

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/adibfarrasy/lspintar/internal/classify"
	"github.com/adibfarrasy/lspintar/internal/config"
	"github.com/adibfarrasy/lspintar/internal/depcache"
	"github.com/adibfarrasy/lspintar/internal/diagnostics"
	"github.com/adibfarrasy/lspintar/internal/extract"
	"github.com/adibfarrasy/lspintar/internal/grammar"
	"github.com/adibfarrasy/lspintar/internal/implfinder"
	"github.com/adibfarrasy/lspintar/internal/resolve"
	"github.com/adibfarrasy/lspintar/internal/store"
)

// Engine orchestrates the lspintar pipeline: file discovery, extraction via
// the Grammar Facade and Symbol Extractor, cross-type edge resolution, and
// query access through the Resolver Cascade, Implementation Finder, and
// Diagnostics Emitter.
type Engine struct {
	cfg    config.Config
	store  *store.Store
	facade *grammar.Facade

	extractor *extract.Extractor
	cascade   *resolve.Cascade
	finder    *implfinder.Finder
	emitter   *diagnostics.Emitter
	depCache  *depcache.Cache

	vcs        depcache.VCSAdapter
	buildTool  depcache.BuildToolAdapter
	decompiler depcache.DecompilerAdapter

	logger *zap.Logger
}

// Option configures an Engine during New.
type Option func(*engineConfig)

type engineConfig struct {
	vcs        depcache.VCSAdapter
	buildTool  depcache.BuildToolAdapter
	decompiler depcache.DecompilerAdapter
	logger     *zap.Logger
}

// WithLogger injects a structured logger, propagated to every component
// that accepts one.
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) { c.logger = logger }
}

// WithVCSAdapter overrides branch detection (default: git in workspaceDir).
func WithVCSAdapter(vcs depcache.VCSAdapter) Option {
	return func(c *engineConfig) { c.vcs = vcs }
}

// WithBuildTool wires a Build-Tool Adapter so the Dependency Cache can
// discover the classpath. Without one, the classpath comes from scanning
// cfg.GradleCacheDir when it is set; otherwise it is empty and external
// symbol resolution always misses.
func WithBuildTool(bt depcache.BuildToolAdapter) Option {
	return func(c *engineConfig) { c.buildTool = bt }
}

// WithDecompiler overrides the default NullDecompiler.
func WithDecompiler(d depcache.DecompilerAdapter) Option {
	return func(c *engineConfig) { c.decompiler = d }
}

// noopBuildTool answers an empty classpath; used when no build-tool
// integration is configured so the Dependency Cache degrades gracefully
// instead of failing New outright.
type noopBuildTool struct{}

func (noopBuildTool) Classpath(ctx context.Context) ([]string, error)   { return nil, nil }
func (noopBuildTool) SourceRoots(ctx context.Context) ([]string, error) { return nil, nil }

// New creates an Engine backed by a SQLite database at cfg.DBPath, rooted at
// workspaceDir for VCS branch detection and git-aware file discovery.
func New(workspaceDir string, cfg config.Config, opts ...Option) (*Engine, error) {
	ec := &engineConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ec)
	}
	if ec.vcs == nil {
		ec.vcs = &depcache.GitVCSAdapter{RepoDir: workspaceDir}
	}
	if ec.buildTool == nil {
		if cfg.GradleCacheDir != "" {
			ec.buildTool = &depcache.GradleDirAdapter{CacheDir: cfg.GradleCacheDir, ModuleDir: workspaceDir}
		} else {
			ec.buildTool = noopBuildTool{}
		}
	}
	if ec.decompiler == nil {
		ec.decompiler = depcache.NullDecompiler{}
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("lspintar: create store: %w", err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("lspintar: migrate: %w", err)
	}

	facade, err := grammar.NewFacade()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("lspintar: grammar facade: %w", err)
	}

	dc, err := depcache.New(st, facade, ec.buildTool, ec.decompiler, cfg.DecompiledSourceCacheDir, depcache.WithLogger(ec.logger))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("lspintar: dependency cache: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		store:      st,
		facade:     facade,
		extractor:  extract.New(facade),
		cascade:    resolve.New(st, facade, dc, resolve.WithLogger(ec.logger)),
		finder:     implfinder.New(st, implfinder.WithLogger(ec.logger)),
		emitter:    diagnostics.New(facade),
		depCache:   dc,
		vcs:        ec.vcs,
		buildTool:  ec.buildTool,
		decompiler: ec.decompiler,
		logger:     ec.logger,
	}

	if cfg.BuildOnInit {
		if err := dc.Scan(context.Background()); err != nil {
			e.logger.Warn("initial dependency scan failed", zap.Error(err))
		}
	}

	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Symbol Index for direct access, e.g. by a
// query layer that needs lookups beyond the ones Engine exposes.
func (e *Engine) Store() *store.Store {
	return e.store
}

// currentBranch resolves the VCS branch every indexed row and query is
// partitioned by.
func (e *Engine) currentBranch(ctx context.Context) string {
	branch, err := e.vcs.CurrentBranch(ctx)
	if err != nil || branch == "" {
		return depcache.UnversionedBranch
	}
	return branch
}

// IndexFile extracts and upserts a single file's symbols. Unsupported
// extensions are silently skipped so directory walks don't need to
// pre-filter.
func (e *Engine) IndexFile(ctx context.Context, branch, path string) error {
	lang := grammar.LanguageForExtension(filepath.Ext(path))
	if lang == grammar.Unknown {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lspintar: read %s: %w", path, err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(branch, path)
	if err != nil {
		return fmt.Errorf("lspintar: lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return nil
	}

	ef, err := e.extractor.Extract(lang, path, content, hash)
	if err != nil {
		return fmt.Errorf("lspintar: extract %s: %w", path, err)
	}
	ef.Hash = hash

	if _, err := e.store.UpsertFile(branch, ef); err != nil {
		return fmt.Errorf("lspintar: upsert %s: %w", path, err)
	}
	return nil
}

// skipDirs are excluded from a filesystem walk fallback.
var skipDirs = map[string]bool{
	"node_modules": true,
	"build":        true,
	"target":       true,
	".gradle":      true,
}

// IndexDirectory walks root and indexes all files with a supported
// extension, then resolves cross-type edges for the branch once the whole
// batch of files has been upserted. If root is inside a git repository,
// uses git ls-files to respect
// .gitignore; falls back to a filesystem walk otherwise.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	branch := e.currentBranch(ctx)

	paths, err := e.gitListFiles(root)
	if err != nil {
		paths, err = e.walkListFiles(root)
		if err != nil {
			return fmt.Errorf("lspintar: discover files: %w", err)
		}
	}

	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.IndexFile(ctx, branch, path); err != nil {
			errs = append(errs, err)
			e.logger.Warn("index file failed", zap.String("path", path), zap.Error(err))
		}
	}

	if err := e.store.ResolveEdgeFQNs(branch); err != nil {
		errs = append(errs, fmt.Errorf("lspintar: resolve edges: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("lspintar: indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported extensions.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if grammar.LanguageForExtension(filepath.Ext(absPath)) != grammar.Unknown {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used when git is
// unavailable or root isn't a repository.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if grammar.LanguageForExtension(filepath.Ext(path)) != grammar.Unknown {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// Definition resolves the symbol or external type under (line, col) in a
// live buffer.
func (e *Engine) Definition(ctx context.Context, path string, src []byte, line, col int) (*resolve.Target, error) {
	lang := grammar.LanguageForExtension(filepath.Ext(path))
	return e.cascade.Definition(ctx, e.currentBranch(ctx), path, src, lang, line, col)
}

// Hover renders a hover string for the symbol under (line, col).
func (e *Engine) Hover(ctx context.Context, path string, src []byte, line, col int) (string, error) {
	lang := grammar.LanguageForExtension(filepath.Ext(path))
	return e.cascade.Hover(ctx, e.currentBranch(ctx), path, src, lang, line, col)
}

// Implementations finds every concrete implementor of the interface symbol
// under (line, col), or of the abstract method if the cursor is on a method
// name.
func (e *Engine) Implementations(ctx context.Context, path string, src []byte, line, col int) ([]*store.Symbol, error) {
	lang := grammar.LanguageForExtension(filepath.Ext(path))
	target, err := e.cascade.Definition(ctx, e.currentBranch(ctx), path, src, lang, line, col)
	if err != nil {
		return nil, err
	}
	if target.Symbol == nil {
		return nil, fmt.Errorf("lspintar: implementations: target is external, not indexed")
	}
	branch := e.currentBranch(ctx)
	switch target.Symbol.SymbolType {
	case store.SymbolMethod:
		return e.finder.ForAbstractMethod(ctx, branch, target.Symbol.ParentFQN, target.Symbol.ShortName, len(target.Symbol.Metadata.ParamTypes))
	default:
		return e.finder.ForInterface(ctx, branch, target.Symbol.FQN)
	}
}

// Diagnose reports syntax errors in src.
func (e *Engine) Diagnose(path string, src []byte) ([]DiagnosticResult, error) {
	lang := grammar.LanguageForExtension(filepath.Ext(path))
	diags, err := e.emitter.Diagnose(lang, src)
	if err != nil {
		return nil, err
	}
	out := make([]DiagnosticResult, len(diags))
	for i, d := range diags {
		out[i] = DiagnosticResult{
			StartLine: int(d.Range.Start.Line), StartCol: int(d.Range.Start.Character),
			EndLine: int(d.Range.End.Line), EndCol: int(d.Range.End.Character),
			Message: d.Message,
		}
	}
	return out, nil
}

// DiagnosticResult is the public, protocol-agnostic shape of a diagnostic;
// callers embedding an LSP server translate it into protocol.Diagnostic
// themselves, keeping go.lsp.dev/protocol out of this package's exported
// surface.
type DiagnosticResult struct {
	StartLine, StartCol int
	EndLine, EndCol     int
	Message             string
}

// classifyCursor returns the raw cursor classification without running a
// full resolution. It is unexported, so only code in this package can call it.
func (e *Engine) classifyCursor(lang grammar.Language, src []byte, pos int) classify.Context {
	tree, err := e.facade.Parse(lang, src)
	if err != nil {
		return classify.Context{Kind: classify.Unknown}
	}
	defer tree.Close()
	return classify.Classify(tree.Root(), pos)
}
