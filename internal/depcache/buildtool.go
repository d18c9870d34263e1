package depcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vifraa/gopom"
)

// BuildToolAdapter exposes the classpath and source roots for a workspace.
// Only a reference implementation ships here; a real LSP host is expected
// to supply its own build-system integration.
type BuildToolAdapter interface {
	Classpath(ctx context.Context) ([]string, error)
	SourceRoots(ctx context.Context) ([]string, error)
}

// MavenAdapter discovers the classpath by parsing a pom.xml and resolving
// declared dependencies against the local Maven repository. A reference
// implementation so the Dependency Cache has something real to exercise.
type MavenAdapter struct {
	PomPath   string
	RepoRoot  string // typically ~/.m2/repository
	ModuleDir string
}

// Classpath parses PomPath and maps each dependency coordinate to its jar
// under RepoRoot, skipping any it cannot locate rather than failing outright
// (a missing dependency should degrade the cascade to NotFound, not abort
// the whole workspace).
func (m *MavenAdapter) Classpath(ctx context.Context) ([]string, error) {
	project, err := gopom.Parse(m.PomPath)
	if err != nil {
		return nil, fmt.Errorf("maven adapter: parse %s: %w", m.PomPath, err)
	}
	var jars []string
	if project.Dependencies != nil {
		for _, dep := range *project.Dependencies {
			jar := m.jarPath(dep)
			if jar == "" {
				continue
			}
			if _, err := os.Stat(jar); err == nil {
				jars = append(jars, jar)
			}
		}
	}
	return jars, nil
}

func (m *MavenAdapter) jarPath(dep gopom.Dependency) string {
	if dep.GroupID == nil || dep.ArtifactID == nil || dep.Version == nil {
		return ""
	}
	group := strings.ReplaceAll(*dep.GroupID, ".", string(filepath.Separator))
	return filepath.Join(m.RepoRoot, group, *dep.ArtifactID, *dep.Version,
		fmt.Sprintf("%s-%s.jar", *dep.ArtifactID, *dep.Version))
}

// SourceRoots returns Maven's conventional main/test source directories.
func (m *MavenAdapter) SourceRoots(ctx context.Context) ([]string, error) {
	return []string{
		filepath.Join(m.ModuleDir, "src", "main", "java"),
		filepath.Join(m.ModuleDir, "src", "main", "kotlin"),
		filepath.Join(m.ModuleDir, "src", "main", "groovy"),
	}, nil
}

// GradleDirAdapter falls back to scanning a configured Gradle dependency
// cache directory for jars when no build-tool invocation is possible.
type GradleDirAdapter struct {
	CacheDir  string
	ModuleDir string
}

// Classpath globs CacheDir for jars, matching Gradle's module-cache layout
// (.../modules-2/files-2.1/<group>/<artifact>/<version>/<hash>/*.jar).
func (g *GradleDirAdapter) Classpath(ctx context.Context) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(g.CacheDir), "**/*.jar")
	if err != nil {
		return nil, fmt.Errorf("gradle dir adapter: glob: %w", err)
	}
	jars := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasSuffix(m, "-sources.jar") {
			continue
		}
		jars = append(jars, filepath.Join(g.CacheDir, m))
	}
	return jars, nil
}

// SourceRoots returns Gradle's conventional main source directories.
func (g *GradleDirAdapter) SourceRoots(ctx context.Context) ([]string, error) {
	return []string{
		filepath.Join(g.ModuleDir, "src", "main", "java"),
		filepath.Join(g.ModuleDir, "src", "main", "kotlin"),
		filepath.Join(g.ModuleDir, "src", "main", "groovy"),
	}, nil
}

// sourcesJarFor returns the sibling -sources.jar path for a jar, if the
// dependency cache's naming convention is Maven/Gradle-standard: if a
// sibling -sources.jar is available, prefer it over decompilation.
func sourcesJarFor(jarPath string) string {
	if strings.HasSuffix(jarPath, "-sources.jar") {
		return jarPath
	}
	return strings.TrimSuffix(jarPath, ".jar") + "-sources.jar"
}
