// Command lspintar indexes a JVM workspace and answers definition,
// implementation, hover, and diagnostics queries against the resulting
// SQLite-backed symbol index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adibfarrasy/lspintar"
	"github.com/adibfarrasy/lspintar/internal/config"
)

var (
	flagDBPath string
	flagFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lspintar",
	Short:         "Symbol resolution engine for Java, Kotlin, and Groovy",
	Long:          "lspintar indexes JVM-language source trees with tree-sitter and answers go-to-definition, go-to-implementation, hover, and diagnostics queries from a SQLite symbol index.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database path (default: <cache dir>/lspintar/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json")

	rootCmd.AddCommand(indexCmd, definitionCmd, implementationCmd, hoverCmd, diagnosticsCmd)
}

func loadConfig() config.Config {
	cfg := config.Default()
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	return cfg
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a workspace directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}

		logger, _ := zap.NewProduction()
		defer logger.Sync()

		engine, err := lspintar.New(absRoot, cfg, lspintar.WithLogger(logger))
		if err != nil {
			return err
		}
		defer engine.Close()

		if err := engine.IndexDirectory(cmd.Context(), absRoot); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Indexed %s into %s\n", absRoot, cfg.DBPath)
		return nil
	},
}

// positionArgs parses "file:line:col" into its three components, matching
// the conventional LSP-adjacent CLI shorthand.
func positionArgs(arg string) (path string, line, col int, err error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("expected file:line:col, got %q", arg)
	}
	line, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid line: %w", err)
	}
	col, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid column: %w", err)
	}
	return parts[0], line, col, nil
}

func newEngineForQuery(ctx context.Context) (*lspintar.Engine, error) {
	cfg := loadConfig()
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return lspintar.New(cwd, cfg)
}

func printResult(v any) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Fprintf(os.Stdout, "%+v\n", v)
	return nil
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file:line:col>",
	Short: "Resolve the declaration at a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, line, col, err := positionArgs(args[0])
		if err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		engine, err := newEngineForQuery(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		target, err := engine.Definition(cmd.Context(), path, src, line, col)
		if err != nil {
			return err
		}
		return printResult(target)
	},
}

var implementationCmd = &cobra.Command{
	Use:   "implementation <file:line:col>",
	Short: "Find implementors of the interface or abstract method at a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, line, col, err := positionArgs(args[0])
		if err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		engine, err := newEngineForQuery(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		results, err := engine.Implementations(cmd.Context(), path, src, line, col)
		if err != nil {
			return err
		}
		return printResult(results)
	},
}

var hoverCmd = &cobra.Command{
	Use:   "hover <file:line:col>",
	Short: "Render hover text for the symbol at a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, line, col, err := positionArgs(args[0])
		if err != nil {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		engine, err := newEngineForQuery(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		text, err := engine.Hover(cmd.Context(), path, src, line, col)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, text)
		return nil
	},
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics <file>",
	Short: "Report syntax errors in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		engine, err := newEngineForQuery(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		diags, err := engine.Diagnose(path, src)
		if err != nil {
			return err
		}
		return printResult(diags)
	},
}
