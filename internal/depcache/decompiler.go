package depcache

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/adibfarrasy/lspintar/internal/lsperrors"
)

// DecompilerAdapter turns a classfile inside a jar into Java-like source
// text.
type DecompilerAdapter interface {
	Decompile(ctx context.Context, jarPath, internalClassPath string) (string, error)
}

// SubprocessDecompiler shells out to a configured decompiler binary: one
// external command, stdout captured, stderr surfaced on failure.
type SubprocessDecompiler struct {
	BinaryPath string // e.g. a CFR or vineflower launcher script
}

// Decompile runs `BinaryPath jarPath internalClassPath` and returns stdout
// as the decompiled source text.
func (d *SubprocessDecompiler) Decompile(ctx context.Context, jarPath, internalClassPath string) (string, error) {
	if d.BinaryPath == "" {
		return "", lsperrors.DecompilationFailed(internalClassPath, fmt.Errorf("no decompiler binary configured"))
	}
	cmd := exec.CommandContext(ctx, d.BinaryPath, jarPath, internalClassPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", lsperrors.DecompilationFailed(internalClassPath, fmt.Errorf("%s: %s", err, stderr.String()))
	}
	return stdout.String(), nil
}

// NullDecompiler always fails, exercising the degraded path: the external
// symbol stays pending and navigation returns the jar path with a zero
// span. Used in tests and whenever no decompiler binary is configured.
type NullDecompiler struct{}

func (NullDecompiler) Decompile(ctx context.Context, jarPath, internalClassPath string) (string, error) {
	return "", lsperrors.DecompilationFailed(internalClassPath, fmt.Errorf("no decompiler configured"))
}
