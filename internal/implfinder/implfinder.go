// Package implfinder is the Implementation Finder: given a
// cursor on an interface name or an abstract method, it returns every
// concrete implementor, recursing through subinterfaces.
package implfinder

import (
	"context"

	"go.uber.org/zap"

	"github.com/adibfarrasy/lspintar/internal/lsperrors"
	"github.com/adibfarrasy/lspintar/internal/store"
)

// Finder answers implementation queries against the Symbol Index.
type Finder struct {
	store  *store.Store
	logger *zap.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Finder) { f.logger = logger }
}

// New builds a Finder over the given Symbol Index.
func New(st *store.Store, opts ...Option) *Finder {
	f := &Finder{store: st, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForInterface returns every symbol implementing interfaceFQN, recursing
// through subinterfaces: an implementor of a subinterface counts as an
// implementor of the parent.
func (f *Finder) ForInterface(ctx context.Context, branch, interfaceFQN string) ([]*store.Symbol, error) {
	seen := map[string]bool{}
	var out []*store.Symbol
	queue := []string{interfaceFQN}
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, lsperrors.Cancelled("find implementors")
		default:
		}
		target := queue[0]
		queue = queue[1:]
		if seen[target] {
			continue
		}
		seen[target] = true

		direct, err := f.store.FindImplementors(branch, target)
		if err != nil {
			return nil, lsperrors.IndexError("find implementors", err)
		}
		for _, d := range direct {
			if !seen["sym:"+d.FQN] {
				seen["sym:"+d.FQN] = true
				out = append(out, d)
			}
			if d.SymbolType == store.SymbolInterface {
				queue = append(queue, d.FQN)
			}
		}

		subs, err := f.store.FindSubclasses(branch, target)
		if err != nil {
			return nil, lsperrors.IndexError("find subclasses", err)
		}
		for _, s := range subs {
			if !seen["sym:"+s.FQN] {
				seen["sym:"+s.FQN] = true
				out = append(out, s)
			}
			queue = append(queue, s.FQN)
		}
	}
	return out, nil
}

// ForAbstractMethod finds all implementors of declaringTypeFQN, then for
// each returns its method matching methodName/arity . Arity -1
// means "match name only".
func (f *Finder) ForAbstractMethod(ctx context.Context, branch, declaringTypeFQN, methodName string, arity int) ([]*store.Symbol, error) {
	implementors, err := f.ForInterface(ctx, branch, declaringTypeFQN)
	if err != nil {
		return nil, err
	}
	var out []*store.Symbol
	for _, impl := range implementors {
		members, err := f.store.FindByParent(branch, impl.FQN)
		if err != nil {
			continue
		}
		for _, m := range members {
			if m.ShortName != methodName {
				continue
			}
			if arity >= 0 && len(m.Metadata.ParamTypes) != arity {
				continue
			}
			out = append(out, m)
		}
	}
	return out, nil
}
