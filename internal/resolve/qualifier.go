package resolve

import (
	"context"
	"strings"

	"github.com/adibfarrasy/lspintar/internal/lsperrors"
	"github.com/adibfarrasy/lspintar/internal/store"
)

// resolveQualified implements qualifier resolution for
// FieldAccess/MethodCall: resolve the receiver's type, then look up member
// as a member of that type, then BFS over its supertypes.
func (c *Cascade) resolveQualified(ctx context.Context, req *request, receiver, member string, arity int) (*Target, error) {
	return c.resolveMember(ctx, req, receiver, member, arity)
}

// resolveMember resolves `receiver.member`, where receiver may already be a
// type name (StaticAccess) or a variable whose type must be derived
// (FieldAccess/MethodCall).
func (c *Cascade) resolveMember(ctx context.Context, req *request, receiver, member string, arity int) (*Target, error) {
	typeFQN, ok := c.resolveReceiverType(req, receiver, 0)
	if !ok {
		return nil, lsperrors.NotFound("receiver type for " + receiver)
	}
	return c.resolveMemberOn(ctx, req, typeFQN, member, arity, map[string]bool{})
}

// resolveReceiverType handles three receiver cases (this, a type name, or a
// known variable), recursing through variable declaration types up to
// maxReceiverDepth and memoizing results within the request. A receiver that
// is itself a call expression is not resolved from the method's return type;
// it reports no type.
func (c *Cascade) resolveReceiverType(req *request, receiver string, depth int) (string, bool) {
	if depth > maxReceiverDepth {
		return "", false
	}
	if fqn, ok := req.memo[receiver]; ok {
		return fqn, fqn != ""
	}

	// Case 2: this / self.
	if receiver == "this" || receiver == "self" {
		fqn := c.enclosingClassFQN(req)
		req.memo[receiver] = fqn
		return fqn, fqn != ""
	}

	// Case 1: receiver is a visible type name (import or workspace lookup).
	if looksLikeType(receiver) {
		if fqn, ok := c.importedFQN(req, receiver); ok {
			req.memo[receiver] = fqn
			return fqn, true
		}
		if sym, err := c.store.FindByFQN(req.branch, receiver); err == nil && sym != nil {
			req.memo[receiver] = sym.FQN
			return sym.FQN, true
		}
		if syms, err := c.store.FindByShortName(req.branch, receiver); err == nil && len(syms) > 0 {
			fqn := pickBest(syms, req.filePath).FQN
			req.memo[receiver] = fqn
			return fqn, true
		}
	}

	// Case 3: receiver is a variable; resolve its declared type, recursing
	// if that type is itself another name rather than a resolvable FQN.
	if req.fileID != 0 {
		decl := c.localDeclaration(req, receiver)
		if decl != nil && decl.Metadata.DeclType != "" {
			declType := strings.TrimSuffix(decl.Metadata.DeclType, "?") // Kotlin nullable suffix
			if fqn, ok := c.resolveReceiverType(req, declType, depth+1); ok {
				req.memo[receiver] = fqn
				return fqn, true
			}
			if sym, err := c.store.FindByFQN(req.branch, declType); err == nil && sym != nil {
				req.memo[receiver] = sym.FQN
				return sym.FQN, true
			}
		}
	}

	req.memo[receiver] = ""
	return "", false
}

func looksLikeType(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// enclosingClassFQN walks the current file's symbols to find the innermost
// class/interface/enum enclosing the cursor, used for `this` resolution.
// Since the classifier already discarded the exact position by the time the
// cascade runs the qualifier step, this falls back to the narrowest
// type-kind declaration in the file — correct for the common single-type
// Source File convention all three languages share.
func (c *Cascade) enclosingClassFQN(req *request) string {
	if req.fileID == 0 {
		return ""
	}
	syms, err := c.store.SymbolsByFile(req.fileID)
	if err != nil {
		return ""
	}
	var best *store.Symbol
	for _, s := range syms {
		switch s.SymbolType {
		case store.SymbolClass, store.SymbolInterface, store.SymbolEnumClass, store.SymbolAnnotation:
			if best == nil || narrower(s, best) {
				best = s
			}
		}
	}
	if best == nil {
		return ""
	}
	return best.FQN
}

// resolveMemberOn looks up member as a direct member of typeFQN, then BFS
// over super-/implements-edges including external supertypes: look up name
// as a member, first on that type, then on each supertype in BFS order.
// visited guards against supertype cycles.
func (c *Cascade) resolveMemberOn(ctx context.Context, req *request, typeFQN, member string, arity int, visited map[string]bool) (*Target, error) {
	queue := []string{typeFQN}
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, lsperrors.Cancelled("resolve member")
		default:
		}
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		if members, err := c.store.FindByParent(req.branch, current); err == nil {
			if m := bestOverload(members, member, arity); m != nil {
				return &Target{Symbol: m}, nil
			}
		}
		if extMembers, err := c.store.FindExternalByParent(current); err == nil {
			if m := bestExternalOverload(extMembers, member, arity); m != nil {
				return &Target{External: m}, nil
			}
		}

		if edges, err := c.store.SuperEdgesBySymbol(req.branch, current); err == nil {
			for _, e := range edges {
				if e.ResolvedFQN != "" {
					queue = append(queue, e.ResolvedFQN)
				}
			}
		}
		if edges, err := c.store.ImplementsEdgesBySymbol(req.branch, current); err == nil {
			for _, e := range edges {
				if e.ResolvedFQN != "" {
					queue = append(queue, e.ResolvedFQN)
				}
			}
		}
	}
	return nil, lsperrors.NotFound(member)
}

// bestOverload applies Layer 1's overload rule : arity matches
// take precedence over mismatches; within the same arity, first lexical
// match wins. Full parameter-type matching is a known gap.
func bestOverload(candidates []*store.Symbol, name string, arity int) *store.Symbol {
	var arityMatch, anyMatch *store.Symbol
	for _, s := range candidates {
		if s.ShortName != name {
			continue
		}
		if anyMatch == nil {
			anyMatch = s
		}
		if arity >= 0 && len(s.Metadata.ParamTypes) == arity && arityMatch == nil {
			arityMatch = s
		}
	}
	if arityMatch != nil {
		return arityMatch
	}
	return anyMatch
}

func bestExternalOverload(candidates []*store.ExternalSymbol, name string, arity int) *store.ExternalSymbol {
	var arityMatch, anyMatch *store.ExternalSymbol
	for _, s := range candidates {
		if s.ShortName != name {
			continue
		}
		if anyMatch == nil {
			anyMatch = s
		}
		if arity >= 0 && len(s.Metadata.ParamTypes) == arity && arityMatch == nil {
			arityMatch = s
		}
	}
	if arityMatch != nil {
		return arityMatch
	}
	return anyMatch
}
