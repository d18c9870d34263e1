package store

import "fmt"

const edgeCols = `id, symbol_fqn, vcs_branch, short_name, resolved_fqn`

func (s *Store) InsertSuperEdge(tx Execer, e *SuperEdge) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO super_edges (symbol_fqn, vcs_branch, short_name, resolved_fqn) VALUES (?,?,?,?)`,
		e.SymbolFQN, e.VCSBranch, e.ShortName, nullIfEmpty(e.ResolvedFQN),
	)
	if err != nil {
		return 0, fmt.Errorf("insert super edge: %w", err)
	}
	return lastID(res)
}

func (s *Store) InsertImplementsEdge(tx Execer, e *ImplementsEdge) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO implements_edges (symbol_fqn, vcs_branch, short_name, resolved_fqn) VALUES (?,?,?,?)`,
		e.SymbolFQN, e.VCSBranch, e.ShortName, nullIfEmpty(e.ResolvedFQN),
	)
	if err != nil {
		return 0, fmt.Errorf("insert implements edge: %w", err)
	}
	return lastID(res)
}

func lastID(res interface{ LastInsertId() (int64, error) }) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *Store) scanSuperEdge(scanner interface{ Scan(...any) error }) (*SuperEdge, error) {
	e := &SuperEdge{}
	var resolved *string
	if err := scanner.Scan(&e.ID, &e.SymbolFQN, &e.VCSBranch, &e.ShortName, &resolved); err != nil {
		return nil, err
	}
	if resolved != nil {
		e.ResolvedFQN = *resolved
	}
	return e, nil
}

func (s *Store) scanImplementsEdge(scanner interface{ Scan(...any) error }) (*ImplementsEdge, error) {
	e := &ImplementsEdge{}
	var resolved *string
	if err := scanner.Scan(&e.ID, &e.SymbolFQN, &e.VCSBranch, &e.ShortName, &resolved); err != nil {
		return nil, err
	}
	if resolved != nil {
		e.ResolvedFQN = *resolved
	}
	return e, nil
}

// SuperEdgesBySymbol returns the declared supertypes of a symbol (by FQN).
func (s *Store) SuperEdgesBySymbol(branch, symbolFQN string) ([]*SuperEdge, error) {
	rows, err := s.db.Query("SELECT "+edgeCols+" FROM super_edges WHERE vcs_branch = ? AND symbol_fqn = ?", branch, symbolFQN)
	if err != nil {
		return nil, fmt.Errorf("super edges by symbol: %w", err)
	}
	defer rows.Close()
	var out []*SuperEdge
	for rows.Next() {
		e, err := s.scanSuperEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan super edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ImplementsEdgesBySymbol returns the declared interfaces of a symbol.
func (s *Store) ImplementsEdgesBySymbol(branch, symbolFQN string) ([]*ImplementsEdge, error) {
	rows, err := s.db.Query("SELECT "+edgeCols+" FROM implements_edges WHERE vcs_branch = ? AND symbol_fqn = ?", branch, symbolFQN)
	if err != nil {
		return nil, fmt.Errorf("implements edges by symbol: %w", err)
	}
	defer rows.Close()
	var out []*ImplementsEdge
	for rows.Next() {
		e, err := s.scanImplementsEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan implements edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindImplementors implements find_implementors(branch, interface_fqn_or_short_name)
// -> Symbol[] via implements-edge reverse lookup.
// Matches both the resolved FQN and, when unresolved, the short name
//.
func (s *Store) FindImplementors(branch, interfaceFQNOrShortName string) ([]*Symbol, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT symbol_fqn FROM implements_edges
		 WHERE vcs_branch = ? AND (resolved_fqn = ? OR (resolved_fqn IS NULL AND short_name = ?))`,
		branch, interfaceFQNOrShortName, interfaceFQNOrShortName,
	)
	if err != nil {
		return nil, fmt.Errorf("find implementors: %w", err)
	}
	defer rows.Close()
	var fqns []string
	for rows.Next() {
		var fqn string
		if err := rows.Scan(&fqn); err != nil {
			return nil, fmt.Errorf("scan implementor fqn: %w", err)
		}
		fqns = append(fqns, fqn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []*Symbol
	for _, fqn := range fqns {
		sym, err := s.FindByFQN(branch, fqn)
		if err != nil {
			return nil, err
		}
		if sym != nil {
			out = append(out, sym)
		}
	}
	return out, nil
}

// FindSubclasses implements find_subclasses(branch, class_fqn_or_short_name)
// -> Symbol[] via super-edge reverse lookup.
func (s *Store) FindSubclasses(branch, classFQNOrShortName string) ([]*Symbol, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT symbol_fqn FROM super_edges
		 WHERE vcs_branch = ? AND (resolved_fqn = ? OR (resolved_fqn IS NULL AND short_name = ?))`,
		branch, classFQNOrShortName, classFQNOrShortName,
	)
	if err != nil {
		return nil, fmt.Errorf("find subclasses: %w", err)
	}
	defer rows.Close()
	var fqns []string
	for rows.Next() {
		var fqn string
		if err := rows.Scan(&fqn); err != nil {
			return nil, fmt.Errorf("scan subclass fqn: %w", err)
		}
		fqns = append(fqns, fqn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []*Symbol
	for _, fqn := range fqns {
		sym, err := s.FindByFQN(branch, fqn)
		if err != nil {
			return nil, err
		}
		if sym != nil {
			out = append(out, sym)
		}
	}
	return out, nil
}

// ResolveEdgeFQNs fills in resolved_fqn for edges still carrying only a
// short name, once the named symbol becomes known elsewhere in the branch
//.
func (s *Store) ResolveEdgeFQNs(branch string) error {
	for _, table := range []string{"super_edges", "implements_edges"} {
		rows, err := s.db.Query(
			`SELECT id, short_name FROM `+table+` WHERE vcs_branch = ? AND resolved_fqn IS NULL`, branch,
		)
		if err != nil {
			return fmt.Errorf("resolve edge fqns: query %s: %w", table, err)
		}
		type pending struct {
			id   int64
			name string
		}
		var todo []pending
		for rows.Next() {
			var p pending
			if err := rows.Scan(&p.id, &p.name); err != nil {
				rows.Close()
				return fmt.Errorf("resolve edge fqns: scan %s: %w", table, err)
			}
			todo = append(todo, p)
		}
		rows.Close()

		for _, p := range todo {
			matches, err := s.FindByShortName(branch, p.name)
			if err != nil {
				return err
			}
			candidate := pickTypeSymbol(matches)
			if candidate == nil {
				continue
			}
			if _, err := s.db.Exec(
				`UPDATE `+table+` SET resolved_fqn = ? WHERE id = ?`, candidate.FQN, p.id,
			); err != nil {
				return fmt.Errorf("resolve edge fqns: update %s: %w", table, err)
			}
		}
	}
	return nil
}

func pickTypeSymbol(candidates []*Symbol) *Symbol {
	for _, c := range candidates {
		switch c.SymbolType {
		case SymbolClass, SymbolInterface, SymbolEnumClass, SymbolAnnotation:
			return c
		}
	}
	return nil
}
