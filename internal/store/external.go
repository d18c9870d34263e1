package store

import (
	"database/sql"
	"fmt"
)

const externalCols = `id, jar_path, source_file_path, package_name, short_name, fqn, parent_fqn,
	symbol_type, modifiers,
	start_byte, start_line, start_col, end_byte, end_line, end_col,
	ident_start_byte, ident_start_line, ident_start_col, ident_end_byte, ident_end_line, ident_end_col,
	needs_decompilation, metadata`

func (s *Store) scanExternal(scanner interface{ Scan(...any) error }) (*ExternalSymbol, error) {
	var e ExternalSymbol
	var mods, meta string
	var pkg sql.NullString
	err := scanner.Scan(
		&e.ID, &e.JarPath, &e.SourceFilePath, &pkg, &e.ShortName, &e.FQN, &e.ParentFQN,
		&e.SymbolType, &mods,
		&e.FullSpan.StartByte, &e.FullSpan.StartLine, &e.FullSpan.StartCol,
		&e.FullSpan.EndByte, &e.FullSpan.EndLine, &e.FullSpan.EndCol,
		&e.IdentifierSpan.StartByte, &e.IdentifierSpan.StartLine, &e.IdentifierSpan.StartCol,
		&e.IdentifierSpan.EndByte, &e.IdentifierSpan.EndLine, &e.IdentifierSpan.EndCol,
		&e.NeedsDecompilation, &meta,
	)
	if err != nil {
		return nil, err
	}
	e.PackageName = pkg.String
	e.Modifiers = unmarshalStrings(mods)
	e.Metadata = unmarshalMetadata(meta)
	return &e, nil
}

// UpsertExternalSymbol inserts or, on a (jar_path, source_file_path, fqn)
// conflict , updates the row in place. Used both by the initial
// bytecode listing pass (needs_decompilation=true, zero span) and by the
// later decompile-and-reparse pass that fills in a real span.
func (s *Store) UpsertExternalSymbol(e *ExternalSymbol) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO external_symbols (jar_path, source_file_path, package_name, short_name, fqn, parent_fqn,
			symbol_type, modifiers,
			start_byte, start_line, start_col, end_byte, end_line, end_col,
			ident_start_byte, ident_start_line, ident_start_col, ident_end_byte, ident_end_line, ident_end_col,
			needs_decompilation, metadata)
		 VALUES (?,?,?,?,?,?, ?,?, ?,?,?,?,?,?, ?,?,?,?,?,?, ?,?)
		 ON CONFLICT(jar_path, source_file_path, fqn) DO UPDATE SET
			parent_fqn = excluded.parent_fqn,
			symbol_type = excluded.symbol_type,
			modifiers = excluded.modifiers,
			start_byte = excluded.start_byte, start_line = excluded.start_line, start_col = excluded.start_col,
			end_byte = excluded.end_byte, end_line = excluded.end_line, end_col = excluded.end_col,
			ident_start_byte = excluded.ident_start_byte, ident_start_line = excluded.ident_start_line,
			ident_start_col = excluded.ident_start_col, ident_end_byte = excluded.ident_end_byte,
			ident_end_line = excluded.ident_end_line, ident_end_col = excluded.ident_end_col,
			needs_decompilation = excluded.needs_decompilation,
			metadata = excluded.metadata`,
		e.JarPath, e.SourceFilePath, nullIfEmpty(e.PackageName), e.ShortName, e.FQN, nullIfEmpty(e.ParentFQN),
		e.SymbolType, marshalStrings(e.Modifiers),
		e.FullSpan.StartByte, e.FullSpan.StartLine, e.FullSpan.StartCol,
		e.FullSpan.EndByte, e.FullSpan.EndLine, e.FullSpan.EndCol,
		e.IdentifierSpan.StartByte, e.IdentifierSpan.StartLine, e.IdentifierSpan.StartCol,
		e.IdentifierSpan.EndByte, e.IdentifierSpan.EndLine, e.IdentifierSpan.EndCol,
		e.NeedsDecompilation, marshalMetadata(e.Metadata),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert external symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		// ON CONFLICT UPDATE paths don't always report LastInsertId reliably
		// across sqlite3 driver versions; fall back to a lookup.
		existing, lookupErr := s.FindExternalByFQN(e.FQN)
		if lookupErr == nil && existing != nil {
			return existing.ID, nil
		}
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return id, nil
}

// FindExternalByFQN implements find_external_by_fqn(fqn) -> ExternalSymbol?.
func (s *Store) FindExternalByFQN(fqn string) (*ExternalSymbol, error) {
	row := s.db.QueryRow("SELECT "+externalCols+" FROM external_symbols WHERE fqn = ? LIMIT 1", fqn)
	e, err := s.scanExternal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find external by fqn: %w", err)
	}
	return e, nil
}

// FindExternalByShortName backs workspace-then-external cascade fallback.
func (s *Store) FindExternalByShortName(name string) ([]*ExternalSymbol, error) {
	rows, err := s.db.Query("SELECT "+externalCols+" FROM external_symbols WHERE short_name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("find external by short name: %w", err)
	}
	defer rows.Close()
	var out []*ExternalSymbol
	for rows.Next() {
		e, err := s.scanExternal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan external: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindExternalByParent enumerates members of an external type, used when
// the Resolver Cascade walks BFS over external supertypes.
func (s *Store) FindExternalByParent(parentFQN string) ([]*ExternalSymbol, error) {
	rows, err := s.db.Query("SELECT "+externalCols+" FROM external_symbols WHERE parent_fqn = ?", parentFQN)
	if err != nil {
		return nil, fmt.Errorf("find external by parent: %w", err)
	}
	defer rows.Close()
	var out []*ExternalSymbol
	for rows.Next() {
		e, err := s.scanExternal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan external: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// JarScanned reports whether jarPath was already scanned at mtimeUnix.
func (s *Store) JarScanned(jarPath string, mtimeUnix int64) (bool, error) {
	var stored int64
	err := s.db.QueryRow("SELECT mtime_unix FROM jar_scans WHERE jar_path = ?", jarPath).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("jar scanned: %w", err)
	}
	return stored == mtimeUnix, nil
}

// MarkJarScanned records the JAR's mtime so future scans can be skipped
// until it changes.
func (s *Store) MarkJarScanned(jarPath string, mtimeUnix int64) error {
	_, err := s.db.Exec(
		`INSERT INTO jar_scans (jar_path, mtime_unix) VALUES (?, ?)
		 ON CONFLICT(jar_path) DO UPDATE SET mtime_unix = excluded.mtime_unix`,
		jarPath, mtimeUnix,
	)
	if err != nil {
		return fmt.Errorf("mark jar scanned: %w", err)
	}
	return nil
}

// InvalidateJar deletes all external symbols and the scan record for a JAR
// whose mtime changed, so it will be rescanned from scratch.
func (s *Store) InvalidateJar(jarPath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("invalidate jar: begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM external_symbols WHERE jar_path = ?", jarPath); err != nil {
		return fmt.Errorf("invalidate jar: delete symbols: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM jar_scans WHERE jar_path = ?", jarPath); err != nil {
		return fmt.Errorf("invalidate jar: delete scan record: %w", err)
	}
	return tx.Commit()
}
