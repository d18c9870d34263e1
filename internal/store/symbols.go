package store

import (
	"database/sql"
	"fmt"
	"time"
)

const symbolCols = `id, file_id, vcs_branch, short_name, fqn, parent_fqn, file_path, language,
	symbol_type, modifiers, extends_name, implements_names,
	start_byte, start_line, start_col, end_byte, end_line, end_col,
	ident_start_byte, ident_start_line, ident_start_col, ident_end_byte, ident_end_line, ident_end_col,
	last_modified, metadata`

func (s *Store) scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	var sym Symbol
	var mods, implNames, meta string
	var fileID sql.NullInt64
	var lastModified sql.NullTime
	err := scanner.Scan(
		&sym.ID, &fileID, &sym.VCSBranch, &sym.ShortName, &sym.FQN, &sym.ParentFQN, &sym.FilePath, &sym.Language,
		&sym.SymbolType, &mods, &sym.ExtendsName, &implNames,
		&sym.FullSpan.StartByte, &sym.FullSpan.StartLine, &sym.FullSpan.StartCol,
		&sym.FullSpan.EndByte, &sym.FullSpan.EndLine, &sym.FullSpan.EndCol,
		&sym.IdentifierSpan.StartByte, &sym.IdentifierSpan.StartLine, &sym.IdentifierSpan.StartCol,
		&sym.IdentifierSpan.EndByte, &sym.IdentifierSpan.EndLine, &sym.IdentifierSpan.EndCol,
		&lastModified, &meta,
	)
	if err != nil {
		return nil, err
	}
	sym.FileID = fileID.Int64
	sym.Modifiers = unmarshalStrings(mods)
	sym.ImplementsNames = unmarshalStrings(implNames)
	sym.Metadata = unmarshalMetadata(meta)
	if lastModified.Valid {
		sym.LastModified = lastModified.Time
	}
	return &sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Symbol
	for rows.Next() {
		sym, err := s.scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// InsertSymbol inserts a single symbol row, not transactional by itself;
// callers needing atomicity should use UpsertFile.
func (s *Store) InsertSymbol(tx Execer, sym *Symbol) (int64, error) {
	if sym.LastModified.IsZero() {
		sym.LastModified = time.Now()
	}
	var fileID sql.NullInt64
	if sym.FileID != 0 {
		fileID = sql.NullInt64{Int64: sym.FileID, Valid: true}
	}
	res, err := tx.Exec(
		`INSERT INTO symbols (file_id, vcs_branch, short_name, fqn, parent_fqn, file_path, language,
			symbol_type, modifiers, extends_name, implements_names,
			start_byte, start_line, start_col, end_byte, end_line, end_col,
			ident_start_byte, ident_start_line, ident_start_col, ident_end_byte, ident_end_line, ident_end_col,
			last_modified, metadata)
		 VALUES (?,?,?,?,?,?,?, ?,?,?,?, ?,?,?,?,?,?, ?,?,?,?,?,?, ?,?)`,
		fileID, sym.VCSBranch, sym.ShortName, sym.FQN, nullIfEmpty(sym.ParentFQN), sym.FilePath, sym.Language,
		sym.SymbolType, marshalStrings(sym.Modifiers), nullIfEmpty(sym.ExtendsName), marshalStrings(sym.ImplementsNames),
		sym.FullSpan.StartByte, sym.FullSpan.StartLine, sym.FullSpan.StartCol,
		sym.FullSpan.EndByte, sym.FullSpan.EndLine, sym.FullSpan.EndCol,
		sym.IdentifierSpan.StartByte, sym.IdentifierSpan.StartLine, sym.IdentifierSpan.StartCol,
		sym.IdentifierSpan.EndByte, sym.IdentifierSpan.EndLine, sym.IdentifierSpan.EndCol,
		sym.LastModified, marshalMetadata(sym.Metadata),
	)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	sym.ID = id
	return id, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// FindByFQN implements find_by_fqn(branch, fqn) -> Symbol?.
func (s *Store) FindByFQN(branch, fqn string) (*Symbol, error) {
	row := s.db.QueryRow("SELECT "+symbolCols+" FROM symbols WHERE vcs_branch = ? AND fqn = ?", branch, fqn)
	sym, err := s.scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by fqn: %w", err)
	}
	return sym, nil
}

// FindByShortName implements find_by_short_name(branch, name) -> Symbol[].
func (s *Store) FindByShortName(branch, name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE vcs_branch = ? AND short_name = ?", branch, name)
}

// FindByParent implements find_by_parent(branch, parent_fqn) -> Symbol[].
func (s *Store) FindByParent(branch, parentFQN string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE vcs_branch = ? AND parent_fqn = ?", branch, parentFQN)
}

// FindAtPosition implements find_at_position(branch, file_path, line) ->
// Symbol[]: every declaration enclosing that line, narrowest first.
func (s *Store) FindAtPosition(branch, filePath string, line int) ([]*Symbol, error) {
	return s.querySymbols(
		`SELECT `+symbolCols+` FROM symbols
		 WHERE vcs_branch = ? AND file_path = ? AND start_line <= ? AND end_line >= ?
		 ORDER BY (end_line - start_line) ASC`,
		branch, filePath, line, line,
	)
}

// InnermostAtPosition returns the single narrowest symbol (by byte span)
// enclosing (line, col), or nil. The Cursor Classifier and the Resolver
// Cascade do not call it; the classifier works on the CST directly.
func (s *Store) InnermostAtPosition(branch, filePath string, line, col int) (*Symbol, error) {
	row := s.db.QueryRow(
		`SELECT `+symbolCols+` FROM symbols
		 WHERE vcs_branch = ? AND file_path = ?
		   AND (start_line < ? OR (start_line = ? AND start_col <= ?))
		   AND (end_line > ? OR (end_line = ? AND end_col >= ?))
		 ORDER BY (end_byte - start_byte) ASC
		 LIMIT 1`,
		branch, filePath, line, line, col, line, line, col,
	)
	sym, err := s.scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("innermost at position: %w", err)
	}
	return sym, nil
}

// SymbolByID looks up a symbol by its synthetic id.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	row := s.db.QueryRow("SELECT "+symbolCols+" FROM symbols WHERE id = ?", id)
	sym, err := s.scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// SymbolsByFile returns every symbol extracted from a given file row.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE file_id = ?", fileID)
}

// FindBySymbolType implements the by-symbol_type index.
func (s *Store) FindBySymbolType(branch string, t SymbolType) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE vcs_branch = ? AND symbol_type = ?", branch, t)
}

// FindByFilePath implements the by-file_path index: all symbols declared
// in a given file (regardless of branch, for multi-branch diagnostics).
func (s *Store) FindByFilePath(filePath string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE file_path = ?", filePath)
}

// Execer is satisfied by *sql.DB and *sql.Tx, letting callers insert either
// transactionally or standalone.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
