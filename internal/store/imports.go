package store

import "fmt"

const importCols = `id, file_id, fqn_or_stem, imported_name, is_wildcard, is_static`

func (s *Store) InsertImport(tx Execer, imp *Import) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO imports (file_id, fqn_or_stem, imported_name, is_wildcard, is_static) VALUES (?,?,?,?,?)`,
		imp.FileID, imp.FQNOrStem, nullIfEmpty(imp.ImportedName), imp.IsWildcard, imp.IsStatic,
	)
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	return lastID(res)
}

func (s *Store) scanImport(scanner interface{ Scan(...any) error }) (*Import, error) {
	imp := &Import{}
	var name *string
	if err := scanner.Scan(&imp.ID, &imp.FileID, &imp.FQNOrStem, &name, &imp.IsWildcard, &imp.IsStatic); err != nil {
		return nil, err
	}
	if name != nil {
		imp.ImportedName = *name
	}
	return imp, nil
}

// ImportsByFile returns every import declared in a file, used by Resolver
// Cascade Layer 2.
func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query("SELECT "+importCols+" FROM imports WHERE file_id = ?", fileID)
	if err != nil {
		return nil, fmt.Errorf("imports by file: %w", err)
	}
	defer rows.Close()
	var out []*Import
	for rows.Next() {
		imp, err := s.scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

// ImporterFile pairs an import with the file path that declared it, for
// reverse lookup of who references a given FQN.
type ImporterFile struct {
	FilePath string
	Import   *Import
}

// FindImportersByFQN returns every file that explicitly imports fqn, the
// import-table half of find_references (supplement: symmetric with
// find_implementors/find_subclasses, scoped to what the index actually
// tracks — explicit imports, not every expression-level use site).
func (s *Store) FindImportersByFQN(branch, fqn string) ([]*ImporterFile, error) {
	rows, err := s.db.Query(
		`SELECT f.path, i.id, i.file_id, i.fqn_or_stem, i.imported_name, i.is_wildcard, i.is_static
		 FROM imports i JOIN files f ON f.id = i.file_id
		 WHERE f.vcs_branch = ? AND i.fqn_or_stem = ?`,
		branch, fqn,
	)
	if err != nil {
		return nil, fmt.Errorf("find importers by fqn: %w", err)
	}
	defer rows.Close()
	var out []*ImporterFile
	for rows.Next() {
		imp := &Import{}
		var name *string
		var path string
		if err := rows.Scan(&path, &imp.ID, &imp.FileID, &imp.FQNOrStem, &name, &imp.IsWildcard, &imp.IsStatic); err != nil {
			return nil, fmt.Errorf("scan importer: %w", err)
		}
		if name != nil {
			imp.ImportedName = *name
		}
		out = append(out, &ImporterFile{FilePath: path, Import: imp})
	}
	return out, rows.Err()
}
