package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ExtractedFile is everything the Symbol Extractor (C2) produces for one
// source file: the normalized symbols plus the super/implements edges and
// imports discovered while walking the CST.
type ExtractedFile struct {
	Path            string
	Language        string
	Hash            string
	Symbols         []*Symbol
	SuperEdges      []*SuperEdge
	ImplementsEdges []*ImplementsEdge
	Imports         []*Import
}

// UpsertFile implements upsert_file(branch, file_path, symbols,
// edges): atomically deletes all prior rows for (branch, file_path) and
// inserts the new set in one transaction.
func (s *Store) UpsertFile(branch string, ef *ExtractedFile) (fileID int64, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("upsert file: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var existingID int64
	row := tx.QueryRow("SELECT id FROM files WHERE vcs_branch = ? AND path = ?", branch, ef.Path)
	scanErr := row.Scan(&existingID)
	switch {
	case scanErr == nil:
		if delErr := deleteFileChildren(tx, existingID); delErr != nil {
			return 0, fmt.Errorf("upsert file: delete old rows: %w", delErr)
		}
		if _, delErr := tx.Exec("DELETE FROM files WHERE id = ?", existingID); delErr != nil {
			return 0, fmt.Errorf("upsert file: delete file row: %w", delErr)
		}
	case errors.Is(scanErr, sql.ErrNoRows):
		// No prior file row; nothing to clean up.
	default:
		return 0, fmt.Errorf("upsert file: lookup existing: %w", scanErr)
	}

	res, err := tx.Exec(
		`INSERT INTO files (path, language, vcs_branch, hash, last_indexed) VALUES (?,?,?,?,?)`,
		ef.Path, ef.Language, branch, ef.Hash, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert file: insert file: %w", err)
	}
	fileID, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("upsert file: last insert id: %w", err)
	}

	for _, sym := range ef.Symbols {
		sym.FileID = fileID
		sym.FilePath = ef.Path
		sym.Language = ef.Language
		sym.VCSBranch = branch
		if _, err = s.InsertSymbol(tx, sym); err != nil {
			return 0, fmt.Errorf("upsert file: insert symbol %s: %w", sym.FQN, err)
		}
	}
	for _, e := range ef.SuperEdges {
		e.VCSBranch = branch
		if _, err = s.InsertSuperEdge(tx, e); err != nil {
			return 0, fmt.Errorf("upsert file: insert super edge: %w", err)
		}
	}
	for _, e := range ef.ImplementsEdges {
		e.VCSBranch = branch
		if _, err = s.InsertImplementsEdge(tx, e); err != nil {
			return 0, fmt.Errorf("upsert file: insert implements edge: %w", err)
		}
	}
	for _, imp := range ef.Imports {
		imp.FileID = fileID
		if _, err = s.InsertImport(tx, imp); err != nil {
			return 0, fmt.Errorf("upsert file: insert import: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("upsert file: commit: %w", err)
	}
	return fileID, nil
}

// DeleteFileData removes a file's symbols, edges, and imports (but not the
// file row itself), used directly when a file is removed from the
// workspace.
func (s *Store) DeleteFileData(branch, path string) error {
	f, err := s.FileByPath(branch, path)
	if err != nil {
		return err
	}
	if f == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete file data: begin: %w", err)
	}
	defer tx.Rollback()
	if err := deleteFileChildren(tx, f.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteFileChildren(tx *sql.Tx, fileID int64) error {
	// Edges are keyed by symbol_fqn, not file_id, so collect this file's
	// FQNs first.
	fqns, err := fqnsForFile(tx, fileID)
	if err != nil {
		return err
	}
	if len(fqns) > 0 {
		placeholders := placeholderList(len(fqns))
		args := stringsToArgs(fqns)
		for _, table := range []string{"super_edges", "implements_edges"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE symbol_fqn IN ("+placeholders+")", args...); err != nil {
				return fmt.Errorf("delete file children: %s: %w", table, err)
			}
		}
	}
	if _, err := tx.Exec("DELETE FROM imports WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("delete file children: imports: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM symbols WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("delete file children: symbols: %w", err)
	}
	return nil
}

func fqnsForFile(tx *sql.Tx, fileID int64) ([]string, error) {
	rows, err := tx.Query("SELECT fqn FROM symbols WHERE file_id = ?", fileID)
	if err != nil {
		return nil, fmt.Errorf("fqns for file: %w", err)
	}
	defer rows.Close()
	var fqns []string
	for rows.Next() {
		var fqn string
		if err := rows.Scan(&fqn); err != nil {
			return nil, fmt.Errorf("fqns for file: scan: %w", err)
		}
		fqns = append(fqns, fqn)
	}
	return fqns, rows.Err()
}
