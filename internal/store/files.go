package store

import (
	"database/sql"
	"fmt"
)

const fileCols = `id, path, language, vcs_branch, hash, last_indexed`

func (s *Store) scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var hash sql.NullString
	var lastIndexed sql.NullTime
	if err := scanner.Scan(&f.ID, &f.Path, &f.Language, &f.VCSBranch, &hash, &lastIndexed); err != nil {
		return nil, err
	}
	f.Hash = hash.String
	if lastIndexed.Valid {
		f.LastIndexed = lastIndexed.Time
	}
	return f, nil
}

// FileByPath implements the by-file_path lookup, scoped to a branch.
func (s *Store) FileByPath(branch, path string) (*File, error) {
	row := s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE vcs_branch = ? AND path = ?", branch, path)
	f, err := s.scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// FilesByBranch implements the by-branch index over files.
func (s *Store) FilesByBranch(branch string) ([]*File, error) {
	rows, err := s.db.Query("SELECT "+fileCols+" FROM files WHERE vcs_branch = ?", branch)
	if err != nil {
		return nil, fmt.Errorf("files by branch: %w", err)
	}
	defer rows.Close()
	var out []*File
	for rows.Next() {
		f, err := s.scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFile drops only the file row; it does not remove the file's
// symbols, edges, or imports. Clear those first with DeleteFileData.
func (s *Store) DeleteFile(branch, path string) error {
	_, err := s.db.Exec("DELETE FROM files WHERE vcs_branch = ? AND path = ?", branch, path)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
