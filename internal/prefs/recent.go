package prefs

import (
	"fmt"
	"time"
)

// Kinds of recently used files.
const (
	KindLoad   = "load"
	KindSave   = "save"
	KindExport = "export"
)

// usedAtLayout has fixed width so used_at sorts correctly as text.
const usedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type RecentFile struct {
	Path   string
	Kind   string
	UsedAt time.Time
}

// TouchRecent records that path was just used for kind.
func (s *Store) TouchRecent(path, kind string) error {
	return s.touchRecentAt(path, kind, time.Now().UTC())
}

func (s *Store) touchRecentAt(path, kind string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO recent_files (path, kind, used_at) VALUES (?, ?, ?)
		 ON CONFLICT(path, kind) DO UPDATE SET used_at = excluded.used_at`,
		path, kind, at.Format(usedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("touch recent %q: %w", path, err)
	}
	return nil
}

// ListRecent returns files of kind, newest first. An empty kind lists all
// kinds; a non-positive limit means no limit.
func (s *Store) ListRecent(kind string, limit int) ([]RecentFile, error) {
	query := `SELECT path, kind, used_at FROM recent_files`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY used_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent files: %w", err)
	}
	defer rows.Close()

	var files []RecentFile
	for rows.Next() {
		var f RecentFile
		var usedAt string
		if err := rows.Scan(&f.Path, &f.Kind, &usedAt); err != nil {
			return nil, err
		}
		f.UsedAt, _ = time.Parse(usedAtLayout, usedAt)
		files = append(files, f)
	}
	return files, rows.Err()
}

// LastFile returns the most recently used events file of any kind but
// export, or "" when there is none.
func (s *Store) LastFile() string {
	var path string
	err := s.db.QueryRow(
		`SELECT path FROM recent_files WHERE kind IN (?, ?) ORDER BY used_at DESC LIMIT 1`,
		KindLoad, KindSave,
	).Scan(&path)
	if err != nil {
		return ""
	}
	return path
}
