package datasource

import (
	"database/sql"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/commitspread/pkg/debug"
	"github.com/vanderheijden86/commitspread/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS commit_history (
	date              TEXT PRIMARY KEY,
	commits_by_topics TEXT NOT NULL,
	total_count       INTEGER NOT NULL
)`

// SQLiteStore reads and appends commit history records in a SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// OpenSQLite opens a database. A writable store creates the table when it
// is missing.
func OpenSQLite(path string, readOnly bool) (*SQLiteStore, error) {
	mode := "rwc"
	if readOnly {
		mode = "ro"
	}
	dsn := fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(5000)", path, mode)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("sqlite: %s failed: %v", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path, readOnly: readOnly}
	if !readOnly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// LoadRecords reads every record in date order. Rows whose category column
// does not decode are skipped.
func (s *SQLiteStore) LoadRecords() ([]model.Record, error) {
	rows, err := s.db.Query(`SELECT date, commits_by_topics, total_count FROM commit_history ORDER BY date`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var (
			rec    model.Record
			counts sql.NullString
		)
		if err := rows.Scan(&rec.Date, &counts, &rec.Total); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if counts.Valid && counts.String != "" {
			if err := json.Unmarshal([]byte(counts.String), &rec.Counts); err != nil {
				debug.Log("sqlite: skipping %s: %v", rec.Date, err)
				continue
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveRecords inserts records whose date is not stored yet and returns the
// number added. Stored rows are never changed.
func (s *SQLiteStore) SaveRecords(records []model.Record) (int, error) {
	if s.readOnly {
		return 0, fmt.Errorf("store %s is read-only", s.path)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO commit_history (date, commits_by_topics, total_count) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, rec := range records {
		counts, err := json.Marshal(rec.Counts)
		if err != nil {
			return 0, fmt.Errorf("encoding %s: %w", rec.Date, err)
		}
		res, err := stmt.Exec(rec.Date, string(counts), rec.Total)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", rec.Date, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// CountRecords returns the number of stored records.
func (s *SQLiteStore) CountRecords() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM commit_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

// LastDate returns the newest stored date, or "" when the table is empty.
func (s *SQLiteStore) LastDate() (string, error) {
	var last sql.NullString
	if err := s.db.QueryRow(`SELECT MAX(date) FROM commit_history`).Scan(&last); err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	return last.String, nil
}
