package covers

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// store persists resized covers in SQLite. It is safe for concurrent use
// because the underlying *sql.DB is.
type store struct {
	conn   *sql.DB
	logger *logrus.Logger

	getStmt    *sql.Stmt
	putStmt    *sql.Stmt
	deleteStmt *sql.Stmt
}

func openStore(dbPath string, logger *logrus.Logger) (*store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open cover database: %w", err)
	}
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &store{conn: conn, logger: logger}
	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	logger.WithField("db_path", dbPath).Info("Cover cache opened")
	return s, nil
}

func (s *store) createTables() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS covers (
		path TEXT NOT NULL,
		modified INTEGER NOT NULL,
		image_index INTEGER NOT NULL,
		max_size INTEGER NOT NULL,
		mime_type TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (path, image_index, max_size)
	);`)
	return err
}

func (s *store) prepareStatements() error {
	var err error
	s.getStmt, err = s.conn.Prepare(`
		SELECT mime_type, data FROM covers
		WHERE path = ? AND image_index = ? AND max_size = ? AND modified = ?`)
	if err != nil {
		return err
	}
	s.putStmt, err = s.conn.Prepare(`
		INSERT OR REPLACE INTO covers (path, modified, image_index, max_size, mime_type, data)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	s.deleteStmt, err = s.conn.Prepare(`DELETE FROM covers WHERE path = ?`)
	return err
}

// get returns a stored cover. Covers stored for another modification time
// of the file are not returned.
func (s *store) get(k key) (Cover, bool, error) {
	var c Cover
	err := s.getStmt.QueryRow(k.path, k.index, k.maxSize, k.modified).Scan(&c.MIMEType, &c.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Cover{}, false, nil
	}
	if err != nil {
		return Cover{}, false, err
	}
	return c, true, nil
}

func (s *store) put(k key, c Cover) error {
	_, err := s.putStmt.Exec(k.path, k.modified, k.index, k.maxSize, c.MIMEType, c.Data)
	return err
}

// deletePath forgets every cover of a file
func (s *store) deletePath(path string) error {
	_, err := s.deleteStmt.Exec(path)
	return err
}

func (s *store) close() error {
	for _, stmt := range []*sql.Stmt{s.getStmt, s.putStmt, s.deleteStmt} {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				s.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}
	return s.conn.Close()
}
