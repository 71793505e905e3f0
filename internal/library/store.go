package library

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/sirupsen/logrus"

	"legato/internal/atomicfile"
)

// Store loads and saves a library file
type Store struct {
	path   string
	files  *atomicfile.Writer
	logger *logrus.Logger
}

// NewStore creates a store for the library file at path
func NewStore(path string, files *atomicfile.Writer, logger *logrus.Logger) *Store {
	return &Store{path: path, files: files, logger: logger}
}

// Path returns the library file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the library file. A missing file yields a new, empty library.
func (s *Store) Load() (*Library, error) {
	start := time.Now()
	data, err := s.files.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.WithField("path", s.path).Info("No library file found, starting a new library")
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read library file: %w", err)
	}
	readTime := time.Since(start)

	start = time.Now()
	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse library file %s: %w", s.path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":       s.path,
		"version":    l.SourceVersion(),
		"tracks":     l.TrackCount(),
		"trackLists": l.trackLists.Len(),
		"readTime":   readTime,
		"parseTime":  time.Since(start),
	}).Info("Library loaded")
	if l.SourceVersion() != CurrentVersion {
		s.logger.WithFields(logrus.Fields{
			"from": l.SourceVersion(),
			"to":   CurrentVersion,
		}).Info("Library upgraded, it is written in the new format on the next save")
	}
	return l, nil
}

// Save writes the library atomically
func (s *Store) Save(l *Library) error {
	start := time.Now()
	data, err := Encode(l)
	if err != nil {
		return err
	}
	if err := s.files.Write(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"path":     s.path,
		"bytes":    len(data),
		"saveTime": time.Since(start),
	}).Debug("Library saved")
	return nil
}
