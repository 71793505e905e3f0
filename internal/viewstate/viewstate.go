// Package viewstate stores front end view options next to the library.
package viewstate

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"

	"legato/internal/atomicfile"
)

// FileName is the view options file inside the local data directory
const FileName = "view.json"

// Options are the persisted view options. Empty Columns means the default
// column set.
type Options struct {
	ShownPlaylistFolders []string `json:"shownPlaylistFolders"`
	Columns              []string `json:"columns"`
}

// Store loads and saves view options
type Store struct {
	path   string
	files  *atomicfile.Writer
	logger *logrus.Logger
}

// NewStore creates a store for the view file in dir
func NewStore(dir string, files *atomicfile.Writer, logger *logrus.Logger) *Store {
	return &Store{path: filepath.Join(dir, FileName), files: files, logger: logger}
}

// Load reads the view options. Any error yields the defaults.
func (s *Store) Load() Options {
	data, err := s.files.ReadFile(s.path)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Debug("Using default view options")
		return Options{ShownPlaylistFolders: []string{}, Columns: []string{}}
	}
	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Invalid view options, using defaults")
		return Options{ShownPlaylistFolders: []string{}, Columns: []string{}}
	}
	if opts.ShownPlaylistFolders == nil {
		opts.ShownPlaylistFolders = []string{}
	}
	if opts.Columns == nil {
		opts.Columns = []string{}
	}
	return opts
}

// Save writes the view options atomically
func (s *Store) Save(opts Options) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("error encoding view options: %w", err)
	}
	if err := s.files.Write(s.path, data, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", FileName, err)
	}
	return nil
}

// SetFolderShown expands or collapses a folder in the sidebar
func (o *Options) SetFolderShown(id string, shown bool) {
	i := slices.Index(o.ShownPlaylistFolders, id)
	switch {
	case shown && i < 0:
		o.ShownPlaylistFolders = append(o.ShownPlaylistFolders, id)
	case !shown && i >= 0:
		o.ShownPlaylistFolders = slices.Delete(o.ShownPlaylistFolders, i, i+1)
	}
}

// Prune forgets folders that no longer exist and reports whether anything
// was removed
func (o *Options) Prune(exists func(id string) bool) bool {
	n := len(o.ShownPlaylistFolders)
	o.ShownPlaylistFolders = slices.DeleteFunc(o.ShownPlaylistFolders, func(id string) bool {
		return !exists(id)
	})
	return len(o.ShownPlaylistFolders) != n
}
