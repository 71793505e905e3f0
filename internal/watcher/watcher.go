// Package watcher imports audio files dropped into a folder.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Importer adds a file to the library and returns the new track ID
type Importer interface {
	ImportFile(path string) (string, error)
}

// AudioDetector tells audio files apart from everything else
type AudioDetector interface {
	IsAudioFile(path string) bool
}

// Options configures a Watcher
type Options struct {
	// Settle is how long a file must stay unchanged before it is imported
	Settle time.Duration
	// RemoveImported deletes files from the drop folder once imported
	RemoveImported bool
}

type pendingImport struct {
	timer *time.Timer
}

// Watcher imports files that appear in a drop folder
type Watcher struct {
	dir      string
	importer Importer
	detector AudioDetector
	opts     Options
	logger   *logrus.Logger

	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]*pendingImport
	closed  bool
	wg      sync.WaitGroup
}

// New creates a watcher for dir. Nothing is watched until Start.
func New(dir string, importer Importer, detector AudioDetector, opts Options, logger *logrus.Logger) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		importer: importer,
		detector: detector,
		opts:     opts,
		logger:   logger,
		pending:  make(map[string]*pendingImport),
	}
}

// Start watches the drop folder, creating it if needed, and queues the
// audio files already in it.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create drop folder: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.watchFiles()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.WithError(err).WithField("dir", w.dir).Warn("Failed to scan drop folder")
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.schedule(filepath.Join(w.dir, entry.Name()))
		}
	}

	w.logger.WithField("dir", w.dir).Info("Drop folder watcher started")
	return nil
}

func (w *Watcher) watchFiles() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("File watcher error")
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(event.Name)
	}
}

// ignored reports whether a file is hidden, temporary or not audio
func (w *Watcher) ignored(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return true
	}
	return !w.detector.IsAudioFile(path)
}

// schedule imports path once it has settled. Every new write restarts the
// wait.
func (w *Watcher) schedule(path string) {
	if w.ignored(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.opts.Settle)
		return
	}
	p := &pendingImport{}
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.opts.Settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == p {
			delete(w.pending, path)
		}
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.importFile(path)
		}
	})
	w.pending[path] = p
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		delete(w.pending, path)
		w.wg.Done()
	}
}

func (w *Watcher) importFile(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	log := w.logger.WithField("file_path", path)
	log.Info("New audio file detected")

	id, err := w.importer.ImportFile(path)
	if err != nil {
		log.WithError(err).Error("Error importing file")
		return
	}
	log.WithField("id", id).Info("Imported track")

	if w.opts.RemoveImported {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("Failed to remove imported file")
		}
	}
}

// Close stops watching and waits for running imports
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	w.wg.Wait()
	return err
}
