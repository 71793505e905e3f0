// Package page owns the library for the front end. It answers page queries
// and applies every edit, serializing access to the document.
package page

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"legato/internal/library"
	"legato/internal/metadata"
	"legato/pkg/models"
)

// Files reads, writes and removes the audio files of tracks
type Files interface {
	Import(srcPath string, now int64) (*models.Track, error)
	Path(track *models.Track) string
	ReadTag(track *models.Track) (metadata.Tag, error)
	UpdateInfo(track *models.Track, tag metadata.Tag, md metadata.TrackMD, now int64) (*models.Track, error)
	Remove(track *models.Track) error
}

// Saver persists the library
type Saver interface {
	Save(lib *library.Library) error
}

// Service is the single owner of a library. Reads share a read lock and
// every mutation takes the write lock.
type Service struct {
	mu     sync.RWMutex
	lib    *library.Library
	files  Files
	store  Saver
	logger *logrus.Logger
	now    func() int64
	covers Covers

	// Tag edit buffer, guarded by mu
	tagTrackID string
	tag        metadata.Tag

	listenersMu sync.Mutex
	listeners   []chan Change
}

// NewService creates a service owning lib
func NewService(lib *library.Library, files Files, store Saver, logger *logrus.Logger) *Service {
	return &Service{
		lib:    lib,
		files:  files,
		store:  store,
		logger: logger,
		now:    library.NowMillis,
	}
}

// Read runs fn with shared access to the library. fn must not modify it or
// keep references past its return.
func (s *Service) Read(fn func(lib *library.Library) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.lib)
}

// Track returns a copy of a track
func (s *Service) Track(id string) (*models.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	track, err := s.lib.Track(id)
	if err != nil {
		return nil, err
	}
	return track.Clone(), nil
}

// TrackExists reports whether a track exists
func (s *Service) TrackExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lib.TrackExists(id)
}

// TrackPath returns the path of a track's audio file
func (s *Service) TrackPath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	track, err := s.lib.Track(id)
	if err != nil {
		return "", err
	}
	return s.files.Path(track), nil
}

// TrackListsDetails returns the sidebar details of every tracklist
func (s *Service) TrackListsDetails() map[string]library.TrackListDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lib.TrackListsDetails()
}

// Artists returns every distinct artist
func (s *Service) Artists() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lib.Artists()
}

// Genres returns every distinct genre
func (s *Service) Genres() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lib.Genres()
}

// FilterDuplicates returns the tracks that are not in the playlist yet
func (s *Service) FilterDuplicates(playlistID string, trackIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lib.FilterDuplicates(playlistID, trackIDs)
}

// Save writes the library through the store
func (s *Service) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Save(s.lib)
}

// ImportFile copies an audio file into the library and returns the new
// track's ID. The file is read and copied without holding the lock.
func (s *Service) ImportFile(path string) (string, error) {
	now := s.now()
	track, err := s.files.Import(path, now)
	if errors.Is(err, metadata.ErrUnsupportedFormat) {
		return "", fmt.Errorf("%w: %w", library.ErrPrecondition, err)
	}
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.lib.GenerateID()
	if err != nil {
		return "", err
	}
	if err := s.lib.InsertTrack(id, track); err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{
		"trackId": id,
		"file":    track.File,
	}).Info("Track imported")
	s.notify(Change{Kind: ChangeTracks, IDs: []string{id}})
	return id, nil
}

// AddPlay records a completed play
func (s *Service) AddPlay(trackID string) error {
	return s.engagement(trackID, func() error { return s.lib.AddPlay(trackID, s.now()) })
}

// AddSkip records a skip
func (s *Service) AddSkip(trackID string) error {
	return s.engagement(trackID, func() error { return s.lib.AddSkip(trackID, s.now()) })
}

// AddPlayTime records a listening interval
func (s *Service) AddPlayTime(trackID string, start, durationMs int64) error {
	return s.engagement(trackID, func() error { return s.lib.AddPlayTime(trackID, start, durationMs) })
}

func (s *Service) engagement(trackID string, record func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := record(); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangeTracks, IDs: []string{trackID}})
	return nil
}

// DeleteTracks removes tracks from the library and every playlist, and
// deletes their files. Nothing is removed unless every track exists.
func (s *Service) DeleteTracks(trackIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTracks(trackIDs)
}

// DeleteItems deletes the tracks behind the given playlist items
func (s *Service) DeleteItems(items []models.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trackIDs := make([]string, 0, len(items))
	for _, item := range items {
		id, err := s.lib.ItemTrackID(item)
		if err != nil {
			return err
		}
		trackIDs = append(trackIDs, id)
	}
	return s.deleteTracks(trackIDs)
}

// deleteTracks deletes each distinct track once, in first-seen order
func (s *Service) deleteTracks(ids []string) error {
	trackIDs := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			trackIDs = append(trackIDs, id)
		}
	}

	tracks := make([]*models.Track, len(trackIDs))
	for i, id := range trackIDs {
		track, err := s.lib.Track(id)
		if err != nil {
			return err
		}
		tracks[i] = track
	}

	var deleted []string
	defer func() {
		if len(deleted) > 0 {
			s.notify(Change{Kind: ChangeTracks, IDs: deleted})
		}
	}()
	for i, id := range trackIDs {
		if err := s.files.Remove(tracks[i]); err != nil {
			return fmt.Errorf("failed to delete file of track %s: %w", id, err)
		}
		s.forgetCover(tracks[i])
		s.lib.RemoveFromAllPlaylists(id)
		if _, err := s.lib.RemoveTrack(id); err != nil {
			return err
		}
		if s.tagTrackID == id {
			s.tagTrackID, s.tag = "", nil
		}
		deleted = append(deleted, id)
	}
	s.logger.WithField("count", len(deleted)).Info("Tracks deleted")
	return nil
}
