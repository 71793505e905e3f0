package page

import (
	"legato/internal/covers"
	"legato/pkg/models"
)

// Covers serves resized cover art of audio files
type Covers interface {
	Get(path string, index, maxSize int) (covers.Cover, error)
	Forget(path string) error
}

// SetCovers enables cover lookups. It must be called before the service is
// shared.
func (s *Service) SetCovers(c Covers) {
	s.covers = c
}

// TrackCover returns picture index of a track's file, scaled to fit
// maxSize. The file is read without holding the lock.
func (s *Service) TrackCover(trackID string, index, maxSize int) (covers.Cover, error) {
	if s.covers == nil {
		return covers.Cover{}, covers.ErrNoImage
	}
	path, err := s.TrackPath(trackID)
	if err != nil {
		return covers.Cover{}, err
	}
	return s.covers.Get(path, index, maxSize)
}

// forgetCover drops cached covers of a file that was changed or removed
// (must be called with lock held)
func (s *Service) forgetCover(track *models.Track) {
	if s.covers == nil {
		return
	}
	path := s.files.Path(track)
	if err := s.covers.Forget(path); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to forget cover")
	}
}
