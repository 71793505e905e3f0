package page

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"legato/internal/library"
	"legato/internal/metadata"
)

// LoadTags reads the tag of a track's file into the edit buffer
func (s *Service) LoadTags(trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagTrackID, s.tag = "", nil
	track, err := s.lib.Track(trackID)
	if err != nil {
		return err
	}
	tag, err := s.files.ReadTag(track)
	if err != nil {
		return fmt.Errorf("failed to read tag of %s: %w", trackID, err)
	}
	s.tagTrackID, s.tag = trackID, tag
	return nil
}

// CurrentTag returns the fields in the edit buffer and the track they
// belong to
func (s *Service) CurrentTag() (string, metadata.Fields, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tag == nil {
		return "", metadata.Fields{}, false
	}
	return s.tagTrackID, s.tag.Fields(), true
}

// TagImage returns a picture from the edit buffer
func (s *Service) TagImage(index int) (metadata.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tag == nil {
		return metadata.Image{}, false
	}
	return s.tag.Image(index)
}

// SetImageData puts a JPEG or PNG picture into the edit buffer at index,
// appending when index is past the end. It is written with the next
// UpdateTrackInfo.
func (s *Service) SetImageData(index int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tag == nil {
		return library.Preconditionf("no tag loaded")
	}
	if err := s.tag.SetImage(index, data); err != nil {
		return fmt.Errorf("%w: %w", library.ErrPrecondition, err)
	}
	return nil
}

// SetImageFile reads a .jpg, .jpeg or .png file into the edit buffer
func (s *Service) SetImageFile(index int, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return library.Preconditionf("unsupported picture file %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read picture: %w", err)
	}
	return s.SetImageData(index, data)
}

// RemoveImage drops the picture at index from the edit buffer. A missing
// picture is not an error.
func (s *Service) RemoveImage(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tag == nil {
		return library.Preconditionf("no tag loaded")
	}
	s.tag.RemoveImage(index)
	return nil
}

// UpdateTrackInfo saves the track info form to the file and the library.
// Invalid numbers are rejected before anything is written.
func (s *Service) UpdateTrackInfo(trackID string, md metadata.TrackMD) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, err := s.lib.Track(trackID)
	if err != nil {
		return err
	}
	tag := s.tag
	if tag == nil || s.tagTrackID != trackID {
		if tag, err = s.files.ReadTag(track); err != nil {
			return fmt.Errorf("failed to read tag of %s: %w", trackID, err)
		}
	}

	updated, err := s.files.UpdateInfo(track, tag, md, s.now())
	var fieldErr *metadata.FieldError
	if errors.As(err, &fieldErr) || errors.Is(err, metadata.ErrUnsupportedTagField) {
		return fmt.Errorf("%w: %w", library.ErrPrecondition, err)
	}
	if err != nil {
		return err
	}
	s.forgetCover(track)
	if err := s.lib.UpdateTrack(trackID, updated); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangeTracks, IDs: []string{trackID}})
	return nil
}
