package page

import (
	"github.com/sirupsen/logrus"

	"legato/internal/library"
	"legato/pkg/models"
)

// MoveTracks moves playlist items to toIndex. The view the user dragged in
// must show the playlist in stored order, unfiltered, or the drop position
// would not match what they see.
func (s *Service) MoveTracks(view Options, items []models.ItemID, toIndex int) error {
	if !view.inStoredOrder() {
		return library.Preconditionf("tracks can only be rearranged when sorted by index and not filtered")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lib.MoveItems(view.PlaylistID, items, toIndex); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangePlaylist, IDs: []string{view.PlaylistID}})
	return nil
}

// AddTracksToPlaylist appends tracks to a playlist
func (s *Service) AddTracksToPlaylist(playlistID string, trackIDs []string) ([]models.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.lib.AddTracks(playlistID, trackIDs)
	if err != nil {
		return nil, err
	}
	s.notify(Change{Kind: ChangePlaylist, IDs: []string{playlistID}})
	return items, nil
}

// RemoveFromPlaylist removes items from a playlist
func (s *Service) RemoveFromPlaylist(playlistID string, items []models.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lib.RemoveItems(playlistID, items); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangePlaylist, IDs: []string{playlistID}})
	return nil
}

// RemoveFromOpenPlaylist removes the selected rows of the playlist being
// viewed. It is refused while a filter hides rows.
func (s *Service) RemoveFromOpenPlaylist(view Options, items []models.ItemID) error {
	if view.filtered() {
		return library.Preconditionf("tracks cannot be removed while filtered")
	}
	return s.RemoveFromPlaylist(view.PlaylistID, items)
}

// NewTrackList creates a playlist or folder inside parentID
func (s *Service) NewTrackList(name, description string, isFolder bool, parentID string) (models.TrackList, error) {
	if err := validateTrackList(name, description); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var list models.TrackList
	var err error
	if isFolder {
		list, err = s.lib.NewFolder(name, models.StrOrNil(description))
	} else {
		list, err = s.lib.NewPlaylist(name, models.StrOrNil(description))
	}
	if err != nil {
		return nil, err
	}
	if err := s.lib.AttachTrackList(parentID, list); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"id":     list.ListID(),
		"kind":   list.Kind(),
		"parent": parentID,
	}).Debug("Tracklist created")
	s.notify(Change{Kind: ChangeTrackLists, IDs: []string{list.ListID()}})
	return list, nil
}

// UpdateTrackList renames a playlist or folder
func (s *Service) UpdateTrackList(id, name, description string) error {
	if err := validateTrackList(name, description); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lib.UpdateTrackList(id, name, description); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangeTrackLists, IDs: []string{id}})
	return nil
}

// DeleteTrackList deletes a playlist, or a folder and everything in it
func (s *Service) DeleteTrackList(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.lib.DeleteTrackList(id)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"id":      id,
		"removed": len(removed),
	}).Info("Tracklist deleted")
	s.notify(Change{Kind: ChangeTrackLists, IDs: removed})
	return nil
}

// MovePlaylist moves a playlist or folder between folders
func (s *Service) MovePlaylist(id, fromID, toID string, toIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lib.MoveTrackList(id, fromID, toID, toIndex); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangeTrackLists, IDs: []string{id, fromID, toID}})
	return nil
}
