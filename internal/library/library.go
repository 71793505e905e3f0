// Package library holds the in-memory music library: tracks, tracklists and
// the play time log, along with the versioned JSON format they persist in.
//
// A Library is not safe for concurrent use. The page service owns it and
// serializes access.
package library

import (
	"slices"
	"time"

	"legato/pkg/models"
)

// Library is the root aggregate of the document
type Library struct {
	tracks     *orderedMap[*models.Track]
	trackLists *orderedMap[models.TrackList]
	playTime   []models.PlayTime
	// Play time collected before version 2. It double-counts some plays,
	// so it is kept apart from playTime.
	playTimeV1 []models.PlayTime

	items      *ItemTable
	trackItems map[string]models.ItemID

	sourceVersion string
	now           func() int64
}

// New creates an empty library containing only the root tracklist
func New() *Library {
	l := newEmpty()
	l.trackLists.Set(models.RootID, &models.Special{
		ID:          models.RootID,
		Name:        models.SpecialRoot,
		DateCreated: l.now(),
		Children:    []string{},
	})
	return l
}

func newEmpty() *Library {
	return &Library{
		tracks:     newOrderedMap[*models.Track](),
		trackLists: newOrderedMap[models.TrackList](),
		playTime:   []models.PlayTime{},
		items:      NewItemTable(),
		trackItems: make(map[string]models.ItemID),
		now:        NowMillis,
	}
}

// NowMillis returns the current time in ms since the unix epoch
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Track returns the track with the given ID. The returned pointer aliases
// the library and may only be modified by the library owner.
func (l *Library) Track(id string) (*models.Track, error) {
	track, ok := l.tracks.Get(id)
	if !ok {
		return nil, trackNotFound(id)
	}
	return track, nil
}

// UpdateTrack replaces a track's fields in place, keeping its position in
// the track order
func (l *Library) UpdateTrack(id string, track *models.Track) error {
	existing, ok := l.tracks.Get(id)
	if !ok {
		return trackNotFound(id)
	}
	*existing = *track
	return nil
}

// TrackExists reports whether a track with the given ID exists
func (l *Library) TrackExists(id string) bool {
	return l.tracks.Has(id)
}

// TrackIDs returns every track ID in insertion order
func (l *Library) TrackIDs() []string {
	return l.tracks.Keys()
}

// TrackCount returns the number of tracks
func (l *Library) TrackCount() int {
	return l.tracks.Len()
}

// TrackItem returns the item ID the track is listed under in the root
// tracklist
func (l *Library) TrackItem(id string) (models.ItemID, error) {
	item, ok := l.trackItems[id]
	if !ok {
		return 0, trackNotFound(id)
	}
	return item, nil
}

// InsertTrack adds a track under the given ID
func (l *Library) InsertTrack(id string, track *models.Track) error {
	if l.tracks.Has(id) || l.trackLists.Has(id) {
		return invariantf("id %s is already in use", id)
	}
	l.tracks.Set(id, track)
	l.trackItems[id] = l.items.Register(id)
	return nil
}

// RemoveTrack removes a track from the track map. Playlists keep
// referencing it; callers pair this with RemoveFromAllPlaylists.
func (l *Library) RemoveTrack(id string) (*models.Track, error) {
	track, ok := l.tracks.Delete(id)
	if !ok {
		return nil, trackNotFound(id)
	}
	delete(l.trackItems, id)
	return track, nil
}

// ItemTrackID resolves an item ID to the ID of an existing track
func (l *Library) ItemTrackID(item models.ItemID) (string, error) {
	id, err := l.items.Resolve(item)
	if err != nil {
		return "", err
	}
	if !l.tracks.Has(id) {
		return "", trackNotFound(id)
	}
	return id, nil
}

// Items returns the item table of the library
func (l *Library) Items() *ItemTable {
	return l.items
}

// TrackList returns the tracklist with the given ID
func (l *Library) TrackList(id string) (models.TrackList, error) {
	list, ok := l.trackLists.Get(id)
	if !ok {
		return nil, trackListNotFound(id)
	}
	return list, nil
}

// TrackListIDs returns every tracklist ID in insertion order
func (l *Library) TrackListIDs() []string {
	return l.trackLists.Keys()
}

// Playlist returns the playlist with the given ID. Folders and special
// tracklists are rejected.
func (l *Library) Playlist(id string) (*models.Playlist, error) {
	list, err := l.TrackList(id)
	if err != nil {
		return nil, err
	}
	playlist, ok := list.(*models.Playlist)
	if !ok {
		return nil, preconditionf("tracklist %s is a %s, not a playlist", id, list.Kind())
	}
	return playlist, nil
}

// Root returns the root tracklist
func (l *Library) Root() (*models.Special, error) {
	list, ok := l.trackLists.Get(models.RootID)
	if !ok {
		return nil, invariantf("root tracklist not found")
	}
	root, ok := list.(*models.Special)
	if !ok || root.Name != models.SpecialRoot {
		return nil, invariantf("root tracklist has the wrong type")
	}
	return root, nil
}

// NewPlaylist creates a playlist with a fresh ID. It is not linked into any
// folder yet.
func (l *Library) NewPlaylist(name string, description *string) (*models.Playlist, error) {
	id, err := l.GenerateID()
	if err != nil {
		return nil, err
	}
	return &models.Playlist{
		ID:          id,
		Name:        name,
		Description: description,
		DateCreated: models.Ptr(l.now()),
		Tracks:      []models.ItemID{},
	}, nil
}

// NewFolder creates a folder with a fresh ID. It is not linked into any
// folder yet.
func (l *Library) NewFolder(name string, description *string) (*models.Folder, error) {
	id, err := l.GenerateID()
	if err != nil {
		return nil, err
	}
	return &models.Folder{
		ID:          id,
		Name:        name,
		Description: description,
		DateCreated: models.Ptr(l.now()),
		Children:    []string{},
	}, nil
}

// ParentID returns the ID of the folder or special tracklist listing
// childID. The root and dangling tracklists have no parent.
func (l *Library) ParentID(childID string) (string, bool) {
	for _, id := range l.trackLists.Keys() {
		list, _ := l.trackLists.Get(id)
		children, ok := models.Children(list)
		if !ok {
			continue
		}
		if slices.Contains(children, childID) {
			return id, true
		}
	}
	return "", false
}

// PlayTime returns the play time log
func (l *Library) PlayTime() []models.PlayTime {
	return slices.Clone(l.playTime)
}

// LegacyPlayTime returns play time collected before version 2
func (l *Library) LegacyPlayTime() []models.PlayTime {
	return slices.Clone(l.playTimeV1)
}

// Artists returns every distinct non-empty artist, sorted
func (l *Library) Artists() []string {
	return l.distinct(func(t *models.Track) string { return t.Artist })
}

// Genres returns every distinct non-empty genre, sorted
func (l *Library) Genres() []string {
	return l.distinct(func(t *models.Track) string { return models.Str(t.Genre) })
}

func (l *Library) distinct(field func(*models.Track) string) []string {
	seen := make(map[string]struct{})
	for _, id := range l.tracks.Keys() {
		track, _ := l.tracks.Get(id)
		if v := field(track); v != "" {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}
