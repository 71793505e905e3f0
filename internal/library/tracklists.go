package library

import (
	"slices"
	"strconv"

	"legato/pkg/models"
)

// TrackListDetails is the sidebar view of a tracklist
type TrackListDetails struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Kind models.Kind `json:"kind"`
	// Folders and special tracklists only
	Children []string `json:"children,omitempty"`
}

// TrackListsDetails returns details for every tracklist, keyed by ID
func (l *Library) TrackListsDetails() map[string]TrackListDetails {
	details := make(map[string]TrackListDetails, l.trackLists.Len())
	for _, id := range l.trackLists.Keys() {
		list, _ := l.trackLists.Get(id)
		d := TrackListDetails{ID: id, Name: list.DisplayName(), Kind: list.Kind()}
		if children, ok := models.Children(list); ok {
			d.Children = slices.Clone(children)
		}
		details[id] = d
	}
	return details
}

// editableChildren returns a pointer to the children of a folder or of the
// root, for reading and writing
func (l *Library) editableChildren(id string) (*[]string, error) {
	list, ok := l.trackLists.Get(id)
	if !ok {
		return nil, trackListNotFound(id)
	}
	switch list := list.(type) {
	case *models.Folder:
		return &list.Children, nil
	case *models.Special:
		if list.Name != models.SpecialRoot {
			return nil, preconditionf("special tracklist %s cannot hold children", id)
		}
		return &list.Children, nil
	default:
		return nil, preconditionf("tracklist %s is not a folder", id)
	}
}

// AttachTrackList stores a new playlist or folder and appends it to the
// children of parentID
func (l *Library) AttachTrackList(parentID string, list models.TrackList) error {
	if _, ok := list.(*models.Special); ok {
		return preconditionf("cannot create special tracklists")
	}
	if l.trackLists.Has(list.ListID()) || l.tracks.Has(list.ListID()) {
		return invariantf("id %s is already in use", list.ListID())
	}
	children, err := l.editableChildren(parentID)
	if err != nil {
		return err
	}
	*children = append(*children, list.ListID())
	l.trackLists.Set(list.ListID(), list)
	return nil
}

// UpdateTrackList renames a playlist or folder. An empty description
// clears it.
func (l *Library) UpdateTrackList(id, name, description string) error {
	list, err := l.TrackList(id)
	if err != nil {
		return err
	}
	switch list := list.(type) {
	case *models.Playlist:
		list.Name = name
		list.Description = models.StrOrNil(description)
	case *models.Folder:
		list.Name = name
		list.Description = models.StrOrNil(description)
	case *models.Special:
		return preconditionf("cannot edit special tracklist %s", id)
	}
	return nil
}

// DeleteTrackList removes a playlist or folder, including every
// descendant of a folder. It returns the removed IDs.
func (l *Library) DeleteTrackList(id string) ([]string, error) {
	list, err := l.TrackList(id)
	if err != nil {
		return nil, err
	}
	if _, ok := list.(*models.Special); ok {
		return nil, preconditionf("cannot delete special tracklist %s", id)
	}
	parentID, ok := l.ParentID(id)
	if !ok {
		return nil, invariantf("tracklist %s has no parent", id)
	}

	ids := map[string]struct{}{id: {}}
	order := []string{id}
	if err := l.collectDescendants(id, ids, &order, 0); err != nil {
		return nil, err
	}
	if _, ok := ids[parentID]; ok {
		return nil, invariantf("parent %s contains itself", parentID)
	}
	if err := l.removeChild(parentID, id); err != nil {
		return nil, err
	}
	for _, removed := range order {
		l.trackLists.Delete(removed)
	}
	return order, nil
}

func (l *Library) collectDescendants(id string, ids map[string]struct{}, order *[]string, depth int) error {
	if depth > maxFolderDepth {
		return invariantf("folder nesting deeper than %d at %s", maxFolderDepth, id)
	}
	list, ok := l.trackLists.Get(id)
	if !ok {
		return invariantf("child tracklist %s does not exist", id)
	}
	var children []string
	switch list := list.(type) {
	case *models.Playlist:
		return nil
	case *models.Folder:
		children = list.Children
	case *models.Special:
		return preconditionf("cannot delete special tracklist %s", id)
	}
	for _, child := range children {
		if err := l.collectDescendants(child, ids, order, depth+1); err != nil {
			return err
		}
	}
	for _, child := range children {
		if _, dup := ids[child]; dup {
			return invariantf("duplicate tracklist id %s", child)
		}
		ids[child] = struct{}{}
		*order = append(*order, child)
	}
	return nil
}

func (l *Library) removeChild(parentID, childID string) error {
	children, err := l.editableChildren(parentID)
	if err != nil {
		return invariantf("parent %s of %s is not a folder", parentID, childID)
	}
	kept := make([]string, 0, len(*children))
	for _, id := range *children {
		if id != childID {
			kept = append(kept, id)
		}
	}
	switch len(*children) - len(kept) {
	case 0:
		return invariantf("parent %s does not contain %s", parentID, childID)
	case 1:
	default:
		return invariantf("child id %s found multiple times in %s", childID, parentID)
	}
	*children = kept
	return nil
}

// descendants returns every tracklist below id
func (l *Library) descendants(id string, depth int) ([]string, error) {
	if depth > maxFolderDepth {
		return nil, invariantf("folder nesting deeper than %d at %s", maxFolderDepth, id)
	}
	list, err := l.TrackList(id)
	if err != nil {
		return nil, err
	}
	children, ok := models.Children(list)
	if !ok {
		return nil, nil
	}
	var all []string
	for _, child := range children {
		all = append(all, child)
		below, err := l.descendants(child, depth+1)
		if err != nil {
			return nil, err
		}
		all = append(all, below...)
	}
	return all, nil
}

// MoveTrackList moves a playlist or folder from one folder to another, or
// within the same folder. toIndex is the position in the target's children
// before the move.
func (l *Library) MoveTrackList(id, fromID, toID string, toIndex int) error {
	list, err := l.TrackList(id)
	if err != nil {
		return err
	}
	if _, ok := list.(*models.Special); ok {
		return preconditionf("cannot move special tracklist %s", id)
	}
	toChildren, err := l.editableChildren(toID)
	if err != nil {
		return err
	}
	if id == toID {
		return preconditionf("cannot move tracklist %s into itself", id)
	}
	below, err := l.descendants(id, 0)
	if err != nil {
		return err
	}
	if slices.Contains(below, toID) {
		return preconditionf("cannot move tracklist %s into its own child %s", id, toID)
	}
	fromChildren, err := l.editableChildren(fromID)
	if err != nil {
		return err
	}
	i := slices.Index(*fromChildren, id)
	if i < 0 {
		return preconditionf("tracklist %s is not in %s", id, fromID)
	}

	targetLen := len(*toChildren)
	if fromID == toID {
		targetLen--
		if i < toIndex {
			toIndex--
		}
	}
	if toIndex < 0 || toIndex > targetLen {
		return &NotFoundError{Kind: "index", ID: strconv.Itoa(toIndex)}
	}

	*fromChildren = slices.Delete(*fromChildren, i, i+1)
	*toChildren = slices.Insert(*toChildren, toIndex, id)
	return nil
}

// AddTracks appends tracks to a playlist and returns their new item IDs
func (l *Library) AddTracks(playlistID string, trackIDs []string) ([]models.ItemID, error) {
	list, err := l.TrackList(playlistID)
	if err != nil {
		return nil, err
	}
	playlist, ok := list.(*models.Playlist)
	if !ok {
		return nil, preconditionf("cannot add tracks to %s %s", list.Kind(), playlistID)
	}
	for _, id := range trackIDs {
		if !l.tracks.Has(id) {
			return nil, trackNotFound(id)
		}
	}
	items := l.items.RegisterAll(trackIDs)
	playlist.Tracks = append(playlist.Tracks, items...)
	return items, nil
}

// RemoveItems removes the given items from a playlist. Other playlists
// listing the same tracks are not affected.
func (l *Library) RemoveItems(playlistID string, items []models.ItemID) error {
	playlist, err := l.Playlist(playlistID)
	if err != nil {
		return err
	}
	remove := make(map[models.ItemID]struct{}, len(items))
	for _, item := range items {
		remove[item] = struct{}{}
	}
	playlist.Tracks = slices.DeleteFunc(playlist.Tracks, func(item models.ItemID) bool {
		_, ok := remove[item]
		return ok
	})
	return nil
}

// MoveItems takes items out of a playlist and reinserts them at toIndex of
// the remaining items, in the order given
func (l *Library) MoveItems(playlistID string, items []models.ItemID, toIndex int) error {
	playlist, err := l.Playlist(playlistID)
	if err != nil {
		return err
	}
	moving := make(map[models.ItemID]struct{}, len(items))
	for _, item := range items {
		if _, dup := moving[item]; dup {
			return preconditionf("item %d listed more than once", item)
		}
		moving[item] = struct{}{}
	}
	present := make(map[models.ItemID]struct{}, len(playlist.Tracks))
	for _, item := range playlist.Tracks {
		present[item] = struct{}{}
	}
	for _, item := range items {
		if _, ok := present[item]; !ok {
			return &NotFoundError{Kind: "item", ID: strconv.FormatUint(uint64(item), 10)}
		}
	}

	rest := make([]models.ItemID, 0, len(playlist.Tracks))
	for _, item := range playlist.Tracks {
		if _, ok := moving[item]; !ok {
			rest = append(rest, item)
		}
	}
	if toIndex < 0 || toIndex > len(rest) {
		return &NotFoundError{Kind: "index", ID: strconv.Itoa(toIndex)}
	}

	moved := make([]models.ItemID, 0, len(playlist.Tracks))
	moved = append(moved, rest[:toIndex]...)
	moved = append(moved, items...)
	moved = append(moved, rest[toIndex:]...)
	playlist.Tracks = moved
	return nil
}

// RemoveFromAllPlaylists drops every item pointing at trackID
func (l *Library) RemoveFromAllPlaylists(trackID string) {
	for _, id := range l.trackLists.Keys() {
		list, _ := l.trackLists.Get(id)
		playlist, ok := list.(*models.Playlist)
		if !ok {
			continue
		}
		playlist.Tracks = slices.DeleteFunc(playlist.Tracks, func(item models.ItemID) bool {
			resolved, err := l.items.Resolve(item)
			return err == nil && resolved == trackID
		})
	}
}

// FilterDuplicates returns the track IDs that are not in the playlist yet,
// keeping their order
func (l *Library) FilterDuplicates(playlistID string, trackIDs []string) ([]string, error) {
	list, err := l.TrackList(playlistID)
	if err != nil {
		return nil, err
	}
	playlist, ok := list.(*models.Playlist)
	if !ok {
		return nil, preconditionf("cannot check whether %s %s contains tracks", list.Kind(), playlistID)
	}
	existing := make(map[string]struct{}, len(playlist.Tracks))
	for _, item := range playlist.Tracks {
		if id, err := l.items.Resolve(item); err == nil {
			existing[id] = struct{}{}
		}
	}
	var fresh []string
	seen := make(map[string]struct{}, len(trackIDs))
	for _, id := range trackIDs {
		if _, ok := existing[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		fresh = append(fresh, id)
	}
	return fresh, nil
}
