package library

import (
	"legato/pkg/models"
)

// maxFolderDepth bounds folder recursion so a corrupt, cyclic folder graph
// fails instead of hanging
const maxFolderDepth = 256

// Entry is one row of a resolved tracklist
type Entry struct {
	TrackID string
	ItemID  models.ItemID
}

// Resolve flattens a tracklist into its tracks.
//
// A playlist yields its items in stored order, duplicates included. A
// folder yields the union of its children, each track once. The root
// yields every track in insertion order.
func (l *Library) Resolve(id string) ([]Entry, error) {
	list, err := l.TrackList(id)
	if err != nil {
		return nil, err
	}
	switch list := list.(type) {
	case *models.Playlist:
		return l.resolvePlaylist(list)
	case *models.Folder:
		seen := make(map[string]struct{})
		entries := []Entry{}
		onPath := map[string]struct{}{list.ID: {}}
		if err := l.resolveChildren(list.Children, seen, onPath, &entries, 1); err != nil {
			return nil, err
		}
		return entries, nil
	case *models.Special:
		return l.resolveRoot(), nil
	}
	return nil, invariantf("tracklist %s has unknown type", id)
}

// ResolveTrackIDs is Resolve without the item IDs
func (l *Library) ResolveTrackIDs(id string) ([]string, error) {
	entries, err := l.Resolve(id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.TrackID
	}
	return ids, nil
}

func (l *Library) resolvePlaylist(playlist *models.Playlist) ([]Entry, error) {
	entries := make([]Entry, len(playlist.Tracks))
	for i, item := range playlist.Tracks {
		trackID, err := l.ItemTrackID(item)
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{TrackID: trackID, ItemID: item}
	}
	return entries, nil
}

func (l *Library) resolveRoot() []Entry {
	keys := l.tracks.Keys()
	entries := make([]Entry, len(keys))
	for i, id := range keys {
		entries[i] = Entry{TrackID: id, ItemID: l.trackItems[id]}
	}
	return entries
}

func (l *Library) resolveChildren(children []string, seen, onPath map[string]struct{}, entries *[]Entry, depth int) error {
	if depth > maxFolderDepth {
		return invariantf("folder nesting deeper than %d", maxFolderDepth)
	}
	for _, childID := range children {
		if _, cyclic := onPath[childID]; cyclic {
			return invariantf("folder %s contains itself", childID)
		}
		child, ok := l.trackLists.Get(childID)
		if !ok {
			return invariantf("child tracklist %s does not exist", childID)
		}
		switch child := child.(type) {
		case *models.Playlist:
			for _, item := range child.Tracks {
				trackID, err := l.ItemTrackID(item)
				if err != nil {
					return err
				}
				if _, dup := seen[trackID]; dup {
					continue
				}
				seen[trackID] = struct{}{}
				*entries = append(*entries, Entry{TrackID: trackID, ItemID: l.trackItems[trackID]})
			}
		case *models.Folder:
			onPath[childID] = struct{}{}
			err := l.resolveChildren(child.Children, seen, onPath, entries, depth+1)
			delete(onPath, childID)
			if err != nil {
				return err
			}
		case *models.Special:
			return invariantf("special tracklist %s listed as a child", childID)
		}
	}
	return nil
}
