package library

import "legato/pkg/models"

// Validate checks the structural invariants of the tracklist graph: the
// root exists, every other tracklist has exactly one parent, nothing lists
// the root, and folders do not contain themselves.
func (l *Library) Validate() error {
	if _, err := l.Root(); err != nil {
		return err
	}

	parents := make(map[string]string)
	for _, id := range l.trackLists.Keys() {
		list, _ := l.trackLists.Get(id)
		if list.ListID() != id {
			return invariantf("tracklist %s is stored under %s", list.ListID(), id)
		}
		switch list := list.(type) {
		case *models.Playlist:
			for _, item := range list.Tracks {
				if _, err := l.ItemTrackID(item); err != nil {
					return invariantf("playlist %s: %v", id, err)
				}
			}
		case *models.Special:
			if id != models.RootID {
				return invariantf("unexpected special tracklist %s", id)
			}
		}
		children, _ := models.Children(list)
		for _, child := range children {
			childList, ok := l.trackLists.Get(child)
			if !ok {
				return invariantf("child tracklist %s of %s does not exist", child, id)
			}
			if _, ok := childList.(*models.Special); ok {
				return invariantf("special tracklist %s listed as a child of %s", child, id)
			}
			if parent, ok := parents[child]; ok {
				return invariantf("tracklist %s is listed by both %s and %s", child, parent, id)
			}
			parents[child] = id
		}
	}

	for _, id := range l.trackLists.Keys() {
		if _, ok := parents[id]; !ok && id != models.RootID {
			return invariantf("tracklist %s has no parent", id)
		}
	}

	// With one parent per node, a cycle shows up as a walk up the parent
	// chain that never reaches a node without a parent.
	for child := range parents {
		steps := 0
		for id, ok := child, true; ok; id, ok = parents[id] {
			steps++
			if steps > len(parents)+1 {
				return invariantf("folder cycle through %s", child)
			}
		}
	}
	return nil
}
