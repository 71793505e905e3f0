package page

import "slices"

// ChangeKind says what a change touched
type ChangeKind string

const (
	// Track data, or the set of tracks
	ChangeTracks ChangeKind = "tracks"
	// Tracklist names or structure
	ChangeTrackLists ChangeKind = "trackLists"
	// The tracks of a playlist
	ChangePlaylist ChangeKind = "playlist"
)

// Change is sent to subscribers after a mutation
type Change struct {
	Kind ChangeKind `json:"kind"`
	IDs  []string   `json:"ids"`
}

// Subscribe adds a listener for changes
func (s *Service) Subscribe() <-chan Change {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	ch := make(chan Change, 16)
	s.listeners = append(s.listeners, ch)
	return ch
}

// Unsubscribe removes a listener and closes its channel
func (s *Service) Unsubscribe(ch <-chan Change) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	for i, listener := range s.listeners {
		if listener == ch {
			close(listener)
			s.listeners = slices.Delete(s.listeners, i, i+1)
			return
		}
	}
}

// notify sends a change to every listener. Listeners that are not keeping
// up are dropped.
func (s *Service) notify(change Change) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	kept := s.listeners[:0]
	for _, listener := range s.listeners {
		select {
		case listener <- change:
			kept = append(kept, listener)
		default:
			close(listener)
			s.logger.Warn("Dropped a change listener that stopped reading")
		}
	}
	clear(s.listeners[len(kept):])
	s.listeners = kept
}
