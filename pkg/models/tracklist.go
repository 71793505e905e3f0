package models

// ItemID is a compact alias for a track ID inside playlist membership lists.
// Zero is never assigned.
type ItemID uint32

// Kind identifies a tracklist variant
type Kind string

const (
	KindPlaylist Kind = "playlist"
	KindFolder   Kind = "folder"
	KindSpecial  Kind = "special"
)

// SpecialName names a Special tracklist. Root is the only one.
type SpecialName string

const SpecialRoot SpecialName = "Root"

// RootID is the ID of the root tracklist
const RootID = "root"

// TrackList is one of *Playlist, *Folder or *Special
type TrackList interface {
	ListID() string
	Kind() Kind
	DisplayName() string
	trackList()
}

// Playlist is an ordered list of tracks. Tracks holds item IDs, so the same
// track may appear more than once.
type Playlist struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Liked        bool    `json:"liked,omitempty"`
	Disliked     bool    `json:"disliked,omitempty"`
	ImportedFrom *string `json:"importedFrom,omitempty"`
	OriginalID   *string `json:"originalId,omitempty"`
	DateImported *int64  `json:"dateImported,omitempty"`
	DateCreated  *int64  `json:"dateCreated,omitempty"`
	// Persisted as track IDs
	Tracks []ItemID `json:"-"`
}

// Folder groups child tracklists
type Folder struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Liked       bool    `json:"liked,omitempty"`
	Disliked    bool    `json:"disliked,omitempty"`
	// For example "itunes"
	ImportedFrom *string  `json:"importedFrom,omitempty"`
	OriginalID   *string  `json:"originalId,omitempty"`
	DateImported *int64   `json:"dateImported,omitempty"`
	DateCreated  *int64   `json:"dateCreated,omitempty"`
	Children     []string `json:"children"`
}

// Special is a built-in tracklist that users cannot edit
type Special struct {
	ID          string      `json:"id"`
	Name        SpecialName `json:"name"`
	DateCreated int64       `json:"dateCreated"`
	Children    []string    `json:"children"`
}

func (p *Playlist) ListID() string      { return p.ID }
func (p *Playlist) Kind() Kind          { return KindPlaylist }
func (p *Playlist) DisplayName() string { return p.Name }
func (*Playlist) trackList()            {}

func (f *Folder) ListID() string      { return f.ID }
func (f *Folder) Kind() Kind          { return KindFolder }
func (f *Folder) DisplayName() string { return f.Name }
func (*Folder) trackList()            {}

func (s *Special) ListID() string      { return s.ID }
func (s *Special) Kind() Kind          { return KindSpecial }
func (s *Special) DisplayName() string { return string(s.Name) }
func (*Special) trackList()            {}

// Children returns the child IDs of a folder or special tracklist, and
// false for playlists.
func Children(list TrackList) ([]string, bool) {
	switch l := list.(type) {
	case *Folder:
		return l.Children, true
	case *Special:
		return l.Children, true
	default:
		return nil, false
	}
}

// Description returns the description of a playlist or folder
func Description(list TrackList) *string {
	switch l := list.(type) {
	case *Playlist:
		return l.Description
	case *Folder:
		return l.Description
	default:
		return nil
	}
}
