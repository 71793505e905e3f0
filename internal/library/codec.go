package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"legato/pkg/models"
)

// trackEntry is one member of the "tracks" object
type trackEntry struct {
	id    string
	track *models.Track
}

// wireTracks keeps the order of the "tracks" object
type wireTracks []trackEntry

func (w wireTracks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.track)
		if err != nil {
			return nil, fmt.Errorf("failed to encode track %s: %w", e.id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (w *wireTracks) UnmarshalJSON(data []byte) error {
	*w = nil
	return decodeObject(data, func(key string, dec *json.Decoder) error {
		var track models.Track
		if err := dec.Decode(&track); err != nil {
			return fmt.Errorf("track %s: %w", key, err)
		}
		*w = append(*w, trackEntry{id: key, track: &track})
		return nil
	})
}

// listEntry is one member of the "trackLists" object. Playlists carry
// their members as track IDs until the item table is built.
type listEntry struct {
	id       string
	list     models.TrackList
	trackIDs []string
}

type wireTrackLists []listEntry

type playlistJSON struct {
	Type models.Kind `json:"type"`
	models.Playlist
	Tracks []string `json:"tracks"`
}

type folderJSON struct {
	Type models.Kind `json:"type"`
	models.Folder
}

type specialJSON struct {
	Type models.Kind `json:"type"`
	models.Special
}

func (w wireTrackLists) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		var v any
		switch list := e.list.(type) {
		case *models.Playlist:
			ids := e.trackIDs
			if ids == nil {
				ids = []string{}
			}
			v = playlistJSON{Type: models.KindPlaylist, Playlist: *list, Tracks: ids}
		case *models.Folder:
			f := *list
			if f.Children == nil {
				f.Children = []string{}
			}
			v = folderJSON{Type: models.KindFolder, Folder: f}
		case *models.Special:
			s := *list
			if s.Children == nil {
				s.Children = []string{}
			}
			v = specialJSON{Type: models.KindSpecial, Special: s}
		}
		key, err := json.Marshal(e.id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tracklist %s: %w", e.id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (w *wireTrackLists) UnmarshalJSON(data []byte) error {
	*w = nil
	return decodeObject(data, func(key string, dec *json.Decoder) error {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("tracklist %s: %w", key, err)
		}
		entry, err := decodeTrackList(raw)
		if err != nil {
			return fmt.Errorf("tracklist %s: %w", key, err)
		}
		if entry.list.ListID() != key {
			return fmt.Errorf("tracklist %s has id %q", key, entry.list.ListID())
		}
		entry.id = key
		*w = append(*w, entry)
		return nil
	})
}

func decodeTrackList(raw json.RawMessage) (listEntry, error) {
	var tag struct {
		Type models.Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return listEntry{}, err
	}
	switch tag.Type {
	case models.KindPlaylist:
		var p playlistJSON
		if err := strictUnmarshal(raw, &p); err != nil {
			return listEntry{}, err
		}
		playlist := p.Playlist
		return listEntry{list: &playlist, trackIDs: p.Tracks}, nil
	case models.KindFolder:
		var f folderJSON
		if err := strictUnmarshal(raw, &f); err != nil {
			return listEntry{}, err
		}
		folder := f.Folder
		if folder.Children == nil {
			folder.Children = []string{}
		}
		return listEntry{list: &folder}, nil
	case models.KindSpecial:
		var s specialJSON
		if err := strictUnmarshal(raw, &s); err != nil {
			return listEntry{}, err
		}
		if s.Name != models.SpecialRoot {
			return listEntry{}, fmt.Errorf("unknown special tracklist %q", s.Name)
		}
		special := s.Special
		if special.Children == nil {
			special.Children = []string{}
		}
		return listEntry{list: &special}, nil
	default:
		return listEntry{}, fmt.Errorf("unknown tracklist type %q", tag.Type)
	}
}

// versionTag accepts both the legacy numeric version and the string form
type versionTag string

func (v *versionTag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = versionTag(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("version must be a string or a number: %w", err)
	}
	i, err := strconv.ParseUint(n.String(), 10, 8)
	if err != nil || (i != 1 && i != 2) {
		return fmt.Errorf("unsupported numeric version %s", n)
	}
	*v = versionTag(strconv.FormatUint(i, 10))
	return nil
}

// decodeObject walks a JSON object member by member, keeping key order and
// rejecting duplicate keys and unknown fields
func decodeObject(data []byte, member func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected an object, got %v", tok)
	}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
		if err := member(key, dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
