package library

import (
	"encoding/json"
	"fmt"

	"legato/pkg/models"
)

// CurrentVersion is the version written by Encode
const CurrentVersion = "2"

// documentV1 is the first library format. Its play time log double counts
// some listening sessions.
type documentV1 struct {
	Version    versionTag        `json:"version"`
	Tracks     wireTracks        `json:"tracks"`
	TrackLists wireTrackLists    `json:"trackLists"`
	PlayTime   []models.PlayTime `json:"playTime"`
}

// documentV2 is the current library format
type documentV2 struct {
	Version    versionTag        `json:"version"`
	Tracks     wireTracks        `json:"tracks"`
	TrackLists wireTrackLists    `json:"trackLists"`
	PlayTime   []models.PlayTime `json:"playTime"`
	PlayTimeV1 []models.PlayTime `json:"playTimeV1,omitempty"`
}

// upgrade moves the v1 play time log aside and starts a fresh one
func (d *documentV1) upgrade() *documentV2 {
	legacy := d.PlayTime
	if len(legacy) == 0 {
		legacy = nil
	}
	return &documentV2{
		Version:    "2",
		Tracks:     d.Tracks,
		TrackLists: d.TrackLists,
		PlayTime:   []models.PlayTime{},
		PlayTimeV1: legacy,
	}
}

// decodeDocument parses any supported version and upgrades it to the
// current one. It returns the version found in the data.
func decodeDocument(data []byte) (*documentV2, string, error) {
	var head struct {
		Version *versionTag `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if head.Version == nil {
		return nil, "", fmt.Errorf("%w: missing version", ErrSchema)
	}

	version := string(*head.Version)
	switch version {
	case "1":
		var doc documentV1
		if err := strictUnmarshal(data, &doc); err != nil {
			return nil, version, fmt.Errorf("%w: version 1: %w", ErrSchema, err)
		}
		return doc.upgrade(), version, nil
	case "2":
		var doc documentV2
		if err := strictUnmarshal(data, &doc); err != nil {
			return nil, version, fmt.Errorf("%w: version 2: %w", ErrSchema, err)
		}
		if doc.PlayTime == nil {
			doc.PlayTime = []models.PlayTime{}
		}
		return &doc, version, nil
	default:
		return nil, version, fmt.Errorf("%w: unsupported version %q", ErrSchema, version)
	}
}

// Decode parses a library file of any supported version, upgrades it and
// checks its structure
func Decode(data []byte) (*Library, error) {
	doc, version, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	l, err := fromDocument(doc)
	if err != nil {
		return nil, err
	}
	l.sourceVersion = version
	return l, nil
}

// Encode serializes the library in the current format, indented with tabs
func Encode(l *Library) ([]byte, error) {
	data, err := json.MarshalIndent(l.toDocument(), "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode library: %w", err)
	}
	return data, nil
}

// Upgrade rewrites a library file of any supported version in the current
// format. upgraded is false when the data was already current.
func Upgrade(data []byte) (out []byte, upgraded bool, err error) {
	l, err := Decode(data)
	if err != nil {
		return nil, false, err
	}
	if l.sourceVersion == CurrentVersion {
		return data, false, nil
	}
	out, err = Encode(l)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// SourceVersion returns the version the library was decoded from, or ""
// for a library created in memory
func (l *Library) SourceVersion() string {
	return l.sourceVersion
}

func fromDocument(doc *documentV2) (*Library, error) {
	l := newEmpty()
	for _, e := range doc.Tracks {
		if err := l.InsertTrack(e.id, e.track); err != nil {
			return nil, err
		}
	}
	for _, e := range doc.TrackLists {
		if l.trackLists.Has(e.id) || l.tracks.Has(e.id) {
			return nil, invariantf("id %s is already in use", e.id)
		}
		if playlist, ok := e.list.(*models.Playlist); ok {
			for _, id := range e.trackIDs {
				if !l.tracks.Has(id) {
					return nil, invariantf("playlist %s lists missing track %s", e.id, id)
				}
			}
			playlist.Tracks = l.items.RegisterAll(e.trackIDs)
		}
		l.trackLists.Set(e.id, e.list)
	}
	l.playTime = doc.PlayTime
	l.playTimeV1 = doc.PlayTimeV1
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Library) toDocument() *documentV2 {
	doc := &documentV2{
		Version:    CurrentVersion,
		Tracks:     make(wireTracks, 0, l.tracks.Len()),
		TrackLists: make(wireTrackLists, 0, l.trackLists.Len()),
		PlayTime:   l.playTime,
		PlayTimeV1: l.playTimeV1,
	}
	if doc.PlayTime == nil {
		doc.PlayTime = []models.PlayTime{}
	}
	for _, id := range l.tracks.Keys() {
		track, _ := l.tracks.Get(id)
		doc.Tracks = append(doc.Tracks, trackEntry{id: id, track: track})
	}
	for _, id := range l.trackLists.Keys() {
		list, _ := l.trackLists.Get(id)
		entry := listEntry{id: id, list: list}
		if playlist, ok := list.(*models.Playlist); ok {
			entry.trackIDs = make([]string, 0, len(playlist.Tracks))
			for _, item := range playlist.Tracks {
				id, _ := l.items.Resolve(item)
				entry.trackIDs = append(entry.trackIDs, id)
			}
		}
		doc.TrackLists = append(doc.TrackLists, entry)
	}
	return doc
}
