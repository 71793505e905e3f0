package library

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"legato/pkg/models"
)

const libraryV1 = `{
	"version": 1,
	"tracks": {
		"zzzzzz1": {
			"size": 1000,
			"duration": 200.5,
			"bitrate": 320000,
			"sampleRate": 44100,
			"file": "Artist - One.mp3",
			"dateModified": 1,
			"dateAdded": 1,
			"name": "One",
			"artist": "Artist",
			"rating": 80,
			"plays": [5, 6],
			"playCount": 2
		},
		"aaaaaa2": {
			"size": 2000,
			"duration": 100,
			"bitrate": 128000,
			"sampleRate": 48000,
			"file": "Artist - Two.flac",
			"dateModified": 2,
			"dateAdded": 2,
			"name": "Two",
			"artist": "Artist"
		}
	},
	"trackLists": {
		"root": {"type": "special", "id": "root", "name": "Root", "dateCreated": 0, "children": ["pppppp1", "ffffff1"]},
		"pppppp1": {"type": "playlist", "id": "pppppp1", "name": "Mix", "tracks": ["aaaaaa2", "zzzzzz1", "aaaaaa2"]},
		"ffffff1": {"type": "folder", "id": "ffffff1", "name": "Empty", "children": []}
	},
	"playTime": [["zzzzzz1", 1000, 2000]]
}`

func TestDecodeV1(t *testing.T) {
	l, err := Decode([]byte(libraryV1))
	if err != nil {
		t.Fatalf("Failed to decode v1 library: %v", err)
	}
	if l.SourceVersion() != "1" {
		t.Errorf("Expected source version 1, got %q", l.SourceVersion())
	}
	if !slices.Equal(l.TrackIDs(), []string{"zzzzzz1", "aaaaaa2"}) {
		t.Errorf("Expected file order to be kept, got %v", l.TrackIDs())
	}
	ids, err := l.ResolveTrackIDs("pppppp1")
	if err != nil {
		t.Fatalf("Failed to resolve playlist: %v", err)
	}
	if !slices.Equal(ids, []string{"aaaaaa2", "zzzzzz1", "aaaaaa2"}) {
		t.Errorf("Unexpected playlist tracks: %v", ids)
	}
	if len(l.PlayTime()) != 0 {
		t.Errorf("Expected a fresh play time log, got %v", l.PlayTime())
	}
	want := []models.PlayTime{{TrackID: "zzzzzz1", Start: 1000, DurationMs: 2000}}
	if !slices.Equal(l.LegacyPlayTime(), want) {
		t.Errorf("Expected legacy play time %v, got %v", want, l.LegacyPlayTime())
	}
}

func TestUpgrade(t *testing.T) {
	out, upgraded, err := Upgrade([]byte(libraryV1))
	if err != nil {
		t.Fatalf("Failed to upgrade: %v", err)
	}
	if !upgraded {
		t.Error("Expected v1 data to be upgraded")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("Upgraded data is not JSON: %v", err)
	}
	if string(doc["version"]) != `"2"` {
		t.Errorf("Expected version \"2\", got %s", doc["version"])
	}
	if string(doc["playTime"]) != "[]" {
		t.Errorf("Expected empty playTime, got %s", doc["playTime"])
	}
	if _, ok := doc["playTimeV1"]; !ok {
		t.Error("Expected playTimeV1 in upgraded data")
	}
	if strings.Index(string(out), `"zzzzzz1"`) > strings.Index(string(out), `"aaaaaa2"`) {
		t.Error("Track order not kept by the upgrade")
	}

	again, upgraded, err := Upgrade(out)
	if err != nil {
		t.Fatalf("Failed to upgrade current data: %v", err)
	}
	if upgraded || string(again) != string(out) {
		t.Error("Expected upgrading current data to be a no-op")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	l := New()
	a := addTrack(t, l, "a")
	b := addTrack(t, l, "b")
	track, _ := l.Track(a)
	track.Rating = models.Ptr[uint8](60)
	track.Liked = models.Ptr(true)
	folder := addFolder(t, l, models.RootID, "F")
	p := addPlaylist(t, l, folder.ID, "P", b, a, b)
	if err := l.AddPlayTime(a, 10, 20); err != nil {
		t.Fatalf("Failed to add play time: %v", err)
	}

	data, err := Encode(l)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded.SourceVersion() != CurrentVersion {
		t.Errorf("Expected version %s, got %s", CurrentVersion, decoded.SourceVersion())
	}
	if !slices.Equal(decoded.TrackIDs(), l.TrackIDs()) {
		t.Errorf("Track order changed: %v vs %v", decoded.TrackIDs(), l.TrackIDs())
	}
	if !slices.Equal(decoded.TrackListIDs(), l.TrackListIDs()) {
		t.Errorf("Tracklist order changed: %v vs %v", decoded.TrackListIDs(), l.TrackListIDs())
	}
	ids, _ := decoded.ResolveTrackIDs(p.ID)
	if !slices.Equal(ids, []string{b, a, b}) {
		t.Errorf("Unexpected playlist tracks: %v", ids)
	}
	got, _ := decoded.Track(a)
	if got.Rating == nil || *got.Rating != 60 || got.Liked == nil || !*got.Liked {
		t.Errorf("Optional fields lost: %+v", got)
	}
	if len(decoded.PlayTime()) != 1 {
		t.Errorf("Expected 1 play time entry, got %v", decoded.PlayTime())
	}

	again, err := Encode(decoded)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if string(again) != string(data) {
		t.Error("Expected encoding to be stable")
	}
}

func TestDecodeRejects(t *testing.T) {
	root := `"root": {"type": "special", "id": "root", "name": "Root", "dateCreated": 0, "children": []}`
	tests := []struct {
		name string
		data string
		want error
	}{
		{
			name: "UnknownVersion",
			data: `{"version": "3", "tracks": {}, "trackLists": {` + root + `}, "playTime": []}`,
			want: ErrSchema,
		},
		{
			name: "MissingVersion",
			data: `{"tracks": {}, "trackLists": {` + root + `}, "playTime": []}`,
			want: ErrSchema,
		},
		{
			name: "UnknownField",
			data: `{"version": "2", "tracks": {}, "trackLists": {` + root + `}, "playTime": [], "extra": 1}`,
			want: ErrSchema,
		},
		{
			name: "UnknownTrackField",
			data: `{"version": "2", "tracks": {"t": {"name": "x", "mood": "happy"}}, "trackLists": {` + root + `}, "playTime": []}`,
			want: ErrSchema,
		},
		{
			name: "DuplicateTrack",
			data: `{"version": "2", "tracks": {"t": {"name": "x"}, "t": {"name": "y"}}, "trackLists": {` + root + `}, "playTime": []}`,
			want: ErrSchema,
		},
		{
			name: "UnknownTrackListType",
			data: `{"version": "2", "tracks": {}, "trackLists": {` + root + `, "x": {"type": "smart", "id": "x", "name": "x"}}, "playTime": []}`,
			want: ErrSchema,
		},
		{
			name: "MismatchedListID",
			data: `{"version": "2", "tracks": {}, "trackLists": {` + root + `, "x": {"type": "folder", "id": "y", "name": "x", "children": []}}, "playTime": []}`,
			want: ErrSchema,
		},
		{
			name: "MissingRoot",
			data: `{"version": "2", "tracks": {}, "trackLists": {}, "playTime": []}`,
			want: ErrInvariant,
		},
		{
			name: "PlaylistWithMissingTrack",
			data: `{"version": "2", "tracks": {}, "trackLists": {"root": {"type": "special", "id": "root", "name": "Root", "dateCreated": 0, "children": ["p"]}, "p": {"type": "playlist", "id": "p", "name": "P", "tracks": ["gone"]}}, "playTime": []}`,
			want: ErrInvariant,
		},
		{
			name: "OrphanTrackList",
			data: `{"version": "2", "tracks": {}, "trackLists": {` + root + `, "f": {"type": "folder", "id": "f", "name": "F", "children": []}}, "playTime": []}`,
			want: ErrInvariant,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}
