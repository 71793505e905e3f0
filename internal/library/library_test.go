package library

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"legato/pkg/models"
)

func addTrack(t *testing.T, l *Library, name string) string {
	t.Helper()
	id, err := l.GenerateID()
	if err != nil {
		t.Fatalf("Failed to generate id: %v", err)
	}
	track := &models.Track{Name: name, Artist: "Artist", File: name + ".mp3", Duration: 180}
	if err := l.InsertTrack(id, track); err != nil {
		t.Fatalf("Failed to insert track: %v", err)
	}
	return id
}

func addPlaylist(t *testing.T, l *Library, parentID, name string, trackIDs ...string) *models.Playlist {
	t.Helper()
	p, err := l.NewPlaylist(name, nil)
	if err != nil {
		t.Fatalf("Failed to create playlist: %v", err)
	}
	if err := l.AttachTrackList(parentID, p); err != nil {
		t.Fatalf("Failed to attach playlist: %v", err)
	}
	if len(trackIDs) > 0 {
		if _, err := l.AddTracks(p.ID, trackIDs); err != nil {
			t.Fatalf("Failed to add tracks: %v", err)
		}
	}
	return p
}

func addFolder(t *testing.T, l *Library, parentID, name string) *models.Folder {
	t.Helper()
	f, err := l.NewFolder(name, nil)
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	if err := l.AttachTrackList(parentID, f); err != nil {
		t.Fatalf("Failed to attach folder: %v", err)
	}
	return f
}

func TestGenerateID(t *testing.T) {
	l := New()
	seen := map[string]bool{models.RootID: true}
	for i := 0; i < 500; i++ {
		id := addTrack(t, l, "t")
		if seen[id] {
			t.Fatalf("Generated duplicate id %s", id)
		}
		seen[id] = true
		if len(id) != idLength {
			t.Errorf("Expected id length %d, got %q", idLength, id)
		}
		for _, c := range id {
			if !strings.ContainsRune(idAlphabet, c) {
				t.Errorf("Id %q contains %q outside the alphabet", id, c)
			}
		}
	}
}

func TestItemTable(t *testing.T) {
	table := NewItemTable()
	a := table.Register("a")
	b := table.Register("b")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("Expected distinct non-zero items, got %d and %d", a, b)
	}
	if id, err := table.Resolve(b); err != nil || id != "b" {
		t.Errorf("Expected b, got %q (%v)", id, err)
	}
	if _, err := table.Resolve(0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found for item 0, got %v", err)
	}
	if _, err := table.Resolve(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found for item 99, got %v", err)
	}
}

func TestStaleItemIsNotFound(t *testing.T) {
	l := New()
	id := addTrack(t, l, "gone")
	item, err := l.TrackItem(id)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if _, err := l.RemoveTrack(id); err != nil {
		t.Fatalf("Failed to remove track: %v", err)
	}
	if _, err := l.ItemTrackID(item); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestTrackLookup(t *testing.T) {
	l := New()
	id := addTrack(t, l, "one")

	if _, err := l.Track(id); err != nil {
		t.Errorf("Expected track, got %v", err)
	}
	_, err := l.Track("missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "missing" {
		t.Errorf("Expected NotFoundError for missing, got %v", err)
	}
	if _, err := l.TrackList("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected tracklist not found, got %v", err)
	}
	if err := l.InsertTrack(id, &models.Track{}); !errors.Is(err, ErrInvariant) {
		t.Errorf("Expected duplicate insert to fail, got %v", err)
	}

	other := addTrack(t, l, "two")
	if err := l.UpdateTrack(id, &models.Track{Name: "renamed"}); err != nil {
		t.Fatalf("Failed to update track: %v", err)
	}
	if track, _ := l.Track(id); track.Name != "renamed" {
		t.Errorf("Expected renamed track, got %q", track.Name)
	}
	if ids := l.TrackIDs(); len(ids) != 2 || ids[0] != id || ids[1] != other {
		t.Errorf("Expected order to be kept, got %v", ids)
	}
	if err := l.UpdateTrack("missing", &models.Track{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestParentID(t *testing.T) {
	l := New()
	folder := addFolder(t, l, models.RootID, "Folder")
	playlist := addPlaylist(t, l, folder.ID, "Inner")

	if parent, ok := l.ParentID(playlist.ID); !ok || parent != folder.ID {
		t.Errorf("Expected parent %s, got %q", folder.ID, parent)
	}
	if parent, ok := l.ParentID(folder.ID); !ok || parent != models.RootID {
		t.Errorf("Expected root parent, got %q", parent)
	}
	if _, ok := l.ParentID(models.RootID); ok {
		t.Error("Expected root to have no parent")
	}
}

func TestAddTracksRejectsNonPlaylist(t *testing.T) {
	l := New()
	id := addTrack(t, l, "x")
	folder := addFolder(t, l, models.RootID, "F")

	tests := []struct {
		name   string
		listID string
		want   error
	}{
		{"Folder", folder.ID, ErrPrecondition},
		{"Root", models.RootID, ErrPrecondition},
		{"Missing", "nope", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.AddTracks(tt.listID, []string{id}); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRemoveItemsOnlyAffectsOnePlaylist(t *testing.T) {
	l := New()
	id := addTrack(t, l, "shared")
	a := addPlaylist(t, l, models.RootID, "A", id, id)
	b := addPlaylist(t, l, models.RootID, "B", id)

	if err := l.RemoveItems(a.ID, a.Tracks[:1]); err != nil {
		t.Fatalf("Failed to remove items: %v", err)
	}
	if len(a.Tracks) != 1 {
		t.Errorf("Expected 1 item left in A, got %d", len(a.Tracks))
	}
	if len(b.Tracks) != 1 {
		t.Errorf("Expected B untouched, got %d items", len(b.Tracks))
	}
}

func TestRemoveFromAllPlaylists(t *testing.T) {
	l := New()
	keep := addTrack(t, l, "keep")
	drop := addTrack(t, l, "drop")
	a := addPlaylist(t, l, models.RootID, "A", drop, keep, drop)
	b := addPlaylist(t, l, models.RootID, "B", drop)

	l.RemoveFromAllPlaylists(drop)

	if len(a.Tracks) != 1 || len(b.Tracks) != 0 {
		t.Errorf("Expected only keep to remain, got %v and %v", a.Tracks, b.Tracks)
	}
}

func TestFilterDuplicates(t *testing.T) {
	l := New()
	x := addTrack(t, l, "x")
	y := addTrack(t, l, "y")
	z := addTrack(t, l, "z")
	p := addPlaylist(t, l, models.RootID, "P", y)

	fresh, err := l.FilterDuplicates(p.ID, []string{z, y, x, z})
	if err != nil {
		t.Fatalf("Failed to filter duplicates: %v", err)
	}
	if !slices.Equal(fresh, []string{z, x}) {
		t.Errorf("Expected [%s %s], got %v", z, x, fresh)
	}
}

func TestMoveItems(t *testing.T) {
	l := New()
	var ids []string
	for _, name := range []string{"0", "1", "2", "3", "4"} {
		ids = append(ids, addTrack(t, l, name))
	}
	p := addPlaylist(t, l, models.RootID, "P", ids...)
	items := slices.Clone(p.Tracks)

	if err := l.MoveItems(p.ID, []models.ItemID{items[2], items[4]}, 1); err != nil {
		t.Fatalf("Failed to move items: %v", err)
	}
	want := []models.ItemID{items[0], items[2], items[4], items[1], items[3]}
	if !slices.Equal(p.Tracks, want) {
		t.Errorf("Expected %v, got %v", want, p.Tracks)
	}

	t.Run("DuplicateItems", func(t *testing.T) {
		before := slices.Clone(p.Tracks)
		err := l.MoveItems(p.ID, []models.ItemID{items[0], items[0]}, 0)
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("Expected precondition error, got %v", err)
		}
		if !slices.Equal(p.Tracks, before) {
			t.Error("Playlist changed after a rejected move")
		}
	})

	t.Run("UnknownItem", func(t *testing.T) {
		if err := l.MoveItems(p.ID, []models.ItemID{9999}, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		if err := l.MoveItems(p.ID, []models.ItemID{items[0]}, 5); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})

	t.Run("ToEnd", func(t *testing.T) {
		if err := l.MoveItems(p.ID, []models.ItemID{items[0]}, 4); err != nil {
			t.Fatalf("Failed to move items: %v", err)
		}
		if p.Tracks[4] != items[0] {
			t.Errorf("Expected item %d last, got %v", items[0], p.Tracks)
		}
	})
}

func TestEngagement(t *testing.T) {
	l := New()
	id := addTrack(t, l, "x")

	for _, ts := range []int64{10, 20} {
		if err := l.AddPlay(id, ts); err != nil {
			t.Fatalf("Failed to add play: %v", err)
		}
	}
	if err := l.AddSkip(id, 30); err != nil {
		t.Fatalf("Failed to add skip: %v", err)
	}
	track, _ := l.Track(id)
	if track.PlayCount == nil || *track.PlayCount != 2 || !slices.Equal(track.Plays, []int64{10, 20}) {
		t.Errorf("Unexpected plays: %v %v", track.PlayCount, track.Plays)
	}
	if track.SkipCount == nil || *track.SkipCount != 1 {
		t.Errorf("Unexpected skip count: %v", track.SkipCount)
	}

	if err := l.AddPlayTime(id, 1000, 5000); err != nil {
		t.Fatalf("Failed to add play time: %v", err)
	}
	if err := l.AddPlayTime("missing", 1000, 5000); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
	if got := l.PlayTime(); len(got) != 1 || got[0] != (models.PlayTime{TrackID: id, Start: 1000, DurationMs: 5000}) {
		t.Errorf("Unexpected play time log: %v", got)
	}
}

func TestArtistsAndGenres(t *testing.T) {
	l := New()
	for i, a := range []string{"Zed", "Abba", "Zed", ""} {
		id := addTrack(t, l, "t")
		track, _ := l.Track(id)
		track.Artist = a
		if i%2 == 0 {
			track.Genre = models.Ptr("Rock")
		}
	}
	if got := l.Artists(); !slices.Equal(got, []string{"Abba", "Zed"}) {
		t.Errorf("Unexpected artists: %v", got)
	}
	if got := l.Genres(); !slices.Equal(got, []string{"Rock"}) {
		t.Errorf("Unexpected genres: %v", got)
	}
}
