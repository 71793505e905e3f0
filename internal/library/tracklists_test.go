package library

import (
	"errors"
	"slices"
	"testing"

	"legato/pkg/models"
)

func TestDeleteTrackListCascade(t *testing.T) {
	l := New()
	top := addFolder(t, l, models.RootID, "Top")
	sub := addFolder(t, l, top.ID, "Sub")
	subsub := addFolder(t, l, sub.ID, "SubSub")
	p1 := addPlaylist(t, l, sub.ID, "P1")
	p2 := addPlaylist(t, l, subsub.ID, "P2")
	other := addPlaylist(t, l, models.RootID, "Other")

	deleted, err := l.DeleteTrackList(top.ID)
	if err != nil {
		t.Fatalf("Failed to delete folder: %v", err)
	}
	if len(deleted) != 5 {
		t.Errorf("Expected 5 deleted tracklists, got %v", deleted)
	}
	for _, id := range []string{top.ID, sub.ID, subsub.ID, p1.ID, p2.ID} {
		if _, err := l.TrackList(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected %s to be deleted, got %v", id, err)
		}
	}
	root, _ := l.Root()
	if !slices.Equal(root.Children, []string{other.ID}) {
		t.Errorf("Expected root children [%s], got %v", other.ID, root.Children)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Library invalid after delete: %v", err)
	}
}

func TestDeleteTrackListErrors(t *testing.T) {
	l := New()
	folder := addFolder(t, l, models.RootID, "F")
	p := addPlaylist(t, l, folder.ID, "P")

	t.Run("Root", func(t *testing.T) {
		if _, err := l.DeleteTrackList(models.RootID); !errors.Is(err, ErrPrecondition) {
			t.Errorf("Expected precondition error, got %v", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := l.DeleteTrackList("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})

	t.Run("DuplicateChild", func(t *testing.T) {
		folder.Children = append(folder.Children, p.ID)
		defer func() { folder.Children = folder.Children[:1] }()
		if _, err := l.DeleteTrackList(folder.ID); !errors.Is(err, ErrInvariant) {
			t.Errorf("Expected invariant error, got %v", err)
		}
		if _, err := l.TrackList(p.ID); err != nil {
			t.Error("Playlist removed by a failed delete")
		}
	})
}

func TestUpdateTrackList(t *testing.T) {
	l := New()
	p := addPlaylist(t, l, models.RootID, "Old")

	if err := l.UpdateTrackList(p.ID, "New", "About"); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if p.Name != "New" || models.Str(p.Description) != "About" {
		t.Errorf("Unexpected playlist after update: %+v", p)
	}
	if err := l.UpdateTrackList(p.ID, "New", ""); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if p.Description != nil {
		t.Error("Expected empty description to clear it")
	}
	if err := l.UpdateTrackList(models.RootID, "x", ""); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Expected precondition error, got %v", err)
	}
}

func TestMoveTrackList(t *testing.T) {
	l := New()
	a := addPlaylist(t, l, models.RootID, "A")
	b := addPlaylist(t, l, models.RootID, "B")
	c := addPlaylist(t, l, models.RootID, "C")
	folder := addFolder(t, l, models.RootID, "F")
	inner := addFolder(t, l, folder.ID, "Inner")
	root, _ := l.Root()

	t.Run("DownWithinParent", func(t *testing.T) {
		if err := l.MoveTrackList(a.ID, models.RootID, models.RootID, 3); err != nil {
			t.Fatalf("Failed to move: %v", err)
		}
		want := []string{b.ID, c.ID, a.ID, folder.ID}
		if !slices.Equal(root.Children, want) {
			t.Errorf("Expected %v, got %v", want, root.Children)
		}
	})

	t.Run("UpWithinParent", func(t *testing.T) {
		if err := l.MoveTrackList(a.ID, models.RootID, models.RootID, 0); err != nil {
			t.Fatalf("Failed to move: %v", err)
		}
		want := []string{a.ID, b.ID, c.ID, folder.ID}
		if !slices.Equal(root.Children, want) {
			t.Errorf("Expected %v, got %v", want, root.Children)
		}
	})

	t.Run("IntoFolder", func(t *testing.T) {
		if err := l.MoveTrackList(c.ID, models.RootID, inner.ID, 0); err != nil {
			t.Fatalf("Failed to move: %v", err)
		}
		if !slices.Equal(inner.Children, []string{c.ID}) {
			t.Errorf("Expected inner to hold %s, got %v", c.ID, inner.Children)
		}
		if slices.Contains(root.Children, c.ID) {
			t.Error("Playlist still listed in root")
		}
	})

	t.Run("IntoOwnChild", func(t *testing.T) {
		err := l.MoveTrackList(folder.ID, models.RootID, inner.ID, 0)
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("Expected precondition error, got %v", err)
		}
	})

	t.Run("IntoItself", func(t *testing.T) {
		err := l.MoveTrackList(folder.ID, models.RootID, folder.ID, 0)
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("Expected precondition error, got %v", err)
		}
	})

	t.Run("IntoPlaylist", func(t *testing.T) {
		err := l.MoveTrackList(b.ID, models.RootID, a.ID, 0)
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("Expected precondition error, got %v", err)
		}
	})

	t.Run("Root", func(t *testing.T) {
		err := l.MoveTrackList(models.RootID, models.RootID, folder.ID, 0)
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("Expected precondition error, got %v", err)
		}
	})

	if err := l.Validate(); err != nil {
		t.Errorf("Library invalid after moves: %v", err)
	}
}

func TestTrackListsDetails(t *testing.T) {
	l := New()
	folder := addFolder(t, l, models.RootID, "F")
	p := addPlaylist(t, l, folder.ID, "P")

	details := l.TrackListsDetails()
	if len(details) != 3 {
		t.Fatalf("Expected 3 tracklists, got %d", len(details))
	}
	if d := details[folder.ID]; d.Kind != models.KindFolder || !slices.Equal(d.Children, []string{p.ID}) {
		t.Errorf("Unexpected folder details: %+v", d)
	}
	if d := details[p.ID]; d.Kind != models.KindPlaylist || d.Children != nil || d.Name != "P" {
		t.Errorf("Unexpected playlist details: %+v", d)
	}
	if d := details[models.RootID]; d.Name != "Root" {
		t.Errorf("Unexpected root details: %+v", d)
	}
}
