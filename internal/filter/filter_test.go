package filter

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"legato/internal/library"
	"legato/pkg/models"
)

func newLibrary(t *testing.T, tracks ...*models.Track) (*library.Library, []library.Entry) {
	t.Helper()
	lib := library.New()
	for _, track := range tracks {
		id, err := lib.GenerateID()
		if err != nil {
			t.Fatalf("Failed to generate id: %v", err)
		}
		if err := lib.InsertTrack(id, track); err != nil {
			t.Fatalf("Failed to insert track: %v", err)
		}
	}
	entries, err := lib.Resolve(models.RootID)
	if err != nil {
		t.Fatalf("Failed to resolve root: %v", err)
	}
	return lib, entries
}

func names(lib *library.Library, entries []library.Entry) []string {
	var out []string
	for _, e := range entries {
		track, _ := lib.Track(e.TrackID)
		out = append(out, track.Name)
	}
	return out
}

func TestFilter(t *testing.T) {
	lib, entries := newLibrary(t,
		&models.Track{Name: "Café", Artist: "Foo"},
		&models.Track{Name: "Bar", Artist: "Foo", Genre: models.Ptr("Jazz")},
		&models.Track{Name: "Baz", Artist: "Qux", AlbumName: models.Ptr("Foo Bar")},
		&models.Track{Name: "Other", Artist: "Nobody", Comments: models.Ptr("bar none")},
	)

	tests := []struct {
		query string
		want  []string
	}{
		{"cafe", []string{"Café"}},
		{"foo bar", []string{"Bar", "Baz"}},
		{"jazz", []string{"Bar"}},
		{"none", []string{"Other"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, active, err := Filter(lib, entries, tt.query)
			if err != nil {
				t.Fatalf("Failed to filter: %v", err)
			}
			if !active {
				t.Error("Expected the filter to be active")
			}
			if !slices.Equal(names(lib, got), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, names(lib, got))
			}
		})
	}
}

func TestFilterEmptyQuery(t *testing.T) {
	lib, entries := newLibrary(t, &models.Track{Name: "a"}, &models.Track{Name: "b"})
	got, active, err := Filter(lib, entries, "")
	if err != nil {
		t.Fatalf("Failed to filter: %v", err)
	}
	if active {
		t.Error("Expected the empty query to be inactive")
	}
	if !slices.Equal(got, entries) {
		t.Errorf("Expected entries unchanged, got %v", got)
	}
}

func TestFilterParallel(t *testing.T) {
	var tracks []*models.Track
	for i := 0; i < parallelThreshold*3+17; i++ {
		name := fmt.Sprintf("Track %d", i)
		if i%7 == 0 {
			name = fmt.Sprintf("Séven %d", i)
		}
		tracks = append(tracks, &models.Track{Name: name})
	}
	lib, entries := newLibrary(t, tracks...)

	got, _, err := Filter(lib, entries, "seven")
	if err != nil {
		t.Fatalf("Failed to filter: %v", err)
	}
	want := (len(tracks) + 6) / 7
	if len(got) != want {
		t.Errorf("Expected %d matches, got %d", want, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].ItemID >= got[i].ItemID {
			t.Fatalf("Expected input order to be kept at %d", i)
		}
	}
}

func TestFilterMissingTrack(t *testing.T) {
	lib, entries := newLibrary(t, &models.Track{Name: "a"})
	if _, err := lib.RemoveTrack(entries[0].TrackID); err != nil {
		t.Fatalf("Failed to remove track: %v", err)
	}
	if _, _, err := Filter(lib, entries, "a"); !errors.Is(err, library.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}
