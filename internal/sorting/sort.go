package sorting

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"legato/internal/library"
	"legato/pkg/models"
)

// groupableKeys are the sort keys that may keep album tracks together
var groupableKeys = map[string]bool{
	"dateAdded": true,
	"albumName": true,
	"comments":  true,
	"genre":     true,
	"year":      true,
	"artist":    true,
}

// CanGroupAlbumTracks reports whether album grouping applies to key
func CanGroupAlbumTracks(key string) bool {
	return groupableKeys[key]
}

// Options selects the order of a sorted tracklist
type Options struct {
	Key              string
	Desc             bool
	GroupAlbumTracks bool
}

// SortTrackList resolves a tracklist and sorts it
func SortTrackList(lib *library.Library, id string, opts Options) ([]library.Entry, error) {
	entries, err := lib.Resolve(id)
	if err != nil {
		return nil, err
	}
	return Sort(lib, entries, opts)
}

// Sort returns entries ordered by opts. The input is not modified.
//
// Sorting is stable and ascending, then reversed for descending order.
// Tracks with an empty string field sort after all others before the
// reversal, so they lead a descending list.
// The "index" key keeps the resolved order, which counts as descending.
func Sort(lib *library.Library, entries []library.Entry, opts Options) ([]library.Entry, error) {
	sorted := slices.Clone(entries)
	if opts.Key == IndexKey {
		if !opts.Desc {
			slices.Reverse(sorted)
		}
		return sorted, nil
	}

	field, err := Lookup(opts.Key)
	if err != nil {
		return nil, err
	}

	tracks := make(map[string]*models.Track, len(sorted))
	for _, e := range sorted {
		if _, ok := tracks[e.TrackID]; ok {
			continue
		}
		track, err := lib.Track(e.TrackID)
		if err != nil {
			return nil, err
		}
		if field.Kind == Float {
			if v := field.Float(track); math.IsNaN(v) {
				return nil, fmt.Errorf("%w: track %s has %s NaN", library.ErrInvariant, e.TrackID, field.Name)
			}
		}
		tracks[e.TrackID] = track
	}

	slices.SortStableFunc(sorted, func(a, b library.Entry) int {
		return field.compare(tracks[a.TrackID], tracks[b.TrackID])
	})

	if opts.Desc {
		slices.Reverse(sorted)
	}

	if opts.GroupAlbumTracks && CanGroupAlbumTracks(opts.Key) {
		groupAlbumTracks(sorted, tracks)
	}
	return sorted, nil
}

// groupAlbumTracks orders each run of adjacent tracks from the same album by
// disc and track number. Run boundaries do not move.
func groupAlbumTracks(entries []library.Entry, tracks map[string]*models.Track) {
	for start := 0; start < len(entries); {
		album, artist := albumKey(tracks[entries[start].TrackID])
		end := start + 1
		if album != "" && artist != "" {
			for end < len(entries) {
				a, b := albumKey(tracks[entries[end].TrackID])
				if a != album || b != artist {
					break
				}
				end++
			}
			slices.SortStableFunc(entries[start:end], func(x, y library.Entry) int {
				return compareAlbumPosition(tracks[x.TrackID], tracks[y.TrackID])
			})
		}
		start = end
	}
}

func albumKey(t *models.Track) (string, string) {
	return models.Str(t.AlbumName), models.Str(t.AlbumArtist)
}

func compareAlbumPosition(a, b *models.Track) int {
	if c := compareUint(a.DiscNum, b.DiscNum); c != 0 {
		return c
	}
	return compareUint(a.TrackNum, b.TrackNum)
}

func compareUint(a, b *uint32) int {
	return cmp.Compare(deref(a), deref(b))
}
