// Package filter narrows a tracklist down to the tracks matching a search
// query. Matching ignores case, accents, fullwidth forms and punctuation.
package filter

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"legato/internal/library"
	"legato/pkg/models"
)

// parallelThreshold is the smallest input filtered across goroutines. It is
// also the chunk size.
const parallelThreshold = 2000

// searchable returns the fields a query is matched against
func searchable(t *models.Track) []string {
	return []string{t.Name, t.Artist, models.Str(t.AlbumName), models.Str(t.Comments), models.Str(t.Genre)}
}

// Filter returns the entries whose tracks match query, keeping their order.
// The empty query returns entries unchanged with active set to false.
//
// The library must not be modified until Filter returns.
func Filter(lib *library.Library, entries []library.Entry, query string) (result []library.Entry, active bool, err error) {
	q := Compile(query)
	if !q.Active() {
		return entries, false, nil
	}

	keep := make([]bool, len(entries))
	check := func(from, to int) error {
		for i := from; i < to; i++ {
			track, err := lib.Track(entries[i].TrackID)
			if err != nil {
				return err
			}
			keep[i] = q.Match(searchable(track)...)
		}
		return nil
	}

	if len(entries) < parallelThreshold {
		if err := check(0, len(entries)); err != nil {
			return nil, true, err
		}
	} else {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for from := 0; from < len(entries); from += parallelThreshold {
			from, to := from, min(from+parallelThreshold, len(entries))
			g.Go(func() error { return check(from, to) })
		}
		if err := g.Wait(); err != nil {
			return nil, true, err
		}
	}

	result = make([]library.Entry, 0, len(entries))
	for i, e := range entries {
		if keep[i] {
			result = append(result, e)
		}
	}
	return result, true, nil
}
