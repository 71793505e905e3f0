package page

import (
	"time"

	"github.com/sirupsen/logrus"

	"legato/internal/filter"
	"legato/internal/library"
	"legato/internal/sorting"
	"legato/pkg/models"
)

// Options is what the front end is showing: a tracklist, its sort order
// and the filter query
type Options struct {
	PlaylistID       string `json:"playlistId"`
	SortKey          string `json:"sortKey"`
	SortDesc         bool   `json:"sortDesc"`
	FilterQuery      string `json:"filterQuery"`
	GroupAlbumTracks bool   `json:"groupAlbumTracks"`
}

// inStoredOrder reports whether rows appear exactly as the playlist stores
// them, which rearranging and removing rows relies on
func (o Options) inStoredOrder() bool {
	return o.SortKey == sorting.IndexKey && o.SortDesc && !o.filtered()
}

func (o Options) filtered() bool {
	return filter.Compile(o.FilterQuery).Active()
}

// Page is the resolved, sorted and filtered content of a tracklist
type Page struct {
	ID          string      `json:"id"`
	Kind        models.Kind `json:"kind"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	// Number of rows before filtering
	UnfilteredLength int             `json:"unfilteredLength"`
	FilterActive     bool            `json:"filterActive"`
	Entries          []library.Entry `json:"entries"`
}

// TrackIDs returns the track ID of every row
func (p Page) TrackIDs() []string {
	ids := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.TrackID
	}
	return ids
}

// GetPage resolves, sorts and filters a tracklist
func (s *Service) GetPage(opts Options) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Now()
	list, err := s.lib.TrackList(opts.PlaylistID)
	if err != nil {
		return Page{}, err
	}
	entries, err := s.lib.Resolve(opts.PlaylistID)
	if err != nil {
		return Page{}, err
	}
	resolveTime := time.Since(start)

	start = time.Now()
	sorted, err := sorting.Sort(s.lib, entries, sorting.Options{
		Key:              opts.SortKey,
		Desc:             opts.SortDesc,
		GroupAlbumTracks: opts.GroupAlbumTracks,
	})
	if err != nil {
		return Page{}, err
	}
	sortTime := time.Since(start)

	start = time.Now()
	filtered, active, err := filter.Filter(s.lib, sorted, opts.FilterQuery)
	if err != nil {
		return Page{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"playlistId":  opts.PlaylistID,
		"sortKey":     opts.SortKey,
		"rows":        len(filtered),
		"resolveTime": resolveTime,
		"sortTime":    sortTime,
		"filterTime":  time.Since(start),
	}).Debug("Page assembled")

	var description *string
	if d := models.Description(list); d != nil {
		description = models.Ptr(*d)
	}
	return Page{
		ID:               list.ListID(),
		Kind:             list.Kind(),
		Name:             list.DisplayName(),
		Description:      description,
		UnfilteredLength: len(sorted),
		FilterActive:     active,
		Entries:          filtered,
	}, nil
}
