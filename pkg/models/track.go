package models

import (
	"encoding/json"
	"fmt"
)

// Track represents a music track in the library. Required fields use zero
// values; user editable fields are pointers and are omitted when unset.
type Track struct {
	Size         int64   `json:"size"`
	Duration     float64 `json:"duration"` // in seconds
	Bitrate      float64 `json:"bitrate"`
	SampleRate   float64 `json:"sampleRate"`
	File         string  `json:"file"` // relative to the tracks directory
	DateModified int64   `json:"dateModified"`
	DateAdded    int64   `json:"dateAdded"`
	Name         string  `json:"name"`
	ImportedFrom *string `json:"importedFrom,omitempty"`
	// Imported ID, like an iTunes persistent ID
	OriginalID      *string       `json:"originalId,omitempty"`
	Artist          string        `json:"artist"`
	Composer        *string       `json:"composer,omitempty"`
	SortName        *string       `json:"sortName,omitempty"`
	SortArtist      *string       `json:"sortArtist,omitempty"`
	SortComposer    *string       `json:"sortComposer,omitempty"`
	Genre           *string       `json:"genre,omitempty"`
	Rating          *uint8        `json:"rating,omitempty"` // 0-100
	Year            *int64        `json:"year,omitempty"`
	BPM             *float64      `json:"bpm,omitempty"`
	Comments        *string       `json:"comments,omitempty"`
	Grouping        *string       `json:"grouping,omitempty"`
	Liked           *bool         `json:"liked,omitempty"`
	Disliked        *bool         `json:"disliked,omitempty"`
	Disabled        *bool         `json:"disabled,omitempty"`
	Compilation     *bool         `json:"compilation,omitempty"`
	AlbumName       *string       `json:"albumName,omitempty"`
	AlbumArtist     *string       `json:"albumArtist,omitempty"`
	SortAlbumName   *string       `json:"sortAlbumName,omitempty"`
	SortAlbumArtist *string       `json:"sortAlbumArtist,omitempty"`
	TrackNum        *uint32       `json:"trackNum,omitempty"`
	TrackCount      *uint32       `json:"trackCount,omitempty"`
	DiscNum         *uint32       `json:"discNum,omitempty"`
	DiscCount       *uint32       `json:"discCount,omitempty"`
	DateImported    *int64        `json:"dateImported,omitempty"`
	PlayCount       *uint32       `json:"playCount,omitempty"`
	Plays           []int64       `json:"plays,omitempty"`
	PlaysImported   []CountObject `json:"playsImported,omitempty"`
	SkipCount       *uint32       `json:"skipCount,omitempty"`
	Skips           []int64       `json:"skips,omitempty"`
	SkipsImported   []CountObject `json:"skipsImported,omitempty"`
	Volume          *int8         `json:"volume,omitempty"` // -100 to 100
}

// CountObject is an aggregate count imported from another library
type CountObject struct {
	Count    int64 `json:"count"`
	FromDate int64 `json:"fromDate"`
	ToDate   int64 `json:"toDate"`
}

// Clone returns a deep copy of the track
func (t *Track) Clone() *Track {
	c := *t
	c.ImportedFrom = clonePtr(t.ImportedFrom)
	c.OriginalID = clonePtr(t.OriginalID)
	c.Composer = clonePtr(t.Composer)
	c.SortName = clonePtr(t.SortName)
	c.SortArtist = clonePtr(t.SortArtist)
	c.SortComposer = clonePtr(t.SortComposer)
	c.Genre = clonePtr(t.Genre)
	c.Rating = clonePtr(t.Rating)
	c.Year = clonePtr(t.Year)
	c.BPM = clonePtr(t.BPM)
	c.Comments = clonePtr(t.Comments)
	c.Grouping = clonePtr(t.Grouping)
	c.Liked = clonePtr(t.Liked)
	c.Disliked = clonePtr(t.Disliked)
	c.Disabled = clonePtr(t.Disabled)
	c.Compilation = clonePtr(t.Compilation)
	c.AlbumName = clonePtr(t.AlbumName)
	c.AlbumArtist = clonePtr(t.AlbumArtist)
	c.SortAlbumName = clonePtr(t.SortAlbumName)
	c.SortAlbumArtist = clonePtr(t.SortAlbumArtist)
	c.TrackNum = clonePtr(t.TrackNum)
	c.TrackCount = clonePtr(t.TrackCount)
	c.DiscNum = clonePtr(t.DiscNum)
	c.DiscCount = clonePtr(t.DiscCount)
	c.DateImported = clonePtr(t.DateImported)
	c.PlayCount = clonePtr(t.PlayCount)
	c.SkipCount = clonePtr(t.SkipCount)
	c.Volume = clonePtr(t.Volume)
	if t.Plays != nil {
		c.Plays = append([]int64(nil), t.Plays...)
	}
	if t.Skips != nil {
		c.Skips = append([]int64(nil), t.Skips...)
	}
	if t.PlaysImported != nil {
		c.PlaysImported = append([]CountObject(nil), t.PlaysImported...)
	}
	if t.SkipsImported != nil {
		c.SkipsImported = append([]CountObject(nil), t.SkipsImported...)
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v. Handy for filling optional track fields.
func Ptr[T any](v T) *T {
	return &v
}

// StrOrNil maps the empty string to nil
func StrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Str returns the pointed-to string, or "" when unset
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PlayTime is one entry in the play time log. It is stored as a
// [trackID, startMs, durationMs] array.
type PlayTime struct {
	TrackID    string
	Start      int64 // ms since unix epoch
	DurationMs int64
}

// MarshalJSON encodes the entry as a 3-tuple
func (p PlayTime) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{p.TrackID, p.Start, p.DurationMs})
}

// UnmarshalJSON decodes a 3-tuple
func (p *PlayTime) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode play time entry: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("play time entry must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.TrackID); err != nil {
		return fmt.Errorf("invalid play time track id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Start); err != nil {
		return fmt.Errorf("invalid play time start: %w", err)
	}
	if err := json.Unmarshal(raw[2], &p.DurationMs); err != nil {
		return fmt.Errorf("invalid play time duration: %w", err)
	}
	return nil
}
