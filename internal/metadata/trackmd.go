package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"legato/pkg/models"
)

// TrackMD is the track info form as the user filled it in. Every value is
// text and an empty value clears the field.
type TrackMD struct {
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	AlbumName   string `json:"albumName"`
	AlbumArtist string `json:"albumArtist"`
	Composer    string `json:"composer"`
	Grouping    string `json:"grouping"`
	Genre       string `json:"genre"`
	Year        string `json:"year"`
	TrackNum    string `json:"trackNum"`
	TrackCount  string `json:"trackCount"`
	DiscNum     string `json:"discNum"`
	DiscCount   string `json:"discCount"`
	BPM         string `json:"bpm"`
	Comments    string `json:"comments"`
}

// FieldError reports a form value that is not a valid number
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Parse validates the form. Nothing is returned unless every number parses.
func (md TrackMD) Parse() (Fields, error) {
	f := Fields{
		Title:       md.Name,
		Artist:      md.Artist,
		Album:       md.AlbumName,
		AlbumArtist: md.AlbumArtist,
		Composer:    md.Composer,
		Grouping:    md.Grouping,
		Genre:       md.Genre,
		Comment:     md.Comments,
	}
	var err error
	if f.Year, err = parseOptional(md.Year, "year", 32, strconv.ParseInt); err != nil {
		return Fields{}, err
	}
	uint32s := []struct {
		value string
		name  string
		dst   **uint32
	}{
		{md.TrackNum, "track number", &f.TrackNum},
		{md.TrackCount, "track count", &f.TrackCount},
		{md.DiscNum, "disc number", &f.DiscNum},
		{md.DiscCount, "disc count", &f.DiscCount},
	}
	for _, u := range uint32s {
		n, err := parseOptional(u.value, u.name, 32, strconv.ParseUint)
		if err != nil {
			return Fields{}, err
		}
		if n != nil {
			*u.dst = ptr(uint32(*n))
		}
	}
	bpm, err := parseOptional(md.BPM, "bpm", 16, strconv.ParseUint)
	if err != nil {
		return Fields{}, err
	}
	if bpm != nil {
		f.BPM = ptr(uint16(*bpm))
	}
	return f, nil
}

func parseOptional[T any](value, name string, bits int, parse func(string, int, int) (T, error)) (*T, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := parse(value, 10, bits)
	if err != nil {
		return nil, &FieldError{Field: name, Value: value, Err: err}
	}
	return &n, nil
}

// Apply copies the editable fields onto a track
func (f Fields) Apply(track *models.Track) {
	track.Name = f.Title
	track.Artist = f.Artist
	track.AlbumName = models.StrOrNil(f.Album)
	track.AlbumArtist = models.StrOrNil(f.AlbumArtist)
	track.Composer = models.StrOrNil(f.Composer)
	track.Grouping = models.StrOrNil(f.Grouping)
	track.Genre = models.StrOrNil(f.Genre)
	track.Comments = models.StrOrNil(f.Comment)
	track.Year = f.Year
	track.TrackNum = f.TrackNum
	track.TrackCount = f.TrackCount
	track.DiscNum = f.DiscNum
	track.DiscCount = f.DiscCount
	track.BPM = nil
	if f.BPM != nil {
		track.BPM = ptr(float64(*f.BPM))
	}
}
