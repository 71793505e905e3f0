// Package sorting orders resolved tracklists by a track field.
package sorting

import (
	"cmp"
	"errors"
	"fmt"

	"legato/pkg/models"
)

// IndexKey sorts by position in the tracklist instead of by a field
const IndexKey = "index"

// ErrUnknownField is returned for a sort key that names no track field
var ErrUnknownField = errors.New("unknown track field")

// Kind is the value type of a sortable field
type Kind int

const (
	String Kind = iota
	Float
	Integer
	Unsigned
	SignedSmall
	Boolean
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Float:
		return "float"
	case Integer:
		return "integer"
	case Unsigned:
		return "unsigned"
	case SignedSmall:
		return "signed small"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Field reads one sortable value from a track. Exactly one accessor is set,
// matching Kind. Missing numbers read as 0, missing booleans as false and
// missing strings as "".
type Field struct {
	Name    string
	Kind    Kind
	text    func(*models.Track) string
	float   func(*models.Track) float64
	integer func(*models.Track) int64
	boolean func(*models.Track) bool
}

// Float returns the field as a float. Only valid for Float fields.
func (f Field) Float(t *models.Track) float64 {
	return f.float(t)
}

// compare orders two tracks ascending. Empty strings sort after everything.
func (f Field) compare(a, b *models.Track) int {
	switch f.Kind {
	case String:
		sa, sb := f.text(a), f.text(b)
		switch {
		case sa == "" && sb == "":
			return 0
		case sa == "":
			return 1
		case sb == "":
			return -1
		}
		return CompareAlphanumeric(sa, sb)
	case Float:
		return cmp.Compare(f.float(a), f.float(b))
	case Boolean:
		ba, bb := f.boolean(a), f.boolean(b)
		switch {
		case ba == bb:
			return 0
		case ba:
			return 1
		default:
			return -1
		}
	default:
		return cmp.Compare(f.integer(a), f.integer(b))
	}
}

func stringField(name string, get func(*models.Track) string) Field {
	return Field{Name: name, Kind: String, text: get}
}

func optStringField(name string, get func(*models.Track) *string) Field {
	return stringField(name, func(t *models.Track) string { return models.Str(get(t)) })
}

func floatField(name string, get func(*models.Track) float64) Field {
	return Field{Name: name, Kind: Float, float: get}
}

func intField(name string, get func(*models.Track) int64) Field {
	return Field{Name: name, Kind: Integer, integer: get}
}

func optIntField(name string, get func(*models.Track) *int64) Field {
	return intField(name, func(t *models.Track) int64 { return deref(get(t)) })
}

func uintField[T uint8 | uint32](name string, get func(*models.Track) *T) Field {
	return Field{Name: name, Kind: Unsigned, integer: func(t *models.Track) int64 { return int64(deref(get(t))) }}
}

func boolField(name string, get func(*models.Track) *bool) Field {
	return Field{Name: name, Kind: Boolean, boolean: func(t *models.Track) bool { return deref(get(t)) }}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

var fields = func() map[string]Field {
	list := []Field{
		intField("size", func(t *models.Track) int64 { return t.Size }),
		floatField("duration", func(t *models.Track) float64 { return t.Duration }),
		floatField("bitrate", func(t *models.Track) float64 { return t.Bitrate }),
		floatField("sampleRate", func(t *models.Track) float64 { return t.SampleRate }),
		stringField("file", func(t *models.Track) string { return t.File }),
		intField("dateModified", func(t *models.Track) int64 { return t.DateModified }),
		intField("dateAdded", func(t *models.Track) int64 { return t.DateAdded }),
		stringField("name", func(t *models.Track) string { return t.Name }),
		optStringField("importedFrom", func(t *models.Track) *string { return t.ImportedFrom }),
		optStringField("originalId", func(t *models.Track) *string { return t.OriginalID }),
		stringField("artist", func(t *models.Track) string { return t.Artist }),
		optStringField("composer", func(t *models.Track) *string { return t.Composer }),
		optStringField("sortName", func(t *models.Track) *string { return t.SortName }),
		optStringField("sortArtist", func(t *models.Track) *string { return t.SortArtist }),
		optStringField("sortComposer", func(t *models.Track) *string { return t.SortComposer }),
		optStringField("genre", func(t *models.Track) *string { return t.Genre }),
		uintField("rating", func(t *models.Track) *uint8 { return t.Rating }),
		optIntField("year", func(t *models.Track) *int64 { return t.Year }),
		floatField("bpm", func(t *models.Track) float64 { return deref(t.BPM) }),
		optStringField("comments", func(t *models.Track) *string { return t.Comments }),
		optStringField("grouping", func(t *models.Track) *string { return t.Grouping }),
		boolField("liked", func(t *models.Track) *bool { return t.Liked }),
		boolField("disliked", func(t *models.Track) *bool { return t.Disliked }),
		boolField("disabled", func(t *models.Track) *bool { return t.Disabled }),
		boolField("compilation", func(t *models.Track) *bool { return t.Compilation }),
		optStringField("albumName", func(t *models.Track) *string { return t.AlbumName }),
		optStringField("albumArtist", func(t *models.Track) *string { return t.AlbumArtist }),
		optStringField("sortAlbumName", func(t *models.Track) *string { return t.SortAlbumName }),
		optStringField("sortAlbumArtist", func(t *models.Track) *string { return t.SortAlbumArtist }),
		uintField("trackNum", func(t *models.Track) *uint32 { return t.TrackNum }),
		uintField("trackCount", func(t *models.Track) *uint32 { return t.TrackCount }),
		uintField("discNum", func(t *models.Track) *uint32 { return t.DiscNum }),
		uintField("discCount", func(t *models.Track) *uint32 { return t.DiscCount }),
		optIntField("dateImported", func(t *models.Track) *int64 { return t.DateImported }),
		uintField("playCount", func(t *models.Track) *uint32 { return t.PlayCount }),
		uintField("skipCount", func(t *models.Track) *uint32 { return t.SkipCount }),
		{Name: "volume", Kind: SignedSmall, integer: func(t *models.Track) int64 { return int64(deref(t.Volume)) }},
	}
	m := make(map[string]Field, len(list))
	for _, f := range list {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the field with the given name
func Lookup(name string) (Field, error) {
	f, ok := fields[name]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// DefaultSortDesc reports the direction a column sorts in when first
// selected. Strings start ascending, everything else descending.
func DefaultSortDesc(key string) (bool, error) {
	if key == IndexKey {
		return true, nil
	}
	f, err := Lookup(key)
	if err != nil {
		return false, err
	}
	return f.Kind != String, nil
}
