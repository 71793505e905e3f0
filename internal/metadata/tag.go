package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/wtolson/go-taglib"
)

// Fields are the tag values of a track file. Empty strings and nil numbers
// mean the value is not set.
type Fields struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Grouping    string
	Genre       string
	Comment     string
	Year        *int64
	TrackNum    *uint32
	TrackCount  *uint32
	DiscNum     *uint32
	DiscCount   *uint32
	BPM         *uint16

	// Read only
	SortName        string
	SortArtist      string
	SortComposer    string
	SortAlbumName   string
	SortAlbumArtist string
}

// Image is an embedded picture
type Image struct {
	Index       int
	TotalImages int
	MIMEType    string
	Data        []byte
}

var (
	// ErrUnsupportedImage is returned for pictures that are not JPEG or PNG
	ErrUnsupportedImage = errors.New("unsupported picture type")
	// ErrUnsupportedTagField is returned when a file format cannot store an
	// edited field
	ErrUnsupportedTagField = errors.New("field cannot be stored in this file format")
)

// Images is an editable list of embedded pictures
type Images []Image

// Get returns the picture at index, if there is one
func (imgs Images) Get(index int) (Image, bool) {
	if index < 0 || index >= len(imgs) {
		return Image{}, false
	}
	img := imgs[index]
	img.Index = index
	img.TotalImages = len(imgs)
	return img, true
}

// Set replaces the picture at index, or appends it when index is past the
// end. Only JPEG and PNG data is accepted.
func (imgs *Images) Set(index int, data []byte) error {
	if index < 0 {
		return fmt.Errorf("invalid picture index %d", index)
	}
	mime := ImageMimeType(data)
	if mime != "image/jpeg" && mime != "image/png" {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	img := Image{MIMEType: mime, Data: data}
	if index < len(*imgs) {
		(*imgs)[index] = img
	} else {
		*imgs = append(*imgs, img)
	}
	return nil
}

// Remove deletes the picture at index. It reports whether there was one.
func (imgs *Images) Remove(index int) bool {
	if index < 0 || index >= len(*imgs) {
		return false
	}
	*imgs = slices.Delete(*imgs, index, index+1)
	return true
}

// Tag is the tag of one file, read into memory
type Tag interface {
	Fields() Fields
	SetFields(Fields)
	// Image returns the picture at index, if there is one
	Image(index int) (Image, bool)
	SetImage(index int, data []byte) error
	RemoveImage(index int) bool
	// WriteTo saves the fields and pictures into the file at path
	WriteTo(path string) error
}

// Codec reads tags from files
type Codec interface {
	Read(path string) (Tag, error)
}

// TagCodec reads tags with dhowden/tag and writes them with TagLib
type TagCodec struct{}

// Read parses the tag of the file at path. Files without a tag yield an
// empty tag.
func (TagCodec) Read(path string) (Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &fileTag{}
	md, err := tag.ReadFrom(f)
	switch {
	case errors.Is(err, tag.ErrNoTagsFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read tag: %w", err)
	default:
		t.fields = fieldsFrom(md)
		if pic := md.Picture(); pic != nil && len(pic.Data) > 0 {
			mime := pic.MIMEType
			if mime == "" {
				mime = ImageMimeType(pic.Data)
			}
			t.images = Images{{MIMEType: mime, Data: pic.Data}}
		}
	}

	// ID3 tags can hold several pictures
	if isMP3(path) {
		if t.images, err = readID3Images(path); err != nil {
			return nil, err
		}
	}
	t.saved = t.fields
	return t, nil
}

func fieldsFrom(md tag.Metadata) Fields {
	raw := md.Raw()
	f := Fields{
		Title:           md.Title(),
		Artist:          md.Artist(),
		Album:           md.Album(),
		AlbumArtist:     md.AlbumArtist(),
		Composer:        md.Composer(),
		Genre:           md.Genre(),
		Comment:         md.Comment(),
		Grouping:        rawString(raw, "TIT1", "GRP1", "©grp", "GROUPING"),
		SortName:        rawString(raw, "TSOT", "sonm", "TITLESORT"),
		SortArtist:      rawString(raw, "TSOP", "soar", "ARTISTSORT"),
		SortComposer:    rawString(raw, "TSOC", "soco", "COMPOSERSORT"),
		SortAlbumName:   rawString(raw, "TSOA", "soal", "ALBUMSORT"),
		SortAlbumArtist: rawString(raw, "TSO2", "soaa", "ALBUMARTISTSORT"),
	}
	if y := md.Year(); y > 0 {
		f.Year = ptr(int64(y))
	}
	num, count := md.Track()
	f.TrackNum, f.TrackCount = positive(num), positive(count)
	num, count = md.Disc()
	f.DiscNum, f.DiscCount = positive(num), positive(count)
	if bpm, err := strconv.ParseUint(rawString(raw, "TBPM", "tmpo", "BPM"), 10, 16); err == nil {
		f.BPM = ptr(uint16(bpm))
	}
	return f
}

// rawString returns the first of keys that holds a text value
func rawString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func positive(n int) *uint32 {
	if n <= 0 {
		return nil
	}
	return ptr(uint32(n))
}

func ptr[T any](v T) *T {
	return &v
}

type fileTag struct {
	fields Fields
	images Images

	// As last read or written
	saved         Fields
	imagesChanged bool
}

func (t *fileTag) Fields() Fields {
	return t.fields
}

func (t *fileTag) SetFields(f Fields) {
	t.fields = f
}

func (t *fileTag) Image(index int) (Image, bool) {
	return t.images.Get(index)
}

func (t *fileTag) SetImage(index int, data []byte) error {
	if err := t.images.Set(index, data); err != nil {
		return err
	}
	t.imagesChanged = true
	return nil
}

func (t *fileTag) RemoveImage(index int) bool {
	if !t.images.Remove(index) {
		return false
	}
	t.imagesChanged = true
	return true
}

// WriteTo saves the tag. MP3 files get every field and picture through
// ID3v2. Other formats go through TagLib's basic interface, and edits it
// cannot store are rejected before the file is touched.
func (t *fileTag) WriteTo(path string) error {
	if isMP3(path) {
		if err := writeID3(path, t.fields, t.images); err != nil {
			return err
		}
		t.saved, t.imagesChanged = t.fields, false
		return nil
	}

	if names := t.unwritable(); len(names) > 0 {
		return fmt.Errorf("%w: %s files cannot store %s", ErrUnsupportedTagField,
			strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."), strings.Join(names, ", "))
	}

	file, err := taglib.Read(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer file.Close()

	file.SetTitle(t.fields.Title)
	file.SetArtist(t.fields.Artist)
	file.SetAlbum(t.fields.Album)
	file.SetComment(t.fields.Comment)
	file.SetGenre(t.fields.Genre)
	year := 0
	if t.fields.Year != nil {
		year = int(*t.fields.Year)
	}
	file.SetYear(year)
	track := 0
	if t.fields.TrackNum != nil {
		track = int(*t.fields.TrackNum)
	}
	file.SetTrack(track)

	if err := file.Save(); err != nil {
		return fmt.Errorf("failed to save tag to %s: %w", path, err)
	}
	t.saved = t.fields
	return nil
}

// unwritable lists the edited values TagLib's basic interface cannot save
func (t *fileTag) unwritable() []string {
	var names []string
	add := func(name string, changed bool) {
		if changed {
			names = append(names, name)
		}
	}
	f, s := t.fields, t.saved
	add("album artist", f.AlbumArtist != s.AlbumArtist)
	add("composer", f.Composer != s.Composer)
	add("grouping", f.Grouping != s.Grouping)
	add("track count", !equalPtr(f.TrackCount, s.TrackCount))
	add("disc number", !equalPtr(f.DiscNum, s.DiscNum))
	add("disc count", !equalPtr(f.DiscCount, s.DiscCount))
	add("bpm", !equalPtr(f.BPM, s.BPM))
	add("pictures", t.imagesChanged)
	return names
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
