package metadata

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
)

func isMP3(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}

// readID3Images returns every attached picture of an MP3 file in tag order
func readID3Images(path string) (Images, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Attached picture"}})
	if err != nil {
		return nil, fmt.Errorf("failed to read ID3 tag: %w", err)
	}
	defer tag.Close()

	var images Images
	for _, frame := range tag.GetFrames(tag.CommonID("Attached picture")) {
		pic, ok := frame.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		mime := pic.MimeType
		if !strings.HasPrefix(mime, "image/") {
			mime = ImageMimeType(pic.Picture)
		}
		images = append(images, Image{MIMEType: mime, Data: pic.Picture})
	}
	return images, nil
}

// writeID3 saves fields and pictures as an ID3v2.4 tag. Empty values remove
// their frames.
func writeID3(path string, f Fields, images Images) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer tag.Close()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	text := []struct {
		id    string
		value string
	}{
		{"TIT2", f.Title},
		{"TPE1", f.Artist},
		{"TALB", f.Album},
		{"TPE2", f.AlbumArtist},
		{"TCOM", f.Composer},
		{"TIT1", f.Grouping},
		{"TCON", f.Genre},
		{"TDRC", formatOptional(f.Year)},
		{"TRCK", position(f.TrackNum, f.TrackCount)},
		{"TPOS", position(f.DiscNum, f.DiscCount)},
		{"TBPM", formatOptional(f.BPM)},
	}
	tag.DeleteFrames("TYER")
	for _, frame := range text {
		tag.DeleteFrames(frame.id)
		if frame.value != "" {
			tag.AddTextFrame(frame.id, id3v2.EncodingUTF8, frame.value)
		}
	}

	tag.DeleteFrames("COMM")
	if f.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     f.Comment,
		})
	}

	// Pictures are unique by type and description
	tag.DeleteFrames("APIC")
	for i, img := range images {
		pictureType, description := byte(id3v2.PTOther), strconv.Itoa(i)
		if i == 0 {
			pictureType, description = id3v2.PTFrontCover, ""
		}
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    img.MIMEType,
			PictureType: pictureType,
			Description: description,
			Picture:     img.Data,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tag to %s: %w", path, err)
	}
	return nil
}

func formatOptional[T int64 | uint16](v *T) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

// position formats a number and an optional total as "n/total"
func position(num, total *uint32) string {
	if num == nil {
		return ""
	}
	if total == nil {
		return strconv.FormatUint(uint64(*num), 10)
	}
	return fmt.Sprintf("%d/%d", *num, *total)
}
