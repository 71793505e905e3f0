package page

import (
	"strings"
	"unicode/utf8"

	"legato/internal/library"
)

const (
	maxTrackListName        = 255
	maxTrackListDescription = 1000
)

// validateTrackList checks a tracklist name and description from the
// front end
func validateTrackList(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return library.Preconditionf("tracklist name is required")
	}
	if utf8.RuneCountInString(name) > maxTrackListName {
		return library.Preconditionf("tracklist name too long (max %d characters)", maxTrackListName)
	}
	if strings.ContainsAny(name, "\x00\r\n") {
		return library.Preconditionf("tracklist name contains invalid characters")
	}
	if utf8.RuneCountInString(description) > maxTrackListDescription {
		return library.Preconditionf("tracklist description too long (max %d characters)", maxTrackListDescription)
	}
	if strings.ContainsRune(description, 0) {
		return library.Preconditionf("tracklist description contains invalid characters")
	}
	return nil
}
