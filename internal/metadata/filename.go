package metadata

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// ErrFilenameExhausted is returned when every numbered variant of a
// filename is taken
var ErrFilenameExhausted = errors.New("too many files with the same artist and title")

const (
	// Filenames can be 255 bytes. The rest is left for the number and
	// extension.
	maxFilenameBase  = 230
	maxFilenameTries = 1000
)

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"?", "_",
	"<", "_",
	">", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"\"", "_",
)

// SanitizeFilename replaces characters that are unsafe in filenames and
// truncates the result to maxFilenameBase bytes
func SanitizeFilename(name string) string {
	name = filenameReplacer.Replace(name)
	name = strings.ReplaceAll(name, "0x", "__")
	if len(name) <= maxFilenameBase {
		return name
	}
	cut := maxFilenameBase
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// GenerateFilename returns an unused "Artist - Title.ext" filename in dir.
// Taken names get a number appended, starting at 2.
func GenerateFilename(fs afero.Fs, dir, artist, title, ext string) (string, error) {
	base := SanitizeFilename(artist + " - " + title)
	filename := base + "." + ext
	for n := 1; n <= maxFilenameTries; n++ {
		if n > 1 {
			filename = base + " " + strconv.Itoa(n) + "." + ext
		}
		exists, err := afero.Exists(fs, filepath.Join(dir, filename))
		if err != nil {
			return "", err
		}
		if !exists {
			return filename, nil
		}
	}
	return "", ErrFilenameExhausted
}
