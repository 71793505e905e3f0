package metadata

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"legato/pkg/models"
)

// ErrUnsupportedFormat is returned when importing a file that is not a
// supported audio format
var ErrUnsupportedFormat = errors.New("unsupported file format")

// TrackFiles manages the audio files in the tracks directory
type TrackFiles struct {
	fs        afero.Fs
	dir       string
	extractor *Extractor
	codec     Codec
	logger    *logrus.Logger
}

// NewTrackFiles creates a manager for the tracks directory dir
func NewTrackFiles(fs afero.Fs, dir string, extractor *Extractor, codec Codec, logger *logrus.Logger) *TrackFiles {
	return &TrackFiles{
		fs:        fs,
		dir:       dir,
		extractor: extractor,
		codec:     codec,
		logger:    logger,
	}
}

// Dir returns the tracks directory
func (tf *TrackFiles) Dir() string {
	return tf.dir
}

// Path returns the absolute path of a track's file
func (tf *TrackFiles) Path(track *models.Track) string {
	return filepath.Join(tf.dir, track.File)
}

// Import copies the audio file at srcPath into the tracks directory and
// returns a new track for it. Files without a title are titled after
// their filename, and the title is written to the copy.
func (tf *TrackFiles) Import(srcPath string, now int64) (*models.Track, error) {
	if !tf.extractor.IsAudioFile(srcPath) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(srcPath))
	}
	stat, err := tf.fs.Stat(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file does not exist: %s", srcPath)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to access file: %w", err)
	}
	dateModified := stat.ModTime().UnixMilli()

	props, err := tf.extractor.ReadProperties(srcPath)
	if err != nil {
		return nil, err
	}
	tag, err := tf.codec.Read(srcPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %w", err)
	}
	fields := tag.Fields()
	tagChanged := false
	if fields.Title == "" {
		fields.Title = strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
		tag.SetFields(fields)
		tagChanged = true
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(srcPath), "."))
	filename, err := GenerateFilename(tf.fs, tf.dir, fields.Artist, fields.Title, ext)
	if err != nil {
		return nil, err
	}
	destPath := filepath.Join(tf.dir, filename)
	if err := tf.copyFile(srcPath, destPath); err != nil {
		return nil, fmt.Errorf("error copying file: %w", err)
	}
	tf.logger.WithFields(logrus.Fields{
		"from": srcPath,
		"to":   destPath,
	}).Info("Imported file")

	if tagChanged {
		if err := tag.WriteTo(destPath); err != nil {
			tf.fs.Remove(destPath)
			return nil, fmt.Errorf("unable to tag file %s: %w", destPath, err)
		}
		dateModified = now
	}

	track := &models.Track{
		Size:            stat.Size(),
		Duration:        props.Duration,
		Bitrate:         props.Bitrate,
		SampleRate:      props.SampleRate,
		File:            filename,
		DateModified:    dateModified,
		DateAdded:       now,
		SortName:        models.StrOrNil(fields.SortName),
		SortArtist:      models.StrOrNil(fields.SortArtist),
		SortComposer:    models.StrOrNil(fields.SortComposer),
		SortAlbumName:   models.StrOrNil(fields.SortAlbumName),
		SortAlbumArtist: models.StrOrNil(fields.SortAlbumArtist),
	}
	fields.Apply(track)
	return track, nil
}

func (tf *TrackFiles) copyFile(src, dest string) error {
	if err := tf.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	in, err := tf.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := tf.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		tf.fs.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		tf.fs.Remove(dest)
		return err
	}
	return nil
}

// ReadTag reads the tag of a track's file
func (tf *TrackFiles) ReadTag(track *models.Track) (Tag, error) {
	return tf.codec.Read(tf.Path(track))
}

// UpdateInfo writes the form to the file's tag and returns the updated
// track. The file is renamed when the name or artist changes. The given
// track is not modified.
func (tf *TrackFiles) UpdateInfo(track *models.Track, tag Tag, md TrackMD, now int64) (*models.Track, error) {
	fields, err := md.Parse()
	if err != nil {
		return nil, err
	}
	oldPath := tf.Path(track)
	exists, err := afero.Exists(tf.fs, oldPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("file does not exist: %s", track.File)
	}

	current := tag.Fields()
	fields.SortName = current.SortName
	fields.SortArtist = current.SortArtist
	fields.SortComposer = current.SortComposer
	fields.SortAlbumName = current.SortAlbumName
	fields.SortAlbumArtist = current.SortAlbumArtist
	tag.SetFields(fields)
	if err := tag.WriteTo(oldPath); err != nil {
		tag.SetFields(current)
		return nil, fmt.Errorf("failed to save tag: %w", err)
	}

	updated := track.Clone()
	if fields.Title != track.Name || fields.Artist != track.Artist {
		if filename, err := tf.rename(track, fields); err != nil {
			tf.logger.WithError(err).WithField("file", track.File).Warn("Failed to rename track file")
		} else {
			updated.File = filename
		}
	}
	fields.Apply(updated)
	updated.DateModified = now
	return updated, nil
}

func (tf *TrackFiles) rename(track *models.Track, fields Fields) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(track.File), ".")
	filename, err := GenerateFilename(tf.fs, tf.dir, fields.Artist, fields.Title, ext)
	if err != nil {
		return "", err
	}
	if err := tf.fs.Rename(tf.Path(track), filepath.Join(tf.dir, filename)); err != nil {
		return "", err
	}
	return filename, nil
}

// Remove deletes a track's file. A file that is already gone is not an
// error.
func (tf *TrackFiles) Remove(track *models.Track) error {
	err := tf.fs.Remove(tf.Path(track))
	if errors.Is(err, fs.ErrNotExist) {
		tf.logger.WithField("file", track.File).Warn("Track file already removed")
		return nil
	}
	return err
}
