package metadata

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Properties are the audio stream properties of a file
type Properties struct {
	Duration   float64 // in seconds
	Bitrate    float64 // in bits per second
	SampleRate float64 // in Hz
}

// Extractor reads the stream properties of audio files
type Extractor struct {
	supportedFormats []string
	logger           *logrus.Logger
}

// NewExtractor creates a new extractor for the given file extensions
func NewExtractor(supportedFormats []string, logger *logrus.Logger) *Extractor {
	return &Extractor{
		supportedFormats: supportedFormats,
		logger:           logger,
	}
}

// ReadProperties reads duration, bitrate and sample rate from an audio file. When
// the duration cannot be read it is estimated from the file size.
func (e *Extractor) ReadProperties(filePath string) (Properties, error) {
	startTime := time.Now()

	stat, err := os.Stat(filePath)
	if err != nil {
		return Properties{}, err
	}

	props, err := e.readStream(filePath)
	if err == nil && props.Duration <= 0 {
		err = fmt.Errorf("no duration")
	}
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Warn("Failed to read stream properties, estimating duration")
		props = Properties{Duration: estimateDuration(stat.Size(), 192000)}
	}
	if props.Duration > 0 {
		props.Bitrate = float64(stat.Size()*8) / props.Duration
	}

	e.logger.WithFields(logrus.Fields{
		"filePath":       filePath,
		"duration":       props.Duration,
		"bitrate":        props.Bitrate,
		"sampleRate":     props.SampleRate,
		"processingTime": time.Since(startTime),
	}).Debug("Read audio properties")
	return props, nil
}

func (e *Extractor) readStream(filePath string) (Properties, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return mp3Properties(filePath)
	case ".flac":
		return flacProperties(filePath)
	case ".wav":
		return wavProperties(filePath)
	case ".m4a":
		return m4aProperties(filePath)
	default:
		return Properties{}, fmt.Errorf("unsupported format: %s", ext)
	}
}

// mp3Properties sums the duration of every frame
func mp3Properties(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return Properties{}, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var props Properties
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if frames > 0 {
				break
			}
			return Properties{}, fmt.Errorf("no mp3 frames: %w", err)
		}
		if frames == 0 {
			if rate := fr.Header().SampleRate(); rate > 0 {
				props.SampleRate = float64(rate)
			}
		}
		total += fr.Duration()
		frames++
	}
	props.Duration = total.Seconds()
	return props, nil
}

// flacProperties reads the STREAMINFO block
func flacProperties(path string) (Properties, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return Properties{}, err
	}
	defer stream.Close()

	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return Properties{}, fmt.Errorf("flac stream missing sample info")
	}
	return Properties{
		Duration:   float64(si.NSamples) / float64(si.SampleRate),
		SampleRate: float64(si.SampleRate),
	}, nil
}

// wavProperties reads the header and derives the duration from the PCM size
func wavProperties(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return Properties{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Properties{}, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return Properties{}, fmt.Errorf("invalid wav header")
	}
	st, err := f.Stat()
	if err != nil {
		return Properties{}, err
	}
	pcmBytes := max(st.Size()-44, 0)
	bytesPerFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerFrame <= 0 {
		return Properties{}, fmt.Errorf("invalid sample frame size")
	}
	return Properties{
		Duration:   float64(pcmBytes/bytesPerFrame) / float64(dec.SampleRate),
		SampleRate: float64(dec.SampleRate),
	}, nil
}

// m4aProperties reads the timescale and duration of the 'mvhd' atom
func m4aProperties(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return Properties{}, err
	}
	defer f.Close()

	head := make([]byte, 8)
	for {
		if _, err := io.ReadFull(f, head); err != nil {
			return Properties{}, err
		}
		size := binary.BigEndian.Uint32(head[0:4])
		if size < 8 {
			return Properties{}, fmt.Errorf("invalid atom size")
		}
		if string(head[4:8]) != "moov" {
			if _, err := f.Seek(int64(size)-8, io.SeekCurrent); err != nil {
				return Properties{}, err
			}
			continue
		}

		limit := int64(size) - 8
		for read := int64(0); read < limit; {
			if _, err := io.ReadFull(f, head); err != nil {
				return Properties{}, err
			}
			subSize := binary.BigEndian.Uint32(head[0:4])
			if string(head[4:8]) == "mvhd" {
				return readMvhd(f)
			}
			if subSize < 8 {
				return Properties{}, fmt.Errorf("invalid sub-atom size")
			}
			if _, err := f.Seek(int64(subSize)-8, io.SeekCurrent); err != nil {
				return Properties{}, err
			}
			read += int64(subSize)
		}
		return Properties{}, fmt.Errorf("mvhd atom not found")
	}
}

func readMvhd(r io.ReadSeeker) (Properties, error) {
	version := make([]byte, 1)
	if _, err := io.ReadFull(r, version); err != nil {
		return Properties{}, err
	}
	// flags, then creation and modification times
	skip := int64(3 + 4 + 4)
	if version[0] == 1 {
		skip = 3 + 8 + 8
	}
	if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
		return Properties{}, err
	}
	var timescale uint32
	if err := binary.Read(r, binary.BigEndian, &timescale); err != nil {
		return Properties{}, err
	}
	var units uint64
	if version[0] == 1 {
		if err := binary.Read(r, binary.BigEndian, &units); err != nil {
			return Properties{}, err
		}
	} else {
		var units32 uint32
		if err := binary.Read(r, binary.BigEndian, &units32); err != nil {
			return Properties{}, err
		}
		units = uint64(units32)
	}
	if timescale == 0 {
		return Properties{}, fmt.Errorf("invalid timescale")
	}
	return Properties{Duration: float64(units) / float64(timescale)}, nil
}

// estimateDuration guesses the duration from the file size at a bitrate
func estimateDuration(size int64, bitrate int) float64 {
	return float64(size*8) / float64(bitrate)
}

// ImageMimeType guesses the MIME type of image data
func ImageMimeType(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}
	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return "image/gif"
	}
	if data[0] == 'B' && data[1] == 'M' {
		return "image/bmp"
	}
	return "application/octet-stream"
}

// IsAudioFile checks if a file is a supported audio format
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range e.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
