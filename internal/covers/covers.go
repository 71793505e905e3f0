// Package covers serves resized cover art of track files. Covers are cached
// in memory and in a SQLite database, keyed by file path and modification
// time so that retagged files are read again.
package covers

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"legato/internal/metadata"
)

// ErrNoImage is returned when a file has no picture at the requested index
var ErrNoImage = errors.New("no image")

// Cover is encoded image data
type Cover struct {
	MIMEType string
	Data     []byte
}

type key struct {
	path     string
	modified int64
	index    int
	maxSize  int
}

func (k key) String() string {
	return k.path + "\x00" + strconv.FormatInt(k.modified, 10) + "\x00" + strconv.Itoa(k.index) + "\x00" + strconv.Itoa(k.maxSize)
}

// Cache reads, resizes and caches covers
type Cache struct {
	codec  metadata.Codec
	memory *memoryCache
	db     *store
	logger *logrus.Logger
}

// Open creates a cache backed by the SQLite database at dbPath
func Open(dbPath string, codec metadata.Codec, ttl time.Duration, logger *logrus.Logger) (*Cache, error) {
	db, err := openStore(dbPath, logger)
	if err != nil {
		return nil, err
	}
	return &Cache{
		codec:  codec,
		memory: newMemoryCache(ttl),
		db:     db,
		logger: logger,
	}, nil
}

// Get returns the picture at index of the file at path, scaled to fit
// maxSize. A maxSize of 0 returns the original picture.
func (c *Cache) Get(path string, index, maxSize int) (Cover, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Cover{}, err
	}
	k := key{path: path, modified: stat.ModTime().UnixMilli(), index: index, maxSize: maxSize}

	if cover, ok := c.memory.get(k.String()); ok {
		return cover, nil
	}
	cover, ok, err := c.db.get(k)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Failed to read cover cache")
	}
	if ok {
		c.memory.set(k.String(), cover)
		return cover, nil
	}

	start := time.Now()
	tag, err := c.codec.Read(path)
	if err != nil {
		return Cover{}, fmt.Errorf("failed to read tag: %w", err)
	}
	img, ok := tag.Image(index)
	if !ok {
		return Cover{}, ErrNoImage
	}
	data, mimeType, err := Resize(img.Data, maxSize)
	if err != nil {
		return Cover{}, err
	}
	cover = Cover{MIMEType: mimeType, Data: data}

	c.memory.set(k.String(), cover)
	if err := c.db.put(k, cover); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Failed to store cover")
	}
	c.logger.WithFields(logrus.Fields{
		"path":           path,
		"index":          index,
		"maxSize":        maxSize,
		"bytes":          len(data),
		"processingTime": time.Since(start),
	}).Debug("Cover resized")
	return cover, nil
}

// Forget drops the stored covers of a file
func (c *Cache) Forget(path string) error {
	return c.db.deletePath(path)
}

// Close stops the cache and closes its database
func (c *Cache) Close() error {
	c.memory.stop()
	return c.db.close()
}
