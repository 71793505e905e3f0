package library

import (
	"fmt"
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"legato/pkg/models"
)

const (
	idAlphabet    = "abcdefghijklmnopqrstuvwxyz234567"
	idLength      = 7
	idMaxAttempts = 1000
)

// GenerateID returns a random ID that is neither a track ID nor a
// tracklist ID
func (l *Library) GenerateID() (string, error) {
	for i := 0; i < idMaxAttempts; i++ {
		id, err := gonanoid.Generate(idAlphabet, idLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate id: %w", err)
		}
		if !l.tracks.Has(id) && !l.trackLists.Has(id) {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// ItemTable maps item IDs to track IDs. Item IDs are never reused, so a
// stale item ID still resolves, but the track it points to may be gone.
type ItemTable struct {
	trackIDs []string
}

// NewItemTable creates an empty table. Index 0 is reserved.
func NewItemTable() *ItemTable {
	return &ItemTable{trackIDs: []string{""}}
}

// Register assigns a new item ID to trackID
func (t *ItemTable) Register(trackID string) models.ItemID {
	t.trackIDs = append(t.trackIDs, trackID)
	return models.ItemID(len(t.trackIDs) - 1)
}

// RegisterAll assigns a new item ID to every track ID, in order
func (t *ItemTable) RegisterAll(trackIDs []string) []models.ItemID {
	items := make([]models.ItemID, len(trackIDs))
	for i, id := range trackIDs {
		items[i] = t.Register(id)
	}
	return items
}

// Resolve returns the track ID behind an item ID
func (t *ItemTable) Resolve(item models.ItemID) (string, error) {
	if item == 0 || int(item) >= len(t.trackIDs) {
		return "", &NotFoundError{Kind: "item", ID: strconv.FormatUint(uint64(item), 10)}
	}
	return t.trackIDs[item], nil
}

// Len returns the number of assigned item IDs
func (t *ItemTable) Len() int {
	return len(t.trackIDs) - 1
}
