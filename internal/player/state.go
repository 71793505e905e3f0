// Package player tracks what is playing and records plays, skips and
// listening time in the library. Audio output is left to the front end.
package player

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"legato/pkg/models"
)

// ErrNotPlaying is returned when no track is loaded
var ErrNotPlaying = errors.New("no track is playing")

// Recorder stores engagement with tracks
type Recorder interface {
	AddPlay(trackID string) error
	AddSkip(trackID string) error
	AddPlayTime(trackID string, start, durationMs int64) error
}

// Tracks looks up tracks by ID
type Tracks interface {
	Track(id string) (*models.Track, error)
}

// State represents the current player state
type State struct {
	TrackID    string        `json:"trackId,omitempty"`
	Track      *models.Track `json:"track,omitempty"`
	IsPlaying  bool          `json:"isPlaying"`
	ListenedMs int64         `json:"listenedMs"`
	Volume     float64       `json:"volume"` // 0.0 to 1.0
	IsMuted    bool          `json:"isMuted"`
	IsShuffled bool          `json:"isShuffled"`
	RepeatMode int           `json:"repeatMode"` // 0 = off, 1 = playlist, 2 = track
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// StateManager manages the player state and notifies listeners
type StateManager struct {
	state     *State
	mutex     sync.RWMutex
	listeners []chan *State
	recorder  Recorder
	tracks    Tracks
	logger    *logrus.Logger
	now       func() time.Time

	// Listening interval, guarded by mutex
	startedAt time.Time
	resumedAt time.Time
}

// NewStateManager creates a new player state manager
func NewStateManager(recorder Recorder, tracks Tracks, logger *logrus.Logger) *StateManager {
	return &StateManager{
		state: &State{
			Volume:    1.0,
			UpdatedAt: time.Now(),
		},
		listeners: make([]chan *State, 0),
		recorder:  recorder,
		tracks:    tracks,
		logger:    logger,
		now:       time.Now,
	}
}

// GetState returns the current player state (thread-safe)
func (sm *StateManager) GetState() *State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	stateCopy := *sm.state
	if sm.state.IsPlaying {
		stateCopy.ListenedMs += sm.now().Sub(sm.resumedAt).Milliseconds()
	}
	return &stateCopy
}

// Start plays a track. A track that was already playing is stopped first
// and its listening time recorded.
func (sm *StateManager) Start(trackID string) error {
	track, err := sm.tracks.Track(trackID)
	if err != nil {
		return err
	}

	sm.mutex.Lock()
	previous, startedAt, listened := sm.release()
	now := sm.now()
	sm.state.TrackID = trackID
	sm.state.Track = track
	sm.state.IsPlaying = true
	sm.state.ListenedMs = 0
	sm.state.UpdatedAt = now
	sm.startedAt = now
	sm.resumedAt = now
	sm.notifyListeners()
	sm.mutex.Unlock()

	sm.recordPlayTime(previous, startedAt, listened)
	return nil
}

// Pause stops the listening clock without unloading the track
func (sm *StateManager) Pause() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.state.TrackID == "" {
		return ErrNotPlaying
	}
	if !sm.state.IsPlaying {
		return nil
	}
	now := sm.now()
	sm.state.ListenedMs += now.Sub(sm.resumedAt).Milliseconds()
	sm.state.IsPlaying = false
	sm.state.UpdatedAt = now
	sm.notifyListeners()
	return nil
}

// Resume continues a paused track
func (sm *StateManager) Resume() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.state.TrackID == "" {
		return ErrNotPlaying
	}
	if sm.state.IsPlaying {
		return nil
	}
	now := sm.now()
	sm.resumedAt = now
	sm.state.IsPlaying = true
	sm.state.UpdatedAt = now
	sm.notifyListeners()
	return nil
}

// Stop unloads the track and records how long it was listened to
func (sm *StateManager) Stop() error {
	return sm.end(nil)
}

// Finish unloads a track that played to the end and records a play
func (sm *StateManager) Finish() error {
	return sm.end(sm.recorder.AddPlay)
}

// Skip unloads the track and records a skip
func (sm *StateManager) Skip() error {
	return sm.end(sm.recorder.AddSkip)
}

func (sm *StateManager) end(record func(trackID string) error) error {
	sm.mutex.Lock()
	trackID, startedAt, listened := sm.release()
	sm.notifyListeners()
	sm.mutex.Unlock()

	if trackID == "" {
		return ErrNotPlaying
	}
	sm.recordPlayTime(trackID, startedAt, listened)
	if record != nil {
		return record(trackID)
	}
	return nil
}

// release clears the current track and returns what was playing (must be
// called with lock held)
func (sm *StateManager) release() (trackID string, startedAt time.Time, listenedMs int64) {
	trackID = sm.state.TrackID
	if trackID == "" {
		return "", time.Time{}, 0
	}
	now := sm.now()
	listenedMs = sm.state.ListenedMs
	if sm.state.IsPlaying {
		listenedMs += now.Sub(sm.resumedAt).Milliseconds()
	}
	startedAt = sm.startedAt

	sm.state.TrackID = ""
	sm.state.Track = nil
	sm.state.IsPlaying = false
	sm.state.ListenedMs = 0
	sm.state.UpdatedAt = now
	return trackID, startedAt, listenedMs
}

func (sm *StateManager) recordPlayTime(trackID string, startedAt time.Time, listenedMs int64) {
	if trackID == "" || listenedMs <= 0 {
		return
	}
	if err := sm.recorder.AddPlayTime(trackID, startedAt.UnixMilli(), listenedMs); err != nil {
		sm.logger.WithError(err).WithField("track_id", trackID).Warn("Failed to record play time")
	}
}

// UpdateVolume updates volume and mute state
func (sm *StateManager) UpdateVolume(volume float64, isMuted bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.state.Volume = min(max(volume, 0), 1)
	sm.state.IsMuted = isMuted
	sm.state.UpdatedAt = sm.now()
	sm.notifyListeners()
}

// UpdateSettings updates player settings (shuffle, repeat)
func (sm *StateManager) UpdateSettings(isShuffled bool, repeatMode int) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.state.IsShuffled = isShuffled
	sm.state.RepeatMode = repeatMode
	sm.state.UpdatedAt = sm.now()
	sm.notifyListeners()
}

// Subscribe adds a listener for state changes
func (sm *StateManager) Subscribe() <-chan *State {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	ch := make(chan *State, 10)
	sm.listeners = append(sm.listeners, ch)
	return ch
}

// Unsubscribe removes a listener
func (sm *StateManager) Unsubscribe(ch <-chan *State) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	for i, listener := range sm.listeners {
		if listener == ch {
			close(listener)
			sm.listeners = append(sm.listeners[:i], sm.listeners[i+1:]...)
			break
		}
	}
}

// notifyListeners sends state updates to all subscribers (must be called with lock held)
func (sm *StateManager) notifyListeners() {
	stateCopy := *sm.state
	kept := sm.listeners[:0]
	for _, listener := range sm.listeners {
		select {
		case listener <- &stateCopy:
			kept = append(kept, listener)
		default:
			// Slow listener, drop it
			close(listener)
		}
	}
	clear(sm.listeners[len(kept):])
	sm.listeners = kept
}
