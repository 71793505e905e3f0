package player

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"legato/pkg/models"
)

type fakeRecorder struct {
	events []string
}

func (r *fakeRecorder) AddPlay(trackID string) error {
	r.events = append(r.events, "play "+trackID)
	return nil
}

func (r *fakeRecorder) AddSkip(trackID string) error {
	r.events = append(r.events, "skip "+trackID)
	return nil
}

func (r *fakeRecorder) AddPlayTime(trackID string, start, durationMs int64) error {
	r.events = append(r.events, fmt.Sprintf("time %s %d %d", trackID, start, durationMs))
	return nil
}

type fakeTracks map[string]string

func (f fakeTracks) Track(id string) (*models.Track, error) {
	name, ok := f[id]
	if !ok {
		return nil, errors.New("track not found")
	}
	return &models.Track{Name: name}, nil
}

type clock struct {
	now time.Time
}

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager() (*StateManager, *fakeRecorder, *clock) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	recorder := &fakeRecorder{}
	sm := NewStateManager(recorder, fakeTracks{"a": "Song A", "b": "Song B"}, logger)
	c := &clock{now: time.UnixMilli(1_000_000)}
	sm.now = func() time.Time { return c.now }
	return sm, recorder, c
}

func TestPlayback(t *testing.T) {
	sm, recorder, c := newTestManager()

	if err := sm.Start("a"); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	if state := sm.GetState(); !state.IsPlaying || state.Track.Name != "Song A" {
		t.Errorf("Expected Song A to be playing, got %+v", state)
	}

	c.advance(30 * time.Second)
	if err := sm.Pause(); err != nil {
		t.Fatalf("Failed to pause: %v", err)
	}
	c.advance(10 * time.Second)
	if state := sm.GetState(); state.IsPlaying || state.ListenedMs != 30000 {
		t.Errorf("Expected paused at 30000ms, got %+v", state)
	}
	if err := sm.Resume(); err != nil {
		t.Fatalf("Failed to resume: %v", err)
	}
	c.advance(5 * time.Second)
	if err := sm.Finish(); err != nil {
		t.Fatalf("Failed to finish: %v", err)
	}

	if err := sm.Start("b"); err != nil {
		t.Fatal(err)
	}
	c.advance(2 * time.Second)
	if err := sm.Start("a"); err != nil {
		t.Fatal(err)
	}
	if err := sm.Skip(); err != nil {
		t.Fatalf("Failed to skip: %v", err)
	}

	want := []string{
		"time a 1000000 35000",
		"play a",
		"time b 1045000 2000",
		"skip a",
	}
	if !reflect.DeepEqual(recorder.events, want) {
		t.Errorf("Expected %v, got %v", want, recorder.events)
	}
	if state := sm.GetState(); state.TrackID != "" || state.IsPlaying {
		t.Errorf("Expected nothing loaded, got %+v", state)
	}
}

func TestPlaybackErrors(t *testing.T) {
	sm, recorder, _ := newTestManager()

	for name, op := range map[string]func() error{
		"Stop":   sm.Stop,
		"Finish": sm.Finish,
		"Skip":   sm.Skip,
		"Pause":  sm.Pause,
		"Resume": sm.Resume,
	} {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, ErrNotPlaying) {
				t.Errorf("Expected ErrNotPlaying, got %v", err)
			}
		})
	}

	if err := sm.Start("missing"); err == nil {
		t.Error("Expected error for unknown track")
	}
	if len(recorder.events) != 0 {
		t.Errorf("Expected nothing recorded, got %v", recorder.events)
	}
}

func TestStopRecordsPlayTime(t *testing.T) {
	sm, recorder, c := newTestManager()
	if err := sm.Start("b"); err != nil {
		t.Fatal(err)
	}
	c.advance(1500 * time.Millisecond)
	if err := sm.Stop(); err != nil {
		t.Fatalf("Failed to stop: %v", err)
	}
	want := []string{"time b 1000000 1500"}
	if !reflect.DeepEqual(recorder.events, want) {
		t.Errorf("Expected %v, got %v", want, recorder.events)
	}
}

func TestSubscribe(t *testing.T) {
	sm, _, _ := newTestManager()
	ch := sm.Subscribe()

	sm.UpdateVolume(1.5, true)
	state := <-ch
	if state.Volume != 1 || !state.IsMuted {
		t.Errorf("Expected clamped muted volume, got %+v", state)
	}

	sm.UpdateSettings(true, 2)
	if state := <-ch; !state.IsShuffled || state.RepeatMode != 2 {
		t.Errorf("Expected shuffle and repeat, got %+v", state)
	}

	sm.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}
}
