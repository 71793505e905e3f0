package library

import "legato/pkg/models"

// AddPlay records that a track was played to the end at now
func (l *Library) AddPlay(trackID string, now int64) error {
	track, err := l.Track(trackID)
	if err != nil {
		return err
	}
	track.Plays = append(track.Plays, now)
	track.PlayCount = increment(track.PlayCount)
	return nil
}

// AddSkip records that a track was skipped at now
func (l *Library) AddSkip(trackID string, now int64) error {
	track, err := l.Track(trackID)
	if err != nil {
		return err
	}
	track.Skips = append(track.Skips, now)
	track.SkipCount = increment(track.SkipCount)
	return nil
}

// AddPlayTime appends a listening interval to the play time log
func (l *Library) AddPlayTime(trackID string, start, durationMs int64) error {
	if !l.tracks.Has(trackID) {
		return trackNotFound(trackID)
	}
	l.playTime = append(l.playTime, models.PlayTime{
		TrackID:    trackID,
		Start:      start,
		DurationMs: durationMs,
	})
	return nil
}

func increment(count *uint32) *uint32 {
	if count == nil {
		return models.Ptr[uint32](1)
	}
	return models.Ptr(*count + 1)
}
