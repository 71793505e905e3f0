package page

import (
	"context"
	"time"
)

// AutoSave saves the library once changes have been quiet for delay. It
// runs until ctx is done and then saves any pending changes.
func (s *Service) AutoSave(ctx context.Context, delay time.Duration) error {
	ch := s.Subscribe()
	defer func() { s.Unsubscribe(ch) }()

	var timer *time.Timer
	var fire <-chan time.Time
	dirty := false
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			if dirty {
				return s.Save()
			}
			return nil

		case _, ok := <-ch:
			if !ok {
				// Dropped for falling behind, changes may have been missed
				ch = s.Subscribe()
			}
			dirty = true
			if timer == nil {
				timer = time.NewTimer(delay)
				fire = timer.C
			} else {
				timer.Reset(delay)
			}

		case <-fire:
			timer, fire = nil, nil
			dirty = false
			if err := s.Save(); err != nil {
				s.logger.WithError(err).Error("Failed to save library")
				dirty = true
			}
		}
	}
}
