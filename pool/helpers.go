package pool

import "time"

// resetTimer re-arms a timer whose previous expiry may or may not have been
// consumed. Safe only on the goroutine that owns the timer.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
