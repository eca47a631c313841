package gradebook

import "time"

// SetNow replaces the clock of the service and returns a func restoring it.
func SetNow(now time.Time) (restore func()) {
	nowFunc = func() time.Time { return now }
	return func() { nowFunc = time.Now }
}
