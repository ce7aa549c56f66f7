package tournament

import "time"

// DefaultReminderLead is how long before the start the reminder goes out.
const DefaultReminderLead = 5 * time.Minute

// IsStartingWithin reports whether an upcoming tournament that has not been
// reminded yet starts within lead of now. Tournaments already started do not
// qualify.
func IsStartingWithin(s Snapshot, now time.Time, lead time.Duration) bool {
	if s.Status != StatusUpcoming || s.ReminderSent {
		return false
	}
	if !now.Before(s.Start) {
		return false
	}
	return s.Start.Sub(now) <= lead
}
