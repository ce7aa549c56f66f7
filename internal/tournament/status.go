package tournament

import "time"

// ComputeStatus derives the status a tournament should have at now. It reports
// whether that differs from the persisted status.
//
// Manually overridden and terminal tournaments never change. Otherwise the
// status only moves forward: upcoming becomes active at the start instant and
// anything not yet completed becomes completed at start+duration.
func ComputeStatus(s Snapshot, now time.Time) (Status, bool) {
	if s.ManualOverride || s.Status.Terminal() {
		return s.Status, false
	}
	if s.Status != StatusUpcoming && s.Status != StatusActive {
		return s.Status, false
	}
	if !now.Before(s.End()) {
		return StatusCompleted, true
	}
	if s.Status == StatusUpcoming && !now.Before(s.Start) {
		return StatusActive, true
	}
	return s.Status, false
}
