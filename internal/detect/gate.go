package detect

import (
	"time"

	"lobbyswap/internal/session"
)

// GateConfig are the inputs the gate predicate needs besides the
// snapshot.
type GateConfig struct {
	SettleDelay        time.Duration // quiet period after a champion lock
	TriggerThresholdMS int           // detection stops once the countdown is inside this
}

// ShouldRun decides whether a detection cycle is worth running. Pure
// function of its inputs so the policy is testable as a table. focused
// reports whether the game window holds input focus; an alt-tabbed
// window can hand the capture path pixels from whatever overlaps it.
func ShouldRun(snap session.Snapshot, now time.Time, focused bool, cfg GateConfig) bool {
	if !focused {
		return false
	}
	if !snap.Phase.InChampSelect() {
		return false
	}
	if snap.LockedChampID == 0 {
		return false
	}
	if !snap.LockedAt.IsZero() && now.Sub(snap.LockedAt) < cfg.SettleDelay {
		return false
	}
	if snap.InjectionDone {
		return false
	}
	if snap.DetectionPause {
		return false
	}
	// Inside the trigger window the choice is already made; late
	// detections would race the coordinator.
	if snap.CountdownActive && snap.RemainingMS <= cfg.TriggerThresholdMS {
		return false
	}
	return true
}
