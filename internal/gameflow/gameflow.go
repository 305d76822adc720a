package gameflow

// Phase mirrors the control plane's gameflow phase strings. The client
// reports more phases than we act on; unknown values map to PhaseNone so a
// client update cannot crash the trackers.
type Phase string

const (
	PhaseNone           Phase = "None"
	PhaseLobby          Phase = "Lobby"
	PhaseMatchmaking    Phase = "Matchmaking"
	PhaseReadyCheck     Phase = "ReadyCheck"
	PhaseChampSelect    Phase = "ChampSelect"
	PhaseGameStart      Phase = "GameStart"
	PhaseInProgress     Phase = "InProgress"
	PhaseReconnect      Phase = "Reconnect"
	PhaseWaitingForStat Phase = "WaitingForStats"
	PhaseEndOfGame      Phase = "EndOfGame"
)

// TimerPhase is the champ-select sub-phase reported by the session timer.
type TimerPhase string

const (
	TimerPlanning     TimerPhase = "PLANNING"
	TimerBanPick      TimerPhase = "BAN_PICK"
	TimerFinalization TimerPhase = "FINALIZATION"
)

var known = map[Phase]bool{
	PhaseNone: true, PhaseLobby: true, PhaseMatchmaking: true,
	PhaseReadyCheck: true, PhaseChampSelect: true, PhaseGameStart: true,
	PhaseInProgress: true, PhaseReconnect: true, PhaseWaitingForStat: true,
	PhaseEndOfGame: true,
}

// Parse maps a raw control-plane string to a Phase, folding anything we do
// not recognize into PhaseNone.
func Parse(s string) Phase {
	p := Phase(s)
	if known[p] {
		return p
	}
	return PhaseNone
}

// InChampSelect reports whether detection and countdown work is relevant.
func (p Phase) InChampSelect() bool { return p == PhaseChampSelect }

// GameRunning reports whether the match itself is (or is about to be)
// running; the suspension monitor only operates across these phases.
func (p Phase) GameRunning() bool {
	return p == PhaseGameStart || p == PhaseInProgress || p == PhaseReconnect
}

// LeavesSelection reports whether a transition from ChampSelect to p means
// selection-scoped state (hover, lock, resolution, countdown) must be
// cleared.
func LeavesSelection(from, to Phase) bool {
	return from == PhaseChampSelect && to != PhaseChampSelect
}

// Lock classifies successive lock observations for the tracker.
type Lock int

const (
	LockNone Lock = iota // no change
	LockNew              // first lock of this selection
	LockExchange         // locked champion replaced by a different one
)

// ClassifyLock compares the previously observed locked champion with the
// freshly observed one. prev == 0 means no champion had been locked yet.
func ClassifyLock(prev, cur int) Lock {
	switch {
	case cur == 0 || cur == prev:
		return LockNone
	case prev == 0:
		return LockNew
	default:
		return LockExchange
	}
}

// BaseSkinID returns the identifier of a champion's default variant.
func BaseSkinID(championID int) int { return championID * 1000 }

// IsBaseSkin reports whether id names a default (non-purchasable) variant.
func IsBaseSkin(id int) bool { return id%1000 == 0 }
