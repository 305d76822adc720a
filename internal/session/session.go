package session

import (
	"sync"
	"time"

	"lobbyswap/internal/gameflow"
)

// Resolution is the last accepted cosmetic resolution. Kept whole so the
// scheduler can hand the coordinator a self-consistent triple.
type Resolution struct {
	SkinID  int
	Name    string // canonical-language label used for the swap call
	RawText string
	Score   float64
	Source  string // backend that produced the raw text
}

// State is the process-lifetime shared record every task reads and writes.
// All access goes through methods; each field has one designated writer in
// normal operation (tracker owns phase/lock, detector owns resolution,
// scheduler owns countdown, coordinator owns injection flags). The mutex
// makes snapshots self-consistent, it does not replace that convention.
type State struct {
	mu sync.Mutex

	phase          gameflow.Phase
	hoveredChampID int
	lockedChampID  int
	lockedAt       time.Time

	resolution   Resolution
	hasResolved  bool
	ownedSkinIDs map[int]bool

	countdownActive bool
	remainingMS     int
	tickerGen       uint64

	injectionDone  bool
	detectionPause bool

	stopped bool
}

// Snapshot is a value copy handed to readers. OwnedSkinIDs is copied so a
// reader cannot race the tracker refreshing the inventory.
type Snapshot struct {
	Phase           gameflow.Phase
	HoveredChampID  int
	LockedChampID   int
	LockedAt        time.Time
	Resolution      Resolution
	HasResolved     bool
	OwnedSkinIDs    map[int]bool
	CountdownActive bool
	RemainingMS     int
	TickerGen       uint64
	InjectionDone   bool
	DetectionPause  bool
}

func New() *State {
	return &State{ownedSkinIDs: map[int]bool{}}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := make(map[int]bool, len(s.ownedSkinIDs))
	for id := range s.ownedSkinIDs {
		owned[id] = true
	}
	return Snapshot{
		Phase:           s.phase,
		HoveredChampID:  s.hoveredChampID,
		LockedChampID:   s.lockedChampID,
		LockedAt:        s.lockedAt,
		Resolution:      s.resolution,
		HasResolved:     s.hasResolved,
		OwnedSkinIDs:    owned,
		CountdownActive: s.countdownActive,
		RemainingMS:     s.remainingMS,
		TickerGen:       s.tickerGen,
		InjectionDone:   s.injectionDone,
		DetectionPause:  s.detectionPause,
	}
}

// SetPhase records a phase transition. Leaving champ select clears all
// selection-scoped fields; reusing them for the next selection silently
// corrupts later resolution.
func (s *State) SetPhase(p gameflow.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.phase
	s.phase = p
	if gameflow.LeavesSelection(prev, p) {
		s.clearSelectionLocked()
	}
}

func (s *State) clearSelectionLocked() {
	s.hoveredChampID = 0
	s.lockedChampID = 0
	s.lockedAt = time.Time{}
	s.resolution = Resolution{}
	s.hasResolved = false
	s.ownedSkinIDs = map[int]bool{}
	s.countdownActive = false
	s.remainingMS = 0
	s.injectionDone = false
	s.detectionPause = false
}

func (s *State) Phase() gameflow.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *State) SetHoveredChampion(id int) {
	s.mu.Lock()
	s.hoveredChampID = id
	s.mu.Unlock()
}

// SetLockedChampion records a lock observation and returns its
// classification against the previous lock.
func (s *State) SetLockedChampion(id int, at time.Time) gameflow.Lock {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := gameflow.ClassifyLock(s.lockedChampID, id)
	if kind == gameflow.LockNone {
		return kind
	}
	s.lockedChampID = id
	s.lockedAt = at
	if kind == gameflow.LockExchange {
		// Exchange invalidates everything scoped to the old champion.
		s.resolution = Resolution{}
		s.hasResolved = false
		s.ownedSkinIDs = map[int]bool{}
		s.injectionDone = false
	}
	return kind
}

func (s *State) SetOwnedSkins(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownedSkinIDs = make(map[int]bool, len(ids))
	for _, id := range ids {
		s.ownedSkinIDs[id] = true
	}
}

func (s *State) OwnsSkin(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownedSkinIDs[id]
}

func (s *State) SetResolution(r Resolution) {
	s.mu.Lock()
	s.resolution = r
	s.hasResolved = true
	s.mu.Unlock()
}

func (s *State) ClearResolution() {
	s.mu.Lock()
	s.resolution = Resolution{}
	s.hasResolved = false
	s.mu.Unlock()
}

// SeedCountdown starts a new countdown instance and returns its generation.
// Incrementing the generation is the only ordering primitive between
// successive countdowns: a running ticker loop must re-check its own id
// against CurrentTickerGen every iteration and exit silently on mismatch.
func (s *State) SeedCountdown(remainingMS int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickerGen++
	s.countdownActive = true
	s.remainingMS = remainingMS
	return s.tickerGen
}

func (s *State) CurrentTickerGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickerGen
}

// SetRemaining publishes the locally computed remaining time, but only if
// gen is still the authoritative countdown. Returns false when the writer
// has been superseded.
func (s *State) SetRemaining(gen uint64, ms int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.tickerGen || !s.countdownActive {
		return false
	}
	s.remainingMS = ms
	return true
}

// EndCountdown clears the active flag if gen is still current.
func (s *State) EndCountdown(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.tickerGen {
		s.countdownActive = false
	}
}

func (s *State) CountdownActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdownActive
}

func (s *State) SetInjectionDone(done bool) {
	s.mu.Lock()
	s.injectionDone = done
	s.mu.Unlock()
}

func (s *State) SetDetectionPaused(paused bool) {
	s.mu.Lock()
	s.detectionPause = paused
	s.mu.Unlock()
}

// Stop flags process shutdown; pollers treat it like an advisory phase
// change and exit at their next gate check.
func (s *State) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *State) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
