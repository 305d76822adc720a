package session

import (
	"testing"
	"time"

	"lobbyswap/internal/gameflow"
)

func TestLeavingChampSelectClearsSelectionScope(t *testing.T) {
	s := New()
	s.SetPhase(gameflow.PhaseChampSelect)
	s.SetLockedChampion(86, time.Now())
	s.SetOwnedSkins([]int{86001, 86002})
	s.SetResolution(Resolution{SkinID: 86004, Name: "Dreadknight Garen", Score: 0.9})
	s.SeedCountdown(10000)

	s.SetPhase(gameflow.PhaseLobby)

	snap := s.Snapshot()
	if snap.LockedChampID != 0 || snap.HasResolved || snap.CountdownActive {
		t.Fatalf("selection scope not cleared: %+v", snap)
	}
	if len(snap.OwnedSkinIDs) != 0 {
		t.Fatalf("owned skins not cleared")
	}
}

func TestChampionExchangeResetsResolution(t *testing.T) {
	s := New()
	s.SetPhase(gameflow.PhaseChampSelect)

	if kind := s.SetLockedChampion(86, time.Now()); kind != gameflow.LockNew {
		t.Fatalf("first lock classified %v, want LockNew", kind)
	}
	s.SetResolution(Resolution{SkinID: 86004, Name: "Dreadknight Garen", Score: 0.9})
	s.SetOwnedSkins([]int{86001})

	if kind := s.SetLockedChampion(103, time.Now()); kind != gameflow.LockExchange {
		t.Fatalf("relock classified %v, want LockExchange", kind)
	}

	snap := s.Snapshot()
	if snap.HasResolved {
		t.Fatalf("resolution survived a champion exchange")
	}
	if len(snap.OwnedSkinIDs) != 0 {
		t.Fatalf("owned-skin cache survived a champion exchange")
	}
	if snap.LockedChampID != 103 {
		t.Fatalf("locked champion = %d, want 103", snap.LockedChampID)
	}
}

func TestSetRemainingRejectsStaleGeneration(t *testing.T) {
	s := New()
	old := s.SeedCountdown(10000)
	cur := s.SeedCountdown(8000)

	if s.SetRemaining(old, 5000) {
		t.Fatalf("stale generation was allowed to write")
	}
	if !s.SetRemaining(cur, 7000) {
		t.Fatalf("current generation write rejected")
	}
	if got := s.Snapshot().RemainingMS; got != 7000 {
		t.Fatalf("remaining = %d, want 7000", got)
	}
}

func TestEndCountdownOnlyAffectsOwnGeneration(t *testing.T) {
	s := New()
	old := s.SeedCountdown(10000)
	s.SeedCountdown(8000)

	s.EndCountdown(old)
	if !s.CountdownActive() {
		t.Fatalf("stale EndCountdown deactivated the current countdown")
	}
}

func TestSnapshotCopiesOwnedSet(t *testing.T) {
	s := New()
	s.SetOwnedSkins([]int{1001})
	snap := s.Snapshot()
	snap.OwnedSkinIDs[2002] = true
	if s.OwnsSkin(2002) {
		t.Fatalf("snapshot mutation leaked into shared state")
	}
}
