package gameflow

import "testing"

func TestParseUnknownPhaseFoldsToNone(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Phase
	}{
		{"known phase", "ChampSelect", PhaseChampSelect},
		{"lobby", "Lobby", PhaseLobby},
		{"unknown phase", "TerminatedInError", PhaseNone},
		{"empty", "", PhaseNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parse(tc.raw); got != tc.want {
				t.Fatalf("Parse(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestClassifyLock(t *testing.T) {
	cases := []struct {
		name string
		prev int
		cur  int
		want Lock
	}{
		{"no lock yet", 0, 0, LockNone},
		{"first lock", 0, 86, LockNew},
		{"same champion relocked", 86, 86, LockNone},
		{"exchange to different champion", 86, 103, LockExchange},
		{"lock cleared", 86, 0, LockNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyLock(tc.prev, tc.cur); got != tc.want {
				t.Fatalf("ClassifyLock(%d, %d) = %v, want %v", tc.prev, tc.cur, got, tc.want)
			}
		})
	}
}

func TestLeavesSelection(t *testing.T) {
	if !LeavesSelection(PhaseChampSelect, PhaseLobby) {
		t.Fatalf("ChampSelect -> Lobby should leave selection")
	}
	if LeavesSelection(PhaseChampSelect, PhaseChampSelect) {
		t.Fatalf("ChampSelect -> ChampSelect should not leave selection")
	}
	if LeavesSelection(PhaseLobby, PhaseNone) {
		t.Fatalf("Lobby -> None should not leave selection")
	}
}

func TestBaseSkin(t *testing.T) {
	if got := BaseSkinID(36); got != 36000 {
		t.Fatalf("BaseSkinID(36) = %d, want 36000", got)
	}
	if !IsBaseSkin(36000) || IsBaseSkin(36004) {
		t.Fatalf("IsBaseSkin misclassified base/non-base ids")
	}
}
