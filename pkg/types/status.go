// Package types holds the JSON shapes served to overlay and tooling
// clients. Kept free of internal imports so external consumers can
// vendor just this package.
package types

// Resolution mirrors the last accepted on-screen name resolution.
type Resolution struct {
	SkinID  int     `json:"skin_id"`
	Name    string  `json:"name"`
	RawText string  `json:"raw_text"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

// Status:
//   phase: "None" | "Lobby" | "Matchmaking" | "ReadyCheck" | "ChampSelect" | ...
//   hovered_champion_id / locked_champion_id: 0 when unset
//   remaining_ms: local countdown estimate, only meaningful while
//   countdown_active is true
type Status struct {
	Phase           string      `json:"phase"`
	HoveredChampID  int         `json:"hovered_champion_id"`
	LockedChampID   int         `json:"locked_champion_id"`
	HasResolved     bool        `json:"has_resolved"`
	Resolution      *Resolution `json:"resolution,omitempty"`
	OwnedSkinCount  int         `json:"owned_skin_count"`
	CountdownActive bool        `json:"countdown_active"`
	RemainingMS     int         `json:"remaining_ms"`
	InjectionDone   bool        `json:"injection_done"`
	DetectionPaused bool        `json:"detection_paused"`
}

// PanelOpen is the body of POST /panel/open: the base name the variant
// picker panel was opened for, as rendered on screen.
type PanelOpen struct {
	BaseName string `json:"base_name"`
}

// DetectionPause is the body of POST /detection/pause.
type DetectionPause struct {
	Paused bool `json:"paused"`
}
