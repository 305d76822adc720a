package inject

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Attempt is one persisted injection attempt.
type Attempt struct {
	ID         string
	ChampionID int
	SkinID     int
	Outcome    string
	At         time.Time
}

// History is the local sqlite record of injection attempts. It backs the
// "last used for this champion" lookup and post-hoc debugging; losing it
// costs nothing but history.
type History struct {
	db *sql.DB
}

func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS injections (
		id          TEXT PRIMARY KEY,
		champion_id INTEGER NOT NULL,
		skin_id     INTEGER NOT NULL,
		outcome     TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_injections_champion
		ON injections (champion_id, created_at);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error { return h.db.Close() }

func (h *History) Record(ctx context.Context, a Attempt) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO injections (id, champion_id, skin_id, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.ChampionID, a.SkinID, a.Outcome, a.At.UTC())
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// LastForChampion returns the most recent successful attempt for a
// champion, if any.
func (h *History) LastForChampion(ctx context.Context, championID int) (Attempt, bool, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT id, champion_id, skin_id, outcome, created_at
		 FROM injections
		 WHERE champion_id = ? AND outcome IN ('applied', 'forced')
		 ORDER BY created_at DESC LIMIT 1`, championID)
	var a Attempt
	if err := row.Scan(&a.ID, &a.ChampionID, &a.SkinID, &a.Outcome, &a.At); err != nil {
		if err == sql.ErrNoRows {
			return Attempt{}, false, nil
		}
		return Attempt{}, false, fmt.Errorf("history lookup: %w", err)
	}
	return a, true, nil
}
