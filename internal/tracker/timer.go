package tracker

import (
	"context"
	"strings"

	"lobbyswap/internal/gameflow"
)

// Timer adapts the champ-select session document to the scheduler's
// timer-source interface.
type Timer struct {
	CP ControlPlane
}

func (t Timer) LoadoutTimer(ctx context.Context) (gameflow.TimerPhase, int, bool) {
	sess, err := t.CP.ChampSelectSession(ctx)
	if err != nil || sess == nil {
		return "", 0, false
	}
	phase := gameflow.TimerPhase(strings.ToUpper(sess.Timer.Phase))
	return phase, sess.Timer.AdjustedTimeLeftInPhase, true
}
