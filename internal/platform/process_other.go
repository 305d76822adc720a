//go:build !windows

package platform

import (
	"context"

	"lobbyswap/internal/inject"
)

type Finder struct{}

func (Finder) Find(ctx context.Context, name string) (inject.GameProcess, bool, error) {
	return nil, false, ErrUnsupported
}
