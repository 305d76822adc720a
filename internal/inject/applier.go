package inject

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ToolApplier shells out to the external swap tool that rewrites game
// content on disk. The tool blocks until the overlay is in place, which
// is exactly the window the process monitor keeps the game frozen for.
type ToolApplier struct {
	Path string // tool binary; empty means unowned swaps are disabled
	Dir  string // working directory, usually the tool's install dir
	Log  *zap.Logger
}

func (a *ToolApplier) Apply(ctx context.Context, label string, championID, skinID int) error {
	if a.Path == "" {
		return errors.New("swap tool not configured")
	}
	cmd := exec.CommandContext(ctx, a.Path,
		"apply",
		"--champion", strconv.Itoa(championID),
		"--skin", strconv.Itoa(skinID),
		"--label", label)
	cmd.Dir = a.Dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("swap tool: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if a.Log != nil {
		a.Log.Debug("swap tool finished", zap.String("label", label), zap.Int("skin", skinID))
	}
	return nil
}
