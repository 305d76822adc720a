package detect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/obs"
)

// The name label sits at a fixed proportional position of the client
// window regardless of resolution.
const (
	NameLabelRatioX = 0.5
	NameLabelRatioY = 0.658
)

// TextNode is a handle to one accessibility-tree control. Reading its
// text fails when the control went away (window resized, screen
// re-rendered).
type TextNode interface {
	Text(ctx context.Context) (string, error)
}

// TreeReader finds the name-label control via the accessibility tree.
// Implementations do the platform ratio-point hit test.
type TreeReader interface {
	Resolve(ctx context.Context) (TextNode, error)
}

// UITreeBackend reads the name label through the accessibility tree,
// caching the control handle between polls and re-resolving once when a
// cached handle goes stale.
type UITreeBackend struct {
	tree TreeReader
	cfg  UITreeConfig
	log  *zap.Logger
	m    *obs.Metrics
	node TextNode
}

type UITreeConfig struct {
	PollInterval time.Duration
}

func NewUITreeBackend(tree TreeReader, cfg UITreeConfig, log *zap.Logger, m *obs.Metrics) *UITreeBackend {
	return &UITreeBackend{tree: tree, cfg: cfg, log: log, m: m}
}

func (b *UITreeBackend) Name() string { return "uitree" }

func (b *UITreeBackend) Interval() time.Duration { return b.cfg.PollInterval }

func (b *UITreeBackend) Reset() { b.node = nil }

func (b *UITreeBackend) Poll(ctx context.Context) (string, bool, error) {
	if b.node == nil {
		node, err := b.tree.Resolve(ctx)
		if err != nil {
			return "", false, err
		}
		b.node = node
	}

	text, err := b.node.Text(ctx)
	if err != nil {
		// Stale handle: re-resolve once within this poll.
		b.node = nil
		node, rerr := b.tree.Resolve(ctx)
		if rerr != nil {
			return "", false, rerr
		}
		b.node = node
		if text, err = b.node.Text(ctx); err != nil {
			b.node = nil
			return "", false, err
		}
	}

	if b.m != nil {
		b.m.DetectionCycles.WithLabelValues(b.Name()).Inc()
	}
	return text, text != "", nil
}
