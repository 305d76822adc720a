//go:build !windows

package platform

import (
	"context"

	"lobbyswap/internal/detect"
)

type LabelReader struct {
	window string
}

func NewLabelReader(window string) *LabelReader { return &LabelReader{window: window} }

func (r *LabelReader) Resolve(ctx context.Context) (detect.TextNode, error) {
	return nil, ErrUnsupported
}
