//go:build !windows

package platform

import (
	"context"
	"image"
)

// BandCapturer is a stub off Windows; the client only runs there.
type BandCapturer struct {
	window string
}

func NewBandCapturer(window string) *BandCapturer { return &BandCapturer{window: window} }

func (c *BandCapturer) Capture(ctx context.Context) (image.Image, error) {
	return nil, ErrUnsupported
}
