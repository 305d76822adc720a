package detect

import (
	"context"
	"image"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"lobbyswap/internal/obs"
)

// Capturer grabs the skin-name band of the client window. Implementations
// are platform-specific and injected.
type Capturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// Recognizer turns a band image into text. Implementations wrap whatever
// recognition engine the platform provides.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Downsample target for the perceptual diff: small enough to compare
// cheaply, wide enough that a name change moves the mean.
const (
	diffW = 96
	diffH = 20
)

// PixelConfig tunes the pixel pipeline.
type PixelConfig struct {
	DiffThreshold  float64       // mean-abs-diff in [0,1] that counts as motion
	BurstWindow    time.Duration // fast polling window after motion
	PollInterval   time.Duration // cadence inside a burst
	IdleInterval   time.Duration // cadence when the band is static
	RecognizeEvery time.Duration // min spacing between recognitions
}

// PixelBackend polls a screen capture of the name band, skips recognition
// while the band is static, and bursts to a faster cadence when pixels
// move.
type PixelBackend struct {
	cap  Capturer
	rec  Recognizer
	cfg  PixelConfig
	log  *zap.Logger
	m    *obs.Metrics
	now  func() time.Time
	last []byte // previous downsampled gray band

	motionUntil time.Time
	lastRecogAt time.Time
}

func NewPixelBackend(cap Capturer, rec Recognizer, cfg PixelConfig, log *zap.Logger, m *obs.Metrics) *PixelBackend {
	return &PixelBackend{cap: cap, rec: rec, cfg: cfg, log: log, m: m, now: time.Now}
}

func (b *PixelBackend) Name() string { return "pixel" }

// Interval is the desired delay before the next poll: burst cadence while
// motion was seen recently, idle cadence otherwise.
func (b *PixelBackend) Interval() time.Duration {
	if b.now().Before(b.motionUntil) {
		return b.cfg.PollInterval
	}
	if b.cfg.IdleInterval > 0 {
		return b.cfg.IdleInterval
	}
	return b.cfg.PollInterval
}

// Reset forgets the diff baseline; called when the gate closes so the
// next open starts fresh.
func (b *PixelBackend) Reset() {
	b.last = nil
	b.motionUntil = time.Time{}
	b.lastRecogAt = time.Time{}
}

// Poll captures, diffs and maybe recognizes. ok is false when the band
// did not change enough to warrant recognition.
func (b *PixelBackend) Poll(ctx context.Context) (string, bool, error) {
	img, err := b.cap.Capture(ctx)
	if err != nil {
		return "", false, err
	}
	small := downsampleGray(img)

	now := b.now()
	changed := true
	if b.last != nil {
		diff := meanAbsDiff(small, b.last)
		changed = diff > b.cfg.DiffThreshold
	}
	b.last = small

	if changed {
		b.motionUntil = now.Add(b.cfg.BurstWindow)
	} else if now.After(b.motionUntil) {
		if b.m != nil {
			b.m.DetectionSkips.Inc()
		}
		return "", false, nil
	}

	if now.Sub(b.lastRecogAt) < b.cfg.RecognizeEvery {
		return "", false, nil
	}
	b.lastRecogAt = now

	text, err := b.rec.Recognize(ctx, img)
	if err != nil {
		return "", false, err
	}
	if b.m != nil {
		b.m.DetectionCycles.WithLabelValues(b.Name()).Inc()
	}
	return text, text != "", nil
}

// downsampleGray shrinks the band to diffW x diffH and flattens to 8-bit
// gray for the perceptual diff.
func downsampleGray(img image.Image) []byte {
	small := image.NewGray(image.Rect(0, 0, diffW, diffH))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)
	out := make([]byte, diffW*diffH)
	copy(out, small.Pix)
	return out
}

// meanAbsDiff is the mean absolute pixel difference scaled to [0,1].
func meanAbsDiff(a, b []byte) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum / float64(n) / 255
}
