// File: internal/driver/chrome.go
package driver

import (
	"context"
	"math/rand"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
)

// chromeSurface implements Surface by dispatching raw CDP input events into
// the active tab. The ctx passed to each method must be a chromedp context.
type chromeSurface struct {
	cfg    config.DriverConfig
	rng    *rand.Rand
	logger *zap.Logger
}

func newChromeSurface(cfg config.DriverConfig, logger *zap.Logger) *chromeSurface {
	return &chromeSurface{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.Named("surface"),
	}
}

// TypeText types the string rune by rune with short jittered inter-key pauses.
func (s *chromeSurface) TypeText(ctx context.Context, text string) error {
	for _, r := range text {
		if err := dispatchRune(ctx, r, 0); err != nil {
			return err
		}
		if err := s.Pause(ctx, 30*time.Millisecond, 110*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// PressKey presses a named special key or a single printable character.
func (s *chromeSurface) PressKey(ctx context.Context, key string) error {
	if spec, ok := specialKeys[key]; ok {
		return dispatchSpecial(ctx, spec, 0)
	}
	runes := []rune(key)
	if len(runes) != 1 {
		return dispatchSpecial(ctx, keySpec{key: key}, 0)
	}
	return dispatchRune(ctx, runes[0], 0)
}

// Advance presses Enter and waits the fixed settle interval.
func (s *chromeSurface) Advance(ctx context.Context) error {
	if err := dispatchSpecial(ctx, specialKeys["Enter"], 0); err != nil {
		return err
	}
	return sleepCtx(ctx, s.cfg.SettleWait)
}

// MoveDown presses the down-arrow inside an open list control.
func (s *chromeSurface) MoveDown(ctx context.Context) error {
	return dispatchSpecial(ctx, specialKeys["ArrowDown"], 0)
}

// AttachFile sets the page's file input to the given path.
func (s *chromeSurface) AttachFile(ctx context.Context, path string) error {
	err := chromedp.Run(ctx,
		chromedp.SetUploadFiles(`input[type="file"]`, []string{path}, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	s.logger.Info("Attached file to upload input", zap.String("path", path))
	return nil
}

// Submit emits the final-submit chord (Ctrl+Enter).
func (s *chromeSurface) Submit(ctx context.Context) error {
	return dispatchSpecial(ctx, specialKeys["Enter"], input.ModifierCtrl)
}

// Pause sleeps a randomized interval in [min, max].
func (s *chromeSurface) Pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(s.rng.Int63n(int64(max - min)))
	}
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// allocatorOptions assembles the chrome launch flags, mirroring the stock
// options minus the automation banner.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		// Later flags win; drop the automation banner the defaults set.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
	)

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Required for running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}
