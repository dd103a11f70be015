// File: internal/driver/driver.go
// Description: Drives one browser session per submission: open the form,
// dismiss the start screen, walk the fields in declared order, submit, and
// look for the acknowledgment. Each row gets a fresh browser that is released
// on every exit path.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
	"github.com/xkilldash9x/autoform/internal/formschema"
	"github.com/xkilldash9x/autoform/internal/synthesis"
)

// Driver replays a form start to finish from a field list and an answer map.
type Driver struct {
	browserCfg config.BrowserConfig
	driverCfg  config.DriverConfig
	registry   Registry
	skip       *skipStrategy
	logger     *zap.Logger
}

// New creates a Driver with the default strategy registry.
func New(browserCfg config.BrowserConfig, driverCfg config.DriverConfig, logger *zap.Logger) *Driver {
	log := logger.Named("driver")
	return &Driver{
		browserCfg: browserCfg,
		driverCfg:  driverCfg,
		registry:   NewRegistry(driverCfg, log),
		skip:       &skipStrategy{logger: log},
		logger:     log,
	}
}

// SetStrategy replaces the strategy for one field type.
func (d *Driver) SetStrategy(t formschema.FieldType, s Strategy) {
	d.registry[t] = s
}

// Fill opens the form, fills every field, submits, and waits for the
// acknowledgment. A missing acknowledgment is a warning, not an error; only
// failures to reach the form at all are returned.
func (d *Driver) Fill(ctx context.Context, formURL string, fields []formschema.Field, answers synthesis.AnswerMap) error {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(d.browserCfg)...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	// The browser lives exactly as long as this fill attempt.
	defer cancelTab()

	if err := d.run(tabCtx,
		chromedp.Navigate(formURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to open form %q: %w", formURL, err)
	}
	d.logger.Info("Form opened", zap.String("url", formURL), zap.Int("fields", len(fields)))

	if err := d.clickStart(tabCtx); err != nil {
		// Many forms have no welcome screen; carry on.
		d.logger.Debug("No start control engaged", zap.Error(err))
	}

	surface := newChromeSurface(d.driverCfg, d.logger)
	d.fillFields(tabCtx, surface, fields, answers)

	d.logger.Info("Attempting final submission")
	if err := surface.Submit(tabCtx); err != nil {
		return fmt.Errorf("final submission failed: %w", err)
	}

	if err := d.waitAcknowledgment(tabCtx); err != nil {
		d.logger.Warn("Submission acknowledgment not detected; the submission may still have gone through",
			zap.Error(err))
	} else {
		d.logger.Info("Submission acknowledged")
	}
	return nil
}

// fillFields walks the field list in declared order. A failing field is
// logged and skipped past; it never aborts the rest of the form.
func (d *Driver) fillFields(ctx context.Context, surface Surface, fields []formschema.Field, answers synthesis.AnswerMap) {
	for idx, field := range fields {
		if ctx.Err() != nil {
			return
		}
		_ = surface.Pause(ctx, d.driverCfg.PauseMin, d.driverCfg.PauseMax)

		answer := answerFor(answers, field)
		d.logger.Info("Handling field",
			zap.Int("position", idx+1),
			zap.String("type", string(field.Type)),
			zap.String("ref", field.Ref),
		)

		if err := d.strategyFor(field.Type).Fill(ctx, surface, field, answer); err != nil {
			d.logger.Warn("Field interaction failed, advancing past it",
				zap.String("ref", field.Ref),
				zap.Error(err),
			)
			// Best-effort continuation: try to move on to the next field.
			_ = surface.Advance(ctx)
		}
	}
}

// strategyFor resolves the registered strategy, falling back to skip.
func (d *Driver) strategyFor(t formschema.FieldType) Strategy {
	if s, ok := d.registry[t]; ok {
		return s
	}
	return d.skip
}

// answerFor looks an answer up by title first, then by reference id.
func answerFor(answers synthesis.AnswerMap, field formschema.Field) any {
	if v, ok := answers[field.Title]; ok && v != nil {
		return v
	}
	if v, ok := answers[field.Ref]; ok && v != nil {
		return v
	}
	return nil
}

// clickStart runs the ordered start-control strategies until one succeeds.
func (d *Driver) clickStart(ctx context.Context) error {
	strategies := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"native_click", d.nativeStartClick},
		{"script_click", d.scriptStartClick},
	}
	for _, s := range strategies {
		if err := s.fn(ctx); err != nil {
			d.logger.Debug("Start click strategy failed",
				zap.String("strategy", s.name),
				zap.Error(err),
			)
			continue
		}
		d.logger.Debug("Start control clicked", zap.String("strategy", s.name))
		return nil
	}
	return ErrStartNotFound
}

const startButtonXPath = `//button[contains(., "Start")]`

func (d *Driver) nativeStartClick(ctx context.Context) error {
	clickCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	return chromedp.Run(clickCtx,
		chromedp.Click(startButtonXPath, chromedp.BySearch, chromedp.NodeVisible),
		chromedp.Sleep(700*time.Millisecond),
	)
}

// scriptStartClick clicks from page script, for controls whose native click
// gets intercepted by overlays.
const startClickJS = `(() => {
	const btn = Array.from(document.querySelectorAll('button'))
		.find(el => el.textContent.includes('Start'));
	if (!btn) return false;
	btn.click();
	return true;
})()`

func (d *Driver) scriptStartClick(ctx context.Context) error {
	clickCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(clickCtx,
		chromedp.Evaluate(startClickJS, &clicked),
	); err != nil {
		return err
	}
	if !clicked {
		return ErrStartNotFound
	}
	return sleepCtx(ctx, 700*time.Millisecond)
}

// waitAcknowledgment polls the page for the acknowledgment text within the
// bounded wait.
func (d *Driver) waitAcknowledgment(ctx context.Context) error {
	ackCtx, cancel := context.WithTimeout(ctx, d.driverCfg.AckTimeout)
	defer cancel()

	expr := fmt.Sprintf(
		`document.body && document.body.innerText.includes(%q)`,
		d.driverCfg.AckText,
	)
	if err := chromedp.Run(ackCtx, chromedp.Poll(expr, nil, chromedp.WithPollingInterval(500*time.Millisecond))); err != nil {
		return fmt.Errorf("%w: %v", ErrNoAcknowledgment, err)
	}
	return nil
}

// run executes chromedp actions under the configured per-action timeout.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	if d.browserCfg.ActionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.browserCfg.ActionTimeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}
