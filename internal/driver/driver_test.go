package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/autoform/internal/config"
	"github.com/xkilldash9x/autoform/internal/formschema"
	"github.com/xkilldash9x/autoform/internal/synthesis"
)

func testDriver(t *testing.T) *Driver {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Driver.PauseMin = 0
	cfg.Driver.PauseMax = 0
	cfg.Driver.SettleWait = 0
	cfg.Driver.UploadWait = 0
	return New(cfg.Browser, cfg.Driver, zaptest.NewLogger(t))
}

func TestAnswerForTitleTakesPrecedence(t *testing.T) {
	answers := synthesis.AnswerMap{"Email": "title@x.com", "ref-email": "ref@x.com"}
	field := formschema.Field{Ref: "ref-email", Title: "Email"}
	assert.Equal(t, "title@x.com", answerFor(answers, field))
}

func TestAnswerForFallsBackToRef(t *testing.T) {
	answers := synthesis.AnswerMap{"ref-email": "ref@x.com"}
	field := formschema.Field{Ref: "ref-email", Title: "Email"}
	assert.Equal(t, "ref@x.com", answerFor(answers, field))
}

func TestAnswerForAbsent(t *testing.T) {
	field := formschema.Field{Ref: "ref-email", Title: "Email"}
	assert.Nil(t, answerFor(synthesis.AnswerMap{}, field))
	// An explicit null is the same as absent.
	assert.Nil(t, answerFor(synthesis.AnswerMap{"Email": nil}, field))
}

func TestFillFieldsWalksInOrder(t *testing.T) {
	d := testDriver(t)
	surface := &fakeSurface{}

	fields := []formschema.Field{
		{Ref: "r1", Title: "Email", Type: formschema.TypeShortText},
		{Ref: "r2", Title: "Interest", Type: formschema.TypeMultipleChoice,
			Options: []string{"networking", "storage"}},
	}
	answers := synthesis.AnswerMap{"Email": "a@b.com", "Interest": "0"}

	d.fillFields(context.Background(), surface, fields, answers)

	assert.Equal(t, []string{
		"type:a@b.com", "advance",
		"press:a", "advance",
	}, surface.actions)
}

func TestFillFieldsSkipsFailingFieldAndContinues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cfg := config.NewDefaultConfig()
	cfg.Driver.SettleWait = 0
	d := New(cfg.Browser, cfg.Driver, zap.New(core))

	surface := &fakeSurface{failOn: "type:"}
	fields := []formschema.Field{
		{Ref: "r1", Title: "Email", Type: formschema.TypeShortText},
		{Ref: "r2", Title: "Interest", Type: formschema.TypeMultipleChoice},
	}
	answers := synthesis.AnswerMap{"Email": "a@b.com", "Interest": "1"}

	d.fillFields(context.Background(), surface, fields, answers)

	// The failing field is advanced past and the next one is still handled.
	assert.Equal(t, []string{
		"type:a@b.com", "advance",
		"press:b", "advance",
	}, surface.actions)

	entries := logs.FilterMessageSnippet("Field interaction failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].ContextMap()["ref"])
}

func TestFillFieldsUnknownTypeAdvancesOnly(t *testing.T) {
	d := testDriver(t)
	surface := &fakeSurface{}

	fields := []formschema.Field{
		{Ref: "r1", Title: "Consent", Type: formschema.FieldType("legal")},
	}
	d.fillFields(context.Background(), surface, fields, synthesis.AnswerMap{"Consent": "yes"})

	assert.Equal(t, []string{"advance"}, surface.actions)
}

func TestFillFieldsAnswerByRef(t *testing.T) {
	d := testDriver(t)
	surface := &fakeSurface{}

	fields := []formschema.Field{
		{Ref: "ref-email", Title: "Email", Type: formschema.TypeShortText},
	}
	// Only the reference id is present; the driver must use it.
	d.fillFields(context.Background(), surface, fields, synthesis.AnswerMap{"ref-email": "ref@x.com"})

	assert.Equal(t, []string{"type:ref@x.com", "advance"}, surface.actions)
}

func TestFillFieldsStopsOnCancelledContext(t *testing.T) {
	d := testDriver(t)
	surface := &fakeSurface{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fields := []formschema.Field{
		{Ref: "r1", Title: "Email", Type: formschema.TypeShortText},
	}
	d.fillFields(ctx, surface, fields, synthesis.AnswerMap{})
	assert.Empty(t, surface.actions)
}

func TestSetStrategyOverridesType(t *testing.T) {
	d := testDriver(t)
	surface := &fakeSurface{}

	d.SetStrategy(formschema.TypeDropdown, &textStrategy{})
	fields := []formschema.Field{
		{Ref: "r1", Title: "Team size", Type: formschema.TypeDropdown},
	}
	d.fillFields(context.Background(), surface, fields, synthesis.AnswerMap{"Team size": "11-50"})

	assert.Equal(t, []string{"type:11-50", "advance"}, surface.actions)
}

func TestStrategyForUnregisteredType(t *testing.T) {
	d := testDriver(t)
	assert.Same(t, Strategy(d.skip), d.strategyFor(formschema.FieldType("payment")))
}

func TestSleepCtxRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepCtx(ctx, time.Minute)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAllocatorOptionsIncludeHeadless(t *testing.T) {
	opts := allocatorOptions(config.BrowserConfig{Headless: true, Args: []string{"--lang=en-US"}})
	assert.NotEmpty(t, opts)
}
