// File: internal/orchestrator/orchestrator.go
// Description: Runs the batch end to end: all rows up front, the schema once,
// then one synthesize-and-drive pass per row. Fully sequential; collaborators
// are injected via narrow interfaces so the pipeline is testable.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
	"github.com/xkilldash9x/autoform/internal/formschema"
	"github.com/xkilldash9x/autoform/internal/rowsource"
	"github.com/xkilldash9x/autoform/internal/synthesis"
)

// RowSource yields the batch of records to submit.
type RowSource interface {
	Fetch(ctx context.Context) ([]rowsource.Row, error)
}

// SchemaFetcher resolves the form's ordered field list.
type SchemaFetcher interface {
	Fields(ctx context.Context, formID string) []formschema.Field
}

// AnswerSynthesizer produces one answer map per row.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, fields []formschema.Field, row rowsource.Row) (synthesis.AnswerMap, error)
}

// FormDriver replays one form submission in a browser session.
type FormDriver interface {
	Fill(ctx context.Context, formURL string, fields []formschema.Field, answers synthesis.AnswerMap) error
}

// Pipeline wires the four stages together.
type Pipeline struct {
	formCfg config.FormConfig
	source  RowSource
	fetcher SchemaFetcher
	synth   AnswerSynthesizer
	driver  FormDriver
	logger  *zap.Logger
}

// New creates a Pipeline. All dependencies are required.
func New(
	formCfg config.FormConfig,
	source RowSource,
	fetcher SchemaFetcher,
	synth AnswerSynthesizer,
	driver FormDriver,
	logger *zap.Logger,
) (*Pipeline, error) {
	if source == nil || fetcher == nil || synth == nil || driver == nil {
		return nil, fmt.Errorf("cannot initialize pipeline with nil dependencies")
	}
	return &Pipeline{
		formCfg: formCfg,
		source:  source,
		fetcher: fetcher,
		synth:   synth,
		driver:  driver,
		logger:  logger.Named("pipeline"),
	}, nil
}

// Run executes the whole batch. A row-source failure aborts the run; a
// synthesis or drive failure is fatal only for its row.
func (p *Pipeline) Run(ctx context.Context) error {
	rows, err := p.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch rows: %w", err)
	}

	fields := p.fetcher.Fields(ctx, p.formCfg.ID)
	if len(fields) == 0 {
		p.logger.Warn("No form fields resolved; each submission will be a no-op",
			zap.String("form_id", p.formCfg.ID))
	}

	formURL := p.formCfg.URL()
	submitted, failed := 0, 0

	for idx, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		submissionID := uuid.New().String()
		log := p.logger.With(
			zap.String("submission_id", submissionID),
			zap.Int("row", idx+1),
		)
		log.Info("Processing row")

		answers, err := p.synth.Synthesize(ctx, fields, row)
		if err != nil {
			// Fatal for this row only; no retry.
			log.Error("Answer synthesis failed, abandoning row", zap.Error(err))
			failed++
			continue
		}

		if err := p.driver.Fill(ctx, formURL, fields, answers); err != nil {
			log.Error("Form submission failed", zap.Error(err))
			failed++
			continue
		}

		log.Info("Row submitted")
		submitted++
	}

	p.logger.Info("Batch complete",
		zap.Int("rows", len(rows)),
		zap.Int("submitted", submitted),
		zap.Int("failed", failed),
	)
	return nil
}
