// File: internal/rowsource/rowsource.go
// Description: Row sources pull the batch of submission records that the
// pipeline turns into form submissions. Whatever order the remote store
// returns is preserved; no filtering or pagination is applied.
package rowsource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
)

// Row is one source record: an arbitrary mapping of column name to value.
// Rows are read-only after fetch and discarded after one submission attempt.
type Row = map[string]any

// Source fetches every row of the configured table. Connectivity and
// authentication failures propagate to the caller and abort the run.
type Source interface {
	Fetch(ctx context.Context) ([]Row, error)
}

// New selects a backend from configuration.
func New(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	switch cfg.Backend {
	case config.SourceBackendREST:
		return NewRESTSource(cfg, logger), nil
	case config.SourceBackendPostgres:
		return NewPostgresSource(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.Backend)
	}
}
