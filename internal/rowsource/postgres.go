// File: internal/rowsource/postgres.go
package rowsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
)

// pgxPool is the subset of pgxpool.Pool the source needs. Narrowed so tests
// can substitute pgxmock.
type pgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresSource reads rows straight from the table store's backing database.
type PostgresSource struct {
	pool   pgxPool
	table  string
	logger *zap.Logger
}

// NewPostgresSource connects a pgx pool to the configured database.
func NewPostgresSource(cfg config.SourceConfig, logger *zap.Logger) (*PostgresSource, error) {
	pool, err := pgxpool.New(context.Background(), cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return newPostgresSource(pool, cfg.Table, logger), nil
}

func newPostgresSource(pool pgxPool, table string, logger *zap.Logger) *PostgresSource {
	return &PostgresSource{
		pool:   pool,
		table:  table,
		logger: logger.Named("rowsource.postgres"),
	}
}

// Fetch selects every row of the table and materializes each as a column map.
func (s *PostgresSource) Fetch(ctx context.Context) ([]Row, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT * FROM %s`, pgx.Identifier{s.table}.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", s.table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row from table %q: %w", s.table, err)
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed for table %q: %w", s.table, err)
	}

	s.logger.Info("Fetched rows from postgres",
		zap.String("table", s.table),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

// Close releases the underlying pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}
