package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// SampleRepo implements outbound.SampleReader against warehouse tables loaded
// by the data ingestion pipeline. Column and table names come from
// configuration, not user input, but are still validated before being quoted
// into the query.
type SampleRepo struct {
	db *sql.DB
}

// NewSampleRepo creates a new SampleRepo backed by the given store.
func NewSampleRepo(store *Store) *SampleRepo {
	return &SampleRepo{db: store.DB}
}

var _ outbound.SampleReader = (*SampleRepo)(nil)

// FetchSamples returns all non-null values of metricColumn from sourceTable,
// optionally bounded by tr, ordered by sample timestamp.
func (r *SampleRepo) FetchSamples(ctx context.Context, metricColumn, sourceTable string, tr *outbound.TimeRange) ([]float64, error) {
	if err := validateIdentifier(metricColumn); err != nil {
		return nil, fmt.Errorf("invalid metric column: %w", err)
	}
	if err := validateIdentifier(sourceTable); err != nil {
		return nil, fmt.Errorf("invalid source table: %w", err)
	}

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL`,
		quoteIdentifier(metricColumn), quoteIdentifier(sourceTable), quoteIdentifier(metricColumn))

	var args []any
	if tr != nil {
		q += ` AND timestamp >= ? AND timestamp <= ?`
		args = append(args, tr.Start.UTC(), tr.End.UTC())
	}
	q += ` ORDER BY timestamp ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying samples from %s: %w", sourceTable, err)
	}
	defer rows.Close()

	var samples []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		samples = append(samples, v)
	}
	return samples, rows.Err()
}

// validateIdentifier rejects names that cannot be safely quoted. Warehouse
// column names may contain spaces and symbols such as "Error_Rate _%_".
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	if strings.ContainsAny(name, `"';`) {
		return fmt.Errorf("identifier %q contains forbidden characters", name)
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}
