package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonny/anomaly-insight/internal/domain/model"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

// ChangeEventRepo implements outbound.ChangeEventReader using SQLite. Change
// events are written by migration tooling; this service only reads them.
type ChangeEventRepo struct {
	db *sql.DB
}

// NewChangeEventRepo creates a new ChangeEventRepo backed by the given store.
func NewChangeEventRepo(store *Store) *ChangeEventRepo {
	return &ChangeEventRepo{db: store.DB}
}

var _ outbound.ChangeEventReader = (*ChangeEventRepo)(nil)

// FetchChangeEvents returns all change events with a timestamp in [start, end],
// oldest first.
func (r *ChangeEventRepo) FetchChangeEvents(ctx context.Context, start, end time.Time) ([]model.ChangeEvent, error) {
	const q = `SELECT migration_id, type, timestamp, source_system, target_system,
		user_count_change, resource_requirements, description, status
		FROM change_events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`

	rows, err := r.db.QueryContext(ctx, q, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying change events: %w", err)
	}
	defer rows.Close()

	var events []model.ChangeEvent
	for rows.Next() {
		event, err := scanChangeEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning change event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanChangeEvent(rows *sql.Rows) (model.ChangeEvent, error) {
	var e model.ChangeEvent
	var sourceSystem, targetSystem, description sql.NullString
	var userCountChange sql.NullInt64
	var requirementsJSON sql.NullString

	err := rows.Scan(
		&e.ID, &e.Type, &e.Timestamp,
		&sourceSystem, &targetSystem,
		&userCountChange, &requirementsJSON,
		&description, &e.Status,
	)
	if err != nil {
		return model.ChangeEvent{}, err
	}

	e.SourceSystem = sourceSystem.String
	e.TargetSystem = targetSystem.String
	e.Description = description.String
	if userCountChange.Valid {
		e.UserCountChange = int(userCountChange.Int64)
	}
	if requirementsJSON.Valid && requirementsJSON.String != "" {
		if err := json.Unmarshal([]byte(requirementsJSON.String), &e.ResourceRequirements); err != nil {
			e.ResourceRequirements = nil
		}
	}
	return e, nil
}
