package sqlite

import (
	"context"
	"fmt"

	"github.com/aranetools/aranetcloud/internal/domain/model"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReadingStore = (*ReadingRepo)(nil)

// ReadingRepo is the SQLite implementation of the ReadingStore port.
type ReadingRepo struct {
	db *DB
}

// NewReadingRepo creates a new ReadingRepo backed by the given DB.
func NewReadingRepo(db *DB) *ReadingRepo {
	return &ReadingRepo{db: db}
}

// UpsertBatch stores readings in a single transaction, replacing rows with
// the same (sensor, timestamp, metric) key. Re-archiving an overlapping
// time window is therefore idempotent.
func (r *ReadingRepo) UpsertBatch(ctx context.Context, readings []model.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const query = `
		INSERT INTO readings (sensor_id, taken_at, metric, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (sensor_id, taken_at, metric)
		DO UPDATE SET value = excluded.value, archived_at = CURRENT_TIMESTAMP
	`

	for _, reading := range readings {
		if _, err := tx.ExecContext(ctx, query,
			reading.SensorID, reading.TakenAt, reading.Metric, reading.Value,
		); err != nil {
			return fmt.Errorf("upsert reading for sensor %s at %s: %w",
				reading.SensorID, reading.TakenAt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit readings: %w", err)
	}

	return nil
}

// GetBySensor returns the archived readings of a sensor with
// from <= taken_at <= to, ordered by taken_at then metric. Empty bounds
// are open.
func (r *ReadingRepo) GetBySensor(ctx context.Context, sensorID, from, to string) ([]model.Reading, error) {
	const query = `
		SELECT id, sensor_id, taken_at, metric, value
		FROM readings
		WHERE sensor_id = ?
		  AND (? = '' OR taken_at >= ?)
		  AND (? = '' OR taken_at <= ?)
		ORDER BY taken_at, metric
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, sensorID, from, from, to, to)
	if err != nil {
		return nil, fmt.Errorf("query readings for sensor %s: %w", sensorID, err)
	}
	defer rows.Close()

	var readings []model.Reading
	for rows.Next() {
		var reading model.Reading
		if err := rows.Scan(
			&reading.ID, &reading.SensorID, &reading.TakenAt,
			&reading.Metric, &reading.Value,
		); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, nil
}

// CountBySensor returns the number of archived readings for a sensor.
func (r *ReadingRepo) CountBySensor(ctx context.Context, sensorID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM readings WHERE sensor_id = ?`

	var count int64
	if err := r.db.Reader.QueryRowContext(ctx, query, sensorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count readings for sensor %s: %w", sensorID, err)
	}
	return count, nil
}
