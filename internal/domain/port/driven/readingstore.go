package driven

import (
	"context"

	"github.com/aranetools/aranetcloud/internal/domain/model"
)

// ReadingStore defines the driven port for the local telemetry archive.
type ReadingStore interface {
	// UpsertBatch stores readings, replacing rows with the same
	// (sensor, timestamp, metric) key so repeated archive runs over
	// overlapping windows stay idempotent.
	UpsertBatch(ctx context.Context, readings []model.Reading) error

	// GetBySensor returns the archived readings of a sensor with
	// from <= taken_at <= to, ordered by taken_at then metric.
	// Empty bounds are open.
	GetBySensor(ctx context.Context, sensorID, from, to string) ([]model.Reading, error)

	// CountBySensor returns the number of archived readings for a sensor.
	CountBySensor(ctx context.Context, sensorID string) (int64, error)
}
