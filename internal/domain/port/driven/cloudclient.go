package driven

import (
	"context"
	"errors"

	"github.com/aranetools/aranetcloud/internal/domain/model"
)

// ErrNotAuthorized is returned when the cloud rejects a request with
// HTTP 401. For requests made with a cached session this drives the
// single forced re-login in the application layer.
var ErrNotAuthorized = errors.New("aranet cloud: not authorized")

// CloudClient defines the driven port for the Aranet Cloud HTTP API.
// All fetch methods are read-only and carry the session's bearer token;
// any of them can fail with ErrNotAuthorized.
type CloudClient interface {
	// Login exchanges the configured credentials for fresh login data.
	// Fails with ErrNotAuthorized when the cloud answers 401.
	Login(ctx context.Context) (*model.LoginData, error)

	// FetchSensors lists the sensors of the session's space. fields selects
	// which parts of each sensor to include; empty means metrics, telemetry
	// and name.
	FetchSensors(ctx context.Context, sess model.Session, fields []string) ([]model.Sensor, error)

	// FetchSensorExport retrieves a time window of one sensor's history.
	FetchSensorExport(ctx context.Context, sess model.Session, q model.ExportQuery) (*model.SensorExport, error)

	// FetchMetrics returns the metric catalog of the session's space.
	FetchMetrics(ctx context.Context, sess model.Session) ([]model.Metric, error)

	// FetchAlarmRules returns the alarm rules configured for the space.
	FetchAlarmRules(ctx context.Context, sess model.Session) ([]model.AlarmRule, error)

	// FetchGateways returns the base stations registered in the space.
	FetchGateways(ctx context.Context, sess model.Session) ([]model.Gateway, error)
}
