// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aranetools/aranetcloud/internal/domain/model"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

// CloudService coordinates session acquisition and authenticated requests
// against the Aranet Cloud. Every public operation obtains a session from
// the cache (or a fresh login when the cache is unusable), resolves the
// configured space, runs the request, and — only when the session came
// from the cache — recovers from a single 401 by logging in once more and
// retrying the request exactly once.
type CloudService struct {
	client driven.CloudClient
	store  driven.SessionStore // nil disables the login cache
	space  string
}

// NewCloudService creates a CloudService. store may be nil, in which case
// every operation performs a fresh login.
func NewCloudService(client driven.CloudClient, store driven.SessionStore, spaceName string) *CloudService {
	return &CloudService{
		client: client,
		store:  store,
		space:  spaceName,
	}
}

// login performs a fresh login and persists the payload best-effort: a
// cache write failure is logged but never voids the successful login.
func (s *CloudService) login(ctx context.Context) (*model.LoginData, error) {
	data, err := s.client.Login(ctx)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, data); err != nil {
			slog.Error("saving login data to cache", "error", err)
		}
	}
	return data, nil
}

// do runs fn with a valid session. Cache-layer failures are recovered
// locally by logging in; a 401 from fn is recovered by at most one forced
// re-login, and only when the rejected session was a cached one. A freshly
// issued token being rejected is not retried.
func (s *CloudService) do(ctx context.Context, fn func(ctx context.Context, sess model.Session) error) error {
	var (
		data   *model.LoginData
		cached bool
		err    error
	)

	if s.store != nil {
		data, err = s.store.Load(ctx)
		cached = err == nil
		if err != nil {
			slog.Info("login cache unavailable", "reason", err)
			data = nil
		}
	}
	if data == nil {
		if data, err = s.login(ctx); err != nil {
			return err
		}
	}

	sess, err := data.Session(s.space)
	if err != nil {
		return err
	}

	err = fn(ctx, sess)
	if err == nil || !cached || !errors.Is(err, driven.ErrNotAuthorized) {
		return err
	}

	slog.Warn("cached session rejected by cloud, forcing fresh login")
	if data, err = s.login(ctx); err != nil {
		return err
	}
	if sess, err = data.Session(s.space); err != nil {
		return err
	}
	return fn(ctx, sess)
}

// Sensors lists the sensors of the configured space. fields selects which
// parts of each sensor to include; empty means metrics, telemetry and name.
func (s *CloudService) Sensors(ctx context.Context, fields []string) ([]model.Sensor, error) {
	var sensors []model.Sensor
	err := s.do(ctx, func(ctx context.Context, sess model.Session) error {
		var err error
		sensors, err = s.client.FetchSensors(ctx, sess, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sensors, nil
}

// SensorExport retrieves a time window of one sensor's history.
func (s *CloudService) SensorExport(ctx context.Context, q model.ExportQuery) (*model.SensorExport, error) {
	var export *model.SensorExport
	err := s.do(ctx, func(ctx context.Context, sess model.Session) error {
		var err error
		export, err = s.client.FetchSensorExport(ctx, sess, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return export, nil
}

// Metrics returns the metric catalog of the configured space.
func (s *CloudService) Metrics(ctx context.Context) ([]model.Metric, error) {
	var metrics []model.Metric
	err := s.do(ctx, func(ctx context.Context, sess model.Session) error {
		var err error
		metrics, err = s.client.FetchMetrics(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

// AlarmRules returns the alarm rules configured for the space.
func (s *CloudService) AlarmRules(ctx context.Context) ([]model.AlarmRule, error) {
	var rules []model.AlarmRule
	err := s.do(ctx, func(ctx context.Context, sess model.Session) error {
		var err error
		rules, err = s.client.FetchAlarmRules(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// Gateways returns the base stations registered in the space.
func (s *CloudService) Gateways(ctx context.Context) ([]model.Gateway, error) {
	var gateways []model.Gateway
	err := s.do(ctx, func(ctx context.Context, sess model.Session) error {
		var err error
		gateways, err = s.client.FetchGateways(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return gateways, nil
}

// Pairings joins the sensor listing with the gateway list into current and
// removed sensor-to-gateway pairings. Both fetches run under the same
// session acquisition, so a stale cached session costs one re-login for
// the pair of requests, not one each.
func (s *CloudService) Pairings(ctx context.Context) (current, removed []model.Pairing, err error) {
	err = s.do(ctx, func(ctx context.Context, sess model.Session) error {
		sensors, err := s.client.FetchSensors(ctx, sess, []string{"name", "devices"})
		if err != nil {
			return err
		}
		gateways, err := s.client.FetchGateways(ctx, sess)
		if err != nil {
			return err
		}
		current, removed = model.BuildPairings(sensors, gateways)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return current, removed, nil
}
