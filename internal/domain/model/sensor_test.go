package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aranetools/aranetcloud/internal/domain/model"
)

func TestFlattenSensors(t *testing.T) {
	sensors := []model.Sensor{
		{
			ID:   json.Number("4196648"),
			Name: "1.01",
			Metrics: []model.MetricValue{
				{ID: "1", Time: 1650000000, Value: json.Number("21.4")},
				{ID: "3", Time: 1650000000, Value: json.Number("612")},
			},
			Telemetry: []model.TelemetryValue{
				{ID: "61", Value: json.Number("-71")},
				{ID: "62", Value: json.Number("98")},
			},
		},
		{
			ID:   json.Number("4196649"),
			Name: "Lab",
			Metrics: []model.MetricValue{
				{ID: "2", Time: 1650000060, Value: json.Number("48")},
			},
		},
	}

	attrs := model.FlattenSensors(sensors)

	assert.Equal(t, 2, attrs["num_sensors"])
	assert.Equal(t, int64(1650000000), attrs["1.01_time"])
	assert.Equal(t, json.Number("21.4"), attrs["1.01_temperature"])
	assert.Equal(t, json.Number("612"), attrs["1.01_CO2"])
	assert.Equal(t, json.Number("-71"), attrs["1.01_RSSI"])
	assert.Equal(t, json.Number("98"), attrs["1.01_battery"])
	assert.Equal(t, int64(1650000060), attrs["Lab_time"])
	assert.Equal(t, json.Number("48"), attrs["Lab_humidity"])
}

func TestFlattenSensors_UnknownMetricKeepsRawID(t *testing.T) {
	sensors := []model.Sensor{
		{
			Name: "Lab",
			Metrics: []model.MetricValue{
				{ID: "99", Time: 1650000000, Value: json.Number("7")},
			},
		},
	}

	attrs := model.FlattenSensors(sensors)

	assert.Equal(t, json.Number("7"), attrs["Lab_99"])
}

func TestFlattenSensors_Empty(t *testing.T) {
	attrs := model.FlattenSensors(nil)

	assert.Equal(t, 0, attrs["num_sensors"])
	assert.Len(t, attrs, 1)
}

// The flat attribute map must serialize with numeric readings as JSON
// numbers, since Home Assistant templates do arithmetic on them.
func TestFlattenSensors_JSONRoundTrip(t *testing.T) {
	sensors := []model.Sensor{
		{
			Name: "Office",
			Metrics: []model.MetricValue{
				{ID: "1", Time: 1650000000, Value: json.Number("21.4")},
			},
		},
	}

	out, err := json.Marshal(model.FlattenSensors(sensors))

	require.NoError(t, err)
	assert.JSONEq(t, `{"num_sensors":1,"Office_time":1650000000,"Office_temperature":21.4}`, string(out))
}
