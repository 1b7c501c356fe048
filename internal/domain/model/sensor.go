package model

import "encoding/json"

// Metric ids reported by Aranet CO2 sensors. The full catalog for a space
// is available from the metrics/{space} endpoint; these are the ones the
// sensors we target always carry.
var MetricNames = map[string]string{
	"1": "temperature",
	"2": "humidity",
	"3": "CO2",
	"4": "pressure",
}

// Telemetry ids reported alongside the sensor metrics.
var TelemetryNames = map[string]string{
	"61": "RSSI",
	"62": "battery",
}

// MetricUnits maps metric and telemetry names to their display units, used
// by the Home Assistant configuration generator.
var MetricUnits = map[string]string{
	"temperature": "°C",
	"humidity":    "%",
	"CO2":         "ppm",
	"pressure":    "hPa",
	"RSSI":        "dBm",
	"battery":     "%",
}

// MetricIDs returns the known metric ids in a stable order, the default
// metric selection for history exports.
func MetricIDs() []string {
	return []string{"1", "2", "3", "4"}
}

// TelemetryIDs returns the known telemetry ids in a stable order.
func TelemetryIDs() []string {
	return []string{"61", "62"}
}

// MetricValue is a single metric reading attached to a sensor listing.
type MetricValue struct {
	ID    string      `json:"id"`
	Time  int64       `json:"t"`
	Value json.Number `json:"v"`
}

// TelemetryValue is a single telemetry reading attached to a sensor listing.
type TelemetryValue struct {
	ID    string      `json:"id"`
	Value json.Number `json:"v"`
}

// DeviceLink records a sensor's pairing with a gateway. RemovedAt is empty
// for active pairings; for removed ones SensorName holds the name the
// sensor had when it was paired.
type DeviceLink struct {
	ID         json.Number `json:"id"`
	PairedAt   string      `json:"pair"`
	RemovedAt  string      `json:"removed"`
	SensorName string      `json:"name"`
}

// Sensor is one item of the sensor listing. Which fields are populated
// depends on the field selection of the request.
type Sensor struct {
	ID        json.Number      `json:"id"`
	Name      string           `json:"name"`
	Metrics   []MetricValue    `json:"metrics"`
	Telemetry []TelemetryValue `json:"telemetry"`
	Devices   []DeviceLink     `json:"devices"`
}

// FlattenSensors converts a sensor listing into the flat attribute map
// consumed by Home Assistant's command_line sensor: num_sensors plus one
// <sensor>_<metric> entry per reading and a <sensor>_time entry carrying
// the timestamp of the first metric. Readings with an id missing from the
// catalogs keep the raw id as the attribute suffix.
func FlattenSensors(sensors []Sensor) map[string]any {
	attrs := make(map[string]any)
	attrs["num_sensors"] = len(sensors)

	for _, s := range sensors {
		if len(s.Metrics) > 0 {
			attrs[s.Name+"_time"] = s.Metrics[0].Time
		}
		for _, m := range s.Metrics {
			name, ok := MetricNames[m.ID]
			if !ok {
				name = m.ID
			}
			attrs[s.Name+"_"+name] = m.Value
		}
		for _, tv := range s.Telemetry {
			name, ok := TelemetryNames[tv.ID]
			if !ok {
				name = tv.ID
			}
			attrs[s.Name+"_"+name] = tv.Value
		}
	}

	return attrs
}
