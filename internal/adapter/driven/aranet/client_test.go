package aranet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aranetadapter "github.com/aranetools/aranetcloud/internal/adapter/driven/aranet"
	"github.com/aranetools/aranetcloud/internal/domain/model"
	"github.com/aranetools/aranetcloud/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *aranetadapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return aranetadapter.NewClientWithHTTPClient(
		server.Client(),
		server.URL,
		"user@example.com",
		"hunter2",
	)
}

func testSession() model.Session {
	return model.Session{Token: "T1", SpaceID: "42"}
}

func TestLogin_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["login"])
		assert.Equal(t, "hunter2", body["passw"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"auth":"T1","spaces":{"42":"Office"}}`))
	})

	client := newTestClient(t, handler)
	data, err := client.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "T1", data.Auth)
	assert.Equal(t, map[string]string{"42": "Office"}, data.Spaces)
	assert.JSONEq(t, `{"auth":"T1","spaces":{"42":"Office"}}`, string(data.Raw))
}

func TestLogin_Unauthorized(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := newTestClient(t, handler)
	_, err := client.Login(context.Background())

	assert.ErrorIs(t, err, driven.ErrNotAuthorized)
}

func TestLogin_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := newTestClient(t, handler)
	_, err := client.Login(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, driven.ErrNotAuthorized)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchSensors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sensors/42", r.URL.Path)
		assert.Equal(t, "metrics,telemetry,name", r.URL.Query().Get("fields"))
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"items":[
			{"id":4196648,"name":"1.01","metrics":[{"id":"1","t":1650000000,"v":21.4}],
			 "telemetry":[{"id":"62","v":98}]},
			{"id":4196649,"name":"Lab"}
		]}}`))
	})

	client := newTestClient(t, handler)
	sensors, err := client.FetchSensors(context.Background(), testSession(), nil)

	require.NoError(t, err)
	require.Len(t, sensors, 2)
	assert.Equal(t, "4196648", sensors[0].ID.String())
	assert.Equal(t, "1.01", sensors[0].Name)
	require.Len(t, sensors[0].Metrics, 1)
	assert.Equal(t, "1", sensors[0].Metrics[0].ID)
	assert.Equal(t, int64(1650000000), sensors[0].Metrics[0].Time)
	assert.Equal(t, json.Number("21.4"), sensors[0].Metrics[0].Value)
	require.Len(t, sensors[0].Telemetry, 1)
	assert.Equal(t, "62", sensors[0].Telemetry[0].ID)
	assert.Equal(t, "Lab", sensors[1].Name)
}

func TestFetchSensors_FieldSelection(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name,devices", r.URL.Query().Get("fields"))
		w.Write([]byte(`{"data":{"items":[]}}`))
	})

	client := newTestClient(t, handler)
	sensors, err := client.FetchSensors(context.Background(), testSession(), []string{"name", "devices"})

	require.NoError(t, err)
	assert.Empty(t, sensors)
}

func TestFetchSensors_Unauthorized(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := newTestClient(t, handler)
	_, err := client.FetchSensors(context.Background(), testSession(), nil)

	assert.ErrorIs(t, err, driven.ErrNotAuthorized)
}

func TestFetchSensorExport(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sensors/42/sensor/4196648/export", r.URL.Path)
		assert.Equal(t, "1,2,3,4", r.URL.Query().Get("metric"))
		assert.Equal(t, "2025-03-01T00:00:00Z", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-03-02T00:00:00Z", r.URL.Query().Get("to"))
		assert.Equal(t, "0000", r.URL.Query().Get("timezone"))
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))

		w.Write([]byte("Sensor 1.01 export\nDate/Time;Temperature;CO2\n2025-03-01 10:00;21.4;612\n2025-03-01 10:05;21.5;640\n"))
	})

	client := newTestClient(t, handler)
	export, err := client.FetchSensorExport(context.Background(), testSession(), model.ExportQuery{
		SensorID: "4196648",
		From:     "2025-03-01T00:00:00Z",
		To:       "2025-03-02T00:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Date/Time", "Temperature", "CO2"}, export.Columns)
	require.Len(t, export.Rows, 2)
	assert.Equal(t, []string{"2025-03-01 10:00", "21.4", "612"}, export.Rows[0])
}

func TestFetchSensorExport_ExplicitQuery(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1,3", r.URL.Query().Get("metric"))
		assert.Equal(t, "0200", r.URL.Query().Get("timezone"))
		w.Write([]byte("banner\nDate/Time;Temperature\n"))
	})

	client := newTestClient(t, handler)
	export, err := client.FetchSensorExport(context.Background(), testSession(), model.ExportQuery{
		SensorID: "4196648",
		Metrics:  []string{"1", "3"},
		Timezone: "0200",
	})

	require.NoError(t, err)
	assert.Empty(t, export.Rows)
}

func TestFetchMetrics(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/42", r.URL.Path)
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"items":[
			{"id":1,"name":"temperature","unit":"°C"},
			{"id":3,"name":"CO2","unit":"ppm"}
		]}}`))
	})

	client := newTestClient(t, handler)
	metrics, err := client.FetchMetrics(context.Background(), testSession())

	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, "temperature", metrics[0].Name)
	assert.Equal(t, "ppm", metrics[1].Unit)
}

func TestFetchAlarmRules(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alarms/42/rules", r.URL.Path)
		w.Write([]byte(`{"data":{"items":[
			{"id":7,"name":"CO2 high","metric":3,"enabled":true,"max":1200}
		]}}`))
	})

	client := newTestClient(t, handler)
	rules, err := client.FetchAlarmRules(context.Background(), testSession())

	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "CO2 high", rules[0].Name)
	assert.True(t, rules[0].Enabled)
	require.NotNil(t, rules[0].Max)
	assert.Equal(t, float64(1200), *rules[0].Max)
	assert.Nil(t, rules[0].Min)
}

func TestFetchGateways(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gateways/42", r.URL.Path)
		w.Write([]byte(`{"devices":[
			{"id":100,"device":"Basement GW","serial":"GW-100"}
		]}`))
	})

	client := newTestClient(t, handler)
	gateways, err := client.FetchGateways(context.Background(), testSession())

	require.NoError(t, err)
	require.Len(t, gateways, 1)
	assert.Equal(t, "100", gateways[0].ID.String())
	assert.Equal(t, "Basement GW", gateways[0].Name)
	assert.Equal(t, "GW-100", gateways[0].Serial)
}

func TestGet_ServerErrorIsNotAuthError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(t, handler)
	_, err := client.FetchGateways(context.Background(), testSession())

	require.Error(t, err)
	assert.NotErrorIs(t, err, driven.ErrNotAuthorized)
}
