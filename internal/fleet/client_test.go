package fleet

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetify/report-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPeriod() domain.DateRange {
	return domain.DateRange{Start: "2025-01-01", End: "2025-01-31"}
}

func TestClient_FetchAggregates(t *testing.T) {
	var gotAuth string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/analytics/trips":
			w.Write([]byte(`[
				{"id":"t1","vehicle_id":"v1","distance_km":3000,"fuel_cost":900,"tolls_cost":120},
				{"id":"t2","vehicle_id":"v2","distance_km":2000,"fuel_cost":600,"tolls_cost":80}
			]`))
		case "/analytics/fuel-logs":
			w.Write([]byte(`[
				{"total_cost":1000,"liters":250},
				{"total_cost":500,"liters":150}
			]`))
		case "/vehicles":
			w.Write([]byte(`[
				{"id":"v1","make":"Ford","model":"Transit","status":"available"},
				{"id":"v2","make":"VW","model":"Crafter","status":"in_use"},
				{"id":"v3","make":"MAN","model":"TGE","status":"maintenance"}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	c := NewClient(&Config{AnalyticsURL: upstream.URL, VehicleURL: upstream.URL}, discardLogger())

	data := c.FetchAggregates(context.Background(), "Bearer secret", testPeriod())

	assert.Equal(t, "Bearer secret", gotAuth, "credential forwarded verbatim")
	assert.Equal(t, 3, data.TotalVehicles)
	assert.Equal(t, 2, data.ActiveVehicles)
	assert.InDelta(t, 5000, data.TotalDistanceKm, 0.001)
	assert.InDelta(t, 1500, data.TotalFuelCost, 0.001)
	assert.InDelta(t, 200, data.TotalTollCost, 0.001)
	assert.InDelta(t, 8.0, data.AverageFuelEfficiency, 0.001, "400 L over 5000 km is 8 L/100km")
}

func TestClient_FetchVehicles(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vehicles", r.URL.Path)
		w.Write([]byte(`[{"id":"v1","make":"Ford","model":"Transit","year":2021,"mileage":80000,"status":"available","license_plate":"WX 12345"}]`))
	}))
	defer upstream.Close()

	c := NewClient(&Config{AnalyticsURL: upstream.URL, VehicleURL: upstream.URL}, discardLogger())

	list := c.FetchVehicles(context.Background(), "")
	require.Len(t, list.Vehicles, 1)
	assert.Equal(t, 1, list.TotalCount)
	assert.Equal(t, "Ford", list.Vehicles[0].Make)
	assert.Equal(t, "WX 12345", list.Vehicles[0].LicensePlate)
}

func TestClient_FetchTripsTotals(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"t1","distance_km":120.5,"fuel_cost":40},
			{"id":"t2","distance_km":79.5,"fuel_cost":25}
		]`))
	}))
	defer upstream.Close()

	c := NewClient(&Config{AnalyticsURL: upstream.URL, VehicleURL: upstream.URL}, discardLogger())

	list := c.FetchTrips(context.Background(), "", testPeriod())
	assert.Equal(t, 2, list.TotalCount)
	assert.InDelta(t, 200, list.TotalDistance, 0.001)
	assert.InDelta(t, 65, list.TotalFuelCost, 0.001)
}

func TestClient_UpstreamFailuresDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "upstream 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(tt.handler)
			defer upstream.Close()

			c := NewClient(&Config{AnalyticsURL: upstream.URL, VehicleURL: upstream.URL}, discardLogger())

			data := c.FetchAggregates(context.Background(), "", testPeriod())
			assert.Zero(t, data.TotalVehicles)
			assert.Zero(t, data.TotalDistanceKm)
			assert.Zero(t, data.TotalFuelCost)

			vehicles := c.FetchVehicles(context.Background(), "")
			assert.Empty(t, vehicles.Vehicles)
			assert.Zero(t, vehicles.TotalCount)

			trips := c.FetchTrips(context.Background(), "", testPeriod())
			assert.Empty(t, trips.Trips)
		})
	}
}

func TestClient_UnreachableUpstream(t *testing.T) {
	// Nothing listens here; the provider must still hand back empty data.
	c := NewClient(&Config{
		AnalyticsURL: "http://127.0.0.1:1",
		VehicleURL:   "http://127.0.0.1:1",
	}, discardLogger())

	data := c.FetchAggregates(context.Background(), "Bearer x", testPeriod())
	assert.Zero(t, data.TotalVehicles)
	assert.Zero(t, data.ActiveVehicles)
}
