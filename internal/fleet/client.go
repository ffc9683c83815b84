package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fleetify/report-service/internal/domain"
)

// Provider supplies aggregated fleet data to the renderer. Implementations
// never return errors: on any upstream failure they log and hand back
// zero-valued results so a (possibly empty) report can still be rendered.
type Provider interface {
	FetchAggregates(ctx context.Context, credential string, period domain.DateRange) AnalyticsData
	FetchVehicles(ctx context.Context, credential string) VehicleList
	FetchTrips(ctx context.Context, credential string, period domain.DateRange) TripList
}

// Config holds the upstream service endpoints.
type Config struct {
	AnalyticsURL string
	VehicleURL   string
	Timeout      time.Duration
}

// Client is the HTTP-backed Provider talking to the analytics and vehicle
// services. The credential is forwarded verbatim as the Authorization header.
type Client struct {
	analyticsURL string
	vehicleURL   string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a data provider client.
func NewClient(cfg *Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		analyticsURL: cfg.AnalyticsURL,
		vehicleURL:   cfg.VehicleURL,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// FetchAggregates aggregates trips, fuel logs and the vehicle roster into
// fleet-wide metrics. Upstream failures degrade to empty inputs rather than
// failing the report.
func (c *Client) FetchAggregates(ctx context.Context, credential string, period domain.DateRange) AnalyticsData {
	c.logger.Info("Fetching analytics aggregates",
		slog.String("start", period.Start),
		slog.String("end", period.End),
	)

	trips := c.fetchTripsRaw(ctx, credential)
	fuelLogs := c.fetchFuelLogs(ctx, credential)
	vehicles := c.FetchVehicles(ctx, credential)

	var totalDistance, totalTollCost, totalFuelCost, totalLiters float64
	for _, trip := range trips {
		totalDistance += trip.DistanceKm
		totalTollCost += trip.TollsCost
	}
	for _, log := range fuelLogs {
		totalFuelCost += log.TotalCost
		totalLiters += log.Liters
	}

	// Average consumption in L/100km.
	var avgEfficiency float64
	if totalDistance > 0 && totalLiters > 0 {
		avgEfficiency = totalLiters * 100 / totalDistance
	}

	active := 0
	for _, v := range vehicles.Vehicles {
		if v.Status == "available" || v.Status == "in_use" {
			active++
		}
	}

	c.logger.Info("Aggregated fleet metrics",
		slog.Int("trips", len(trips)),
		slog.Int("fuel_logs", len(fuelLogs)),
		slog.Float64("total_distance_km", totalDistance),
		slog.Float64("total_fuel_cost", totalFuelCost),
	)

	return AnalyticsData{
		TotalVehicles:         vehicles.TotalCount,
		ActiveVehicles:        active,
		TotalDistanceKm:       totalDistance,
		TotalFuelCost:         totalFuelCost,
		TotalMaintenanceCost:  0,
		TotalTollCost:         totalTollCost,
		AverageFuelEfficiency: avgEfficiency,
	}
}

// FetchVehicles returns the vehicle roster, or an empty list on failure.
func (c *Client) FetchVehicles(ctx context.Context, credential string) VehicleList {
	var vehicles []Vehicle
	if err := c.getJSON(ctx, c.vehicleURL+"/vehicles", credential, &vehicles); err != nil {
		c.logger.Error("Failed to fetch vehicles",
			slog.Any("error", err),
		)
		return VehicleList{Vehicles: []Vehicle{}}
	}

	c.logger.Debug("Fetched vehicles",
		slog.Int("count", len(vehicles)),
	)

	return VehicleList{Vehicles: vehicles, TotalCount: len(vehicles)}
}

// FetchTrips returns the trips for the period with totals, or an empty list
// on failure.
func (c *Client) FetchTrips(ctx context.Context, credential string, period domain.DateRange) TripList {
	trips := c.fetchTripsRaw(ctx, credential)

	var totalDistance, totalFuelCost float64
	for _, trip := range trips {
		totalDistance += trip.DistanceKm
		totalFuelCost += trip.FuelCost
	}

	return TripList{
		Trips:         trips,
		TotalCount:    len(trips),
		TotalDistance: totalDistance,
		TotalFuelCost: totalFuelCost,
	}
}

func (c *Client) fetchTripsRaw(ctx context.Context, credential string) []Trip {
	var trips []Trip
	if err := c.getJSON(ctx, c.analyticsURL+"/analytics/trips", credential, &trips); err != nil {
		c.logger.Error("Failed to fetch trips",
			slog.Any("error", err),
		)
		return []Trip{}
	}
	return trips
}

func (c *Client) fetchFuelLogs(ctx context.Context, credential string) []fuelLog {
	var logs []fuelLog
	if err := c.getJSON(ctx, c.analyticsURL+"/analytics/fuel-logs", credential, &logs); err != nil {
		c.logger.Error("Failed to fetch fuel logs",
			slog.Any("error", err),
		)
		return []fuelLog{}
	}
	return logs
}

func (c *Client) getJSON(ctx context.Context, url, credential string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if credential != "" {
		req.Header.Set("Authorization", credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
