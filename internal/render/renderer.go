package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/fleetify/report-service/internal/domain"
	"github.com/fleetify/report-service/internal/fleet"
)

const companyName = "Fleetify"

// ContentType is the MIME type of rendered documents.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service renders report documents from fleet data. Output is not guaranteed
// to be byte-for-byte reproducible: workbooks embed the generation timestamp
// and the utilization report uses mock percentages.
type Service struct {
	provider fleet.Provider
	logger   *slog.Logger

	// utilization supplies the per-vehicle utilization percentage for the
	// vehicle-utilization report. Defaults to a mock 50-99%.
	utilization func(fleet.Vehicle) int
	now         func() time.Time
}

// Option customizes the renderer.
type Option func(*Service)

// WithUtilization overrides the utilization source.
func WithUtilization(fn func(fleet.Vehicle) int) Option {
	return func(s *Service) { s.utilization = fn }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a renderer backed by the given data provider.
func NewService(provider fleet.Provider, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		logger:   logger,
		utilization: func(fleet.Vehicle) int {
			return 50 + rand.Intn(50)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render produces the document for one report type. The data provider is
// invoked internally; its failures surface as empty report sections, not as
// render errors.
func (s *Service) Render(ctx context.Context, reportType domain.ReportType, params domain.Parameters, credential string) ([]byte, error) {
	s.logger.Info("Rendering report",
		slog.String("report_type", string(reportType)),
		slog.String("period_start", params.StartDate),
		slog.String("period_end", params.EndDate),
	)

	var (
		file *xlsx.File
		err  error
	)

	switch reportType {
	case domain.ReportFleetSummary:
		file, err = s.buildFleetSummary(ctx, params, credential)
	case domain.ReportVehicleUtilization:
		file, err = s.buildVehicleUtilization(ctx, params, credential)
	case domain.ReportCostAnalysis:
		file, err = s.buildCostAnalysis(ctx, params, credential)
	case domain.ReportTrips:
		file, err = s.buildTrips(ctx, params, credential)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownReportType, reportType)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) buildFleetSummary(ctx context.Context, params domain.Parameters, credential string) (*xlsx.File, error) {
	analytics := s.provider.FetchAggregates(ctx, credential, params.Range())
	vehicles := s.provider.FetchVehicles(ctx, credential)

	file := xlsx.NewFile()

	if params.IncludeSummary {
		sheet, err := file.AddSheet("Summary")
		if err != nil {
			return nil, fmt.Errorf("failed to add sheet: %w", err)
		}
		s.addTitle(sheet, "Fleet Summary Report", params)

		totalCosts := analytics.TotalFuelCost + analytics.TotalMaintenanceCost + analytics.TotalTollCost
		addKeyValueRows(sheet, [][2]interface{}{
			{"Total vehicles", analytics.TotalVehicles},
			{"Active vehicles", analytics.ActiveVehicles},
			{"Total distance (km)", analytics.TotalDistanceKm},
			{"Fuel cost", analytics.TotalFuelCost},
			{"Maintenance cost", analytics.TotalMaintenanceCost},
			{"Toll cost", analytics.TotalTollCost},
			{"Average consumption (L/100km)", analytics.AverageFuelEfficiency},
			{"Total costs", totalCosts},
		})
	}

	sheet, err := file.AddSheet("Vehicles")
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}
	addHeaderRow(sheet, "Vehicle", "License plate", "Status", "Mileage (km)", "Fuel type")
	for _, v := range vehicles.Vehicles {
		row := sheet.AddRow()
		row.AddCell().SetString(fmt.Sprintf("%s %s (%d)", v.Make, v.Model, v.Year))
		row.AddCell().SetString(orDash(v.LicensePlate))
		row.AddCell().SetString(v.Status)
		row.AddCell().SetInt(v.Mileage)
		row.AddCell().SetString(orDash(v.FuelType))
	}

	return file, nil
}

func (s *Service) buildVehicleUtilization(ctx context.Context, params domain.Parameters, credential string) (*xlsx.File, error) {
	vehicles := s.provider.FetchVehicles(ctx, credential)

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Utilization")
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	s.addTitle(sheet, "Vehicle Utilization Report", params)

	row := sheet.AddRow()
	row.AddCell().SetString("Total vehicles")
	row.AddCell().SetInt(vehicles.TotalCount)
	sheet.AddRow()

	addHeaderRow(sheet, "Vehicle", "License plate", "Mileage (km)", "Utilization %", "Status")
	for _, v := range vehicles.Vehicles {
		row := sheet.AddRow()
		row.AddCell().SetString(fmt.Sprintf("%s %s", v.Make, v.Model))
		row.AddCell().SetString(orDash(v.LicensePlate))
		row.AddCell().SetInt(v.Mileage)
		row.AddCell().SetInt(s.utilization(v))
		row.AddCell().SetString(v.Status)
	}

	return file, nil
}

func (s *Service) buildCostAnalysis(ctx context.Context, params domain.Parameters, credential string) (*xlsx.File, error) {
	analytics := s.provider.FetchAggregates(ctx, credential, params.Range())

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Costs")
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	s.addTitle(sheet, "Cost Analysis Report", params)

	total := analytics.TotalFuelCost + analytics.TotalMaintenanceCost + analytics.TotalTollCost

	addHeaderRow(sheet, "Category", "Amount", "Share %")
	addCostRow(sheet, "Fuel", analytics.TotalFuelCost, total)
	addCostRow(sheet, "Service and repairs", analytics.TotalMaintenanceCost, total)
	addCostRow(sheet, "Tolls", analytics.TotalTollCost, total)

	sheet.AddRow()
	row := sheet.AddRow()
	row.AddCell().SetString("Total cost")
	row.AddCell().SetFloat(total)

	return file, nil
}

func (s *Service) buildTrips(ctx context.Context, params domain.Parameters, credential string) (*xlsx.File, error) {
	trips := s.provider.FetchTrips(ctx, credential, params.Range())

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Trips")
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	s.addTitle(sheet, "Trips Report", params)

	if params.IncludeSummary {
		addKeyValueRows(sheet, [][2]interface{}{
			{"Total trips", trips.TotalCount},
			{"Total distance (km)", trips.TotalDistance},
			{"Total fuel cost", trips.TotalFuelCost},
		})
		sheet.AddRow()
	}

	addHeaderRow(sheet, "Vehicle", "From", "To", "Distance (km)", "Fuel cost", "Tolls", "Notes")
	for _, trip := range trips.Trips {
		row := sheet.AddRow()
		row.AddCell().SetString(orDash(trip.VehicleLabel))
		row.AddCell().SetString(orDash(trip.StartLocation))
		row.AddCell().SetString(orDash(trip.EndLocation))
		row.AddCell().SetFloat(trip.DistanceKm)
		row.AddCell().SetFloat(trip.FuelCost)
		row.AddCell().SetFloat(trip.TollsCost)
		row.AddCell().SetString(orDash(trip.Notes))
	}

	return file, nil
}

func (s *Service) addTitle(sheet *xlsx.Sheet, title string, params domain.Parameters) {
	row := sheet.AddRow()
	row.AddCell().SetString(title)

	row = sheet.AddRow()
	row.AddCell().SetString(companyName)

	row = sheet.AddRow()
	row.AddCell().SetString("Generated")
	row.AddCell().SetString(s.now().Format("02.01.2006 15:04"))

	row = sheet.AddRow()
	row.AddCell().SetString("Period")
	row.AddCell().SetString(fmt.Sprintf("%s - %s", orDash(params.StartDate), orDash(params.EndDate)))

	sheet.AddRow()
}

func addHeaderRow(sheet *xlsx.Sheet, headers ...string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}

func addKeyValueRows(sheet *xlsx.Sheet, pairs [][2]interface{}) {
	for _, pair := range pairs {
		row := sheet.AddRow()
		row.AddCell().SetString(fmt.Sprintf("%v", pair[0]))
		row.AddCell().SetValue(pair[1])
	}
}

func addCostRow(sheet *xlsx.Sheet, label string, amount, total float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(amount)
	if total > 0 {
		row.AddCell().SetFloat(amount * 100 / total)
	} else {
		row.AddCell().SetFloat(0)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
