package fleet

// AnalyticsData is the aggregated fleet metrics for a reporting period.
type AnalyticsData struct {
	TotalVehicles         int     `json:"total_vehicles"`
	ActiveVehicles        int     `json:"active_vehicles"`
	TotalDistanceKm       float64 `json:"total_distance_km"`
	TotalFuelCost         float64 `json:"total_fuel_cost"`
	TotalMaintenanceCost  float64 `json:"total_maintenance_cost"`
	TotalTollCost         float64 `json:"total_toll_cost"`
	AverageFuelEfficiency float64 `json:"average_fuel_efficiency"`
}

// Vehicle is one fleet vehicle as reported by the vehicle service.
type Vehicle struct {
	ID           string `json:"id"`
	VIN          string `json:"vin"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	FuelType     string `json:"fuel_type"`
	Mileage      int    `json:"mileage"`
	Status       string `json:"status"`
	LicensePlate string `json:"license_plate"`
}

// VehicleList is the vehicle service response.
type VehicleList struct {
	Vehicles   []Vehicle `json:"vehicles"`
	TotalCount int       `json:"total_count"`
}

// Trip is one recorded trip as reported by the analytics service.
type Trip struct {
	ID            string  `json:"id"`
	VehicleID     string  `json:"vehicle_id"`
	VehicleLabel  string  `json:"vehicle_label"`
	StartLocation string  `json:"start_location"`
	EndLocation   string  `json:"end_location"`
	DistanceKm    float64 `json:"distance_km"`
	FuelCost      float64 `json:"fuel_cost"`
	TollsCost     float64 `json:"tolls_cost"`
	Notes         string  `json:"notes"`
}

// TripList is the analytics service trips response plus totals.
type TripList struct {
	Trips         []Trip  `json:"trips"`
	TotalCount    int     `json:"total_count"`
	TotalDistance float64 `json:"total_distance"`
	TotalFuelCost float64 `json:"total_fuel_cost"`
}

type fuelLog struct {
	TotalCost float64 `json:"total_cost"`
	Liters    float64 `json:"liters"`
}
