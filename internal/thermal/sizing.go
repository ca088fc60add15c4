package thermal

import (
	"fmt"
	"math"
)

const (
	waterDensity      = 1.0   // kg/L
	waterSpecificHeat = 1.163 // Wh/kg·°C

	referenceCeilingHeight = 2.7
	heightStep             = 0.1
	heightStepIncrease     = 0.10

	heatingDaysPerYear   = 150.0
	heatingHoursPerDay   = 16.0
	powerSafetyMargin    = 1.15
	coldClimateThreshold = 10.0
	coldHeatingFraction  = 0.70
	mildHeatingFraction  = 0.60

	storedWaterTemp      = 65.0
	minUsefulWaterTemp   = 48.0
	stratificationFactor = 0.65
	storageSafetyFactor  = 1.2

	peakIrradiance        = 800.0 // W/m²
	collectorSafetyFactor = 1.3
	// boilerStandingLoss is the daily heat loss of stored water, kWh per litre.
	boilerStandingLoss = 0.004

	pipeMarkup = 1.2

	maxPanelCount = math.MaxInt32

	maxAutonomyDays = 7
)

// Limits are the floors substituted for degenerate results.
type Limits struct {
	MinCollectorArea float64 // m²
	MinBoilerVolume  float64 // L
}

// DefaultLimits are used by Engine unless overridden.
var DefaultLimits = Limits{
	MinCollectorArea: 0.1,
	MinBoilerVolume:  1,
}

// Params are the inputs of a sizing run.
type Params struct {
	Occupants     int     `json:"occupants"`
	Usage         string  `json:"usage"`
	Latitude      float64 `json:"latitude"`
	Altitude      float64 `json:"altitude"`
	FloorArea     float64 `json:"floor_area"`
	CeilingHeight float64 `json:"ceiling_height"`
	EnergyClass   string  `json:"energy_class"`
	AutonomyDays  int     `json:"autonomy_days"`
	WaterHeating  bool    `json:"water_heating"`
	SpaceHeating  bool    `json:"space_heating"`
}

// WaterResult is the domestic hot water part of a sizing.
type WaterResult struct {
	DailyVolume   float64 `json:"daily_volume"`  // L/day
	EnergyDemand  float64 `json:"energy_demand"` // kWh/day
	BoilerVolume  float64 `json:"boiler_volume"` // L
	Efficiency    float64 `json:"efficiency"`
	CollectorArea float64 `json:"collector_area"` // m²
}

// SpaceResult is the space heating part of a sizing.
type SpaceResult struct {
	HeightMultiplier  float64 `json:"height_multiplier"`
	HeatingFraction   float64 `json:"heating_fraction"`
	AnnualConsumption float64 `json:"annual_consumption"` // kWh/year
	DailyDemand       float64 `json:"daily_demand"`       // kWh/day
	RequiredPower     float64 `json:"required_power"`     // W
	StorageVolume     float64 `json:"storage_volume"`     // L
	Efficiency        float64 `json:"efficiency"`
	CollectorArea     float64 `json:"collector_area"` // m²
}

// CostBreakdown is the installation cost in the locale's currency.
type CostBreakdown struct {
	Currency   string  `json:"currency"`
	Panels     float64 `json:"panels"`
	Boiler     float64 `json:"boiler"`
	Piping     float64 `json:"piping"`
	Insulation float64 `json:"insulation"`
	Radiators  float64 `json:"radiators"`
	Total      float64 `json:"total"`
}

// Result is the output of a sizing run.
type Result struct {
	Locale            string        `json:"locale"`
	ClimateZone       string        `json:"climate_zone"`
	UsageTier         string        `json:"usage_tier"`
	EnergyClass       string        `json:"energy_class"`
	PeakSunHours      float64       `json:"peak_sun_hours"`
	ColdWaterTemp     float64       `json:"cold_water_temp"`
	WinterAmbientTemp float64       `json:"winter_ambient_temp"`
	Water             WaterResult   `json:"water"`
	Space             SpaceResult   `json:"space"`
	CollectorArea     float64       `json:"collector_area"`
	PanelCount        int           `json:"panel_count"`
	BoilerVolume      float64       `json:"boiler_volume"`
	Rooms             []RoomSizing  `json:"rooms,omitempty"`
	Cost              CostBreakdown `json:"cost"`
	Warnings          []string      `json:"warnings,omitempty"`
}

// Size computes a sizing from a lookup set. It is pure: identical inputs give
// identical results, and degenerate values are replaced by limits and noted
// in Result.Warnings instead of failing.
func Size(lookup *LookupSet, p Params, limits Limits) Result {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	p = sanitize(p, warn)

	band := lookup.Climate.Band(p.Latitude)
	tierKey, tier := lookup.UsageTier(p.Usage)
	class := lookup.EnergyClass(p.EnergyClass)

	coldWater := ColdWaterTemp(band.ColdWaterTemp, p.Altitude)
	ambient := WinterAmbientTemp(band.WinterAmbientTemp, p.Altitude)

	hsp := PeakSunHours(p.Latitude)
	if !finite(hsp) || hsp <= 0 {
		warn("peak sun hours not computable for latitude %v; using %s table value %.2f", p.Latitude, band.Key, band.PeakSunHours)
		hsp = band.PeakSunHours
	}

	res := Result{
		Locale:            lookup.Locale,
		ClimateZone:       band.Key,
		UsageTier:         tierKey,
		EnergyClass:       class.Code,
		PeakSunHours:      hsp,
		ColdWaterTemp:     coldWater,
		WinterAmbientTemp: ambient,
	}

	if p.WaterHeating {
		res.Water = sizeWater(lookup, p, tier, coldWater, ambient, hsp, limits, warn)
	}
	if p.SpaceHeating {
		res.Space = sizeSpace(lookup, p, class, ambient, hsp, limits, warn)
		res.Rooms = sizeRooms(lookup, p.FloorArea, class.Consumption, res.Space.HeightMultiplier, res.Space.HeatingFraction)
	}

	res.CollectorArea = math.Max(res.Water.CollectorArea+res.Space.CollectorArea, limits.MinCollectorArea)
	res.PanelCount = panelCount(res.CollectorArea, lookup.Collector.Area, warn)
	res.BoilerVolume = math.Max(res.Water.BoilerVolume+res.Space.StorageVolume, limits.MinBoilerVolume)
	res.Cost = costOf(lookup, res)
	res.Warnings = warnings
	return res
}

func sanitize(p Params, warn func(string, ...any)) Params {
	if p.Occupants < 0 {
		p.Occupants = 0
	}
	if !finite(p.Altitude) || p.Altitude < 0 {
		if !finite(p.Altitude) {
			warn("altitude %v not finite; using 0 m", p.Altitude)
		}
		p.Altitude = 0
	}
	if !finite(p.FloorArea) || p.FloorArea < 0 {
		if !finite(p.FloorArea) {
			warn("floor area %v not finite; using 0 m²", p.FloorArea)
		}
		p.FloorArea = 0
	}
	if !finite(p.CeilingHeight) || p.CeilingHeight <= 0 {
		if !finite(p.CeilingHeight) {
			warn("ceiling height %v not finite; using %.1f m", p.CeilingHeight, referenceCeilingHeight)
		}
		p.CeilingHeight = referenceCeilingHeight
	}
	if p.AutonomyDays < 1 {
		p.AutonomyDays = 1
	}
	if p.AutonomyDays > maxAutonomyDays {
		p.AutonomyDays = maxAutonomyDays
	}
	return p
}

func sizeWater(lookup *LookupSet, p Params, tier UsageTier, coldWater, ambient, hsp float64, limits Limits, warn func(string, ...any)) WaterResult {
	volume := float64(p.Occupants) * tier.LitersPerPerson
	deltaT := math.Max(0, tier.DesiredTemp-coldWater)
	energy := volume * waterDensity * waterSpecificHeat * deltaT / 1000

	w := WaterResult{
		DailyVolume:  volume,
		EnergyDemand: energy,
		BoilerVolume: volume * float64(p.AutonomyDays) * tier.AutonomyFactor,
	}

	w.Efficiency = CollectorEfficiency(lookup.Collector, (coldWater+tier.DesiredTemp)/2, ambient)
	area := (energy + w.BoilerVolume*boilerStandingLoss) * collectorSafetyFactor / (hsp * w.Efficiency)
	w.CollectorArea = areaOrMinimum("water", area, limits, warn)
	return w
}

func sizeSpace(lookup *LookupSet, p Params, class EnergyClass, ambient, hsp float64, limits Limits, warn func(string, ...any)) SpaceResult {
	s := SpaceResult{
		HeightMultiplier: HeightMultiplier(p.CeilingHeight),
		HeatingFraction:  HeatingFraction(ambient),
	}
	s.AnnualConsumption = class.Consumption * p.FloorArea * s.HeightMultiplier * s.HeatingFraction
	s.DailyDemand = s.AnnualConsumption / heatingDaysPerYear
	s.RequiredPower = RequiredPower(s.DailyDemand)
	s.StorageVolume = StorageVolume(s.DailyDemand, p.AutonomyDays)

	s.Efficiency = CollectorEfficiency(lookup.Collector, (storedWaterTemp+minUsefulWaterTemp)/2, ambient)
	window := (s.DailyDemand + s.StorageVolume*boilerStandingLoss) * float64(p.AutonomyDays)
	area := window * collectorSafetyFactor / (hsp * s.Efficiency)
	s.CollectorArea = areaOrMinimum("space heating", area, limits, warn)
	return s
}

// HeatingFraction is the share of the annual consumption that falls in the
// heating season for a winter ambient temperature.
func HeatingFraction(ambient float64) float64 {
	if ambient < coldClimateThreshold {
		return coldHeatingFraction
	}
	return mildHeatingFraction
}

// RequiredPower converts a daily heating demand in kWh to the continuous
// emitter power in W, including the safety margin.
func RequiredPower(dailyDemand float64) float64 {
	return dailyDemand / heatingHoursPerDay * 1000 * powerSafetyMargin
}

// StorageVolume is the stratified tank volume in litres that carries a daily
// demand through the autonomy window.
func StorageVolume(dailyDemand float64, autonomyDays int) float64 {
	usable := waterSpecificHeat * (storedWaterTemp - minUsefulWaterTemp) * stratificationFactor
	return dailyDemand * float64(autonomyDays) * 1000 / usable * storageSafetyFactor
}

func areaOrMinimum(part string, area float64, limits Limits, warn func(string, ...any)) float64 {
	if !finite(area) {
		warn("%s collector area not finite; using minimum %.2f m²", part, limits.MinCollectorArea)
		return limits.MinCollectorArea
	}
	return math.Max(area, limits.MinCollectorArea)
}

func panelCount(area, referenceArea float64, warn func(string, ...any)) int {
	if referenceArea <= 0 || !finite(referenceArea) {
		warn("reference collector area %v invalid; using one panel", referenceArea)
		return 1
	}
	ratio := math.Ceil(area / referenceArea)
	if !finite(ratio) || ratio > maxPanelCount {
		warn("collector area %.4g m² needs more than %d panels; capped", area, maxPanelCount)
		return maxPanelCount
	}
	if ratio < 1 {
		return 1
	}
	return int(ratio)
}

func costOf(lookup *LookupSet, res Result) CostBreakdown {
	pr := lookup.Prices
	c := CostBreakdown{
		Currency:   lookup.Currency,
		Panels:     float64(res.PanelCount) * lookup.Collector.UnitPrice,
		Boiler:     res.BoilerVolume * pr.BoilerPerLiter,
		Piping:     pr.PipeLength * pr.PipePerMeter * pipeMarkup,
		Insulation: pr.PipeLength * pr.InsulationPerMeter,
	}
	for _, room := range res.Rooms {
		c.Radiators += room.Radiator.UnitPrice * float64(room.Radiator.Quantity)
	}
	c.Total = c.Panels + c.Boiler + c.Piping + c.Insulation + c.Radiators
	return c
}
