package thermal

import "math"

const (
	// altitudeGradient is the temperature drop per metre of altitude.
	altitudeGradient = 0.0065

	minColdWaterTemp     = 2.0
	minWinterAmbientTemp = -5.0
	// ambientAltitudeCap is the altitude above which winter ambient stops
	// getting colder.
	ambientAltitudeCap = 2000.0

	minPeakSunHours = 1.0
	maxPeakSunHours = 6.0
)

// sunBreakpoints maps absolute latitude to daily peak-sun-hours. Beyond the
// last point the final slope continues until the floor.
var sunBreakpoints = []struct {
	latitude float64
	hours    float64
}{
	{0, 5.5},
	{15, 4.5},
	{30, 3.5},
	{45, 2.5},
	{60, 1.5},
}

// PeakSunHours interpolates daily peak-sun-hours for a latitude, clamped to
// [1.0, 6.0]. A non-finite latitude yields NaN.
func PeakSunHours(latitude float64) float64 {
	lat := math.Abs(latitude)
	last := len(sunBreakpoints) - 1

	for i := 0; i < last; i++ {
		lo, hi := sunBreakpoints[i], sunBreakpoints[i+1]
		if lat < hi.latitude {
			h := lo.hours + (lat-lo.latitude)*(hi.hours-lo.hours)/(hi.latitude-lo.latitude)
			return clamp(h, minPeakSunHours, maxPeakSunHours)
		}
	}

	prev, end := sunBreakpoints[last-1], sunBreakpoints[last]
	slope := (end.hours - prev.hours) / (end.latitude - prev.latitude)
	return clamp(end.hours+(lat-end.latitude)*slope, minPeakSunHours, maxPeakSunHours)
}

// ColdWaterTemp de-rates a band's mains water temperature for altitude.
func ColdWaterTemp(base, altitude float64) float64 {
	return math.Max(minColdWaterTemp, base-altitudeGradient*math.Max(altitude, 0))
}

// WinterAmbientTemp de-rates a band's winter ambient temperature for altitude.
// The effect stops growing above 2000 m.
func WinterAmbientTemp(base, altitude float64) float64 {
	alt := math.Min(math.Max(altitude, 0), ambientAltitudeCap)
	return math.Max(minWinterAmbientTemp, base-altitudeGradient*alt)
}

// CollectorEfficiency is the linear collector efficiency at a mean fluid
// temperature, kept within [0, optical efficiency].
func CollectorEfficiency(c CollectorModel, meanFluidTemp, ambientTemp float64) float64 {
	eta := c.OpticalEfficiency - c.LinearLossCoefficient*(meanFluidTemp-ambientTemp)/peakIrradiance
	return clamp(eta, 0, c.OpticalEfficiency)
}

// HeightMultiplier inflates heat loss by 10% per 0.1 m of ceiling above 2.7 m.
func HeightMultiplier(height float64) float64 {
	if height <= referenceCeilingHeight {
		return 1
	}
	return 1 + (height-referenceCeilingHeight)/heightStep*heightStepIncrease
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
