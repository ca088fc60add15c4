package thermal

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// São Paulo sits in the sudeste band: 22 °C mains water, 15 °C winter ambient.
const testLatitudeSP = -23.5

func brazil(t *testing.T) *LookupSet {
	t.Helper()
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	return reg.Lookup("pt-BR")
}

func waterParams() Params {
	return Params{
		Occupants:    4,
		Usage:        "standard",
		Latitude:     testLatitudeSP,
		AutonomyDays: 1,
		WaterHeating: true,
	}
}

func spaceParams() Params {
	return Params{
		Latitude:      testLatitudeSP,
		FloorArea:     100,
		CeilingHeight: 2.7,
		EnergyClass:   "D",
		AutonomyDays:  1,
		SpaceHeating:  true,
	}
}

func TestSize_WaterScenario(t *testing.T) {
	res := Size(brazil(t), waterParams(), DefaultLimits)

	assert.Equal(t, "pt-BR", res.Locale)
	assert.Equal(t, "sudeste", res.ClimateZone)
	assert.Equal(t, 22.0, res.ColdWaterTemp)
	assert.Equal(t, 160.0, res.Water.DailyVolume)
	assert.InDelta(t, 4.27984, res.Water.EnergyDemand, 1e-9)
	assert.Equal(t, 160.0, res.Water.BoilerVolume)
	assert.Equal(t, 160.0, res.BoilerVolume)
	assert.Greater(t, res.Water.Efficiency, 0.0)
	assert.LessOrEqual(t, res.Water.Efficiency, 0.72)
	assert.Equal(t, res.Water.CollectorArea, res.CollectorArea)
	assert.Equal(t, int(math.Ceil(res.CollectorArea/2.0)), res.PanelCount)
	assert.Empty(t, res.Rooms)
	assert.Empty(t, res.Warnings)
}

func TestSize_SpaceScenario(t *testing.T) {
	res := Size(brazil(t), spaceParams(), DefaultLimits)

	assert.Equal(t, 1.0, res.Space.HeightMultiplier)
	assert.Equal(t, 0.60, res.Space.HeatingFraction)
	assert.InDelta(t, 105.0, res.Space.AnnualConsumption, 1e-9)
	assert.InDelta(t, 0.70, res.Space.DailyDemand, 1e-9)
	assert.InDelta(t, 50.3125, res.Space.RequiredPower, 1e-9)
	assert.InDelta(t, 0.70*1000/(1.163*17*0.65)*1.2, res.Space.StorageVolume, 1e-9)
	assert.Zero(t, res.Water)
	assert.Len(t, res.Rooms, 5)
}

func TestSize_ColdClimateFraction(t *testing.T) {
	p := spaceParams()
	p.Latitude = -30 // sul, 9 °C winter ambient
	res := Size(brazil(t), p, DefaultLimits)

	assert.Equal(t, "sul", res.ClimateZone)
	assert.Equal(t, 0.70, res.Space.HeatingFraction)
	assert.InDelta(t, 1.75*100*0.70, res.Space.AnnualConsumption, 1e-9)
}

func TestSize_DailyVolumeMonotonicInOccupants(t *testing.T) {
	set := brazil(t)
	for _, tier := range []string{"economic", "standard", "high"} {
		_, ut := set.UsageTier(tier)
		prev := -1.0
		for n := 1; n <= 12; n++ {
			p := waterParams()
			p.Usage = tier
			p.Occupants = n
			res := Size(set, p, DefaultLimits)

			assert.Equal(t, float64(n)*ut.LitersPerPerson, res.Water.DailyVolume, "tier %s, %d occupants", tier, n)
			assert.Greater(t, res.Water.DailyVolume, prev)
			prev = res.Water.DailyVolume
		}
	}
}

func TestSize_AutonomyDoubling(t *testing.T) {
	set := brazil(t)
	for _, days := range []int{1, 2, 3} {
		short := spaceParams()
		short.AutonomyDays = days
		long := short
		long.AutonomyDays = days * 2

		a := Size(set, short, DefaultLimits)
		b := Size(set, long, DefaultLimits)

		assert.Greater(t, b.BoilerVolume, a.BoilerVolume, "days %d", days)
		assert.Greater(t, b.CollectorArea, a.CollectorArea, "days %d", days)
		assert.Equal(t, a.Space.RequiredPower, b.Space.RequiredPower, "days %d", days)
	}
}

func TestSize_AutonomyClamped(t *testing.T) {
	set := brazil(t)
	p := waterParams()

	p.AutonomyDays = 0
	assert.Equal(t, 160.0, Size(set, p, DefaultLimits).Water.BoilerVolume)

	p.AutonomyDays = 30
	assert.Equal(t, 160.0*7, Size(set, p, DefaultLimits).Water.BoilerVolume)
}

func TestSize_Idempotent(t *testing.T) {
	set := brazil(t)
	p := spaceParams()
	p.WaterHeating = true
	p.Occupants = 5
	p.Altitude = 850

	first := Size(set, p, DefaultLimits)
	second := Size(set, p, DefaultLimits)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated sizing differs (-first +second):\n%s", diff)
	}
}

func TestSize_NothingRequested(t *testing.T) {
	res := Size(brazil(t), Params{Latitude: testLatitudeSP}, DefaultLimits)

	assert.Zero(t, res.Water)
	assert.Zero(t, res.Space)
	assert.Empty(t, res.Rooms)
	assert.Equal(t, DefaultLimits.MinCollectorArea, res.CollectorArea)
	assert.Equal(t, 1, res.PanelCount)
	assert.Equal(t, DefaultLimits.MinBoilerVolume, res.BoilerVolume)
}

func TestSize_Fallbacks(t *testing.T) {
	set := brazil(t)

	t.Run("unknown usage tier", func(t *testing.T) {
		p := waterParams()
		p.Usage = "luxury"
		res := Size(set, p, DefaultLimits)
		assert.Equal(t, "standard", res.UsageTier)
		assert.Equal(t, 160.0, res.Water.DailyVolume)
	})

	t.Run("unknown energy class", func(t *testing.T) {
		p := spaceParams()
		p.EnergyClass = "Z"
		res := Size(set, p, DefaultLimits)
		assert.Equal(t, "D", res.EnergyClass)
		assert.InDelta(t, 105.0, res.Space.AnnualConsumption, 1e-9)
	})

	t.Run("energy class is case-insensitive", func(t *testing.T) {
		p := spaceParams()
		p.EnergyClass = " a4 "
		assert.Equal(t, "A4", Size(set, p, DefaultLimits).EnergyClass)
	})

	t.Run("latitude outside every band", func(t *testing.T) {
		p := waterParams()
		p.Latitude = 60
		assert.Equal(t, "sudeste", Size(set, p, DefaultLimits).ClimateZone)
	})

	t.Run("band boundary resolves to first listed", func(t *testing.T) {
		p := waterParams()
		p.Latitude = 18
		assert.Equal(t, "centro_oeste", Size(set, p, DefaultLimits).ClimateZone)
	})

	t.Run("latitude not finite", func(t *testing.T) {
		p := waterParams()
		p.Latitude = math.NaN()
		res := Size(set, p, DefaultLimits)
		assert.Equal(t, "sudeste", res.ClimateZone)
		assert.Equal(t, 4.8, res.PeakSunHours)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "peak sun hours")
	})

	t.Run("floor area not finite", func(t *testing.T) {
		p := spaceParams()
		p.FloorArea = math.Inf(1)
		res := Size(set, p, DefaultLimits)
		assert.Zero(t, res.Space.AnnualConsumption)
		assert.Empty(t, res.Rooms)
		assert.NotEmpty(t, res.Warnings)
	})

	t.Run("zero efficiency", func(t *testing.T) {
		hot := *set
		hot.Collector.LinearLossCoefficient = 100
		res := Size(&hot, waterParams(), DefaultLimits)
		assert.Zero(t, res.Water.Efficiency)
		assert.Equal(t, DefaultLimits.MinCollectorArea, res.Water.CollectorArea)
		assert.NotEmpty(t, res.Warnings)
	})
}

func TestSize_Altitude(t *testing.T) {
	p := waterParams()
	p.Altitude = 1000
	res := Size(brazil(t), p, DefaultLimits)

	assert.InDelta(t, 15.5, res.ColdWaterTemp, 1e-9)
	assert.InDelta(t, 8.5, res.WinterAmbientTemp, 1e-9)
	assert.InDelta(t, 160*1.163*(45-15.5)/1000, res.Water.EnergyDemand, 1e-9)
}

func TestPanelCount(t *testing.T) {
	noWarn := func(string, ...any) { t.Fatal("unexpected warning") }

	tests := []struct {
		area float64
		want int
	}{
		{0.1, 1},
		{1.99, 1},
		{2.0, 1},
		{2.01, 2},
		{4.1, 3},
		{10, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, panelCount(tt.area, 2.0, noWarn), "area %v", tt.area)
	}

	var warned bool
	assert.Equal(t, 1, panelCount(5, 0, func(string, ...any) { warned = true }))
	assert.True(t, warned)
}

func TestPanelCount_CapsHugeArea(t *testing.T) {
	for _, area := range []float64{5e20, math.Inf(1)} {
		var warned bool
		n := panelCount(area, 2.0, func(string, ...any) { warned = true })
		assert.Equal(t, math.MaxInt32, n, "area %v", area)
		assert.True(t, warned, "area %v", area)
	}
}

func TestSize_HugeFloorAreaWarns(t *testing.T) {
	p := spaceParams()
	p.FloorArea = 1e23

	res := Size(brazil(t), p, DefaultLimits)

	assert.Equal(t, math.MaxInt32, res.PanelCount)
	assert.Greater(t, res.Cost.Panels, float64(math.MaxInt32))
	assert.True(t, slices.ContainsFunc(res.Warnings, func(w string) bool {
		return strings.Contains(w, "capped")
	}), "warnings: %v", res.Warnings)
}

func TestSize_Cost(t *testing.T) {
	set := brazil(t)
	p := spaceParams()
	p.WaterHeating = true
	p.Occupants = 4
	res := Size(set, p, DefaultLimits)

	c := res.Cost
	assert.Equal(t, "BRL", c.Currency)
	assert.InDelta(t, float64(res.PanelCount)*1890, c.Panels, 1e-9)
	assert.InDelta(t, res.BoilerVolume*12.5, c.Boiler, 1e-9)
	assert.InDelta(t, 20*38*1.2, c.Piping, 1e-9)
	assert.InDelta(t, 20*9.0, c.Insulation, 1e-9)
	// Every room in a 100 m² class D house fits the smallest radiator.
	assert.InDelta(t, 5*210.0, c.Radiators, 1e-9)
	assert.InDelta(t, c.Panels+c.Boiler+c.Piping+c.Insulation+c.Radiators, c.Total, 1e-9)
}
