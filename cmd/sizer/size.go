package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/solar-sizing-service/internal/domain"
	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
	"github.com/spf13/cobra"
	"golang.org/x/text/currency"
	"golang.org/x/text/message"
)

type sizeOptions struct {
	id            string
	locale        string
	latitude      string
	altitude      string
	occupants     int
	usage         string
	floorArea     string
	ceilingHeight string
	energyClass   string
	autonomyDays  int
	water         bool
	space         bool
	output        string
}

func newSizeCmd(root *rootOptions) *cobra.Command {
	opts := &sizeOptions{}
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Size an installation",
		Long: `Size a solar water and/or space heating installation.

Decimal flags accept either "," or "." as the decimal separator.`,
		Example: `  # Hot water for four people near São Paulo
  sizer size --latitude -23,5 --occupants 4

  # Hot water and heating for a 100 m² house in Bologna, as JSON
  sizer size --locale it-IT --latitude 44.5 --occupants 3 --space --floor-area 100 --energy-class C --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSize(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.id, "id", "", "request ID (default: derived from the inputs)")
	f.StringVarP(&opts.locale, "locale", "l", "", "locale of the lookup tables (default: the default locale)")
	f.StringVar(&opts.latitude, "latitude", "", "site latitude in degrees (default: the locale's default climate band)")
	f.StringVar(&opts.altitude, "altitude", "0", "site altitude in metres")
	f.IntVarP(&opts.occupants, "occupants", "n", 0, "number of occupants")
	f.StringVar(&opts.usage, "usage", "standard", "hot water usage tier")
	f.StringVar(&opts.floorArea, "floor-area", "0", "heated floor area in m²")
	f.StringVar(&opts.ceilingHeight, "ceiling-height", "2.7", "ceiling height in metres")
	f.StringVar(&opts.energyClass, "energy-class", "D", "building energy class")
	f.IntVar(&opts.autonomyDays, "autonomy-days", 1, "sunless days covered by storage (1-7)")
	f.BoolVar(&opts.water, "water", true, "size domestic hot water")
	f.BoolVar(&opts.space, "space", false, "size space heating")
	f.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")

	return cmd
}

func runSize(cmd *cobra.Command, root *rootOptions, opts *sizeOptions) error {
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	req, err := opts.request()
	if err != nil {
		return err
	}
	if err := domain.ValidateRequest(req); err != nil {
		return err
	}

	engine, err := root.engine(cmd)
	if err != nil {
		return err
	}
	if req.Locale == "" {
		req.Locale = engine.Registry().Default().Locale
	}
	report := domain.BuildReport(domain.NormalizeRequest(req), engine)

	if opts.output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return renderReport(cmd.OutOrStdout(), engine.Registry().Lookup(report.Result.Locale), report)
}

func (o *sizeOptions) request() (domain.SizingRequest, error) {
	req := domain.SizingRequest{
		ID:           o.id,
		Locale:       o.locale,
		Occupants:    o.occupants,
		Usage:        o.usage,
		EnergyClass:  o.energyClass,
		AutonomyDays: o.autonomyDays,
		WaterHeating: o.water,
		SpaceHeating: o.space,
	}
	if strings.TrimSpace(o.latitude) != "" {
		lat, err := thermal.ParseDecimal(o.latitude)
		if err != nil {
			return req, fmt.Errorf("--latitude: %w", err)
		}
		req.Latitude = &lat
	}
	for _, f := range []struct {
		flag string
		raw  string
		dst  *float64
	}{
		{"--altitude", o.altitude, &req.Altitude},
		{"--floor-area", o.floorArea, &req.FloorArea},
		{"--ceiling-height", o.ceilingHeight, &req.CeilingHeight},
	} {
		v, err := thermal.ParseDecimal(f.raw)
		if err != nil {
			return req, fmt.Errorf("%s: %w", f.flag, err)
		}
		*f.dst = v
	}
	return req, nil
}

// renderReport prints a report with numbers and money formatted for the
// report's locale.
func renderReport(w io.Writer, set *thermal.LookupSet, report domain.SizingReport) error {
	p := message.NewPrinter(set.Tag())
	res := report.Result
	u := set.Units

	money := func(v float64) string {
		return p.Sprintf("%.2f", v)
	}
	if cur, err := currency.ParseISO(res.Cost.Currency); err == nil {
		sym := p.Sprint(currency.Symbol(cur))
		money = func(v float64) string {
			return sym + " " + p.Sprintf("%.2f", v)
		}
	}

	var b strings.Builder
	line := func(label, format string, args ...any) {
		fmt.Fprintf(&b, "  %-22s ", label)
		b.WriteString(p.Sprintf(format, args...))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "Sizing %s (%s)\n", report.ID, res.Locale)
	if report.Site.Name != "" {
		line("Site", "%s", report.Site.Name)
	}
	line("Climate zone", "%s", res.ClimateZone)
	line("Peak sun hours", "%.2f h/day", res.PeakSunHours)
	line("Cold water", "%.1f °C", res.ColdWaterTemp)
	line("Winter ambient", "%.1f °C", res.WinterAmbientTemp)

	if report.Params.WaterHeating {
		b.WriteString("\nHot water\n")
		line("Daily volume", "%.0f %s/day", res.Water.DailyVolume, u.Volume)
		line("Energy demand", "%.2f %s/day", res.Water.EnergyDemand, u.Energy)
		line("Boiler volume", "%.0f %s", res.Water.BoilerVolume, u.Volume)
		line("Collector efficiency", "%.0f%%", res.Water.Efficiency*100)
		line("Collector area", "%.2f %s", res.Water.CollectorArea, u.Area)
	}

	if report.Params.SpaceHeating {
		b.WriteString("\nSpace heating\n")
		line("Energy class", "%s", res.EnergyClass)
		line("Annual consumption", "%.0f %s/year", res.Space.AnnualConsumption, u.Energy)
		line("Required power", "%.0f %s", res.Space.RequiredPower, u.Power)
		line("Storage volume", "%.0f %s", res.Space.StorageVolume, u.Volume)
		line("Collector area", "%.2f %s", res.Space.CollectorArea, u.Area)
		for _, r := range res.Rooms {
			note := ""
			if r.Undersized {
				note = " (undersized)"
			}
			line(r.Label, "%.1f %s, %.0f %s: %d × %s%s", r.Area, u.Area, r.Demand, u.Power, r.Radiator.Quantity, r.Radiator.Size, note)
		}
	}

	b.WriteString("\nInstallation\n")
	line("Collector area", "%.2f %s", res.CollectorArea, u.Area)
	line("Panels", "%d × %s", res.PanelCount, set.Collector.Model)
	line("Storage", "%.0f %s", res.BoilerVolume, u.Volume)

	b.WriteString("\nCost\n")
	line("Panels", "%s", money(res.Cost.Panels))
	line("Boiler", "%s", money(res.Cost.Boiler))
	line("Piping", "%s", money(res.Cost.Piping))
	line("Insulation", "%s", money(res.Cost.Insulation))
	if res.Cost.Radiators > 0 {
		line("Radiators", "%s", money(res.Cost.Radiators))
	}
	line("Total", "%s (%s)", money(res.Cost.Total), res.Cost.Currency)

	if len(res.Warnings) > 0 {
		b.WriteString("\nWarnings\n")
		for _, warning := range res.Warnings {
			b.WriteString("  - " + warning + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
