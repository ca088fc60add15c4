package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var errValidationFailed = errors.New("validation failed")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check lookup tables for consistency",
		Long: `Loads the lookup tables and checks them phase by phase: table
consistency, locale resolution, and a reference sizing for every climate band.
Exits non-zero when any phase fails.`,
		Example: `  # Check the built-in tables
  sizer validate

  # Check edited tables before deploying them
  sizer validate --tables ./tables`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}
}

func runValidate(cmd *cobra.Command, opts *rootOptions) error {
	source := opts.tablesDir
	if source == "" {
		source = "built-in"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "=== Lookup Table Validation (%s) ===\n\n", source)

	load := &phase{name: "Load tables"}
	reg, err := thermal.OpenRegistry(opts.tablesDir, opts.defaultLocale)
	if err != nil {
		load.errorf("%v", err)
		report(cmd, []*phase{load})
		return errValidationFailed
	}

	engine := thermal.NewEngine(reg, opts.logger(cmd))
	phases := []*phase{
		load,
		validateConsistency(reg),
		validateLocaleResolution(reg),
		validateReferenceSizings(engine),
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Locales: %v\n\n", reg.Locales())
	if !report(cmd, phases) {
		return errValidationFailed
	}
	return nil
}

// report prints the phase summary and details. Returns true if all passed.
func report(cmd *cobra.Command, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-32s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(cmd.OutOrStdout(), "\nAll validations passed.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "\nValidation FAILED.")
	}
	return allPassed
}

func validateConsistency(reg *thermal.Registry) *phase {
	p := &phase{name: "Table consistency"}
	for _, issue := range reg.Issues() {
		p.errorf("%s", issue.Error())
	}
	return p
}

func validateLocaleResolution(reg *thermal.Registry) *phase {
	p := &phase{name: "Locale resolution"}
	def := reg.Default().Locale
	for _, set := range reg.Sets() {
		if got := reg.Lookup(set.Locale).Locale; got != set.Locale {
			p.errorf("%s resolves to %s", set.Locale, got)
		}
		base, _ := set.Tag().Base()
		got := reg.Lookup(base.String())
		if gotBase, _ := got.Tag().Base(); gotBase != base {
			p.errorf("language %s resolves to %s", base, got.Locale)
		}
	}
	if got := reg.Lookup("zz").Locale; got != def {
		p.errorf("unsupported locale resolves to %s, want default %s", got, def)
	}
	return p
}

// validateReferenceSizings sizes a reference house at the middle of every
// climate band and checks the result is usable without fallbacks.
func validateReferenceSizings(engine *thermal.Engine) *phase {
	p := &phase{name: "Reference sizings"}
	for _, set := range engine.Registry().Sets() {
		for _, band := range set.Climate.Bands {
			params := thermal.Params{
				Occupants:     4,
				Usage:         "standard",
				Latitude:      (band.MinLatitude + band.MaxLatitude) / 2,
				FloorArea:     100,
				CeilingHeight: 2.7,
				EnergyClass:   "D",
				AutonomyDays:  2,
				WaterHeating:  true,
				SpaceHeating:  true,
			}
			res := engine.SizeWith(set, params)
			where := fmt.Sprintf("%s/%s", set.Locale, band.Key)

			if res.ClimateZone != band.Key {
				p.errorf("%s: latitude %.1f resolves to band %s", where, params.Latitude, res.ClimateZone)
			}
			for _, w := range res.Warnings {
				p.errorf("%s: fallback: %s", where, w)
			}
			if res.PanelCount < 1 || math.IsNaN(res.CollectorArea) || math.IsInf(res.CollectorArea, 0) {
				p.errorf("%s: unusable collector sizing (%v m², %d panels)", where, res.CollectorArea, res.PanelCount)
			}
			if !(res.Cost.Total > 0) {
				p.errorf("%s: total cost %v is not positive", where, res.Cost.Total)
			}
			for _, r := range res.Rooms {
				if r.Undersized {
					p.errorf("%s: room %s (%.0f W) exceeds the radiator catalog", where, r.Key, r.Demand)
				}
			}
		}
	}
	return p
}
