// Package thermal sizes solar thermal installations for domestic hot water and
// space heating.
//
// # Inputs
//
// A sizing run takes a [Params] and a [LookupSet]. Lookup sets are loaded per
// locale from YAML (see tables/) into a [Registry]; the locale is always an
// explicit argument, never ambient state.
//
// # Pipeline
//
//  1. Climate band by absolute latitude (first matching band, else default).
//  2. Cold water and winter ambient temperatures de-rated by 6.5 °C/km of
//     altitude, floored at 2 °C and -5 °C; ambient stops at 2000 m.
//  3. Peak-sun-hours interpolated over 0°→5.5 h … 60°→1.5 h, clamped to
//     [1, 6]; the band's static value is used if that fails.
//  4. Hot water: volume = occupants × litres/person; energy = V × 1.163 × ΔT.
//  5. Space heating: specific consumption × area × height multiplier ×
//     seasonal fraction / 150 days; power = daily / 16 h × 1.15.
//     Storage uses a 17 °C usable band (65→48 °C), 0.65 stratification, ×1.2.
//  6. Efficiency = η0 − a1 × ΔT / 800 W/m², within [0, η0].
//  7. Collector areas per part, ×1.3, summed and floored at 0.1 m².
//  8. Panels = ceil(area / reference area), at least one.
//  9. Rooms and radiators (space heating only), see [SelectRadiator].
//  10. Cost = panels + boiler + piping ×1.2 + insulation + radiators.
//
// [Size] never fails. Degenerate intermediate values are replaced by
// [Limits] and listed in [Result.Warnings].
package thermal
