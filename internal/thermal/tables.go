package thermal

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var embeddedTables embed.FS

const (
	commonTablesFile = "common.yaml"

	// DefaultLocale is used when a requested locale matches no loaded table set.
	DefaultLocale = "pt-BR"

	defaultUsageTier   = "standard"
	defaultEnergyClass = "D"
)

// ClimateBand is one latitude band of a locale's climate-zone table.
type ClimateBand struct {
	Key               string  `yaml:"key" json:"key"`
	MinLatitude       float64 `yaml:"min_latitude" json:"min_latitude"`
	MaxLatitude       float64 `yaml:"max_latitude" json:"max_latitude"`
	PeakSunHours      float64 `yaml:"peak_sun_hours" json:"peak_sun_hours"`
	ColdWaterTemp     float64 `yaml:"cold_water_temp" json:"cold_water_temp"`
	WinterAmbientTemp float64 `yaml:"winter_ambient_temp" json:"winter_ambient_temp"`
}

// ClimateTable maps absolute latitude to a climate band.
type ClimateTable struct {
	Default string        `yaml:"default" json:"default"`
	Bands   []ClimateBand `yaml:"bands" json:"bands"`
}

// Band returns the first band whose range contains |latitude|, or the default
// band when none does. Bounds are inclusive, so a latitude on the boundary of
// two bands resolves to the one listed first.
func (t ClimateTable) Band(latitude float64) ClimateBand {
	lat := math.Abs(latitude)
	for _, b := range t.Bands {
		if lat >= b.MinLatitude && lat <= b.MaxLatitude {
			return b
		}
	}
	for _, b := range t.Bands {
		if b.Key == t.Default {
			return b
		}
	}
	if len(t.Bands) > 0 {
		return t.Bands[0]
	}
	return ClimateBand{}
}

// UsageTier describes hot-water consumption habits.
type UsageTier struct {
	LitersPerPerson float64 `yaml:"liters_per_person" json:"liters_per_person"`
	DesiredTemp     float64 `yaml:"desired_temp" json:"desired_temp"`
	AutonomyFactor  float64 `yaml:"autonomy_factor" json:"autonomy_factor"`
}

// EnergyClass is a building energy label and its specific heating consumption
// in kWh/m²·year.
type EnergyClass struct {
	Code        string  `yaml:"code" json:"code"`
	Consumption float64 `yaml:"consumption" json:"consumption"`
}

// CollectorModel is the reference evacuated-tube collector of a locale.
type CollectorModel struct {
	Model                 string  `yaml:"model" json:"model"`
	Area                  float64 `yaml:"area" json:"area"`
	TubeCount             int     `yaml:"tube_count" json:"tube_count"`
	OpticalEfficiency     float64 `yaml:"optical_efficiency" json:"optical_efficiency"`
	LinearLossCoefficient float64 `yaml:"linear_loss_coefficient" json:"linear_loss_coefficient"`
	ThermalPowerRating    float64 `yaml:"thermal_power_rating" json:"thermal_power_rating"`
	UnitPrice             float64 `yaml:"unit_price" json:"unit_price"`
}

// Radiator is one catalog entry. Catalogs are ordered by ascending power.
type Radiator struct {
	Size         string  `yaml:"size" json:"size"`
	Power        float64 `yaml:"power" json:"power"`
	Dimensions   string  `yaml:"dimensions" json:"dimensions"`
	Price        float64 `yaml:"price" json:"price"`
	MinWaterTemp float64 `yaml:"min_water_temp" json:"min_water_temp"`
}

// Prices holds the per-unit installation prices of a locale.
type Prices struct {
	BoilerPerLiter     float64 `yaml:"boiler_per_liter" json:"boiler_per_liter"`
	PipePerMeter       float64 `yaml:"pipe_per_meter" json:"pipe_per_meter"`
	InsulationPerMeter float64 `yaml:"insulation_per_meter" json:"insulation_per_meter"`
	PipeLength         float64 `yaml:"pipe_length" json:"pipe_length"`
}

// Units holds display labels for result quantities.
type Units struct {
	Area   string `yaml:"area" json:"area"`
	Volume string `yaml:"volume" json:"volume"`
	Power  string `yaml:"power" json:"power"`
	Energy string `yaml:"energy" json:"energy"`
}

// LookupSet is every static table the engine needs for one locale.
type LookupSet struct {
	Locale    string            `yaml:"locale" json:"locale"`
	Currency  string            `yaml:"currency" json:"currency"`
	Units     Units             `yaml:"units" json:"units"`
	Climate   ClimateTable      `yaml:"climate" json:"climate"`
	Collector CollectorModel    `yaml:"collector" json:"collector"`
	Radiators []Radiator        `yaml:"radiators" json:"radiators"`
	Prices    Prices            `yaml:"prices" json:"prices"`
	Rooms     map[string]string `yaml:"rooms" json:"rooms"`

	UsageTiers    map[string]UsageTier `yaml:"-" json:"usage_tiers"`
	EnergyClasses []EnergyClass        `yaml:"-" json:"energy_classes"`

	tag language.Tag
}

// Tag returns the parsed language tag of the set.
func (s *LookupSet) Tag() language.Tag { return s.tag }

// UsageTier resolves a tier key, falling back to "standard".
func (s *LookupSet) UsageTier(key string) (string, UsageTier) {
	key = strings.ToLower(strings.TrimSpace(key))
	if t, ok := s.UsageTiers[key]; ok {
		return key, t
	}
	return defaultUsageTier, s.UsageTiers[defaultUsageTier]
}

// EnergyClass resolves an energy label, falling back to class "D".
func (s *LookupSet) EnergyClass(code string) EnergyClass {
	code = strings.ToUpper(strings.TrimSpace(code))
	var fallback EnergyClass
	for _, c := range s.EnergyClasses {
		if c.Code == code {
			return c
		}
		if c.Code == defaultEnergyClass {
			fallback = c
		}
	}
	return fallback
}

// RoomLabel returns the localized label for a room kind.
func (s *LookupSet) RoomLabel(kind string) string {
	if label, ok := s.Rooms[kind]; ok && label != "" {
		return label
	}
	return kind
}

type commonTables struct {
	UsageTiers    map[string]UsageTier `yaml:"usage_tiers"`
	EnergyClasses []EnergyClass        `yaml:"energy_classes"`
}

// Registry holds one LookupSet per supported locale.
type Registry struct {
	sets    map[language.Tag]*LookupSet
	tags    []language.Tag
	matcher language.Matcher
}

// DefaultRegistry loads the tables compiled into the binary.
func DefaultRegistry() (*Registry, error) {
	return OpenRegistry("", DefaultLocale)
}

// OpenRegistry loads tables from dir, or the compiled-in tables when dir is
// empty.
func OpenRegistry(dir, defaultLocale string) (*Registry, error) {
	if dir != "" {
		return LoadRegistry(os.DirFS(dir), defaultLocale)
	}
	sub, err := fs.Sub(embeddedTables, "tables")
	if err != nil {
		return nil, fmt.Errorf("open embedded tables: %w", err)
	}
	return LoadRegistry(sub, defaultLocale)
}

// LoadRegistry reads common.yaml and one YAML file per locale from fsys.
// The default locale is preferred when a lookup matches nothing.
func LoadRegistry(fsys fs.FS, defaultLocale string) (*Registry, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	var common commonTables
	if err := decodeYAML(fsys, commonTablesFile, &common); err != nil {
		return nil, err
	}

	defTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
	}

	r := &Registry{sets: make(map[language.Tag]*LookupSet)}
	for _, name := range names {
		if path.Base(name) == commonTablesFile {
			continue
		}
		var set LookupSet
		if err := decodeYAML(fsys, name, &set); err != nil {
			return nil, err
		}
		tag, err := language.Parse(set.Locale)
		if err != nil {
			return nil, fmt.Errorf("%s: parse locale %q: %w", name, set.Locale, err)
		}
		set.tag = tag
		set.UsageTiers = common.UsageTiers
		set.EnergyClasses = common.EnergyClasses
		if _, dup := r.sets[tag]; dup {
			return nil, fmt.Errorf("%s: duplicate locale %s", name, set.Locale)
		}
		r.sets[tag] = &set
		r.tags = append(r.tags, tag)
	}

	if _, ok := r.sets[defTag]; !ok {
		return nil, fmt.Errorf("default locale %s has no tables", defaultLocale)
	}

	// The matcher falls back to its first tag, so the default goes first.
	sort.SliceStable(r.tags, func(i, j int) bool {
		if r.tags[i] == defTag {
			return true
		}
		if r.tags[j] == defTag {
			return false
		}
		return r.tags[i].String() < r.tags[j].String()
	})
	r.matcher = language.NewMatcher(r.tags)
	return r, nil
}

func decodeYAML(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Lookup resolves a locale string such as "it", "pt-PT" or "it-IT" to the
// closest loaded set. Unparseable or unsupported locales get the default.
func (r *Registry) Lookup(locale string) *LookupSet {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return r.sets[r.tags[0]]
	}
	return r.Match(tag)
}

// LookupAcceptLanguage resolves an HTTP Accept-Language header value.
func (r *Registry) LookupAcceptLanguage(header string) *LookupSet {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return r.sets[r.tags[0]]
	}
	return r.Match(tags...)
}

// Match returns the set best matching the preferred tags.
func (r *Registry) Match(preferred ...language.Tag) *LookupSet {
	_, idx, conf := r.matcher.Match(preferred...)
	if conf == language.No || idx < 0 || idx >= len(r.tags) {
		return r.sets[r.tags[0]]
	}
	return r.sets[r.tags[idx]]
}

// Default returns the default locale's set.
func (r *Registry) Default() *LookupSet { return r.sets[r.tags[0]] }

// Locales lists the loaded locales, default first.
func (r *Registry) Locales() []string {
	out := make([]string, len(r.tags))
	for i, t := range r.tags {
		out[i] = r.sets[t].Locale
	}
	return out
}

// Sets returns the loaded sets in the same order as Locales.
func (r *Registry) Sets() []*LookupSet {
	out := make([]*LookupSet, len(r.tags))
	for i, t := range r.tags {
		out[i] = r.sets[t]
	}
	return out
}

// Issue is one consistency problem found in a table.
type Issue struct {
	Locale  string
	Table   string
	Message string
}

func (i Issue) Error() string {
	if i.Locale == "" {
		return fmt.Sprintf("%s: %s", i.Table, i.Message)
	}
	return fmt.Sprintf("%s %s: %s", i.Locale, i.Table, i.Message)
}

// Table names reported by Issues.
const (
	TableClimate       = "climate"
	TableCollector     = "collector"
	TableRadiators     = "radiators"
	TablePrices        = "prices"
	TableUsageTiers    = "usage_tiers"
	TableEnergyClasses = "energy_classes"
)

// Issues checks every loaded set for internal consistency.
func (r *Registry) Issues() []Issue {
	var issues []Issue
	issues = append(issues, checkCommon(r.Default())...)
	for _, s := range r.Sets() {
		issues = append(issues, checkSet(s)...)
	}
	return issues
}

// Validate returns all Issues joined into one error, or nil.
func (r *Registry) Validate() error {
	issues := r.Issues()
	if len(issues) == 0 {
		return nil
	}
	errs := make([]error, len(issues))
	for i := range issues {
		errs[i] = issues[i]
	}
	return errors.Join(errs...)
}

func checkCommon(s *LookupSet) []Issue {
	var issues []Issue
	add := func(table, format string, args ...any) {
		issues = append(issues, Issue{Table: table, Message: fmt.Sprintf(format, args...)})
	}

	if _, ok := s.UsageTiers[defaultUsageTier]; !ok {
		add(TableUsageTiers, "missing fallback tier %q", defaultUsageTier)
	}
	for key, t := range s.UsageTiers {
		if t.LitersPerPerson <= 0 {
			add(TableUsageTiers, "tier %q: liters per person must be positive", key)
		}
		if t.AutonomyFactor <= 0 {
			add(TableUsageTiers, "tier %q: autonomy factor must be positive", key)
		}
	}

	if len(s.EnergyClasses) != 10 {
		add(TableEnergyClasses, "expected 10 classes, got %d", len(s.EnergyClasses))
	}
	hasDefault := false
	for i, c := range s.EnergyClasses {
		if c.Code == defaultEnergyClass {
			hasDefault = true
		}
		if i > 0 && c.Consumption <= s.EnergyClasses[i-1].Consumption {
			add(TableEnergyClasses, "class %s does not increase on %s", c.Code, s.EnergyClasses[i-1].Code)
		}
	}
	if !hasDefault {
		add(TableEnergyClasses, "missing fallback class %q", defaultEnergyClass)
	}
	return issues
}

func checkSet(s *LookupSet) []Issue {
	var issues []Issue
	add := func(table, format string, args ...any) {
		issues = append(issues, Issue{Locale: s.Locale, Table: table, Message: fmt.Sprintf(format, args...)})
	}

	if len(s.Climate.Bands) == 0 {
		add(TableClimate, "no bands")
	}
	hasDefault := false
	for _, b := range s.Climate.Bands {
		if b.Key == s.Climate.Default {
			hasDefault = true
		}
		if b.MinLatitude > b.MaxLatitude {
			add(TableClimate, "band %q: min latitude %.2f above max %.2f", b.Key, b.MinLatitude, b.MaxLatitude)
		}
		if b.PeakSunHours <= 0 {
			add(TableClimate, "band %q: peak sun hours must be positive", b.Key)
		}
	}
	if !hasDefault {
		add(TableClimate, "default band %q not found", s.Climate.Default)
	}

	if s.Collector.Area <= 0 {
		add(TableCollector, "area must be positive")
	}
	if s.Collector.OpticalEfficiency <= 0 || s.Collector.OpticalEfficiency > 1 {
		add(TableCollector, "optical efficiency %.2f outside (0, 1]", s.Collector.OpticalEfficiency)
	}

	if len(s.Radiators) == 0 {
		add(TableRadiators, "empty catalog")
	}
	for i := 1; i < len(s.Radiators); i++ {
		if s.Radiators[i].Power <= s.Radiators[i-1].Power {
			add(TableRadiators, "entry %q not in ascending power order", s.Radiators[i].Size)
		}
	}

	if s.Prices.PipeLength < 0 || s.Prices.BoilerPerLiter < 0 || s.Prices.PipePerMeter < 0 || s.Prices.InsulationPerMeter < 0 {
		add(TablePrices, "prices and pipe length must not be negative")
	}
	if s.Currency == "" {
		add(TablePrices, "currency not set")
	}
	return issues
}
