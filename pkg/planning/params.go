package planning

// Params bundles the plant-level knobs shared by the scheduling and
// simulation engines.
type Params struct {
	Calendar                 WorkCalendar
	DefaultChangeoverMinutes float64
	OvertimeCostPerHour      float64
}

// DefaultParams mirrors the plant defaults: standard calendar, 30 minute
// changeover when no matrix entry applies, overtime billed at 450 per hour.
func DefaultParams() Params {
	return Params{
		Calendar:                 DefaultCalendar(),
		DefaultChangeoverMinutes: 30.0,
		OvertimeCostPerHour:      450.0,
	}
}
