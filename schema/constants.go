package schema

// Custom string types for type safety.
type (
	// Status represents the lifecycle state of a KPI.
	Status string

	// ValueUnit tags a numeric field with its measurement domain.
	ValueUnit string

	// DocumentKind identifies the declared type of an ingested document.
	DocumentKind string

	// FactorKey represents keys used in health score breakdowns.
	FactorKey string

	// RiskFactor tags a single contributor to the risk score.
	RiskFactor string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the record store.
	DatabaseBackend string
)

// All KPI statuses supported.
const (
	NotStarted Status = "not_started"
	OnTrack    Status = "on_track"
	AtRisk     Status = "at_risk"
	Achieved   Status = "achieved"
	Stalled    Status = "stalled"
)

// All value units supported.
const (
	UnitRaw      ValueUnit = "raw" // default
	UnitPercent  ValueUnit = "percent"
	UnitCount    ValueUnit = "count"
	UnitCurrency ValueUnit = "currency"
)

// All document kinds supported.
const (
	SOWDoc          DocumentKind = "sow"
	RequirementsDoc DocumentKind = "requirements"
	CharterDoc      DocumentKind = "charter"
	FreeTextDoc     DocumentKind = "freetext" // default
)

// Factor keys used in the health scoring logic.
const (
	FactorCompletion FactorKey = "completion" // current vs target
	FactorTrend      FactorKey = "trend"      // slope of recent history
	FactorStatus     FactorKey = "status"     // fixed per-status score
	FactorRecency    FactorKey = "recency"    // decay by last_updated age
)

// Risk factor tags used in the risk scoring logic.
const (
	RiskStaleData     RiskFactor = "stale_data"
	RiskBehindTarget  RiskFactor = "behind_target"
	RiskNegativeTrend RiskFactor = "negative_trend"
	RiskMissingOwner  RiskFactor = "missing_owner"
	RiskBadStatus     RiskFactor = "bad_status"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Sentinel defaults applied by the validator for absent optional fields.
const (
	DefaultOwner   = "Unassigned"
	DefaultProject = "General"
	DefaultGoal    = "General"
)

// AllStatuses returns a list of all supported KPI statuses.
var AllStatuses = []Status{NotStarted, OnTrack, AtRisk, Achieved, Stalled}

// AllRiskFactors lists every risk factor in evaluation order. The order is
// fixed so that derived risk_factors slices are deterministic.
var AllRiskFactors = []RiskFactor{
	RiskStaleData,
	RiskBehindTarget,
	RiskNegativeTrend,
	RiskMissingOwner,
	RiskBadStatus,
}

// ValidStatuses lists all valid KPI statuses.
var ValidStatuses = map[Status]struct{}{
	NotStarted: {},
	OnTrack:    {},
	AtRisk:     {},
	Achieved:   {},
	Stalled:    {},
}

// ValidUnits lists all valid value units.
var ValidUnits = map[ValueUnit]struct{}{
	UnitRaw:      {},
	UnitPercent:  {},
	UnitCount:    {},
	UnitCurrency: {},
}

// ValidDocumentKinds lists all valid document kinds.
var ValidDocumentKinds = map[DocumentKind]struct{}{
	SOWDoc:          {},
	RequirementsDoc: {},
	CharterDoc:      {},
	FreeTextDoc:     {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidStoreBackends lists all valid store backends.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// GetDefaultWeights returns the default health factor weight map.
// The weights sum to 1.0 and can be overridden from the config file.
func GetDefaultWeights() map[FactorKey]float64 {
	return map[FactorKey]float64{
		FactorCompletion: 0.40,
		FactorTrend:      0.25,
		FactorStatus:     0.20,
		FactorRecency:    0.15,
	}
}

// GetDefaultRiskPoints returns the default additive point value for each
// risk factor. Matching factors sum independently, then clamp to 100.
func GetDefaultRiskPoints() map[RiskFactor]float64 {
	return map[RiskFactor]float64{
		RiskStaleData:     25,
		RiskBehindTarget:  30,
		RiskNegativeTrend: 20,
		RiskMissingOwner:  10,
		RiskBadStatus:     25,
	}
}

// GetStatusFactorScores returns the fixed status-to-score mapping used by
// the health score's status factor.
func GetStatusFactorScores() map[Status]float64 {
	return map[Status]float64{
		Achieved:   100,
		OnTrack:    75,
		NotStarted: 40,
		AtRisk:     35,
		Stalled:    15,
	}
}
