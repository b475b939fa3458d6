package schema

// Custom string types for type safety.
type (
	// Method represents an anomaly detection method.
	Method string

	// DecompositionModel represents how a series is split into trend, season and residual.
	DecompositionModel string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for records and run history.
	DatabaseBackend string
)

// All detection methods supported.
const (
	RangeMethod            Method = "range"
	StatisticalMethod      Method = "statistical" // default
	SeasonalResidualMethod Method = "seasonal_residual"
)

// All decomposition models supported.
const (
	AdditiveModel       DecompositionModel = "additive" // default
	MultiplicativeModel DecompositionModel = "multiplicative"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Detection defaults.
const (
	DefaultThreshold      = 3.0
	DefaultSeasonalPeriod = 12
	MaxSeasonalPeriod     = 1 << 16
	ReasonPrecision       = 2
)

// AllMethods returns a list of all supported detection methods.
var AllMethods = []Method{StatisticalMethod, RangeMethod, SeasonalResidualMethod}

// MethodLabels holds the human readable label for each method.
var MethodLabels = map[Method]string{
	StatisticalMethod:      "Statistical (Z-Score)",
	RangeMethod:            "Out of Range (Min/Max)",
	SeasonalResidualMethod: "Seasonal Residual (STL)",
}

// methodAliases maps accepted spellings to the canonical method name.
var methodAliases = map[string]Method{
	"range":             RangeMethod,
	"out_of_range":      RangeMethod,
	"statistical":       StatisticalMethod,
	"zscore":            StatisticalMethod,
	"seasonal_residual": SeasonalResidualMethod,
	"time_series_stl":   SeasonalResidualMethod,
	"stl":               SeasonalResidualMethod,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidBackends lists all valid database backends.
var ValidBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidModels lists all valid decomposition models.
var ValidModels = map[DecompositionModel]struct{}{
	AdditiveModel:       {},
	MultiplicativeModel: {},
}
