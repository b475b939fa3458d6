package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parameter names, shared by the CLI, HTTP and MCP surfaces.
const (
	ParamThreshold = "threshold"
	ParamMin       = "min"
	ParamMax       = "max"
	ParamPeriod    = "period"
	ParamModel     = "model"
)

// Params is the method-specific configuration of a DetectionRequest.
type Params interface {
	// Method returns the detection method these params belong to.
	Method() Method
	// Validate checks the params, returning a *ParamError on failure.
	Validate() error
}

// RangeParams configures range detection. A nil bound is not checked.
type RangeParams struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// StatisticalParams configures z-score detection.
type StatisticalParams struct {
	Threshold *float64 `json:"threshold,omitempty"`
}

// SeasonalParams configures seasonal residual detection.
type SeasonalParams struct {
	Threshold *float64           `json:"threshold,omitempty"`
	Period    *int               `json:"period,omitempty"`
	Model     DecompositionModel `json:"model,omitempty"`
}

// DetectionRequest selects a method and carries its params.
type DetectionRequest struct {
	Method Method `json:"method"`
	Params Params `json:"params,omitempty"`
}

// AnomalyResult is one flagged record.
type AnomalyResult struct {
	ID     int64   `json:"id"`
	Method Method  `json:"method"`
	Value  float64 `json:"value"`
	Score  float64 `json:"score"` // z-score, or distance past the bound for range
	Reason string  `json:"reason"`
}

// Method implements Params.
func (RangeParams) Method() Method { return RangeMethod }

// Method implements Params.
func (StatisticalParams) Method() Method { return StatisticalMethod }

// Method implements Params.
func (SeasonalParams) Method() Method { return SeasonalResidualMethod }

// Validate implements Params.
func (p RangeParams) Validate() error {
	if p.Min != nil && !isFinite(*p.Min) {
		return NewParamError(ParamMin, "must be a finite number")
	}
	if p.Max != nil && !isFinite(*p.Max) {
		return NewParamError(ParamMax, "must be a finite number")
	}
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return NewParamError(ParamMin, fmt.Sprintf("%s must not exceed max %s", FormatNumber(*p.Min), FormatNumber(*p.Max)))
	}
	return nil
}

// Validate implements Params.
func (p StatisticalParams) Validate() error {
	return validateThreshold(p.Threshold)
}

// Validate implements Params.
func (p SeasonalParams) Validate() error {
	if err := validateThreshold(p.Threshold); err != nil {
		return err
	}
	if p.Period != nil && *p.Period < 2 {
		return NewParamError(ParamPeriod, "must be at least 2")
	}
	if p.Period != nil && *p.Period > MaxSeasonalPeriod {
		return NewParamError(ParamPeriod, fmt.Sprintf("must be at most %d", MaxSeasonalPeriod))
	}
	if p.Model != "" {
		if _, ok := ValidModels[p.Model]; !ok {
			return NewParamError(ParamModel, fmt.Sprintf("%q is not additive or multiplicative", p.Model))
		}
	}
	return nil
}

// ThresholdOrDefault returns the configured threshold or DefaultThreshold.
func (p StatisticalParams) ThresholdOrDefault() float64 {
	return floatOr(p.Threshold, DefaultThreshold)
}

// ThresholdOrDefault returns the configured threshold or DefaultThreshold.
func (p SeasonalParams) ThresholdOrDefault() float64 {
	return floatOr(p.Threshold, DefaultThreshold)
}

// Threshold returns the z-score threshold the request applies. Range requests
// have none and report DefaultThreshold.
func (r DetectionRequest) Threshold() float64 {
	switch p := ValueParams(r.Params).(type) {
	case StatisticalParams:
		return p.ThresholdOrDefault()
	case SeasonalParams:
		return p.ThresholdOrDefault()
	}
	return DefaultThreshold
}

// PeriodOrDefault returns the configured period or DefaultSeasonalPeriod.
func (p SeasonalParams) PeriodOrDefault() int {
	if p.Period == nil {
		return DefaultSeasonalPeriod
	}
	return *p.Period
}

// ModelOrDefault returns the configured model or AdditiveModel.
func (p SeasonalParams) ModelOrDefault() DecompositionModel {
	if p.Model == "" {
		return AdditiveModel
	}
	return p.Model
}

// ValueParams returns p with pointer variants dereferenced. A nil pointer
// yields nil.
func ValueParams(p Params) Params {
	switch v := p.(type) {
	case *RangeParams:
		if v != nil {
			return *v
		}
		return nil
	case *StatisticalParams:
		if v != nil {
			return *v
		}
		return nil
	case *SeasonalParams:
		if v != nil {
			return *v
		}
		return nil
	}
	return p
}

// ParseMethod resolves a method name or alias, case-insensitively.
func ParseMethod(name string) (Method, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", UnknownMethodError(name)
	}
	return m, nil
}

// ParseRequest builds a DetectionRequest from string parameters, as received on the
// command line, in query strings or from MCP tools. Empty values count as absent.
// Only syntax is checked here; semantic checks happen in Params.Validate.
func ParseRequest(method string, raw map[string]string) (DetectionRequest, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return DetectionRequest{}, err
	}

	switch m {
	case RangeMethod:
		minV, err := parseOptionalFloat(raw, ParamMin)
		if err != nil {
			return DetectionRequest{}, err
		}
		maxV, err := parseOptionalFloat(raw, ParamMax)
		if err != nil {
			return DetectionRequest{}, err
		}
		return DetectionRequest{Method: m, Params: RangeParams{Min: minV, Max: maxV}}, nil

	case StatisticalMethod:
		threshold, err := parseOptionalFloat(raw, ParamThreshold)
		if err != nil {
			return DetectionRequest{}, err
		}
		return DetectionRequest{Method: m, Params: StatisticalParams{Threshold: threshold}}, nil

	default: // SeasonalResidualMethod
		threshold, err := parseOptionalFloat(raw, ParamThreshold)
		if err != nil {
			return DetectionRequest{}, err
		}
		period, err := parseOptionalInt(raw, ParamPeriod)
		if err != nil {
			return DetectionRequest{}, err
		}
		model := DecompositionModel(strings.ToLower(strings.TrimSpace(raw[ParamModel])))
		return DetectionRequest{Method: m, Params: SeasonalParams{Threshold: threshold, Period: period, Model: model}}, nil
	}
}

// Describe renders the request params as a flat map, for logging and run history.
func (r DetectionRequest) Describe() map[string]any {
	out := map[string]any{"method": string(r.Method)}
	switch p := ValueParams(r.Params).(type) {
	case RangeParams:
		if p.Min != nil {
			out[ParamMin] = *p.Min
		}
		if p.Max != nil {
			out[ParamMax] = *p.Max
		}
	case StatisticalParams:
		out[ParamThreshold] = p.ThresholdOrDefault()
	case SeasonalParams:
		out[ParamThreshold] = p.ThresholdOrDefault()
		out[ParamPeriod] = p.PeriodOrDefault()
		out[ParamModel] = string(p.ModelOrDefault())
	}
	return out
}

func validateThreshold(t *float64) error {
	if t == nil {
		return nil
	}
	if !isFinite(*t) || *t <= 0 {
		return NewParamError(ParamThreshold, "must be a positive number")
	}
	return nil
}

func parseOptionalFloat(raw map[string]string, key string) (*float64, error) {
	s := strings.TrimSpace(raw[key])
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, NewParamError(key, fmt.Sprintf("%q is not numeric", s))
	}
	return &v, nil
}

func parseOptionalInt(raw map[string]string, key string) (*int, error) {
	s := strings.TrimSpace(raw[key])
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, NewParamError(key, fmt.Sprintf("%q is not an integer", s))
	}
	return &v, nil
}

func floatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
