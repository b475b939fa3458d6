package core

import (
	"fmt"

	"github.com/huangsam/outlier/core/algo"
	"github.com/huangsam/outlier/schema"
)

// Detect validates the request, evaluates the records with the requested method
// and returns one AnomalyResult per flagged record, ordered by record id.
//
// Validation happens in a fixed order: the method, then its params, then the
// records. Nothing is computed unless all three pass. Detect holds no state and
// never modifies records, so it is safe for concurrent use.
func Detect(records []schema.Record, req schema.DetectionRequest) ([]schema.AnomalyResult, error) {
	if _, ok := schema.MethodLabels[req.Method]; !ok {
		return nil, schema.UnknownMethodError(string(req.Method))
	}
	params, err := resolveParams(req)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rs, err := schema.NewRecordSet(records)
	if err != nil {
		return nil, err
	}

	var findings []algo.Finding
	switch p := params.(type) {
	case schema.RangeParams:
		findings = algo.DetectRange(rs, p)
	case schema.StatisticalParams:
		findings = algo.DetectStatistical(rs, p)
	case schema.SeasonalParams:
		findings, err = algo.DetectSeasonal(rs, p)
		if err != nil {
			return nil, err
		}
	}
	return assemble(req.Method, findings), nil
}

// resolveParams returns the request params by value, filling in empty params
// for the method and rejecting params that belong to another method.
func resolveParams(req schema.DetectionRequest) (schema.Params, error) {
	p := schema.ValueParams(req.Params)
	if p == nil {
		switch req.Method {
		case schema.RangeMethod:
			return schema.RangeParams{}, nil
		case schema.StatisticalMethod:
			return schema.StatisticalParams{}, nil
		default:
			return schema.SeasonalParams{}, nil
		}
	}
	if p.Method() != req.Method {
		return nil, schema.NewParamError("params", fmt.Sprintf("are for %s, not %s", p.Method(), req.Method))
	}
	return p, nil
}
