package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/schema"
)

// GetFilterOptions returns the distinct filter values, read from the input file
// when one is configured and from the record store otherwise.
func GetFilterOptions(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.FilterOptions, error) {
	if cfg.Input == "" {
		store := recordStore(mgr)
		if store == nil {
			return schema.FilterOptions{}, ErrNoRecordSource
		}
		opts, err := store.FilterOptions(ctx)
		if err != nil {
			return schema.FilterOptions{}, fmt.Errorf("failed to read filter options: %w", err)
		}
		return opts, nil
	}
	records, err := LoadRecords(ctx, &contract.Config{Input: cfg.Input}, nil)
	if err != nil {
		return schema.FilterOptions{}, err
	}
	return BuildFilterOptions(records), nil
}

// BuildFilterOptions collects the distinct attribute values of records held in
// memory, sorted the same way the record store sorts them.
func BuildFilterOptions(records []schema.Record) schema.FilterOptions {
	collect := func(value func(schema.Record) string) []string {
		seen := make(map[string]struct{})
		var out []string
		for _, r := range records {
			v := value(r)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
		slices.Sort(out)
		return out
	}
	attr := func(key string) func(schema.Record) string {
		return func(r schema.Record) string { return r.Attributes[key] }
	}

	codes := collect(attr(schema.AttrPortCode))
	slices.SortFunc(codes, func(a, b string) int {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr != nil || berr != nil {
			return cmp.Compare(a, b)
		}
		return cmp.Compare(ai, bi)
	})

	return schema.FilterOptions{
		PortNames:    toOptions(collect(attr(schema.AttrPortName))),
		States:       toOptions(collect(attr(schema.AttrState))),
		Borders:      toOptions(collect(attr(schema.AttrBorder))),
		Measures:     toOptions(collect(attr(schema.AttrMeasure))),
		Dates:        toOptions(collect(schema.Record.DateString)),
		PortCodes:    toOptions(codes),
		AnomalyTypes: schema.MethodOptions(),
	}
}

func toOptions(values []string) []schema.Option {
	out := make([]schema.Option, len(values))
	for i, v := range values {
		out[i] = schema.Option{Value: v, Label: v}
	}
	return out
}
