package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/huangsam/outlier/core"
	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/schema"
)

// FilterQuery holds the record filter shared by the data and anomaly routes.
type FilterQuery struct {
	PortName string `query:"port_name"`
	State    string `query:"state"`
	Border   string `query:"border"`
	Measure  string `query:"measure"`
	PortCode string `query:"port_code" validate:"omitempty,numeric"`
	Date     string `query:"date"`
	Start    string `query:"start"`
	End      string `query:"end"`
}

func (q FilterQuery) raw() *contract.ConfigRawInput {
	return &contract.ConfigRawInput{
		PortName: q.PortName,
		State:    q.State,
		Border:   q.Border,
		Measure:  q.Measure,
		PortCode: q.PortCode,
		Date:     q.Date,
		Start:    q.Start,
		End:      q.End,
	}
}

// DataQuery is the query string of /api/data.
type DataQuery struct {
	FilterQuery
	Limit int `query:"limit" default:"1000" validate:"min=1,max=10000"`
}

// AnomalyQuery is the query string of /api/anomalies.
type AnomalyQuery struct {
	FilterQuery
	AnomalyType string `query:"anomaly_type" default:"statistical"`
	Threshold   string `query:"threshold"`
	ValueMin    string `query:"value_min"`
	ValueMax    string `query:"value_max"`
	Period      string `query:"period"`
	Model       string `query:"model"`
	Limit       int    `query:"limit" default:"100" validate:"min=1,max=10000"`
}

func (s *Server) registerRoutes() {
	s.echo.GET("/hello", s.handleHello)
	api := s.echo.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/data", s.handleData)
	api.GET("/anomalies", s.handleAnomalies)
	api.GET("/filter-options", s.handleFilterOptions)
}

func (s *Server) handleHello(c echo.Context) error {
	return c.String(http.StatusOK, "Hello, World!")
}

func (s *Server) handleStatus(c echo.Context) error {
	body := map[string]any{"status": "API is running"}
	if store := s.recordStore(); store != nil {
		status, err := store.GetStatus()
		if err != nil {
			return s.fail(c, err)
		}
		body["store"] = status
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) handleData(c echo.Context) error {
	var q DataQuery
	if errs := bindQuery(c, &q); errs != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: summarize(errs), Details: errs})
	}
	cfg, err := s.requestConfig(q.raw(), q.Limit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	records, err := core.LoadRecords(c.Request().Context(), cfg, s.recordStore())
	if err != nil {
		return s.fail(c, err)
	}
	if len(records) > cfg.ResultLimit {
		records = records[:cfg.ResultLimit]
	}
	if records == nil {
		records = []schema.Record{}
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleAnomalies(c echo.Context) error {
	var q AnomalyQuery
	if errs := bindQuery(c, &q); errs != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: summarize(errs), Details: errs})
	}
	method, err := schema.ParseMethod(q.AnomalyType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if method == schema.RangeMethod && q.ValueMin == "" && q.ValueMax == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: "range detection requires at least one of value_min or value_max",
		})
	}

	raw := q.raw()
	raw.Method = string(method)
	raw.Threshold = q.Threshold
	raw.Min = q.ValueMin
	raw.Max = q.ValueMax
	raw.Period = q.Period
	raw.Model = q.Model
	cfg, err := s.requestConfig(raw, q.Limit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ctx := core.WithSuppressHeader(c.Request().Context())
	report, err := core.RunDetection(ctx, cfg, s.mgr, s.rec)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleFilterOptions(c echo.Context) error {
	opts, err := core.GetFilterOptions(c.Request().Context(), s.cfg, s.mgr)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

// requestConfig copies the server config and applies the request's detection
// params, filter and row limit to the copy.
func (s *Server) requestConfig(raw *contract.ConfigRawInput, limit int) (*contract.Config, error) {
	cfg := *s.cfg
	if err := contract.ProcessQuery(&cfg, raw); err != nil {
		return nil, err
	}
	cfg.ResultLimit = limit
	return &cfg, nil
}

func (s *Server) recordStore() contract.RecordStore {
	if s.mgr == nil {
		return nil
	}
	return s.mgr.GetRecordStore()
}

// fail maps err to a JSON error response. Caller errors are 400, a missing
// record source is 503 and anything else is 500.
func (s *Server) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case schema.IsCallerError(err):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNoRecordSource):
		status = http.StatusServiceUnavailable
	default:
		log.Error().Err(err).Str("route", c.Path()).Msg("request failed")
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}
