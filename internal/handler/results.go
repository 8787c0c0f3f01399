package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/match-results/backend/internal/domain"
	"github.com/pkordes/match-results/backend/internal/middleware"
)

// Result formats accepted by GET /results?format=.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// csvHeaders defines the column names written as the first row of a CSV response.
var csvHeaders = []string{"location", "address", "date", "time", "number_of_matches"}

// GetResultsParams are the query parameters of GET /results.
type GetResultsParams struct {
	Format *string
	Page   *int
	Limit  *int
}

// ResultsResponse is the JSON body of GET /results.
//
// Results is null until a run produces rows, and also when the user has no
// matches at all. An empty array means matches existed but none of them
// could be placed on the map.
type ResultsResponse struct {
	State      domain.RunState     `json:"state"`
	Results    []domain.DisplayRow `json:"results"`
	Error      string              `json:"error,omitempty"`
	Pagination *PaginationMeta     `json:"pagination,omitempty"`
}

// PaginationMeta describes the window of Results returned.
type PaginationMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// GetResults handles GET /results.
//
// Observing the session starts the pipeline for a newly identified user, so
// the first call normally answers 202 with state "fetching". Clients poll
// until the state settles: 200 with rows once resolved, 502 when the run
// failed. ?format=csv returns the resolved rows as CSV instead.
func (s *Server) GetResults(w http.ResponseWriter, r *http.Request) {
	params, err := bindGetResultsParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	format := FormatJSON
	if params.Format != nil {
		format = *params.Format
	}
	if format != FormatJSON && format != FormatCSV {
		writeError(w, http.StatusBadRequest, "validation_error", "format must be json or csv")
		return
	}

	ctx := r.Context()
	snap, err := s.results.Observe(ctx, middleware.SessionIDFromContext(ctx), middleware.AuthFromContext(ctx))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	switch snap.State {
	case domain.StateResolved:
		if format == FormatCSV {
			writeCSV(w, snap.Rows)
			return
		}
		p := domain.NewPaginationParams(params.Page, params.Limit)
		writeJSON(w, http.StatusOK, ResultsResponse{
			State:      snap.State,
			Results:    domain.Paginate(snap.Rows, p),
			Pagination: &PaginationMeta{Page: p.Page, Limit: p.Limit, Total: len(snap.Rows)},
		})
	case domain.StateFailed:
		writeJSON(w, http.StatusBadGateway, ResultsResponse{State: snap.State, Error: snap.Error})
	default:
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusAccepted, ResultsResponse{State: snap.State})
	}
}

// DeleteSession handles DELETE /session: the caller's identity changed
// (logout or user switch), so the next GET /results starts from scratch.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := s.results.Reset(ctx, middleware.SessionIDFromContext(ctx)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bindGetResultsParams(r *http.Request) (GetResultsParams, error) {
	var params GetResultsParams
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "format", query, &params.Format); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		return params, err
	}
	return params, nil
}

// writeCSV encodes rows as CSV with a header line. A nil row set produces
// only the header.
func writeCSV(w http.ResponseWriter, rows []domain.DisplayRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, row := range rows {
		//nolint:errcheck
		cw.Write([]string{row.Location, row.Address, row.Date, row.Time, strconv.Itoa(row.NumberOfMatches)})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="matches.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
