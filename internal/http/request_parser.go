package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgetweek/internal/core"
)

// maxBodyBytes caps request bodies; budget payloads are tiny.
const maxBodyBytes = 64 << 10

// errBadRequest marks malformed requests, as opposed to well-formed requests
// the budget rules reject.
var errBadRequest = errors.New("bad request")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, defaulting
// to today's month. Non-numeric values fall back to the default; a month
// outside 1-12 is an error.
func ParseMonthParams(query url.Values, today core.Date) (MonthParams, error) {
	params := MonthParams{
		Year:  today.Year(),
		Month: int(today.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}

	if params.Month < 1 || params.Month > 12 {
		return MonthParams{}, fmt.Errorf("%w: month %d out of range", errBadRequest, params.Month)
	}
	if params.Year < 1 {
		return MonthParams{}, fmt.Errorf("%w: year %d out of range", errBadRequest, params.Year)
	}
	return params, nil
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// pathDate parses the named path segment as a YYYY-MM-DD date.
func pathDate(r *http.Request, name string) (core.Date, error) {
	d, err := core.ParseDate(r.PathValue(name))
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return d, nil
}

// queryIndex parses a required non-negative integer query parameter.
func queryIndex(query url.Values, name string) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return 0, fmt.Errorf("%w: missing %s", errBadRequest, name)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return n, nil
}

type incomeRequest struct {
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
}

type expenseRequest struct {
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
}

type amountRequest struct {
	Amount core.Money `json:"amount"`
}

type balanceRequest struct {
	Balance core.Money `json:"balance"`
}

type goalRequest struct {
	Goal core.Money `json:"goal"`
}
