// Package handlers serves the database queries and speciation operations
// over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps an error to its HTTP status through the error code
// table.  Errors without a code are masked as internal.
func writeAppError(w http.ResponseWriter, err error) {
	var app *errors.AppError
	if !errors.As(err, &app) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    errors.ErrCodeInternal.String(),
			Message: "internal server error",
		})
		return
	}
	status := errors.HTTPStatusForCode(app.Code)
	resp := ErrorResponse{Code: app.Code.String(), Message: app.Message, Detail: app.Detail}
	if app.Code == errors.ErrCodeInternal || app.Code == errors.ErrCodeUnknown {
		resp.Message = "internal server error"
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errors.InvalidParam("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var app *errors.AppError
		if errors.As(err, &app) {
			return app
		}
		return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body")
	}
	return nil
}

// queryList splits a comma separated query parameter, also accepting the
// parameter repeated.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// queryBool reads a boolean query parameter, def when absent.
func queryBool(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.InvalidParam("query parameter " + key + " must be a boolean")
	}
	return b, nil
}

// targetSet validates element symbols.
func targetSet(syms []string) (chemistry.ElementSet, error) {
	if len(syms) == 0 {
		return nil, errors.InvalidParam("at least one target element is required (targets=Ca,Mg)")
	}
	var bad []string
	for _, s := range syms {
		if !chemistry.IsValidElement(s) {
			bad = append(bad, s)
		}
	}
	if len(bad) > 0 {
		return nil, errors.InvalidParam("not element symbols: " + strings.Join(bad, ", "))
	}
	return chemistry.NewElementSet(syms...), nil
}

// databaseParam is the {database} route parameter.
func databaseParam(r *http.Request) string {
	return chi.URLParam(r, "database")
}

//Personal.AI order the ending
