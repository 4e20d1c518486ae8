// Package handlers holds the thin HTTP layer: decode and validate the
// request, call a service, map its result or error to a JSON response.
package handlers

import (
	"errors"
	"net/http"

	"github.com/amulyarudresh/CorpCard-Sentinel/utils"
	"go.uber.org/zap"
)

var errDatabaseNotConfigured = errors.New("database not configured")

// decodeAndValidate decodes the JSON body into dst and runs its validate tags.
// On failure the 400 response has already been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// pageParams parses limit/offset, writing a 400 on failure
func pageParams(w http.ResponseWriter, r *http.Request) (utils.Page, bool) {
	page, err := utils.ParsePage(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return utils.Page{}, false
	}
	return page, true
}

// idParam parses a positive integer URL parameter, writing a 400 on failure
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := utils.ParseIDParam(r, name)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return 0, false
	}
	return id, true
}

// ListResponse wraps a page of results
type ListResponse struct {
	Items  interface{} `json:"items"`
	Count  int         `json:"count"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
