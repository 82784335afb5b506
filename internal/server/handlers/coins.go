package handlers

import (
	"net/http"

	"github.com/coinlens/coinlens/internal/estimate"
)

// CoinsResponse is the catalog payload.
type CoinsResponse struct {
	Denominations []estimate.Denomination `json:"denominations"`
	Conditions    []estimate.Condition    `json:"conditions"`
}

// CoinsHandler handles GET /v1/coins.
func CoinsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CoinsResponse{
		Denominations: estimate.Catalog(),
		Conditions:    estimate.Conditions(),
	})
}
