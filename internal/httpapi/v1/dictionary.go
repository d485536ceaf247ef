package v1

import (
    "net/http"

    "github.com/tinoosan/tms/internal/dictionary"
)

type dictionaryResponse struct {
    Items []dictionary.Def `json:"items"`
}

// GET /v1/dictionary/payment-modes
func (s *Server) getPaymentModes(w http.ResponseWriter, r *http.Request) {
    toJSON(w, http.StatusOK, dictionaryResponse{Items: dictionary.PaymentModes()})
}

// GET /v1/dictionary/token-statuses
func (s *Server) getTokenStatuses(w http.ResponseWriter, r *http.Request) {
    toJSON(w, http.StatusOK, dictionaryResponse{Items: dictionary.TokenStatuses()})
}

// GET /v1/dictionary/rate-types
func (s *Server) getRateTypes(w http.ResponseWriter, r *http.Request) {
    toJSON(w, http.StatusOK, dictionaryResponse{Items: dictionary.RateTypes()})
}
