package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apihttp "tbill-market/internal/api/http"
	"tbill-market/internal/auth"
	billsapp "tbill-market/internal/bills/application"
)

// Handler provides bill ledger HTTP endpoints.
type Handler struct {
	service *billsapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *billsapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("bills handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/ledger and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/ledger/balance":
		h.handleBalance(w, r)
	case r.URL.Path == "/api/v1/ledger/total":
		h.handleTotal(w, r)
	case r.URL.Path == "/api/v1/ledger/transfer":
		h.handleTransfer(w, r)
	case r.URL.Path == "/api/v1/ledger/operators":
		switch r.Method {
		case http.MethodGet:
			h.handleListOperators(w, r)
		case http.MethodPost:
			h.handleAddOperator(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/ledger/operators/"):
		h.handleOperator(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	seriesID := r.URL.Query().Get("series_id")
	holder := auth.Party(r.URL.Query().Get("holder"))
	if !holder.Valid() {
		holder = auth.PartyFromContext(r.Context())
	}
	balance, err := h.service.BalanceOf(r.Context(), seriesID, holder)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.RespondJSON(w, http.StatusOK, map[string]any{
		"series_id": seriesID,
		"holder":    string(holder),
		"balance":   balance,
	})
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	seriesID := r.URL.Query().Get("series_id")
	total, err := h.service.TotalForSeries(r.Context(), seriesID)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.RespondJSON(w, http.StatusOK, map[string]any{
		"series_id": seriesID,
		"total":     total,
	})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SeriesID string `json:"series_id"`
		To       string `json:"to"`
		Amount   int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	// Over HTTP a holder can only move their own balance.
	caller := auth.PartyFromContext(r.Context())
	if err := h.service.Transfer(r.Context(), caller, req.SeriesID, caller, auth.Party(req.To), req.Amount); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.RespondJSON(w, http.StatusOK, map[string]any{
		"series_id": req.SeriesID,
		"from":      string(caller),
		"to":        req.To,
		"amount":    req.Amount,
	})
}

func (h *Handler) handleListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.service.Operators(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	result := make([]string, 0, len(operators))
	for _, op := range operators {
		result = append(result, string(op))
	}
	apihttp.RespondJSON(w, http.StatusOK, map[string]any{"operators": result})
}

func (h *Handler) handleAddOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Party string `json:"party"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.service.AddOperator(r.Context(), auth.Party(req.Party)); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.RespondJSON(w, http.StatusCreated, map[string]string{"party": req.Party})
}

func (h *Handler) handleOperator(w http.ResponseWriter, r *http.Request) {
	party := auth.Party(strings.TrimPrefix(r.URL.Path, "/api/v1/ledger/operators/"))

	switch r.Method {
	case http.MethodGet:
		operator, err := h.service.IsOperator(r.Context(), party)
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]any{
			"party":    string(party),
			"operator": operator,
		})
	case http.MethodDelete:
		if err := h.service.RemoveOperator(r.Context(), party); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
