package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apihttp "tbill-market/internal/api/http"
	"tbill-market/internal/auth"
	repoapp "tbill-market/internal/repomarket/application"
	repomarket "tbill-market/internal/repomarket/domain"
)

const timeLayout = time.RFC3339

// Handler provides repo market HTTP endpoints.
type Handler struct {
	market *repoapp.Market
}

// NewHandler constructs a handler.
func NewHandler(market *repoapp.Market) (*Handler, error) {
	if market == nil {
		return nil, errors.New("repomarket handler: nil market")
	}
	return &Handler{market: market}, nil
}

type positionResponse struct {
	ID               uint64 `json:"id"`
	Borrower         string `json:"borrower"`
	SeriesID         string `json:"series_id"`
	CollateralPar    int64  `json:"collateral_par"`
	CashDisbursed    int64  `json:"cash_disbursed"`
	RepurchaseAmount int64  `json:"repurchase_amount"`
	OpenedAt         string `json:"opened_at"`
	Deadline         string `json:"deadline"`
	Status           string `json:"status"`
}

func toPositionResponse(p *repomarket.Position) positionResponse {
	return positionResponse{
		ID:               p.ID,
		Borrower:         string(p.Borrower),
		SeriesID:         p.SeriesID,
		CollateralPar:    p.CollateralPar,
		CashDisbursed:    p.CashDisbursed,
		RepurchaseAmount: p.RepurchaseAmount,
		OpenedAt:         p.OpenedAt.Format(timeLayout),
		Deadline:         p.Deadline.Format(timeLayout),
		Status:           string(p.Status),
	}
}

// ServeHTTP handles /api/v1/repos and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/repos":
		switch r.Method {
		case http.MethodPost:
			h.handleOpen(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case r.URL.Path == "/api/v1/repos/terms":
		h.handleTerms(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/repos/"):
		h.handlePosition(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SeriesID      string `json:"series_id"`
		CollateralPar int64  `json:"collateral_par"`
		DesiredCash   int64  `json:"desired_cash"`
		Deadline      string `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	deadline, err := time.Parse(timeLayout, req.Deadline)
	if err != nil {
		http.Error(w, "deadline must be RFC3339", http.StatusBadRequest)
		return
	}

	id, err := h.market.OpenRepo(r.Context(), req.SeriesID, req.CollateralPar, req.DesiredCash, deadline.UTC())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.RespondJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	borrower := auth.PartyFromContext(r.Context())
	positions, err := h.market.ListPositions(r.Context(), borrower)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	result := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		result = append(result, toPositionResponse(p))
	}
	apihttp.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTerms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	apihttp.RespondJSON(w, http.StatusOK, map[string]int64{
		"haircut_bps": h.market.Haircut(),
		"spread_bps":  h.market.Spread(),
	})
}

func (h *Handler) handlePosition(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/repos/")
	parts := strings.Split(path, "/")
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		position, err := h.market.GetPosition(r.Context(), id)
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, toPositionResponse(position))
		return
	}
	if len(parts) != 2 || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[1] {
	case "close":
		if err := h.market.CloseRepo(r.Context(), id); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]any{
			"id":     id,
			"status": string(repomarket.StatusClosed),
		})
	case "default":
		if err := h.market.ClaimDefault(r.Context(), id); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]any{
			"id":     id,
			"status": string(repomarket.StatusDefaulted),
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
