package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apihttp "tbill-market/internal/api/http"
	"tbill-market/internal/auth"
	seriesapp "tbill-market/internal/series/application"
	series "tbill-market/internal/series/domain"
)

const timeLayout = time.RFC3339

// Handler provides series engine HTTP endpoints.
type Handler struct {
	engine *seriesapp.Engine
}

// NewHandler constructs a handler.
func NewHandler(engine *seriesapp.Engine) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("series handler: nil engine")
	}
	return &Handler{engine: engine}, nil
}

type createSeriesRequest struct {
	ID           string `json:"id"`
	IssueTime    string `json:"issue_time"`
	MaturityTime string `json:"maturity_time"`
	IssuePrice   int64  `json:"issue_price"`
	Cap          int64  `json:"cap"`
	UserCap      int64  `json:"user_cap"`
}

type seriesResponse struct {
	ID                 string `json:"id"`
	IssueTime          string `json:"issue_time"`
	MaturityTime       string `json:"maturity_time"`
	IssuePrice         int64  `json:"issue_price"`
	Cap                int64  `json:"cap"`
	UserCap            int64  `json:"user_cap"`
	Minted             int64  `json:"minted"`
	TotalCashCollected int64  `json:"total_cash_collected"`
	Status             string `json:"status"`
}

func toSeriesResponse(s *series.Series) seriesResponse {
	return seriesResponse{
		ID:                 s.ID,
		IssueTime:          s.IssueTime.Format(timeLayout),
		MaturityTime:       s.MaturityTime.Format(timeLayout),
		IssuePrice:         s.IssuePrice,
		Cap:                s.Cap,
		UserCap:            s.UserCap,
		Minted:             s.Minted,
		TotalCashCollected: s.TotalCashCollected,
		Status:             string(s.Status),
	}
}

// ServeHTTP handles /api/v1/series and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/series":
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case strings.HasPrefix(r.URL.Path, "/api/v1/series/"):
		h.handleSeries(w, r)
		return
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	issueTime, err := parseTime(req.IssueTime, "issue_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	maturityTime, err := parseTime(req.MaturityTime, "maturity_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.engine.CreateSeries(r.Context(), seriesapp.CreateSeriesParams{
		ID:           req.ID,
		IssueTime:    issueTime,
		MaturityTime: maturityTime,
		IssuePrice:   req.IssuePrice,
		Cap:          req.Cap,
		UserCap:      req.UserCap,
	})
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.RespondJSON(w, http.StatusCreated, toSeriesResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListSeries(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	result := make([]seriesResponse, 0, len(list))
	for _, s := range list {
		result = append(result, toSeriesResponse(s))
	}
	apihttp.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/series/")
	parts := strings.Split(path, "/")

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s, err := h.engine.GetSeries(r.Context(), parts[0])
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, toSeriesResponse(s))
		return
	}
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]
	action := parts[1]

	switch action {
	case "price":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		price, err := h.engine.CurrentPrice(r.Context(), id)
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]int64{"price": price})
	case "subscription":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		holder := auth.Party(r.URL.Query().Get("holder"))
		if !holder.Valid() {
			holder = auth.PartyFromContext(r.Context())
		}
		quantity, err := h.engine.GetSubscription(r.Context(), id, holder)
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]any{
			"series_id": id,
			"holder":    string(holder),
			"quantity":  quantity,
		})
	case "activate":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.engine.ActivateSeries(r.Context(), id); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]string{"status": string(series.StatusActive)})
	case "mature":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.engine.MatureSeries(r.Context(), id); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]string{"status": string(series.StatusMatured)})
	case "subscribe":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			PayAmount int64 `json:"pay_amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		result, err := h.engine.Subscribe(r.Context(), id, req.PayAmount)
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]any{
			"series_id":  result.SeriesID,
			"holder":     string(result.Holder),
			"pay_amount": result.PayAmount,
			"price":      result.Price,
			"minted_par": result.MintedPar,
		})
	case "redeem":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			BillAmount int64 `json:"bill_amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if err := h.engine.Redeem(r.Context(), id, req.BillAmount); err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.RespondJSON(w, http.StatusOK, map[string]any{
			"series_id":   id,
			"bill_amount": req.BillAmount,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func parseTime(value, key string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return parsed.UTC(), nil
}
