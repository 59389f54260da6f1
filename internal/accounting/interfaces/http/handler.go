package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	accountingapp "tbill-market/internal/accounting/application"
	"tbill-market/internal/accounting/interfaces"
	apihttp "tbill-market/internal/api/http"
	"tbill-market/internal/observability/metrics"
)

// Handler provides protocol accounting HTTP endpoints.
type Handler struct {
	service *accountingapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *accountingapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("accounting handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/accounting and report downloads.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/accounting":
		h.handleSnapshot(w, r)
	case "/api/v1/accounting/report.pdf":
		h.handleReport(w, r, "pdf")
	case "/api/v1/accounting/report.xlsx":
		h.handleReport(w, r, "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Snapshot(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	profit, err := record.Profit()
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	available, err := record.AvailableForLending()
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.RespondJSON(w, http.StatusOK, map[string]any{
		"total_cash_collected":   record.TotalCashCollected,
		"total_liability_minted": record.TotalLiabilityMinted,
		"total_lent":             record.TotalLent,
		"total_repo_revenue":     record.TotalRepoRevenue,
		"total_defaults":         record.TotalDefaults,
		"profit":                 profit,
		"available_for_lending":  available,
	})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()

	record, err := h.service.Snapshot(r.Context())
	if err != nil {
		metrics.ObserveReportExport(format, "error", time.Since(start))
		apihttp.WriteError(w, err)
		return
	}

	generatedAt := time.Now().UTC()
	var payload []byte
	var contentType string
	switch format {
	case "pdf":
		payload, err = interfaces.BuildReportPDF(record, generatedAt)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = interfaces.BuildReportXLSX(record, generatedAt)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		metrics.ObserveReportExport(format, "error", time.Since(start))
		apihttp.WriteError(w, err)
		return
	}

	metrics.ObserveReportExport(format, "success", time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=accounting-report-%s.%s", generatedAt.Format("20060102T150405Z"), format))
	_, _ = w.Write(payload)
}
