package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/medsouq/marketplace/internal/icd11"
	"github.com/medsouq/marketplace/internal/pricing"
	"github.com/medsouq/marketplace/internal/pricing/domain"
	"github.com/medsouq/marketplace/pkg/logger"
)

// PricingHandler exposes the pricing engine over HTTP.
type PricingHandler struct {
	engine *pricing.Engine
	repo   domain.PricingRepository
	codes  *icd11.Client // nil disables code validation and search
}

func NewPricingHandler(engine *pricing.Engine, repo domain.PricingRepository, codes *icd11.Client) *PricingHandler {
	return &PricingHandler{engine: engine, repo: repo, codes: codes}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *PricingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/pricing/calculate", AuthMiddleware(h.Calculate)).Methods("POST")
	router.HandleFunc("/api/pricing/bulk", AuthMiddleware(h.CalculateBulk)).Methods("POST")
	router.HandleFunc("/api/pricing/history", AdminMiddleware(h.History)).Methods("GET")
	router.HandleFunc("/api/pricing/codes", AuthMiddleware(h.SearchCodes)).Methods("GET")
}

// Calculate handles POST /api/pricing/calculate
func (h *PricingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var input domain.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if h.codes != nil && input.ICD11Code != "" {
		valid, err := h.codes.ValidateCode(r.Context(), input.ICD11Code)
		if err != nil {
			// The WHO API being down must not block pricing; complexity
			// falls back to the code-shape heuristic.
			logger.Logger.Warn().Err(err).Str("icd11_code", input.ICD11Code).Msg("ICD-11 validation unavailable")
		} else if !valid {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Unknown ICD-11 code",
			})
			return
		}
	}

	result, err := h.engine.Calculate(r.Context(), input)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("service", input.ServiceName).Msg("Pricing calculation rejected")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// CalculateBulk handles POST /api/pricing/bulk
func (h *PricingHandler) CalculateBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []domain.Input `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	results, err := h.engine.CalculateBulk(r.Context(), req.Items)
	if err != nil {
		logger.Logger.Warn().Err(err).Int("items", len(req.Items)).Msg("Bulk pricing rejected")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	var total float64
	for _, result := range results {
		total += result.FinalPrice * float64(result.Quantity)
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"items": results,
			"total": total,
		},
	})
}

// History handles GET /api/pricing/history
func (h *PricingHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	service := r.URL.Query().Get("service")
	var (
		calcs []domain.Calculation
		err   error
	)
	if service != "" {
		calcs, err = h.repo.FindByService(service, limit)
	} else {
		calcs, err = h.repo.FindRecent(limit, offset)
	}
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to load pricing history")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch pricing history",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    calcs,
	})
}

// SearchCodes handles GET /api/pricing/codes
func (h *PricingHandler) SearchCodes(w http.ResponseWriter, r *http.Request) {
	if h.codes == nil {
		respondJSON(w, http.StatusNotImplemented, Response{
			Success: false,
			Error:   "ICD-11 lookup is not configured",
		})
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Query parameter q is required",
		})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	codes, err := h.codes.SearchCodes(r.Context(), q, limit)
	if err != nil {
		logger.Logger.Error().Err(err).Str("query", q).Msg("ICD-11 search failed")
		respondJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   "ICD-11 lookup unavailable",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"codes": codes,
			"total": len(codes),
		},
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
