// Package handler exposes the HTTP API: ranked discount listings, card
// rankings, semantic search and the admin surface.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"mzohaib/bankdealworker/internal/normalize"
	"mzohaib/bankdealworker/internal/pipeline"
	"mzohaib/bankdealworker/logger"
	"mzohaib/bankdealworker/services/store"
)

const (
	defaultOfferLimit    = 50
	defaultSemanticLimit = 10
)

// Handler serves the HTTP API backed by the pipeline
type Handler struct {
	pipeline *pipeline.Pipeline
	log      *logger.Logger
}

// New creates the API handler
func New(p *pipeline.Pipeline) *Handler {
	return &Handler{
		pipeline: p,
		log:      logger.ForComponent("handler"),
	}
}

// Router builds the chi router with the full route table
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/discounts", h.listDiscounts)
	r.Get("/cards/rankings", h.rankCards)
	r.Get("/search/semantic", h.semanticSearch)
	r.Get("/banks", h.listBanks)
	r.Get("/banks/{bankID}", h.getBank)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/maintenance", h.maintenance)
		r.Post("/trigger-scrape", h.triggerScrape)
		r.Get("/analytics", h.analytics)
		r.Get("/trends", h.trends)
		r.Get("/insights", h.insights)
	})

	return r
}

// listDiscounts serves the ranked, filtered offer listing. During a scrape
// round the maintenance message is returned instead of half-written data.
func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	if h.inMaintenance(w) {
		return
	}

	query := r.URL.Query()
	filter := store.Filter{
		Bank:     query.Get("bank"),
		CardType: query.Get("card_type"),
		CardTier: query.Get("card_tier"),
		Limit:    parseUint(query.Get("limit"), defaultOfferLimit),
		Offset:   parseUint(query.Get("offset"), 0),
	}
	if city := query.Get("city"); city != "" {
		filter.City = normalize.City(city)
	}
	if category := query.Get("category"); category != "" {
		filter.Category = normalize.Category(category)
	}
	intent := query.Get("intent")

	offers, err := h.pipeline.Offers(r.Context(), filter, intent)
	if err != nil {
		h.serverError(w, err, "failed to list discounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(offers),
		"discounts": offers,
	})
}

func (h *Handler) rankCards(w http.ResponseWriter, r *http.Request) {
	if h.inMaintenance(w) {
		return
	}

	cards, err := h.pipeline.RankCards(r.Context())
	if err != nil {
		h.serverError(w, err, "failed to rank cards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(cards),
		"cards": cards,
	})
}

func (h *Handler) semanticSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "q is required"})
		return
	}
	limit := int(parseUint(r.URL.Query().Get("limit"), defaultSemanticLimit))

	results, err := h.pipeline.SemanticSearch(query, limit)
	if err != nil {
		h.serverError(w, err, "semantic search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func (h *Handler) maintenance(w http.ResponseWriter, r *http.Request) {
	active, msg := h.pipeline.IsMaintenance()
	writeJSON(w, http.StatusOK, map[string]any{
		"maintenance": active,
		"message":     msg,
		"last_run":    h.pipeline.LastRun(),
	})
}

// triggerScrape starts a scrape round in the background. The response is
// "started" either way; an already-running round simply keeps going.
func (h *Handler) triggerScrape(w http.ResponseWriter, r *http.Request) {
	go func() {
		if _, err := h.pipeline.RunFullScrape(context.Background()); err != nil {
			h.log.Warn().Err(err).Msg("Triggered scrape did not start")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "started"})
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.pipeline.Analytics(r.Context())
	if err != nil {
		h.serverError(w, err, "failed to load analytics")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	t, err := h.pipeline.Trends(r.Context())
	if err != nil {
		h.serverError(w, err, "failed to load trends")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.pipeline.BankInsights(r.Context())
	if err != nil {
		h.serverError(w, err, "failed to load insights")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"banks": insights})
}

func (h *Handler) listBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.pipeline.ListBanks(r.Context())
	if err != nil {
		h.serverError(w, err, "failed to list banks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(banks),
		"results": banks,
	})
}

func (h *Handler) getBank(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bankID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid bank id"})
		return
	}

	bank, err := h.pipeline.GetBank(r.Context(), id)
	if errors.Is(err, store.ErrBankNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "bank not found"})
		return
	}
	if err != nil {
		h.serverError(w, err, "failed to load bank")
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (h *Handler) inMaintenance(w http.ResponseWriter) bool {
	active, msg := h.pipeline.IsMaintenance()
	if !active {
		return false
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"maintenance": true,
		"message":     msg,
	})
	return true
}

func (h *Handler) serverError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func parseUint(value string, fallback uint64) uint64 {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
