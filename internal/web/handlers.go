package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vitos/injective_dashboard/internal/domain"
	"github.com/vitos/injective_dashboard/internal/usecase"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	portfolio, err := s.portfolio.GetPortfolio(r.Context(), address)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, portfolio)
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := usecase.MarketFilter{
		Type:   q.Get("type"),
		Search: q.Get("search"),
		SortBy: q.Get("sort_by"),
		Order:  q.Get("order"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	markets, total, err := s.markets.GetMarkets(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"markets": markets,
		"total":   total,
	})
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	market, err := s.markets.GetMarket(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if market == nil {
		s.writeError(w, domain.NewNotFound("unknown market"))
		return
	}
	s.writeJSON(w, http.StatusOK, market)
}

func (s *Server) handleGetMarketAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.analytics.GetMarketAnalytics(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if analytics == nil {
		s.writeError(w, domain.NewNotFound("no analytics for market"))
		return
	}
	s.writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleGetTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.tokens.GetAllTokens(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.tokens.GetToken(r.Context(), r.PathValue("denom")))
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain error codes to statuses. Raw transport errors
// never reach a response body: anything untyped is reported as internal.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := domain.CodeInternal
	message := "internal error"

	var derr *domain.Error
	if errors.As(err, &derr) {
		code = derr.Code
		message = derr.Message
	} else {
		// Untyped errors out of the cache/service path are upstream
		// producer failures.
		code = domain.CodeUpstream
		message = "upstream query failed"
	}

	status := http.StatusInternalServerError
	switch code {
	case domain.CodeInvalidInput:
		status = http.StatusBadRequest
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeUpstream:
		status = http.StatusBadGateway
	}

	if status >= 500 {
		s.logger.Error("request failed", zap.String("code", code), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("code", code), zap.Error(err))
	}
	s.writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
