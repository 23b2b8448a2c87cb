// Package httpapi exposes the gateway over HTTP. It is a thin layer: each
// handler decodes the request, calls one gateway operation, and maps the
// tagged gateway error to a status code. Successful orders and quote batches
// are additionally written to the local stores when those are configured.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"pytrader/internal/domain"
	"pytrader/internal/gateway"
	"pytrader/internal/store"
)

// Server serves the gateway HTTP API. journal and quoteLog are optional;
// when nil the corresponding writes are skipped.
type Server struct {
	gw       *gateway.Gateway
	journal  store.OrderJournal
	quoteLog store.QuoteLog
	log      *slog.Logger
}

// NewServer creates a Server over the given gateway. Either store may be nil.
func NewServer(gw *gateway.Gateway, journal store.OrderJournal, quoteLog store.QuoteLog, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default().With("component", "httpapi")
	}
	return &Server{gw: gw, journal: journal, quoteLog: quoteLog, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /account", s.handleAccount)
	mux.HandleFunc("GET /positions", s.handlePositions)
	mux.HandleFunc("GET /quotes", s.handleQuotes)
	mux.HandleFunc("POST /orders", s.handleSubmitOrder)
	mux.HandleFunc("GET /orders", s.handleListOrders)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, raw string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, RawError: raw})
}

// writeGatewayError maps a gateway failure to an HTTP status. Domain
// failures pass the broker's 4xx status through so clients see the same
// code the broker sent.
func writeGatewayError(w http.ResponseWriter, err error) {
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	status := http.StatusInternalServerError
	switch gerr.Kind {
	case gateway.KindUninitialized:
		status = http.StatusServiceUnavailable
	case gateway.KindRateLimited:
		status = http.StatusTooManyRequests
	case gateway.KindValidation:
		status = http.StatusBadRequest
	case gateway.KindDomain:
		if gerr.StatusCode >= 400 && gerr.StatusCode < 500 {
			status = gerr.StatusCode
		} else {
			status = http.StatusBadRequest
		}
	case gateway.KindTransport:
		status = http.StatusInternalServerError
	}
	writeError(w, status, gerr.Message, gerr.Raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Ready: s.gw.Ready()}
	if !resp.Ready {
		resp.Status = "degraded"
	}
	writeJSON(w, resp)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	info, err := s.gw.GetAccountInfo()
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, info)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.gw.ListPositions()
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, PositionsResponse{Positions: positions})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	for _, part := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if sym := strings.TrimSpace(part); sym != "" {
			symbols = append(symbols, sym)
		}
	}

	quotes, err := s.gw.GetQuotes(symbols)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	if s.quoteLog != nil && len(quotes) > 0 {
		if err := s.quoteLog.AppendQuotes(r.Context(), quotes); err != nil {
			s.log.Warn("appending quotes to log", "error", err)
		}
	}
	writeJSON(w, QuotesResponse{Quotes: quotes})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order request body: "+err.Error(), "")
		return
	}

	res, err := s.gw.SubmitOrder(req)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	if s.journal != nil {
		if err := s.journal.RecordOrder(r.Context(), res); err != nil {
			s.log.Warn("recording order in journal", "id", res.ID, "error", err)
		}
	}
	writeJSON(w, res)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "order journal not configured", "")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", "")
			return
		}
		limit = n
	}

	orders, err := s.journal.ListOrders(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders", "")
		return
	}
	if orders == nil {
		orders = []domain.OrderResult{}
	}
	writeJSON(w, OrdersResponse{Orders: orders})
}
