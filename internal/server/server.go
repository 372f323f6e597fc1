package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/collector"
	"MarketCompass/internal/levels"
	"MarketCompass/internal/model"
	"MarketCompass/internal/store"
)

// Server exposes the aggregated data as a JSON API for the dashboard.
type Server struct {
	Addr      string
	Store     store.Store
	Dataroma  *collector.DataromaClient
	Fetcher   collector.BarFetcher
	Crypto    *analyzer.CryptoAnalyzer
	Flow      *analyzer.FlowAnalyzer
	Sentiment *analyzer.SentimentAnalyzer
	Params    levels.Params
	Hub       *Hub

	router *mux.Router
}

// New builds the server and its routes.
func New(addr string, st store.Store, dataroma *collector.DataromaClient, fetcher collector.BarFetcher,
	crypto *analyzer.CryptoAnalyzer, flow *analyzer.FlowAnalyzer, sentiment *analyzer.SentimentAnalyzer,
	params levels.Params, hub *Hub) *Server {

	s := &Server{
		Addr:      addr,
		Store:     st,
		Dataroma:  dataroma,
		Fetcher:   fetcher,
		Crypto:    crypto,
		Flow:      flow,
		Sentiment: sentiment,
		Params:    params,
		Hub:       hub,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/investors", s.handleInvestors).Methods(http.MethodGet)
	api.HandleFunc("/portfolio/{id}", s.handlePortfolio).Methods(http.MethodGet)
	api.HandleFunc("/overlap", s.handleOverlap).Methods(http.MethodGet)
	api.HandleFunc("/changes/{id}", s.handleChanges).Methods(http.MethodGet)
	api.HandleFunc("/crypto/recommendations", s.handleCryptoRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/analysis/{symbol}", s.handleAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/flows", s.handleFlows).Methods(http.MethodGet)
	api.HandleFunc("/sentiment", s.handleSentiment).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if s.Hub != nil {
		r.HandleFunc("/ws", s.Hub.HandleWS)
	}
	return r
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving HTTP.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	log.Infof("http server listening on %s", s.Addr)
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInvestors(w http.ResponseWriter, r *http.Request) {
	investors, err := s.Dataroma.Investors(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, investors)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var snap *model.PortfolioSnapshot
	var err error
	if quarter := r.URL.Query().Get("quarter"); quarter != "" {
		snap, err = s.Store.GetPortfolio(id, quarter)
	} else {
		snap, err = s.Store.GetLatestPortfolio(id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		// Cache miss: scrape live and backfill.
		snap, err = s.Dataroma.Portfolio(r.Context(), id)
		if err == nil {
			if saveErr := s.Store.SavePortfolio(snap); saveErr != nil {
				log.Warnf("backfill snapshot for %s failed: %v", id, saveErr)
			}
		}
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "portfolio not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleOverlap(w http.ResponseWriter, r *http.Request) {
	minOwners := 2
	if v := r.URL.Query().Get("min_owners"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "min_owners must be a positive integer")
			return
		}
		minOwners = n
	}

	ids, err := s.Store.GetInvestorIDs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var snaps []*model.PortfolioSnapshot
	for _, id := range ids {
		snap, err := s.Store.GetLatestPortfolio(id)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	writeJSON(w, http.StatusOK, analyzer.FindOverlap(snaps, minOwners))
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	quarters, err := s.Store.GetQuarters(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(quarters) < 2 {
		writeError(w, http.StatusNotFound, "need two stored quarters for "+id)
		return
	}
	curr, err := s.Store.GetPortfolio(id, quarters[0])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	prev, err := s.Store.GetPortfolio(id, quarters[1])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"investor_id":  id,
		"from_quarter": quarters[1],
		"to_quarter":   quarters[0],
		"changes":      analyzer.DiffSnapshots(prev, curr),
	})
}

func (s *Server) handleCryptoRecommendations(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = "upbit"
	}
	topN := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		topN = n
	}

	recs, err := s.Crypto.Recommend(r.Context(), exchange, topN)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	bars, err := s.Fetcher.FetchDailyBars(r.Context(), symbol, 120)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	var current float64
	if len(bars) > 0 {
		current = bars[len(bars)-1].Close
	}
	ind := analyzer.ComputeIndicators(bars, current)
	plan := analyzer.BuildPlan(bars, ind, s.Params)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":     symbol,
		"indicators": ind,
		"plan":       plan,
	})
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Flow.Recommend(r.Context(), 20)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	sentiment, err := s.Sentiment.MarketSentiment(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sentiment)
}
