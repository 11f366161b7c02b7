package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/auctionhouse/go/internal/dbconfig"
)

func setupServer(services *Services) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	registerRoutes(mux, services)
	setupHealthCheck(mux)

	handler := c.Handler(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", dbconfig.HTTPPort("8080")),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerRoutes(mux *http.ServeMux, services *Services) {
	h := &handlers{services: services}

	// Auctions
	mux.HandleFunc("POST /api/auctions", h.startAuction)
	mux.HandleFunc("GET /api/auctions", h.liveAuctions)
	mux.HandleFunc("GET /api/auctions/timers", h.auctionTimers)
	mux.HandleFunc("GET /api/auctions/{id}", h.getAuction)
	mux.HandleFunc("POST /api/auctions/{id}/bids", h.placeBid)
	mux.HandleFunc("POST /api/auctions/{id}/reopen", h.reopenAuction)
	mux.HandleFunc("POST /api/auctions/{id}/unsold", h.forceUnsold)

	// Players
	mux.HandleFunc("POST /api/players", h.registerPlayer)
	mux.HandleFunc("GET /api/players", h.listPlayers)
	mux.HandleFunc("GET /api/players/unassigned", h.listUnassignedPlayers)

	// Teams
	mux.HandleFunc("POST /api/teams", h.createTeam)
	mux.HandleFunc("GET /api/teams", h.listTeams)
	mux.HandleFunc("GET /api/teams/{id}/roster", h.teamRoster)
	mux.HandleFunc("GET /api/teams/{id}/sales", h.teamSales)
	mux.HandleFunc("PUT /api/teams/{id}/budget", h.setTeamBudget)

	// Users
	mux.HandleFunc("POST /api/users", h.createUser)
	mux.HandleFunc("GET /api/users/pending", h.listPendingUsers)
	mux.HandleFunc("POST /api/users/{id}/approve", h.approveUser)
	mux.HandleFunc("PUT /api/users/{id}/can_bid", h.setCanBid)

	// Feed and history
	mux.HandleFunc("GET /api/sales", h.listSales)
	mux.HandleFunc("GET /api/activity", h.recentActivity)
	mux.HandleFunc("GET /api/stats", h.stats)

	// Admin settings
	mux.HandleFunc("PUT /api/settings/registration", h.setRegistrationDeadline)
	mux.HandleFunc("PUT /api/settings/default-budget", h.setDefaultBudget)

	// CSV exports
	mux.HandleFunc("GET /api/export/sales.csv", h.exportSalesCSV)
	mux.HandleFunc("GET /api/export/teams/{id}/roster.csv", h.exportRosterCSV)

	// WebSocket feed
	mux.HandleFunc("GET /ws", services.Hub.ServeWS)
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
