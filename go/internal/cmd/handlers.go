package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/export"
	"github.com/mcdev12/auctionhouse/go/internal/players"
	"github.com/mcdev12/auctionhouse/go/internal/teams"
	"github.com/mcdev12/auctionhouse/go/internal/users"
)

type handlers struct {
	services *Services
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the typed domain errors onto HTTP status codes. Anything
// unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, auction.ErrPlayerNotFound),
		errors.Is(err, auction.ErrTeamNotFound),
		errors.Is(err, teams.ErrTeamNotFound),
		errors.Is(err, players.ErrPlayerNotFound),
		errors.Is(err, users.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrNotEligible),
		errors.Is(err, players.ErrRegistrationClosed):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrDuplicateSubject),
		errors.Is(err, auction.ErrInvalidState),
		errors.Is(err, auction.ErrNotLive),
		errors.Is(err, auction.ErrStaleBid),
		errors.Is(err, auction.ErrBudgetExceeded),
		errors.Is(err, auction.ErrInsufficientFunds):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// --- auctions ---

func (h *handlers) startAuction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID uuid.UUID `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	a, err := h.services.Engine.StartAuction(r.Context(), req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *handlers) liveAuctions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.services.Engine.LiveAuctions())
}

func (h *handlers) getAuction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := h.services.Engine.Auction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handlers) placeBid(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id"`
		Amount int64     `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, err := h.services.Engine.PlaceBid(r.Context(), req.UserID, id, req.Amount)
	if err != nil {
		h.publishBidRejected(id, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"current_price": price})
}

// publishBidRejected pushes a rejection notice onto the live feed so the
// bidder's UI can show why the bid bounced.
func (h *handlers) publishBidRejected(auctionID uuid.UUID, cause error) {
	if statusFor(cause) == http.StatusInternalServerError {
		return
	}
	env, err := events.New(auctionID, events.EventTypeBidRejected, events.BidRejectedPayload{
		AuctionID: auctionID.String(),
		Reason:    cause.Error(),
	})
	if err != nil {
		log.Error().Err(err).Msg("build BidRejected event")
		return
	}
	h.services.Hub.Publish(env)
}

func (h *handlers) reopenAuction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := h.services.Engine.Reopen(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handlers) forceUnsold(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.services.Engine.ForceUnsold(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) auctionTimers(w http.ResponseWriter, r *http.Request) {
	deadlines := h.services.Engine.TimerDeadlines()
	timers := make(map[string]int, len(deadlines))
	for id, secs := range deadlines {
		timers[id.String()] = secs
	}
	writeJSON(w, http.StatusOK, timers)
}

// --- players ---

func (h *handlers) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req players.RegisterPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	player, err := h.services.Players.RegisterPlayer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.services.Engine.BroadcastStats()
	writeJSON(w, http.StatusCreated, player)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.services.Engine.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) listPlayers(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Players.ListPlayers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) listUnassignedPlayers(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Players.ListUnassigned(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// --- teams ---

func (h *handlers) createTeam(w http.ResponseWriter, r *http.Request) {
	var req teams.CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Fall back to the configured default budget.
	if req.Budget == 0 {
		budget, err := h.services.Settings.DefaultBudget(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		req.Budget = budget
	}

	team, err := h.services.Teams.CreateTeam(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *handlers) listTeams(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Teams.ListTeams(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) teamRoster(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	roster, err := h.services.Teams.Roster(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (h *handlers) setTeamBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var req struct {
		Budget int64 `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	team, err := h.services.Teams.SetBudget(r.Context(), id, req.Budget)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// --- users ---

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req users.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	user, err := h.services.Users.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *handlers) listPendingUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Users.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) approveUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var req struct {
		TeamID uuid.UUID `json:"team_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	user, err := h.services.Users.Approve(r.Context(), id, req.TeamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) setCanBid(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var req struct {
		CanBid bool `json:"can_bid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	user, err := h.services.Users.SetCanBid(r.Context(), id, req.CanBid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- feed, sales, settings, exports ---

func (h *handlers) listSales(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Sales.ListSales(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) teamSales(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	list, err := h.services.Sales.ListSalesByTeam(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) recentActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.services.Activity.Recent(r.Context(), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handlers) setRegistrationDeadline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Until time.Time `json:"until"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.services.Settings.SetRegistrationDeadline(r.Context(), req.Until); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) setDefaultBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Budget int64 `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.services.Settings.SetDefaultBudget(r.Context(), req.Budget); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) exportSalesCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.services.Sales.ListSales(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sold_players.csv"`)
	if err := export.WriteSales(w, records); err != nil {
		log.Error().Err(err).Msg("failed to stream sales CSV")
	}
}

func (h *handlers) exportRosterCSV(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	team, err := h.services.Teams.GetTeam(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	roster, err := h.services.Teams.Roster(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", team.Name+"_roster.csv"))
	if err := export.WriteRoster(w, *team, roster); err != nil {
		log.Error().Err(err).Msg("failed to stream roster CSV")
	}
}
