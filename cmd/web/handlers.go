package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/pitch-league/internal/apperr"
	"github.com/AdamBeresnev/pitch-league/internal/booking"
	"github.com/AdamBeresnev/pitch-league/internal/httputil"
	"github.com/AdamBeresnev/pitch-league/internal/middleware"
	"github.com/AdamBeresnev/pitch-league/internal/service"
	"github.com/AdamBeresnev/pitch-league/internal/utils"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type application struct {
	sessions   *scs.SessionManager
	stores     *service.Stores
	venues     *service.VenueService
	slots      *service.SlotService
	challenges *service.ChallengeService
	teams      *service.TeamService
	games      *service.GameService
	users      *service.UserService
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", apperr.ErrValidation, err)
	}
	return nil
}

func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", apperr.ErrValidation, name)
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", apperr.ErrValidation, name)
	}
	return n, nil
}

func actor(r *http.Request) uuid.UUID {
	id, _ := middleware.GetUserIDFromContext(r.Context())
	return id
}

// respond writes v as JSON or maps err onto a status code.
func respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.WriteJSON(w, status, v)
}

// auth

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	user, err := app.users.EnsureUser(r.Context(), req.Username)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if err := app.sessions.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessions.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessions.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to destroy session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, middleware.GetAuthenticatedUser(r.Context()))
}

func (app *application) listNotifications(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	notes, err := app.users.ListNotifications(r.Context(), actor(r), unread)
	respond(w, http.StatusOK, notes, err)
}

func (app *application) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err == nil {
		err = app.users.MarkNotificationRead(r.Context(), actor(r), id)
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// venues

func (app *application) createVenue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		PriceCents int    `json:"price_cents"`
		MaxPlayers int    `json:"max_players"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	venue, err := app.venues.CreateVenue(r.Context(), actor(r), service.VenueInput{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		MaxPlayers: req.MaxPlayers,
	})
	respond(w, http.StatusCreated, venue, err)
}

func (app *application) listVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := app.venues.ListVenues(r.Context())
	respond(w, http.StatusOK, venues, err)
}

func (app *application) getVenue(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	venue, err := app.venues.GetVenue(r.Context(), id)
	respond(w, http.StatusOK, venue, err)
}

// listVenueSlots returns one date's slots, or every upcoming slot when no date is given.
func (app *application) listVenueSlots(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var slots []booking.Slot
	if date := r.URL.Query().Get("date"); date != "" {
		slots, err = app.slots.ListSlots(r.Context(), id, date)
	} else {
		slots, err = app.slots.ListUpcoming(r.Context(), id)
	}
	respond(w, http.StatusOK, slots, err)
}

func (app *application) addSlot(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req struct {
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := app.slots.AddSlot(r.Context(), id, actor(r), req.Date, req.StartTime, req.EndTime)
	respond(w, http.StatusCreated, slot, err)
}

func (app *application) resetSlots(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req struct {
		Date string `json:"date"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	slots, err := app.slots.ResetSlotsForDate(r.Context(), id, actor(r), req.Date)
	respond(w, http.StatusOK, slots, err)
}

func (app *application) eligibleSlots(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	slots, err := app.challenges.ListEligibleSlots(r.Context(), id)
	respond(w, http.StatusOK, slots, err)
}

// slots

func (app *application) getSlot(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := app.slots.GetSlot(r.Context(), id)
	respond(w, http.StatusOK, slot, err)
}

func (app *application) bookSeats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req struct {
		Seats int    `json:"seats"`
		Team  string `json:"team"`
		Paid  *bool  `json:"paid"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	side, err := booking.ParseTeamSide(req.Team)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := app.slots.BookSeats(r.Context(), id, actor(r), req.Seats, side, utils.OrZero(req.Paid))
	respond(w, http.StatusOK, slot, err)
}

func (app *application) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := app.slots.CancelBooking(r.Context(), id, actor(r))
	respond(w, http.StatusOK, slot, err)
}

func (app *application) deleteSlot(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err == nil {
		err = app.slots.DeleteSlot(r.Context(), id, actor(r))
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) setOffline(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req struct {
		Offline bool `json:"offline"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := app.slots.SetOfflineBooking(r.Context(), id, actor(r), req.Offline)
	respond(w, http.StatusOK, slot, err)
}

// challenges

type teamRequest struct {
	TeamID uuid.UUID `json:"team_id"`
	Paid   *bool     `json:"paid"`
}

func (app *application) requestChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req teamRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := app.challenges.RequestChallenge(r.Context(), id, req.TeamID, actor(r), utils.OrZero(req.Paid))
	respond(w, http.StatusOK, slot, err)
}

func (app *application) acceptChallenge(w http.ResponseWriter, r *http.Request) {
	app.opponentAction(w, r, app.challenges.AcceptChallenge)
}

func (app *application) joinChallenge(w http.ResponseWriter, r *http.Request) {
	app.opponentAction(w, r, app.challenges.JoinChallenge)
}

func (app *application) opponentAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, slotID, teamID, actorID uuid.UUID) (*booking.Slot, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req teamRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := fn(r.Context(), id, req.TeamID, actor(r))
	respond(w, http.StatusOK, slot, err)
}

func (app *application) rejectChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	slot, err := app.challenges.RejectChallenge(r.Context(), id, actor(r))
	respond(w, http.StatusOK, slot, err)
}

func (app *application) openChallenges(w http.ResponseWriter, r *http.Request) {
	slots, err := app.challenges.ListOpenChallenges(r.Context())
	respond(w, http.StatusOK, slots, err)
}

// games

func (app *application) getGame(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	g, err := app.games.GetGame(r.Context(), id)
	respond(w, http.StatusOK, g, err)
}

func (app *application) recordResult(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req struct {
		ScoreA int `json:"score_a"`
		ScoreB int `json:"score_b"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	g, err := app.games.RecordResult(r.Context(), id, actor(r), req.ScoreA, req.ScoreB)
	respond(w, http.StatusOK, g, err)
}

// teams

func (app *application) createTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.CreateTeam(r.Context(), actor(r), req.Name, req.Avatar)
	respond(w, http.StatusCreated, team, err)
}

func (app *application) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := app.teams.ListTeams(r.Context())
	respond(w, http.StatusOK, teams, err)
}

func (app *application) getTeam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.GetTeam(r.Context(), id)
	respond(w, http.StatusOK, team, err)
}

func (app *application) deleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err == nil {
		err = app.teams.DeleteTeam(r.Context(), id, actor(r))
	}
	if err != nil {
		httputil.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) myInvites(w http.ResponseWriter, r *http.Request) {
	teams, err := app.teams.ListPendingInvites(r.Context(), actor(r))
	respond(w, http.StatusOK, teams, err)
}

func (app *application) invite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
		Seat   int       `json:"seat"`
	}
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.Invite(r.Context(), id, actor(r), req.UserID, req.Seat)
	respond(w, http.StatusOK, team, err)
}

func (app *application) cancelInvite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	seat, err := intParam(r, "seat")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.CancelInvite(r.Context(), id, actor(r), seat)
	respond(w, http.StatusOK, team, err)
}

func (app *application) acceptInvite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.AcceptInvite(r.Context(), id, actor(r))
	respond(w, http.StatusOK, team, err)
}

func (app *application) declineInvite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.DeclineInvite(r.Context(), id, actor(r))
	respond(w, http.StatusOK, team, err)
}

func (app *application) requestToJoin(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.RequestToJoin(r.Context(), id, actor(r))
	respond(w, http.StatusOK, team, err)
}

func (app *application) cancelJoinRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.CancelJoinRequest(r.Context(), id, actor(r))
	respond(w, http.StatusOK, team, err)
}

func (app *application) acceptJoinRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	userID, err := idParam(r, "userID")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, outcome, err := app.teams.AcceptJoinRequest(r.Context(), id, actor(r), userID)
	respond(w, http.StatusOK, map[string]any{"team": team, "outcome": outcome}, err)
}

func (app *application) declineJoinRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	userID, err := idParam(r, "userID")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.DeclineJoinRequest(r.Context(), id, actor(r), userID)
	respond(w, http.StatusOK, team, err)
}

func (app *application) removeMember(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	seat, err := intParam(r, "seat")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	team, err := app.teams.RemoveMember(r.Context(), id, actor(r), seat)
	respond(w, http.StatusOK, team, err)
}
