package main

import (
	"net/http"

	"github.com/AdamBeresnev/pitch-league/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(app.sessions.LoadAndSave)

	r.Post("/auth/guest", app.guestLogin)
	r.Post("/logout", app.logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(app.sessions, app.stores.Users))

		r.Get("/me", app.me)
		r.Get("/me/invites", app.myInvites)
		r.Get("/notifications", app.listNotifications)
		r.Post("/notifications/{id}/read", app.markNotificationRead)

		r.Route("/venues", func(r chi.Router) {
			r.Get("/", app.listVenues)
			r.Post("/", app.createVenue)
			r.Get("/{id}", app.getVenue)
			r.Get("/{id}/slots", app.listVenueSlots)
			r.Post("/{id}/slots", app.addSlot)
			r.Post("/{id}/reset", app.resetSlots)
			r.Get("/{id}/eligible", app.eligibleSlots)
		})

		r.Get("/challenges", app.openChallenges)

		r.Route("/slots/{id}", func(r chi.Router) {
			r.Get("/", app.getSlot)
			r.Delete("/", app.deleteSlot)
			r.Post("/book", app.bookSeats)
			r.Delete("/book", app.cancelBooking)
			r.Put("/offline", app.setOffline)
			r.Post("/challenge", app.requestChallenge)
			r.Post("/challenge/accept", app.acceptChallenge)
			r.Post("/challenge/join", app.joinChallenge)
			r.Post("/challenge/reject", app.rejectChallenge)
			r.Get("/game", app.getGame)
			r.Put("/game", app.recordResult)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", app.listTeams)
			r.Post("/", app.createTeam)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.getTeam)
				r.Delete("/", app.deleteTeam)
				r.Post("/invites", app.invite)
				r.Delete("/invites/{seat}", app.cancelInvite)
				r.Post("/invites/accept", app.acceptInvite)
				r.Post("/invites/decline", app.declineInvite)
				r.Post("/requests", app.requestToJoin)
				r.Delete("/requests", app.cancelJoinRequest)
				r.Post("/requests/{userID}/accept", app.acceptJoinRequest)
				r.Post("/requests/{userID}/decline", app.declineJoinRequest)
				r.Delete("/members/{seat}", app.removeMember)
			})
		})
	})

	return r
}
