package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/yamlrg/connect/handlers"
	"github.com/yamlrg/connect/middleware"
	"github.com/yamlrg/connect/models"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Session    *handlers.SessionHandler
	Assignment *handlers.AssignmentHandler
	Signup     *handlers.SignupHandler
	Event      *handlers.EventHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Get("/events/upcoming", h.Event.NextUpcoming)

	// Member routes: any authenticated user.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", h.User.Me)
		r.Put("/me/linkedin", h.User.UpdateLinkedin)

		r.Post("/signups", h.Signup.SignUp)
		r.Get("/signups/me", h.Signup.Me)
		r.Delete("/signups/{participantID}", h.Signup.Cancel)
	})

	// Admin routes: the whole board surface.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))

		r.Route("/admin", func(r chi.Router) {
			r.Post("/events", h.Event.Create)
			r.Get("/events", h.Event.List)

			r.Get("/sessions", h.Session.List)
			r.Route("/sessions/{sessionKey}", func(r chi.Router) {
				r.Get("/", h.Session.Load)
				r.Get("/snapshot", h.Assignment.Snapshot)
				r.Post("/assign", h.Assignment.Assign)
				r.Post("/unassign", h.Assignment.Unassign)
				r.Post("/teams", h.Assignment.CreateTeam)
				r.Delete("/teams/{teamID}", h.Assignment.DeleteTeam)
				r.Put("/teams/{teamID}/notes", h.Assignment.SetNotes)
				r.Post("/reset", h.Assignment.Reset)
				// Reconciliation is a forced reload: the arrangement is ground
				// truth and stale statuses are rewritten from it.
				r.Post("/reconcile", h.Session.Load)
				r.Post("/export", h.Assignment.Export)
				r.Post("/participants", h.Signup.AddManualMember)
			})

			r.Post("/participants/{participantID}/invite", h.Signup.SendInvite)
			r.Put("/participants/{participantID}/invite-accepted", h.Signup.SetInviteAccepted)
		})
	})

	router.Get("/ws/sessions/{sessionKey}", h.WebSocket.ServeWs)

	return router
}
