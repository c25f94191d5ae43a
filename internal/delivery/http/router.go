package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventtickets/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// requireAuth wraps handlers that need an authenticated user; check-in is
// deliberately outside it.
func NewRouter(
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	ticketTypeController *controllers.TicketTypeController,
	registrationController *controllers.RegistrationController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Event management
	mux.HandleFunc("GET /orgs/{orgID}/events", requireAuth(eventController.List))
	mux.HandleFunc("POST /orgs/{orgID}/events", requireAuth(eventController.Create))
	mux.HandleFunc("GET /orgs/{orgID}/events/{eventID}", requireAuth(eventController.Get))
	mux.HandleFunc("PATCH /orgs/{orgID}/events/{eventID}", requireAuth(eventController.Update))
	mux.HandleFunc("DELETE /orgs/{orgID}/events/{eventID}", requireAuth(eventController.Delete))
	mux.HandleFunc("POST /orgs/{orgID}/events/{eventID}/publish", requireAuth(eventController.Publish))
	mux.HandleFunc("POST /orgs/{orgID}/events/{eventID}/unpublish", requireAuth(eventController.Unpublish))
	mux.HandleFunc("POST /orgs/{orgID}/events/{eventID}/cancel", requireAuth(eventController.Cancel))
	mux.HandleFunc("POST /orgs/{orgID}/events/{eventID}/complete", requireAuth(eventController.Complete))

	// Ticket types
	mux.HandleFunc("GET /orgs/{orgID}/events/{eventID}/ticket-types", requireAuth(ticketTypeController.List))
	mux.HandleFunc("POST /orgs/{orgID}/events/{eventID}/ticket-types", requireAuth(ticketTypeController.Create))
	mux.HandleFunc("PATCH /orgs/{orgID}/events/{eventID}/ticket-types/{ticketTypeID}", requireAuth(ticketTypeController.Update))
	mux.HandleFunc("DELETE /orgs/{orgID}/events/{eventID}/ticket-types/{ticketTypeID}", requireAuth(ticketTypeController.Delete))

	// Registrations
	mux.HandleFunc("POST /orgs/{orgID}/events/{eventID}/registrations", requireAuth(registrationController.Create))
	mux.HandleFunc("GET /orgs/{orgID}/events/{eventID}/registrations", requireAuth(registrationController.List))
	mux.HandleFunc("DELETE /orgs/{orgID}/registrations/{registrationID}", requireAuth(registrationController.CancelAsOrganizer))
	mux.HandleFunc("DELETE /registrations/{registrationID}", requireAuth(registrationController.Cancel))

	// Check-in by confirmation code (unauthenticated)
	mux.HandleFunc("POST /checkin/{code}", registrationController.CheckIn)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
