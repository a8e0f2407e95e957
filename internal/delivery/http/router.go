package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventadmission/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes. auth is
// the RequireAuth wrapper; the auth endpoints and the payment webhook are the
// only unauthenticated routes.
func NewRouter(
	auth func(http.HandlerFunc) http.HandlerFunc,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	eligibilityController *controllers.EligibilityController,
	reservationController *controllers.ReservationController,
	questionnaireController *controllers.QuestionnaireController,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Organizer-facing event management
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("POST /events/{eventID}/open", auth(eventController.OpenEvent))
	mux.HandleFunc("POST /events/{eventID}/close", auth(eventController.CloseEvent))
	mux.HandleFunc("POST /events/{eventID}/tiers", auth(eventController.CreateTier))
	mux.HandleFunc("POST /events/{eventID}/invitations", auth(eventController.Invite))
	mux.HandleFunc("GET /events/{eventID}/attendees", auth(eventController.ListAttendees))

	// Admission
	mux.HandleFunc("GET /events/{eventID}/eligibility", auth(eligibilityController.Check))

	// Reservations
	mux.HandleFunc("POST /events/{eventID}/rsvp", auth(reservationController.RSVP))
	mux.HandleFunc("GET /events/{eventID}/rsvp", auth(reservationController.GetRSVP))
	mux.HandleFunc("DELETE /events/{eventID}/rsvp", auth(reservationController.CancelRSVP))
	mux.HandleFunc("POST /events/{eventID}/tiers/{tierID}/tickets", auth(reservationController.PurchaseTicket))
	mux.HandleFunc("DELETE /tickets/{ticketID}", auth(reservationController.CancelTicket))
	mux.HandleFunc("POST /events/{eventID}/waitlist", auth(reservationController.JoinWaitlist))
	mux.HandleFunc("POST /waitlist/claim/{claimToken}", auth(reservationController.ClaimOffer))
	mux.HandleFunc("POST /payments/webhook", reservationController.PaymentWebhook)

	// Questionnaires
	mux.HandleFunc("POST /questionnaires/{questionnaireID}/submissions", auth(questionnaireController.Submit))
	mux.HandleFunc("POST /evaluations/{evaluationID}/decision", auth(questionnaireController.Decide))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
