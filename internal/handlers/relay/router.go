package relay

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	checkoutHandler "github.com/lakiremit/checkout-service/internal/handlers/checkout"
	"github.com/lakiremit/checkout-service/pkg/observability"
	"github.com/lakiremit/checkout-service/pkg/resilience"
)

// NewRouter assembles the service surface: the checkout flow endpoints, the
// ACS return endpoints, and the page channel.
func NewRouter(
	checkout *checkoutHandler.Handler,
	challengeResult *ChallengeResultHandler,
	processing *ProcessingHandler,
	browserChannel *BrowserChannelHandler,
	timeouts *resilience.TimeoutConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.Middleware)

	r.With(middleware.Timeout(timeouts.HTTPHandler)).Group(func(r chi.Router) {
		r.Post("/api/payment/challenge-result", challengeResult.ServeHTTP)
		r.Get("/api/payment/challenge-result", challengeResult.ServeHTTP)
		r.Get("/challenge-processing", processing.ServeHTTP)

		r.Route("/api/checkout", func(r chi.Router) {
			r.Post("/transaction", checkout.LoadTransaction)
			r.Post("/card-entry", checkout.InitializeCardEntry)
			r.Get("/status", checkout.Status)
		})

		r.Route("/api/browser", func(r chi.Router) {
			r.Post("/ack", browserChannel.Ack)
			r.Post("/report", browserChannel.Report)
		})
	})

	// Long-running endpoints stay outside the handler timeout: the directive
	// long-poll holds the connection open deliberately, and submit blocks
	// through the cardholder's challenge.
	r.Post("/api/checkout/submit", checkout.Submit)
	r.Get("/api/browser/directives", browserChannel.Directives)

	return r
}
