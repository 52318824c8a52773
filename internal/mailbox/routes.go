package mailbox

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers mailbox routes.
// The actor middleware resolves the caller; unauthorized access surfaces as
// not-found from the handlers, so no route carries an auth guard.
func RegisterRoutes(r chi.Router, handler *Handler, openLimiter func(next http.Handler) http.Handler) {
	r.Route("/mailboxes", func(r chi.Router) {
		// GET /api/v1/mailboxes/me/mails - List the caller's personal mail
		r.Get("/me/mails", handler.ListPersonal)

		// GET /api/v1/mailboxes/me/unread - Unread badge count
		r.Get("/me/unread", handler.UnreadCount)

		// GET /api/v1/mailboxes/listings/:listingID/mails - List a listing's mail
		r.Get("/listings/{listingID}/mails", handler.ListListing)

		// GET /api/v1/mailboxes/admin/mails - List the platform-wide mailbox
		r.Get("/admin/mails", handler.ListAdmin)

		r.Route("/views", func(r chi.Router) {
			// POST /api/v1/mailboxes/views - Open a mailbox view session
			if openLimiter != nil {
				r.With(openLimiter).Post("/", handler.OpenView)
			} else {
				r.Post("/", handler.OpenView)
			}

			// POST /api/v1/mailboxes/views/:viewID/select - Open a mail in the view
			r.Post("/{viewID}/select", handler.SelectMail)

			// POST /api/v1/mailboxes/views/:viewID/close - Close the open mail
			r.Post("/{viewID}/close", handler.CloseMail)

			// DELETE /api/v1/mailboxes/views/:viewID - Discard the view session
			r.Delete("/{viewID}", handler.DiscardView)
		})
	})
}
