package newsletter

import (
	"net/http"

	"newsletter_server/handling"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

// HandleVerifyToken backs the confirmation page shown before a user resubscribes.
func (nrm *NewsletterRoutesManager) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	result, err := nrm.workflow.VerifyToken(r.Context(), token)
	if err != nil {
		handling.WriteNewsletterError(err, nrm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(result),
		gecho.Send(),
	)
}
