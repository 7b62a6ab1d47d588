package newsletter

import (
	"net/http"

	"newsletter_server/handling"
	"newsletter_server/lib"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
)

// HandleUnsubscribe opts an address out and returns the token for the resubscribe link.
func (nrm *NewsletterRoutesManager) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.UnsubscribeRequest](r)
	if err != nil {
		nrm.logger.Warn("Failed to extract and validate request body", gecho.Field("error", err))
		gecho.BadRequest(w, gecho.WithMessage("error.invalidRequest"), gecho.WithData(validationDetails(err)), gecho.Send())
		return
	}

	result, err := nrm.workflow.Unsubscribe(r.Context(), body.Email, body.Reason)
	if err != nil {
		handling.WriteNewsletterError(err, nrm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.newsletter.unsubscribed"),
		gecho.WithData(result),
		gecho.Send(),
	)
}
