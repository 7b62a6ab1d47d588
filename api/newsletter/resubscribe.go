package newsletter

import (
	"net/http"

	"newsletter_server/handling"
	"newsletter_server/lib"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
)

func (nrm *NewsletterRoutesManager) HandleResubscribe(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.ResubscribeRequest](r)
	if err != nil {
		nrm.logger.Warn("Failed to extract and validate request body", gecho.Field("error", err))
		gecho.BadRequest(w, gecho.WithMessage("error.invalidRequest"), gecho.WithData(validationDetails(err)), gecho.Send())
		return
	}

	result, err := nrm.workflow.Resubscribe(r.Context(), body.Email, body.Token)
	if err != nil {
		handling.WriteNewsletterError(err, nrm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.newsletter.resubscribed"),
		gecho.WithData(result),
		gecho.Send(),
	)
}

// validationDetails exposes field errors but hides decoder internals.
func validationDetails(err error) any {
	if ve, ok := err.(*lib.ValidationError); ok {
		return ve
	}
	return nil
}
