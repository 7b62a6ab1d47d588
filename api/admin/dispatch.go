package admin

import (
	"net/http"

	"newsletter_server/api/middleware"
	"newsletter_server/lib"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) Dispatch(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.DispatchRequest](r)
	if err != nil {
		ar.logger.Debug("Failed to extract and validate body", gecho.Field("error", err))
		gecho.BadRequest(w, gecho.WithMessage("error.invalidRequest"), gecho.Send())
		return
	}

	var requestedBy string
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		requestedBy = claims.Email
	}

	result := ar.dispatcher.Dispatch(r.Context(), body)

	ar.logger.Info("Newsletter dispatched",
		gecho.Field("requested_by", requestedBy),
		gecho.Field("sent", len(result.Sent)),
		gecho.Field("skipped", len(result.Skipped)),
		gecho.Field("failed", len(result.Failed)),
	)

	gecho.Success(w,
		gecho.WithData(result),
		gecho.WithMessage("success.newsletter.dispatched"),
		gecho.Send(),
	)
}
