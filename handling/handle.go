package handling

import (
	"errors"
	"net/http"

	"newsletter_server/lib"

	"github.com/MonkyMars/gecho"
)

func HandleError(err error, msg string, logger *gecho.Logger, w http.ResponseWriter) {
	logger.Error("An error occurred", gecho.Field("error", err), gecho.Field("msg", msg), gecho.WithCallerSkip(3))

	gecho.InternalServerError(w, gecho.WithMessage(msg), gecho.Send())
}

// WriteNewsletterError maps a workflow error onto a JSON response. Internal error
// text is logged, never returned.
func WriteNewsletterError(err error, logger *gecho.Logger, w http.ResponseWriter) {
	var validationErr *lib.ValidationError
	switch {
	case errors.As(err, &validationErr):
		gecho.BadRequest(w, gecho.WithMessage("error.invalidRequest"), gecho.WithData(validationErr), gecho.Send())
	case errors.Is(err, lib.ErrInvalidToken):
		gecho.BadRequest(w, gecho.WithMessage("error.newsletter.invalidToken"), gecho.Send())
	case errors.Is(err, lib.ErrAccountNotFound):
		gecho.NotFound(w, gecho.WithMessage("error.newsletter.accountNotFound"), gecho.Send())
	case errors.Is(err, lib.ErrNotificationDelivery):
		HandleError(err, "error.newsletter.notificationFailed", logger, w)
	case errors.Is(err, lib.ErrStorage):
		HandleError(err, "error.newsletter.storageFailed", logger, w)
	default:
		HandleError(err, "error.internal", logger, w)
	}
}
