package newsletter

import (
	"context"

	"newsletter_server/api/middleware"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

// Workflow is implemented by services.NewsletterService.
type Workflow interface {
	Unsubscribe(ctx context.Context, email, reason string) (*structs.UnsubscribeResult, error)
	Resubscribe(ctx context.Context, email, token string) (*structs.ResubscribeResult, error)
	VerifyToken(ctx context.Context, token string) (*structs.VerifyTokenResult, error)
}

type NewsletterRoutesManager struct {
	logger   *gecho.Logger
	workflow Workflow
	mw       *middleware.Middleware
}

func NewNewsletterRoutesManager(logger *gecho.Logger, workflow Workflow, mw *middleware.Middleware) *NewsletterRoutesManager {
	return &NewsletterRoutesManager{
		logger:   logger,
		workflow: workflow,
		mw:       mw,
	}
}

func (nrm *NewsletterRoutesManager) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(nrm.mw.RateLimitMiddleware())

		r.Post("/unsubscribe", nrm.HandleUnsubscribe)
		r.Get("/unsubscribe/{token}", nrm.HandleVerifyToken)
		r.Post("/resubscribe", nrm.HandleResubscribe)
	})
}
