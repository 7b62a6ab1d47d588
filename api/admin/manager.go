package admin

import (
	"context"

	"newsletter_server/api/middleware"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

// Dispatcher sends a newsletter issue to every recipient that has not opted out.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *structs.DispatchRequest) *structs.DispatchResult
}

type AdminRoutesManager struct {
	logger     *gecho.Logger
	dispatcher Dispatcher
	mw         *middleware.Middleware
}

func NewAdminRoutesManager(logger *gecho.Logger, dispatcher Dispatcher, mw *middleware.Middleware) *AdminRoutesManager {
	return &AdminRoutesManager{
		logger:     logger,
		dispatcher: dispatcher,
		mw:         mw,
	}
}

func (ar *AdminRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/internal/newsletter", func(r chi.Router) {
		r.Use(ar.mw.AdminAuthMiddleware)
		r.Post("/dispatch", ar.Dispatch)
	})
}
