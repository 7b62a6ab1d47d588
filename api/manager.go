package api

import (
	"newsletter_server/api/admin"
	"newsletter_server/api/health"
	"newsletter_server/api/newsletter"

	"github.com/go-chi/chi/v5"
)

type routerManager struct {
	healthRoutes     *health.HealthRoutesManager
	newsletterRoutes *newsletter.NewsletterRoutesManager
	adminRoutes      *admin.AdminRoutesManager
}

func NewRouterManager(
	healthRoutes *health.HealthRoutesManager,
	newsletterRoutes *newsletter.NewsletterRoutesManager,
	adminRoutes *admin.AdminRoutesManager,
) *routerManager {
	return &routerManager{
		healthRoutes:     healthRoutes,
		newsletterRoutes: newsletterRoutes,
		adminRoutes:      adminRoutes,
	}
}

func (rm *routerManager) RegisterRoutes(r chi.Router) {
	if rm.healthRoutes != nil {
		rm.healthRoutes.RegisterRoutes(r)
	}
	rm.newsletterRoutes.RegisterRoutes(r)
	rm.adminRoutes.RegisterRoutes(r)
}
