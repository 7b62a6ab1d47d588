package services

import (
	"newsletter_server/database"
	"newsletter_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/prometheus/client_golang/prometheus"
)

type ServiceManager struct {
	EmailService      *EmailService
	CacheService      *CacheService
	HealthService     *HealthService
	NewsletterService *NewsletterService
}

func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *ServiceManager {
	cacheService := NewCacheService(logger, cfg)
	emailService := NewEmailService(logger, cfg)
	healthService := NewHealthService(logger, db, cacheService)
	newsletterService := NewNewsletterService(
		logger,
		cfg,
		NewBunSubscriptionStore(db),
		NewBunAccountDirectory(logger, db, cacheService),
		emailService,
		NewNewsletterMetrics(prometheus.DefaultRegisterer),
	)

	return &ServiceManager{
		EmailService:      emailService,
		CacheService:      cacheService,
		HealthService:     healthService,
		NewsletterService: newsletterService,
	}
}
