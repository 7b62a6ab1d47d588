package middleware

import (
	"context"
	"newsletter_server/structs"
	"time"

	"github.com/MonkyMars/gecho"
)

// RateCounter increments a per-client counter that expires after window.
type RateCounter interface {
	IncrementRateLimit(ctx context.Context, ip, endpoint string, window time.Duration) (int, error)
}

type Middleware struct {
	logger  *gecho.Logger
	cfg     *structs.Config
	counter RateCounter
}

func NewMiddleware(cfg *structs.Config, logger *gecho.Logger, counter RateCounter) *Middleware {
	return &Middleware{
		logger:  logger,
		cfg:     cfg,
		counter: counter,
	}
}
