// Package service runs each poll and vote operation through the same
// linear pipeline: rate check, validate, authorize, persist, then a cache
// invalidation signal. No operation reaches the store unless every earlier
// stage passed.
package service

import (
	"pollboard/internal/authz"
	"pollboard/internal/cache"
	"pollboard/internal/config"
	"pollboard/internal/ratelimit"

	"gorm.io/gorm"
)

type PollService struct {
	db        *gorm.DB
	gate      *authz.Gate
	limiter   ratelimit.Limiter
	listCache *cache.PollList
	limits    config.RateLimitConfig
}

func NewPollService(db *gorm.DB, gate *authz.Gate, limiter ratelimit.Limiter, limits config.RateLimitConfig) *PollService {
	return &PollService{
		db:        db,
		gate:      gate,
		limiter:   limiter,
		listCache: cache.NewPollList(),
		limits:    limits,
	}
}
