package middleware

import (
	"vmtracker/config"
	"vmtracker/internal/database"
	"vmtracker/internal/repositories"
	"vmtracker/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	DB          database.DB
	userRepo    repositories.UserRepository
	authService *services.AuthService
	limiter     *RateLimiter
	Config      config.Config
	log         logger.Logger
}

func New(
	db database.DB,
	config config.Config,
	repos repositories.Repository,
	services services.Service,
) Middleware {
	var limiter *RateLimiter
	if config.RateLimitPerMinute > 0 {
		limiter = NewRateLimiter(config.RateLimitPerMinute, config.RateLimitBurst, services.Clock)
	}

	return Middleware{
		DB:          db,
		userRepo:    repos.User,
		authService: services.Auth,
		limiter:     limiter,
		Config:      config,
		log:         logger.New("middleware"),
	}
}
