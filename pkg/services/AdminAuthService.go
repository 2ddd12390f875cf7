package services

import (
	"crypto/subtle"
	"log/slog"
	"sync"
	"time"

	"github.com/adampresley/photogallery/pkg/metrics"
	"github.com/adampresley/photogallery/pkg/models"
	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type AdminAuthServicer interface {
	Authenticate(clientKey, password string) (*models.AdminSession, error)
}

type AdminAuthServiceConfig struct {
	AttemptsPerMinute int
	Metrics           metrics.GalleryMetrics
	Password          string
	PasswordHash      string
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

/*
AdminAuthService checks the shared admin password. Attempts are throttled
per client key (usually the remote IP) with a token bucket that refills
AttemptsPerMinute times a minute.
*/
type AdminAuthService struct {
	attemptsPerMinute int
	metrics           metrics.GalleryMetrics
	password          string
	passwordHash      string

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

func NewAdminAuthService(config AdminAuthServiceConfig) *AdminAuthService {
	if config.Metrics == nil {
		config.Metrics = metrics.NewNoopMetrics()
	}

	return &AdminAuthService{
		attemptsPerMinute: config.AttemptsPerMinute,
		metrics:           config.Metrics,
		password:          config.Password,
		passwordHash:      config.PasswordHash,
		limiters:          map[string]*clientLimiter{},
	}
}

/*
Authenticate returns a fresh admin session when password matches. A
configured argon2id hash takes precedence over the plain password.
*/
func (s *AdminAuthService) Authenticate(clientKey, password string) (*models.AdminSession, error) {
	if !s.allow(clientKey) {
		s.metrics.LoginAttempt("throttled")
		return nil, models.ErrTooManyAttempts
	}

	if !s.matches(password) {
		s.metrics.LoginAttempt("rejected")
		slog.Warn("rejected admin login", "client", clientKey)
		return nil, models.ErrForbidden
	}

	s.metrics.LoginAttempt("accepted")

	return &models.AdminSession{
		Admin:      true,
		LoggedInAt: time.Now(),
	}, nil
}

func (s *AdminAuthService) matches(password string) bool {
	if password == "" {
		return false
	}

	if s.passwordHash != "" {
		ok, err := VerifyPassword(password, s.passwordHash)

		if err != nil {
			slog.Error("admin password hash is invalid", "error", err)
			return false
		}

		return ok
	}

	if s.password == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

func (s *AdminAuthService) allow(clientKey string) bool {
	if s.attemptsPerMinute <= 0 {
		return true
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, l := range s.limiters {
		if now.Sub(l.lastSeen) > limiterIdleTimeout {
			delete(s.limiters, key)
		}
	}

	l, ok := s.limiters[clientKey]

	if !ok {
		l = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.attemptsPerMinute)), s.attemptsPerMinute),
		}

		s.limiters[clientKey] = l
	}

	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}
