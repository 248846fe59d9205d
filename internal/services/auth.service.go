package services

import (
	"strings"
	"time"
	"vmtracker/config"
	"vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

// Claims is the bearer token payload. Subject identifies the user; the
// remaining fields are copied onto the stored user on every request.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// User converts the claims into the shape the user repository matches on.
func (c *Claims) User() *models.User {
	return &models.User{
		Subject:  c.Subject,
		Username: strings.TrimSpace(c.Username),
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		Role:     models.ParseRole(c.Role),
	}
}

type AuthService struct {
	secret   []byte
	issuer   string
	audience string
	clock    clock.Clock
	log      logger.Logger
}

func NewAuthService(config config.Config, clk clock.Clock) (*AuthService, error) {
	log := logger.New("AuthService").Function("NewAuthService")

	if config.JWTSecret == "" {
		return nil, log.ErrMsg("JWT secret is required")
	}

	if clk == nil {
		clk = clock.WallClock
	}

	return &AuthService{
		secret:   []byte(config.JWTSecret),
		issuer:   config.JWTIssuer,
		audience: config.JWTAudience,
		clock:    clk,
		log:      logger.New("AuthService"),
	}, nil
}

// ValidateToken verifies signature, algorithm, issuer, audience and expiry.
// Every failure is reported as errors.Unauthorized without the parser detail.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	log := s.log.Function("ValidateToken")

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, errors.Unauthorizedf("missing token")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		options = append(options, jwt.WithAudience(s.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		options...,
	)
	if err != nil {
		log.Debug("token rejected", "error", err)
		return nil, errors.Unauthorizedf("invalid token")
	}

	if !token.Valid {
		return nil, errors.Unauthorizedf("invalid token")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.Unauthorizedf("token has no subject")
	}

	return claims, nil
}

// SignToken issues a token for claims that expires after ttl. Issuer,
// audience and timestamps are filled from the service configuration.
func (s *AuthService) SignToken(claims Claims, ttl time.Duration) (string, error) {
	log := s.log.Function("SignToken")

	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.NotValidf("empty subject")
	}
	if ttl <= 0 {
		return "", errors.NotValidf("token lifetime %s", ttl)
	}

	now := s.clock.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if s.issuer != "" {
		claims.Issuer = s.issuer
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign token", err, "subject", claims.Subject)
	}

	return signed, nil
}
