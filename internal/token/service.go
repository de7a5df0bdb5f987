// Package token issues and verifies the HS256 bearer tokens handed to clients.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"estate-journal/internal/errs"
)

const (
	DefaultTTL = 7 * 24 * time.Hour
	accessType = "access"
)

// Claims is what a verified token says about its holder.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Service)

func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService copies the secret; later changes to the caller's slice have no
// effect. A zero ttl selects DefaultTTL.
func NewService(secret []byte, ttl time.Duration, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("token: user id required")
	}
	now := s.now()
	claims := tokenClaims{
		Type: accessType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature before expiry, so a forged expired token reports
// errs.ErrInvalidSignature rather than errs.ErrTokenExpired. A token is
// expired only once now is after its exp; at exp itself it still verifies.
func (s *Service) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
		// jwt rejects at now == exp; one nanosecond moves the cut to now > exp
		jwt.WithLeeway(time.Nanosecond),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, errs.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, errs.ErrTokenExpired
	default:
		return Claims{}, errs.ErrMalformedToken
	}

	if claims.Type != accessType || claims.Subject == "" {
		return Claims{}, errs.ErrMalformedToken
	}

	out := Claims{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
