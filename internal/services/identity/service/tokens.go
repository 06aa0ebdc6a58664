package service

import (
	"errors"
	"time"

	perr "unievents/internal/platform/errors"
	"unievents/internal/services/identity/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token body
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Tokens verifies HS256 bearer tokens. Issue exists for seeding and tests; real credential
// exchange happens upstream of this service.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ domain.TokenParser = (*Tokens)(nil)

// NewTokens builds a verifier; a zero ttl defaults to one hour
func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for userID
func (t *Tokens) Issue(userID string) (string, error) {
	if userID == "" {
		return "", perr.InvalidArgf("user id is required")
	}
	now := t.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates raw and returns its user id
func (t *Tokens) Parse(raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) { return t.secret, nil }, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "token has expired")
		}
		return "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", perr.Unauthorizedf("invalid token")
	}
	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return "", perr.Unauthorizedf("token has no subject")
	}
	return uid, nil
}
