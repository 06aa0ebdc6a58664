package httpkit

import (
	"net/http"

	perrs "unievents/internal/platform/errors"
	"unievents/internal/platform/net/middleware"
)

// TokenFunc turns a bearer token into a user id
type TokenFunc func(token string) (userID string, err error)

// Port implements middleware.AuthPort by reading the bearer token and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

var _ middleware.AuthPort = (*Port)(nil)

// NewPortFunc builds a Port from a parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse returns Unauthorized when the header is missing or malformed or the parser rejects the token
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, err := JWT(r)
	if err != nil {
		return "", err
	}
	if p.parse == nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	uid, err := p.parse(raw)
	if err != nil {
		if perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
			return "", err
		}
		return "", perrs.Wrap(err, perrs.ErrorCodeUnauthorized, "invalid bearer token")
	}
	return uid, nil
}
