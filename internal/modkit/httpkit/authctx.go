package httpkit

import (
	"net/http"
	"strings"

	perrs "unievents/internal/platform/errors"
	pnet "unievents/internal/platform/net"
)

// User returns the authenticated user id; routes outside Protected fail with NotSignedIn
func User(r *http.Request) (string, error) {
	uid := pnet.UserID(r.Context())
	if uid == "" {
		return "", perrs.ErrNotSignedIn
	}
	return uid, nil
}

// JWT returns the raw bearer token from the Authorization header. The scheme is case insensitive.
func JWT(r *http.Request) (string, error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, raw, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
