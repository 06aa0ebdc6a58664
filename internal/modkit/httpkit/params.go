package httpkit

import (
	"net/http"
	"strings"
	"time"

	perrs "unievents/internal/platform/errors"
	phttp "unievents/internal/platform/net/http"
)

// Param returns a trimmed path parameter
func Param(r *http.Request, name string) string {
	return strings.TrimSpace(phttp.Param(r, name))
}

// QueryString returns a trimmed query parameter
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// QueryTime parses an RFC 3339 query parameter; absent gives nil
func QueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := QueryString(r, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, perrs.WithField(perrs.InvalidArgf("%s must be an RFC 3339 timestamp", key), key)
	}
	return &t, nil
}

// QueryBool reports whether a flag parameter is set to a true value
func QueryBool(r *http.Request, key string) bool {
	switch strings.ToLower(QueryString(r, key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
