// Package config reads namespaced settings from the environment.
// Required keys panic through the logger; optional keys fall back to a default and warn when malformed.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"unievents/internal/platform/logger"
)

// Conf is a namespaced view over environment variables
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf, e.g. New().Prefix("CORE_").Prefix("API_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// must fetches k and runs parse, panicking with hint when either step fails
func must[T any](c Conf, k, hint string, parse func(string) (T, error)) T {
	s := c.lookup(k)
	if s == "" {
		logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(k)).Str("value", s).Msg(hint)
	}
	return v
}

// may fetches k and runs parse, returning def when absent or malformed
func may[T any](c Conf, k string, def T, parse func(string) (T, error)) T {
	s := c.lookup(k)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(k)).Str("value", s).Interface("default", def).Msg("invalid value; using default")
		return def
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

// MustString panics if the key is missing or empty
func (c Conf) MustString(key string) string { return must(c, key, "", asString) }

// MustInt panics if the key is missing or not an int
func (c Conf) MustInt(key string) int { return must(c, key, "invalid int value", strconv.Atoi) }

// MustPort returns a listen address like ":4000" for a port in 1..65535
func (c Conf) MustPort(key string) string {
	p := must(c, key, "invalid TCP port; expected 1..65535", func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil && (n < 1 || n > 65535) {
			err = strconv.ErrRange
		}
		return n, err
	})
	return ":" + strconv.Itoa(p)
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string { return may(c, key, def, asString) }

// MayInt returns the value or def
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayBool returns the value or def
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration returns the value (250ms, 2s, 1h) or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated value, dropping blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the lowercased value when it is one of allowed, def when empty, and panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := strings.ToLower(c.MayString(key, def))
	for _, a := range allowed {
		if v == strings.ToLower(a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
