package store

import "unievents/internal/platform/logger"

// Option configures a Store during Open
type Option func(*Store) error

// WithLogger sets the logger handed to subclients
func WithLogger(l logger.Logger) Option {
	return func(s *Store) error {
		s.Log = l.With().Str("component", "store").Logger()
		return nil
	}
}
