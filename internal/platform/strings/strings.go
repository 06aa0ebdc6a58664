// Package strings holds the string assertions module wiring relies on
package strings

import std "strings"

// MustString returns s if it has non whitespace content, otherwise panics naming what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes a mount path like /events or /me to one leading slash and no trailing
// one. The root itself is rejected: modules always mount below it.
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}
