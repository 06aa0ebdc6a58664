// Package testkit holds small assertions shared by package tests
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// Wait is the default budget for channel assertions
const Wait = 2 * time.Second

var serialMu sync.Mutex

// Swap replaces a package-level seam for the duration of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial runs the rest of the test under a global lock; use it with Swap
func Serial(t *testing.T) {
	t.Helper()
	serialMu.Lock()
	t.Cleanup(serialMu.Unlock)
}

// MustPanic asserts that fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustContain asserts that haystack contains needle; the haystack is dumped to a temp file on failure
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		f := filepath.Join(t.TempDir(), "output.txt")
		_ = os.WriteFile(f, []byte(haystack), 0o600)
		t.Fatalf("expected output to contain %q\n\nfull output written to %s", needle, f)
	}
}

// Recv takes one value from ch or fails after Wait
func Recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for a value")
		}
		return v
	case <-time.After(Wait):
		t.Fatalf("timed out after %s waiting for a value", Wait)
	}
	var zero T
	return zero
}

// RecvUntil reads from ch until match accepts a value, failing after Wait
func RecvUntil[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(Wait)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed before a matching value arrived")
			}
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out after %s waiting for a matching value", Wait)
		}
	}
}

// NoRecv asserts nothing arrives on ch within d
func NoRecv[T any](t *testing.T, ch <-chan T, d time.Duration) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected value %+v", v)
		}
	case <-time.After(d):
	}
}

// Closed asserts ch is closed (drained values are discarded) within Wait
func Closed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	deadline := time.After(Wait)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("channel still open after %s", Wait)
		}
	}
}
