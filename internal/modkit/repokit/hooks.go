package repokit

import (
	"context"
	"sort"

	"unievents/internal/platform/store/docstore"
)

// MidHook is a function you call explicitly inside a tx when you need it
type MidHook func(ctx context.Context, tx docstore.Tx) error

// RunMidHooks runs the given hooks in order against tx, stopping at the first error
func RunMidHooks(ctx context.Context, tx docstore.Tx, hooks ...MidHook) error {
	for _, hk := range hooks {
		if err := hk(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// Lock takes advisory locks on keys in sorted order, so two transactions locking the same
// set can never deadlock on each other. Duplicate keys are locked once.
func Lock(keys ...string) MidHook {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return func(ctx context.Context, tx docstore.Tx) error {
		prev := ""
		for i, k := range sorted {
			if i > 0 && k == prev {
				continue
			}
			prev = k
			if err := tx.Lock(ctx, k); err != nil {
				return err
			}
		}
		return nil
	}
}
