package provision

import (
	"context"
	"fmt"
)

// ReconcileError reports a lookup-and-create failure for a single resource.
// The engine logs it and moves on to the next resource in the batch.
type ReconcileError struct {
	Kind string // "team", "bot", "channel"
	Key  string // natural key (slug name or username)
	Err  error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconciling %s %q: %v", e.Kind, e.Key, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// lookupFunc resolves a resource by natural key, returning its id or an
// error when absent or unreachable.
type lookupFunc func(ctx context.Context) (string, error)

// createFunc creates the resource and returns its id.
type createFunc func(ctx context.Context) (string, error)

// reconcile applies the check-then-create pattern to one resource: look it
// up by natural key and only create when absent. A lookup that fails with a
// server error (not just "not found") is treated as absent and creation is
// attempted; if that creation then collides with an existing resource the
// error surfaces as a ReconcileError rather than crashing the run.
func reconcile(ctx context.Context, kind, key string, lookup lookupFunc, create createFunc) (id string, created bool, err error) {
	id, err = lookup(ctx)
	if err == nil && id != "" {
		return id, false, nil
	}

	id, err = create(ctx)
	if err != nil {
		return "", false, &ReconcileError{Kind: kind, Key: key, Err: err}
	}
	if id == "" {
		return "", false, &ReconcileError{Kind: kind, Key: key, Err: fmt.Errorf("create response missing id")}
	}
	return id, true, nil
}
