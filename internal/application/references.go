package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// existenceCheck probes one referenced entity. An empty id skips the probe.
type existenceCheck struct {
	entity string
	id     string
	exists func(ctx context.Context, id string) (bool, error)
}

// checkReferences runs the probes concurrently and reports the first missing
// entity in the order the checks were given, regardless of which probe
// finished first.
func checkReferences(ctx context.Context, checks ...existenceCheck) error {
	found := make([]bool, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		if check.id == "" || check.exists == nil {
			found[i] = true
			continue
		}
		g.Go(func() error {
			ok, err := check.exists(gctx, check.id)
			if err != nil {
				return fmt.Errorf("failed to check %s %s: %w", check.entity, check.id, err)
			}
			found[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, check := range checks {
		if !found[i] {
			return notFound(check.entity)
		}
	}
	return nil
}
