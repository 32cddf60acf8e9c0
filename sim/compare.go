package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Compare runs independent requests in parallel and returns their results in
// request order. Each run keeps its own calendar and node state; parallelism
// is only across runs. The first failing run cancels the rest.
func (e *Engine) Compare(ctx context.Context, reqs []Request) ([]*Results, error) {
	results := make([]*Results, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i := range reqs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.Run(reqs[i])
			if err != nil {
				return fmt.Errorf("scenario %q: %w", reqs[i].ScenarioName, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the index of the cheapest result; ties go to fewer stockouts,
// then to the earlier entry. It returns -1 for an empty slice.
func Best(results []*Results) int {
	best := -1
	for i, r := range results {
		if r == nil {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := results[best]
		if r.TotalCost < b.TotalCost || (r.TotalCost == b.TotalCost && r.StockoutEvents < b.StockoutEvents) {
			best = i
		}
	}
	return best
}
