package experiment

import (
	"context"
	"errors"
	"sync"

	"github.com/san-kum/coulomb/internal/config"
	"github.com/san-kum/coulomb/internal/dynamo"
)

// RunAll runs every scenario concurrently and returns the results in input
// order. The first failure cancels the remaining runs and is the error
// returned.
func (r *Runner) RunAll(ctx context.Context, cfgs []*config.Config) ([]*dynamo.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*dynamo.Result, len(cfgs))
	errs := make([]error, len(cfgs))

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()
			results[idx], errs[idx] = r.Run(ctx, cfg)
			if errs[idx] != nil {
				cancel()
			}
		}(i, cfg)
	}

	wg.Wait()

	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil || errors.Is(first, context.Canceled) {
			first = err
		}
	}
	if first != nil {
		return nil, first
	}

	return results, nil
}
