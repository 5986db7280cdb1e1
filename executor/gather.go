package executor

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ryemyster/shaleyeah-toolkernel/resilience"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

// ExecuteParallel runs every request in reqs concurrently, bounded by
// cfg.MaxParallel in-flight invoker calls, and gathers every outcome
// (success or failure) into a single GatheredResult. A request's failure
// never blocks its peers.
func (e *Executor) ExecuteParallel(ctx context.Context, reqs []toolapi.ToolRequest) GatheredResult {
	ctx, span := e.tracer.Start(ctx, "executor.execute_parallel")
	defer span.End()

	start := time.Now()
	sem := semaphore.NewWeighted(int64(maxParallel(e.cfg.MaxParallel)))

	var (
		mu      sync.Mutex
		results = make(map[string]toolapi.ToolResponse, len(reqs))
	)

	g, gctx := errgroup.WithContext(context.Background())
	_ = gctx // scatter-gather never aborts peers on a single failure
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				results[req.ToolName] = timeoutResponse(req.ToolName, err)
				mu.Unlock()
				return nil
			}
			defer sem.Release(1)
			resp := e.Execute(ctx, req)
			mu.Lock()
			results[req.ToolName] = resp
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return gatherFrom(results, time.Since(start).Milliseconds())
}

func maxParallel(configured int) int {
	if configured <= 0 {
		return 1
	}
	return configured
}

func timeoutResponse(toolName string, err error) toolapi.ToolResponse {
	return failureResponse(serverOf(toolName), failureDetail(err.Error()))
}

// gatherFrom assembles a GatheredResult from a completed results map. Each
// failure entry carries the response's ErrorDetail as it stands; nothing is
// reclassified here.
func gatherFrom(results map[string]toolapi.ToolResponse, totalTimeMs int64) GatheredResult {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var failures []FailureEntry
	succeeded := 0
	for _, name := range names {
		resp := results[name]
		if resp.Success {
			succeeded++
			continue
		}
		if resp.Error != nil {
			failures = append(failures, FailureEntry{ToolName: name, Error: resp.Error})
		}
	}

	completeness := resilience.RoundPercent(succeeded, len(results))

	return GatheredResult{
		Results:      results,
		Failures:     failures,
		Completeness: completeness,
		TotalTimeMs:  totalTimeMs,
	}
}
