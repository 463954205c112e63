// Package resilience provides the admission and retry primitives the
// transcription scheduler is built from:
//   - Retry: re-runs an operation with non-decreasing exponential backoff
//   - Bulkhead: bounds how many operations run at once
//   - Reservoir: bounds how many operations may start per refill window
//
// A remote call typically passes through all three:
//
//	res := resilience.NewReservoir(resilience.ReservoirConfig{Size: 10, Interval: time.Second})
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 10})
//
//	out, err := resilience.Retry(ctx, cfg, func() (*Result, error) {
//	    if err := res.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    return resilience.ExecuteWithResult(bh, ctx, call)
//	})
package resilience
