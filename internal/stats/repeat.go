package stats

import (
	"context"
	"sync"
	"time"

	"github.com/wesleyorama2/fluent/pkg/fluent"
)

// Outcome classifies one result for the recorder: whether it counts as a
// success and how many bytes it carried.
type Outcome[T any] func(v T, err error) (success bool, bytes int64)

// Result is what one trigger of a repeated builder produced.
type Result[T any] struct {
	Value   T
	Err     error
	Latency time.Duration
}

// Repeat triggers b n times using up to concurrency workers and records each
// trigger in rec. Every trigger is a separate call of the builder's request
// function. Results are returned in trigger order.
func Repeat[T any](ctx context.Context, b fluent.Builder[T], n, concurrency int, rec *Recorder, outcome Outcome[T]) []Result[T] {
	if n < 1 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > n {
		concurrency = n
	}

	results := make([]Result[T], n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				v, err := b.Do(ctx)
				latency := time.Since(start)

				results[i] = Result[T]{Value: v, Err: err, Latency: latency}
				ok, bytes := err == nil, int64(0)
				if outcome != nil {
					ok, bytes = outcome(v, err)
				}
				rec.Record(latency, ok, bytes)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			for j := i; j < n; j++ {
				results[j].Err = ctx.Err()
			}
			rec.Skip(n - i)
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}
