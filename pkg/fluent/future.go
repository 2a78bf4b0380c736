package fluent

import "context"

// Continuation post-processes the result of a request. Returning an error
// rejects the future and skips any continuations registered after it.
type Continuation[T any] func(ctx context.Context, v T) (T, error)

// Recovery handles a rejected future. It may return a replacement value and a
// nil error to resolve the future again.
type Recovery[T any] func(ctx context.Context, err error) (T, error)

// Future is the pending result of one trigger.
type Future[T any] struct {
	ctx  context.Context
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine and returns a future for its result.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{ctx: ctx, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns a future that has already settled.
func Resolved[T any](ctx context.Context, v T, err error) *Future[T] {
	f := &Future[T]{ctx: ctx, done: make(chan struct{}), val: v, err: err}
	close(f.done)
	return f
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then runs c on the resolved value. A rejection passes through untouched.
func (f *Future[T]) Then(c Continuation[T]) *Future[T] {
	return Go(f.ctx, func(ctx context.Context) (T, error) {
		<-f.done
		if f.err != nil {
			return f.val, f.err
		}
		return c(ctx, f.val)
	})
}

// Catch runs h on a rejection. A resolved value passes through untouched.
func (f *Future[T]) Catch(h Recovery[T]) *Future[T] {
	return Go(f.ctx, func(ctx context.Context) (T, error) {
		<-f.done
		if f.err == nil {
			return f.val, nil
		}
		return h(ctx, f.err)
	})
}

// Finally runs fn once the future settles, whatever the outcome, and
// forwards the original result.
func (f *Future[T]) Finally(fn func()) *Future[T] {
	return Go(f.ctx, func(context.Context) (T, error) {
		<-f.done
		fn()
		return f.val, f.err
	})
}
