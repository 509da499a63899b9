// Package settle runs independent tasks concurrently and waits for every one
// of them to finish, whatever its outcome. A failing task never cancels its
// siblings.
package settle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result is the settled outcome of one task: either Value or Err is
// meaningful, never both.
type Result[T any] struct {
	Value T
	Err   error
}

// Fulfilled reports whether the task returned without error.
func (r *Result[T]) Fulfilled() bool {
	return r.Err == nil
}

// Group collects tasks started with Go.
type Group struct {
	g errgroup.Group
}

// Go starts fn in its own goroutine. The returned Result is populated once
// Wait has returned. A panic in fn is captured as the task's error.
func Go[T any](g *Group, ctx context.Context, fn func(context.Context) (T, error)) *Result[T] {
	res := &Result[T]{}
	g.g.Go(func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				res.Err = fmt.Errorf("settle: task panicked: %v", p)
			}
		}()
		res.Value, res.Err = fn(ctx)
		// Errors stay on the Result; the group must not treat them as fatal.
		return nil
	})
	return res
}

// Wait blocks until every task has settled.
func (g *Group) Wait() {
	_ = g.g.Wait()
}
