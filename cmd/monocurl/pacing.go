package main

import (
	"context"

	"github.com/monocurl/monocurl-sub000/monocurl"
	"golang.org/x/time/rate"
)

// pacedFrames returns a frame hook that delivers at most fps frames per
// second, passing each one on to next when it is set.
func pacedFrames(ctx context.Context, fps float64, next func(monocurl.Frame) error) func(monocurl.Frame) error {
	limiter := rate.NewLimiter(rate.Limit(fps), 1)
	return func(f monocurl.Frame) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if next != nil {
			return next(f)
		}
		return nil
	}
}
