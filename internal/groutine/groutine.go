// Package groutine starts named goroutines. Names are attached as pprof labels so robot
// pollers and socket loops are identifiable in profiles and stack dumps.
package groutine

import (
	"context"
	"runtime/pprof"
	"time"
)

type ctxKey string

const goroutineNameKey ctxKey = "goroutine_name"

// Go starts fn on a goroutine labeled with name. A nil parentCtx means context.Background().
//
//	groutine.Go(ctx, "ev3-monitor", func(ctx context.Context) {
//	    ...
//	})
func Go(parentCtx context.Context, name string, fn func(ctx context.Context)) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	labels := pprof.Labels("goroutine_name", name)

	go pprof.Do(parentCtx, labels, func(ctx context.Context) {
		ctx = context.WithValue(ctx, goroutineNameKey, name)
		fn(ctx)
	})
}

// Every starts a named goroutine that calls fn every interval until ctx is done.
// The returned channel is closed once the goroutine has exited.
func Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})
	Go(ctx, name, func(ctx context.Context) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	})
	return done
}

// GetName retrieves the goroutine name from the context.
func GetName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(goroutineNameKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
