package ui

import (
	"context"

	"github.com/golang/glog"

	"github.com/55utah/fc-simulator/nes"
)

// Runner owns a console on a single worker goroutine and hands finished
// frames to one consumer over Frames.
type Runner struct {
	console *nes.Console
	Frames  chan *nes.Frame
	frame   int
}

func NewRunner(console *nes.Console, buffer int) *Runner {
	return &Runner{console: console, Frames: make(chan *nes.Frame, buffer)}
}

// Frame is the number of frames generated so far. Only call it from the
// worker, e.g. from a controller callback.
func (r *Runner) Frame() int {
	return r.frame
}

// Run generates frames until limit is reached (0 runs forever) or ctx is
// done. Frames is closed when Run returns.
func (r *Runner) Run(ctx context.Context, limit int) error {
	defer close(r.Frames)
	for limit == 0 || r.frame < limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := r.console.GenerateFrame()
		if err != nil {
			return err
		}
		r.frame++
		select {
		case r.Frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	glog.V(1).Infof("runner: stopped after %d frames", r.frame)
	return nil
}

// Start runs Run on a new goroutine. The returned channel yields its error
// once Frames has been closed.
func (r *Runner) Start(ctx context.Context, limit int) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, limit)
	}()
	return done
}
