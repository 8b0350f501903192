package playback

import (
	"context"
	"time"
)

// Position is one emitted playback sample.
type Position struct {
	FrameIndex uint64
	OffsetPx   float64
}

// Driver is the real-time tick source: a ticker goroutine standing in for
// a display refresh callback. Tests skip it and call Scheduler.Tick with a
// synthetic clock.
type Driver struct {
	sched    *Scheduler
	interval time.Duration
	out      chan Position
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewDriver wires a driver to s. interval <= 0 defaults to ~120 ticks/sec,
// comfortably above every selectable frame rate so the accumulator, not
// the ticker, quantizes time.
func NewDriver(s *Scheduler, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = time.Second / 120
	}
	return &Driver{
		sched:    s,
		interval: interval,
		out:      make(chan Position, 1),
	}
}

// Positions emits the most recent sample. Slow consumers see the latest
// value, never a backlog.
func (d *Driver) Positions() <-chan Position {
	return d.out
}

// Start begins ticking. It starts the scheduler if it is stopped.
func (d *Driver) Start(ctx context.Context) error {
	if !d.sched.Status().Running {
		if err := d.sched.Start(); err != nil {
			return err
		}
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				frame, off := d.sched.Tick()
				d.publish(Position{FrameIndex: frame, OffsetPx: off})
			}
		}
	}()
	return nil
}

// Stop cancels only the tick loop. In-flight preview fetches elsewhere are
// deliberately untouched; they complete and update their own state.
func (d *Driver) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	d.cancel = nil
	if d.sched.Status().Running {
		d.sched.Stop()
	}
}

func (d *Driver) publish(p Position) {
	for {
		select {
		case d.out <- p:
			return
		default:
			select {
			case <-d.out:
			default:
			}
		}
	}
}
