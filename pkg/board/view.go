package board

import (
	"context"
	"sync"
)

// View is a mounted consumer of snapshots. C receives the latest snapshot
// after every step; a view that falls behind only sees the most recent one.
// C is closed when the view is closed or the board stops.
type View struct {
	C <-chan Snapshot

	ch   chan Snapshot
	b    *Board
	once sync.Once
}

// Mount registers a view and delivers the current snapshot to it. The first
// mounted view starts the ticker.
func (b *Board) Mount(ctx context.Context) (*View, error) {
	ch := make(chan Snapshot, 1)
	v := &View{C: ch, ch: ch, b: b}
	err := b.do(ctx, func(ctx context.Context) {
		b.views[v] = struct{}{}
		if b.ticker == nil {
			b.ticker = b.newTicker(TickInterval)
			b.logger.Debug("ticker started")
		}
		v.send(b.snapshot())
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Close unmounts the view. The last unmount stops the ticker. Close is safe
// to call more than once.
func (v *View) Close() {
	v.once.Do(func() {
		_ = v.b.do(context.Background(), func(ctx context.Context) {
			v.b.unmount(v)
		})
	})
}

func (b *Board) unmount(v *View) {
	if _, ok := b.views[v]; !ok {
		return
	}
	delete(b.views, v)
	close(v.ch)
	if len(b.views) == 0 && b.ticker != nil {
		b.ticker.Stop()
		b.ticker = nil
		b.logger.Debug("ticker stopped")
	}
}

// send replaces any undelivered snapshot with s. Only the owner goroutine sends.
func (v *View) send(s Snapshot) {
	select {
	case v.ch <- s:
		return
	default:
	}
	select {
	case <-v.ch:
	default:
	}
	select {
	case v.ch <- s:
	default:
	}
}

func (b *Board) broadcast() {
	if len(b.views) == 0 {
		return
	}
	s := b.snapshot()
	for v := range b.views {
		v.send(s)
	}
}
