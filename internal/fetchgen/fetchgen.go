// Package fetchgen tags list fetches with a generation so a late response
// from a superseded request is dropped instead of overwriting newer data.
package fetchgen

import "sync/atomic"

type Tracker struct {
	n atomic.Uint64
}

type Ticket struct {
	t   *Tracker
	gen uint64
}

// Begin starts a new generation; every earlier ticket becomes stale.
func (t *Tracker) Begin() Ticket {
	return Ticket{t: t, gen: t.n.Add(1)}
}

// Current reports whether no newer fetch has started since this ticket.
func (k Ticket) Current() bool {
	return k.t != nil && k.t.n.Load() == k.gen
}

func (k Ticket) Gen() uint64 { return k.gen }
