package risk

import "sync"

// Reservation holds an admitted decision's share of the daily trade count and
// open position count until its ledger writes have committed or failed.
type Reservation struct {
	gate  *Gate
	opens bool
	once  sync.Once
}

// Release returns the reserved slots. It is safe to call more than once and on a nil reservation.
func (r *Reservation) Release() {
	if r == nil {
		return
	}

	r.once.Do(func() {
		r.gate.release(r.opens)
	})
}
