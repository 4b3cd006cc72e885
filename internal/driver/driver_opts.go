package driver

import "time"

type MudDriverOpt func(*MudDriver)

func WithTickLength(tickLength time.Duration) MudDriverOpt {
	return func(d *MudDriver) {
		d.tickLength = tickLength
	}
}

// WithTickTimeout bounds how long a single pass over the tickers may run.
// Zero disables the bound.
func WithTickTimeout(timeout time.Duration) MudDriverOpt {
	return func(d *MudDriver) {
		d.tickTimeout = timeout
	}
}
