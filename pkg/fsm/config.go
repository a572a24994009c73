// SPDX-License-Identifier: BSD-3-Clause

package fsm

import "time"

// Effector is the GPIO sequencing surface the state machine drives.
// *gpio.Effector satisfies it; tests use a fake instead.
type Effector interface {
	StartPowerOn()
	FinishPowerOn()
	StartReset()
	FinishReset()
	FinishPowerOff()
	ClearResetRequest()
}

// Config holds the timeouts the state machine arms on entry to each
// timed state. The defaults match the original driver's millisecond
// constants exactly; tests shrink them to keep the suite fast.
type Config struct {
	PowerOnTimeout  time.Duration
	RebootTimeout   time.Duration
	PowerOffTimeout time.Duration
	SettleTimeout   time.Duration
}

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type timeoutsOption struct {
	powerOn, reboot, powerOff, settle time.Duration
}

func (o *timeoutsOption) apply(c *Config) {
	c.PowerOnTimeout = o.powerOn
	c.RebootTimeout = o.reboot
	c.PowerOffTimeout = o.powerOff
	c.SettleTimeout = o.settle
}

// WithTimeouts overrides all four timed-state durations at once. Zero
// values are not special-cased; pass the production defaults explicitly
// if only one needs to change.
func WithTimeouts(powerOn, reboot, powerOff, settle time.Duration) Option {
	return &timeoutsOption{powerOn: powerOn, reboot: reboot, powerOff: powerOff, settle: settle}
}

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		PowerOnTimeout:  5000 * time.Millisecond,
		RebootTimeout:   5000 * time.Millisecond,
		PowerOffTimeout: 6150 * time.Millisecond,
		SettleTimeout:   1000 * time.Millisecond,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}
