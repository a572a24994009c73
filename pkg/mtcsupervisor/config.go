// SPDX-License-Identifier: BSD-3-Clause

package mtcsupervisor

import "time"

// DefaultShutdownSyncPoll is the 200 ms SHUTDOWN_SYNC_REQ polling interval.
const DefaultShutdownSyncPoll = 200 * time.Millisecond

// Config holds the supervisor's tunables.
type Config struct {
	shutdownSyncPoll time.Duration
}

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithShutdownSyncPoll overrides the SHUTDOWN_SYNC_REQ polling interval.
func WithShutdownSyncPoll(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.shutdownSyncPoll = d })
}

func newConfig(opts ...Option) *Config {
	cfg := &Config{shutdownSyncPoll: DefaultShutdownSyncPoll}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}
