// SPDX-License-Identifier: BSD-3-Clause

package mtc

import "time"

// DefaultRequestTimeout is the MTC_TIMEOUT from the original protocol: how
// long a request/response round trip is allowed before ErrTransportTimeout.
const DefaultRequestTimeout = 2 * time.Second

// DefaultSubjectPrefix namespaces the NATS subjects a Transport uses so
// multiple modem instances (or a modem and its test doubles) can share a
// broker without colliding.
const DefaultSubjectPrefix = "mtc"

// Config holds the NATS-backed transport's tunables.
type Config struct {
	subjectPrefix  string
	requestTimeout time.Duration
}

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithSubjectPrefix overrides the NATS subject namespace.
func WithSubjectPrefix(prefix string) Option {
	return optionFunc(func(c *Config) { c.subjectPrefix = prefix })
}

// WithRequestTimeout overrides the request/response round-trip timeout.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.requestTimeout = d })
}

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		subjectPrefix:  DefaultSubjectPrefix,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

func (c *Config) subject(name string) string {
	return c.subjectPrefix + "." + name
}
