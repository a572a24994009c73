// SPDX-License-Identifier: BSD-3-Clause

package modemsvc

import (
	"github.com/n900/modemd/pkg/modem"
	"github.com/n900/modemd/pkg/powerbus"
)

// DefaultServiceName is the service name reported to the supervision
// tree and used in the persistent ID store.
const DefaultServiceName = "modem"

type config struct {
	name      string
	ifaceName string
	observer  powerbus.Observer
	userdata  any
}

// Option configures a Service.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName overrides the name reported to the supervision tree.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.name = name })
}

// WithInterfaceName sets the Phonet interface the controller probes.
func WithInterfaceName(name string) Option {
	return optionFunc(func(c *config) { c.ifaceName = name })
}

// WithObserver registers the recipient of power-state changes.
func WithObserver(o powerbus.Observer) Option {
	return optionFunc(func(c *config) { c.observer = o })
}

// WithUserdata sets the opaque token compared on every probe/enable/
// disable/remove/set_online call.
func WithUserdata(v any) Option {
	return optionFunc(func(c *config) { c.userdata = v })
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		name:      DefaultServiceName,
		ifaceName: modem.DefaultInterfaceName,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}
