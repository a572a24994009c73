// SPDX-License-Identifier: BSD-3-Clause

package modem

import (
	"github.com/n900/modemd/pkg/fsm"
	"github.com/n900/modemd/pkg/linkmonitor"
	"github.com/n900/modemd/pkg/mtc"
	"github.com/n900/modemd/pkg/mtcsupervisor"
)

// DefaultInterfaceName is the Phonet interface Probe watches when the
// caller does not name one explicitly, matching the original driver's
// "phonet0" fallback.
const DefaultInterfaceName = "phonet0"

// MonitorFactory builds the LinkMonitor for a named interface. Probe
// calls it once, at probe time, since the interface name is only known
// then.
type MonitorFactory func(ifaceName string) linkmonitor.Monitor

// Config holds a Controller's wiring: the GPIO effector and link monitor
// factory are mandatory (Probe fails without them); the transport may be
// provided directly (tests use mtc.NewFake) or left nil so Run dials a
// NATSTransport against the supplied in-process connection.
type Config struct {
	effector       GPIOEffector
	monitorFactory MonitorFactory
	transport      mtc.Transport
	interfaceName  string
	fsmOpts        []fsm.Option
	supervisorOpts []mtcsupervisor.Option
	transportOpts  []mtc.Option
}

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithEffector supplies the GPIOEffector Probe drives. Mandatory.
func WithEffector(e GPIOEffector) Option {
	return optionFunc(func(c *Config) { c.effector = e })
}

// WithMonitorFactory supplies the LinkMonitor constructor Probe calls
// with the probed interface name. Mandatory.
func WithMonitorFactory(f MonitorFactory) Option {
	return optionFunc(func(c *Config) { c.monitorFactory = f })
}

// WithTransport supplies a pre-built mtc.Transport, bypassing Run's NATS
// dial. Tests use this to inject mtc.NewFake.
func WithTransport(t mtc.Transport) Option {
	return optionFunc(func(c *Config) { c.transport = t })
}

// WithInterfaceName overrides the default Phonet interface name.
func WithInterfaceName(name string) Option {
	return optionFunc(func(c *Config) { c.interfaceName = name })
}

// WithFSMOptions forwards options to the underlying fsm.FSM.
func WithFSMOptions(opts ...fsm.Option) Option {
	return optionFunc(func(c *Config) { c.fsmOpts = append(c.fsmOpts, opts...) })
}

// WithSupervisorOptions forwards options to the underlying
// mtcsupervisor.Supervisor.
func WithSupervisorOptions(opts ...mtcsupervisor.Option) Option {
	return optionFunc(func(c *Config) { c.supervisorOpts = append(c.supervisorOpts, opts...) })
}

// WithTransportOptions forwards options to mtc.Dial, when Run dials its
// own NATSTransport.
func WithTransportOptions(opts ...mtc.Option) Option {
	return optionFunc(func(c *Config) { c.transportOpts = append(c.transportOpts, opts...) })
}

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		interfaceName: DefaultInterfaceName,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}
