// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package gpio

// Line identifies one of the named modem control lines. The set is fixed;
// the hardware and firmware revision determine which of them actually
// exist on a given board.
type Line string

const (
	LineCMTEn      Line = "cmt_en"
	LineCMTRstRq   Line = "cmt_rst_rq"
	LineCMTRst     Line = "cmt_rst"
	LineCMTBSI     Line = "cmt_bsi"
	LineCMTApeSlpX Line = "cmt_apeslpx"
)

// Variant is the power-sequencing hardware revision, detected from which
// lines are present.
type Variant int

const (
	// VariantUnknown is the zero value, before Probe has run.
	VariantUnknown Variant = iota
	// VariantA has a BSI line and drives cmt_en/cmt_rst separately
	// (RAPU1 in the original hardware documentation).
	VariantA
	// VariantB has no BSI line and toggles cmt_en alone, with a settling
	// sleep in between (RAPU2).
	VariantB
)

func (v Variant) String() string {
	switch v {
	case VariantA:
		return "A"
	case VariantB:
		return "B"
	default:
		return "unknown"
	}
}

// LineAvailability records which control lines were found during Probe.
// It is set once and never mutated again.
type LineAvailability struct {
	HasGPIOSwitch bool
	CMTEn         bool
	CMTRstRq      bool
	CMTRst        bool
	CMTBSI        bool
	CMTApeSlpX    bool
}

func (a LineAvailability) has(line Line) bool {
	switch line {
	case LineCMTEn:
		return a.CMTEn
	case LineCMTRstRq:
		return a.CMTRstRq
	case LineCMTRst:
		return a.CMTRst
	case LineCMTBSI:
		return a.CMTBSI
	case LineCMTApeSlpX:
		return a.CMTApeSlpX
	default:
		return false
	}
}

// Config holds the filesystem roots the effector probes. The defaults
// match the hardware exactly; tests substitute a temp directory for both.
type Config struct {
	GPIOSwitchRoot string
	DevCMTRoot     string
	SettleDelayMS  int
}

// Option configures an Effector at construction time.
type Option interface {
	apply(*Config)
}

type rootsOption struct {
	gpioSwitchRoot, devCMTRoot string
}

func (o *rootsOption) apply(c *Config) {
	c.GPIOSwitchRoot = o.gpioSwitchRoot
	c.DevCMTRoot = o.devCMTRoot
}

// WithRoots overrides the two filesystem roots the effector probes under.
// Production code never needs this; tests use it to point at a scratch
// directory standing in for sysfs.
func WithRoots(gpioSwitchRoot, devCMTRoot string) Option {
	return &rootsOption{gpioSwitchRoot: gpioSwitchRoot, devCMTRoot: devCMTRoot}
}

type settleDelayOption struct {
	ms int
}

func (o *settleDelayOption) apply(c *Config) {
	c.SettleDelayMS = o.ms
}

// WithSettleDelay overrides the variant-B power-off-then-on settling
// delay, in milliseconds. Production default is 20ms, matching the
// hardware's documented ASIC power-off settling time; tests shrink it to
// keep the suite fast.
func WithSettleDelay(ms int) Option {
	return &settleDelayOption{ms: ms}
}

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		GPIOSwitchRoot: "/sys/devices/platform/gpio-switch",
		DevCMTRoot:     "/dev/cmt",
		SettleDelayMS:  20,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}
