// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package gpio

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/n900/modemd/pkg/log"
)

// Effector drives the modem's control lines once Probe has discovered
// which sysfs layout is present. It holds no opinion about what the
// lines mean; the power state machine calls the named sequences below at
// the points the original firmware-vendor driver calls them.
type Effector struct {
	cfg *Config
	log *slog.Logger

	mu        sync.Mutex
	probed    bool
	variant   Variant
	avail     LineAvailability
	resetting bool
	starting  bool
}

// New creates an unprobed Effector. Call Probe before using it.
func New(opts ...Option) *Effector {
	return &Effector{
		cfg: newConfig(opts...),
		log: log.GetGlobalLogger(),
	}
}

// Probe discovers the sysfs layout and which control lines exist, and
// classifies the hardware variant from whether the BSI line is present.
// It returns ErrNoControlLines if the mandatory enable line is missing,
// matching n900_gpio_probe's ENODEV case.
func (e *Effector) Probe() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.probed {
		return ErrAlreadyProbed
	}

	avail := LineAvailability{
		HasGPIOSwitch: dirExists(e.cfg.GPIOSwitchRoot),
	}
	avail.CMTEn = e.probeLine(avail.HasGPIOSwitch, LineCMTEn)
	avail.CMTRstRq = e.probeLine(avail.HasGPIOSwitch, LineCMTRstRq)
	avail.CMTRst = e.probeLine(avail.HasGPIOSwitch, LineCMTRst)
	avail.CMTBSI = e.probeLine(avail.HasGPIOSwitch, LineCMTBSI)
	avail.CMTApeSlpX = e.probeLine(avail.HasGPIOSwitch, LineCMTApeSlpX)

	if !avail.CMTEn {
		e.log.Warn("gpio: modem control lines unavailable")
		return ErrNoControlLines
	}

	variant := VariantB
	if avail.CMTBSI {
		variant = VariantA
	}

	e.avail = avail
	e.variant = variant
	e.probed = true

	e.log.Info("gpio: probed",
		"variant", variant.String(),
		"gpio_switch", avail.HasGPIOSwitch,
		"cmt_rst_rq", avail.CMTRstRq,
		"cmt_rst", avail.CMTRst,
		"cmt_bsi", avail.CMTBSI,
		"cmt_apeslpx", avail.CMTApeSlpX,
	)
	return nil
}

// Variant returns the detected hardware variant. Only valid after Probe.
func (e *Effector) Variant() Variant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.variant
}

// Availability returns the probed line availability. Only valid after
// Probe.
func (e *Effector) Availability() LineAvailability {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.avail
}

func (e *Effector) probeLine(hasGPIOSwitch bool, line Line) bool {
	_, err := os.Stat(e.lineValuePath(hasGPIOSwitch, line))
	return err == nil
}

func (e *Effector) lineValuePath(hasGPIOSwitch bool, line Line) string {
	if hasGPIOSwitch {
		return filepath.Join(e.cfg.GPIOSwitchRoot, string(line), "state")
	}
	return filepath.Join(e.cfg.DevCMTRoot, string(line), "value")
}

// write sets a single control line, silently doing nothing if the line
// was not found during Probe. Individual write failures are logged and
// swallowed; there is no runtime retry at this layer.
func (e *Effector) write(line Line, active bool) {
	if !e.avail.has(line) {
		return
	}

	path := e.lineValuePath(e.avail.HasGPIOSwitch, line)
	value := "0"
	if e.avail.HasGPIOSwitch {
		value = "inactive"
		if active {
			value = "active"
		}
	} else if active {
		value = "1"
	}

	if err := os.WriteFile(path, []byte(value), 0o200); err != nil {
		e.log.Warn("gpio: write failed", "line", string(line), "path", path, "err", err)
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// StartPowerOn begins the power-on sequence: clears the AP sleep-mode and
// reset-request lines, then drives cmt_en/cmt_rst according to the
// detected variant, finally asserting cmt_rst_rq. It is idempotent; a
// second call before FinishPowerOn is a no-op, matching
// gpio_start_modem_power_on.
func (e *Effector) StartPowerOn() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.starting {
		return
	}
	e.starting = true

	e.write(LineCMTApeSlpX, false)
	e.write(LineCMTRstRq, false)

	switch e.variant {
	case VariantB:
		e.write(LineCMTEn, false)
		time.Sleep(time.Duration(e.cfg.SettleDelayMS) * time.Millisecond)
		e.write(LineCMTEn, true)
	case VariantA:
		e.write(LineCMTBSI, false)
		e.write(LineCMTRst, false)
		e.write(LineCMTEn, true)
		e.write(LineCMTRst, true)
	}

	e.write(LineCMTRstRq, true)
}

// FinishPowerOn releases the momentary "power key" press on variant A
// hardware. It is idempotent and a no-op unless StartPowerOn is
// outstanding, matching gpio_finish_modem_power_on.
func (e *Effector) FinishPowerOn() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.starting {
		return
	}
	e.starting = false

	if e.variant == VariantA {
		e.write(LineCMTEn, false)
	}
}

// StartReset pulses cmt_rst_rq if present, otherwise falls back to a full
// power-on sequence, matching gpio_start_modem_reset.
func (e *Effector) StartReset() {
	e.mu.Lock()
	resetting := e.resetting
	hasRstRq := e.avail.CMTRstRq
	e.mu.Unlock()

	if resetting {
		return
	}

	e.mu.Lock()
	e.resetting = true
	e.mu.Unlock()

	if hasRstRq {
		e.write(LineCMTRstRq, false)
		e.write(LineCMTRstRq, true)
		return
	}

	e.mu.Lock()
	e.resetting = false
	e.mu.Unlock()
	e.StartPowerOn()
}

// FinishReset completes a reset begun with StartReset, matching
// gpio_finish_modem_reset.
func (e *Effector) FinishReset() {
	e.mu.Lock()
	if !e.resetting {
		e.mu.Unlock()
		return
	}
	e.resetting = false
	e.mu.Unlock()

	e.FinishPowerOn()
}

// FinishPowerOff drives the modem fully off: it first unwinds any
// in-progress reset or startup sequence, clears the AP sleep-mode and
// reset-request lines, then drives cmt_en/cmt_rst to the off state for
// the detected variant, matching gpio_finish_modem_power_off.
func (e *Effector) FinishPowerOff() {
	e.mu.Lock()
	resetting := e.resetting
	starting := e.starting
	e.mu.Unlock()

	if resetting {
		e.FinishReset()
	}
	if starting {
		e.FinishPowerOn()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.write(LineCMTApeSlpX, false)
	e.write(LineCMTRstRq, false)

	switch e.variant {
	case VariantB:
		e.write(LineCMTEn, false)
	case VariantA:
		e.write(LineCMTRst, false)
		e.write(LineCMTEn, false)
		e.write(LineCMTRst, true)
	}
}

// ClearResetRequest lowers cmt_rst_rq. fsm.FSM.NotifyLinkEdge calls this on
// the rising link edge, before firing the link-up event,
// matching phonet_status_cb's behavior on PN_LINK_UP.
func (e *Effector) ClearResetRequest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.write(LineCMTRstRq, false)
}
