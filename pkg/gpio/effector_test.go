// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package gpio

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLineFile(t *testing.T, root string, line Line, name string) {
	t.Helper()
	dir := filepath.Join(root, string(line))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("0"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProbeVariantA(t *testing.T) {
	root := t.TempDir()
	for _, l := range []Line{LineCMTEn, LineCMTRstRq, LineCMTRst, LineCMTBSI, LineCMTApeSlpX} {
		writeLineFile(t, root, l, "state")
	}

	e := New(WithRoots(root, filepath.Join(root, "unused")))
	if err := e.Probe(); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if e.Variant() != VariantA {
		t.Fatalf("expected VariantA, got %v", e.Variant())
	}
	if !e.Availability().HasGPIOSwitch {
		t.Fatal("expected gpio-switch layout to be detected")
	}
}

func TestProbeVariantBDevCMT(t *testing.T) {
	root := t.TempDir()
	for _, l := range []Line{LineCMTEn, LineCMTRstRq} {
		writeLineFile(t, root, l, "value")
	}

	e := New(WithRoots(filepath.Join(root, "unused"), root))
	if err := e.Probe(); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if e.Variant() != VariantB {
		t.Fatalf("expected VariantB, got %v", e.Variant())
	}
	if e.Availability().HasGPIOSwitch {
		t.Fatal("expected /dev/cmt layout to be detected")
	}
}

func TestProbeNoControlLines(t *testing.T) {
	root := t.TempDir()
	e := New(WithRoots(root, filepath.Join(root, "unused")))
	if err := e.Probe(); err == nil {
		t.Fatal("expected ErrNoControlLines")
	}
}

func TestProbeTwiceFails(t *testing.T) {
	root := t.TempDir()
	writeLineFile(t, root, LineCMTEn, "state")

	e := New(WithRoots(root, filepath.Join(root, "unused")))
	if err := e.Probe(); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if err := e.Probe(); err != ErrAlreadyProbed {
		t.Fatalf("expected ErrAlreadyProbed, got %v", err)
	}
}

func TestStartFinishPowerOnIdempotent(t *testing.T) {
	root := t.TempDir()
	for _, l := range []Line{LineCMTEn, LineCMTRstRq} {
		writeLineFile(t, root, l, "value")
	}
	e := New(WithRoots(filepath.Join(root, "unused"), root), WithSettleDelay(0))
	if err := e.Probe(); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	e.StartPowerOn()
	e.StartPowerOn() // must not panic or double-apply
	e.FinishPowerOn()
	e.FinishPowerOn() // must be a no-op the second time

	data, err := os.ReadFile(filepath.Join(root, string(LineCMTEn), "value"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1" {
		t.Fatalf("expected cmt_en=1 after power-on sequence, got %q", data)
	}
}
