// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

// Package gpio drives the modem power lines through the two sysfs
// layouts found on the hardware this driver targets: the older
// "gpio-switch" class device and the newer /dev/cmt line files. Both
// expose one directory per named line; the effector discovers which
// layout is present once, at Probe time, and never touches the other.
//
// The package knows nothing about what the lines mean to the modem -
// that belongs to the power state machine built on top of it. It only
// knows how to probe which lines exist and how to write them.
package gpio
