// SPDX-License-Identifier: BSD-3-Clause

// Package modemsvc adapts a modem.Controller to the service.Service
// interface, so the embedded IPC broker and the controller's probe/run
// lifecycle can be started and supervised together the way every other
// long-running process in this repo is.
package modemsvc
