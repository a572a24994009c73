// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package linkmonitor

import (
	"log/slog"
	"net"
	"sync"
	"syscall"
	"unsafe"

	"github.com/n900/modemd/pkg/log"
	"golang.org/x/sys/unix"
)

// NetlinkMonitor watches a single interface's carrier state over an
// RTMGRP_LINK netlink socket. It is the production Monitor; the original
// driver used glib's netlink wrapper (gisi/netlink) for the same purpose.
type NetlinkMonitor struct {
	ifaceName string
	log       *slog.Logger

	mu      sync.Mutex
	fd      int
	closing chan struct{}
	stopped chan struct{}
	last    Edge
	haveAny bool
}

// New creates a NetlinkMonitor for the named interface (e.g. "phonet0").
func New(ifaceName string) *NetlinkMonitor {
	return &NetlinkMonitor{
		ifaceName: ifaceName,
		log:       log.GetGlobalLogger(),
	}
}

// Start opens the netlink socket and begins reading link state change
// notifications for the configured interface in a background goroutine.
func (m *NetlinkMonitor) Start(sink Sink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fd != 0 {
		return ErrAlreadyStarted
	}

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_ROUTE)
	if err != nil {
		return err
	}

	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: unix.RTMGRP_LINK}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return err
	}

	m.fd = fd
	m.closing = make(chan struct{})
	m.stopped = make(chan struct{})

	go m.runReadLoop(fd, m.closing, m.stopped, sink)
	return nil
}

// Stopped reports when the reader goroutine has exited, whether from Stop
// or from recovering a panic, so a supervising child process can notice
// and restart the monitor rather than leaving it silently dead.
func (m *NetlinkMonitor) Stopped() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *NetlinkMonitor) runReadLoop(fd int, closing, stopped chan struct{}, sink Sink) {
	defer close(stopped)
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("linkmonitor: reader panicked, exiting", "panic", r)
		}
	}()
	m.readLoop(fd, closing, sink)
}

// Stop closes the netlink socket and stops the reader goroutine.
func (m *NetlinkMonitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fd == 0 {
		return ErrNotStarted
	}

	close(m.closing)
	err := unix.Close(m.fd)
	m.fd = 0
	return err
}

func (m *NetlinkMonitor) readLoop(fd int, closing chan struct{}, sink Sink) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-closing:
			return
		default:
		}

		n, _, err := unix.Recvfrom(fd, buf, 0)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}

		msgs, err := syscall.ParseNetlinkMessage(buf[:n])
		if err != nil {
			m.log.Warn("linkmonitor: malformed netlink message", "err", err)
			continue
		}

		for _, msg := range msgs {
			if msg.Header.Type != unix.RTM_NEWLINK && msg.Header.Type != unix.RTM_DELLINK {
				continue
			}
			m.handleLinkMessage(msg, sink)
		}
	}
}

func (m *NetlinkMonitor) handleLinkMessage(msg syscall.NetlinkMessage, sink Sink) {
	if len(msg.Data) < unix.SizeofIfInfomsg {
		return
	}

	var info unix.IfInfomsg
	copy((*[unix.SizeofIfInfomsg]byte)(unsafe.Pointer(&info))[:], msg.Data[:unix.SizeofIfInfomsg])

	iface, err := net.InterfaceByIndex(int(info.Index))
	if err != nil || iface.Name != m.ifaceName {
		return
	}

	up := msg.Header.Type == unix.RTM_NEWLINK && info.Flags&unix.IFF_RUNNING != 0

	edge := EdgeDown
	if up {
		edge = EdgeUp
	}

	m.mu.Lock()
	duplicate := m.haveAny && m.last == edge
	m.last = edge
	m.haveAny = true
	m.mu.Unlock()

	if duplicate {
		return
	}

	m.log.Debug("linkmonitor: edge", "iface", m.ifaceName, "edge", edge.String())
	sink(edge)
}
