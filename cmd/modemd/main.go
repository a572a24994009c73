// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

// Command modemd runs the modem power-lifecycle controller against real
// hardware: GPIO control lines under /sys and /dev/cmt, the Phonet
// netlink interface, and an embedded NATS broker carrying MTC traffic to
// whatever bridges it to the baseband.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"
	"github.com/nats-io/nats.go"
	"github.com/n900/modemd/pkg/gpio"
	"github.com/n900/modemd/pkg/id"
	"github.com/n900/modemd/pkg/linkmonitor"
	"github.com/n900/modemd/pkg/log"
	"github.com/n900/modemd/pkg/modem"
	"github.com/n900/modemd/pkg/process"
	"github.com/n900/modemd/pkg/telemetry"
	"github.com/n900/modemd/service/ipc"
	"github.com/n900/modemd/service/modemsvc"
)

func main() {
	telemetry.DefaultSetup()
	l := log.GetGlobalLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nodeID, err := id.GetOrCreatePersistentID("modemd", "/var/lib/modemd/id")
	if err != nil {
		l.WarnContext(ctx, "failed to get/create persistent id, using ephemeral id", "error", err)
		nodeID = id.NewID()
	}
	l.InfoContext(ctx, "starting modemd", "id", nodeID)

	ipcSvc := ipc.New(ipc.WithServiceName("modemd-ipc"))

	controller := modem.New(
		modem.WithEffector(gpio.New()),
		modem.WithMonitorFactory(func(ifaceName string) linkmonitor.Monitor {
			return linkmonitor.New(ifaceName)
		}),
	)
	modemSvc := modemsvc.New(controller, modemsvc.WithUserdata(nodeID))

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
	)
	if err := tree.Add(process.New(ipcSvc, nil), oversight.Transient(), oversight.Timeout(10*time.Second), ipcSvc.Name()); err != nil {
		l.ErrorContext(ctx, "failed to add ipc to supervision tree", "error", err)
		return
	}

	supervise := func(ctx context.Context, c chan error) {
		c <- tree.Start(ctx)
	}

	spawnModem := func(ctx context.Context, c chan error) {
		conn := ipcSvc.GetConnProvider()
		if err := tree.Add(process.New(modemSvc, conn), oversight.Transient(), oversight.Timeout(10*time.Second), modemSvc.Name()); err != nil {
			c <- fmt.Errorf("add %s to supervision tree: %w", modemSvc.Name(), err)
			return
		}
	}

	if err := nursery.RunConcurrentlyWithContext(ctx, supervise, spawnModem); err != nil {
		l.ErrorContext(ctx, "modemd exited with error", "error", err)
	}
}
