// SPDX-License-Identifier: BSD-3-Clause

package modemsvc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/n900/modemd/pkg/log"
	"github.com/n900/modemd/pkg/modem"
	"github.com/n900/modemd/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ServiceVersion is reported to micro.AddService and has no bearing on
// wire compatibility; bump it when the endpoint set in endpoints.go
// changes shape.
const ServiceVersion = "1.0.0"

// Compile-time assertion that Service implements service.Service.
var _ service.Service = (*Service)(nil)

// Service wraps a modem.Controller so its probe/run lifecycle can be
// supervised alongside the other long-running processes in the tree.
// The caller builds the Controller with whatever GPIOEffector and
// MonitorFactory suit the platform (production hardware, or a fake for
// a demo/test target) and hands it to New.
type Service struct {
	cfg        *config
	controller *modem.Controller
	log        *slog.Logger
	tracer     trace.Tracer
	nc         *nats.Conn
}

// New wraps controller for supervision. The controller must already be
// built with WithEffector and WithMonitorFactory; Probe is called from
// Run, not here, since the ipcConn is only available then.
func New(controller *modem.Controller, opts ...Option) *Service {
	return &Service{
		cfg:        newConfig(opts...),
		controller: controller,
	}
}

// Name returns the configured service name.
func (s *Service) Name() string { return s.cfg.name }

// Run probes the controller, registers the Enable/Disable/Remove/
// SetOnline/Status NATS endpoints against it, and blocks on the
// controller's event loop until ctx is canceled or the controller is
// removed.
func (s *Service) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.tracer = otel.Tracer(s.cfg.name)
	ctx, span := s.tracer.Start(ctx, "Run")
	defer span.End()

	s.log = log.GetGlobalLogger().With("service", s.cfg.name)
	s.log.InfoContext(ctx, "probing modem controller", "interface", s.cfg.ifaceName)

	if err := s.controller.Probe(ctx, ipcConn, s.cfg.ifaceName, s.cfg.observer, s.cfg.userdata); err != nil {
		span.RecordError(err)
		return fmt.Errorf("modemsvc: probe: %w", err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("modemsvc: connect ipc: %w", err)
	}
	s.nc = nc
	defer nc.Close()

	microSvc, err := micro.AddService(nc, micro.Config{
		Name:        s.cfg.name,
		Description: "modem power-lifecycle control",
		Version:     ServiceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("modemsvc: add micro service: %w", err)
	}
	defer microSvc.Stop() //nolint:errcheck

	if err := s.registerEndpoints(microSvc); err != nil {
		span.RecordError(err)
		return fmt.Errorf("modemsvc: register endpoints: %w", err)
	}

	return s.controller.Run(ctx)
}
