// SPDX-License-Identifier: BSD-3-Clause

package mtc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/n900/modemd/pkg/id"
	"github.com/n900/modemd/pkg/log"
)

// NATSTransport carries the MTC wire protocol over NATS request/reply
// subjects on an embedded, in-process broker, mirroring this repo's
// other IPC services rather than opening a dedicated socket to the
// baseband driver.
type NATSTransport struct {
	cfg *Config
	nc  *nats.Conn
	log *slog.Logger

	mu   sync.Mutex
	sub  *nats.Subscription
	sink IndicationSink
}

// Dial connects a NATSTransport to the in-process broker identified by
// ipcConn and subscribes nothing until Subscribe is called.
func Dial(ipcConn nats.InProcessConnProvider, opts ...Option) (*NATSTransport, error) {
	cfg := newConfig(opts...)

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return nil, fmt.Errorf("mtc: connect: %w", err)
	}

	return &NATSTransport{
		cfg: cfg,
		nc:  nc,
		log: log.GetGlobalLogger().With("component", "mtc.transport"),
	}, nil
}

// StateQuery issues STATE_QUERY_REQ and returns the modem's current and
// target state.
func (t *NATSTransport) StateQuery(ctx context.Context) (current, target ModemState, err error) {
	resp, err := t.request(ctx, "query", EncodeStateQueryReq())
	if err != nil {
		return 0, 0, err
	}
	return DecodeStateQueryResp(resp)
}

// StateReq issues STATE_REQ for the desired state and returns the cause.
func (t *NATSTransport) StateReq(ctx context.Context, desired ModemState) (Cause, error) {
	resp, err := t.request(ctx, "state", EncodeStateReq(desired))
	if err != nil {
		return 0, err
	}
	return DecodeStateResp(resp)
}

// PowerOffReq issues POWER_OFF_REQ and returns whether the modem accepted it.
func (t *NATSTransport) PowerOffReq(ctx context.Context) (bool, error) {
	resp, err := t.request(ctx, "poweroff", EncodePowerOffReq())
	if err != nil {
		return false, err
	}
	return DecodePowerOffResp(resp)
}

// ShutdownSyncReq publishes the fire-and-forget shutdown-sync poll. There
// is no response to wait for; the modem's acknowledgment, if any, arrives
// as a later STATE_INFO_IND.
func (t *NATSTransport) ShutdownSyncReq() error {
	subject := t.cfg.subject("shutdownsync")
	if err := t.nc.Publish(subject, EncodeShutdownSyncReq()); err != nil {
		return fmt.Errorf("mtc: publish %s: %w", subject, err)
	}
	return nil
}

// StartupSynqReq issues the once-per-probe startup synchronization request.
func (t *NATSTransport) StartupSynqReq(ctx context.Context) (bool, error) {
	resp, err := t.request(ctx, "startupsynq", EncodeStartupSynqReq())
	if err != nil {
		return false, err
	}
	return DecodeStartupSynqResp(resp)
}

// Subscribe registers sink as the single recipient of STATE_INFO_IND
// messages, replacing any previous subscription.
func (t *NATSTransport) Subscribe(sink IndicationSink) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sub != nil {
		if err := t.sub.Unsubscribe(); err != nil {
			return fmt.Errorf("mtc: unsubscribe previous indication sink: %w", err)
		}
	}
	t.sink = sink

	subject := t.cfg.subject("ind")
	sub, err := t.nc.Subscribe(subject, t.handleIndication)
	if err != nil {
		return fmt.Errorf("mtc: subscribe %s: %w", subject, err)
	}
	t.sub = sub
	return nil
}

// Close drains the underlying connection, flushing any in-flight publish.
func (t *NATSTransport) Close() error {
	return t.nc.Drain() //nolint:wrapcheck
}

func (t *NATSTransport) handleIndication(msg *nats.Msg) {
	state, subkind, err := DecodeStateInfoInd(msg.Data)
	if err != nil {
		t.log.Warn("discarding malformed state indication", "error", err)
		return
	}

	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		sink(state, subkind)
	}
}

func (t *NATSTransport) request(ctx context.Context, name string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.requestTimeout)
	defer cancel()

	subject := t.cfg.subject(name)
	msg := &nats.Msg{
		Subject: subject,
		Data:    payload,
		Header:  make(nats.Header),
	}
	msg.Header.Set("X-Request-Id", id.NewID())

	resp, err := t.nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTransportTimeout, subject, ctx.Err())
		}
		return nil, fmt.Errorf("mtc: request %s: %w", subject, err)
	}
	return resp.Data, nil
}
