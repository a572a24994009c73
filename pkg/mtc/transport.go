// SPDX-License-Identifier: BSD-3-Clause

package mtc

import "context"

// IndicationSink receives STATE_INFO_IND notifications. It is called
// from the transport's own delivery goroutine; implementations must hand
// the event off to their own event loop rather than acting on it
// directly, per the single-threaded FSM/supervisor contract.
type IndicationSink func(state ModemState, subkind IndSubkind)

// Transport is the MTC request/response/indication surface the
// supervisor drives. The production implementation carries these calls
// over NATS request/reply subjects on an embedded, in-process broker;
// tests use an in-memory fake.
type Transport interface {
	// StateQuery issues STATE_QUERY_REQ and returns the modem's current
	// and target state.
	StateQuery(ctx context.Context) (current, target ModemState, err error)
	// StateReq issues STATE_REQ for the desired state and returns the
	// response cause.
	StateReq(ctx context.Context, desired ModemState) (Cause, error)
	// PowerOffReq issues POWER_OFF_REQ and returns whether the modem
	// accepted it.
	PowerOffReq(ctx context.Context) (accepted bool, err error)
	// ShutdownSyncReq sends the fire-and-forget shutdown-sync poll.
	ShutdownSyncReq() error
	// StartupSynqReq issues the once-per-probe startup synchronization
	// request.
	StartupSynqReq(ctx context.Context) (ok bool, err error)
	// Subscribe registers the single sink for STATE_INFO_IND messages,
	// replacing any previous one.
	Subscribe(sink IndicationSink) error
	// Close releases the transport's resources.
	Close() error
}
