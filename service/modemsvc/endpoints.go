// SPDX-License-Identifier: BSD-3-Clause

package modemsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/micro"
	"github.com/n900/modemd/pkg/ipc"
	"github.com/n900/modemd/pkg/modem"
	"github.com/n900/modemd/pkg/telemetry"
)

// enableRequest is the JSON body accepted by SubjectModemEnable,
// SubjectModemDisable, and SubjectModemRemove. Userdata is opaque on the
// wire the same way it is in-process: it is only ever compared for
// equality against whatever token Probe was configured with, never
// interpreted.
type enableRequest struct {
	Userdata string `json:"userdata,omitempty"`
}

// setOnlineRequest is SubjectModemSetOnline's body.
type setOnlineRequest struct {
	Userdata string `json:"userdata,omitempty"`
	Online   bool   `json:"online"`
}

// statusResponse is SubjectModemStatus's reply. StateName gives the
// stable ASCII identifier the original driver logs (see modem.StateName);
// State and Target give the Go-side string forms for callers that prefer
// those.
type statusResponse struct {
	StateName string `json:"state_name"`
	State     string `json:"state"`
	Target    string `json:"target"`
}

// okResponse is the body of every successful Enable/Disable/Remove/
// SetOnline reply; there is nothing to report beyond "the request was
// accepted", matching their fire-and-forget, asynchronous-completion
// semantics in-process.
type okResponse struct {
	OK bool `json:"ok"`
}

var okBody = mustMarshal(okResponse{OK: true})

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// registerEndpoints exposes Controller.Enable/Disable/Remove/SetOnline/
// Status as NATS micro endpoints, so external processes get the same
// surface in-process callers already have through s.controller directly.
func (s *Service) registerEndpoints(svc micro.Service) error {
	groups := make(map[string]micro.Group)

	endpoints := []struct {
		subject string
		handler micro.HandlerFunc
	}{
		{ipc.SubjectModemEnable, s.handleEnable},
		{ipc.SubjectModemDisable, s.handleDisable},
		{ipc.SubjectModemRemove, s.handleRemove},
		{ipc.SubjectModemSetOnline, s.handleSetOnline},
		{ipc.SubjectModemStatus, s.handleStatus},
	}

	for _, ep := range endpoints {
		if err := ipc.RegisterEndpointWithGroupCache(svc, ep.subject, ep.handler, groups); err != nil {
			return fmt.Errorf("modemsvc: register %s: %w", ep.subject, err)
		}
	}

	return nil
}

func (s *Service) reqCtx(req micro.Request) (context.Context, context.CancelFunc) {
	ctx := telemetry.GetCtxFromReq(req)
	return context.WithTimeout(ctx, ipc.DefaultRequestTimeout*time.Millisecond)
}

func (s *Service) handleEnable(req micro.Request) {
	var body enableRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil {
		ipc.RespondWithError(context.Background(), req, ipc.ErrInvalidRequest, "decode enable request")
		return
	}

	ctx, cancel := s.reqCtx(req)
	defer cancel()
	if err := s.controller.Enable(ctx, body.Userdata); err != nil {
		ipc.RespondWithError(ctx, req, err, "enable failed")
		return
	}
	_ = req.Respond(okBody)
}

func (s *Service) handleDisable(req micro.Request) {
	var body enableRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil {
		ipc.RespondWithError(context.Background(), req, ipc.ErrInvalidRequest, "decode disable request")
		return
	}

	ctx, cancel := s.reqCtx(req)
	defer cancel()
	if err := s.controller.Disable(ctx, body.Userdata); err != nil {
		ipc.RespondWithError(ctx, req, err, "disable failed")
		return
	}
	_ = req.Respond(okBody)
}

func (s *Service) handleRemove(req micro.Request) {
	var body enableRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil {
		ipc.RespondWithError(context.Background(), req, ipc.ErrInvalidRequest, "decode remove request")
		return
	}

	ctx, cancel := s.reqCtx(req)
	defer cancel()
	if err := s.controller.Remove(ctx, body.Userdata); err != nil {
		ipc.RespondWithError(ctx, req, err, "remove failed")
		return
	}
	_ = req.Respond(okBody)
}

func (s *Service) handleSetOnline(req micro.Request) {
	var body setOnlineRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil {
		ipc.RespondWithError(context.Background(), req, ipc.ErrInvalidRequest, "decode set_online request")
		return
	}

	ctx, cancel := s.reqCtx(req)
	defer cancel()

	online := body.Online
	cb := func(online bool, err error) {
		if err != nil {
			s.log.Warn("set_online request completed with error", "online", online, "error", err)
			return
		}
		s.log.Debug("set_online request completed", "online", online)
	}
	if err := s.controller.SetOnline(ctx, online, body.Userdata, cb); err != nil {
		ipc.RespondWithError(ctx, req, err, "set_online failed")
		return
	}
	_ = req.Respond(okBody)
}

func (s *Service) handleStatus(req micro.Request) {
	var body enableRequest
	if len(req.Data()) > 0 {
		if err := json.Unmarshal(req.Data(), &body); err != nil {
			ipc.RespondWithError(context.Background(), req, ipc.ErrInvalidRequest, "decode status request")
			return
		}
	}

	ctx, cancel := s.reqCtx(req)
	defer cancel()

	st, err := s.controller.Status(ctx, body.Userdata)
	if err != nil {
		ipc.RespondWithError(ctx, req, err, "status failed")
		return
	}

	respBody, err := json.Marshal(statusResponse{
		StateName: modem.StateName(st.State),
		State:     st.State.String(),
		Target:    st.Target.String(),
	})
	if err != nil {
		ipc.RespondWithError(ctx, req, err, "marshal status response")
		return
	}
	_ = req.Respond(respBody)
}
