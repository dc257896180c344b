// Package recovery models the out-of-band credential reset as an explicit
// three-step state machine, independent of the authenticated session.
package recovery

import (
	"context"
	"errors"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"

	"freechat/internal/api"
)

// Step is the flow position. It only moves forward on server-confirmed
// success; cancel resets any non-terminal flow to StepRequest.
type Step int

const (
	StepRequest Step = iota
	StepVerify
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepRequest:
		return "request"
	case StepVerify:
		return "verify"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// codeLength is the exact length of a server-issued reset code.
const codeLength = 6

// ErrFlowFinished rejects operations on a flow that already completed.
// Re-entering recovery always starts a fresh Flow.
var ErrFlowFinished = errors.New("recovery flow already finished")

// Flow is an immutable flow value; transitions return the successor state.
type Flow struct {
	Step     Step
	Username string
	Code     string
}

// New returns a flow at the initial step.
func New() Flow {
	return Flow{Step: StepRequest}
}

// Cancel resets any non-terminal flow to the initial step and clears the
// code. DONE has no outgoing transitions, not even cancel.
func (f Flow) Cancel() Flow {
	if f.Step == StepDone {
		return f
	}
	return Flow{Step: StepRequest, Username: f.Username}
}

// Service performs the two network steps of the flow.
type Service struct {
	client *api.Client
	log    *zap.Logger
}

// NewService returns a recovery service.
func NewService(client *api.Client, log *zap.Logger) *Service {
	return &Service{client: client, log: log}
}

type requestCodeBody struct {
	Username string `json:"username"`
}

type restoreBody struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// RequestCode asks the server to message a reset code to the user. On
// success the flow advances to StepVerify with the username retained; on
// failure it stays where it was.
func (s *Service) RequestCode(ctx context.Context, f Flow, username string) (Flow, error) {
	if f.Step == StepDone {
		return f, ErrFlowFinished
	}
	if f.Step != StepRequest {
		return f, &api.ValidationError{Field: "step", Reason: "code already requested"}
	}
	if username == "" {
		return f, &api.ValidationError{Field: "username", Reason: "must not be empty"}
	}

	err := s.client.DispatchJSON(ctx, http.MethodPost, api.EndpointForgetPassword,
		requestCodeBody{Username: username}, api.Params{}, nil)
	if err != nil {
		return f, err
	}
	s.log.Info("reset code requested", zap.String("username", username))
	return Flow{Step: StepVerify, Username: username}, nil
}

// VerifyCode submits the reset code. The length check is settled locally;
// a wrong-length code never reaches the network. On success the server
// resets the credential and delivers the new value out-of-band, and the
// flow terminates at StepDone.
func (s *Service) VerifyCode(ctx context.Context, f Flow, code string) (Flow, error) {
	if f.Step == StepDone {
		return f, ErrFlowFinished
	}
	if f.Step != StepVerify {
		return f, &api.ValidationError{Field: "step", Reason: "request a code first"}
	}
	if utf8.RuneCountInString(code) != codeLength {
		return f, &api.ValidationError{Field: "code", Reason: "must be exactly 6 characters"}
	}

	err := s.client.DispatchJSON(ctx, http.MethodPost, api.EndpointRestorePass,
		restoreBody{Username: f.Username, Code: code}, api.Params{}, nil)
	if err != nil {
		return f, err
	}
	s.log.Info("password reset confirmed", zap.String("username", f.Username))
	return Flow{Step: StepDone, Username: f.Username}, nil
}
