package server

import (
	"encoding/json"
	stderrors "errors"

	"github.com/vango-dev/bind/internal/errors"
	"github.com/vango-dev/bind/pkg/dom"
)

// Message kinds.
const (
	MsgInit  = "init"
	MsgEvent = "event"
	MsgOps   = "ops"
	MsgError = "error"
	MsgPing  = "ping"
	MsgPong  = "pong"
)

// ClientMessage is a message sent by the browser.
type ClientMessage struct {
	T    string            `json:"t"`
	Type string            `json:"type,omitempty"`
	Path []int             `json:"path,omitempty"`
	Data map[string]string `json:"data,omitempty"`
}

// InitMessage carries the session's initial body markup.
type InitMessage struct {
	T       string `json:"t"`
	Session string `json:"session"`
	HTML    string `json:"html"`
}

// OpsMessage carries the mutations produced by one event.
type OpsMessage struct {
	T         string   `json:"t"`
	Ops       []dom.Op `json:"ops"`
	Prevented bool     `json:"prevented"`
}

// ErrorMessage reports a failed client request.
type ErrorMessage struct {
	T       string `json:"t"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type pongMessage struct {
	T string `json:"t"`
}

// decodeMessage parses and validates a client message.
func decodeMessage(b []byte) (*ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.New("P001").WithDetail(err.Error())
	}
	switch m.T {
	case MsgEvent:
		if m.Type == "" {
			return nil, errors.New("P001").WithDetail("event message has no type")
		}
	case MsgPing:
	default:
		return nil, errors.New("P001").WithDetailf("unknown message kind %q", m.T)
	}
	return &m, nil
}

func errorMessage(err error) ErrorMessage {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return ErrorMessage{T: MsgError, Code: e.Code, Message: e.Message, Detail: e.Detail}
	}
	return ErrorMessage{T: MsgError, Message: err.Error()}
}
