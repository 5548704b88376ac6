package quant

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StatusError is returned for any reply whose status is not 200.
type StatusError struct {
	Code       int
	StatusText string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.StatusText)
}

// ServerError is the envelope the backend sends with status 200 when a
// handler raised: {"error": {"type", "str", "repr", "msg", "src"}}.
type ServerError struct {
	Type string `json:"type"`
	Str  string `json:"str"`
	Repr string `json:"repr"`
	Msg  string `json:"msg"`
	Src  string `json:"src,omitempty"`
}

func (e *ServerError) Error() string {
	msg := e.Str
	if msg == "" {
		msg = e.Msg
	}
	if e.Type == "" {
		return "server error: " + msg
	}
	return fmt.Sprintf("server error %s: %s", e.Type, msg)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// ServerError returns the backend's error envelope carried by a 200 reply,
// or nil when the body is not an envelope.
func (r *Response) ServerError() *ServerError {
	var env struct {
		Error *ServerError `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return nil
	}
	return env.Error
}
