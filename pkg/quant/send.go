package quant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// CallState is the lifecycle of an asynchronous call.
type CallState int

const (
	Pending CallState = iota
	Completed
)

func (s CallState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Call tracks one request started by Send or SendFunc.
type Call struct {
	Command string

	mu    sync.Mutex
	state CallState
	err   error
	done  chan struct{}
}

func newCall(command string) *Call {
	return &Call{Command: command, state: Pending, done: make(chan struct{})}
}

func (c *Call) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the call has completed and its callback has returned.
func (c *Call) Done() <-chan struct{} { return c.done }

// Err is the failure of a completed call, nil on success or while pending.
func (c *Call) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Call) complete(err error) {
	c.mu.Lock()
	c.state = Completed
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

// Send issues command in the background and returns immediately. On a 200
// reply onLoad receives the decoded JSON body, or nil if the body is not
// JSON. Any failure is only logged and onLoad is never called.
func (c *Client) Send(command string, params Params, onLoad func(any)) *Call {
	call := newCall(command)
	go func() {
		var err error
		defer func() { call.complete(err) }()
		defer c.recoverCallback(command, &err)

		var resp *Response
		resp, err = c.Do(context.Background(), command, params)
		if err != nil {
			c.logFailure(err)
			return
		}
		var v any
		if json.Unmarshal(resp.Body, &v) != nil {
			v = nil
		}
		if onLoad != nil {
			onLoad(v)
		}
	}()
	return call
}

// SendFunc is Send with an explicit failure path: exactly one of onLoad
// and onError is called, once. A backend error envelope goes to onError.
func (c *Client) SendFunc(command string, params Params, onLoad func(json.RawMessage), onError func(error)) *Call {
	call := newCall(command)
	go func() {
		var err error
		defer func() { call.complete(err) }()
		defer c.recoverCallback(command, &err)

		var resp *Response
		resp, err = c.Do(context.Background(), command, params)
		if err == nil {
			if serr := resp.ServerError(); serr != nil {
				err = serr
			}
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onLoad != nil {
			onLoad(resp.Body)
		}
	}()
	return call
}

// recoverCallback turns a panicking callback into a logged failure of the
// call so the call still completes.
func (c *Client) recoverCallback(command string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = fmt.Errorf("callback for %s panicked: %v", command, r)
	if c.Log != nil {
		c.Log.Printf("%v", *err)
	}
}

func (c *Client) logFailure(err error) {
	if c.Log == nil {
		return
	}
	var se *StatusError
	if errors.As(err, &se) {
		c.Log.Printf("AJAX request failed [%d]: %s", se.Code, se.StatusText)
		return
	}
	c.Log.Printf("AJAX request failed [0]: %v", err)
}
