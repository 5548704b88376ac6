package quant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client sends commands to the pricing backend. The base URL is derived
// from Page by Base on every request.
type Client struct {
	Page string
	Base BaseResolver
	HTTP *http.Client
	Log  *log.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.Log = l }
}

// WithTimeout bounds every request made by the client. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := *c.HTTP
		h.Timeout = d
		c.HTTP = &h
	}
}

func NewClient(page string, base BaseResolver, opts ...Option) *Client {
	if base == nil {
		base = PageBase{}
	}
	c := &Client{
		Page: page,
		Base: base,
		HTTP: &http.Client{},
		Log:  log.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Response is a completed 200 reply.
type Response struct {
	Status int
	Body   json.RawMessage
}

// Decode unmarshals the body into out.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// URL builds <base>/<command>?<query>.
func (c *Client) URL(command string, params Params) (string, error) {
	base, err := c.Base.Base(c.Page)
	if err != nil {
		return "", fmt.Errorf("resolve base url: %w", err)
	}
	base = strings.TrimSuffix(base, "/")
	command = strings.TrimPrefix(command, "/")
	return base + "/" + command + "?" + params.Encode(), nil
}

// Do performs one GET for command. Any status other than 200 is returned
// as a *StatusError.
func (c *Client) Do(ctx context.Context, command string, params Params) (*Response, error) {
	u, err := c.URL(command, params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", command, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", command, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Code:       resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(b),
		}
	}
	return &Response{Status: resp.StatusCode, Body: b}, nil
}

// Get performs command and decodes the reply into out. A reply carrying the
// backend's error envelope is returned as a *ServerError.
func (c *Client) Get(ctx context.Context, command string, params Params, out any) error {
	resp, err := c.Do(ctx, command, params)
	if err != nil {
		return err
	}
	if serr := resp.ServerError(); serr != nil {
		return serr
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if s := strings.TrimPrefix(resp.Status, prefix); s != "" && s != resp.Status {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
