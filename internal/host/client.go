package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/dusk-indust/mergeframes/internal/structure"
)

// Compile-time interface check.
var _ Host = (*Client)(nil)

// Client talks to the host over JSON-RPC 2.0: requests are HTTP POSTs to the
// endpoint, events arrive over a websocket at <endpoint>/events.
type Client struct {
	endpoint  string
	http      *http.Client
	requestID atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a host client for the given endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the JSON-RPC endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ListEntries calls workspace/list.
func (c *Client) ListEntries(ctx context.Context) ([]structure.EntrySummary, error) {
	var resp ListEntriesResponse
	if err := c.call(ctx, MethodListEntries, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// FetchEntries calls workspace/fetch. The host must answer in request order;
// a response of the wrong length is an error.
func (c *Client) FetchEntries(ctx context.Context, ids []string) ([]*structure.Complex, error) {
	var resp FetchEntriesResponse
	if err := c.call(ctx, MethodFetchEntries, FetchEntriesRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Entries) != len(ids) {
		return nil, fmt.Errorf("host: %s: requested %d entries, got %d", MethodFetchEntries, len(ids), len(resp.Entries))
	}
	return resp.Entries, nil
}

// PublishEntries calls workspace/add and records the host-assigned IDs on
// entries.
func (c *Client) PublishEntries(ctx context.Context, entries []*structure.Complex) error {
	var resp AddEntriesResponse
	if err := c.call(ctx, MethodAddEntries, AddEntriesRequest{Entries: entries}, &resp); err != nil {
		return err
	}
	if len(resp.IDs) == len(entries) {
		for i, e := range entries {
			e.ID = resp.IDs[i]
		}
	}
	return nil
}

// RemoveEntries calls workspace/remove with the IDs of entries.
func (c *Client) RemoveEntries(ctx context.Context, entries []*structure.Complex) error {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return c.call(ctx, MethodRemoveEntries, RemoveEntriesRequest{IDs: ids}, nil)
}

// NotifyWarning calls ui/notify with a warning.
func (c *Client) NotifyWarning(ctx context.Context, message string) error {
	return c.Notify(ctx, NotificationWarning, message)
}

// Notify calls ui/notify.
func (c *Client) Notify(ctx context.Context, typ NotificationType, message string) error {
	return c.call(ctx, MethodNotify, NotifyRequest{Type: typ, Message: message}, nil)
}

// SetListButton calls ui/setListButton.
func (c *Client) SetListButton(ctx context.Context, button ListButton, label string) error {
	return c.call(ctx, MethodSetListButton, SetListButtonRequest{Button: button, Label: label}, nil)
}

// UpdateMenu calls ui/updateMenu.
func (c *Client) UpdateMenu(ctx context.Context, menu settings.Menu) error {
	return c.call(ctx, MethodUpdateMenu, UpdateMenuRequest{Menu: menu}, nil)
}

// Trigger asks a development host to emit ev to its subscribers.
func (c *Client) Trigger(ctx context.Context, ev Event) error {
	return c.call(ctx, MethodTrigger, TriggerRequest{Event: ev}, nil)
}

// nextID returns a monotonically increasing request ID for JSON-RPC calls.
func (c *Client) nextID() int64 {
	return c.requestID.Add(1)
}

// call performs a JSON-RPC 2.0 call over HTTP POST.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("host: marshal params: %w", err)
	}

	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      c.nextID(),
		Method:  method,
		Params:  paramsJSON,
	})
	if err != nil {
		return fmt.Errorf("host: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("host: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("host: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("host: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("host: %s: HTTP %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("host: decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("host: decode result: %w", err)
		}
	}

	return nil
}

// RPCError represents a JSON-RPC error returned by the host.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("host: %s: rpc error %d: %s (data: %s)", e.Method, e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("host: %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}
