// Package cdp is a minimal Chrome DevTools Protocol client, just enough
// to drive the registration portal: navigate, evaluate JavaScript, and
// wait for page conditions with bounded timeouts.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrWaitTimeout is returned when a page condition does not become true
// within its bounded wait.
var ErrWaitTimeout = errors.New("timed out waiting for page condition")

const (
	commandTimeout = 30 * time.Second
	pollInterval   = 250 * time.Millisecond
)

// Client is one CDP connection to a page target.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan response

	closed chan struct{}
	once   sync.Once
}

type request struct {
	ID     int64       `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *commandError   `json:"error"`
}

type commandError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// pageTarget mirrors one entry of Chrome's /json/list endpoint.
type pageTarget struct {
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Dial discovers the first page target on the Chrome instance at the
// given debug port and opens a CDP websocket to it.
func Dial(ctx context.Context, port string) (*Client, error) {
	listURL := fmt.Sprintf("http://localhost:%s/json/list", port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list page targets: %w", err)
	}
	defer resp.Body.Close()

	var targets []pageTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to decode page targets: %w", err)
	}

	var wsURL string
	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			wsURL = t.WebSocketDebuggerURL
			break
		}
	}
	if wsURL == "" {
		return nil, fmt.Errorf("no page target available on port %s", port)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to page target: %w", err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[int64]chan response),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the websocket. Pending commands fail with a closed
// connection error.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *Client) readLoop() {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				select {
				case <-c.closed:
				default:
					log.Printf("[cdp] Connection error: %v", err)
				}
			}
			c.failPending()
			return
		}

		var resp response
		if err := json.Unmarshal(message, &resp); err != nil || resp.ID == 0 {
			// Protocol event, not a command response.
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()

		if ok {
			ch <- resp
		}
	}
}

func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// call sends one CDP command and waits for its matched response.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	payload, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	timer := time.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%s: connection closed", method)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		return resp.Result, nil
	case <-timer.C:
		return nil, fmt.Errorf("%s: command timeout", method)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Navigate loads url and waits for the document to finish loading.
func (c *Client) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	_, err := c.call(ctx, "Page.navigate", map[string]string{"url": url})
	if err != nil {
		return err
	}
	return c.WaitTrue(ctx, `document.readyState === "complete"`, timeout)
}

type evalResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception struct {
			Description string `json:"description"`
		} `json:"exception"`
	} `json:"exceptionDetails"`
}

// Eval evaluates a JavaScript expression and returns its JSON value.
func (c *Client) Eval(ctx context.Context, expression string) (json.RawMessage, error) {
	raw, err := c.call(ctx, "Runtime.evaluate", map[string]interface{}{
		"expression":    expression,
		"returnByValue": true,
	})
	if err != nil {
		return nil, err
	}

	var res evalResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode evaluate result: %w", err)
	}
	if res.ExceptionDetails != nil {
		desc := res.ExceptionDetails.Exception.Description
		if desc == "" {
			desc = res.ExceptionDetails.Text
		}
		return nil, fmt.Errorf("page script error: %s", desc)
	}
	return res.Result.Value, nil
}

// EvalInto evaluates an expression and unmarshals the value into out.
func (c *Client) EvalInto(ctx context.Context, expression string, out interface{}) error {
	value, err := c.Eval(ctx, expression)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return fmt.Errorf("expression produced no value")
	}
	return json.Unmarshal(value, out)
}

// EvalString evaluates an expression expected to yield a string.
func (c *Client) EvalString(ctx context.Context, expression string) (string, error) {
	var s string
	if err := c.EvalInto(ctx, expression, &s); err != nil {
		return "", err
	}
	return s, nil
}

// WaitTrue polls a boolean expression until it holds or the bounded
// timeout expires with ErrWaitTimeout.
func (c *Client) WaitTrue(ctx context.Context, expression string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		var ok bool
		err := c.EvalInto(ctx, expression, &ok)
		if err == nil && ok {
			return nil
		}
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return ErrWaitTimeout
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
