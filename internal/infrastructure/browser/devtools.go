package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ContactScanner/internal/ports"
)

const (
	callTimeout = 30 * time.Second
	loadTimeout = 45 * time.Second
)

// DevToolsDriver drives a Chromium instance over its DevTools protocol
// websocket. The browser is launched externally with remote debugging
// enabled; the driver only attaches.
type DevToolsDriver struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int64
}

var _ ports.BrowserDriver = (*DevToolsDriver)(nil)

type devtoolsTarget struct {
	Type                 string `json:"type"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

type devtoolsRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type devtoolsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type devtoolsResponse struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *devtoolsError  `json:"error"`
}

type evaluateResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text string `json:"text"`
	} `json:"exceptionDetails"`
}

// NewDevToolsDriver attaches to the first page target of the debugging
// endpoint, e.g. http://127.0.0.1:9222.
func NewDevToolsDriver(ctx context.Context, endpoint string, logger *slog.Logger) (*DevToolsDriver, error) {
	d := &DevToolsDriver{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
	wsURL, err := d.pageSocketURL(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.attach(ctx, wsURL); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DevToolsDriver) pageSocketURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"/json/list", nil)
	if err != nil {
		return "", fmt.Errorf("build target request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("list debug targets: %w", err)
	}
	defer resp.Body.Close()

	var targets []devtoolsTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("decode debug targets: %w", err)
	}
	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	return "", fmt.Errorf("no page target at %s", d.endpoint)
}

func (d *DevToolsDriver) attach(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		return fmt.Errorf("dial devtools socket: %w", err)
	}
	d.mu.Lock()
	if d.conn != nil {
		d.conn.Close()
	}
	d.conn = conn
	d.mu.Unlock()
	if d.logger != nil {
		d.logger.Debug("attached to devtools target", "url", wsURL)
	}
	return nil
}

// Close releases the websocket. The browser itself keeps running.
func (d *DevToolsDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

// call performs one command round trip, skipping interleaved protocol
// events until the matching response id arrives.
func (d *DevToolsDriver) call(ctx context.Context, method string, params any, out any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return fmt.Errorf("devtools: not attached")
	}

	d.nextID++
	id := d.nextID

	deadline := time.Now().Add(callTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = d.conn.SetWriteDeadline(deadline)
	_ = d.conn.SetReadDeadline(deadline)

	if err := d.conn.WriteJSON(devtoolsRequest{ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var resp devtoolsResponse
		if err := d.conn.ReadJSON(&resp); err != nil {
			return fmt.Errorf("read %s response: %w", method, err)
		}
		if resp.Method != "" || resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("%s: %s", method, resp.Error.Message)
		}
		if out != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	}
}

func (d *DevToolsDriver) evaluate(ctx context.Context, expression string) (evaluateResult, error) {
	var res evaluateResult
	err := d.call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expression,
		"returnByValue": true,
	}, &res)
	if err != nil {
		return res, err
	}
	if res.ExceptionDetails != nil {
		return res, fmt.Errorf("evaluate: %s", res.ExceptionDetails.Text)
	}
	return res, nil
}

// Navigate loads the URL and waits for the document to settle.
func (d *DevToolsDriver) Navigate(ctx context.Context, url string) (ports.Outcome, error) {
	var nav struct {
		ErrorText string `json:"errorText"`
	}
	if err := d.call(ctx, "Page.navigate", map[string]any{"url": url}, &nav); err != nil {
		return ports.OutcomeNavigationFailed, err
	}
	if nav.ErrorText != "" {
		return ports.OutcomeNavigationFailed, fmt.Errorf("navigate %s: %s", url, nav.ErrorText)
	}

	settled := time.Now().Add(loadTimeout)
	for time.Now().Before(settled) {
		if ctx.Err() != nil {
			return ports.OutcomeTimeout, ctx.Err()
		}
		res, err := d.evaluate(ctx, "document.readyState")
		if err == nil && string(res.Result.Value) == `"complete"` {
			return ports.OutcomeSuccess, nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return ports.OutcomeTimeout, fmt.Errorf("navigate %s: load timed out", url)
}

// NewPage opens a fresh tab and attaches to it.
func (d *DevToolsDriver) NewPage(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, d.endpoint+"/json/new?about:blank", nil)
	if err != nil {
		return fmt.Errorf("build new page request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("open new page: %w", err)
	}
	defer resp.Body.Close()

	var target devtoolsTarget
	if err := json.NewDecoder(resp.Body).Decode(&target); err != nil {
		return fmt.Errorf("decode new page target: %w", err)
	}
	if target.WebSocketDebuggerURL == "" {
		return fmt.Errorf("new page target has no socket url")
	}
	return d.attach(ctx, target.WebSocketDebuggerURL)
}

// Type focuses the element and inserts the text one character at a time,
// pausing per character according to the supplied cadence.
func (d *DevToolsDriver) Type(ctx context.Context, selector, text string, perChar []time.Duration) error {
	if _, err := d.evaluate(ctx, fmt.Sprintf("document.querySelector(%q).focus()", selector)); err != nil {
		return fmt.Errorf("focus %s: %w", selector, err)
	}
	for i, r := range []rune(text) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.call(ctx, "Input.insertText", map[string]any{"text": string(r)}, nil); err != nil {
			return fmt.Errorf("insert character: %w", err)
		}
		if i < len(perChar) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(perChar[i]):
			}
		}
	}
	return nil
}

// Click dispatches a click on the first element matching the selector.
func (d *DevToolsDriver) Click(ctx context.Context, selector string) error {
	_, err := d.evaluate(ctx, fmt.Sprintf("document.querySelector(%q).click()", selector))
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Evaluate runs the script and returns its JSON-decoded string value.
// Non-string results come back as their JSON encoding.
func (d *DevToolsDriver) Evaluate(ctx context.Context, script string) (string, error) {
	res, err := d.evaluate(ctx, script)
	if err != nil {
		return "", err
	}
	var s string
	if json.Unmarshal(res.Result.Value, &s) == nil {
		return s, nil
	}
	return string(res.Result.Value), nil
}

// ScrollBy scrolls the window vertically by the given pixel delta.
func (d *DevToolsDriver) ScrollBy(ctx context.Context, px int) error {
	_, err := d.evaluate(ctx, fmt.Sprintf("window.scrollBy(0, %d)", px))
	if err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Screenshot captures the viewport as PNG bytes.
func (d *DevToolsDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var shot struct {
		Data string `json:"data"`
	}
	if err := d.call(ctx, "Page.captureScreenshot", map[string]any{"format": "png"}, &shot); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(shot.Data)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return raw, nil
}

// Content returns the full serialized DOM of the current page.
func (d *DevToolsDriver) Content(ctx context.Context) (string, error) {
	return d.Evaluate(ctx, "document.documentElement.outerHTML")
}
