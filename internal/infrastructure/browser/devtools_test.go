package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ContactScanner/internal/ports"
)

// devtoolsStub emulates the debugging endpoint: a target list plus one page
// socket answering protocol commands.
type devtoolsStub struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	inserted []string
	failNext bool
}

func (s *devtoolsStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/json/list", func(w http.ResponseWriter, r *http.Request) {
		wsURL := "ws://" + r.Host + "/page"
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"type": "page", "webSocketDebuggerUrl": wsURL},
		})
	})
	mux.HandleFunc("/page", s.servePage)
	return mux
}

func (s *devtoolsStub) servePage(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req struct {
			ID     int64          `json:"id"`
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		// responses may interleave with protocol events
		_ = conn.WriteJSON(map[string]any{"method": "Page.frameStartedLoading", "params": map[string]any{}})

		s.mu.Lock()
		fail := s.failNext
		s.failNext = false
		s.mu.Unlock()
		if fail {
			_ = conn.WriteJSON(map[string]any{
				"id":    req.ID,
				"error": map[string]any{"code": -32000, "message": "target crashed"},
			})
			continue
		}

		resp := map[string]any{"id": req.ID}
		switch req.Method {
		case "Page.navigate":
			resp["result"] = map[string]any{"frameId": "frame-1"}
		case "Runtime.evaluate":
			expr, _ := req.Params["expression"].(string)
			value := "ok"
			if expr == "document.readyState" {
				value = "complete"
			}
			if strings.Contains(expr, "outerHTML") {
				value = "<html lang=\"de\"></html>"
			}
			resp["result"] = map[string]any{
				"result": map[string]any{"type": "string", "value": value},
			}
		case "Input.insertText":
			text, _ := req.Params["text"].(string)
			s.mu.Lock()
			s.inserted = append(s.inserted, text)
			s.mu.Unlock()
			resp["result"] = map[string]any{}
		case "Page.captureScreenshot":
			resp["result"] = map[string]any{
				"data": base64.StdEncoding.EncodeToString([]byte("png bytes")),
			}
		default:
			resp["result"] = map[string]any{}
		}
		_ = conn.WriteJSON(resp)
	}
}

func newStubDriver(t *testing.T) (*DevToolsDriver, *devtoolsStub) {
	t.Helper()

	stub := &devtoolsStub{t: t}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	driver, err := NewDevToolsDriver(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("attach driver: %v", err)
	}
	t.Cleanup(func() { _ = driver.Close() })
	return driver, stub
}

func TestDevToolsNavigate(t *testing.T) {
	driver, _ := newStubDriver(t)

	outcome, err := driver.Navigate(context.Background(), "https://example.com/in/anna")
	if err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if outcome != ports.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success", outcome)
	}
}

func TestDevToolsEvaluateUnwrapsStrings(t *testing.T) {
	driver, _ := newStubDriver(t)

	got, err := driver.Evaluate(context.Background(), "document.title")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != "ok" {
		t.Fatalf("evaluate = %q, want %q", got, "ok")
	}
}

func TestDevToolsContentReturnsDOM(t *testing.T) {
	driver, _ := newStubDriver(t)

	html, err := driver.Content(context.Background())
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if !strings.Contains(html, "<html") {
		t.Fatalf("content = %q, want serialized document", html)
	}
}

func TestDevToolsTypeInsertsPerCharacter(t *testing.T) {
	driver, stub := newStubDriver(t)

	err := driver.Type(context.Background(), "#box", "hey", []time.Duration{0, 0, 0})
	if err != nil {
		t.Fatalf("type: %v", err)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if got := strings.Join(stub.inserted, ""); got != "hey" {
		t.Fatalf("inserted %q, want %q", got, "hey")
	}
	if len(stub.inserted) != 3 {
		t.Fatalf("inserted %d events, want 3", len(stub.inserted))
	}
}

func TestDevToolsScreenshotDecodes(t *testing.T) {
	driver, _ := newStubDriver(t)

	raw, err := driver.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	if string(raw) != "png bytes" {
		t.Fatalf("screenshot = %q", raw)
	}
}

func TestDevToolsCommandErrorSurfaces(t *testing.T) {
	driver, stub := newStubDriver(t)

	stub.mu.Lock()
	stub.failNext = true
	stub.mu.Unlock()

	if err := driver.ScrollBy(context.Background(), 500); err == nil {
		t.Fatal("expected protocol error")
	}
}
