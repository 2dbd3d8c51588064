package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/agent"
	"github.com/PratikDhanave/bm-echo-agent/internal/auth"
	"github.com/PratikDhanave/bm-echo-agent/internal/compose"
	"github.com/PratikDhanave/bm-echo-agent/internal/config"
	"github.com/PratikDhanave/bm-echo-agent/internal/dedup"
	"github.com/PratikDhanave/bm-echo-agent/internal/models"
	"github.com/PratikDhanave/bm-echo-agent/internal/sender"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type call struct {
	kind string
	id   string
	text string
}

// recordingClient stands in for the Business Messages API.
type recordingClient struct {
	mu     sync.Mutex
	calls  []call
	failOn string
}

func (c *recordingClient) CreateEvent(_ context.Context, _ string, eventType models.EventType, eventID string) error {
	return c.add(call{kind: string(eventType), id: eventID})
}

func (c *recordingClient) CreateMessage(_ context.Context, _ string, msg models.OutboundMessage) error {
	return c.add(call{kind: "message", id: msg.MessageID, text: msg.Text})
}

func (c *recordingClient) add(cl call) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, cl)
	if cl.kind == c.failOn {
		return errors.New("platform error")
	}
	return nil
}

func (c *recordingClient) snapshot() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]call(nil), c.calls...)
}

type fixture struct {
	router *gin.Engine
	client *recordingClient
	cache  *dedup.MemoryCache
	agent  *agent.Agent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := &recordingClient{}
	cache := dedup.NewMemoryCache(time.Minute)
	pipeline := sender.NewPipeline(client, glog.Nop(), time.Second)
	a := agent.New(cache, compose.New(config.DefaultPersona()), pipeline, glog.Nop())

	r := gin.New()
	RegisterCallbackRoutes(r, a, glog.Nop())
	admin := r.Group("/")
	admin.Use(auth.APIKeyMiddleware(map[string]string{"admin-key": "ops"}, glog.Nop()))
	RegisterStatsRoutes(admin, a)

	return &fixture{router: r, client: client, cache: cache, agent: a}
}

func (f *fixture) post(t *testing.T, body string) (int, models.CallbackResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp models.CallbackResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON %q: %v", w.Body.String(), err)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	return w.Code, resp
}

func TestCallback_EchoRoundTrip(t *testing.T) {
	f := newFixture(t)

	code, resp := f.post(t, `{"conversationId":"c1","requestId":"r1","message":{"text":"Hello there"}}`)
	if code != http.StatusOK || resp.Outcome != string(agent.OutcomeReplied) {
		t.Fatalf("unexpected response %d %+v", code, resp)
	}

	calls := f.client.snapshot()
	if len(calls) != 3 {
		t.Fatalf("expected 3 outbound calls, got %+v", calls)
	}
	if calls[0].kind != "TYPING_STARTED" || calls[1].kind != "message" || calls[2].kind != "TYPING_STOPPED" {
		t.Fatalf("unexpected call order %+v", calls)
	}
	if calls[1].text != "Hello there" {
		t.Fatalf("expected exact echo, got %q", calls[1].text)
	}
	if calls[0].id == calls[2].id || calls[0].id == calls[1].id {
		t.Fatalf("expected distinct ids, got %+v", calls)
	}
}

func TestCallback_RedeliveryIsAcknowledgedButNotResent(t *testing.T) {
	f := newFixture(t)
	body := `{"conversationId":"c1","requestId":"r-dup","message":{"text":"hi"}}`

	for i := 0; i < 3; i++ {
		if code, _ := f.post(t, body); code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200 got %d", i, code)
		}
	}
	if n := len(f.client.snapshot()); n != 3 {
		t.Fatalf("expected one send sequence (3 calls), got %d calls", n)
	}
}

func TestCallback_MissingConversationIDIsIgnored(t *testing.T) {
	f := newFixture(t)

	code, resp := f.post(t, `{"requestId":"r-orphan","message":{"text":"hi"}}`)
	if code != http.StatusOK || resp.Outcome != string(agent.OutcomeIgnored) {
		t.Fatalf("unexpected response %d %+v", code, resp)
	}
	if len(f.client.snapshot()) != 0 {
		t.Fatal("expected no outbound calls")
	}
	if seen, _ := f.cache.Seen(context.Background(), "r-orphan"); seen {
		t.Fatal("request id must not be recorded without a conversation id")
	}
	if f.cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", f.cache.Len())
	}
}

func TestCallback_MalformedBodyIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`not json`, ``, `[1,2]`} {
		code, resp := f.post(t, body)
		if code != http.StatusOK || resp.Status != "received" {
			t.Fatalf("body %q: unexpected response %d %+v", body, code, resp)
		}
	}
	if len(f.client.snapshot()) != 0 {
		t.Fatal("expected no outbound calls")
	}
}

func TestCallback_SendFailureIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.client.failOn = "message"

	code, resp := f.post(t, `{"conversationId":"c1","requestId":"r-fail","message":{"text":"hi"}}`)
	if code != http.StatusOK || resp.Outcome != string(agent.OutcomeSendFailed) {
		t.Fatalf("unexpected response %d %+v", code, resp)
	}
	calls := f.client.snapshot()
	if len(calls) != 2 || calls[1].kind != "message" {
		t.Fatalf("expected abort after failed message, got %+v", calls)
	}
}

func TestCallback_NoRequestIDRepliesEveryTime(t *testing.T) {
	f := newFixture(t)
	body := `{"conversationId":"c1","message":{"text":"hi"}}`

	f.post(t, body)
	f.post(t, body)
	if n := len(f.client.snapshot()); n != 6 {
		t.Fatalf("expected two send sequences (6 calls), got %d", n)
	}
}

func TestStats_RequiresKeyAndReportsCounters(t *testing.T) {
	f := newFixture(t)
	f.post(t, `{"conversationId":"c1","requestId":"r1","message":{"text":"card"}}`)
	f.post(t, `{"conversationId":"c1","requestId":"r1","message":{"text":"card"}}`)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("X-API-Key", "admin-key")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snap agent.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Deliveries != 2 || snap.Replies != 1 || snap.Duplicates != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Actions[models.ActionRichCard] != 1 {
		t.Fatalf("unexpected actions %v", snap.Actions)
	}
}
