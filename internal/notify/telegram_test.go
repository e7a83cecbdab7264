package notify

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type fakeBotAPI struct {
	calls    atomic.Int32
	failures int32
	status   int
	body     string
	lastText atomic.Value
	lastPath atomic.Value
}

func (f *fakeBotAPI) handle(ctx *fasthttp.RequestCtx) {
	n := f.calls.Add(1)
	f.lastPath.Store(string(ctx.Path()))
	var req sendMessageRequest
	_ = json.Unmarshal(ctx.PostBody(), &req)
	f.lastText.Store(req.Text)

	if n <= f.failures {
		ctx.SetStatusCode(f.status)
		ctx.SetBodyString(`{"ok":false,"description":"try later"}`)
		return
	}
	body := f.body
	if body == "" {
		body = `{"ok":true}`
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString(body)
}

func startFakeAPI(t *testing.T, api *fakeBotAPI) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: api.handle}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return &fasthttp.Client{Dial: func(addr string) (net.Conn, error) { return ln.Dial() }}
}

func newTestTelegram(t *testing.T, api *fakeBotAPI) *Telegram {
	t.Helper()
	tg, err := NewTelegram("123:abc", "42",
		WithAPIBase("http://telegram.local"),
		WithHTTPClient(startFakeAPI(t, api)),
		WithTimeout(2*time.Second),
	)
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	return tg
}

func TestNewTelegramValidates(t *testing.T) {
	if _, err := NewTelegram("", "1"); err == nil {
		t.Fatalf("expected error without token")
	}
	if _, err := NewTelegram("token", " "); err == nil {
		t.Fatalf("expected error without chat id")
	}
}

func TestNotifySendsMessage(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newTestTelegram(t, api)
	if err := tg.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := api.lastPath.Load(); got != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %v", got)
	}
	if got := api.lastText.Load(); got != "hello" {
		t.Fatalf("unexpected text %v", got)
	}
}

func TestNotifyRetriesServerErrors(t *testing.T) {
	api := &fakeBotAPI{failures: 2, status: fasthttp.StatusBadGateway}
	tg := newTestTelegram(t, api)
	if err := tg.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if n := api.calls.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestNotifyDoesNotRetryClientErrors(t *testing.T) {
	api := &fakeBotAPI{failures: 5, status: fasthttp.StatusBadRequest}
	tg := newTestTelegram(t, api)
	if err := tg.Notify(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if n := api.calls.Load(); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestNotifyRejectsNotOK(t *testing.T) {
	api := &fakeBotAPI{body: `{"ok":false,"description":"chat not found"}`}
	tg := newTestTelegram(t, api)
	if err := tg.Notify(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for ok=false")
	}
}

func TestAnnounceSwallowsErrors(t *testing.T) {
	api := &fakeBotAPI{failures: 10, status: fasthttp.StatusServiceUnavailable}
	tg := newTestTelegram(t, api)
	Announce(context.Background(), tg, "hello", nil)
	Announce(context.Background(), nil, "hello", nil)
	Announce(context.Background(), NewLogNotifier(nil), "hello", nil)
}

func TestBackoffDuration(t *testing.T) {
	if backoffDuration(1) != 100*time.Millisecond || backoffDuration(3) != 400*time.Millisecond {
		t.Fatalf("unexpected backoff")
	}
	if backoffDuration(10) != backoffDuration(6) {
		t.Fatalf("backoff must be capped")
	}
}
