package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"tgrelay/pkg/botapi"
	"tgrelay/pkg/config"
	"tgrelay/pkg/relay"
)

const testSecret = "Abcdefghijklmno1"

func testCredential() string {
	return "123456789:" + strings.Repeat("A", 35)
}

type botAPIStub struct {
	mu      sync.Mutex
	methods []string
	bodies  []map[string]interface{}
}

func (b *botAPIStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}
		b.mu.Lock()
		b.methods = append(b.methods, path.Base(r.URL.Path))
		b.bodies = append(b.bodies, body)
		b.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":100}}`)
	}
}

func (b *botAPIStub) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.methods)
}

func newTestServer(t *testing.T) (*httptest.Server, *botAPIStub) {
	t.Helper()

	stub := &botAPIStub{}
	api := httptest.NewServer(stub.handler())
	t.Cleanup(api.Close)

	cfg := config.DefaultConfig()
	cfg.Relay.SecretToken = testSecret

	engine := relay.NewEngine(botapi.NewClient(api.URL), cfg.Relay.Prefix, cfg.Relay.SecretToken)
	srv := httptest.NewServer(NewServer(cfg, engine).Handler())
	t.Cleanup(srv.Close)

	return srv, stub
}

func TestHealthRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv, stub := newTestServer(t)

	for _, p := range []string{
		"/",
		"/other/install/1/" + testCredential(),
		"/public/unknown/1/" + testCredential(),
		"/public/install/" + testCredential(), // missing owner segment
	} {
		resp, err := http.Get(srv.URL + p)
		if err != nil {
			t.Fatalf("get %s: %v", p, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, resp.StatusCode)
		}
	}
	if stub.callCount() != 0 {
		t.Fatalf("expected no remote calls, got %d", stub.callCount())
	}
}

func TestInstallRoute(t *testing.T) {
	srv, stub := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/public/install/10000/"+testCredential(), nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON response, got %q", ct)
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success, got %+v", body)
	}

	if stub.callCount() != 1 || stub.methods[0] != "setWebhook" {
		t.Fatalf("expected one setWebhook call, got %v", stub.methods)
	}
	wantURL := "https://" + strings.TrimPrefix(srv.URL, "http://") + "/public/webhook/10000/" + testCredential()
	if stub.bodies[0]["url"] != wantURL {
		t.Fatalf("expected callback url %q, got %v", wantURL, stub.bodies[0]["url"])
	}
}

func TestUninstallRoute(t *testing.T) {
	srv, stub := newTestServer(t)

	resp, err := http.Post(srv.URL+"/public/uninstall/"+testCredential(), "", nil)
	if err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stub.callCount() != 1 || stub.methods[0] != "deleteWebhook" {
		t.Fatalf("expected one deleteWebhook call, got %v", stub.methods)
	}
}

func TestWebhookRouteDelivers(t *testing.T) {
	srv, stub := newTestServer(t)

	update := `{"update_id":1,"message":{"message_id":3,"chat":{"id":555,"type":"private","username":"someone"},"text":"hi"}}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/public/webhook/10000/"+testCredential(), strings.NewReader(update))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", testSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != "成功" {
		t.Fatalf("expected plain-text success body, got %q", string(data))
	}
	if stub.callCount() != 1 || stub.methods[0] != "copyMessage" {
		t.Fatalf("expected one copyMessage call, got %v", stub.methods)
	}
}

func TestWebhookRouteRejectsBadSecretHeader(t *testing.T) {
	srv, stub := newTestServer(t)

	update := `{"update_id":1,"message":{"message_id":3,"chat":{"id":555,"type":"private"},"text":"hi"}}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/public/webhook/10000/"+testCredential(), strings.NewReader(update))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if stub.callCount() != 0 {
		t.Fatalf("expected no remote calls, got %d", stub.callCount())
	}
}

func TestRouteAcceptsAnyMethod(t *testing.T) {
	srv, stub := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/public/uninstall/"+testCredential(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("uninstall via PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stub.callCount() != 1 {
		t.Fatalf("expected one remote call, got %d", stub.callCount())
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}
