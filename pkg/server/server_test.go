package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/html"

	"github.com/vango-dev/bind/internal/config"
	"github.com/vango-dev/bind/internal/demo"
	"github.com/vango-dev/bind/pkg/anchor"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/events"
	"github.com/vango-dev/bind/pkg/reactive"
)

func mountDemo(doc *dom.Document, g *reactive.Graph, r *events.Router, slots *anchor.Registry) error {
	_, err := demo.Mount(doc, g, r, slots)
	return err
}

func newTestServer(t *testing.T, shell string, mount MountFunc, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.New()
	cfg.Render.SweepInterval = config.Duration(time.Hour)
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := New(cfg, shell, mount, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + config.DefaultWSPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readJSON[T any](t *testing.T, conn *websocket.Conn) T {
	t.Helper()
	var v T
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	return v
}

// pathTo parses body markup the way the client does and returns the path of
// the first element matching tag and class.
func pathTo(t *testing.T, body, tag, class string) []int {
	t.Helper()
	doc, err := dom.Parse(body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	var found *html.Node
	dom.Walk(doc.Body(), func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode || n.Data != tag {
			return
		}
		if c, _ := dom.GetAttr(n, "class"); c == class {
			found = n
		}
	})
	if found == nil {
		t.Fatalf("no <%s class=%q> in %s", tag, class, body)
	}
	path, _ := dom.NodePath(doc.Body(), found)
	return path
}

func opsContain(ops []dom.Op, s string) bool {
	for _, op := range ops {
		if strings.Contains(op.Value, s) || strings.Contains(op.HTML, s) {
			return true
		}
	}
	return false
}

func TestNew_RequiresMount(t *testing.T) {
	if _, err := New(nil, demo.Shell, nil); err == nil {
		t.Fatal("New() with nil mount error=nil, want non-nil")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Server.Port = -1
	if _, err := New(cfg, demo.Shell, mountDemo); err == nil {
		t.Fatal("New() with invalid config error=nil, want non-nil")
	}
}

func TestServePage(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{`id="bind-root"`, "Clicked 0 times", ClientPath, config.DefaultWSPath} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestServeClient(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)

	resp, err := http.Get(ts.URL + ClientPath)
	if err != nil {
		t.Fatalf("GET client error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Content-Type = %q", ct)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+ClientPath, nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", resp.StatusCode)
	}
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{clientETag, true},
		{"W/" + clientETag, true},
		{`"other", ` + clientETag, true},
		{"*", true},
		{`"other"`, false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, clientETag); got != tt.want {
			t.Errorf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, demo.Shell, mountDemo, nil)

	conn := dial(t, ts)
	readJSON[InitMessage](t, conn)
	if got := srv.Sessions(); got != 1 {
		t.Fatalf("Sessions() = %d, want 1", got)
	}

	resp, err := http.Get(ts.URL + config.DefaultMetricsPath)
	if err != nil {
		t.Fatalf("GET metrics error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"bind_active_sessions 1", "bind_renders_total"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, func(c *config.Config) {
		c.Metrics.Enabled = false
	})

	resp, err := http.Get(ts.URL + config.DefaultMetricsPath)
	if err != nil {
		t.Fatalf("GET metrics error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSession_Init(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)
	conn := dial(t, ts)

	first := readJSON[InitMessage](t, conn)
	if first.T != MsgInit {
		t.Fatalf("first message = %q, want init", first.T)
	}
	if first.Session == "" {
		t.Error("init has no session id")
	}
	for _, want := range []string{"Clicked 0 times", "all done", config.DefaultIdentityAttr} {
		if !strings.Contains(first.HTML, want) {
			t.Errorf("init html missing %q", want)
		}
	}
}

func TestSession_ClickProducesOps(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)
	conn := dial(t, ts)
	first := readJSON[InitMessage](t, conn)
	path := pathTo(t, first.HTML, "button", "counter")

	for i := 1; i <= 2; i++ {
		if err := conn.WriteJSON(ClientMessage{T: MsgEvent, Type: "click", Path: path}); err != nil {
			t.Fatalf("WriteJSON() error: %v", err)
		}
		msg := readJSON[OpsMessage](t, conn)
		if msg.T != MsgOps {
			t.Fatalf("reply = %q, want ops", msg.T)
		}
		if msg.Prevented {
			t.Error("click reported prevented")
		}
		want := fmt.Sprintf("Clicked %d times", i)
		if !opsContain(msg.Ops, want) {
			t.Errorf("click %d ops %v do not contain %q", i, msg.Ops, want)
		}
	}
}

func TestSession_SubmitIsPrevented(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)
	conn := dial(t, ts)
	first := readJSON[InitMessage](t, conn)
	path := pathTo(t, first.HTML, "form", "add")

	err := conn.WriteJSON(ClientMessage{
		T:    MsgEvent,
		Type: "submit",
		Path: path,
		Data: map[string]string{"title": "buy milk"},
	})
	if err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	msg := readJSON[OpsMessage](t, conn)
	if !msg.Prevented {
		t.Error("submit not prevented")
	}
	if !opsContain(msg.Ops, "buy milk") {
		t.Errorf("ops %v do not add the todo row", msg.Ops)
	}
	if !opsContain(msg.Ops, "1 open") {
		t.Errorf("ops %v do not update the status slot", msg.Ops)
	}
}

func TestSession_ProtocolErrors(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)
	conn := dial(t, ts)
	readJSON[InitMessage](t, conn)

	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"not json", "not json", "P001"},
		{"unknown kind", `{"t":"bogus"}`, "P001"},
		{"event without type", `{"t":"event","path":[0]}`, "P001"},
		{"missing target", `{"t":"event","type":"click","path":[42,7]}`, "P002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)); err != nil {
				t.Fatalf("WriteMessage() error: %v", err)
			}
			msg := readJSON[ErrorMessage](t, conn)
			if msg.T != MsgError || msg.Code != tt.code {
				t.Errorf("reply = %+v, want error %s", msg, tt.code)
			}
		})
	}
}

func TestSession_Ping(t *testing.T) {
	_, ts := newTestServer(t, demo.Shell, mountDemo, nil)
	conn := dial(t, ts)
	readJSON[InitMessage](t, conn)

	if err := conn.WriteJSON(ClientMessage{T: MsgPing}); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if msg["t"] != MsgPong {
		t.Errorf("reply = %v, want pong", msg)
	}
}

func TestSession_HandlerPanicIsReported(t *testing.T) {
	mount := func(doc *dom.Document, g *reactive.Graph, r *events.Router, _ *anchor.Registry) error {
		_, err := g.NewBuilder("boom").Render(func(*reactive.Renderer) string {
			return `<button>boom</button>`
		}).On("click", func(*reactive.Event) bool {
			panic("boom")
		}).Anchor(anchor.NewElement(doc, doc.Body().FirstChild)).Build()
		r.Listen("click")
		return err
	}
	_, ts := newTestServer(t, "<div></div>", mount, nil)
	conn := dial(t, ts)
	readJSON[InitMessage](t, conn)

	if err := conn.WriteJSON(ClientMessage{T: MsgEvent, Type: "click", Path: []int{0, 0}}); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	errMsg := readJSON[ErrorMessage](t, conn)
	if errMsg.T != MsgError || !strings.Contains(errMsg.Message, "boom") {
		t.Errorf("reply = %+v, want panic error", errMsg)
	}
	ops := readJSON[OpsMessage](t, conn)
	if ops.T != MsgOps {
		t.Errorf("second reply = %q, want ops", ops.T)
	}

	// The session survives the panic.
	if err := conn.WriteJSON(ClientMessage{T: MsgPing}); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil || pong["t"] != MsgPong {
		t.Errorf("after panic: %v %v", pong, err)
	}
}

func TestSession_MountFailureClosesConnection(t *testing.T) {
	_, ts := newTestServer(t, "<p>no app here</p>", mountDemo, nil)
	conn := dial(t, ts)

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseInternalServerErr) {
		t.Errorf("ReadMessage() error = %v, want internal server close", err)
	}
}

func TestSession_CloseUntracks(t *testing.T) {
	srv, ts := newTestServer(t, demo.Shell, mountDemo, nil)
	conn := dial(t, ts)
	readJSON[InitMessage](t, conn)

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Sessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Sessions() = %d after close, want 0", srv.Sessions())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDecodeMessage(t *testing.T) {
	msg, err := decodeMessage([]byte(`{"t":"event","type":"change","path":[0,1],"data":{"checked":"true"}}`))
	if err != nil {
		t.Fatalf("decodeMessage() error: %v", err)
	}
	if msg.Type != "change" || len(msg.Path) != 2 || msg.Data["checked"] != "true" {
		t.Errorf("decodeMessage() = %+v", msg)
	}
}

func TestOpsMessage_WireFormat(t *testing.T) {
	b, err := json.Marshal(OpsMessage{
		T:   MsgOps,
		Ops: []dom.Op{{Kind: dom.OpSetText, Path: []int{0, 1}, Value: "hi"}},
	})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"t":"ops","ops":[{"k":"text","p":[0,1],"v":"hi"}],"prevented":false}`
	if string(b) != want {
		t.Errorf("wire = %s, want %s", b, want)
	}
}
