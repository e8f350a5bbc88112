package api

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/Rhymer/core/partition"
)

func dialStream(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/label/stream"
	return websocket.DefaultDialer.Dial(url, header)
}

func readReply(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestLabelStream(t *testing.T) {
	s := newTestServer(t, testConfig(), testSource(), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialStream(t, srv, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(LabelRequest{ID: "first", Lines: quatrain, Mode: "group"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	msg := readReply(t, conn)
	if msg.Type != "result" || msg.ID != "first" || msg.Result == nil {
		t.Fatalf("reply = %+v", msg)
	}
	if want := (partition.Partition{{0, 1}, {2, 3}}); !slices.EqualFunc(msg.Result.Groups, want, slices.Equal[[]int]) {
		t.Errorf("groups = %v, want %v", msg.Result.Groups, want)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if msg := readReply(t, conn); msg.Type != "error" || msg.Error.Code != "INVALID_REQUEST" {
		t.Errorf("bad frame reply = %+v", msg)
	}

	if err := conn.WriteJSON(LabelRequest{ID: "second", Words: []string{"night"}, Mode: "none"}); err != nil {
		t.Fatal(err)
	}
	if msg := readReply(t, conn); msg.Type != "error" || msg.ID != "second" || msg.Error.Code != "INVALID_MODE" {
		t.Errorf("bad mode reply = %+v", msg)
	}
}

func TestLabelStreamRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.WebSocket = WebSocketConfig{MaxMessageSize: 4096, MessagesPerSecond: 1, Burst: 1}
	s := newTestServer(t, cfg, testSource(), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialStream(t, srv, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	req := LabelRequest{Words: []string{"night", "light"}}
	conn.WriteJSON(req)
	conn.WriteJSON(req)
	if msg := readReply(t, conn); msg.Type != "result" {
		t.Errorf("first reply = %+v", msg)
	}
	if msg := readReply(t, conn); msg.Type != "error" || msg.Error.Code != "RATE_LIMITED" {
		t.Errorf("second reply = %+v", msg)
	}
}

func TestLabelStreamOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://poems.example"}
	s := newTestServer(t, cfg, testSource(), nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	_, resp, err := dialStream(t, srv, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("dial from a foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}

	conn, _, err := dialStream(t, srv, http.Header{"Origin": {"https://poems.example"}})
	if err != nil {
		t.Fatalf("dial from an allowed origin: %v", err)
	}
	conn.Close()
}
