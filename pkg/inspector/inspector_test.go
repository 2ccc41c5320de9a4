package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tessera-ui/tessera/pkg/binding"
	"github.com/tessera-ui/tessera/pkg/element"
	"github.com/tessera-ui/tessera/pkg/fsm"
	"github.com/tessera-ui/tessera/pkg/reactive"
	"github.com/tessera-ui/tessera/pkg/runtime"
)

func newTestInspector(t *testing.T) (*runtime.Engine, *Inspector) {
	t.Helper()
	e := runtime.NewEngine()
	if _, err := e.DefineFSM(fsm.ButtonConfig("button")); err != nil {
		t.Fatalf("DefineFSM failed: %v", err)
	}
	return e, New(e)
}

func TestHealthz(t *testing.T) {
	_, in := newTestInspector(t)
	srv := httptest.NewServer(in.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatsReflectsEngine(t *testing.T) {
	e, in := newTestInspector(t)
	reactive.CreateSignal(e.Store(), 1)
	reactive.CreateSignal(e.Store(), 2)
	e.Flush(context.Background())

	srv := httptest.NewServer(in.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats failed: %v", err)
	}
	defer resp.Body.Close()

	var stats struct {
		Signals int    `json:"signals"`
		Cycles  uint64 `json:"cycles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats failed: %v", err)
	}
	if stats.Signals != 2 {
		t.Errorf("expected 2 signals, got %d", stats.Signals)
	}
	if stats.Cycles != 1 {
		t.Errorf("expected 1 cycle, got %d", stats.Cycles)
	}
}

func TestFSMEndpointListsBindings(t *testing.T) {
	e, in := newTestInspector(t)
	root := element.New()
	child := element.New()
	child.Key = "btn"
	root.Children = []element.Def{child}
	e.Mount(root)

	eval := binding.EvaluatorFunc(func(config []fsm.StateID, _ []any) (element.Def, error) {
		d := element.New()
		d.Key = "btn"
		return d, nil
	})
	if _, err := e.BindStateful("btn", "button", nil, eval); err != nil {
		t.Fatalf("BindStateful failed: %v", err)
	}

	srv := httptest.NewServer(in.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/fsm")
	if err != nil {
		t.Fatalf("GET /fsm failed: %v", err)
	}
	defer resp.Body.Close()

	var machines []struct {
		Key           string   `json:"key"`
		Configuration []string `json:"configuration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&machines); err != nil {
		t.Fatalf("decoding fsm list failed: %v", err)
	}
	if len(machines) != 1 || machines[0].Key != "btn" {
		t.Fatalf("expected one binding btn, got %+v", machines)
	}
	if len(machines[0].Configuration) != 1 || machines[0].Configuration[0] != string(fsm.StateIdle) {
		t.Errorf("expected idle configuration, got %v", machines[0].Configuration)
	}
}

func TestLiveFeedBroadcastsCycles(t *testing.T) {
	_, in := newTestInspector(t)
	srv := httptest.NewServer(in.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// Connection registration races with the dial returning.
	deadline := time.Now().Add(time.Second)
	for in.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if in.ClientCount() != 1 {
		t.Fatal("client not registered")
	}

	in.Observe(runtime.CycleInfo{Seq: 7, Trigger: "test"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading frame failed: %v", err)
	}
	var msg struct {
		Seq     uint64 `json:"seq"`
		Trigger string `json:"trigger"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding frame failed: %v", err)
	}
	if msg.Seq != 7 || msg.Trigger != "test" {
		t.Errorf("unexpected frame: %+v", msg)
	}
}
