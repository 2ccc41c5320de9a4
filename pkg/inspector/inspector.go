// Package inspector serves a debug HTTP surface for a running engine:
// reactive graph statistics, bound state machine configurations,
// Prometheus metrics and a WebSocket feed of live cycle summaries.
//
// The inspector is development tooling; mount it on a loopback
// listener in production builds, if at all.
package inspector

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tessera-ui/tessera/pkg/runtime"
)

// Inspector exposes engine internals over HTTP.
type Inspector struct {
	engine *runtime.Engine

	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// New creates an inspector over the given engine. Wire its Observe
// method into the engine's cycle observer to feed the live socket.
func New(engine *runtime.Engine) *Inspector {
	return &Inspector{
		engine:  engine,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // debug surface, not exposed publicly
			},
		},
	}
}

// Handler returns the inspector's routes.
func (in *Inspector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", in.handleHealth)
	r.Get("/stats", in.handleStats)
	r.Get("/fsm", in.handleFSM)
	r.Get("/live", in.handleLive)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (in *Inspector) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statsResponse is the /stats payload.
type statsResponse struct {
	Signals        int    `json:"signals"`
	Derived        int    `json:"derived"`
	Effects        int    `json:"effects"`
	PendingEffects int    `json:"pending_effects"`
	GlobalVersion  uint64 `json:"global_version"`
	Cycles         uint64 `json:"cycles"`
	TreeNodes      int    `json:"tree_nodes"`
	Bindings       int    `json:"bindings"`
	PendingWork    bool   `json:"pending_work"`
}

func (in *Inspector) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := in.engine.Store().Stats()
	resp := statsResponse{
		Signals:        stats.Signals,
		Derived:        stats.Derived,
		Effects:        stats.Effects,
		PendingEffects: stats.PendingEffects,
		GlobalVersion:  stats.GlobalVersion,
		Cycles:         in.engine.CycleCount(),
		TreeNodes:      in.engine.Tree().Len(),
		Bindings:       len(in.engine.Bindings().Keys()),
		PendingWork:    in.engine.HasPendingWork(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// machineState is one entry in the /fsm payload.
type machineState struct {
	Key           string   `json:"key"`
	Configuration []string `json:"configuration"`
}

func (in *Inspector) handleFSM(w http.ResponseWriter, _ *http.Request) {
	var out []machineState
	for _, key := range in.engine.Bindings().Keys() {
		b, ok := in.engine.Bindings().Lookup(key)
		if !ok {
			continue
		}
		config := b.Instance().Configuration()
		ids := make([]string, len(config))
		for i, id := range config {
			ids[i] = string(id)
		}
		out = append(out, machineState{Key: key, Configuration: ids})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// handleLive upgrades to WebSocket and streams cycle summaries until
// the client disconnects.
func (in *Inspector) handleLive(w http.ResponseWriter, req *http.Request) {
	conn, err := in.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	in.mu.Lock()
	in.clients[conn] = true
	in.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	in.mu.Lock()
	delete(in.clients, conn)
	in.mu.Unlock()
	conn.Close()
}

// cycleMessage is one /live frame.
type cycleMessage struct {
	Seq         uint64 `json:"seq"`
	Trigger     string `json:"trigger"`
	BindingRuns int    `json:"binding_runs"`
	PropUpdates int    `json:"prop_updates"`
	Rebuilds    int    `json:"rebuilds"`
	LayoutPass  bool   `json:"layout_pass"`
	DurationUS  int64  `json:"duration_us"`
	Errors      int    `json:"errors"`
}

// Observe broadcasts one cycle summary to connected clients. Plug it
// into the engine via runtime.WithCycleObserver.
func (in *Inspector) Observe(info runtime.CycleInfo) {
	in.broadcast(cycleMessage{
		Seq:         info.Seq,
		Trigger:     info.Trigger,
		BindingRuns: info.BindingRuns,
		PropUpdates: info.PropUpdates,
		Rebuilds:    info.Rebuilds,
		LayoutPass:  info.LayoutPass,
		DurationUS:  info.Duration.Microseconds(),
		Errors:      info.Errors,
	})
}

func (in *Inspector) broadcast(msg cycleMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	in.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(in.clients))
	for client := range in.clients {
		clients = append(clients, client)
	}
	in.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			in.mu.Lock()
			delete(in.clients, client)
			in.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected live clients.
func (in *Inspector) ClientCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.clients)
}
