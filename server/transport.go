package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	glspserver "github.com/tliron/glsp/server"

	"github.com/mava/digestif/internal/logging"
	"github.com/mava/digestif/lspcore"
)

// Transport wraps one protocol.Handler-backed glsp server and exposes
// it over either stdio or a websocket listener (spec §6 NEW).
type Transport struct {
	glsp *glspserver.Server
}

// NewTransport builds a Transport serving core.
func NewTransport(core *lspcore.Core) *Transport {
	handler := NewHandler(core)
	return &Transport{glsp: glspserver.NewServer(handler, "digestif", false)}
}

// RunStdio serves the protocol over stdin/stdout, the conventional LSP
// transport every editor client expects by default.
func (t *Transport) RunStdio() error {
	return t.glsp.RunStdio()
}

// upgrader mirrors the teacher's websocket upgrader (server/lsp_handler.go):
// CheckOrigin delegates to checkOrigin so only localhost-origin (or
// no-origin, e.g. direct CLI) clients may connect.
var upgrader = websocket.Upgrader{
	CheckOrigin: checkOrigin,
}

// ServeWebSocket upgrades an HTTP request to a websocket connection and
// serves the LSP protocol over it until the connection closes.
func (t *Transport) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Errorw("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	logging.Infow("websocket client connected", "remote", r.RemoteAddr)
	t.glsp.ServeWebSocket(conn)
	logging.Infow("websocket client disconnected", "remote", r.RemoteAddr)
}

// ListenWebSocket starts an HTTP server on addr serving the LSP
// protocol over websocket at "/".
func (t *Transport) ListenWebSocket(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", t.ServeWebSocket)
	logging.Infow("websocket transport listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

// checkOrigin allows connections with no Origin header (direct
// websocket clients, editor extensions that don't set one) and any
// localhost origin; a deployment fronting this server on a real
// network should terminate TLS and restrict origins upstream.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1")
}
