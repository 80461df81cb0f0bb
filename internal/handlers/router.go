package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckscan/internal/buildinfo"
	"github.com/xelth-com/eckscan/internal/config"
	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/middleware"
	"github.com/xelth-com/eckscan/internal/realtime"
	"github.com/xelth-com/eckscan/internal/scan"
	"github.com/xelth-com/eckscan/internal/services/printer"
	"github.com/xelth-com/eckscan/internal/utils"
	"github.com/xelth-com/eckscan/internal/websocket"
)

// TerminalHeader identifies the scan terminal sending a request
const TerminalHeader = "X-Terminal-ID"

// Router wraps the mux router and the scan backend
type Router struct {
	*mux.Router
	gw      gateway.Gateway
	station *scan.Station
	hub     *websocket.Hub
	events  realtime.Publisher
	labels  printer.LabelConfig
}

// NewRouter creates a new HTTP router with all routes. hub and events may be nil.
func NewRouter(gw gateway.Gateway, hub *websocket.Hub, events realtime.Publisher, cfg *config.Config) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		gw:      gw,
		station: scan.NewStation(cfg.Scan.Cooldown),
		hub:     hub,
		events:  events,
		labels:  printer.DefaultLabelConfig(cfg.InstanceSuffix),
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	if hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWs(hub, w, req)
		})
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	// Outward
	api.HandleFunc("/outward/{orderId}/scan", r.outwardScan).Methods("POST")
	api.HandleFunc("/outward/{orderId}/retry", r.outwardRetry).Methods("POST")

	// Orders
	api.HandleFunc("/orders/{orderId}", r.getOrder).Methods("GET")
	api.HandleFunc("/orders/{orderId}/undo", r.undoLast).Methods("POST")
	api.HandleFunc("/orders/{orderId}/export.xlsx", r.exportOrder).Methods("GET")

	// Putaway and bins; fixed paths before {binCode}
	api.HandleFunc("/putaway/scan", r.putawayScan).Methods("POST")
	api.HandleFunc("/bins", r.listBins).Methods("GET")
	api.HandleFunc("/bins/unbinned", r.listUnbinned).Methods("GET")
	api.HandleFunc("/bins/summary", r.binSummary).Methods("GET")
	api.HandleFunc("/bins/{binCode}", r.binContents).Methods("GET")

	// Returns and scrap
	api.HandleFunc("/returns/scan", r.returnScan).Methods("POST")
	api.HandleFunc("/scrap/scan", r.scrapScan).Methods("POST")

	// Trace
	api.HandleFunc("/trace/{code}", r.getTrace).Methods("GET")
	api.HandleFunc("/trace/{code}/label.pdf", r.printLabel).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns build info and connected terminals
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	terminals := 0
	if r.hub != nil {
		terminals = len(r.hub.Terminals())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "running",
		"build":     buildinfo.Current(),
		"terminals": terminals,
	})
}

// terminalID picks the header, then the token claim, then the peer address
func terminalID(req *http.Request) string {
	if id := strings.TrimSpace(req.Header.Get(TerminalHeader)); id != "" {
		return id
	}
	if id := utils.TerminalID(middleware.Claims(req.Context())); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func (r *Router) publish(c realtime.Change) {
	if r.events != nil {
		r.events.Publish(c)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondGatewayError maps a backend failure to a status code
func respondGatewayError(w http.ResponseWriter, err error) {
	respondError(w, statusForKind(gateway.KindOf(err)), err.Error())
}

func statusForKind(k gateway.Kind) int {
	switch k {
	case gateway.KindNotFound:
		return http.StatusNotFound
	case gateway.KindConflict:
		return http.StatusConflict
	case gateway.KindInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
