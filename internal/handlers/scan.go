package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckscan/internal/realtime"
	"github.com/xelth-com/eckscan/internal/scan"
)

// ScanRequest is the payload a terminal posts for one scan
type ScanRequest struct {
	Code string `json:"code"`
	Bin  string `json:"bin,omitempty"`
	Note string `json:"note,omitempty"`
}

func decodeScan(w http.ResponseWriter, req *http.Request) (ScanRequest, bool) {
	var body ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return body, false
	}
	body.Code = strings.TrimSpace(body.Code)
	if body.Code == "" {
		respondError(w, http.StatusBadRequest, "Empty barcode")
		return body, false
	}
	return body, true
}

// runScan holds the terminal's latch for control while fn runs and writes the outcome.
// A second scan on the same control while one is in flight is refused.
func (r *Router) runScan(w http.ResponseWriter, req *http.Request, control string, fn func(ctx context.Context) scan.Outcome) (scan.Outcome, bool) {
	out, err := r.station.Do(req.Context(), terminalID(req), control, fn)
	if errors.Is(err, scan.ErrBusy) {
		respondError(w, http.StatusLocked, err.Error())
		return out, false
	}
	respondJSON(w, statusFor(out), out)
	return out, out.OK
}

func statusFor(out scan.Outcome) int {
	switch {
	case out.OK:
		return http.StatusOK
	case out.Partial:
		return http.StatusBadGateway
	case errors.Is(out.Err, scan.ErrNoBin), errors.Is(out.Err, scan.ErrNoteRequired):
		return http.StatusBadRequest
	case errors.Is(out.Err, scan.ErrNothingToUndo):
		return http.StatusConflict
	}
	return statusForKind(out.Kind())
}

func (r *Router) outwardScan(w http.ResponseWriter, req *http.Request) {
	orderID := mux.Vars(req)["orderId"]
	body, ok := decodeScan(w, req)
	if !ok {
		return
	}

	refresh := scan.NewRefresher(r.gw)
	refresh.WatchOrder(orderID)
	flow := scan.NewOutward(r.gw, refresh)

	out, ok := r.runScan(w, req, scan.ControlOutward, func(ctx context.Context) scan.Outcome {
		return flow.Scan(ctx, orderID, body.Code)
	})
	if ok {
		r.publish(realtime.Change{Table: "packet", Action: "outwarded", OrderID: orderID, PacketCode: body.Code, Origin: terminalID(req)})
		return
	}
	r.alertPartial(req, orderID, body.Code, out)
}

func (r *Router) outwardRetry(w http.ResponseWriter, req *http.Request) {
	orderID := mux.Vars(req)["orderId"]
	body, ok := decodeScan(w, req)
	if !ok {
		return
	}

	refresh := scan.NewRefresher(r.gw)
	refresh.WatchOrder(orderID)
	flow := scan.NewOutward(r.gw, refresh)

	out, ok := r.runScan(w, req, scan.ControlOutward, func(ctx context.Context) scan.Outcome {
		return flow.RetryOutward(ctx, orderID, body.Code)
	})
	if ok {
		r.publish(realtime.Change{Table: "packet", Action: "outwarded", OrderID: orderID, PacketCode: body.Code, Origin: terminalID(req)})
		return
	}
	r.alertPartial(req, orderID, body.Code, out)
}

// alertPartial pushes a partial outward to the terminal's websocket as well,
// so the alert survives a dropped HTTP reply
func (r *Router) alertPartial(req *http.Request, orderID, code string, out scan.Outcome) {
	if r.hub == nil || !out.Partial {
		return
	}
	terminal := terminalID(req)
	if !r.hub.SendToTerminal(terminal, map[string]string{
		"type":       "OUTWARD_PARTIAL",
		"orderId":    orderID,
		"packetCode": code,
		"message":    out.Message,
	}) {
		log.Printf("⚠️ Outward: partial %s on %s not pushed, terminal %s not connected", code, orderID, terminal)
	}
}

func (r *Router) putawayScan(w http.ResponseWriter, req *http.Request) {
	body, ok := decodeScan(w, req)
	if !ok {
		return
	}
	bin := strings.TrimSpace(body.Bin)

	refresh := scan.NewRefresher(r.gw)
	refresh.WatchBin(bin)
	flow := scan.NewPutaway(r.gw, refresh)

	if _, ok := r.runScan(w, req, scan.ControlPutaway, func(ctx context.Context) scan.Outcome {
		return flow.Assign(ctx, bin, body.Code)
	}); ok {
		r.publish(realtime.Change{Table: "packet", Action: "binned", BinCode: bin, PacketCode: body.Code, Origin: terminalID(req)})
	}
}

func (r *Router) returnScan(w http.ResponseWriter, req *http.Request) {
	body, ok := decodeScan(w, req)
	if !ok {
		return
	}
	flow := scan.NewReturns(r.gw, nil)

	if _, ok := r.runScan(w, req, scan.ControlReturn, func(ctx context.Context) scan.Outcome {
		return flow.Return(ctx, body.Code)
	}); ok {
		r.publish(realtime.Change{Table: "packet", Action: "returned", PacketCode: body.Code, Origin: terminalID(req)})
	}
}

func (r *Router) scrapScan(w http.ResponseWriter, req *http.Request) {
	body, ok := decodeScan(w, req)
	if !ok {
		return
	}
	flow := scan.NewScrap(r.gw)

	if _, ok := r.runScan(w, req, scan.ControlScrap, func(ctx context.Context) scan.Outcome {
		return flow.Scrap(ctx, body.Code, body.Note)
	}); ok {
		r.publish(realtime.Change{Table: "packet", Action: "scrapped", PacketCode: body.Code, Origin: terminalID(req)})
	}
}
