package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckscan/internal/export"
	"github.com/xelth-com/eckscan/internal/models"
	"github.com/xelth-com/eckscan/internal/realtime"
	"github.com/xelth-com/eckscan/internal/scan"
)

// OrderView is an order with the actions a terminal may offer on it
type OrderView struct {
	*models.SalesOrder
	CanUndo bool `json:"can_undo"`
}

func newOrderView(order *models.SalesOrder) OrderView {
	return OrderView{SalesOrder: order, CanUndo: scan.CanUndo(order)}
}

func (r *Router) getOrder(w http.ResponseWriter, req *http.Request) {
	order, err := r.gw.GetOrder(req.Context(), mux.Vars(req)["orderId"])
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderView(order))
}

func (r *Router) undoLast(w http.ResponseWriter, req *http.Request) {
	orderID := mux.Vars(req)["orderId"]
	refresh := scan.NewRefresher(r.gw)
	refresh.WatchOrder(orderID)
	flow := scan.NewUndo(r.gw, refresh)

	out, err := r.station.Do(req.Context(), terminalID(req), scan.ControlUndo, func(ctx context.Context) scan.Outcome {
		return flow.Undo(ctx, orderID)
	})
	if err != nil {
		respondError(w, http.StatusLocked, err.Error())
		return
	}
	if order, ok := out.Data.(*models.SalesOrder); ok && order != nil {
		out.Data = newOrderView(order)
	}
	respondJSON(w, statusFor(out), out)
	if out.OK {
		r.publish(realtime.Change{Table: "allocation", Action: "undone", OrderID: orderID, Origin: terminalID(req)})
	}
}

func (r *Router) exportOrder(w http.ResponseWriter, req *http.Request) {
	order, err := r.gw.GetOrder(req.Context(), mux.Vars(req)["orderId"])
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	data, err := export.OrderLinesXLSX(order)
	if err != nil {
		log.Printf("❌ Export: order %s: %v", order.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to write Excel file")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order_%s.xlsx", order.OrderNumber))
	w.Write(data)
}
