package scan

import (
	"context"
	"errors"
	"log"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
)

// ErrNothingToUndo is returned when the order has nothing shipped
var ErrNothingToUndo = errors.New("nothing to undo")

// Undo reverts the most recent allocation on an order. History lives in the backend.
type Undo struct {
	gw      gateway.Gateway
	refresh *Refresher
}

func NewUndo(gw gateway.Gateway, refresh *Refresher) *Undo {
	return &Undo{gw: gw, refresh: refresh}
}

// CanUndo reports whether the undo action should be enabled for order
func CanUndo(order *models.SalesOrder) bool {
	return order != nil && order.ShippedTotal().IsPositive()
}

// Undo loads the order and, if anything was shipped, undoes the last allocation
func (u *Undo) Undo(ctx context.Context, orderID string) Outcome {
	order, err := u.gw.GetOrder(ctx, orderID)
	if err != nil {
		return failure(err.Error(), SeverityToast, err)
	}
	if !CanUndo(order) {
		return failure("Nothing to undo", SeverityInfo, ErrNothingToUndo)
	}

	if err := u.gw.UndoLastAllocation(ctx, orderID); err != nil {
		return failure(err.Error(), SeverityToast, err)
	}
	log.Printf("↩️ Undo: last allocation on order %s", orderID)

	if u.refresh != nil {
		if fresh, err := u.refresh.RefreshOrder(ctx, orderID); err == nil {
			order = fresh
		} else {
			log.Printf("⚠️ Undo: reload order %s: %v", orderID, err)
		}
		if _, err := u.refresh.RefreshBinSummary(ctx, ""); err != nil {
			log.Printf("⚠️ Undo: reload bin summary: %v", err)
		}
	} else if fresh, err := u.gw.GetOrder(ctx, orderID); err == nil {
		order = fresh
	}
	return success("Last allocation undone", order)
}
