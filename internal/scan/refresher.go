package scan

import (
	"context"
	"log"
	"sync"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
	"github.com/xelth-com/eckscan/internal/realtime"
)

// Views reloaded by the Refresher
const (
	ViewOrder      = "order"
	ViewBinSummary = "bin_summary"
	ViewBin        = "bin"
	ViewUnbinned   = "unbinned"
)

// Refresher keeps the last authoritative copy of the views a terminal shows and reloads
// them after mutations or change notifications. It never merges: the latest read wins.
// A load that finishes after the terminal switched to another order or bin is discarded.
type Refresher struct {
	gw gateway.Gateway

	mu       sync.Mutex
	orderID  string
	orderGen uint64
	order    *models.SalesOrder
	binCode  string
	binGen   uint64
	bin      []models.BinItem
	summary  []models.BinAvailability
	unbinned []models.UnbinnedPacket
	loads    map[string]int
	onUpdate func(view string)
}

// NewRefresher creates a refresher over gw
func NewRefresher(gw gateway.Gateway) *Refresher {
	return &Refresher{gw: gw, loads: make(map[string]int)}
}

// OnUpdate registers a callback fired after a view is replaced
func (r *Refresher) OnUpdate(fn func(view string)) {
	r.mu.Lock()
	r.onUpdate = fn
	r.mu.Unlock()
}

// WatchOrder switches the order being shown; pending loads for the previous order are dropped
func (r *Refresher) WatchOrder(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.orderID == orderID {
		return
	}
	r.orderID = orderID
	r.orderGen++
	r.order = nil
}

// WatchBin switches the bin being shown
func (r *Refresher) WatchBin(binCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.binCode == binCode {
		return
	}
	r.binCode = binCode
	r.binGen++
	r.bin = nil
}

// RefreshOrder reloads an order. The result is returned either way but only kept when the
// order is still the watched one.
func (r *Refresher) RefreshOrder(ctx context.Context, orderID string) (*models.SalesOrder, error) {
	r.mu.Lock()
	gen := r.orderGen
	r.mu.Unlock()

	order, err := r.gw.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.loads[ViewOrder]++
	kept := r.orderID == orderID && r.orderGen == gen
	if kept {
		r.order = order
	}
	r.mu.Unlock()

	if kept {
		r.notify(ViewOrder)
	}
	return order, nil
}

// RefreshBinSummary reloads bin availability, optionally for one finished good
func (r *Refresher) RefreshBinSummary(ctx context.Context, finishedGood string) ([]models.BinAvailability, error) {
	rows, err := r.gw.BinSummary(ctx, finishedGood)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.loads[ViewBinSummary]++
	r.summary = rows
	r.mu.Unlock()
	r.notify(ViewBinSummary)
	return rows, nil
}

// RefreshBin reloads one bin's contents
func (r *Refresher) RefreshBin(ctx context.Context, binCode string) ([]models.BinItem, error) {
	r.mu.Lock()
	gen := r.binGen
	r.mu.Unlock()

	items, err := r.gw.BinContents(ctx, binCode)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.loads[ViewBin]++
	kept := r.binCode == binCode && r.binGen == gen
	if kept {
		r.bin = items
	}
	r.mu.Unlock()

	if kept {
		r.notify(ViewBin)
	}
	return items, nil
}

// RefreshUnbinned reloads the putaway backlog
func (r *Refresher) RefreshUnbinned(ctx context.Context) ([]models.UnbinnedPacket, error) {
	rows, err := r.gw.UnbinnedPackets(ctx, 0)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.loads[ViewUnbinned]++
	r.unbinned = rows
	r.mu.Unlock()
	r.notify(ViewUnbinned)
	return rows, nil
}

// Order returns the watched order as last loaded
func (r *Refresher) Order() *models.SalesOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order
}

// Bin returns the watched bin's contents as last loaded
func (r *Refresher) Bin() []models.BinItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bin
}

// BinSummary returns the last loaded availability rows
func (r *Refresher) BinSummary() []models.BinAvailability {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// Unbinned returns the last loaded putaway backlog
func (r *Refresher) Unbinned() []models.UnbinnedPacket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unbinned
}

// Loads returns how many times a view was fetched
func (r *Refresher) Loads(view string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads[view]
}

// Follow reloads watched views whenever a change touching them arrives, until changes closes or ctx ends
func (r *Refresher) Follow(ctx context.Context, changes <-chan realtime.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			r.apply(ctx, c)
		}
	}
}

func (r *Refresher) apply(ctx context.Context, c realtime.Change) {
	r.mu.Lock()
	orderID, binCode := r.orderID, r.binCode
	r.mu.Unlock()

	untargeted := c.OrderID == "" && c.BinCode == ""
	if orderID != "" && (c.OrderID == orderID || untargeted) {
		if _, err := r.RefreshOrder(ctx, orderID); err != nil {
			log.Printf("⚠️ Refresh: order %s after %s: %v", orderID, c.EventType(), err)
		}
	}
	if binCode != "" && (c.BinCode == binCode || untargeted) {
		if _, err := r.RefreshBin(ctx, binCode); err != nil {
			log.Printf("⚠️ Refresh: bin %s after %s: %v", binCode, c.EventType(), err)
		}
	}
}

func (r *Refresher) notify(view string) {
	r.mu.Lock()
	fn := r.onUpdate
	r.mu.Unlock()
	if fn != nil {
		fn(view)
	}
}
