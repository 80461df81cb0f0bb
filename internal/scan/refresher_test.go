package scan

import (
	"context"
	"testing"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
	"github.com/xelth-com/eckscan/internal/realtime"
)

func TestRefresherDropsAbandonedOrder(t *testing.T) {
	f := gateway.NewFake()
	f.AddOrder("O1", "Acme", map[string]int64{ragi: 1})
	f.AddOrder("O2", "Beta", map[string]int64{ragi: 2})
	r := NewRefresher(f)
	r.WatchOrder("O1")

	// the terminal switches orders while the O1 load is in flight
	f.Hook = func(op string) {
		if op == gateway.OpGetOrder {
			r.WatchOrder("O2")
		}
	}
	order, err := r.RefreshOrder(context.Background(), "O1")
	f.Hook = nil
	if err != nil || order.ID != "O1" {
		t.Fatalf("RefreshOrder = %v, %v", order, err)
	}
	if r.Order() != nil {
		t.Errorf("stale O1 load was kept: %+v", r.Order())
	}

	if _, err := r.RefreshOrder(context.Background(), "O2"); err != nil {
		t.Fatal(err)
	}
	if r.Order() == nil || r.Order().ID != "O2" {
		t.Errorf("order = %+v, want O2", r.Order())
	}
}

func TestRefresherFollow(t *testing.T) {
	f := gateway.NewFake()
	f.AddOrder("O", "Acme", map[string]int64{ragi: 1})
	f.AddBin("A1", "Aisle 1")
	f.AddPacket("PKT-0001", ragi, models.PacketAvailable)
	r := NewRefresher(f)
	r.WatchOrder("O")
	r.WatchBin("A1")

	var views []string
	r.OnUpdate(func(view string) { views = append(views, view) })

	changes := make(chan realtime.Change, 4)
	changes <- realtime.Change{Action: "outwarded", OrderID: "OTHER"}
	changes <- realtime.Change{Action: "outwarded", OrderID: "O"}
	changes <- realtime.Change{Action: "binned", BinCode: "A1"}
	changes <- realtime.Change{Action: "refresh"}
	close(changes)

	r.Follow(context.Background(), changes)

	if got := r.Loads(ViewOrder); got != 2 {
		t.Errorf("order loads = %d, want 2", got)
	}
	if got := r.Loads(ViewBin); got != 2 {
		t.Errorf("bin loads = %d, want 2", got)
	}
	if len(views) != 4 {
		t.Errorf("updates = %v", views)
	}
}
