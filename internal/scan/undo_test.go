package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
)

func TestCanUndo(t *testing.T) {
	f, _, o := newOutwardFixture()
	ctx := context.Background()

	order, _ := f.GetOrder(ctx, "O")
	if CanUndo(order) {
		t.Error("undo must be disabled with nothing shipped")
	}
	if CanUndo(nil) {
		t.Error("undo must be disabled without an order")
	}

	o.Scan(ctx, "O", "PKT-0001")
	order, _ = f.GetOrder(ctx, "O")
	if !CanUndo(order) {
		t.Error("undo should be enabled after a shipment")
	}
}

func TestUndoNothingShippedMakesNoCall(t *testing.T) {
	f, r, _ := newOutwardFixture()
	out := NewUndo(f, r).Undo(context.Background(), "O")
	if out.OK || !errors.Is(out.Err, ErrNothingToUndo) {
		t.Fatalf("outcome = %+v", out)
	}
	if f.CallCount(gateway.OpUndoLastAllocation) != 0 {
		t.Error("undo procedure must not be called")
	}
}

func TestUndoRevertsLastAllocation(t *testing.T) {
	f, r, o := newOutwardFixture()
	ctx := context.Background()
	f.AddPacket("PKT-0002", ragi, models.PacketAvailable)
	o.Scan(ctx, "O", "PKT-0001")
	o.Scan(ctx, "O", "PKT-0002")

	out := NewUndo(f, r).Undo(ctx, "O")
	if !out.OK {
		t.Fatalf("Undo: %+v", out)
	}
	if got := shipped(t, f); got != 1 {
		t.Errorf("shipped = %d, want 1", got)
	}
	if p, _ := f.Packet("PKT-0002"); p.Status != models.PacketAvailable {
		t.Errorf("PKT-0002 status = %s, want available", p.Status)
	}
	if r.Order().ShippedTotal().IntPart() != 1 {
		t.Error("refresher should hold the order after undo")
	}
}
