package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/xelth-com/eckscan/internal/models"
)

func TestFakeAllocateOutwardUndo(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	f.AddOrder("O", "Acme", map[string]int64{"Ragi Atta 1kg": 10})
	f.AddPacket("PKT-0001", "Ragi Atta 1kg", models.PacketAvailable)

	if err := f.AllocatePacket(ctx, "O", "PKT-0001"); err != nil {
		t.Fatalf("AllocatePacket: %v", err)
	}
	if _, err := f.OutwardScan(ctx, "PKT-0001", "Outward for order O"); err != nil {
		t.Fatalf("OutwardScan: %v", err)
	}

	order, _ := f.GetOrder(ctx, "O")
	if got := order.Line("Ragi Atta 1kg").ShippedQty.IntPart(); got != 1 {
		t.Errorf("shipped = %d, want 1", got)
	}

	err := f.AllocatePacket(ctx, "O", "PKT-0001")
	if !IsKind(err, KindConflict) {
		t.Errorf("second allocation should conflict, got %v", err)
	}

	if err := f.UndoLastAllocation(ctx, "O"); err != nil {
		t.Fatalf("UndoLastAllocation: %v", err)
	}
	order, _ = f.GetOrder(ctx, "O")
	if !order.ShippedTotal().IsZero() {
		t.Errorf("shipped after undo = %s, want 0", order.ShippedTotal())
	}
	if p, _ := f.Packet("PKT-0001"); p.Status != models.PacketAvailable {
		t.Errorf("packet status after undo = %s", p.Status)
	}
	if err := f.UndoLastAllocation(ctx, "O"); !IsKind(err, KindInvalidState) {
		t.Errorf("undo with nothing allocated should be invalid state, got %v", err)
	}
}

func TestFakeFailOnIsOneShot(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	f.AddBin("A1", "Aisle 1")
	f.AddPacket("PKT-1", "Ragi", models.PacketAvailable)
	f.FailOn(OpAssignPacketToBin, errors.New("network down"))

	if err := f.AssignPacketToBin(ctx, "PKT-1", "A1"); err == nil || err.Error() != "network down" {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if err := f.AssignPacketToBin(ctx, "PKT-1", "A1"); err != nil {
		t.Fatalf("second call should succeed: %v", err)
	}
	if got := f.CallCount(OpAssignPacketToBin); got != 2 {
		t.Errorf("CallCount = %d, want 2", got)
	}

	items, _ := f.BinContents(ctx, "A1")
	if len(items) != 1 {
		t.Errorf("bin should hold 1 packet, got %d", len(items))
	}
	unbinned, _ := f.UnbinnedPackets(ctx, 0)
	if len(unbinned) != 0 {
		t.Errorf("no packets should be unbinned, got %d", len(unbinned))
	}
}

func TestFakeReturnAndScrap(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	f.AddPacket("PKT-1", "Ragi", models.PacketOutwarded)
	f.AddPacket("PKT-2", "Ragi", models.PacketAvailable)

	if err := f.ReturnPacket(ctx, "PKT-1"); err != nil {
		t.Fatalf("ReturnPacket: %v", err)
	}
	if err := f.ReturnPacket(ctx, "PKT-1"); !IsKind(err, KindConflict) {
		t.Errorf("double return should conflict, got %v", err)
	}
	if err := f.ReturnPacket(ctx, "PKT-2"); !IsKind(err, KindInvalidState) {
		t.Errorf("returning an available packet should be invalid, got %v", err)
	}

	if err := f.ScrapPacket(ctx, "PKT-2", "torn"); err != nil {
		t.Fatalf("ScrapPacket: %v", err)
	}
	events, _ := f.TraceEvents(ctx, "PKT-2")
	if last := events[len(events)-1]; last.Kind != "scrapped" || last.Note != "torn" {
		t.Errorf("unexpected last event %+v", last)
	}
}
