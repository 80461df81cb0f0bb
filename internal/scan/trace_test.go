package scan

import (
	"context"
	"testing"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
)

func TestTraceLookup(t *testing.T) {
	f, _, o := newOutwardFixture()
	ctx := context.Background()
	o.Scan(ctx, "O", "PKT-0001")

	tr, err := NewTrace(f).Lookup(ctx, "PKT-0001")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if tr.Header.Status != models.PacketOutwarded || tr.Header.OrderID == nil || *tr.Header.OrderID != "O" {
		t.Errorf("header = %+v", tr.Header)
	}

	var kinds []string
	for i, ev := range tr.Events {
		kinds = append(kinds, ev.Kind)
		if i > 0 && ev.At.Before(tr.Events[i-1].At) {
			t.Errorf("events out of order at %d", i)
		}
	}
	want := []string{"produced", "allocated", "outwarded"}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
	if f.CallCount(gateway.OpAllocatePacket) != 1 {
		t.Error("trace must not mutate")
	}
}

func TestTraceHandlerNotFound(t *testing.T) {
	f := gateway.NewFake()
	out := NewTrace(f).Handler()(context.Background(), "NOPE")
	if out.OK || out.Message != "Packet NOPE not found" {
		t.Errorf("outcome = %+v", out)
	}
}
