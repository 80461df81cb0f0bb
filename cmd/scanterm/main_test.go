package main

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/scan"
)

func TestReadKeysFeedsController(t *testing.T) {
	var calls int32
	var got atomic.Value
	ctrl := scan.NewController("test", scan.Options{Debounce: time.Second, MinLength: 12}, func(ctx context.Context, code string) scan.Outcome {
		atomic.AddInt32(&calls, 1)
		got.Store(code)
		return scan.Outcome{OK: true}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	eof := make(chan struct{})
	readKeys(ctx, strings.NewReader("PKT-00X\b0001\r\n"), ctrl, func() { close(eof) })
	<-eof

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if code, _ := got.Load().(string); code != "PKT-000001" {
		t.Errorf("submitted %q, want PKT-000001", code)
	}
}

func TestDemoBackendOutward(t *testing.T) {
	f := demoBackend()
	out := scan.NewOutward(f, nil).Scan(context.Background(), "SO-1001", "PKT-00000001")
	if !out.OK {
		t.Fatalf("demo outward: %+v", out)
	}
	if f.CallCount(gateway.OpOutwardScan) != 1 {
		t.Error("expected one outward call")
	}
	if out := scan.NewOutward(f, nil).Scan(context.Background(), "SO-1001", "PKT-00000007"); out.OK {
		t.Error("scrapped demo packet should be refused")
	}
}
