// Command scanterm is a keyboard-wedge scan terminal. Characters from stdin feed the
// scan controller exactly as a hardware scanner types into a focused input field;
// a newline is Enter.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/xelth-com/eckscan/internal/config"
	"github.com/xelth-com/eckscan/internal/database"
	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
	"github.com/xelth-com/eckscan/internal/realtime"
	"github.com/xelth-com/eckscan/internal/scan"
)

func main() {
	mode := flag.String("mode", "outward", "scan mode: outward, putaway, return, scrap, trace")
	orderID := flag.String("order", "", "order to ship against (outward)")
	bin := flag.String("bin", "", "target bin (putaway)")
	note := flag.String("note", "", "scrap reason (scrap)")
	auto := flag.Bool("auto", true, "submit after the debounce without waiting for Enter")
	demo := flag.Bool("demo", false, "run against an in-memory backend with sample data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var gw gateway.Gateway
	var changes <-chan realtime.Change
	if *demo {
		gw = demoBackend()
		if *orderID == "" {
			*orderID = "SO-1001"
		}
		if *bin == "" {
			*bin = "A1"
		}
	} else {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		gw = gateway.NewPostgres(db.DB)

		if cfg.Realtime.Enabled {
			broker := realtime.NewBroker()
			sub, unsubscribe := broker.Subscribe(64)
			defer unsubscribe()
			changes = sub
			go realtime.NewListener(db.DSN, cfg.Realtime.Channel, cfg.Realtime.Retry, broker).Run(ctx)
		}
	}

	refresh := scan.NewRefresher(gw)
	refresh.OnUpdate(func(view string) { printView(refresh, view) })
	if changes != nil {
		go refresh.Follow(ctx, changes)
	}

	opts := scan.Options{
		Debounce:  cfg.Scan.Debounce,
		MinLength: cfg.Scan.MinLength,
		Auto:      *auto,
		Cooldown:  cfg.Scan.Cooldown,
	}

	var handler scan.Handler
	switch *mode {
	case "outward":
		if *orderID == "" {
			log.Fatal("-order is required for outward")
		}
		refresh.WatchOrder(*orderID)
		if _, err := refresh.RefreshOrder(ctx, *orderID); err != nil {
			log.Fatalf("Failed to load order %s: %v", *orderID, err)
		}
		handler = scan.NewOutward(gw, refresh).Handler(func() string { return *orderID })
	case "putaway":
		if *bin == "" {
			log.Fatal("-bin is required for putaway")
		}
		refresh.WatchBin(*bin)
		handler = scan.NewPutaway(gw, refresh).Handler(func() string { return *bin })
	case "return":
		handler = scan.NewReturns(gw, refresh).Handler()
	case "scrap":
		handler = scan.NewScrap(gw).Handler(func() string { return *note })
	case "trace":
		opts.MinLength = 1
		handler = scan.NewTrace(gw).Handler()
	default:
		log.Fatalf("Unknown mode %q", *mode)
	}

	ctrl := scan.NewController(*mode, opts, handler)
	printed := 0
	ctrl.OnChange = func(s scan.Session) {
		if s.Last != nil && s.Submissions != printed && s.State != scan.Submitting {
			printed = s.Submissions
			printOutcome(*s.Last)
		}
	}
	go ctrl.Run(ctx)

	fmt.Printf("📟 scanterm ready (%s). Scan a packet, Ctrl-C to quit.\n", *mode)
	go readKeys(ctx, os.Stdin, ctrl, cancel)
	<-ctx.Done()
}

// readKeys forwards stdin to the controller one rune at a time
func readKeys(ctx context.Context, in io.Reader, ctrl *scan.Controller, done func()) {
	r := bufio.NewReader(in)
	for ctx.Err() == nil {
		ch, _, err := r.ReadRune()
		if err != nil {
			done()
			return
		}
		switch ch {
		case '\n':
			ctrl.Enter()
		case '\r':
		case 0x1b:
			ctrl.Dismiss()
		case '\b', 0x7f:
			ctrl.Backspace()
		default:
			ctrl.Key(ch)
		}
	}
}

func printOutcome(out scan.Outcome) {
	icon := "✅"
	switch {
	case out.Partial:
		icon = "🚨"
	case !out.OK && out.Severity == scan.SeverityAlert:
		icon = "⛔"
	case !out.OK:
		icon = "❌"
	}
	fmt.Printf("%s %s\n", icon, out.Message)
	if !out.OK && out.Severity == scan.SeverityAlert {
		fmt.Println("   press Esc to acknowledge")
	}

	if tr, ok := out.Data.(*models.PacketTrace); ok {
		h := tr.Header
		fmt.Printf("   %s  %s  %s\n", h.PacketCode, h.FinishedGood, h.Status)
		for _, ev := range tr.Events {
			fmt.Printf("   %s  %-10s %s %s\n", ev.At.Format("2006-01-02 15:04"), ev.Kind, ev.Ref, ev.Note)
		}
	}
}

func printView(r *scan.Refresher, view string) {
	switch view {
	case scan.ViewOrder:
		order := r.Order()
		if order == nil {
			return
		}
		fmt.Printf("📋 %s %s\n", order.OrderNumber, order.CustomerName)
		for _, l := range order.Lines {
			fmt.Printf("   %-24s %s/%s\n", l.FinishedGood, l.ShippedQty, l.OrderedQty)
		}
		if scan.CanUndo(order) {
			fmt.Println("   (undo available)")
		}
	case scan.ViewBin:
		fmt.Printf("🗄️ bin holds %d packets\n", len(r.Bin()))
	case scan.ViewUnbinned:
		fmt.Printf("📦 %d packets waiting for putaway\n", len(r.Unbinned()))
	}
}

// demoBackend seeds a small warehouse for trying the terminal without a database
func demoBackend() *gateway.Fake {
	f := gateway.NewFake()
	f.AddOrder("SO-1001", "Acme Stores", map[string]int64{"Ragi Atta 1kg": 10, "Jowar Atta 1kg": 4})
	f.AddBin("A1", "Aisle 1")
	f.AddBin("A2", "Aisle 2")
	for i := 1; i <= 5; i++ {
		f.AddPacket(fmt.Sprintf("PKT-%08d", i), "Ragi Atta 1kg", models.PacketAvailable)
	}
	f.AddPacket("PKT-00000006", "Jowar Atta 1kg", models.PacketAvailable)
	f.AddPacket("PKT-00000007", "Ragi Atta 1kg", models.PacketScrapped)
	return f
}
