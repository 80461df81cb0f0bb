package scan

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/xelth-com/eckscan/internal/gateway"
)

// ErrNoBin is returned when a packet is scanned before a bin is chosen
var ErrNoBin = errors.New("no bin selected")

// Putaway assigns scanned packets to the selected bin
type Putaway struct {
	gw      gateway.Gateway
	refresh *Refresher
}

func NewPutaway(gw gateway.Gateway, refresh *Refresher) *Putaway {
	return &Putaway{gw: gw, refresh: refresh}
}

// Assign puts one packet into binCode with a single backend call.
// Failures are shown as blocking alerts with the server text as-is.
func (p *Putaway) Assign(ctx context.Context, binCode, code string) Outcome {
	if binCode == "" {
		return failure("Select a bin first", SeverityAlert, ErrNoBin)
	}
	if err := p.gw.AssignPacketToBin(ctx, code, binCode); err != nil {
		log.Printf("⚠️ Putaway: %s -> %s: %v", code, binCode, err)
		return failure(err.Error(), SeverityAlert, err)
	}
	log.Printf("📥 Putaway: %s -> bin %s", code, binCode)

	msg := fmt.Sprintf("Packet %s put in bin %s", code, binCode)
	if p.refresh == nil {
		return success(msg, nil)
	}
	items, err := p.refresh.RefreshBin(ctx, binCode)
	if err != nil {
		log.Printf("⚠️ Putaway: reload bin %s: %v", binCode, err)
	}
	if _, err := p.refresh.RefreshUnbinned(ctx); err != nil {
		log.Printf("⚠️ Putaway: reload unbinned: %v", err)
	}
	return success(msg, items)
}

// Handler binds the flow to the bin returned by binFn at submit time
func (p *Putaway) Handler(binFn func() string) Handler {
	return func(ctx context.Context, code string) Outcome {
		return p.Assign(ctx, binFn(), code)
	}
}
