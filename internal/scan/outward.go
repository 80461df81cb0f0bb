package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
)

// ErrPartialOutward means the packet is allocated to the order but was not outwarded,
// and releasing the allocation failed too. Only RetryOutward can finish it.
var ErrPartialOutward = errors.New("packet allocated but not outwarded, retry outward")

// Outward ships packets against one order: lookup, allocate, outward, strictly in that order
type Outward struct {
	gw      gateway.Gateway
	refresh *Refresher
}

// NewOutward creates the outward flow; refresh may be nil
func NewOutward(gw gateway.Gateway, refresh *Refresher) *Outward {
	return &Outward{gw: gw, refresh: refresh}
}

// OutwardNote is the note stored with an outward scan
func OutwardNote(orderID string) string {
	return fmt.Sprintf("Outward for order %s", orderID)
}

// Scan runs the full outward for one packet code
func (o *Outward) Scan(ctx context.Context, orderID, code string) Outcome {
	if orderID == "" {
		return failure("Select an order first", SeverityToast, gateway.NewError(gateway.OpAllocatePacket, gateway.KindInvalidState, "no order selected"))
	}

	p, err := o.gw.LookupPacket(ctx, code)
	if err != nil {
		if gateway.IsKind(err, gateway.KindNotFound) {
			return failure(fmt.Sprintf("Packet %s not found", code), SeverityToast, err)
		}
		return failure(err.Error(), SeverityToast, err)
	}
	switch {
	case p.IsScrapped():
		return failure(fmt.Sprintf("Packet %s is scrapped", code), SeverityToast,
			gateway.NewError(gateway.OpLookupPacket, gateway.KindInvalidState, "packet is scrapped"))
	case p.IsOutwarded():
		return failure(alreadyOutwarded(code), SeverityToast,
			gateway.NewError(gateway.OpLookupPacket, gateway.KindConflict, "packet already outwarded"))
	}

	if err := o.gw.AllocatePacket(ctx, orderID, code); err != nil {
		return outwardFailure(code, err)
	}

	msg, err := o.gw.OutwardScan(ctx, code, OutwardNote(orderID))
	if err != nil {
		return o.compensate(ctx, orderID, code, err)
	}
	return o.done(ctx, orderID, p, msg)
}

// RetryOutward finishes a partial outward: the packet is already allocated, only the outward step runs
func (o *Outward) RetryOutward(ctx context.Context, orderID, code string) Outcome {
	msg, err := o.gw.OutwardScan(ctx, code, OutwardNote(orderID))
	if err != nil {
		out := outwardFailure(code, err)
		if !gateway.IsKind(err, gateway.KindConflict) {
			out.Partial = true
		}
		return out
	}

	var fg string
	if p, err := o.gw.LookupPacket(ctx, code); err == nil {
		fg = p.FinishedGood
	}
	return o.done(ctx, orderID, &models.Packet{Code: code, FinishedGood: fg}, msg)
}

// Handler binds the flow to the order returned by orderFn at submit time
func (o *Outward) Handler(orderFn func() string) Handler {
	return func(ctx context.Context, code string) Outcome {
		return o.Scan(ctx, orderFn(), code)
	}
}

const releaseTimeout = 10 * time.Second

func (o *Outward) compensate(ctx context.Context, orderID, code string, cause error) Outcome {
	out := outwardFailure(code, cause)
	// The release must run even when the request that triggered it is gone.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := o.gw.DeallocatePacket(rctx, orderID, code); err != nil {
		log.Printf("❌ Outward: %s allocated to %s but outward failed (%v) and release failed: %v", code, orderID, cause, err)
		out.Message = fmt.Sprintf("Packet %s allocated but not outwarded, retry outward", code)
		out.Severity = SeverityAlert
		out.Partial = true
		out.Err = fmt.Errorf("%w: %v", ErrPartialOutward, cause)
		return out
	}
	log.Printf("↩️ Outward: released %s from %s after failed outward: %v", code, orderID, cause)
	out.Compensated = true
	return out
}

func (o *Outward) done(ctx context.Context, orderID string, p *models.Packet, msg string) Outcome {
	if msg == "" {
		msg = fmt.Sprintf("Packet %s outwarded", p.Code)
	}
	log.Printf("📦 Outward: %s -> order %s", p.Code, orderID)

	if o.refresh == nil {
		return success(msg, nil)
	}
	order, err := o.refresh.RefreshOrder(ctx, orderID)
	if err != nil {
		log.Printf("⚠️ Outward: reload order %s: %v", orderID, err)
	}
	if _, err := o.refresh.RefreshBinSummary(ctx, p.FinishedGood); err != nil {
		log.Printf("⚠️ Outward: reload bin summary: %v", err)
	}
	if order == nil {
		return success(msg, nil)
	}
	return success(msg, order)
}

func outwardFailure(code string, err error) Outcome {
	if gateway.IsKind(err, gateway.KindConflict) {
		return failure(alreadyOutwarded(code), SeverityToast, err)
	}
	return failure(err.Error(), SeverityToast, err)
}

func alreadyOutwarded(code string) string {
	return fmt.Sprintf("Packet %s already outwarded", code)
}
