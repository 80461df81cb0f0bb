package scan

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/models"
)

// Trace reads a packet's history. It never mutates.
type Trace struct {
	gw gateway.Gateway
}

func NewTrace(gw gateway.Gateway) *Trace {
	return &Trace{gw: gw}
}

// Lookup fetches the header and the event list in parallel
func (t *Trace) Lookup(ctx context.Context, code string) (*models.PacketTrace, error) {
	var (
		header *models.TraceHeader
		events []models.TraceEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := t.gw.TraceHeader(gctx, code)
		header = h
		return err
	})
	g.Go(func() error {
		ev, err := t.gw.TraceEvents(gctx, code)
		events = ev
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	return &models.PacketTrace{Header: header, Events: events}, nil
}

// Handler adapts Lookup to a Controller
func (t *Trace) Handler() Handler {
	return func(ctx context.Context, code string) Outcome {
		tr, err := t.Lookup(ctx, code)
		if err != nil {
			if gateway.IsKind(err, gateway.KindNotFound) {
				return failure(fmt.Sprintf("Packet %s not found", code), SeverityInfo, err)
			}
			return failure(err.Error(), SeverityToast, err)
		}
		return Outcome{OK: true, Message: fmt.Sprintf("%d events", len(tr.Events)), Severity: SeverityInfo, Data: tr}
	}
}
