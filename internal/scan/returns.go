package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/xelth-com/eckscan/internal/gateway"
)

// ErrNoteRequired is returned when a packet is scrapped without a reason
var ErrNoteRequired = errors.New("scrap note required")

// Returns books outwarded packets back into stock. The backend decides eligibility.
type Returns struct {
	gw      gateway.Gateway
	refresh *Refresher
}

func NewReturns(gw gateway.Gateway, refresh *Refresher) *Returns {
	return &Returns{gw: gw, refresh: refresh}
}

// Return books one packet back in
func (r *Returns) Return(ctx context.Context, code string) Outcome {
	if err := r.gw.ReturnPacket(ctx, code); err != nil {
		if gateway.IsKind(err, gateway.KindConflict) {
			return failure(fmt.Sprintf("Packet %s already returned", code), SeverityToast, err)
		}
		return failure(err.Error(), SeverityToast, err)
	}
	log.Printf("🔄 Return: %s", code)
	if r.refresh != nil {
		if _, err := r.refresh.RefreshUnbinned(ctx); err != nil {
			log.Printf("⚠️ Return: reload unbinned: %v", err)
		}
	}
	return success(fmt.Sprintf("Packet %s returned", code), nil)
}

// Handler adapts Return to a Controller
func (r *Returns) Handler() Handler {
	return r.Return
}

// Scrap writes packets off with a mandatory reason
type Scrap struct {
	gw gateway.Gateway
}

func NewScrap(gw gateway.Gateway) *Scrap {
	return &Scrap{gw: gw}
}

// Scrap writes off one packet
func (s *Scrap) Scrap(ctx context.Context, code, note string) Outcome {
	note = strings.TrimSpace(note)
	if note == "" {
		return failure("Enter a reason before scrapping", SeverityToast, ErrNoteRequired)
	}
	if err := s.gw.ScrapPacket(ctx, code, note); err != nil {
		if gateway.IsKind(err, gateway.KindConflict) {
			return failure(fmt.Sprintf("Packet %s already scrapped", code), SeverityToast, err)
		}
		return failure(err.Error(), SeverityToast, err)
	}
	log.Printf("🗑️ Scrap: %s (%s)", code, note)
	return success(fmt.Sprintf("Packet %s scrapped", code), nil)
}

// Handler binds the flow to the note returned by noteFn at submit time
func (s *Scrap) Handler(noteFn func() string) Handler {
	return func(ctx context.Context, code string) Outcome {
		return s.Scrap(ctx, code, noteFn())
	}
}
